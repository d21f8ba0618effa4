package server

import (
	"net/http"
	"slices"
	"strings"
)

// CallbackRouter serves the routes of the local OAuth listener.
//
// Routes are [http.ServeMux] method patterns, so a GET route answers 405 to other methods. Any
// path nobody registered, such as the favicon a browser asks for, gets a short 404 naming the
// routes that do exist.
type CallbackRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      []string
}

// NewCallbackRouter creates an empty [CallbackRouter].
func NewCallbackRouter() *CallbackRouter {
	r := &CallbackRouter{mux: http.NewServeMux(), middlewares: []Middleware{}, routes: []string{}}
	r.mux.HandleFunc("GET /", r.notFound)
	return r
}

// Use appends [Middleware]; the first added runs outermost.
func (r *CallbackRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path behind the middleware stack in place at call time.
func (r *CallbackRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(strings.ToUpper(method)+" "+path, r.Apply(handler))
	if !slices.Contains(r.routes, path) {
		r.routes = append(r.routes, path)
	}
}

// Handler registers every route of handler for GET, the method a browser uses to follow the
// provider's redirect.
func (r *CallbackRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(http.MethodGet, route, handler)
	}
}

// Routes lists the registered paths in registration order.
func (r *CallbackRouter) Routes() []string {
	return slices.Clone(r.routes)
}

func (r *CallbackRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the middleware stack.
func (r *CallbackRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

func (r *CallbackRouter) notFound(w http.ResponseWriter, req *http.Request) {
	http.Error(w, "stasher is waiting for the authorization redirect on "+strings.Join(r.routes, ", "), http.StatusNotFound)
}
