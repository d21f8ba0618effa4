package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stasher/internal/shared"
	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh"}, nil
}

func TestOAuthHandler(t *testing.T) {
	t.Run("successful callback", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "state123", "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}

		token, err := h.Wait(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access-abc" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "state123", "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=evil&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if len(ex.codes) != 0 {
			t.Error("code must not be exchanged on state mismatch")
		}
	})

	t.Run("consent denied", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "s", "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))

		_, err := h.Wait(context.Background())
		if !errors.Is(err, shared.ErrAuthFailed) || !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{err: shared.ErrAuthFailed}, "s", "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=x", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if _, err := h.Wait(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "s", "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=1", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=2", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
		if len(ex.codes) != 1 {
			t.Errorf("expected one exchange, got %v", ex.codes)
		}
	})

	t.Run("wait honours context", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "s", "/cb")
		if got := h.Routes(); len(got) != 1 || got[0] != "/cb" {
			t.Errorf("unexpected routes %v", got)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := h.Wait(ctx); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestCallbackRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewCallbackRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("method filtering", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Handler(NewOAuthHandler(&fakeExchanger{}, "s", ""))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("unknown paths list the callback route", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Handler(NewOAuthHandler(&fakeExchanger{}, "s", "/oauth/callback"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/oauth/callback") {
			t.Errorf("expected the callback route in the body, got %q", rec.Body.String())
		}
		if routes := r.Routes(); len(routes) != 1 || routes[0] != "/oauth/callback" {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("request logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		r := NewCallbackRouter()
		r.Use(RequestLogger(logger))
		r.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

		if out := buf.String(); !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/teapot") {
			t.Errorf("unexpected log output: %q", out)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	h := NewOAuthHandler(&fakeExchanger{}, "s", "")
	r := NewCallbackRouter()
	r.Handler(h)

	srv, err := StartCallbackServer("127.0.0.1:0", r)
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/callback?state=s&code=live")
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err := h.Wait(context.Background())
	if err != nil || token.AccessToken != "access-live" {
		t.Fatalf("unexpected result %v, %v", token, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
	for err := range srv.Errors() {
		t.Errorf("unexpected serve error: %v", err)
	}
}
