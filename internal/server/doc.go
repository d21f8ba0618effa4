// Package server provides the local HTTP listener used by the interactive OAuth flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added, the first one outermost.
//
// The [CallbackRouter] implementation uses [http.ServeMux] method patterns and answers unknown paths with a 404.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// The auth command starts a [CallbackServer] on the configured host and port, opens the consent page,
// waits for the single callback and shuts the server down once the token is saved.
package server
