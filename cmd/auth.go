package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stasher/internal/server"
	"github.com/desertthunder/stasher/internal/services"
	"github.com/desertthunder/stasher/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for YouTube.
//
// Starts a local callback server, opens the browser for consent, and saves the exchanged token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, creds, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", r.config.Credentials.YouTube.TokenPath)
	if token.RefreshToken == "" {
		r.writePlain("⚠ No refresh token was issued; you will need to log in again when it expires.\n")
	}
	r.writePlain("You can now use: stasher playlist delta\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, creds *services.OAuthCredentials, openBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := creds.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(creds, state, "/callback")
	router := server.NewCallbackRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv, err := server.StartCallbackServer(serverAddr, router)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("started OAuth callback server at %v", srv.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for YouTube authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	} else {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	type outcome struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		token, err := oauthHandler.Wait(waitCtx)
		done <- outcome{token, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("authorization failed: %w", res.err)
		}
		if res.token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return res.token, nil
	case err, ok := <-srv.Errors():
		if !ok {
			return nil, fmt.Errorf("%w: callback server stopped", shared.ErrAuthFailed)
		}
		return nil, fmt.Errorf("server error: %w", err)
	}
}

// AuthStatus reports whether a cached token exists and can be used.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials()
	if err != nil {
		return err
	}

	token, err := creds.LoadToken()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.writePlain("Authentication: ✗ Not authenticated\n")
		return r.writePlain("Run 'stasher auth login' to authorize.\n")
	case err != nil:
		return err
	}

	r.writePlain("Token file: %s\n", r.config.Credentials.YouTube.TokenPath)
	switch {
	case token.Valid():
		r.writePlain("Authentication: ✓ Authenticated\n")
		if !token.Expiry.IsZero() {
			r.writePlain("Access token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
		}
	case token.RefreshToken != "":
		r.writePlain("Authentication: ✓ Authenticated (access token will be refreshed)\n")
	default:
		r.writePlain("Authentication: ✗ Token expired\n")
		return r.writePlain("Run 'stasher auth login' to authorize again.\n")
	}
	return nil
}
