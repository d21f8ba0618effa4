package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stasher/internal/shared"
	"golang.org/x/oauth2"
)

const clientSecrets = `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"shh","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthCredentials(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(secrets, []byte(clientSecrets), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("loads client secrets", func(t *testing.T) {
		creds, err := NewOAuthCredentials(secrets, filepath.Join(dir, "token.json"), "http://127.0.0.1:8085/callback")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := creds.Config()
		if cfg.ClientID != "cid.apps.googleusercontent.com" || cfg.RedirectURL != "http://127.0.0.1:8085/callback" {
			t.Errorf("unexpected config %+v", cfg)
		}
		if len(cfg.Scopes) != 1 || !strings.HasSuffix(cfg.Scopes[0], "youtube.force-ssl") {
			t.Errorf("unexpected scopes %v", cfg.Scopes)
		}

		url := creds.AuthCodeURL("state123")
		if !strings.Contains(url, "state=state123") || !strings.Contains(url, "access_type=offline") {
			t.Errorf("unexpected auth url %s", url)
		}
	})

	t.Run("missing secrets", func(t *testing.T) {
		_, err := NewOAuthCredentials(filepath.Join(dir, "nope.json"), "", "")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("malformed secrets", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		os.WriteFile(bad, []byte(`{"web": 1}`), 0o600)
		_, err := NewOAuthCredentials(bad, "", "")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("no token means not authenticated", func(t *testing.T) {
		creds := NewOAuthCredentialsFromConfig(&oauth2.Config{}, filepath.Join(t.TempDir(), "token.json"))
		if _, err := creds.LoadToken(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := creds.HTTPClient(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("saves token with owner-only permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth", "token.json")
		creds := NewOAuthCredentialsFromConfig(&oauth2.Config{}, path)
		token := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}

		if err := creds.SaveToken(token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected token file: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected 0600, got %v", info.Mode().Perm())
		}

		loaded, err := creds.LoadToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.AccessToken != "at" || loaded.RefreshToken != "rt" {
			t.Errorf("unexpected token %+v", loaded)
		}

		ts, err := creds.TokenSource(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := ts.Token()
		if err != nil || got.AccessToken != "at" {
			t.Errorf("expected saved access token, got %v, %v", got, err)
		}
	})

	t.Run("expired token without refresh", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		creds := NewOAuthCredentialsFromConfig(&oauth2.Config{}, path)
		creds.SaveToken(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)})

		if _, err := creds.TokenSource(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
