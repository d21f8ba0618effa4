package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/stasher/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// OAuthCredentials loads the installed-app client secrets and persists the user's token.
type OAuthCredentials struct {
	config    *oauth2.Config
	tokenPath string
}

// NewOAuthCredentials reads a Google client secrets file and prepares an OAuth config for the
// YouTube force-ssl scope. A non-empty redirectURL overrides the one in the file.
func NewOAuthCredentials(secretsPath, tokenPath, redirectURL string) (*OAuthCredentials, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: client secrets %s: %w", shared.ErrMissingCredentials, secretsPath, err)
	}

	config, err := google.ConfigFromJSON(data, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
	return NewOAuthCredentialsFromConfig(config, tokenPath), nil
}

// NewOAuthCredentialsFromConfig wraps an existing config.
func NewOAuthCredentialsFromConfig(config *oauth2.Config, tokenPath string) *OAuthCredentials {
	return &OAuthCredentials{config: config, tokenPath: tokenPath}
}

// Config returns the underlying OAuth config.
func (c *OAuthCredentials) Config() *oauth2.Config {
	return c.config
}

// AuthCodeURL returns the consent page URL. Offline access is requested so a refresh token is issued.
func (c *OAuthCredentials) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and saves it.
func (c *OAuthCredentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	if err := c.SaveToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// LoadToken reads the saved token. Returns [shared.ErrNotAuthenticated] when none exists.
func (c *OAuthCredentials) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s", shared.ErrNotAuthenticated, c.tokenPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token file: %w", shared.ErrInvalidCredentials, err)
	}
	return &token, nil
}

// SaveToken writes the token with owner-only permissions.
func (c *OAuthCredentials) SaveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(c.tokenPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(c.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source that saves refreshed tokens.
//
// A token that has expired without a refresh token means the user must authorize again.
func (c *OAuthCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := c.LoadToken()
	if err != nil {
		return nil, err
	}
	if !token.Valid() && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and cannot be refreshed", shared.ErrNotAuthenticated)
	}

	return &persistingTokenSource{
		base:  oauth2.ReuseTokenSource(token, c.config.TokenSource(ctx, token)),
		creds: c,
		last:  token.AccessToken,
	}, nil
}

// HTTPClient returns an authorized HTTP client.
func (c *OAuthCredentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

type persistingTokenSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	creds *OAuthCredentials
	last  string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.creds.SaveToken(token); err != nil {
			return nil, err
		}
	}
	return token, nil
}
