package googleauth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// Business Profile scope required by all review and location endpoints.
const businessManageScope = "https://www.googleapis.com/auth/business.manage"

// TokenSource exchanges a long-lived OAuth refresh token for short-lived
// bearer access tokens, caching each access token until it expires.
type TokenSource struct {
	mu sync.Mutex
	ts oauth2.TokenSource
}

// NewTokenSource builds a token source from OAuth client credentials and a
// stored refresh token obtained during account connection.
func NewTokenSource(clientID, clientSecret, refreshToken string) (ports.GoogleTokenSource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("Google OAuth client credentials are required")
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("Google refresh token is required")
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{businessManageScope},
		Endpoint:     google.Endpoint,
	}

	base := cfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: refreshToken})
	return &TokenSource{ts: oauth2.ReuseTokenSource(nil, base)}, nil
}

// Token returns a valid bearer token, refreshing through the OAuth endpoint
// only when the cached one has expired.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.ts.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain Google access token: %w", err)
	}
	return tok.AccessToken, nil
}

// StaticTokenSource returns a token source that always yields the same token.
// Useful in tests and for short-lived tooling with a pre-minted token.
func StaticTokenSource(token string) ports.GoogleTokenSource {
	return staticSource(token)
}

type staticSource string

func (s staticSource) Token(ctx context.Context) (string, error) { return string(s), nil }
