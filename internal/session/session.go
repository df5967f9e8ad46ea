// Package session manages bearer sessions for the admin front end. The core
// API owns authentication; this layer only pairs tokens with cached profiles
// and enforces the rule that any 401 destroys the session.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Store issues, restores, and clears sessions. Profiles are cached per token
// so repeated permission checks do not hammer /auth/me.
type Store struct {
	auth     port.AuthGateway
	profiles port.Cache[*domain.User]
	logger   *zap.Logger
}

// NewStore creates a session store.
func NewStore(auth port.AuthGateway, profiles port.Cache[*domain.User], logger *zap.Logger) *Store {
	return &Store{auth: auth, profiles: profiles, logger: logger}
}

// Login exchanges credentials for a fresh session. The profile is fetched
// immediately so the caller can render the user's name and role without a
// second round trip.
func (s *Store) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	tok, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.auth.Me(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	s.profiles.Set(tok.AccessToken, user)
	s.logger.Info("session: login",
		zap.Int("user_id", user.ID),
		zap.String("role", user.Role.Code),
	)

	return &domain.Session{
		Token:     tok.AccessToken,
		User:      *user,
		ExpiresAt: tokenExpiry(tok.AccessToken),
	}, nil
}

// Restore rebuilds a session from a persisted token. The token is validated
// against the core, never locally: an expired or revoked token comes back as
// ErrUnauthorized and the caller must discard it.
func (s *Store) Restore(ctx context.Context, token string) (*domain.Session, error) {
	user, err := s.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     token,
		User:      *user,
		ExpiresAt: tokenExpiry(token),
	}, nil
}

// Current resolves the profile behind a token, serving from cache when warm.
// A 401 evicts the cache entry so a stale profile cannot outlive its token.
func (s *Store) Current(ctx context.Context, token string) (*domain.User, error) {
	if user, ok := s.profiles.Get(token); ok {
		return user, nil
	}

	user, err := s.auth.Me(ctx, token)
	if err != nil {
		var unauth *domain.ErrUnauthorized
		if errors.As(err, &unauth) {
			s.Clear(token)
		}
		return nil, err
	}

	s.profiles.Set(token, user)
	return user, nil
}

// Clear forgets the cached profile for a token. Logout is client-side only:
// the core has no token revocation endpoint, so the token simply ages out.
func (s *Store) Clear(token string) {
	s.profiles.Delete(token)
}

// tokenExpiry peeks at the JWT exp claim without verifying the signature.
// Verification is the core's job; the timestamp is advisory, shown so the UI
// can warn before the session dies mid-edit. A zero time means unknown.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
