// Package session keeps the authenticated user's token across restarts.
// The token lives in the local sqlite settings table, so a device that
// authenticated once keeps working offline and syncs when it can.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "auth:token"

// SettingsStore is the subset of the local store the session needs.
type SettingsStore interface {
	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Session holds the current auth token, backed by the settings store.
// Safe for concurrent use: the sync engine reads the token from a
// background goroutine while the user logs in or out.
type Session struct {
	store SettingsStore

	mu    sync.RWMutex
	token string
}

// Load restores a previously persisted token, if any.
func Load(ctx context.Context, store SettingsStore) (*Session, error) {
	token, err := store.Setting(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	return &Session{store: store, token: token}, nil
}

// Token returns the current auth token ("" when logged out). Its signature
// matches remote.TokenFunc.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores a freshly issued token and persists it.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.store.SetSetting(ctx, tokenKey, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear logs the user out on this device.
func (s *Session) Clear(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

// Authenticated reports whether a usable token is present. The token's
// expiry claim is inspected locally, without signature verification: the
// server still verifies the signature on every request, this check only
// avoids doomed sync cycles.
func (s *Session) Authenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}
