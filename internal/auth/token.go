// Package auth resolves Authorization headers from bearer tokens.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fivetwenty-io/hac/pkg/hac"
)

// Static errors for err113 compliance.
var (
	ErrNoToken                  = errors.New("no token available")
	ErrTokenExpired             = errors.New("token expired")
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// expiryBuffer treats tokens about to expire as already expired.
const expiryBuffer = 30 * time.Second

// Token is a bearer access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is usable for at least expiryBuffer.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token.
type TokenStore struct {
	mutex sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token or nil.
func (s *TokenStore) Get() *Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// TokenManager supplies access tokens.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// StaticTokenManager serves a fixed token until it expires.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager for token. A zero expiresAt never
// expires.
func NewStaticTokenManager(token string, expiresAt time.Time) *StaticTokenManager {
	manager := &StaticTokenManager{store: NewTokenStore()}
	manager.SetToken(token, expiresAt)

	return manager
}

// GetToken implements TokenManager.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()

	switch {
	case token == nil || token.AccessToken == "":
		return "", ErrNoToken
	case !token.Valid():
		return "", ErrTokenExpired
	default:
		return token.AccessToken, nil
	}
}

// RefreshToken implements TokenManager.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

// SetToken implements TokenManager.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}

// BearerResolver returns a header resolver that sets Authorization from the
// manager's token. Token errors are returned unmodified.
func BearerResolver(manager TokenManager) hac.HeaderResolver {
	return func(ctx context.Context) (map[string]string, error) {
		token, err := manager.GetToken(ctx)
		if err != nil {
			return nil, err
		}

		return map[string]string{"Authorization": "Bearer " + token}, nil
	}
}
