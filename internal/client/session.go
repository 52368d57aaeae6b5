package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stitchline/stitchline-erp/internal/auth"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file readable only by the owner.
type FileTokenStore struct {
	Path string
}

// Load returns the stored token, or "" when none exists.
func (f FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("client: read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("client: create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("client: write token: %w", err)
	}
	return nil
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: remove token: %w", err)
	}
	return nil
}

// Session owns the signed-in user for one client. Any 401 answer ends it.
type Session struct {
	api   *Client
	store TokenStore

	mu   sync.RWMutex
	user *auth.User
}

// NewSession binds a session to api and store.
func NewSession(api *Client, store TokenStore) *Session {
	s := &Session{api: api, store: store}
	api.OnUnauthorized(s.expire)
	return s
}

// Rehydrate restores the session from the stored token and confirms it with the server.
func (s *Session) Rehydrate(ctx context.Context) (*auth.User, error) {
	token, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}
	s.api.SetToken(token)
	user, err := s.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

// Login signs in and persists the token.
func (s *Session) Login(ctx context.Context, username, password string) (*auth.User, error) {
	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(resp.Token); err != nil {
		return nil, err
	}
	s.api.SetToken(resp.Token)
	user := resp.User
	s.setUser(&user)
	return &user, nil
}

// Logout revokes the token on the server and always clears local state. A token the server
// already rejects is not an error.
func (s *Session) Logout(ctx context.Context) error {
	var serverErr error
	if s.api.Token() != "" {
		serverErr = s.api.Logout(ctx)
		if errors.Is(serverErr, ErrUnauthorized) {
			serverErr = nil
		}
	}
	s.expire()
	return serverErr
}

// User returns the signed-in user, or nil.
func (s *Session) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.User() != nil
}

func (s *Session) setUser(user *auth.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

func (s *Session) expire() {
	s.api.SetToken("")
	_ = s.store.Clear()
	s.setUser(nil)
}
