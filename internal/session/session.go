// Package session reads and writes the signed-in user from a key-value store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/billed-dev/billed/internal/model"
)

// ErrNoSession is returned when no valid user is stored.
var ErrNoSession = errors.New("no active session")

// UserKey is the key the current user is stored under.
const UserKey = "user"

// KV is the persisted key-value store backing the session.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Session exposes the current user. It never caches: every call reads the store.
type Session struct {
	kv KV
}

// New wraps kv.
func New(kv KV) *Session {
	return &Session{kv: kv}
}

// Current returns the stored user. A user without an email or role is not a session.
func (s *Session) Current() (model.User, error) {
	raw, ok := s.kv.Get(UserKey)
	if !ok || raw == "" {
		return model.User{}, ErrNoSession
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return model.User{}, fmt.Errorf("%w: decoding user: %v", ErrNoSession, err)
	}
	if u.Type == "" {
		return model.User{}, ErrNoSession
	}
	return u, nil
}

// Login stores u as the current user.
func (s *Session) Login(u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(UserKey, string(data)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Logout removes the current user.
func (s *Session) Logout() error {
	if err := s.kv.Delete(UserKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// SignedIn reports whether a valid user is stored.
func (s *Session) SignedIn() bool {
	_, err := s.Current()
	return err == nil
}
