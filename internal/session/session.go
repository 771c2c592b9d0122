// Package session holds the authenticated user context. The session is
// an explicit value injected into the platform client, never ambient
// global state: hydrate it at process start, save it after a token
// refresh, clear it when the refresh token is rejected.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrNoSession is returned when no session has been hydrated yet.
var ErrNoSession = errors.New("no active session")

// Session is the authenticated user context attached to every backend
// call. AccountUUIDs lists the user's accounts as issued at login; the
// backend has no listing endpoint for them.
type Session struct {
	UserUUID     uuid.UUID   `json:"user_uuid"`
	AccountUUIDs []uuid.UUID `json:"account_uuids,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

func (s Session) Valid() bool {
	return s.UserUUID != uuid.Nil && s.AccessToken != ""
}

// Store persists the session to a JSON file and hands out copies under a
// lock, so the client's refresh-and-retry path and concurrent readers
// never observe a half-written session.
type Store struct {
	mu   sync.Mutex
	path string
	cur  Session
	set  bool
}

// NewStore creates a store backed by the given file path. The file is
// created on first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the session file location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "moneta", "session.json"), nil
}

// Load hydrates the session from disk. A missing file is ErrNoSession.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("parse session file: %w", err)
	}
	if !sess.Valid() {
		return Session{}, ErrNoSession
	}

	s.cur = sess
	s.set = true
	return sess, nil
}

// Current returns the hydrated session, or ErrNoSession.
func (s *Store) Current() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Session{}, ErrNoSession
	}
	return s.cur, nil
}

// Save replaces the session in memory and on disk.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	s.cur = sess
	s.set = true
	return nil
}

// Clear drops the session from memory and disk. Called on logout and
// when a token refresh is rejected.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = Session{}
	s.set = false
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
