/**
 * @description
 * This package owns the console's durable authentication state: the access
 * token (and optional refresh token) returned by the backend's login
 * endpoint. Tokens persist to a single file with an explicit Init/Set/Clear
 * lifecycle, so a restart keeps the operator signed in and no other
 * component touches the storage file directly.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: To read the access token's expiry claim
 *   without verifying the signature (verification is the backend's job).
 */

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store holds the persisted tokens. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	access  string
	refresh string
}

type persisted struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// NewStore creates a store backed by the given file path. Call Init to load
// any previously persisted tokens.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init reads the token file if it exists. A missing file is not an error;
// it simply means no session, and the login flow is shown.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt session file is treated as no session rather than a
		// fatal boot error.
		log.Printf("level=warn component=session msg=\"session file unreadable; discarding\" err=%v", err)
		return nil
	}
	s.access = p.Access
	s.refresh = p.Refresh
	return nil
}

// Set persists the tokens from a successful login or refresh.
func (s *Store) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	raw, err := json.Marshal(persisted{Access: access, Refresh: refresh})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	s.access = access
	s.refresh = refresh
	return nil
}

// Clear removes the persisted tokens on logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access = ""
	s.refresh = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// AccessToken returns the current access token, or "" when logged out.
// Satisfies marketplace.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the current refresh token, or "" when none was issued.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Valid reports whether an access token is present and, when the token is a
// parseable JWT with an expiry claim, not yet expired. Tokens the backend
// issues in another format are presumed valid while present; the backend
// rejects them authoritatively.
func (s *Store) Valid() bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return time.Now().Before(claims.ExpiresAt.Time)
}
