package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ai-character-chat/widget/pkg/logger"
)

// state is the persisted form: exactly two opaque string values under fixed
// keys, read at startup and written on change.
type state struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

// Store persists the active user id and device id across widget runs. Both
// values are stable once cached until Clear is called.
type Store struct {
	mu    sync.Mutex
	path  string
	log   *logger.Logger
	state state
}

// Open loads the store at path, creating an empty one if the file does not
// exist yet.
func Open(path string, log *logger.Logger) (*Store, error) {
	s := &Store{path: path, log: log}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading identity store: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// A corrupt store is not fatal; start over with fresh identity.
		log.Warn("identity store unreadable, resetting", "path", path, "error", err)
		s.state = state{}
	}
	return s, nil
}

// DeviceID returns the cached device id, computing and persisting the
// fingerprint on first use. Idempotent after the first call.
func (s *Store) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.DeviceID != "" {
		return s.state.DeviceID
	}

	s.state.DeviceID = Fingerprint()
	if err := s.persist(); err != nil {
		s.log.LogError(err, "failed to persist device id")
	}
	return s.state.DeviceID
}

// UserID returns the cached active user id, or empty if none is set.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UserID
}

// SetUserID persists id as the active user identifier.
func (s *Store) SetUserID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.UserID = id
	return s.persist()
}

// Clear wipes both cached values. This is the only reset path.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{}
	return s.persist()
}

// persist writes the store to disk. Caller must hold the lock.
func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("error creating storage directory: %w", err)
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding identity store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("error writing identity store: %w", err)
	}
	return nil
}
