package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Session represents restorable chat session state: the topic that was
// active when the client last exited.
type Session struct {
	// ActiveTopic is the last selected topic identifier.
	ActiveTopic string `yaml:"active_topic,omitempty"`
	// Role is the role the session was opened with.
	Role string `yaml:"role,omitempty"`
	// UpdatedAt is when the session was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no session state is set.
func (s *Session) IsEmpty() bool {
	return s.ActiveTopic == ""
}

// SetActiveTopic records the active topic selection.
func (s *Session) SetActiveTopic(topicID string) {
	s.ActiveTopic = topicID
	s.UpdatedAt = time.Now()
}

// Clear removes all session state.
func (s *Session) Clear() {
	s.ActiveTopic = ""
	s.Role = ""
	s.UpdatedAt = time.Now()
}

// SessionStore manages loading and saving session state.
type SessionStore struct {
	path string
	mu   sync.RWMutex
}

// NewSessionStore creates a session store. If path is empty, uses the
// default path (~/.config/classroom/session.yaml).
func NewSessionStore(path string) *SessionStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "classroom", "session.yaml")
	}
	return &SessionStore{path: path}
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Load reads the session from disk. Returns an empty session if the
// file doesn't exist.
func (s *SessionStore) Load() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := &Session{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return session, nil
}

// Save writes the session to disk.
func (s *SessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
