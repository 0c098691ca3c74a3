// Package topicstore maintains the most-recently-used ordering of topic
// identifiers and persists it across restarts. The persisted order is
// the client's own notion of recency; it is allowed to drift from the
// remote store's and wins for display purposes.
package topicstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const currentVersion = 1

type orderFile struct {
	Version int      `json:"version"`
	Order   []string `json:"order"`
}

// Store holds topic identifiers in display order, most recent first.
// All mutations persist the order synchronously so a crash mid-session
// does not lose it.
type Store struct {
	mu    sync.Mutex
	path  string
	order []string
}

// New creates a store backed by the given order file. An empty path
// disables persistence, which is what tests use.
func New(path string) *Store {
	return &Store{path: strings.TrimSpace(path)}
}

// Load reads the persisted order. A missing or empty file is not an
// error; it simply yields an empty order.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	var file orderFile
	if err := json.Unmarshal(payload, &file); err == nil && file.Version > 0 {
		s.order = dedupe(file.Order)
		return nil
	}

	// Legacy schema: a bare JSON array of identifiers.
	var legacy []string
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return err
	}
	s.order = dedupe(legacy)
	return nil
}

// List returns the current display order, most recently touched first.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Contains reports whether the identifier is present.
func (s *Store) Contains(topicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if id == topicID {
			return true
		}
	}
	return false
}

// Touch moves topicID to the front, inserting it if absent, and
// persists the new order before returning.
func (s *Store) Touch(topicID string) error {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]string, 0, len(s.order)+1)
	next = append(next, topicID)
	for _, id := range s.order {
		if id != topicID {
			next = append(next, id)
		}
	}
	s.order = next
	return s.persistLocked()
}

// Remove drops the identifier from the order. Removing an absent
// identifier is a no-op and does not rewrite the file.
func (s *Store) Remove(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.order[:0:0]
	found := false
	for _, id := range s.order {
		if id == topicID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		return nil
	}
	s.order = next
	return s.persistLocked()
}

// Merge reconciles the persisted local order with the full remote topic
// list fetched at startup. Locally known identifiers keep their relative
// order (restricted to those still present remotely); remote identifiers
// the client has not seen are appended at the end so a reload does not
// reshuffle the list the user remembers.
func (s *Store) Merge(remoteTopicIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote := make(map[string]struct{}, len(remoteTopicIDs))
	for _, id := range remoteTopicIDs {
		remote[id] = struct{}{}
	}

	next := make([]string, 0, len(remoteTopicIDs))
	seen := make(map[string]struct{}, len(remoteTopicIDs))
	for _, id := range s.order {
		if _, ok := remote[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}
	for _, id := range remoteTopicIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}

	s.order = next
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	payload, err := json.MarshalIndent(orderFile{Version: currentVersion, Order: s.order}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
