// Package config provides session persistence tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSession_IsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{name: "empty session", session: Session{}, want: true},
		{name: "with active topic", session: Session{ActiveTopic: "Algebra"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsEmpty(); got != tt.want {
				t.Errorf("Session.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionStore_LoadMissingFile(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.yaml"))

	session, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !session.IsEmpty() {
		t.Errorf("expected empty session, got %+v", session)
	}
}

func TestSessionStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewSessionStore(path)

	session := &Session{Role: "student"}
	session.SetActiveTopic("Physics")
	if err := store.Save(session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ActiveTopic != "Physics" {
		t.Errorf("ActiveTopic = %q, want %q", loaded.ActiveTopic, "Physics")
	}
	if loaded.Role != "student" {
		t.Errorf("Role = %q, want %q", loaded.Role, "student")
	}
}

func TestSessionStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	store := NewSessionStore(path)

	if err := store.Save(&Session{ActiveTopic: "Math"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, stat err = %v", err)
	}

	// Clearing again is a no-op.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Server.BaseURL == "" {
		t.Error("expected default server.base_url")
	}
	if cfg.Server.Role != "student" {
		t.Errorf("Role = %q, want student", cfg.Server.Role)
	}
	if cfg.TopicOrderPath() == "" {
		t.Error("expected a topic order path")
	}
}
