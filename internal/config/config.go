// Package config handles configuration loading and validation for the
// classroom assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	// Server settings for the remote persistence/inference store.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Storage settings for attachment URL resolution.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// State settings for durable client-side files.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings.
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// Backend settings for the bundled development server.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`
}

// ServerConfig describes how to reach the remote store.
type ServerConfig struct {
	// BaseURL is the remote store root, e.g. http://localhost:8080.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the opaque bearer credential obtained from the auth
	// collaborator. Its absence simply means unauthenticated requests.
	Token string `yaml:"token" mapstructure:"token"`

	// Role is sent with every question (student or teacher).
	Role string `yaml:"role" mapstructure:"role"`

	// Model is the optional model selector attached to outgoing
	// questions.
	Model string `yaml:"model" mapstructure:"model"`

	// FetchTimeout bounds the initial load and topic deletion calls.
	// Question submission runs without a timeout.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
}

// StorageConfig describes where attachment paths resolve to.
type StorageConfig struct {
	// BaseURL is prefixed to server-relative attachment paths. Empty
	// means attachments resolve against the server base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StateConfig holds durable client-side file locations.
type StateConfig struct {
	// Dir is where client state lives (default: ~/.local/share/classroom).
	Dir string `yaml:"dir" mapstructure:"dir"`

	// TopicOrderFile overrides the topic display-order file path.
	TopicOrderFile string `yaml:"topic_order_file" mapstructure:"topic_order_file"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains chat client settings.
type TUIConfig struct {
	// ShowTimestamps shows message timestamps in the UI.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`

	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// BackendConfig contains settings for the bundled development server.
type BackendConfig struct {
	// ListenAddr is the address the dev server binds to.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`

	// DatabasePath is the SQLite database file path.
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`

	// UploadDir is where uploaded attachments are stored.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`

	// AuthToken is the bearer credential the dev server accepts.
	// Empty disables the auth check.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".local", "share", "classroom")

	return &Config{
		Server: ServerConfig{
			BaseURL:      "http://localhost:8080",
			Role:         "student",
			FetchTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{},
		State: StateConfig{
			Dir: stateDir,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			ShowTimestamps: true,
			Theme:          "default",
		},
		Backend: BackendConfig{
			ListenAddr:   ":8080",
			DatabasePath: "", // resolved to State.Dir/classroom.db
			UploadDir:    "", // resolved to State.Dir/uploads
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("server.base_url is required")
	}

	switch c.Server.Role {
	case "student", "teacher":
		// ok
	default:
		return fmt.Errorf("server.role must be student or teacher")
	}

	if c.Server.FetchTimeout < time.Second {
		return fmt.Errorf("server.fetch_timeout must be at least 1s")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.State.Dir,
		c.ResolvedUploadDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// TopicOrderPath returns the topic display-order file path.
func (c *Config) TopicOrderPath() string {
	if c.State.TopicOrderFile != "" {
		return c.State.TopicOrderFile
	}
	return filepath.Join(c.State.Dir, "topic-order.json")
}

// ResolvedDatabasePath returns the dev server database path.
func (c *Config) ResolvedDatabasePath() string {
	if c.Backend.DatabasePath != "" {
		return c.Backend.DatabasePath
	}
	return filepath.Join(c.State.Dir, "classroom.db")
}

// ResolvedUploadDir returns the dev server upload directory.
func (c *Config) ResolvedUploadDir() string {
	if c.Backend.UploadDir != "" {
		return c.Backend.UploadDir
	}
	return filepath.Join(c.State.Dir, "uploads")
}
