package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.State.Dir = expandTilde(cfg.State.Dir)
	cfg.State.TopicOrderFile = expandTilde(cfg.State.TopicOrderFile)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Backend.DatabasePath = expandTilde(cfg.Backend.DatabasePath)
	cfg.Backend.UploadDir = expandTilde(cfg.Backend.UploadDir)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "classroom"))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "classroom"))
	}

	v.AddConfigPath(".")

	v.SetEnvPrefix("CLASSROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	// Explicitly bind environment variables (Viper's Unmarshal has
	// issues with nested structs without this).
	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Server
	v.SetDefault("server.base_url", cfg.Server.BaseURL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("server.role", cfg.Server.Role)
	v.SetDefault("server.model", cfg.Server.Model)
	v.SetDefault("server.fetch_timeout", cfg.Server.FetchTimeout)

	// Storage
	v.SetDefault("storage.base_url", cfg.Storage.BaseURL)

	// State
	v.SetDefault("state.dir", cfg.State.Dir)
	v.SetDefault("state.topic_order_file", cfg.State.TopicOrderFile)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// TUI
	v.SetDefault("tui.show_timestamps", cfg.TUI.ShowTimestamps)
	v.SetDefault("tui.theme", cfg.TUI.Theme)

	// Backend
	v.SetDefault("backend.listen_addr", cfg.Backend.ListenAddr)
	v.SetDefault("backend.database_path", cfg.Backend.DatabasePath)
	v.SetDefault("backend.upload_dir", cfg.Backend.UploadDir)
	v.SetDefault("backend.auth_token", cfg.Backend.AuthToken)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}

// bindEnvVars binds environment variables for config keys.
func bindEnvVars(v *viper.Viper) {
	envBindings := []string{
		// Server
		"server.base_url",
		"server.token",
		"server.role",
		"server.model",
		"server.fetch_timeout",
		// Storage
		"storage.base_url",
		// State
		"state.dir",
		"state.topic_order_file",
		// Logging
		"logging.level",
		"logging.format",
		"logging.file",
		"logging.enable_caller",
		// TUI
		"tui.show_timestamps",
		"tui.theme",
		// Backend
		"backend.listen_addr",
		"backend.database_path",
		"backend.upload_dir",
		"backend.auth_token",
	}

	for _, key := range envBindings {
		envSuffix := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, "CLASSROOM_"+envSuffix)
	}
}
