package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level billed.yaml configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Receipts ReceiptsConfig `yaml:"receipts"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// APIConfig locates the remote bill service.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionConfig controls where the signed-in user is persisted.
type SessionConfig struct {
	File string `yaml:"file"`
}

// ReceiptsConfig sets the attachment policy of new bills.
type ReceiptsConfig struct {
	Required bool `yaml:"required"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level       string `yaml:"level"`        // debug, info, warn, error
	ActivityLog string `yaml:"activity_log"` // CSV of workflow outcomes, empty disables
}

// ServerConfig configures the development bill service started by `billed serve`.
type ServerConfig struct {
	Address     string       `yaml:"address"`
	PublicURL   string       `yaml:"public_url"`
	Database    string       `yaml:"database"`
	UploadDir   string       `yaml:"upload_dir"`
	JWTSecret   string       `yaml:"jwt_secret"`
	TokenHours  int          `yaml:"token_hours"`
	Users       []UserConfig `yaml:"users,omitempty"`
	MaxUploadMB int          `yaml:"max_upload_mb"`
}

// UserConfig seeds an account on the development server.
type UserConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Type     string `yaml:"type"`
}

// Load reads a billed.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config pointing at a local development server.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5678",
		},
		Session: SessionConfig{
			File: ".billed/session.yaml",
		},
		Log: LogConfig{
			Level:       "info",
			ActivityLog: ".billed/activity.csv",
		},
		Server: ServerConfig{
			Address:     ":5678",
			PublicURL:   "http://localhost:5678",
			Database:    ".billed/server.db",
			UploadDir:   ".billed/uploads",
			JWTSecret:   "change-me",
			TokenHours:  24,
			MaxUploadMB: 10,
		},
	}
}
