package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds persistent CLI defaults loaded from ~/.lockbox/config.yaml.
type Config struct {
	Identifier    string `yaml:"identifier"`
	Accessibility string `yaml:"accessibility"`
	Cloud         bool   `yaml:"cloud"`
	AccessGroup   string `yaml:"access_group"`
	AuditLog      string `yaml:"audit_log"`
}

// DefaultPath returns the default config file path: ~/.lockbox/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lockbox", "config.yaml")
}

// DefaultAuditLogPath returns the default audit log path:
// ~/.lockbox/audit.log.
func DefaultAuditLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lockbox", "audit.log")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
