package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benaskins/lockbox"
	"github.com/benaskins/lockbox/internal/audit"
	"github.com/benaskins/lockbox/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagIdentifier    string
	flagAccessibility string
	flagCloud         bool
	flagAccessGroup   string
)

var rootCmd = &cobra.Command{
	Use:   "lockbox",
	Short: "Identity-stable secret storage over the platform keychain",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagIdentifier, "identifier", "i", "", `secret namespace (default from config, else "com.lockbox")`)
	rootCmd.PersistentFlags().StringVarP(&flagAccessibility, "accessibility", "a", "", `accessibility level (default "when-unlocked")`)
	rootCmd.PersistentFlags().BoolVar(&flagCloud, "cloud", false, "use the cloud-synchronized keychain")
	rootCmd.PersistentFlags().StringVar(&flagAccessGroup, "access-group", "", "shared keychain access group")
}

// loadConfig reads the config file, falling back to empty defaults if it is
// missing or unreadable.
func loadConfig() *config.Config {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		slog.Warn("ignoring unreadable config file", "path", config.DefaultPath(), "error", err)
		return &config.Config{}
	}
	return cfg
}

// newFacade builds the facade selected by flags, with config-file defaults
// underneath. Flags win.
func newFacade() (*lockbox.Facade, error) {
	cfg := loadConfig()

	identifier := flagIdentifier
	if identifier == "" {
		identifier = cfg.Identifier
	}
	if identifier == "" {
		identifier = "com.lockbox"
	}

	level := flagAccessibility
	if level == "" {
		level = cfg.Accessibility
	}
	if level == "" {
		level = "when-unlocked"
	}
	accessibility, err := lockbox.ParseAccessibility(level)
	if err != nil {
		return nil, err
	}

	group := flagAccessGroup
	if group == "" {
		group = cfg.AccessGroup
	}
	cloud := flagCloud || cfg.Cloud

	switch {
	case group != "" && cloud:
		return lockbox.NewCloudSharedAccessGroup(group, identifier, accessibility)
	case group != "":
		return lockbox.NewSharedAccessGroup(group, identifier, accessibility)
	case cloud:
		return lockbox.NewCloudSynchronized(identifier, accessibility)
	default:
		return lockbox.New(identifier, accessibility)
	}
}

func auditLogPath() string {
	if cfg := loadConfig(); cfg.AuditLog != "" {
		return cfg.AuditLog
	}
	return config.DefaultAuditLogPath()
}

// recordAudit appends one audit entry. Best-effort: a failure to log never
// blocks the operation it describes.
func recordAudit(entry audit.Entry) {
	path := auditLogPath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		slog.Warn("audit log unavailable", "path", path, "error", err)
		return
	}
	logger, err := audit.NewLogger(path)
	if err != nil {
		slog.Warn("audit log unavailable", "path", path, "error", err)
		return
	}
	defer logger.Close()

	entry.Actor = "cli"
	if err := logger.Log(entry); err != nil {
		slog.Warn("writing audit entry failed", "error", err)
	}
}
