// Package audit provides append-only structured logging for secret
// operations.
//
// Every secret access performed through the lockbox CLI (read, write,
// delete, clear, migrate) is recorded to ~/.lockbox/audit.log as
// newline-delimited JSON.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionSecretRead    Action = "secret_read"
	ActionSecretWrite   Action = "secret_write"
	ActionSecretDelete  Action = "secret_delete"
	ActionSecretClear   Action = "secret_clear"
	ActionSecretMigrate Action = "secret_migrate"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Action     Action    `json:"action"`
	Key        string    `json:"key,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Source     string    `json:"source,omitempty"` // migration source descriptor
	Actor      string    `json:"actor,omitempty"`  // "cli"
	Error      string    `json:"error,omitempty"`
}

// Logger appends audit entries to a log file, one JSON object per line.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f, enc: json.NewEncoder(f)}, nil
}

// Log appends one entry, filling in the timestamp if unset.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}
