package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	ts := time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC)

	l.Log(Entry{
		Timestamp:  ts,
		Action:     ActionSecretWrite,
		Key:        "session",
		Identifier: "com.example.auth",
		Actor:      "cli",
	})

	l.Log(Entry{
		Timestamp:  ts.Add(time.Hour),
		Action:     ActionSecretMigrate,
		Identifier: "com.example.auth",
		Source:     "accessibility=always",
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var e1 Entry
	if err := json.Unmarshal([]byte(lines[0]), &e1); err != nil {
		t.Fatalf("unmarshal first entry: %v", err)
	}
	if e1.Action != ActionSecretWrite {
		t.Errorf("action = %q, want %q", e1.Action, ActionSecretWrite)
	}
	if e1.Key != "session" || e1.Identifier != "com.example.auth" {
		t.Errorf("unexpected entry: %+v", e1)
	}

	var e2 Entry
	if err := json.Unmarshal([]byte(lines[1]), &e2); err != nil {
		t.Fatalf("unmarshal second entry: %v", err)
	}
	if e2.Source != "accessibility=always" {
		t.Errorf("source = %q", e2.Source)
	}
}

func TestLoggerFillsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	l.Log(Entry{Action: ActionSecretRead, Key: "k"})

	data, _ := os.ReadFile(path)
	var e Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	l1, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l1.Log(Entry{Action: ActionSecretWrite, Key: "first"})
	l1.Close()

	l2, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger reopen: %v", err)
	}
	l2.Log(Entry{Action: ActionSecretDelete, Key: "second"})
	l2.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after reopen, got %d", len(lines))
	}
}
