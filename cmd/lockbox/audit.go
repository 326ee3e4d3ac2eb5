package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benaskins/lockbox/internal/audit"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var flagFollow bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the secret operation audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := auditLogPath()
		if path == "" {
			return errors.New("no audit log path configured")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return err
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer f.Close()

		reader := bufio.NewReader(f)
		var pending string

		// drain prints every complete line appended since the last call.
		// A trailing partial line is held back until its newline arrives.
		drain := func() error {
			for {
				line, err := reader.ReadString('\n')
				if errors.Is(err, io.EOF) {
					pending += line
					return nil
				}
				if err != nil {
					return err
				}
				printAuditLine(pending + line)
				pending = ""
			}
		}

		if err := drain(); err != nil {
			return err
		}
		if !flagFollow {
			return nil
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		if err := watcher.Add(path); err != nil {
			return err
		}
		slog.Debug("following audit log", "path", path)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					slog.Warn("audit log moved or removed, stopping", "path", path)
					return nil
				}
				if event.Op&fsnotify.Write == 0 {
					continue
				}
				if err := drain(); err != nil {
					return err
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Error("watching audit log", "error", err)
			}
		}
	},
}

func printAuditLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var entry audit.Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		fmt.Println(line)
		return
	}

	out := fmt.Sprintf("%s  %-14s", entry.Timestamp.Format(time.RFC3339), entry.Action)
	if entry.Key != "" {
		out += fmt.Sprintf("  key=%s", entry.Key)
	}
	if entry.Identifier != "" {
		out += fmt.Sprintf("  identifier=%s", entry.Identifier)
	}
	if entry.Source != "" {
		out += fmt.Sprintf("  source=%s", entry.Source)
	}
	if entry.Error != "" {
		out += fmt.Sprintf("  error=%q", entry.Error)
	}
	fmt.Println(out)
}

func init() {
	auditCmd.Flags().BoolVarP(&flagFollow, "follow", "f", false, "wait for and print new entries as they are written")
	rootCmd.AddCommand(auditCmd)
}
