package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "sitemaps" {
			t.Errorf("expected use 'sitemaps', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"crawl", "parse", "discover", "history", "diff", "init", "version"} {
			if !names[want] {
				t.Errorf("expected subcommand %q", want)
			}
		}
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("verbose text logger redacts credentials", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("verbose", "true"); err != nil {
			t.Fatal(err)
		}

		logger := setupLogger(cmd, &buf)
		defer slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

		logger.Debug("request", "cookie", "session=secret")
		if !strings.Contains(buf.String(), "request") {
			t.Errorf("expected debug output, got %q", buf.String())
		}
		if strings.Contains(buf.String(), "secret") {
			t.Errorf("cookie value leaked: %q", buf.String())
		}
	})

	t.Run("json logger", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("log-json", "true"); err != nil {
			t.Fatal(err)
		}

		logger := setupLogger(cmd, &buf)
		logger.Warn("warned")
		if !strings.HasPrefix(buf.String(), "{") {
			t.Errorf("expected JSON output, got %q", buf.String())
		}
	})
}
