package main

import (
	"runtime"
	"strings"
	"testing"
)

func TestBuildInfo(t *testing.T) {
	t.Parallel()

	for name, get := range map[string]func() string{
		"version": getVersion,
		"commit":  getCommit,
		"date":    getDate,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if get() == "" {
				t.Errorf("%s is empty", name)
			}
		})
	}

	t.Run("commit is at most seven characters", func(t *testing.T) {
		t.Parallel()
		if c := getCommit(); c != "unknown" && len(c) > 7 {
			t.Errorf("commit %q not shortened", c)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"sitemaps version " + getVersion(), "commit:", "built:", runtime.Version()} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got %q", want, stdout)
		}
	}

	if _, _, err := runCommand(t, "version", "extra"); err == nil {
		t.Error("expected error for unexpected argument")
	}
}
