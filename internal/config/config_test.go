package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig pins the defaults so that changing one is a deliberate act.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		name string
		ok   bool
	}{
		{"timeout is 30 seconds", cfg.Timeout == 30*time.Second},
		{"max entries is unlimited", cfg.MaxEntries == 0},
		{"recursion is on", cfg.Recurse},
		{"format is text", cfg.Format == FormatText},
		{"user agent is set", cfg.UserAgent == DefaultUserAgent},
		{"no delay", cfg.Delay == 0},
		{"max body size is 50 MiB", cfg.MaxBodySize == 50*1024*1024},
		{"max redirects is 10", cfg.MaxRedirects == 10},
		{"tor startup timeout is 3 minutes", cfg.TorStartupTimeout == 3*time.Minute},
		{"batch size is 4", cfg.BatchSize == 4},
		{"database lives in the XDG data dir", cfg.DBDir == XDGDataDir()},
		{"tor is off", !cfg.UseTor},
		{"history is off", !cfg.SaveToDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !tt.ok {
				t.Errorf("unexpected default: %+v", cfg)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com/sitemap.xml"}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config", func(*Config) {}, nil},
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"unknown format", func(c *Config) { c.Format = "xml" }, ErrInvalidFormat},
		{"empty format", func(c *Config) { c.Format = "" }, ErrInvalidFormat},
		{"negative delay", func(c *Config) { c.Delay = -time.Millisecond }, ErrInvalidDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero body size disables the cap", func(c *Config) { c.MaxBodySize = 0 }, nil},
		{"negative redirects", func(c *Config) { c.MaxRedirects = -1 }, ErrInvalidMaxRedirects},
		{"proxy and tor", func(c *Config) { c.ProxyAddress = "127.0.0.1:9050"; c.UseTor = true }, ErrConflictingProxy},
		{"every format is accepted", func(c *Config) { c.Format = FormatURLs }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:     "default=1",
			Headers:    map[string]string{"X-Default": "yes"},
			MaxEntries: 100,
			Exclude:    []string{"/private/*"},
		},
		Sites: map[string]SiteConfig{
			"Example.com": {
				Headers:   map[string]string{"Authorization": "Bearer abc"},
				UserAgent: "custom/1.0",
				Include:   []string{"/blog/*"},
			},
			"shop.example.com": {
				Cookie:     "cart=42",
				MaxEntries: 5,
				Exclude:    []string{"/checkout/*"},
			},
		},
	}

	t.Run("unknown host gets the defaults", func(t *testing.T) {
		t.Parallel()

		site := file.GetSiteConfig("other.example")
		if site.Cookie != "default=1" || site.MaxEntries != 100 {
			t.Errorf("unexpected defaults: %+v", site)
		}
	})

	t.Run("headers are merged and hosts compared case-insensitively", func(t *testing.T) {
		t.Parallel()

		site := file.GetSiteConfig("EXAMPLE.COM")
		if site.Headers["X-Default"] != "yes" || site.Headers["Authorization"] != "Bearer abc" {
			t.Errorf("headers not merged: %v", site.Headers)
		}
		if site.UserAgent != "custom/1.0" {
			t.Errorf("UserAgent = %q", site.UserAgent)
		}
		if len(site.Include) != 1 || site.Include[0] != "/blog/*" {
			t.Errorf("Include = %v", site.Include)
		}
		if len(site.Exclude) != 1 || site.Exclude[0] != "/private/*" {
			t.Errorf("Exclude should come from defaults, got %v", site.Exclude)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()

		site := file.GetSiteConfig("shop.example.com")
		if site.Cookie != "cart=42" || site.MaxEntries != 5 || site.Exclude[0] != "/checkout/*" {
			t.Errorf("overrides not applied: %+v", site)
		}
	})

	t.Run("host with port falls back to the bare host", func(t *testing.T) {
		t.Parallel()

		site := file.GetSiteConfig("shop.example.com:8443")
		if site.Cookie != "cart=42" {
			t.Errorf("Cookie = %q, want cart=42", site.Cookie)
		}
	})

	t.Run("defaults are not mutated", func(t *testing.T) {
		t.Parallel()

		_ = file.GetSiteConfig("example.com")
		if _, ok := file.Defaults.Headers["Authorization"]; ok {
			t.Error("site header leaked into defaults")
		}
	})
}

func TestConfigSite(t *testing.T) {
	t.Parallel()

	file := &File{Sites: map[string]SiteConfig{
		"example.com": {UserAgent: "file-agent", MaxEntries: 7, Include: []string{"/a/*"}},
	}}

	t.Run("file values win over defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		site := cfg.Site("example.com")
		if site.UserAgent != "file-agent" || site.MaxEntries != 7 {
			t.Errorf("unexpected site: %+v", site)
		}
	})

	t.Run("flags win over file values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.UserAgent = "flag-agent"
		cfg.MaxEntries = 3
		cfg.Include = []string{"/b/*"}
		site := cfg.Site("example.com")
		if site.UserAgent != "flag-agent" || site.MaxEntries != 3 || site.Include[0] != "/b/*" {
			t.Errorf("unexpected site: %+v", site)
		}
	})

	t.Run("no file", func(t *testing.T) {
		t.Parallel()

		site := NewConfig().Site("example.com")
		if site.UserAgent != DefaultUserAgent {
			t.Errorf("UserAgent = %q", site.UserAgent)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for a missing file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config")
		}
	})

	t.Run("loads a valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  userAgent: "my-crawler/2.0"
  maxEntries: 1000
sites:
  example.com:
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    include:
      - "/blog/*"
    exclude:
      - "/blog/drafts/*"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.UserAgent != "my-crawler/2.0" || cfg.Defaults.MaxEntries != 1000 {
			t.Errorf("unexpected defaults: %+v", cfg.Defaults)
		}
		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
		if len(site.Include) != 1 || len(site.Exclude) != 1 {
			t.Errorf("unexpected patterns: %+v", site)
		}
	})

	t.Run("rejects invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("invalid: yaml: content: [}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfigFile(path)
		if err == nil || !strings.Contains(err.Error(), path) {
			t.Errorf("expected parse error naming the file, got %v", err)
		}
	})

	t.Run("initializes the Sites map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults:\n  maxEntries: 5\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("returns an existing explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("returns empty for a missing explicit path", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})

	t.Run("finds the file in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("FindConfigFile() = %q, want a %s", got, DefaultConfigFile)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if filepath.Base(dir) != AppName {
			t.Errorf("XDG %s dir %q does not end in %q", name, dir, AppName)
		}
	}
}
