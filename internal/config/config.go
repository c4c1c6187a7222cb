package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName names the XDG directories.
	AppName = "sitemaps"

	// DefaultTimeout bounds a single HTTP request, redirects included.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxEntries of zero means the crawl has no entry budget.
	DefaultMaxEntries = 0

	// DefaultBatchSize is the number of targets crawled concurrently.
	DefaultBatchSize = 4

	// DefaultMaxBodySize is the sitemaps.org limit for an uncompressed file.
	DefaultMaxBodySize = 50 * 1024 * 1024

	// DefaultMaxRedirects is the number of redirects followed per document.
	DefaultMaxRedirects = 10

	// DefaultDelay of zero disables request spacing.
	DefaultDelay = time.Duration(0)

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "sitemaps/1.0 (+https://github.com/nao1215/sitemaps)"

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultFormat is the report format used when none is given.
	DefaultFormat = FormatText
)

// Report formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatURLs     = "urls"
)

// Formats lists the accepted report formats.
var Formats = []string{FormatText, FormatJSON, FormatMarkdown, FormatURLs}

// Config holds the options of one sitemaps invocation. It is filled from CLI
// flags and the optional config file and passed down explicitly.
type Config struct {
	// Targets are sitemap URLs, or hosts when Discover is set.
	Targets []string

	// Discover treats each target as a host and looks up its sitemaps via
	// robots.txt and the well-known locations.
	Discover bool

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxEntries is the global entry budget per target. Zero means unlimited.
	MaxEntries int

	// Recurse follows sitemap index references. When false only the given
	// documents are fetched.
	Recurse bool

	// Include and Exclude are glob patterns on the URL path of entries.
	Include []string
	Exclude []string

	// FilterIndexes applies Include and Exclude to sitemap references too.
	FilterIndexes bool

	// RespectRobots refuses sitemap locations that robots.txt disallows.
	RespectRobots bool

	// Format is one of Formats.
	Format string

	// OutputFile receives the report instead of stdout when set.
	OutputFile string

	// UserAgent is sent with every request.
	UserAgent string

	// Delay spaces consecutive requests.
	Delay time.Duration

	// MaxBodySize caps a single document in bytes. Zero disables the cap.
	MaxBodySize int64

	// MaxRedirects is the redirect limit per document.
	MaxRedirects int

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the Tor bootstrap.
	TorStartupTimeout time.Duration

	// BatchSize is the number of targets crawled concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// Strict makes the command fail when any document could not be fetched.
	Strict bool

	// ConfigFilePath is the explicit config file, if any.
	ConfigFilePath string

	// SiteConfigs holds the loaded config file, or nil.
	SiteConfigs *File

	// SaveToDB stores each crawl in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string
}

// NewConfig returns a Config populated with the defaults.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxEntries:        DefaultMaxEntries,
		Recurse:           true,
		Format:            DefaultFormat,
		UserAgent:         DefaultUserAgent,
		Delay:             DefaultDelay,
		MaxBodySize:       DefaultMaxBodySize,
		MaxRedirects:      DefaultMaxRedirects,
		TorStartupTimeout: DefaultTorStartupTimeout,
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the directory holding the history database,
// e.g. ~/.local/share/sitemaps on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the user configuration directory,
// e.g. ~/.config/sitemaps on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if !slices.Contains(Formats, c.Format) {
		return ErrInvalidFormat
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}
	if c.ProxyAddress != "" && c.UseTor {
		return ErrConflictingProxy
	}
	return nil
}

// Site returns the effective per-host settings: the config file entry for
// host merged over the file defaults, with the command-line values of c
// taking precedence when they are set.
func (c *Config) Site(host string) SiteConfig {
	var site SiteConfig
	if c.SiteConfigs != nil {
		site = c.SiteConfigs.GetSiteConfig(host)
	}

	if c.UserAgent != "" && (c.UserAgent != DefaultUserAgent || site.UserAgent == "") {
		site.UserAgent = c.UserAgent
	}
	if c.MaxEntries > 0 {
		site.MaxEntries = c.MaxEntries
	}
	if len(c.Include) > 0 {
		site.Include = c.Include
	}
	if len(c.Exclude) > 0 {
		site.Exclude = c.Exclude
	}
	return site
}
