package crawler

import (
	"log/slog"
	"net/url"

	"github.com/nao1215/sitemaps/internal/model"
)

// ParseFunc turns the bytes of one document into a partial result.
type ParseFunc func(source []byte) *model.Sitemap

// EventKind identifies what happened to one location during a crawl.
type EventKind int

const (
	// EventFetched is emitted after a document was fetched and merged.
	EventFetched EventKind = iota
	// EventFailed is emitted when a document could not be fetched or parsed.
	EventFailed
	// EventSkipped is emitted when a popped location was already visited.
	EventSkipped
)

// String returns the lower-case name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventFetched:
		return "fetched"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Event reports progress on one location.
type Event struct {
	Kind     EventKind
	Location *url.URL

	// Entries and Submaps count what this document contributed after filtering.
	Entries int
	Submaps int

	// Pending is the frontier size after the step.
	Pending int

	// Err is set for EventFailed.
	Err error
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithParser replaces the document parser.
func WithParser(parse ParseFunc) Option {
	return func(c *Crawler) {
		if parse != nil {
			c.parse = parse
		}
	}
}

// WithMaxEntries sets the global entry budget. Zero or a negative value means
// unlimited; there is no way to ask for an empty crawl.
func WithMaxEntries(n int) Option {
	return func(c *Crawler) {
		if n < 0 {
			n = 0
		}
		c.maxEntries = n
	}
}

// WithEntryFilter keeps only entries for which keep returns true.
func WithEntryFilter(keep func(model.Entry) bool) Option {
	return func(c *Crawler) {
		c.entryFilter = keep
	}
}

// WithSubmapFilter keeps, and follows, only submaps for which keep returns true.
func WithSubmapFilter(keep func(model.Submap) bool) Option {
	return func(c *Crawler) {
		c.submapFilter = keep
	}
}

// WithRecurse controls whether submap references are followed.
// With recursion off each root is fetched once and its submaps are only listed.
func WithRecurse(recurse bool) Option {
	return func(c *Crawler) {
		c.recurse = recurse
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a callback invoked synchronously for every step.
func WithObserver(observe func(Event)) Option {
	return func(c *Crawler) {
		c.observer = observe
	}
}
