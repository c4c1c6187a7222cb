package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/nao1215/sitemaps/internal/model"
	"github.com/nao1215/sitemaps/internal/parser"
)

// Crawler fetches sitemap documents and merges them into one result.
// A Crawler holds only configuration; every call to Crawl starts with a fresh
// frontier, visited set and budget, so one Crawler may serve concurrent crawls
// as long as its Fetcher is safe for concurrent use.
type Crawler struct {
	fetch        fetcher.Fetcher
	parse        ParseFunc
	maxEntries   int
	entryFilter  func(model.Entry) bool
	submapFilter func(model.Submap) bool
	recurse      bool
	logger       *slog.Logger
	observer     func(Event)
}

// New creates a Crawler that retrieves documents with fetch.
func New(fetch fetcher.Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetch:   fetch,
		parse:   parser.Parse,
		recurse: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseRoot turns user input into a root location. Input without a scheme is
// treated as a host or host/path and gets "http://" prepended.
func ParseRoot(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &InvalidRootError{Root: raw, Err: model.ErrNotAbsolute}
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &InvalidRootError{Root: raw, Err: err}
	}
	if err := checkRoot(u); err != nil {
		return nil, &InvalidRootError{Root: raw, Err: err}
	}
	return u, nil
}

// checkRoot accepts http and https URLs with a host, and file URLs with a path.
func checkRoot(u *url.URL) error {
	if u == nil {
		return model.ErrNotAbsolute
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return model.ErrNotAbsolute
		}
		return nil
	case "http", "https":
		if u.Host == "" {
			return model.ErrNotAbsolute
		}
		return nil
	case "":
		return model.ErrNotAbsolute
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// CrawlURLs parses each root with ParseRoot and crawls them.
func (c *Crawler) CrawlURLs(ctx context.Context, roots ...string) (*model.Sitemap, error) {
	locs := make([]*url.URL, 0, len(roots))
	for _, raw := range roots {
		u, err := ParseRoot(raw)
		if err != nil {
			return nil, err
		}
		locs = append(locs, u)
	}
	return c.Crawl(ctx, locs...)
}

// Crawl fetches every document reachable from roots and returns the merged
// result. Documents that fail are listed in the result's Failures; the
// returned error is non-nil only for unusable roots.
//
// When ctx is done the crawl stops before the next document and returns what
// it has gathered with Cancelled set.
func (c *Crawler) Crawl(ctx context.Context, roots ...*url.URL) (*model.Sitemap, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	for _, root := range roots {
		if err := checkRoot(root); err != nil {
			return nil, &InvalidRootError{Root: fmt.Sprint(root), Err: err}
		}
	}

	frontier := make([]*url.URL, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		frontier = append(frontier, roots[i])
	}
	visited := make(map[string]struct{})
	result := model.NewSitemap()
	remaining := c.maxEntries

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		loc := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		key := model.Key(loc)
		if _, seen := visited[key]; seen {
			c.notify(Event{Kind: EventSkipped, Location: loc, Pending: len(frontier)})
			continue
		}
		visited[key] = struct{}{}

		doc, err := c.visit(ctx, loc)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				result.Cancelled = true
				break
			}
			result.AddFailure(loc, err)
			c.logger.Warn("failed to fetch sitemap", "location", loc.String(), "error", err)
			c.notify(Event{Kind: EventFailed, Location: loc, Pending: len(frontier), Err: err})
			continue
		}
		result.Fetched = append(result.Fetched, loc)

		accepted := c.accept(loc, doc, result)
		entries, submaps := len(accepted.Entries), len(accepted.Submaps)
		result.Merge(accepted)
		if c.recurse {
			for _, m := range accepted.Submaps {
				frontier = append(frontier, m.Location)
			}
		}

		c.logger.Debug("merged sitemap document",
			"location", loc.String(),
			"entries", entries,
			"submaps", submaps,
			"pending", len(frontier))
		c.notify(Event{Kind: EventFetched, Location: loc, Entries: entries, Submaps: submaps, Pending: len(frontier)})

		if c.maxEntries > 0 {
			remaining -= entries
			if remaining <= 0 {
				result.Truncated = hasUnvisited(frontier, visited)
				break
			}
		}
	}

	c.logger.Info("crawl finished",
		"documents", len(result.Fetched),
		"entries", len(result.Entries),
		"submaps", len(result.Submaps),
		"failures", len(result.Failures),
		"truncated", result.Truncated,
		"cancelled", result.Cancelled)

	return result, nil
}

// accept returns the entries and submaps of doc that pass the filters.
// A file location referenced from a document that is not itself local is
// refused and recorded as a failure in result.
func (c *Crawler) accept(parent *url.URL, doc, result *model.Sitemap) *model.Sitemap {
	accepted := model.NewSitemap()
	for _, e := range doc.Entries {
		if c.entryFilter != nil && !c.entryFilter(e) {
			continue
		}
		accepted.AddEntry(e)
	}
	for _, m := range doc.Submaps {
		if c.submapFilter != nil && !c.submapFilter(m) {
			continue
		}
		if isLocal(m.Location) && !isLocal(parent) {
			c.logger.Warn("refusing local sitemap referenced by a remote document",
				"location", m.Location.String(),
				"parent", parent.String())
			result.AddFailure(m.Location, ErrLocalSubmap)
			c.notify(Event{Kind: EventFailed, Location: m.Location, Err: ErrLocalSubmap})
			continue
		}
		accepted.AddSubmap(m)
	}
	return accepted
}

func isLocal(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, "file")
}

// hasUnvisited reports whether frontier holds a location not yet visited.
func hasUnvisited(frontier []*url.URL, visited map[string]struct{}) bool {
	for _, loc := range frontier {
		if _, seen := visited[model.Key(loc)]; !seen {
			return true
		}
	}
	return false
}

// visit fetches and parses one document. A panicking parser is reported as
// an error for that document only.
func (c *Crawler) visit(ctx context.Context, loc *url.URL) (doc *model.Sitemap, err error) {
	data, err := c.fetch.Fetch(ctx, loc)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ParseError{Location: loc.String(), Cause: r}
		}
	}()

	doc = c.parse(data)
	if doc == nil {
		doc = model.NewSitemap()
	}
	return doc, nil
}

func (c *Crawler) notify(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}
