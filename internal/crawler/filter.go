package crawler

import (
	"net/url"
	"path"
	"strings"

	"github.com/nao1215/sitemaps/internal/model"
)

// PathFilter selects locations by glob patterns on their URL path.
//
// A location is kept when it matches no Exclude pattern and, if Include is
// not empty, at least one Include pattern. Supported pattern forms:
//   - "/blog/*" matches "/blog" and everything below it
//   - "*.html" matches any path ending in ".html"
//   - anything else is a path.Match pattern ("/news/2024-??/*.xml")
type PathFilter struct {
	Include []string
	Exclude []string
}

// IsZero reports whether the filter has no patterns and keeps everything.
func (f PathFilter) IsZero() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Keep reports whether u passes the filter.
func (f PathFilter) Keep(u *url.URL) bool {
	if u == nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.Exclude {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// Entries adapts the filter for WithEntryFilter.
func (f PathFilter) Entries() func(model.Entry) bool {
	return func(e model.Entry) bool {
		return f.Keep(e.Location)
	}
}

// Submaps adapts the filter for WithSubmapFilter.
func (f PathFilter) Submaps() func(model.Submap) bool {
	return func(m model.Submap) bool {
		return f.Keep(m.Location)
	}
}

func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*."); ok && !strings.ContainsAny(ext, "*?[/") {
		if strings.HasSuffix(p, "."+ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}

	// A slash-free pattern is also tried against the last path segment.
	if !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}

	return false
}
