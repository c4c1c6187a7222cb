package discover

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/sitemaps/internal/crawler"
	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/nao1215/sitemaps/internal/model"
)

// FallbackPaths are tried, in this order, when robots.txt names no sitemap.
var FallbackPaths = []string{
	"/sitemap_index.xml.gz",
	"/sitemap_index.xml",
	"/sitemap.xml.gz",
	"/sitemap.xml",
}

const sitemapDirective = "Sitemap:"

// maxRobotsLine bounds a single robots.txt line.
const maxRobotsLine = 1 << 20

// Candidates is the outcome of a root lookup.
type Candidates struct {
	// Roots are the sitemap locations to crawl, without duplicates.
	Roots []*url.URL

	// FromRobots is true when Roots came from robots.txt rather than FallbackPaths.
	FromRobots bool
}

// Lookup resolves the sitemap roots of host. Only the scheme and host of the
// argument are used.
func Lookup(ctx context.Context, host *url.URL, fetch fetcher.Fetcher) (*Candidates, error) {
	if host == nil || host.Host == "" || (host.Scheme != "http" && host.Scheme != "https") {
		return nil, ErrInvalidHost
	}
	origin := &url.URL{Scheme: host.Scheme, Host: host.Host}

	data, err := fetch.Fetch(ctx, origin.ResolveReference(&url.URL{Path: "/robots.txt"}))
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var declared []*url.URL
	if err == nil {
		declared = SitemapsFromRobots(data, origin)
	}
	if len(declared) > 0 {
		return &Candidates{Roots: declared, FromRobots: true}, nil
	}

	fallback := make([]*url.URL, 0, len(FallbackPaths))
	for _, p := range FallbackPaths {
		fallback = append(fallback, origin.ResolveReference(&url.URL{Path: p}))
	}
	return &Candidates{Roots: fallback}, nil
}

// Roots is Lookup without the source annotation.
func Roots(ctx context.Context, host *url.URL, fetch fetcher.Fetcher) ([]*url.URL, error) {
	c, err := Lookup(ctx, host, fetch)
	if err != nil {
		return nil, err
	}
	return c.Roots, nil
}

// SitemapsFromRobots extracts the "Sitemap:" lines of a robots.txt document.
// The directive is matched case-sensitively after leading whitespace; a value
// that is not an absolute URL is resolved against base. Duplicates are dropped
// and declaration order is kept.
func SitemapsFromRobots(data []byte, base *url.URL) []*url.URL {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRobotsLine)

	seen := make(map[string]struct{})
	var locs []*url.URL
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t\ufeff")
		value, ok := strings.CutPrefix(line, sitemapDirective)
		if !ok {
			continue
		}
		if i := strings.Index(value, " #"); i >= 0 {
			value = value[:i]
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme == "" || ref.Host == "" {
			continue
		}

		key := model.Key(ref)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		locs = append(locs, ref)
	}
	return locs
}

// Discover looks up the roots of host and crawls them with a crawler built
// from fetch and opts. When the roots are the fallback guesses, candidates
// that simply do not exist are not reported as failures.
func Discover(ctx context.Context, host *url.URL, fetch fetcher.Fetcher, opts ...crawler.Option) (*model.Sitemap, error) {
	candidates, err := Lookup(ctx, host, fetch)
	if err != nil {
		return nil, err
	}
	return candidates.Crawl(ctx, fetch, opts...)
}

// Crawl crawls the candidate roots. Fallback guesses answered with 404 or 410
// are dropped from the failures.
func (c *Candidates) Crawl(ctx context.Context, fetch fetcher.Fetcher, opts ...crawler.Option) (*model.Sitemap, error) {
	result, err := crawler.New(fetch, opts...).Crawl(ctx, c.Roots...)
	if err != nil {
		return nil, err
	}

	if !c.FromRobots {
		result.Failures = pruneMissing(result.Failures, c.Roots)
	}
	return result, nil
}

func pruneMissing(failures []model.Failure, guesses []*url.URL) []model.Failure {
	guessed := make(map[string]struct{}, len(guesses))
	for _, g := range guesses {
		guessed[model.Key(g)] = struct{}{}
	}

	kept := failures[:0]
	for _, f := range failures {
		var fetchErr *fetcher.FetchError
		if _, ok := guessed[model.Key(f.Location)]; ok && errors.As(f.Err, &fetchErr) &&
			(fetchErr.StatusCode == http.StatusNotFound || fetchErr.StatusCode == http.StatusGone) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
