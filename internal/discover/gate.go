package discover

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/temoto/robotstxt"
)

// RobotsGate wraps a Fetcher and refuses locations that the host's robots.txt
// disallows for its user agent. Rules are fetched once per host through the
// wrapped Fetcher; a host whose robots.txt cannot be read is treated as
// allowing everything.
type RobotsGate struct {
	next      fetcher.Fetcher
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	rules map[string]*robotstxt.Group
}

// GateOption configures a RobotsGate.
type GateOption func(*RobotsGate)

// WithGateLogger sets the logger.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *RobotsGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewRobotsGate returns a gate in front of next for the given user agent.
func NewRobotsGate(next fetcher.Fetcher, userAgent string, opts ...GateOption) *RobotsGate {
	g := &RobotsGate{
		next:      next,
		userAgent: userAgent,
		logger:    slog.Default(),
		rules:     make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch fetches u through the wrapped Fetcher unless robots.txt forbids it.
func (g *RobotsGate) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil || u.Path == "/robots.txt" || (u.Scheme != "http" && u.Scheme != "https") {
		return g.next.Fetch(ctx, u)
	}

	if !g.Allowed(ctx, u) {
		g.logger.Debug("skipping location disallowed by robots.txt", "location", u.String())
		return nil, &fetcher.FetchError{URL: u.String(), Err: ErrDisallowed}
	}
	return g.next.Fetch(ctx, u)
}

// Allowed reports whether robots.txt permits fetching u.
func (g *RobotsGate) Allowed(ctx context.Context, u *url.URL) bool {
	group := g.group(ctx, u)
	return group == nil || group.Test(u.EscapedPath())
}

func (g *RobotsGate) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	host := strings.ToLower(u.Scheme + "://" + u.Host)

	g.mu.Lock()
	group, ok := g.rules[host]
	g.mu.Unlock()
	if ok {
		return group
	}

	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}
	data, err := g.next.Fetch(ctx, robotsURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		g.logger.Debug("robots.txt unavailable, allowing all", "host", u.Host, "error", err)
	} else if robots, err := robotstxt.FromBytes(data); err == nil {
		group = robots.FindGroup(g.userAgent)
	}

	g.mu.Lock()
	g.rules[host] = group
	g.mu.Unlock()
	return group
}
