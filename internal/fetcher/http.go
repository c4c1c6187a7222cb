package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxRedirects is the number of redirects followed before a fetch fails.
	DefaultMaxRedirects = 10

	// DefaultMaxBodySize caps a single (decompressed) document at 50 MiB,
	// the sitemaps.org limit for an uncompressed sitemap file.
	DefaultMaxBodySize int64 = 50 << 20

	// DefaultUserAgent identifies the crawler to servers.
	DefaultUserAgent = "sitemaps/1.0 (+https://www.sitemaps.org/)"

	defaultAccept = "application/xml,text/xml;q=0.9,*/*;q=0.8"
)

// HTTPFetcher fetches documents over HTTP and HTTPS.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	headers      map[string]string
	cookie       string
	maxBodySize  int64
	maxRedirects int
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets the client used for requests. The client is copied and
// its redirect policy replaced, so the caller's client is left untouched.
// This is how a proxy or Tor transport is plugged in.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) Option {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize caps the size of a single document. Zero disables the cap.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxBodySize = n
		}
	}
}

// WithMaxRedirects sets how many redirects are followed before failing.
func WithMaxRedirects(n int) Option {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxRedirects = n
		}
	}
}

// WithDelay spaces requests at least d apart. Zero disables rate limiting.
func WithDelay(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			f.limiter = nil
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:       &http.Client{Timeout: 30 * time.Second},
		userAgent:    DefaultUserAgent,
		headers:      make(map[string]string),
		maxBodySize:  DefaultMaxBodySize,
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	// Redirects are followed by Fetch so that the limit and the error type
	// are ours rather than net/http's.
	client := *f.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	f.client = &client

	return f
}

// Fetch retrieves the document at u, following redirects.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, &FetchError{Err: errors.New("nil URL")}
	}

	current := u
	for redirects := 0; ; {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &FetchError{URL: current.String(), Err: err}
			}
		}

		resp, err := f.do(ctx, current)
		if err != nil {
			return nil, &FetchError{URL: current.String(), Err: err}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// Any transfer encoding is already gone; a .gz body still
			// starting with the gzip magic is the file's own compression.
			data, err := readBody(resp.Body, f.maxBodySize, hasGzipSuffix(current))
			_ = resp.Body.Close()
			if err != nil {
				return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode, Err: err}
			}
			f.logger.Debug("fetched document",
				"url", current.String(),
				"status", resp.StatusCode,
				"bytes", len(data),
				"redirects", redirects)
			return data, nil

		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			location := resp.Header.Get("Location")
			_ = resp.Body.Close()
			if location == "" {
				return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode, Err: ErrMissingLocation}
			}
			if redirects >= f.maxRedirects {
				return nil, &TooManyRedirectsError{URL: u.String(), Redirects: redirects}
			}
			next, err := current.Parse(location)
			if err != nil {
				return nil, &FetchError{
					URL:        current.String(),
					StatusCode: resp.StatusCode,
					Err:        fmt.Errorf("invalid redirect location %q: %w", location, err),
				}
			}
			f.logger.Debug("following redirect",
				"from", current.String(),
				"to", next.String(),
				"status", resp.StatusCode)
			current = next
			redirects++

		default:
			_ = resp.Body.Close()
			return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode}
		}
	}
}

func (f *HTTPFetcher) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", defaultAccept)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	return f.client.Do(req)
}
