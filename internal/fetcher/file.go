package fetcher

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"os"
	"strings"
)

// FileFetcher reads file:// locations from the local filesystem.
// Paths ending in ".gz" are decompressed. Only regular files on the local
// host ("file:///path" or "file://localhost/path") are read.
type FileFetcher struct {
	// MaxBodySize caps a single document. Zero disables the cap.
	MaxBodySize int64
}

// Fetch reads the file named by u.
func (f FileFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u == nil || u.Scheme != "file" {
		return nil, &FetchError{URL: fmt.Sprint(u), Err: ErrUnsupportedScheme}
	}

	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		return nil, &FetchError{URL: u.String(), Err: ErrRemoteFile}
	}

	file, err := os.Open(u.Path)
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &FetchError{URL: u.String(), Err: ErrNotRegularFile}
	}

	data, err := readBody(file, f.MaxBodySize, hasGzipSuffix(u))
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: err}
	}
	return data, nil
}

// Mux dispatches to a Fetcher by URL scheme.
type Mux map[string]Fetcher

// NewMux returns a Mux serving http and https through web.
func NewMux(web Fetcher) Mux {
	return Mux{
		"http":  web,
		"https": web,
	}
}

// WithFiles returns a copy of m that also serves file locations through a
// FileFetcher with the given body size cap.
func (m Mux) WithFiles(maxBodySize int64) Mux {
	out := make(Mux, len(m)+1)
	maps.Copy(out, m)
	out["file"] = FileFetcher{MaxBodySize: maxBodySize}
	return out
}

// Fetch routes u to the fetcher registered for its scheme.
func (m Mux) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, &FetchError{Err: ErrUnsupportedScheme}
	}
	f, ok := m[u.Scheme]
	if !ok {
		return nil, &FetchError{URL: u.String(), Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
	}
	return f.Fetch(ctx, u)
}
