package fetcher

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Fetcher returns the raw bytes of the document at u.
// Implementations report unreachable documents with *FetchError or
// *TooManyRedirectsError.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// FetchFunc adapts an ordinary function to the Fetcher interface.
type FetchFunc func(ctx context.Context, u *url.URL) ([]byte, error)

// Fetch calls f(ctx, u).
func (f FetchFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

// gzipMagic is the two-byte header of a gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// hasGzipSuffix reports whether the URL path names a gzip file.
func hasGzipSuffix(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), ".gz")
}

// readBody reads at most limit bytes from r. A limit of zero or less means no
// limit. When gunzip is true and the stream starts with the gzip magic number
// it is decompressed first; the limit then applies to the decompressed size.
func readBody(r io.Reader, limit int64, gunzip bool) ([]byte, error) {
	if gunzip {
		br := bufio.NewReader(r)
		head, err := br.Peek(len(gzipMagic))
		if err == nil && bytes.Equal(head, gzipMagic) {
			zr, err := gzip.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("failed to open gzip stream: %w", err)
			}
			defer zr.Close()
			r = zr
		} else {
			r = br
		}
	}

	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
