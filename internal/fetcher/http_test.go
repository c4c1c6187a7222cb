package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>http://example.com/</loc></url></urlset>`

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// redirectServer serves /relative-redirect/{n}, which redirects n times with
// relative Location headers and then returns sampleXML.
func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, "/relative-redirect/")
		if !ok {
			_, _ = w.Write([]byte(sampleXML))
			return
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n <= 1 {
			w.Header().Set("Location", "/get")
		} else {
			w.Header().Set("Location", fmt.Sprintf("../relative-redirect/%d", n-1))
		}
		w.WriteHeader(http.StatusFound)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body of a 200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(sampleXML))
		}))
		defer server.Close()

		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/sitemap.xml"))
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(data))
	})

	t.Run("decompresses .gz paths", func(t *testing.T) {
		t.Parallel()

		compressed := gzipBytes(t, sampleXML)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/x-gzip")
			_, _ = w.Write(compressed)
		}))
		defer server.Close()

		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/sitemap.xml.gz"))
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(data))
	})

	t.Run("decompresses a .gz file sent with gzip content encoding", func(t *testing.T) {
		t.Parallel()

		doubled := gzipBytes(t, string(gzipBytes(t, sampleXML)))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(doubled)
		}))
		defer server.Close()

		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/sitemap.xml.gz"))
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(data))
	})

	t.Run("leaves plain content under a .gz path alone", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(sampleXML))
		}))
		defer server.Close()

		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/sitemap.xml.gz"))
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(data))
	})

	t.Run("does not decompress a gzip body outside a .gz path", func(t *testing.T) {
		t.Parallel()

		compressed := gzipBytes(t, sampleXML)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(compressed)
		}))
		defer server.Close()

		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/sitemap.xml"))
		require.NoError(t, err)
		assert.Equal(t, compressed, data)
	})

	t.Run("follows ten relative redirects", func(t *testing.T) {
		t.Parallel()

		server := redirectServer(t)
		data, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/relative-redirect/10"))
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(data))
	})

	t.Run("fails on the eleventh redirect", func(t *testing.T) {
		t.Parallel()

		server := redirectServer(t)
		_, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/relative-redirect/11"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooManyRedirects)

		var redirectErr *TooManyRedirectsError
		require.ErrorAs(t, err, &redirectErr)
		assert.Equal(t, DefaultMaxRedirects, redirectErr.Redirects)
	})

	t.Run("honors a custom redirect limit", func(t *testing.T) {
		t.Parallel()

		server := redirectServer(t)
		_, err := NewHTTPFetcher(WithMaxRedirects(2)).Fetch(context.Background(), mustURL(t, server.URL+"/relative-redirect/3"))
		assert.ErrorIs(t, err, ErrTooManyRedirects)
	})

	t.Run("reports non-success status codes", func(t *testing.T) {
		t.Parallel()

		for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))

			_, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL+"/missing.xml"))
			server.Close()

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, code, fetchErr.StatusCode)
			assert.Contains(t, fetchErr.Error(), strconv.Itoa(code))
		}
	})

	t.Run("reports redirect without location", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusMovedPermanently)
		}))
		defer server.Close()

		_, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, server.URL))
		assert.ErrorIs(t, err, ErrMissingLocation)
	})

	t.Run("reports transport errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		_, err := NewHTTPFetcher().Fetch(context.Background(), mustURL(t, addr+"/sitemap.xml"))
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Zero(t, fetchErr.StatusCode)
		assert.Error(t, fetchErr.Unwrap())
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(sampleXML))
		}))
		defer server.Close()

		_, err := NewHTTPFetcher(WithMaxBodySize(10)).Fetch(context.Background(), mustURL(t, server.URL))
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})

	t.Run("sends configured headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCookie, gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCookie = r.Header.Get("Cookie")
			gotCustom = r.Header.Get("X-Token")
			_, _ = w.Write([]byte(sampleXML))
		}))
		defer server.Close()

		f := NewHTTPFetcher(
			WithUserAgent("test-agent/1.0"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Token": "secret"}),
		)
		_, err := f.Fetch(context.Background(), mustURL(t, server.URL))
		require.NoError(t, err)
		assert.Equal(t, "test-agent/1.0", gotUA)
		assert.Equal(t, "session=abc", gotCookie)
		assert.Equal(t, "secret", gotCustom)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(sampleXML))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewHTTPFetcher().Fetch(ctx, mustURL(t, server.URL))
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestHTTPFetcherDoesNotMutateClient(t *testing.T) {
	t.Parallel()

	client := &http.Client{Timeout: time.Second}
	_ = NewHTTPFetcher(WithHTTPClient(client))
	assert.Nil(t, client.CheckRedirect)
}

func TestWithDelay(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleXML))
	}))
	defer server.Close()

	f := NewHTTPFetcher(WithDelay(50 * time.Millisecond))
	start := time.Now()
	for range 3 {
		_, err := f.Fetch(context.Background(), mustURL(t, server.URL))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFetchFunc(t *testing.T) {
	t.Parallel()

	var f Fetcher = FetchFunc(func(_ context.Context, u *url.URL) ([]byte, error) {
		return []byte(u.Host), nil
	})
	data, err := f.Fetch(context.Background(), mustURL(t, "http://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", string(data))
}
