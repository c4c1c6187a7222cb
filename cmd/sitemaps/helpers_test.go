package main

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of batch crawls.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr lockedBuffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func urlset(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, loc := range locs {
		fmt.Fprintf(&sb, "  <url><loc>%s</loc><changefreq>weekly</changefreq><priority>0.7</priority></url>\n", loc)
	}
	sb.WriteString("</urlset>\n")
	return sb.String()
}

func sitemapIndex(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, loc := range locs {
		fmt.Fprintf(&sb, "  <sitemap><loc>%s</loc></sitemap>\n", loc)
	}
	sb.WriteString("</sitemapindex>\n")
	return sb.String()
}

func gzipString(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newSitemapServer serves a robots.txt pointing at an index with one working
// and one missing sitemap. pages is swapped in by the caller to simulate a
// site that changes between crawls.
func newSitemapServer(t *testing.T, pages *[]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			fmt.Fprintf(w, "User-agent: *\nDisallow: /private/\n\nSitemap: %s/sitemap_index.xml\n", srv.URL)
		case "/sitemap_index.xml":
			fmt.Fprint(w, sitemapIndex(srv.URL+"/sitemap1.xml.gz", srv.URL+"/missing.xml"))
		case "/sitemap1.xml.gz":
			locs := make([]string, len(*pages))
			for i, p := range *pages {
				locs[i] = srv.URL + p
			}
			_, _ = w.Write(gzipString(t, urlset(locs...)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
