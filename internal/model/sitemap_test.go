package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestSitemapAddEntry tests deduplication on insert.
func TestSitemapAddEntry(t *testing.T) {
	t.Parallel()

	t.Run("zero value is usable", func(t *testing.T) {
		t.Parallel()

		var s Sitemap
		if !s.AddEntry(Entry{Location: mustParse(t, "http://example.com/a")}) {
			t.Error("expected first entry to be added")
		}
		if len(s.Entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(s.Entries))
		}
	})

	t.Run("suppresses same location", func(t *testing.T) {
		t.Parallel()

		s := NewSitemap()
		s.AddEntry(Entry{Location: mustParse(t, "http://example.com/a"), Priority: 0.1})
		if s.AddEntry(Entry{Location: mustParse(t, "HTTP://EXAMPLE.COM/a"), Priority: 0.9}) {
			t.Error("expected duplicate to be rejected")
		}
		if len(s.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(s.Entries))
		}
		if s.Entries[0].Priority != 0.1 {
			t.Error("expected first entry to win")
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()

		s := NewSitemap()
		for _, loc := range []string{"http://e.com/3", "http://e.com/1", "http://e.com/2"} {
			s.AddEntry(Entry{Location: mustParse(t, loc)})
		}

		got := strings.Join(s.Locations(), ",")
		if got != "http://e.com/3,http://e.com/1,http://e.com/2" {
			t.Errorf("unexpected order: %s", got)
		}
	})

	t.Run("entries appended directly are respected", func(t *testing.T) {
		t.Parallel()

		s := &Sitemap{Entries: []Entry{{Location: mustParse(t, "http://e.com/a")}}}
		if s.AddEntry(Entry{Location: mustParse(t, "http://e.com/a")}) {
			t.Error("expected duplicate of pre-populated entry to be rejected")
		}
	})
}

// TestSitemapMerge tests idempotent merging.
func TestSitemapMerge(t *testing.T) {
	t.Parallel()

	build := func() *Sitemap {
		s := NewSitemap()
		s.AddEntry(Entry{Location: mustParse(t, "http://e.com/a")})
		s.AddEntry(Entry{Location: mustParse(t, "http://e.com/b")})
		s.AddSubmap(Submap{Location: mustParse(t, "http://e.com/sitemap1.xml")})
		return s
	}

	t.Run("merges new items", func(t *testing.T) {
		t.Parallel()

		dst := NewSitemap()
		entries, submaps := dst.Merge(build())
		if entries != 2 || submaps != 1 {
			t.Errorf("expected 2 entries and 1 submap added, got %d and %d", entries, submaps)
		}
	})

	t.Run("second merge adds nothing", func(t *testing.T) {
		t.Parallel()

		dst := NewSitemap()
		dst.Merge(build())
		entries, submaps := dst.Merge(build())
		if entries != 0 || submaps != 0 {
			t.Errorf("expected nothing added, got %d and %d", entries, submaps)
		}
		if len(dst.Entries) != 2 || len(dst.Submaps) != 1 {
			t.Errorf("unexpected sizes: %d entries, %d submaps", len(dst.Entries), len(dst.Submaps))
		}
	})

	t.Run("nil merge is a no-op", func(t *testing.T) {
		t.Parallel()

		dst := build()
		entries, submaps := dst.Merge(nil)
		if entries != 0 || submaps != 0 {
			t.Error("expected nil merge to add nothing")
		}
	})

	t.Run("carries failures", func(t *testing.T) {
		t.Parallel()

		src := NewSitemap()
		src.AddFailure(mustParse(t, "http://e.com/broken.xml"), errors.New("boom"))

		dst := NewSitemap()
		dst.Merge(src)
		if !dst.HasFailures() {
			t.Error("expected failures to be merged")
		}
	})
}

// TestFailure tests the Failure error behavior.
func TestFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	f := Failure{Location: mustParse(t, "http://e.com/s.xml"), Err: cause}

	if !errors.Is(f, cause) {
		t.Error("expected Failure to unwrap to its cause")
	}
	if f.Error() != "http://e.com/s.xml: connection refused" {
		t.Errorf("unexpected message %q", f.Error())
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"loc":"http://e.com/s.xml","error":"connection refused"}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
