package model

import (
	"encoding/json"
	"net/url"
)

// Failure records a location that contributed nothing to a crawl because it
// could not be fetched or parsed.
type Failure struct {
	// Location is the sitemap document that failed.
	Location *url.URL

	// Err is the cause. For fetch failures this is a *fetcher.FetchError or a
	// *fetcher.TooManyRedirectsError.
	Err error
}

// Error implements the error interface so a Failure can be logged or wrapped directly.
func (f Failure) Error() string {
	if f.Err == nil {
		return locationString(f.Location) + ": unknown failure"
	}
	return locationString(f.Location) + ": " + f.Err.Error()
}

// Unwrap returns the underlying cause.
func (f Failure) Unwrap() error {
	return f.Err
}

// failureJSON is the wire form of Failure.
type failureJSON struct {
	Location string `json:"loc"`
	Error    string `json:"error"`
}

// MarshalJSON implements json.Marshaler.
func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(failureJSON{
		Location: locationString(f.Location),
		Error:    msg,
	})
}

// Sitemap is the result of parsing one document or crawling many.
//
// Entries and Submaps keep insertion order and never hold two items with the
// same location Key. The zero value is ready to use.
type Sitemap struct {
	// Entries are the pages found, in discovery order.
	Entries []Entry `json:"entries"`

	// Submaps are the sitemap documents referenced by sitemap indexes.
	Submaps []Submap `json:"sitemaps"`

	// Fetched lists the documents that were fetched successfully during a
	// crawl, in fetch order. It is empty for a single parsed document.
	Fetched []*url.URL `json:"-"`

	// Failures lists the documents that could not be fetched during a crawl.
	Failures []Failure `json:"failures,omitempty"`

	// Truncated is set when the crawl stopped because the entry budget was spent
	// while documents were still pending.
	Truncated bool `json:"truncated,omitempty"`

	// Cancelled is set when the crawl stopped because its context was done.
	Cancelled bool `json:"cancelled,omitempty"`

	entryKeys  map[string]struct{}
	submapKeys map[string]struct{}
}

// NewSitemap returns an empty Sitemap.
func NewSitemap() *Sitemap {
	return &Sitemap{
		Entries: make([]Entry, 0),
		Submaps: make([]Submap, 0),
	}
}

// AddEntry appends e unless an entry with the same location is already present.
// It reports whether e was added.
func (s *Sitemap) AddEntry(e Entry) bool {
	if s.entryKeys == nil {
		s.entryKeys = make(map[string]struct{}, len(s.Entries))
		for _, existing := range s.Entries {
			s.entryKeys[existing.Key()] = struct{}{}
		}
	}

	key := e.Key()
	if _, ok := s.entryKeys[key]; ok {
		return false
	}
	s.entryKeys[key] = struct{}{}
	s.Entries = append(s.Entries, e)
	return true
}

// AddSubmap appends m unless a submap with the same location is already present.
// It reports whether m was added.
func (s *Sitemap) AddSubmap(m Submap) bool {
	if s.submapKeys == nil {
		s.submapKeys = make(map[string]struct{}, len(s.Submaps))
		for _, existing := range s.Submaps {
			s.submapKeys[existing.Key()] = struct{}{}
		}
	}

	key := m.Key()
	if _, ok := s.submapKeys[key]; ok {
		return false
	}
	s.submapKeys[key] = struct{}{}
	s.Submaps = append(s.Submaps, m)
	return true
}

// AddFailure records that loc could not be fetched or parsed.
func (s *Sitemap) AddFailure(loc *url.URL, err error) {
	s.Failures = append(s.Failures, Failure{Location: loc, Err: err})
}

// Merge appends the entries and submaps of other that are not yet present,
// along with all of its failures and fetched documents.
// It returns the number of entries and submaps actually added.
// Merging the same sitemap twice is a no-op for entries and submaps.
func (s *Sitemap) Merge(other *Sitemap) (entries, submaps int) {
	if other == nil {
		return 0, 0
	}

	for _, e := range other.Entries {
		if s.AddEntry(e) {
			entries++
		}
	}
	for _, m := range other.Submaps {
		if s.AddSubmap(m) {
			submaps++
		}
	}
	s.Fetched = append(s.Fetched, other.Fetched...)
	s.Failures = append(s.Failures, other.Failures...)

	return entries, submaps
}

// HasFailures reports whether any document failed during the crawl.
func (s *Sitemap) HasFailures() bool {
	return len(s.Failures) > 0
}

// IsEmpty reports whether the sitemap holds no entries and no submaps.
func (s *Sitemap) IsEmpty() bool {
	return len(s.Entries) == 0 && len(s.Submaps) == 0
}

// Locations returns the location of every entry as a string, in order.
func (s *Sitemap) Locations() []string {
	locs := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		locs[i] = locationString(e.Location)
	}
	return locs
}
