package model

import (
	"encoding/json"
	"net/url"
	"time"
)

// DefaultPriority is the priority sitemaps.org assigns to a URL that does not
// declare one.
const DefaultPriority = 0.5

// ChangeFrequency is the value of a <changefreq> element.
// The zero value, ChangeFrequencyNone, means the element was absent or did
// not hold one of the seven tokens defined by sitemaps.org.
type ChangeFrequency int

const (
	// ChangeFrequencyNone means no usable <changefreq> was present.
	ChangeFrequencyNone ChangeFrequency = iota

	// ChangeFrequencyAlways describes documents that change on every access.
	ChangeFrequencyAlways

	// ChangeFrequencyHourly describes documents that change every hour.
	ChangeFrequencyHourly

	// ChangeFrequencyDaily describes documents that change every day.
	ChangeFrequencyDaily

	// ChangeFrequencyWeekly describes documents that change every week.
	ChangeFrequencyWeekly

	// ChangeFrequencyMonthly describes documents that change every month.
	ChangeFrequencyMonthly

	// ChangeFrequencyYearly describes documents that change every year.
	ChangeFrequencyYearly

	// ChangeFrequencyNever describes archived documents.
	ChangeFrequencyNever
)

// changeFrequencyTokens maps the sitemaps.org tokens to their values.
// Matching is exact and case-sensitive.
var changeFrequencyTokens = map[string]ChangeFrequency{
	"always":  ChangeFrequencyAlways,
	"hourly":  ChangeFrequencyHourly,
	"daily":   ChangeFrequencyDaily,
	"weekly":  ChangeFrequencyWeekly,
	"monthly": ChangeFrequencyMonthly,
	"yearly":  ChangeFrequencyYearly,
	"never":   ChangeFrequencyNever,
}

// ParseChangeFrequency returns the ChangeFrequency for token.
// The second result is false when token is not one of the seven valid tokens,
// in which case ChangeFrequencyNone is returned.
func ParseChangeFrequency(token string) (ChangeFrequency, bool) {
	freq, ok := changeFrequencyTokens[token]
	return freq, ok
}

// String returns the sitemaps.org token, or "" for ChangeFrequencyNone.
func (c ChangeFrequency) String() string {
	switch c {
	case ChangeFrequencyAlways:
		return "always"
	case ChangeFrequencyHourly:
		return "hourly"
	case ChangeFrequencyDaily:
		return "daily"
	case ChangeFrequencyWeekly:
		return "weekly"
	case ChangeFrequencyMonthly:
		return "monthly"
	case ChangeFrequencyYearly:
		return "yearly"
	case ChangeFrequencyNever:
		return "never"
	default:
		return ""
	}
}

// IsSet reports whether c holds one of the seven tokens.
func (c ChangeFrequency) IsSet() bool {
	return c != ChangeFrequencyNone
}

// Entry is one <url> of a <urlset> document.
type Entry struct {
	// Location is the page URL. It is never nil for entries produced by the parser.
	Location *url.URL

	// LastModified is the parsed <lastmod>, or nil when absent or unparsable.
	LastModified *time.Time

	// ChangeFrequency is the parsed <changefreq>.
	ChangeFrequency ChangeFrequency

	// Priority is the parsed <priority>, DefaultPriority when absent or unparsable.
	Priority float64
}

// Key returns the identity of the entry's location.
func (e Entry) Key() string {
	return Key(e.Location)
}

// entryJSON is the wire form of Entry.
type entryJSON struct {
	Location        string     `json:"loc"`
	LastModified    *time.Time `json:"lastmod,omitempty"`
	ChangeFrequency string     `json:"changefreq,omitempty"`
	Priority        float64    `json:"priority"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Location:        locationString(e.Location),
		LastModified:    e.LastModified,
		ChangeFrequency: e.ChangeFrequency.String(),
		Priority:        e.Priority,
	})
}

// Submap is one <sitemap> of a <sitemapindex> document.
type Submap struct {
	// Location is the URL of the referenced sitemap document.
	Location *url.URL

	// LastModified is the parsed <lastmod>, or nil when absent or unparsable.
	LastModified *time.Time
}

// Key returns the identity of the submap's location.
func (s Submap) Key() string {
	return Key(s.Location)
}

// submapJSON is the wire form of Submap.
type submapJSON struct {
	Location     string     `json:"loc"`
	LastModified *time.Time `json:"lastmod,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Submap) MarshalJSON() ([]byte, error) {
	return json.Marshal(submapJSON{
		Location:     locationString(s.Location),
		LastModified: s.LastModified,
	})
}

func locationString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
