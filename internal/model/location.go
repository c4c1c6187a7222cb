package model

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNotAbsolute is returned by ParseLocation when the value parses as a URL
// but has no scheme or host, or is a file URL without a path.
var ErrNotAbsolute = errors.New("location is not an absolute URL")

// ParseLocation parses a sitemap location. Surrounding whitespace is ignored,
// since sitemap generators often pretty-print <loc> text onto its own line.
// File URLs need a path but may omit the host.
func ParseLocation(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	switch {
	case u.Scheme == "file" && u.Path != "":
		return u, nil
	case u.Scheme == "" || u.Host == "":
		return nil, ErrNotAbsolute
	default:
		return u, nil
	}
}

// Key returns the identity of a location.
//
// The scheme and host are lower-cased, the fragment is dropped and an empty
// path becomes "/". Query strings are kept verbatim: sitemaps frequently list
// pages that differ only by query ("?item=12", "?item=73").
func Key(u *url.URL) string {
	if u == nil {
		return ""
	}

	normalized := *u
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)
	if normalized.Path == "" && normalized.Opaque == "" {
		normalized.Path = "/"
	}

	return normalized.String()
}
