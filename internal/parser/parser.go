package parser

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/sitemaps/internal/model"
	"golang.org/x/net/html/charset"
)

const (
	// rootURLSet is the root element of a sitemap listing pages.
	rootURLSet = "urlset"

	// rootSitemapIndex is the root element of a sitemap listing other sitemaps.
	rootSitemapIndex = "sitemapindex"
)

// document mirrors both sitemap root elements. Only the slice matching the
// root element's name is read.
type document struct {
	XMLName  xml.Name
	URLs     []xmlURL     `xml:"url"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

// xmlURL is a <url> element.
type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// xmlSitemap is a <sitemap> element.
type xmlSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Parse extracts the entries of a <urlset> document, or the submaps of a
// <sitemapindex> document, from source.
// Entries repeating a location already seen in the same document are dropped.
func Parse(source []byte) *model.Sitemap {
	return ParseReader(bytes.NewReader(source))
}

// ParseReader is like Parse but reads the document from r.
// A read error is treated like malformed XML.
func ParseReader(r io.Reader) *model.Sitemap {
	result := model.NewSitemap()

	var doc document
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return result
	}

	switch doc.XMLName.Local {
	case rootURLSet:
		for _, u := range doc.URLs {
			if entry, ok := u.entry(); ok {
				result.AddEntry(entry)
			}
		}
	case rootSitemapIndex:
		for _, s := range doc.Sitemaps {
			if submap, ok := s.submap(); ok {
				result.AddSubmap(submap)
			}
		}
	}

	return result
}

// entry converts a <url> element. It returns false when the element has no
// usable location.
func (u xmlURL) entry() (model.Entry, bool) {
	loc, err := model.ParseLocation(u.Loc)
	if err != nil {
		return model.Entry{}, false
	}

	return model.Entry{
		Location:        loc,
		LastModified:    parseLastModified(u.LastMod),
		ChangeFrequency: parseChangeFrequency(u.ChangeFreq),
		Priority:        parsePriority(u.Priority),
	}, true
}

// submap converts a <sitemap> element. It returns false when the element has
// no usable location.
func (s xmlSitemap) submap() (model.Submap, bool) {
	loc, err := model.ParseLocation(s.Loc)
	if err != nil {
		return model.Submap{}, false
	}

	return model.Submap{
		Location:     loc,
		LastModified: parseLastModified(s.LastMod),
	}, true
}

// lastModifiedLayouts are tried in order. The first five cover the W3C
// datetime profile required by sitemaps.org; the rest are formats seen in
// generated sitemaps in the wild. time.Parse accepts fractional seconds
// after the seconds field even when the layout omits them.
var lastModifiedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123Z,
	time.RFC1123,
}

// parseLastModified returns nil when value is empty or not a recognizable timestamp.
// Timestamps without a zone are interpreted as UTC.
func parseLastModified(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// parseChangeFrequency returns ChangeFrequencyNone unless value is exactly one
// of the seven tokens. Surrounding whitespace is not part of the token.
func parseChangeFrequency(value string) model.ChangeFrequency {
	freq, _ := model.ParseChangeFrequency(strings.TrimSpace(value))
	return freq
}

// parsePriority returns model.DefaultPriority when value is empty, not a
// number, or outside [0, 1].
func parsePriority(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.DefaultPriority
	}

	p, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(p) || p < 0 || p > 1 {
		return model.DefaultPriority
	}
	return p
}
