// Package model defines the data structures shared by the sitemap packages.
//
// This package contains the following main types:
//   - Entry: one page listed by a <urlset> sitemap
//   - Submap: a reference from a <sitemapindex> to another sitemap document
//   - Sitemap: the merged result of parsing or crawling one or more documents
//   - Failure: a location that could not be fetched during a crawl
//
// Locations are absolute *url.URL values. Everywhere a location is used as an
// identity (deduplication, visited sets, database rows), its Key is compared
// rather than the raw string, so "HTTP://Example.com" and "http://example.com/"
// are the same location.
//
// The types are serializable to JSON for report output.
package model
