// Package database stores the history of sitemap crawls in SQLite.
//
// Every saved crawl becomes a run identified by a UUID. A run keeps the
// entries, submaps and failures of the crawl and a SHA3-256 digest of every
// fetched document, so that two runs of the same target can be compared:
// which URLs appeared, which disappeared, which entries changed their
// metadata and which documents changed content.
//
// The database file lives in the XDG data directory by default
// (~/.local/share/sitemaps/sitemaps.db on Linux).
package database
