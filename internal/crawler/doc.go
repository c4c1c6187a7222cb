// Package crawler walks a tree (or graph) of sitemap documents and merges
// everything it finds into one model.Sitemap.
//
// # Algorithm
//
// The engine keeps a LIFO frontier of pending locations and a visited set
// that lives for the whole crawl. Each step pops a location, skips it when it
// was already visited, fetches and parses it, merges the accepted entries and
// submaps into the result and pushes the accepted submap locations back onto
// the frontier. Cycles and diamonds therefore terminate and every document is
// fetched at most once.
//
// # Budget
//
// WithMaxEntries sets a global entry budget. It is checked after a whole
// document has been merged, so a crawl may overshoot by at most the entries of
// one document but never truncates a document half way.
//
// # Failures
//
// A document that cannot be fetched, or whose parser panics, is recorded in
// Sitemap.Failures and the crawl moves on. Crawl only returns an error for
// unusable input (no roots, or a root that is not an absolute URL).
//
// # Usage
//
//	c := crawler.New(fetcher.NewHTTPFetcher(), crawler.WithMaxEntries(1000))
//	result, err := c.CrawlURLs(ctx, "https://example.com/sitemap_index.xml")
package crawler
