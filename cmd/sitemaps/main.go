// Package main provides the entry point for the sitemaps CLI.
//
// sitemaps fetches sitemaps.org documents, follows sitemap indexes and
// prints the pages they list.
//
// Usage:
//
//	sitemaps crawl https://example.com/sitemap.xml
//	sitemaps crawl --discover example.com
//	sitemaps parse sitemap.xml.gz
//
// See --help for all available options.
package main

func main() {
	Execute()
}
