// Package batch crawls several targets concurrently.
//
// Each target gets its own crawl: frontier, visited set and entry budget are
// never shared between targets. Results are returned in input order no matter
// which crawl finishes first.
package batch
