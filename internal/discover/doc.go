// Package discover finds the sitemap roots of a host.
//
// Roots first reads <host>/robots.txt and collects every "Sitemap:" line in
// declaration order, resolving relative values against the host. When
// robots.txt cannot be fetched or lists no sitemap, the well-known locations
// in FallbackPaths are used instead. Discover runs that lookup and crawls the
// result in one call.
//
// RobotsGate is a fetcher.Fetcher decorator that refuses locations the
// host's robots.txt disallows for a given user agent.
package discover
