// Package proxy builds HTTP clients that reach sitemap hosts through a SOCKS5
// proxy, either one the user already runs or a Tor daemon started on demand.
//
// The returned *http.Client is handed to fetcher.WithHTTPClient; redirects,
// headers and body limits stay the fetcher's responsibility.
package proxy
