// Package log builds the slog loggers used by sitemaps.
//
// RedactingHandler wraps any slog.Handler and masks credentials before they
// reach the output: attributes whose key names a credential (cookie,
// authorization, token, ...), values that look like bearer or basic
// credentials, and the password part or sensitive query parameters of URLs.
// Sitemap hosts behind authentication are configured with headers and
// cookies, and those must not leak through debug logs.
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
