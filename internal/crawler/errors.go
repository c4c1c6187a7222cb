package crawler

import (
	"errors"
	"fmt"
)

// ErrNoRoots is returned when Crawl is called without any root location.
var ErrNoRoots = errors.New("at least one root sitemap location is required")

// ErrUnsupportedScheme is returned for a root that is neither http(s) nor file.
var ErrUnsupportedScheme = errors.New("root must be an http, https or file URL")

// ErrLocalSubmap is recorded for a file location referenced by a remote document.
var ErrLocalSubmap = errors.New("remote sitemap references a local file")

// InvalidRootError is returned for a root that cannot be crawled.
type InvalidRootError struct {
	// Root is the offending input as given by the caller.
	Root string

	// Err is the parse or validation failure.
	Err error
}

// Error implements the error interface.
func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid root %q: %v", e.Root, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvalidRootError) Unwrap() error {
	return e.Err
}

// ParseError records a parser that panicked on a document.
type ParseError struct {
	Location string
	Cause    any
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Location, e.Cause)
}
