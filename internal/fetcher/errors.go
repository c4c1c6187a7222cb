package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTooManyRedirects is matched by errors.Is for a *TooManyRedirectsError.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge is returned when a document exceeds the configured body size limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrMissingLocation is returned for a redirect response without a Location header.
	ErrMissingLocation = errors.New("redirect response has no Location header")

	// ErrUnsupportedScheme is returned when no fetcher handles the URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrRemoteFile is returned for a file location naming a host other than localhost.
	ErrRemoteFile = errors.New("file location names a remote host")

	// ErrNotRegularFile is returned for a file location that is a directory, device or pipe.
	ErrNotRegularFile = errors.New("file location is not a regular file")
)

// FetchError describes a document that could not be fetched.
// Either StatusCode is set (a non-2xx, non-3xx terminal response) or Err holds
// the transport-level cause.
type FetchError struct {
	// URL is the location that failed. After redirects this is the last URL requested.
	URL string

	// StatusCode is the HTTP status of the terminal response, or 0.
	StatusCode int

	// Err is the underlying cause, or nil when StatusCode explains the failure.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: response code %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// TooManyRedirectsError is returned when a document redirects more often than allowed.
type TooManyRedirectsError struct {
	// URL is the location originally requested.
	URL string

	// Redirects is the number of redirects that were followed before giving up.
	Redirects int
}

// Error implements the error interface.
func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("failed to fetch %s: redirected more than %d times", e.URL, e.Redirects)
}

// Is reports whether target is ErrTooManyRedirects.
func (e *TooManyRedirectsError) Is(target error) bool {
	return target == ErrTooManyRedirects
}
