package discover

import "errors"

var (
	// ErrInvalidHost is returned when the host has no scheme or hostname.
	ErrInvalidHost = errors.New("host must be an absolute http or https URL")

	// ErrDisallowed is the cause of a fetch refused by RobotsGate.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)
