package database

import "errors"

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("crawl run not found")

	// ErrNotEnoughRuns is returned by DiffLatest when a target has fewer than two runs.
	ErrNotEnoughRuns = errors.New("at least two stored runs are required for a diff")
)
