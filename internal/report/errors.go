package report

import "errors"

// ErrUnknownFormat is returned by New for a format it cannot write.
var ErrUnknownFormat = errors.New("unknown report format")
