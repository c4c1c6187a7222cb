package report

import (
	"io"
	"strings"
)

// URLWriter outputs the location of every entry, one per line.
type URLWriter struct {
	baseWriter
}

// NewURLWriter creates a URLWriter that outputs to the given writer.
func NewURLWriter(output io.Writer) *URLWriter {
	return &URLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the entry locations of result.
func (w *URLWriter) Write(result *Result) (int, error) {
	locs := result.sitemap().Locations()
	if len(locs) == 0 {
		return 0, nil
	}
	return io.WriteString(w.output, strings.Join(locs, "\n")+"\n")
}
