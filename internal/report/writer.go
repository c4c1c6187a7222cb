package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/sitemaps/internal/model"
)

// Format names accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatURLs     = "urls"
)

// Result is one crawl together with the context needed to report it.
type Result struct {
	// Target is what the user asked to crawl: a URL or a host.
	Target string

	// Roots are the documents the crawl started from.
	Roots []string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// Duration is how long the crawl took.
	Duration time.Duration

	// RunID is the history database ID of the run, empty when not saved.
	RunID string

	// Sitemap is the crawl result. A nil Sitemap is reported as empty.
	Sitemap *model.Sitemap
}

// sitemap returns the result's sitemap, never nil.
func (r *Result) sitemap() *model.Sitemap {
	if r.Sitemap == nil {
		return model.NewSitemap()
	}
	return r.Sitemap
}

// Status describes how the crawl ended.
func (r *Result) Status() string {
	s := r.sitemap()
	switch {
	case s.Cancelled:
		return "Cancelled (partial results)"
	case s.Truncated:
		return "Truncated (entry limit reached)"
	case s.HasFailures():
		return fmt.Sprintf("Complete with %d failure(s)", len(s.Failures))
	default:
		return "Complete"
	}
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report of one crawl.
	// Returns the number of bytes written and any error encountered.
	Write(result *Result) (int, error)
}

// Options configures the writer returned by New.
type Options struct {
	// Verbose adds entry metadata to text output.
	Verbose bool

	// Version is recorded in JSON output.
	Version string

	// Lines writes each JSON report compactly on its own line, so that the
	// reports of several targets form a JSON Lines stream.
	Lines bool
}

// New returns the Writer for format.
func New(format string, output io.Writer, opts Options) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output, WithVerbose(opts.Verbose)), nil
	case FormatJSON:
		if opts.Lines {
			return NewJSONWriter(output, WithVersion(opts.Version)), nil
		}
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(opts.Version)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatURLs:
		return NewURLWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
