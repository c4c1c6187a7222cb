package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitemaps/internal/model"
)

// TextWriter outputs human-readable text reports for terminal display.
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds lastmod, changefreq and priority to each entry.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables entry metadata in the output.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *TextWriter) Write(result *Result) (int, error) {
	var sb strings.Builder
	s := result.sitemap()

	w.writeHeader(&sb, result, s)
	w.writeEntries(&sb, s)
	w.writeSubmaps(&sb, s)
	w.writeFailures(&sb, s)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeHeader(sb *strings.Builder, result *Result, s *model.Sitemap) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SITEMAP REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:     %s\n", result.Target)
	for _, root := range result.Roots {
		fmt.Fprintf(sb, "Root:       %s\n", root)
	}
	if !result.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:    %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if result.Duration > 0 {
		fmt.Fprintf(sb, "Duration:   %s\n", result.Duration.Round(time.Millisecond))
	}
	if result.RunID != "" {
		fmt.Fprintf(sb, "Run ID:     %s\n", result.RunID)
	}
	fmt.Fprintf(sb, "Documents:  %d fetched, %d failed\n", len(s.Fetched), len(s.Failures))
	fmt.Fprintf(sb, "Entries:    %d\n", len(s.Entries))
	fmt.Fprintf(sb, "Sitemaps:   %d\n", len(s.Submaps))
	fmt.Fprintf(sb, "Status:     %s\n", result.Status())
	sb.WriteString("\n")
}

func (w *TextWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *TextWriter) writeEntries(sb *strings.Builder, s *model.Sitemap) {
	if len(s.Entries) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "ENTRIES")

	if len(s.Entries) == 0 {
		sb.WriteString("  No entries\n\n")
		return
	}
	for _, e := range s.Entries {
		fmt.Fprintf(sb, "  %s\n", e.Location)
		if !w.verbose {
			continue
		}
		if e.LastModified != nil {
			fmt.Fprintf(sb, "    Last Modified:    %s\n", formatTime(e.LastModified))
		}
		if e.ChangeFrequency.IsSet() {
			fmt.Fprintf(sb, "    Change Frequency: %s\n", e.ChangeFrequency)
		}
		fmt.Fprintf(sb, "    Priority:         %.1f\n", e.Priority)
	}
	sb.WriteString("\n")

	if w.verbose {
		sb.WriteString("  Change frequencies:\n")
		for _, fc := range frequencySummary(s) {
			fmt.Fprintf(sb, "    %-12s %d\n", fc.Label+":", fc.Count)
		}
		sb.WriteString("\n")
	}
}

func (w *TextWriter) writeSubmaps(sb *strings.Builder, s *model.Sitemap) {
	if len(s.Submaps) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "SITEMAPS")

	if len(s.Submaps) == 0 {
		sb.WriteString("  No sitemaps referenced\n\n")
		return
	}
	for _, m := range s.Submaps {
		if w.verbose && m.LastModified != nil {
			fmt.Fprintf(sb, "  [+] %s (%s)\n", m.Location, formatTime(m.LastModified))
			continue
		}
		fmt.Fprintf(sb, "  [+] %s\n", m.Location)
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeFailures(sb *strings.Builder, s *model.Sitemap) {
	if !s.HasFailures() && !w.showEmpty {
		return
	}
	w.writeSection(sb, "FAILURES")

	if !s.HasFailures() {
		sb.WriteString("  No failures\n\n")
		return
	}
	for _, f := range s.Failures {
		fmt.Fprintf(sb, "  [!] %s\n", f.Location)
		if f.Err != nil {
			fmt.Fprintf(sb, "      %s\n", f.Err)
		}
	}
	sb.WriteString("\n")
}
