package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/sitemaps/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in every report when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the program version in the report.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Without WithIndent each report is written on a single line.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the wire form of a Result.
type JSONReport struct {
	Version    string         `json:"version,omitempty"`
	Target     string         `json:"target"`
	Roots      []string       `json:"roots,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Status     string         `json:"status"`
	Fetched    []string       `json:"fetched"`
	Result     *model.Sitemap `json:"result"`
}

// NewJSONReport converts result into its wire form.
func NewJSONReport(result *Result, version string) *JSONReport {
	s := result.sitemap()
	fetched := make([]string, len(s.Fetched))
	for i, u := range s.Fetched {
		fetched[i] = u.String()
	}

	report := &JSONReport{
		Version:    version,
		Target:     result.Target,
		Roots:      result.Roots,
		RunID:      result.RunID,
		DurationMS: result.Duration.Milliseconds(),
		Status:     result.Status(),
		Fetched:    fetched,
		Result:     s,
	}
	if !result.StartedAt.IsZero() {
		started := result.StartedAt
		report.StartedAt = &started
	}
	return report
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(result *Result) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version))
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
