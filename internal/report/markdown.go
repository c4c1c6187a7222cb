package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitemaps/internal/model"
)

// maxMarkdownEntries caps the entry table; larger crawls are summarized.
const maxMarkdownEntries = 500

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := result.sitemap()

	w.writeHeader(md, result, s)
	w.writeFrequencies(md, s)
	w.writeEntries(md, s)
	w.writeSubmaps(md, s)
	w.writeFailures(md, s)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitemaps](https://github.com/nao1215/sitemaps)*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *Result, s *model.Sitemap) {
	md.H1("Sitemap Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + result.Target + "`"},
	}
	for _, root := range result.Roots {
		rows = append(rows, []string{"Root", root})
	}
	if !result.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}
	if result.Duration > 0 {
		rows = append(rows, []string{"Duration", result.Duration.Round(time.Millisecond).String()})
	}
	if result.RunID != "" {
		rows = append(rows, []string{"Run ID", "`" + result.RunID + "`"})
	}
	rows = append(rows,
		[]string{"Documents Fetched", strconv.Itoa(len(s.Fetched))},
		[]string{"Entries", strconv.Itoa(len(s.Entries))},
		[]string{"Sitemaps", strconv.Itoa(len(s.Submaps))},
		[]string{"Failures", strconv.Itoa(len(s.Failures))},
		[]string{"Status", result.Status()},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case s.Cancelled:
		md.Cautionf("The crawl was cancelled. %d entries were collected before it stopped.", len(s.Entries))
	case s.HasFailures():
		md.Warningf("%d sitemap document(s) could not be fetched or parsed.", len(s.Failures))
	case s.Truncated:
		md.Importantf("The entry limit was reached with documents still pending; %d entries were kept.", len(s.Entries))
	case s.IsEmpty():
		md.Note("No entries or sitemaps were found.")
	default:
		md.Tip("All sitemap documents were fetched successfully.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFrequencies(md *markdown.Markdown, s *model.Sitemap) {
	summary := frequencySummary(s)
	if len(summary) == 0 {
		return
	}

	md.H2("Change Frequency")
	md.PlainText("")

	rows := make([][]string, len(summary))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entries by Change Frequency"),
		piechart.WithShowData(true),
	)
	for i, fc := range summary {
		rows[i] = []string{fc.Label, strconv.Itoa(fc.Count)}
		chart.LabelAndIntValue(fc.Label, uint64(fc.Count))
	}

	md.Table(markdown.TableSet{
		Header: []string{"Change Frequency", "Entries"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, s *model.Sitemap) {
	md.H2("Entries")
	md.PlainText("")

	if len(s.Entries) == 0 {
		md.PlainText("No entries found.")
		md.PlainText("")
		return
	}

	entries := s.Entries
	if len(entries) > maxMarkdownEntries {
		entries = entries[:maxMarkdownEntries]
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		freq := "-"
		if e.ChangeFrequency.IsSet() {
			freq = frequencyLabel(e.ChangeFrequency)
		}
		rows[i] = []string{
			escapeCell(e.Location.String()),
			formatTime(e.LastModified),
			freq,
			strconv.FormatFloat(e.Priority, 'f', 1, 64),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Location", "Last Modified", "Change Frequency", "Priority"},
		Rows:   rows,
	})
	md.PlainText("")

	if omitted := len(s.Entries) - len(entries); omitted > 0 {
		md.PlainTextf("*%d more entries omitted; use the urls or json format for the full list.*", omitted)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSubmaps(md *markdown.Markdown, s *model.Sitemap) {
	if len(s.Submaps) == 0 {
		return
	}

	md.H2("Sitemaps")
	md.PlainText("")

	items := make([]string, len(s.Submaps))
	for i, m := range s.Submaps {
		items[i] = m.Location.String()
		if m.LastModified != nil {
			items[i] += " (" + formatTime(m.LastModified) + ")"
		}
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *model.Sitemap) {
	if !s.HasFailures() {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(s.Failures))
	for i, f := range s.Failures {
		msg := "-"
		if f.Err != nil {
			msg = escapeCell(f.Err.Error())
		}
		loc := "-"
		if f.Location != nil {
			loc = escapeCell(f.Location.String())
		}
		rows[i] = []string{loc, msg}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Location", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// escapeCell keeps a value from breaking a Markdown table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
