package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/sitemaps/internal/database"
)

// WriteDiff renders the comparison of two stored runs in format.
// The urls format is treated as text.
func WriteDiff(output io.Writer, format string, d *database.Diff) error {
	switch format {
	case FormatJSON:
		_, err := NewJSONWriter(output, WithPrettyPrint()).writeJSON(newJSONDiff(d))
		return err
	case FormatMarkdown:
		return writeMarkdownDiff(output, d)
	case FormatText, FormatURLs, "":
		return writeTextDiff(output, d)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type jsonDiff struct {
	Target           string   `json:"target"`
	OldRun           string   `json:"old_run"`
	NewRun           string   `json:"new_run"`
	Added            []string `json:"added"`
	Removed          []string `json:"removed"`
	Modified         []string `json:"modified"`
	ChangedDocuments []string `json:"changed_documents"`
}

func newJSONDiff(d *database.Diff) jsonDiff {
	orEmpty := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return jsonDiff{
		Target:           d.New.Target,
		OldRun:           d.Old.ID,
		NewRun:           d.New.ID,
		Added:            orEmpty(d.Added),
		Removed:          orEmpty(d.Removed),
		Modified:         orEmpty(d.Modified),
		ChangedDocuments: orEmpty(d.ChangedDocuments),
	}
}

func writeTextDiff(output io.Writer, d *database.Diff) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Comparing runs of %s\n", d.New.Target)
	fmt.Fprintf(&sb, "  old: %s  %s  (%d entries)\n", d.Old.ID, d.Old.StartedAt.Format("2006-01-02 15:04:05"), d.Old.Entries)
	fmt.Fprintf(&sb, "  new: %s  %s  (%d entries)\n\n", d.New.ID, d.New.StartedAt.Format("2006-01-02 15:04:05"), d.New.Entries)

	if d.IsEmpty() {
		sb.WriteString("No changes.\n")
		_, err := io.WriteString(output, sb.String())
		return err
	}

	sections := []struct {
		title  string
		marker string
		items  []string
	}{
		{"Added", "+", d.Added},
		{"Removed", "-", d.Removed},
		{"Modified", "~", d.Modified},
		{"Changed documents", "*", d.ChangedDocuments},
	}
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s (%d):\n", sec.title, len(sec.items))
		for _, item := range sec.items {
			fmt.Fprintf(&sb, "  %s %s\n", sec.marker, item)
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(output, sb.String())
	return err
}

func writeMarkdownDiff(output io.Writer, d *database.Diff) error {
	md := markdown.NewMarkdown(output)

	md.H1("Sitemap Changes: " + d.New.Target)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Started", "Entries"},
		Rows: [][]string{
			{"Old", "`" + d.Old.ID + "`", d.Old.StartedAt.Format("2006-01-02 15:04:05 MST"), strconv.Itoa(d.Old.Entries)},
			{"New", "`" + d.New.ID + "`", d.New.StartedAt.Format("2006-01-02 15:04:05 MST"), strconv.Itoa(d.New.Entries)},
		},
	})
	md.PlainText("")

	if d.IsEmpty() {
		md.Tip("No changes between the two runs.")
		return md.Build()
	}

	sections := []struct {
		title string
		items []string
	}{
		{"Added", d.Added},
		{"Removed", d.Removed},
		{"Modified", d.Modified},
		{"Changed Documents", d.ChangedDocuments},
	}
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		md.H2(fmt.Sprintf("%s (%d)", sec.title, len(sec.items)))
		md.PlainText("")
		md.BulletList(sec.items...)
		md.PlainText("")
	}
	return md.Build()
}
