// Package report renders crawl results.
//
// Writers exist for several output formats:
//   - TextWriter: human-readable output for terminal display
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: Markdown for documentation and sharing
//   - URLWriter: one entry location per line, for piping into other tools
//
// Writers implement the Writer interface; New selects one by format name.
package report
