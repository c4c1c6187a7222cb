package main

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/nao1215/sitemaps/internal/model"
	"github.com/nao1215/sitemaps/internal/parser"
	"github.com/nao1215/sitemaps/internal/report"
)

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse local sitemap files",
		Long: `Parse reads sitemap documents from disk and prints what they contain.
Files ending in ".gz" are decompressed. Use "-" to read from standard input.

Referenced sitemaps are listed but not fetched.

Examples:
  sitemaps parse sitemap.xml
  sitemaps parse -f urls sitemap.xml.gz
  curl -s https://example.com/sitemap.xml | sitemaps parse -`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParseCmd,
	}

	addOutputFlags(cmd)
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size of one document in bytes (0 = unlimited)")

	return cmd
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if !slices.Contains(config.Formats, format) {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidFormat)
	}
	outputFile, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	maxBodySize, err := cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return err
	}
	if maxBodySize < 0 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidMaxBodySize)
	}
	setupLogger(cmd, cmd.ErrOrStderr())

	output, closeOutput, err := openOutput(outputFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, err := report.New(format, output, report.Options{Verbose: getVerboseFlag(cmd), Version: getVersion()})
	if err != nil {
		return err
	}

	files := fetcher.FileFetcher{MaxBodySize: maxBodySize}
	for _, name := range args {
		s, err := parseFile(cmd, files, name)
		if err != nil {
			return err
		}
		if _, err := writer.Write(&report.Result{Target: name, Sitemap: s}); err != nil {
			return err
		}
	}
	return nil
}

// parseFile parses one file, or standard input for "-".
func parseFile(cmd *cobra.Command, files fetcher.FileFetcher, name string) (*model.Sitemap, error) {
	if name == "-" {
		var r io.Reader = cmd.InOrStdin()
		if files.MaxBodySize > 0 {
			r = io.LimitReader(r, files.MaxBodySize)
		}
		return parser.ParseReader(r), nil
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", name, err)
	}
	data, err := files.Fetch(cmd.Context(), &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		return nil, err
	}
	return parser.Parse(data), nil
}
