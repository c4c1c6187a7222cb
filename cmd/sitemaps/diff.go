package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/database"
	"github.com/nao1215/sitemaps/internal/report"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <target>",
		Short: "Compare stored crawls of a target",
		Long: `Diff compares two stored crawls of a target and lists the entries that
were added, removed or changed (lastmod, changefreq or priority), and the
sitemap documents whose content changed.

By default the two most recent crawls are compared.

Examples:
  sitemaps diff example.com
  sitemaps diff --old <run-id> --new <run-id> example.com
  sitemaps diff -f markdown example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runDiffCmd,
	}

	cmd.Flags().String("old", "", "Run ID of the older crawl")
	cmd.Flags().String("new", "", "Run ID of the newer crawl")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: text, json or markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runDiffCmd(cmd *cobra.Command, args []string) error {
	oldID, err := cmd.Flags().GetString("old")
	if err != nil {
		return err
	}
	newID, err := cmd.Flags().GetString("new")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if !slices.Contains(config.Formats, format) {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidFormat)
	}
	if (oldID == "") != (newID == "") {
		return errors.New("--old and --new must be given together")
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database (run 'sitemaps crawl --save' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	var d *database.Diff
	if oldID != "" {
		d, err = db.DiffRuns(ctx, oldID, newID)
	} else {
		d, err = db.DiffLatest(ctx, args[0])
	}
	if err != nil {
		return err
	}

	return report.WriteDiff(cmd.OutOrStdout(), format, d)
}
