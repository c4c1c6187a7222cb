package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "List stored crawls",
		Long: `History lists the crawls stored with "sitemaps crawl --save".

Without a target it lists every target that has stored crawls. With a
target it lists that target's crawls, newest first.

Examples:
  sitemaps history
  sitemaps history example.com
  sitemaps history --delete 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("delete", "", "Delete the stored crawl with this run ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetString("delete")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database (run 'sitemaps crawl --save' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case deleteID != "":
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", deleteID)
		return nil
	case len(args) == 1:
		return listRuns(ctx, out, db, args[0])
	default:
		return listTargets(ctx, out, db)
	}
}

func listTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "No stored crawls.")
		return nil
	}

	fmt.Fprintf(out, "Stored targets (%d):\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  %s\n", target)
	}
	return nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, target string) error {
	runs, err := db.ListRuns(ctx, target)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return errors.New("no stored crawls for " + target)
	}

	fmt.Fprintf(out, "Crawls of %s (%d):\n\n", target, len(runs))
	fmt.Fprintf(out, "%-36s  %-19s  %8s  %8s  %8s  %s\n", "RUN ID", "STARTED", "ENTRIES", "SITEMAPS", "FAILURES", "STATUS")
	for _, run := range runs {
		status := "complete"
		switch {
		case run.Cancelled:
			status = "cancelled"
		case run.Truncated:
			status = "truncated"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %8d  %8d  %8d  %s\n",
			run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Entries, run.Submaps, run.Failures, status)
	}
	return nil
}
