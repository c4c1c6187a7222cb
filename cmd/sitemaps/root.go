package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "github.com/nao1215/sitemaps/internal/log"
)

// errCrawlFailures is returned in --strict mode when any document failed.
var errCrawlFailures = errors.New("one or more sitemap documents could not be fetched")

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemaps",
		Short: "Crawl sitemaps.org sitemaps and list the pages they contain",
		Long: `sitemaps fetches sitemaps.org XML documents (plain or gzip-compressed),
follows sitemap index references and prints every page entry it finds,
with its last modification time, change frequency and priority.

Sitemap roots can be given directly or discovered from a host's robots.txt
and the well-known sitemap locations. Crawls can be stored in a local
history database and compared over time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewDiffCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getPersistentBool(cmd, "verbose")
}

// getPersistentBool reads a boolean root flag, whether or not the flags of
// cmd have been merged with its parents yet.
func getPersistentBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// setupLogger creates the redacting structured logger for cmd and installs it
// as the slog default.
func setupLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	verbose := getVerboseFlag(cmd)

	var logger *slog.Logger
	if getPersistentBool(cmd, "log-json") {
		logger = applog.NewJSONLogger(w, verbose)
	} else {
		logger = applog.NewLogger(w, verbose)
	}
	slog.SetDefault(logger)
	return logger
}
