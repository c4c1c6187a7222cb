package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/crawler"
	"github.com/nao1215/sitemaps/internal/discover"
	"github.com/nao1215/sitemaps/internal/fetcher"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <host>...",
		Short: "Show where the sitemaps of a host are",
		Long: `Discover reads the robots.txt of each host and prints the sitemaps it
declares. When robots.txt is missing or declares none, the well-known
locations are printed instead; they are guesses and may not exist.

Examples:
  sitemaps discover example.com
  sitemaps discover --json https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDiscoverCmd,
	}

	addTransportFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// discoveredRoots is the JSON form of one host's candidates.
type discoveredRoots struct {
	Host   string   `json:"host"`
	Source string   `json:"source"`
	Roots  []string `json:"roots"`
}

func runDiscoverCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := readTransportFlags(cmd, cfg); err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.Targets = args
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())
	ctx := cmd.Context()

	client, cleanup, err := newHTTPClient(ctx, cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	found := make([]discoveredRoots, 0, len(args))
	for _, target := range args {
		host, err := crawler.ParseRoot(target)
		if err != nil {
			return err
		}
		candidates, err := discover.Lookup(ctx, host, newDiscoverFetcher(client, cfg))
		if err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}

		source := "robots.txt"
		if !candidates.FromRobots {
			source = "fallback"
		}
		found = append(found, discoveredRoots{
			Host:   (&url.URL{Scheme: host.Scheme, Host: host.Host}).String(),
			Source: source,
			Roots:  locationStrings(candidates.Roots),
		})
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}
	for _, d := range found {
		fmt.Fprintf(out, "%s (%s)\n", d.Host, d.Source)
		for _, root := range d.Roots {
			fmt.Fprintf(out, "  %s\n", root)
		}
	}
	return nil
}

func newDiscoverFetcher(client *http.Client, cfg *config.Config) fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(
		fetcher.WithHTTPClient(client),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithMaxRedirects(cfg.MaxRedirects),
	)
}
