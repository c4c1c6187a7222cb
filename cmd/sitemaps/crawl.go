package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/batch"
	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/crawler"
	"github.com/nao1215/sitemaps/internal/database"
	"github.com/nao1215/sitemaps/internal/discover"
	"github.com/nao1215/sitemaps/internal/fetcher"
	"github.com/nao1215/sitemaps/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url|host]...",
		Short: "Crawl sitemaps and list their entries",
		Long: `Crawl fetches each sitemap document, follows sitemap index references and
prints every page entry found.

A target without a scheme gets "http://" prepended. With --discover each
target is treated as a host: the sitemaps declared in its robots.txt are
crawled, or the well-known locations (/sitemap_index.xml.gz,
/sitemap_index.xml, /sitemap.xml.gz, /sitemap.xml) when none are declared.

Documents that cannot be fetched are reported and skipped; the crawl goes
on with the rest. Use --strict to exit non-zero when that happens.

Examples:
  # Crawl a sitemap index and everything it references
  sitemaps crawl https://example.com/sitemap_index.xml

  # Find the sitemaps of a host and crawl them
  sitemaps crawl --discover example.com

  # Stop after 1000 entries and print only the URLs
  sitemaps crawl -n 1000 -f urls https://example.com/sitemap.xml

  # Only blog posts, written as Markdown to a file
  sitemaps crawl -I "/blog/*" -f markdown -o blog.md https://example.com/sitemap.xml

  # Crawl several hosts, four at a time, and store the results
  sitemaps crawl --discover --save -b 4 example.com example.org example.net

Configuration file (.sitemaps.yaml) example:
  sites:
    example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"
      maxEntries: 5000`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().BoolP("discover", "d", false,
		"Treat targets as hosts and discover their sitemaps")
	cmd.Flags().IntP("max-entries", "n", config.DefaultMaxEntries,
		"Stop after this many entries per target (0 = unlimited)")
	cmd.Flags().Bool("no-recurse", false,
		"Do not follow sitemap index references")
	cmd.Flags().StringSliceP("include", "I", nil,
		"Keep only entries whose URL path matches one of these glob patterns")
	cmd.Flags().StringSliceP("exclude", "X", nil,
		"Drop entries whose URL path matches one of these glob patterns")
	cmd.Flags().Bool("filter-indexes", false,
		"Apply --include and --exclude to sitemap index references too")
	cmd.Flags().Bool("respect-robots", false,
		"Skip sitemap documents that robots.txt disallows")

	addTransportFlags(cmd)
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum delay between requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size of one document in bytes (0 = unlimited)")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects,
		"Maximum number of redirects followed per document")

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of targets crawled concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemaps.yaml or $XDG_CONFIG_HOME/sitemaps/config.yaml)")

	addOutputFlags(cmd)
	cmd.Flags().Bool("save", false,
		"Store the crawl in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().Bool("strict", false,
		"Exit with an error when any sitemap document failed")

	return cmd
}

// addOutputFlags registers the report format and destination flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: text, json, markdown or urls")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildCrawlConfig creates a Config from the crawl command's flags and the
// configuration file.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	if cfg.Discover, err = flags.GetBool("discover"); err != nil {
		return nil, err
	}
	if cfg.MaxEntries, err = flags.GetInt("max-entries"); err != nil {
		return nil, err
	}
	noRecurse, err := flags.GetBool("no-recurse")
	if err != nil {
		return nil, err
	}
	cfg.Recurse = !noRecurse
	if cfg.Include, err = flags.GetStringSlice("include"); err != nil {
		return nil, err
	}
	if cfg.Exclude, err = flags.GetStringSlice("exclude"); err != nil {
		return nil, err
	}
	if cfg.FilterIndexes, err = flags.GetBool("filter-indexes"); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = flags.GetBool("respect-robots"); err != nil {
		return nil, err
	}
	if err := readTransportFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.MaxRedirects, err = flags.GetInt("max-redirects"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.Strict, err = flags.GetBool("strict"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicit path must exist;
// otherwise a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return cf, nil
	case explicitPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	default:
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
}

// runCrawl crawls every target of cfg and writes one report per target.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"discover", cfg.Discover,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	client, cleanup, err := newHTTPClient(ctx, cfg, stderr, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg.OutputFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, err := report.New(cfg.Format, output, report.Options{
		Verbose: cfg.Verbose,
		Version: getVersion(),
		Lines:   len(cfg.Targets) > 1,
	})
	if err != nil {
		return err
	}

	c := &crawlRunner{cfg: cfg, client: client, db: db, logger: logger}

	var outcomes []batch.Outcome
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		bp := batch.New(c.crawl, batch.WithConcurrency(cfg.BatchSize), batch.WithLogger(logger))
		// Targets left unstarted by an interrupt carry the context error.
		outcomes, _ = bp.Process(ctx, cfg.Targets)
	} else {
		for _, target := range cfg.Targets {
			if ctx.Err() != nil {
				break
			}
			result, err := c.crawl(ctx, target)
			outcomes = append(outcomes, batch.Outcome{Target: target, Result: result, Err: err})
		}
	}

	var (
		errs     []error
		failures bool
	)
	for i, o := range outcomes {
		if o.Err != nil {
			if ctx.Err() != nil && errors.Is(o.Err, ctx.Err()) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", o.Target, o.Err))
			continue
		}
		fmt.Fprintf(stderr, "[%d/%d] %s: %d entries, %d failed documents\n",
			i+1, len(cfg.Targets), o.Target, len(o.Result.Sitemap.Entries), len(o.Result.Sitemap.Failures))
		if o.Result.Sitemap.HasFailures() {
			failures = true
		}
		if _, err := writer.Write(o.Result); err != nil {
			errs = append(errs, fmt.Errorf("failed to write report for %s: %w", o.Target, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if cfg.Strict && failures {
		return errCrawlFailures
	}
	return nil
}

// crawlRunner crawls one target with the per-host settings of cfg.
type crawlRunner struct {
	cfg    *config.Config
	client *http.Client
	db     *database.HistoryDB
	logger *slog.Logger
}

// crawl implements batch.CrawlFunc.
func (c *crawlRunner) crawl(ctx context.Context, target string) (*report.Result, error) {
	root, err := crawler.ParseRoot(target)
	if err != nil {
		return nil, err
	}

	site := c.cfg.Site(root.Host)
	logger := c.logger.With("target", target)

	mux := fetcher.NewMux(c.newHTTPFetcher(site, logger))
	if strings.EqualFold(root.Scheme, "file") {
		mux = mux.WithFiles(c.cfg.MaxBodySize)
	}
	var fetch fetcher.Fetcher = mux
	if c.cfg.RespectRobots {
		fetch = discover.NewRobotsGate(fetch, site.UserAgent, discover.WithGateLogger(logger))
	}
	var recorder *database.DigestRecorder
	if c.db != nil {
		recorder = database.NewDigestRecorder(fetch)
		fetch = recorder
	}

	opts := []crawler.Option{
		crawler.WithMaxEntries(site.MaxEntries),
		crawler.WithRecurse(c.cfg.Recurse),
		crawler.WithLogger(logger),
	}
	filter := crawler.PathFilter{Include: site.Include, Exclude: site.Exclude}
	if !filter.IsZero() {
		opts = append(opts, crawler.WithEntryFilter(filter.Entries()))
		if c.cfg.FilterIndexes {
			opts = append(opts, crawler.WithSubmapFilter(filter.Submaps()))
		}
	}

	started := time.Now()
	result := &report.Result{Target: target, StartedAt: started}

	if c.cfg.Discover {
		candidates, err := discover.Lookup(ctx, root, fetch)
		if err != nil {
			return nil, err
		}
		result.Roots = locationStrings(candidates.Roots)
		if result.Sitemap, err = candidates.Crawl(ctx, fetch, opts...); err != nil {
			return nil, err
		}
	} else {
		result.Roots = []string{root.String()}
		if result.Sitemap, err = crawler.New(fetch, opts...).Crawl(ctx, root); err != nil {
			return nil, err
		}
	}
	result.Duration = time.Since(started)

	if c.db != nil {
		// A cancelled crawl is still worth keeping.
		run, err := c.db.SaveRun(context.WithoutCancel(ctx), target, started, result.Sitemap, recorder.Digests(result.Sitemap.Fetched))
		if err != nil {
			logger.Error("failed to save crawl", "error", err)
		} else {
			result.RunID = run.ID
			logger.Info("crawl saved to database", "run", run.ID)
		}
	}
	return result, nil
}

// newHTTPFetcher builds the HTTP fetcher for one host.
func (c *crawlRunner) newHTTPFetcher(site config.SiteConfig, logger *slog.Logger) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(
		fetcher.WithHTTPClient(c.client),
		fetcher.WithUserAgent(site.UserAgent),
		fetcher.WithHeaders(site.Headers),
		fetcher.WithCookie(site.Cookie),
		fetcher.WithMaxBodySize(c.cfg.MaxBodySize),
		fetcher.WithMaxRedirects(c.cfg.MaxRedirects),
		fetcher.WithDelay(c.cfg.Delay),
		fetcher.WithLogger(logger),
	)
}

func locationStrings(locs []*url.URL) []string {
	out := make([]string, len(locs))
	for i, u := range locs {
		out[i] = u.String()
	}
	return out
}

// openOutput returns the report destination: path when set, stdout otherwise.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
