package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemaps/internal/config"
	"github.com/nao1215/sitemaps/internal/proxy"
)

// addTransportFlags registers the flags that shape outgoing requests.
func addTransportFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route requests through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
}

// readTransportFlags copies the transport flags into cfg.
func readTransportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return err
	}
	if cfg.UseTor, err = cmd.Flags().GetBool("tor"); err != nil {
		return err
	}
	if cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout"); err != nil {
		return err
	}
	return nil
}

// newHTTPClient returns the client all fetches go through: direct, via a
// SOCKS5 proxy, or via an embedded Tor daemon. The returned cleanup function
// must be called once the client is no longer needed.
func newHTTPClient(ctx context.Context, cfg *config.Config, progress io.Writer, logger *slog.Logger) (*http.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.ProxyAddress != "":
		client, err := proxy.NewClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid proxy address: %w", err)
		}
		if status := client.Check(ctx); status != proxy.StatusOK {
			return nil, noop, fmt.Errorf("proxy check failed for %s: %w", client.Address(), status.Err())
		}
		logger.Info("SOCKS5 proxy connection verified", "address", client.Address())
		return client.HTTPClient(), noop, nil

	case cfg.UseTor:
		return startEmbeddedTor(ctx, cfg, progress, logger)

	default:
		return &http.Client{Timeout: cfg.Timeout}, noop, nil
	}
}

// startEmbeddedTor starts a Tor daemon and returns a client using its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, progress io.Writer, logger *slog.Logger) (*http.Client, func(), error) {
	fmt.Fprintln(progress, "Starting embedded Tor daemon...")
	fmt.Fprintf(progress, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	tor := proxy.NewEmbeddedTor(
		proxy.WithStartupTimeout(cfg.TorStartupTimeout),
		proxy.WithTorLogger(logger),
	)
	if err := tor.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	stop := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := tor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	client, err := tor.Client(cfg.Timeout)
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if status := client.Check(checkCtx); status != proxy.StatusOK {
		stop()
		return nil, func() {}, fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
	}

	fmt.Fprintf(progress, "Embedded Tor daemon started, SOCKS proxy at %s\n\n", tor.SocksAddr())
	return client.HTTPClient(), stop, nil
}
