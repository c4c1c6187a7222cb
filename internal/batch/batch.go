package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitemaps/internal/report"
)

// DefaultConcurrency is the number of targets crawled at once when
// WithConcurrency is not given.
const DefaultConcurrency = 4

// CrawlFunc crawls one target. A non-nil error means the target could not be
// crawled at all (for example, an invalid URL); fetch failures inside the
// crawl are reported through the result instead.
type CrawlFunc func(ctx context.Context, target string) (*report.Result, error)

// Outcome is the result of crawling one target.
type Outcome struct {
	// Target is the input target.
	Target string

	// Result is the crawl report, nil when Err is set.
	Result *report.Result

	// Err is set when the target could not be crawled.
	Err error
}

// Processor runs crawls for many targets with bounded concurrency.
type Processor struct {
	crawl       CrawlFunc
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets a custom logger for batch processing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// New creates a Processor that uses crawl for every target.
func New(crawl CrawlFunc, opts ...Option) *Processor {
	p := &Processor{
		crawl:       crawl,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Process crawls every target and returns one Outcome per target, in input
// order. Targets not started before ctx is done get ctx.Err() as their error,
// and that error is also returned.
func (p *Processor) Process(ctx context.Context, targets []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(targets))
	done := make([]bool, len(targets))
	var mu sync.Mutex

	err := p.ProcessWithCallback(ctx, targets, func(o Outcome, index int) {
		mu.Lock()
		outcomes[index] = o
		done[index] = true
		mu.Unlock()
	})

	for i := range outcomes {
		if !done[i] {
			outcomes[i] = Outcome{Target: targets[i], Err: err}
		}
	}
	return outcomes, err
}

// ProcessWithCallback crawls every target and calls callback with each
// outcome as soon as its crawl ends, along with the target's index in targets.
// The callback is called from the goroutine that ran the crawl, so it must be
// safe for concurrent use.
func (p *Processor) ProcessWithCallback(ctx context.Context, targets []string, callback func(Outcome, int)) error {
	p.logger.Info("starting batch crawl",
		"total_targets", len(targets),
		"concurrency", p.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			p.logger.Info("crawling target", "target", target, "index", i+1, "total", len(targets))

			result, err := p.crawl(ctx, target)
			if err != nil {
				// One bad target must not stop the others.
				p.logger.Warn("crawl failed", "target", target, "error", err)
				result = nil
			}
			callback(Outcome{Target: target, Result: result, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info("batch crawl complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)
	return err
}
