package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/sitemaps/internal/report"
)

func TestNew(t *testing.T) {
	t.Parallel()

	crawl := func(context.Context, string) (*report.Result, error) { return nil, nil }

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		p := New(crawl)
		if p.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, p.concurrency)
		}
		if p.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		if p := New(crawl, WithConcurrency(7)); p.concurrency != 7 {
			t.Errorf("expected concurrency 7, got %d", p.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if p := New(crawl, WithConcurrency(0)); p.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency, got %d", p.concurrency)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		if p := New(crawl, WithLogger(nil)); p.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

func TestProcess(t *testing.T) {
	t.Parallel()

	t.Run("returns outcomes in input order", func(t *testing.T) {
		t.Parallel()

		targets := []string{"slow.example", "fast.example", "medium.example"}
		delays := map[string]time.Duration{
			"slow.example":   30 * time.Millisecond,
			"fast.example":   0,
			"medium.example": 10 * time.Millisecond,
		}

		p := New(func(_ context.Context, target string) (*report.Result, error) {
			time.Sleep(delays[target])
			return &report.Result{Target: target}, nil
		}, WithConcurrency(3))

		outcomes, err := p.Process(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, o := range outcomes {
			if o.Target != targets[i] || o.Result == nil || o.Result.Target != targets[i] {
				t.Errorf("outcome %d = %+v, want target %s", i, o, targets[i])
			}
		}
	})

	t.Run("one failing target does not stop the others", func(t *testing.T) {
		t.Parallel()

		errBad := errors.New("bad target")
		p := New(func(_ context.Context, target string) (*report.Result, error) {
			if strings.HasPrefix(target, "bad") {
				return nil, errBad
			}
			return &report.Result{Target: target}, nil
		})

		outcomes, err := p.Process(context.Background(), []string{"a.example", "bad.example", "c.example"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(outcomes[1].Err, errBad) || outcomes[1].Result != nil {
			t.Errorf("outcome 1 = %+v", outcomes[1])
		}
		if outcomes[0].Result == nil || outcomes[2].Result == nil {
			t.Error("expected the other targets to succeed")
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		p := New(func(_ context.Context, target string) (*report.Result, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return &report.Result{Target: target}, nil
		}, WithConcurrency(2))

		targets := make([]string, 10)
		for i := range targets {
			targets[i] = "t" + string(rune('a'+i))
		}
		if _, err := p.Process(context.Background(), targets); err != nil {
			t.Fatal(err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
		}
	})

	t.Run("cancelled context marks unstarted targets", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int32
		p := New(func(_ context.Context, target string) (*report.Result, error) {
			calls.Add(1)
			return &report.Result{Target: target}, nil
		}, WithConcurrency(1))

		outcomes, err := p.Process(ctx, []string{"a.example", "b.example"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if calls.Load() != 0 {
			t.Errorf("expected no crawls, got %d", calls.Load())
		}
		for i, o := range outcomes {
			if !errors.Is(o.Err, context.Canceled) || o.Target == "" {
				t.Errorf("outcome %d = %+v", i, o)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		p := New(func(context.Context, string) (*report.Result, error) { return nil, nil })
		outcomes, err := p.Process(context.Background(), nil)
		if err != nil || len(outcomes) != 0 {
			t.Errorf("got %v, %v", outcomes, err)
		}
	})
}

func TestProcessWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]string)

	p := New(func(_ context.Context, target string) (*report.Result, error) {
		return &report.Result{Target: target}, nil
	})
	err := p.ProcessWithCallback(context.Background(), []string{"x.example", "y.example"}, func(o Outcome, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = o.Result.Target
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen[0] != "x.example" || seen[1] != "y.example" {
		t.Errorf("callback saw %v", seen)
	}
}
