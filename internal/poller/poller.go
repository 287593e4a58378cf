// Package poller drives snapshot fetches on a fixed interval and hands each successful
// snapshot to a reconciler.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skywatch-bcn/planeview/internal/api"
	"github.com/skywatch-bcn/planeview/internal/reconciler"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

// DefaultInterval is the fetch cadence when none is configured.
const DefaultInterval = time.Second

// Fetcher retrieves the current snapshot from the data source.
type Fetcher interface {
	FetchPlanes(ctx context.Context) (core.Snapshot, error)
}

// Applier reconciles a snapshot into local state.
type Applier interface {
	Apply(snapshot core.Snapshot) reconciler.Result
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a Poller.
type Option func(*config)

type config struct {
	interval    time.Duration
	skipOverlap bool
}

// Interval sets the tick cadence.
func Interval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// SkipOverlap drops a tick while the previous fetch is still in flight instead of
// letting both run.
func SkipOverlap() Option {
	return func(c *config) {
		c.skipOverlap = true
	}
}

// Poller fetches on every tick and applies the result. By default overlapping fetches
// run independently and are applied in completion order.
type Poller struct {
	fetcher Fetcher
	applier Applier
	logger  Logger
	cfg     config

	inflight atomic.Int64
	wg       sync.WaitGroup

	applied   metric.Int64Counter
	failed    metric.Int64Counter
	skipped   metric.Int64Counter
	inflightG metric.Int64ObservableGauge
}

// New creates a Poller. Uses the global OTel meter for metrics (no-op if not configured).
func New(fetcher Fetcher, applier Applier, logger Logger, opts ...Option) (*Poller, error) {
	p := &Poller{
		fetcher: fetcher,
		applier: applier,
		logger:  logger,
		cfg:     config{interval: DefaultInterval},
	}
	for _, opt := range opts {
		opt(&p.cfg)
	}

	m := meter()
	var err error

	p.applied, err = m.Int64Counter(
		"poller.cycles.applied",
		metric.WithDescription("Snapshots fetched and applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating applied counter: %w", err)
	}

	p.failed, err = m.Int64Counter(
		"poller.cycles.failed",
		metric.WithDescription("Cycles skipped because the fetch failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	p.skipped, err = m.Int64Counter(
		"poller.cycles.skipped",
		metric.WithDescription("Ticks dropped because a fetch was still in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	p.inflightG, err = m.Int64ObservableGauge(
		"poller.fetch.inflight",
		metric.WithDescription("Fetches currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating inflight gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(p.inflightG, p.inflight.Load())
			return nil
		},
		p.inflightG,
	)
	if err != nil {
		return nil, fmt.Errorf("registering inflight callback: %w", err)
	}

	return p, nil
}

// Interval returns the configured tick cadence.
func (p *Poller) Interval() time.Duration {
	return p.cfg.interval
}

// Run ticks until ctx is done, then waits for in-flight cycles to finish.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", p.cfg.interval, "skipOverlap", p.cfg.skipOverlap)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick starts one asynchronous cycle. It returns false when the tick was dropped
// under SkipOverlap.
func (p *Poller) Tick(ctx context.Context) bool {
	if p.cfg.skipOverlap && p.inflight.Load() > 0 {
		p.skipped.Add(context.Background(), 1)
		p.logger.Debug("tick dropped, fetch still in flight")
		return false
	}

	p.inflight.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Add(-1)
		_ = p.cycle(ctx)
	}()
	return true
}

// Cycle runs one fetch-and-apply synchronously.
func (p *Poller) Cycle(ctx context.Context) error {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)
	return p.cycle(ctx)
}

// Wait blocks until all cycles started by Tick have finished.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) cycle(ctx context.Context) error {
	start := time.Now()

	// An issued fetch runs to completion even if the poller is stopping.
	snapshot, err := p.fetcher.FetchPlanes(context.WithoutCancel(ctx))
	if err != nil {
		kind := api.Kind(err)
		p.failed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
		p.logger.Error("fetch failed, skipping cycle", "kind", kind, "error", err)
		return err
	}

	res := p.applier.Apply(snapshot)
	p.applied.Add(context.Background(), 1)
	p.logger.Debug("cycle applied",
		"entries", len(snapshot),
		"created", res.Created,
		"moved", res.Moved,
		"removed", res.Removed,
		"duration", time.Since(start),
	)
	return nil
}
