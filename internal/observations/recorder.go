// Package observations periodically records what the receiver sees.
package observations

import (
	"context"
	"fmt"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skywatch-bcn/planeview/internal/dump1090"
	"github.com/skywatch-bcn/planeview/internal/geo"
	"github.com/skywatch-bcn/planeview/internal/influx"
	"github.com/skywatch-bcn/planeview/internal/storage"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

const defaultInterval = 10 * time.Second

// ReportSource provides the receiver's current report.
type ReportSource interface {
	Fetch(ctx context.Context) (*dump1090.Report, error)
}

// PointWriter accepts time series points.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Logger is the logging interface used by the recorder.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type config struct {
	interval time.Duration
	figure   geo.Figure
	points   PointWriter
	receiver string
	now      func() time.Time
}

// Option configures a Recorder.
type Option func(*config)

// Interval sets the recording cadence. Non-positive values are ignored.
func Interval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPoints also writes airspace counts for receiver to w.
func WithPoints(w PointWriter, receiver string) Option {
	return func(c *config) {
		c.points = w
		c.receiver = receiver
	}
}

// WithFigure replaces the volume used for the inside count.
func WithFigure(f geo.Figure) Option {
	return func(c *config) { c.figure = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Recorder stores one observation per interval.
type Recorder struct {
	source  ReportSource
	backend storage.Backend
	logger  Logger
	cfg     config

	recorded metric.Int64Counter
	failed   metric.Int64Counter
}

// New creates a Recorder. Uses the global OTel meter for metrics (no-op if not configured).
func New(source ReportSource, backend storage.Backend, logger Logger, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		source:  source,
		backend: backend,
		logger:  logger,
		cfg: config{
			interval: defaultInterval,
			figure:   geo.Approach,
			receiver: "default",
			now:      time.Now,
		},
	}
	for _, opt := range opts {
		opt(&r.cfg)
	}

	m := meter()
	var err error

	r.recorded, err = m.Int64Counter(
		"observations.recorded",
		metric.WithDescription("Observations handed to storage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorded counter: %w", err)
	}

	r.failed, err = m.Int64Counter(
		"observations.failed",
		metric.WithDescription("Observations lost, by stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return r, nil
}

// Run records immediately and then on every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.interval)
	defer ticker.Stop()

	r.logger.Info("recorder started", "interval", r.cfg.interval)
	_ = r.Record(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("recorder stopped")
			return
		case <-ticker.C:
			_ = r.Record(ctx)
		}
	}
}

// Record fetches the receiver report and stores it. The timestamp is taken
// before the fetch. Failures are logged and returned.
func (r *Recorder) Record(ctx context.Context) error {
	at := r.cfg.now()

	report, err := r.source.Fetch(ctx)
	if err != nil {
		r.fail(ctx, "fetch")
		r.logger.Error("receiver fetch failed", "error", err)
		return err
	}

	obs, counts := r.observe(report, at)

	if err := r.backend.RecordObservation(obs); err != nil {
		r.fail(ctx, "store")
		r.logger.Error("storing observation failed", "error", err)
		return err
	}
	r.recorded.Add(ctx, 1)

	if r.cfg.points != nil {
		if err := r.cfg.points.WritePoint(influx.AirspacePoint(r.cfg.receiver, counts, at)); err != nil {
			r.fail(ctx, "points")
			r.logger.Error("writing airspace point failed", "error", err)
			return err
		}
	}

	r.logger.Debug("observation recorded", "aircraft", counts.Seen, "inside", counts.Inside)
	return nil
}

func (r *Recorder) observe(report *dump1090.Report, at time.Time) (*core.Observation, influx.AirspaceCounts) {
	obs := &core.Observation{
		Time:     at,
		Aircraft: make([]core.ObservedAircraft, 0, len(report.Aircraft)),
	}
	counts := influx.AirspaceCounts{Seen: len(report.Aircraft)}

	for _, entry := range report.Aircraft {
		obs.Aircraft = append(obs.Aircraft, entry.Observed())
		if entry.Lat != nil && entry.Lon != nil {
			counts.Located++
		}
		if pos, ok := entry.Position(); ok && r.cfg.figure.Contains(pos) {
			counts.Inside++
		}
	}
	return obs, counts
}

func (r *Recorder) fail(ctx context.Context, stage string) {
	r.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
