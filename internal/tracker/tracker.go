// Package tracker turns receiver reports into plane snapshots for viewers.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/skywatch-bcn/planeview/internal/cache"
	"github.com/skywatch-bcn/planeview/internal/dump1090"
	"github.com/skywatch-bcn/planeview/internal/geo"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

// ReportSource provides the receiver's current report.
type ReportSource interface {
	Fetch(ctx context.Context) (*dump1090.Report, error)
}

// DepartureResolver fills in an aircraft's departure when it is unknown.
type DepartureResolver interface {
	Resolve(ctx context.Context, a *core.Aircraft)
}

// Logger is the logging interface used by the tracker.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Plane is one entry of the planes response. Removed entries carry only the id
// and the removed percentage.
type Plane struct {
	core.PlaneSnapshot
	Callsign string   `json:"callsign,omitempty"`
	ICAO     string   `json:"icao,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Alt      *float64 `json:"alt,omitempty"`
}

type config struct {
	figure           geo.Figure
	firstOnly        bool
	staleAfter       time.Duration
	removalRetention time.Duration
	now              func() time.Time
}

// DefaultRemovalRetention is how long a departed plane keeps its removal entry.
const DefaultRemovalRetention = time.Minute

// Option configures a Tracker.
type Option func(*config)

// FirstOnly limits the response to the first aircraft found inside the figure.
func FirstOnly(v bool) Option {
	return func(c *config) { c.firstOnly = v }
}

// StaleAfter evicts cached aircraft the receiver has not reported for d.
// Zero keeps them forever.
func StaleAfter(d time.Duration) Option {
	return func(c *config) { c.staleAfter = d }
}

// RemovalRetention keeps reporting a plane that stopped being returned as removed
// for d, so viewers that missed a response still drop its marker.
// Zero reports each removal in one response only.
func RemovalRetention(d time.Duration) Option {
	return func(c *config) { c.removalRetention = d }
}

// WithFigure replaces the watched volume.
func WithFigure(f geo.Figure) Option {
	return func(c *config) { c.figure = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Tracker keeps every aircraft the receiver reports and answers which of them
// are inside the watched figure and how far along it they are.
type Tracker struct {
	source   ReportSource
	resolver DepartureResolver
	logger   Logger
	cfg      config

	aircraft *cache.AircraftCache

	// Guarded by the aircraft cache lock.
	emitted   map[string]struct{}  // ids returned as active by the previous call
	departed  map[string]time.Time // ids no longer returned, and since when
	resolving map[string]struct{}  // departure lookups in flight

	requests metric.Int64Counter
	inside   metric.Int64Gauge
	cached   metric.Int64Gauge
}

// New creates a Tracker. Uses the global OTel meter for metrics (no-op if not configured).
func New(source ReportSource, resolver DepartureResolver, logger Logger, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		source:   source,
		resolver: resolver,
		logger:   logger,
		cfg: config{
			figure:           geo.Approach,
			firstOnly:        true,
			removalRetention: DefaultRemovalRetention,
			now:              time.Now,
		},
		aircraft:  cache.NewAircraftCache(),
		emitted:   make(map[string]struct{}),
		departed:  make(map[string]time.Time),
		resolving: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(&t.cfg)
	}

	m := meter()
	var err error

	t.requests, err = m.Int64Counter(
		"tracker.requests",
		metric.WithDescription("Planes requests answered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}

	t.inside, err = m.Int64Gauge(
		"tracker.aircraft.inside",
		metric.WithDescription("Aircraft inside the watched figure at the last request"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating inside gauge: %w", err)
	}

	t.cached, err = m.Int64Gauge(
		"tracker.aircraft.cached",
		metric.WithDescription("Aircraft held in the tracker cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cached gauge: %w", err)
	}

	return t, nil
}

// sighting is an aircraft found inside the figure during one request.
type sighting struct {
	aircraft core.Aircraft
	pct      int
	resolve  bool
}

// Planes fetches the receiver report and returns removal entries for planes that
// recently stopped being returned, followed by the aircraft inside the figure.
// A failed fetch yields an empty list and leaves tracking state untouched.
func (t *Tracker) Planes(ctx context.Context) []Plane {
	t.requests.Add(ctx, 1)

	report, err := t.source.Fetch(ctx)
	if err != nil {
		t.logger.Error("receiver fetch failed", "error", err)
		return []Plane{}
	}

	now := t.cfg.now()
	sightings := t.update(report, now)

	// Route lookups block, so they run without the cache lock.
	for i := range sightings {
		if sightings[i].resolve {
			t.resolver.Resolve(ctx, &sightings[i].aircraft)
		}
	}

	out := t.emit(sightings, now)

	if t.cfg.staleAfter > 0 {
		if n := t.aircraft.EvictOlderThan(now.Add(-t.cfg.staleAfter)); n > 0 {
			t.logger.Debug("evicted stale aircraft", "count", n)
		}
	}

	t.inside.Record(ctx, int64(len(sightings)))
	t.cached.Record(ctx, int64(t.aircraft.Len()))
	return out
}

// update records the report in the cache and returns copies of the aircraft inside
// the figure. Aircraft without a departure and no lookup in flight are claimed for one.
func (t *Tracker) update(report *dump1090.Report, now time.Time) []sighting {
	t.aircraft.Lock()
	defer t.aircraft.Unlock()

	var sightings []sighting
	for _, entry := range report.Aircraft {
		pos, ok := entry.Position()
		if !ok {
			continue
		}
		icao := entry.ICAO()
		if icao == "" {
			continue
		}

		a, _ := t.aircraft.GetOrCreate(icao, entry.Callsign())
		if a.Callsign == "" {
			a.Callsign = entry.Callsign()
		}
		a.Position = pos
		a.LastSeen = now

		if !t.cfg.figure.Contains(pos) {
			continue
		}

		s := sighting{aircraft: *a, pct: t.cfg.figure.RelativeDistance(pos)}
		if _, busy := t.resolving[icao]; !busy && !a.HasDeparture() {
			t.resolving[icao] = struct{}{}
			s.resolve = true
		}
		sightings = append(sightings, s)
	}
	return sightings
}

// emit stores lookup results back into the cache and builds the response.
func (t *Tracker) emit(sightings []sighting, now time.Time) []Plane {
	t.aircraft.Lock()
	defer t.aircraft.Unlock()

	active := []Plane{}
	current := make(map[string]struct{})

	for i := range sightings {
		s := &sightings[i]
		if s.resolve {
			delete(t.resolving, s.aircraft.ICAO)
			if a, ok := t.aircraft.Lookup(s.aircraft.ICAO); ok {
				if !a.HasDeparture() {
					a.Departure = s.aircraft.Departure
				}
				if s.aircraft.RouteFailures > a.RouteFailures {
					a.RouteFailures = s.aircraft.RouteFailures
				}
			}
		}
		if a, ok := t.aircraft.Lookup(s.aircraft.ICAO); ok {
			s.aircraft.Departure = a.Departure
		}

		if t.cfg.firstOnly && len(active) > 0 {
			continue
		}
		active = append(active, activePlane(&s.aircraft, s.pct))
		current[s.aircraft.ICAO] = struct{}{}
	}

	var gone []string
	for id, since := range t.departed {
		if _, back := current[id]; back || now.Sub(since) >= t.cfg.removalRetention {
			delete(t.departed, id)
			continue
		}
		gone = append(gone, id)
	}
	for id := range t.emitted {
		if _, ok := current[id]; !ok {
			t.departed[id] = now
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	t.emitted = current

	out := make([]Plane, 0, len(gone)+len(active))
	for _, id := range gone {
		out = append(out, Plane{PlaneSnapshot: core.PlaneSnapshot{ID: id, Percentage: core.RemovedPercentage}})
	}
	return append(out, active...)
}

func activePlane(a *core.Aircraft, pct int) Plane {
	lat, lon, alt := a.Position.Lat, a.Position.Lon, a.Position.Alt
	return Plane{
		PlaneSnapshot: core.PlaneSnapshot{
			ID:         a.ICAO,
			Percentage: float64(pct),
			Departure:  a.Departure,
		},
		Callsign: a.Callsign,
		ICAO:     a.ICAO,
		Lat:      &lat,
		Lon:      &lon,
		Alt:      &alt,
	}
}

// Aircraft returns a copy of the cached state of one airframe.
func (t *Tracker) Aircraft(icao string) (core.Aircraft, bool) {
	return t.aircraft.Get(icao)
}
