package routes

import (
	"context"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// DepartureFinder looks up a departure from the route service.
type DepartureFinder interface {
	Departure(ctx context.Context, callsign string, lat, lng float64) (string, error)
}

// Logger is the logging interface used by the resolver.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Resolver fills in the departure of tracked aircraft, consulting the cache
// before the route service.
type Resolver struct {
	finder       DepartureFinder
	cache        Cache
	maxAttempts  int
	unknownLabel string
	logger       Logger
}

// NewResolver creates a Resolver. After more than maxAttempts failed lookups
// for the same aircraft its departure is set to unknownLabel and no further
// lookups are made.
func NewResolver(finder DepartureFinder, cache Cache, maxAttempts int, unknownLabel string, logger Logger) *Resolver {
	return &Resolver{
		finder:       finder,
		cache:        cache,
		maxAttempts:  maxAttempts,
		unknownLabel: unknownLabel,
		logger:       logger,
	}
}

// Resolve sets a.Departure if it is not known yet. The caller must hold
// exclusive access to a.
func (r *Resolver) Resolve(ctx context.Context, a *core.Aircraft) {
	if a.HasDeparture() {
		return
	}

	if a.Callsign != "" && r.cache != nil {
		dep, ok, err := r.cache.Get(ctx, a.Callsign)
		if err != nil {
			r.logger.Error("departure cache read failed", "callsign", a.Callsign, "error", err)
		} else if ok {
			a.Departure = dep
			return
		}
	}

	dep, err := r.finder.Departure(ctx, a.Callsign, a.Position.Lat, a.Position.Lon)
	if err != nil {
		a.RouteFailures++
		r.logger.Error("departure lookup failed",
			"icao", a.ICAO, "callsign", a.Callsign, "attempt", a.RouteFailures, "error", err)
		if a.RouteFailures > r.maxAttempts {
			r.logger.Info("departure lookup attempts exhausted", "icao", a.ICAO, "callsign", a.Callsign)
			a.Departure = r.unknownLabel
		}
		return
	}

	a.Departure = dep
	r.logger.Debug("departure resolved", "icao", a.ICAO, "callsign", a.Callsign, "departure", dep)

	if a.Callsign != "" && r.cache != nil {
		if err := r.cache.Set(ctx, a.Callsign, dep); err != nil {
			r.logger.Error("departure cache write failed", "callsign", a.Callsign, "error", err)
		}
	}
}
