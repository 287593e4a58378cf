package cache

import (
	"sync"
	"time"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// AircraftCache keeps every airframe the receiver has reported, keyed by ICAO address,
// so resolved departures survive between polls.
type AircraftCache struct {
	m        sync.Mutex
	aircraft map[string]*core.Aircraft
}

func NewAircraftCache() *AircraftCache {
	return &AircraftCache{
		aircraft: make(map[string]*core.Aircraft),
	}
}

func (c *AircraftCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.aircraft = make(map[string]*core.Aircraft)
}

// Lock and Unlock let a caller hold the cache across a read-modify-write of an entry.
func (c *AircraftCache) Lock() {
	c.m.Lock()
}

func (c *AircraftCache) Unlock() {
	c.m.Unlock()
}

// GetOrCreate returns the cached aircraft for icao, creating it from the given callsign
// when it has not been seen before. The caller must hold the lock.
func (c *AircraftCache) GetOrCreate(icao, callsign string) (a *core.Aircraft, created bool) {
	if a, ok := c.aircraft[icao]; ok {
		return a, false
	}
	a = &core.Aircraft{ICAO: icao, Callsign: callsign}
	c.aircraft[icao] = a
	return a, true
}

// Lookup returns the cached aircraft without creating it. The caller must hold the lock.
func (c *AircraftCache) Lookup(icao string) (*core.Aircraft, bool) {
	a, ok := c.aircraft[icao]
	return a, ok
}

// Get returns a copy of the cached aircraft.
func (c *AircraftCache) Get(icao string) (core.Aircraft, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if a, ok := c.aircraft[icao]; ok {
		return *a, true
	}
	return core.Aircraft{}, false
}

func (c *AircraftCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.aircraft)
}

// EvictOlderThan drops aircraft last seen before cutoff and returns how many were removed.
func (c *AircraftCache) EvictOlderThan(cutoff time.Time) int {
	c.m.Lock()
	defer c.m.Unlock()
	n := 0
	for icao, a := range c.aircraft {
		if a.LastSeen.Before(cutoff) {
			delete(c.aircraft, icao)
			n++
		}
	}
	return n
}
