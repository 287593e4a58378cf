// pkg/core/aircraft.go
package core

import "time"

// Position3D is a longitude/latitude/barometric altitude triple.
type Position3D struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// Aircraft is the tracker's view of one airframe seen by the receiver.
type Aircraft struct {
	ICAO      string
	Callsign  string
	Position  Position3D
	Departure string // empty until resolved

	// RouteFailures counts failed departure lookups for this airframe.
	RouteFailures int
	LastSeen      time.Time
}

// HasDeparture reports whether the departure has been resolved.
func (a *Aircraft) HasDeparture() bool {
	return a.Departure != ""
}

// Observation is one poll of the receiver recorded for later analysis.
type Observation struct {
	Time     time.Time
	Aircraft []ObservedAircraft
}

// ObservedAircraft is a single aircraft position inside an Observation.
// Fields are pointers because the receiver omits them until a fix is available.
type ObservedAircraft struct {
	ICAO string
	Lat  *float64
	Lon  *float64
	Alt  *float64

	// OnGround is set when the receiver reported the altitude as "ground".
	OnGround bool
}
