// pkg/core/plane.go
package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RemovedPercentage is the wire value that marks a plane as no longer tracked.
const RemovedPercentage = -1

// ErrDecode is returned when a snapshot payload does not have the expected shape.
var ErrDecode = errors.New("decode failure")

// PlaneSnapshot is the wire record for one plane in one poll.
type PlaneSnapshot struct {
	ID         string  `json:"id"`
	Percentage float64 `json:"percentage"`
	Departure  string  `json:"departure,omitempty"`
}

// PlaneUpdate is either Active or Removed.
type PlaneUpdate interface {
	PlaneID() string
	isPlaneUpdate()
}

// Active reports a tracked plane at a position along the route.
type Active struct {
	ID         string
	Percentage float64 // 0 = origin, 100 = destination
	Departure  string
}

// Removed reports that a plane has left tracking.
type Removed struct {
	ID string
}

func (a Active) PlaneID() string  { return a.ID }
func (r Removed) PlaneID() string { return r.ID }

func (Active) isPlaneUpdate()  {}
func (Removed) isPlaneUpdate() {}

// Snapshot is one poll's ordered list of plane updates.
type Snapshot []PlaneUpdate

// wirePlane uses pointers so missing fields can be told apart from zero values.
type wirePlane struct {
	ID         *string  `json:"id"`
	Percentage *float64 `json:"percentage"`
	Departure  *string  `json:"departure"`
}

// DecodeSnapshot parses a JSON array of plane records. Any malformed entry fails the
// whole snapshot; no partial result is returned.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw []wirePlane
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	snapshot := make(Snapshot, 0, len(raw))
	for i, p := range raw {
		update, err := p.toUpdate()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrDecode, i, err)
		}
		snapshot = append(snapshot, update)
	}
	return snapshot, nil
}

func (p wirePlane) toUpdate() (PlaneUpdate, error) {
	if p.ID == nil || *p.ID == "" {
		return nil, errors.New("missing id")
	}
	if p.Percentage == nil {
		return nil, fmt.Errorf("plane %q: missing percentage", *p.ID)
	}

	pct := *p.Percentage
	if pct == RemovedPercentage {
		return Removed{ID: *p.ID}, nil
	}
	if pct < 0 || pct > 100 {
		return nil, fmt.Errorf("plane %q: percentage %v out of range", *p.ID, pct)
	}

	var departure string
	if p.Departure != nil {
		departure = *p.Departure
	}
	return Active{ID: *p.ID, Percentage: pct, Departure: departure}, nil
}

// Encode converts the snapshot back to its wire form.
func (s Snapshot) Encode() []PlaneSnapshot {
	out := make([]PlaneSnapshot, 0, len(s))
	for _, u := range s {
		switch v := u.(type) {
		case Active:
			out = append(out, PlaneSnapshot{ID: v.ID, Percentage: v.Percentage, Departure: v.Departure})
		case Removed:
			out = append(out, PlaneSnapshot{ID: v.ID, Percentage: RemovedPercentage})
		}
	}
	return out
}
