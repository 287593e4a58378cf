// Package reconciler applies plane snapshots to a registry of visual markers.
package reconciler

import (
	"sync"

	"github.com/skywatch-bcn/planeview/internal/cache"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

// Result counts the effects of one applied snapshot.
type Result struct {
	Created int
	Moved   int
	Removed int
	Ignored int // removals for planes that had no marker
}

// Reconciler owns the marker registry and the status text for one surface.
// Apply calls are serialized, so snapshots from overlapping polls never interleave;
// whichever is applied last wins.
type Reconciler struct {
	mu      sync.Mutex
	surface Surface
	asset   string
	markers *cache.MarkerRegistry[Marker]
	status  string
}

// New creates a Reconciler drawing markers with asset onto surface.
func New(surface Surface, asset string) *Reconciler {
	return &Reconciler{
		surface: surface,
		asset:   asset,
		markers: cache.NewMarkerRegistry[Marker](),
	}
}

// Apply reconciles the registry and status text against one snapshot, entry by entry in
// the order given. The status text is cleared first, so a snapshot without active planes
// leaves it empty; otherwise the last active entry's departure is shown.
func (r *Reconciler) Apply(snapshot core.Snapshot) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result
	r.status = ""

	for _, update := range snapshot {
		switch u := update.(type) {
		case core.Removed:
			if m, ok := r.markers.Take(u.ID); ok {
				m.Remove()
				res.Removed++
			} else {
				res.Ignored++
			}
		case core.Active:
			r.status = u.Departure

			m, ok := r.markers.Get(u.ID)
			if !ok {
				m = r.surface.AddMarker(u.ID, r.asset)
				r.markers.Set(u.ID, m)
				res.Created++
			} else {
				res.Moved++
			}
			m.Translate(Offset(u.Percentage, r.surface.Width()))
		}
	}

	r.surface.SetStatus(r.status)
	if f, ok := r.surface.(Flusher); ok {
		f.Flush()
	}
	return res
}

// Offset converts a route percentage into a horizontal offset within width.
func Offset(percentage, width float64) float64 {
	return (percentage / 100) * width
}

// Status returns the current status text.
func (r *Reconciler) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Tracked returns the IDs that currently have a marker, sorted.
func (r *Reconciler) Tracked() []string {
	return r.markers.IDs()
}

// Len returns the number of markers currently registered.
func (r *Reconciler) Len() int {
	return r.markers.Len()
}

// Clear removes every marker and empties the status text.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.markers.Reset() {
		m.Remove()
	}
	r.status = ""
	r.surface.SetStatus("")
	if f, ok := r.surface.(Flusher); ok {
		f.Flush()
	}
}
