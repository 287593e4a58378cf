package cache

import (
	"sort"
	"sync"
)

// MarkerRegistry maps plane IDs to the marker handles that represent them.
type MarkerRegistry[M any] struct {
	mu      sync.RWMutex
	markers map[string]M
}

// NewMarkerRegistry creates an empty MarkerRegistry
func NewMarkerRegistry[M any]() *MarkerRegistry[M] {
	return &MarkerRegistry[M]{
		markers: make(map[string]M),
	}
}

// Get retrieves the marker registered under id
func (r *MarkerRegistry[M]) Get(id string) (M, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markers[id]
	return m, ok
}

// Set registers a marker under id, replacing any previous handle
func (r *MarkerRegistry[M]) Set(id string, m M) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[id] = m
}

// Take removes and returns the marker registered under id.
func (r *MarkerRegistry[M]) Take(id string) (M, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[id]
	if ok {
		delete(r.markers, id)
	}
	return m, ok
}

// Len returns the number of registered markers
func (r *MarkerRegistry[M]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markers)
}

// IDs returns the registered plane IDs in sorted order
func (r *MarkerRegistry[M]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.markers))
	for id := range r.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset drops every registration and returns the handles that were held
func (r *MarkerRegistry[M]) Reset() []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	held := make([]M, 0, len(r.markers))
	for _, m := range r.markers {
		held = append(held, m)
	}
	r.markers = make(map[string]M)
	return held
}
