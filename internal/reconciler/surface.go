package reconciler

// Marker is the visual handle of one tracked plane. Handles are owned by the
// Reconciler; nothing else creates or removes them.
type Marker interface {
	// Translate moves the marker to a horizontal offset from the container's left edge.
	Translate(x float64)
	// Remove detaches the marker from its container. It is called at most once.
	Remove()
}

// Surface is the visual container markers are attached to.
type Surface interface {
	// Width is the measurable horizontal extent of the container.
	Width() float64
	// AddMarker creates a marker drawn with asset and attaches it to the container.
	AddMarker(id, asset string) Marker
	// SetStatus replaces the status text display.
	SetStatus(text string)
}

// Flusher is implemented by surfaces that batch drawing until a cycle completes.
type Flusher interface {
	Flush()
}
