// Package text draws markers on a fixed-width terminal track.
package text

import (
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/skywatch-bcn/planeview/internal/reconciler"
)

const (
	glyph     = '✈'
	track     = '·'
	clearHome = "\033[H\033[2J"
)

// Surface renders one line per marker and a status line below. Drawing is
// deferred until Flush so that a cycle produces a single frame.
type Surface struct {
	mu      sync.Mutex
	out     io.Writer
	columns int
	clear   bool
	markers map[string]*marker
	status  string
}

var (
	_ reconciler.Surface = (*Surface)(nil)
	_ reconciler.Flusher = (*Surface)(nil)
)

// Option configures a Surface.
type Option func(*Surface)

// ClearScreen makes every frame start by clearing the terminal.
func ClearScreen() Option {
	return func(s *Surface) { s.clear = true }
}

// New creates a Surface columns characters wide writing frames to out.
func New(out io.Writer, columns int, opts ...Option) *Surface {
	if columns < 1 {
		columns = 1
	}
	s := &Surface{
		out:     out,
		columns: columns,
		markers: make(map[string]*marker),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Surface) Width() float64 {
	return float64(s.columns)
}

func (s *Surface) AddMarker(id, asset string) reconciler.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &marker{surface: s, id: id}
	s.markers[id] = m
	return m
}

func (s *Surface) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
}

// Flush writes the current frame.
func (s *Surface) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, s.frameLocked())
}

// Frame returns the current frame without writing it.
func (s *Surface) Frame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Surface) frameLocked() string {
	ids := make([]string, 0, len(s.markers))
	for id := range s.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	if s.clear {
		b.WriteString(clearHome)
	}
	for _, id := range ids {
		b.WriteString(s.line(s.markers[id].x))
		b.WriteString("  ")
		b.WriteString(id)
		b.WriteByte('\n')
	}
	b.WriteString(s.status)
	b.WriteByte('\n')
	return b.String()
}

// line draws the track with the glyph at the column nearest x, clamped to the
// track's ends.
func (s *Surface) line(x float64) string {
	col := int(math.Round(x))
	col = max(0, min(col, s.columns-1))

	row := make([]rune, s.columns)
	for i := range row {
		row[i] = track
	}
	row[col] = glyph
	return string(row)
}

type marker struct {
	surface *Surface
	id      string
	x       float64
}

func (m *marker) Translate(x float64) {
	m.surface.mu.Lock()
	defer m.surface.mu.Unlock()
	m.x = x
}

func (m *marker) Remove() {
	m.surface.mu.Lock()
	defer m.surface.mu.Unlock()
	if m.surface.markers[m.id] == m {
		delete(m.surface.markers, m.id)
	}
}
