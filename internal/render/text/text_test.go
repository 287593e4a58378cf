package text

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-bcn/planeview/internal/reconciler"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

func TestSurface_Width(t *testing.T) {
	assert.Equal(t, 40.0, New(&bytes.Buffer{}, 40).Width())
	assert.Equal(t, 1.0, New(&bytes.Buffer{}, 0).Width())
}

func TestSurface_DrawsAtRoundedColumn(t *testing.T) {
	s := New(&bytes.Buffer{}, 10)
	s.AddMarker("A1", "").Translate(3.6)
	s.SetStatus("Madrid")

	assert.Equal(t, "····✈·····  A1\nMadrid\n", s.Frame())
}

func TestSurface_BoundaryPositions(t *testing.T) {
	s := New(&bytes.Buffer{}, 10)
	r := reconciler.New(s, "")

	r.Apply(core.Snapshot{
		core.Active{ID: "A", Percentage: 0, Departure: "Paris"},
		core.Active{ID: "B", Percentage: 100, Departure: "Roma"},
	})

	lines := strings.Split(s.Frame(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "✈·········  A", lines[0])
	assert.Equal(t, "·········✈  B", lines[1])
	assert.Equal(t, "Roma", lines[2])
}

func TestSurface_FlushWritesOneFramePerCycle(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, 4, ClearScreen())
	r := reconciler.New(s, "")

	r.Apply(core.Snapshot{core.Active{ID: "A", Percentage: 50, Departure: "Lyon"}})
	assert.Equal(t, clearHome+"··✈·  A\nLyon\n", out.String())

	out.Reset()
	r.Apply(core.Snapshot{core.Removed{ID: "A"}})
	assert.Equal(t, clearHome+"\n", out.String())
}

func TestMarker_StaleRemoveKeepsReplacement(t *testing.T) {
	s := New(&bytes.Buffer{}, 4)
	old := s.AddMarker("A", "")
	s.AddMarker("A", "").Translate(3)

	old.Remove()

	assert.Equal(t, "···✈  A\n\n", s.Frame())
}
