package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot_ActiveAndRemoved(t *testing.T) {
	data := []byte(`[
		{"id": "A", "percentage": 50, "departure": "LEMD"},
		{"id": "B", "percentage": -1}
	]`)

	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snap, 2)

	assert.Equal(t, Active{ID: "A", Percentage: 50, Departure: "LEMD"}, snap[0])
	assert.Equal(t, Removed{ID: "B"}, snap[1])
}

func TestDecodeSnapshot_Boundaries(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`[{"id":"A","percentage":0,"departure":"X"},{"id":"B","percentage":100,"departure":"Y"}]`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap[0].(Active).Percentage)
	assert.Equal(t, 100.0, snap[1].(Active).Percentage)
}

func TestDecodeSnapshot_EmptyArray(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestDecodeSnapshot_NullDeparture(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`[{"id":"A","percentage":12,"departure":null}]`))
	require.NoError(t, err)
	assert.Equal(t, "", snap[0].(Active).Departure)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `<html>`},
		{"object instead of array", `{"id":"A"}`},
		{"missing id", `[{"percentage":10,"departure":"X"}]`},
		{"empty id", `[{"id":"","percentage":10}]`},
		{"numeric id", `[{"id":7,"percentage":10}]`},
		{"missing percentage", `[{"id":"A","departure":"X"}]`},
		{"string percentage", `[{"id":"A","percentage":"10"}]`},
		{"null percentage", `[{"id":"A","percentage":null}]`},
		{"below range", `[{"id":"A","percentage":-0.5}]`},
		{"above range", `[{"id":"A","percentage":100.1}]`},
		{"one bad entry among good", `[{"id":"A","percentage":10},{"percentage":20}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			assert.Nil(t, snap, "no partial snapshot on failure")
		})
	}
}

func TestSnapshotEncode(t *testing.T) {
	snap := Snapshot{
		Active{ID: "A", Percentage: 20, Departure: "X"},
		Removed{ID: "B"},
	}

	assert.Equal(t, []PlaneSnapshot{
		{ID: "A", Percentage: 20, Departure: "X"},
		{ID: "B", Percentage: RemovedPercentage},
	}, snap.Encode())
}
