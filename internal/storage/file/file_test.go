package filestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

func ptr(v float64) *float64 { return &v }

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func TestFormatLine(t *testing.T) {
	o := &core.Observation{
		Time: time.Date(2024, 7, 1, 10, 0, 5, 0, time.UTC),
		Aircraft: []core.ObservedAircraft{
			{ICAO: "34510a", Lat: ptr(41.3), Lon: ptr(2.1), Alt: ptr(3500)},
			{ICAO: "4ca7b1", Alt: ptr(36000.5)},
			{ICAO: "3c66b3", Lat: ptr(41), Lon: ptr(2.07), Alt: ptr(0), OnGround: true},
			{ICAO: "3c66b4"},
		},
	}

	assert.Equal(t,
		"2024-07-01 12:00:05\t[41.3, None, 41.0, None]\t[2.1, None, 2.07, None]\t[3500, 36000.5, 'ground', None]\n",
		FormatLine(o, madrid(t)))
}

func TestFormatLine_Empty(t *testing.T) {
	o := &core.Observation{Time: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)}

	assert.Equal(t, "2024-01-15 10:30:00\t[]\t[]\t[]\n", FormatLine(o, madrid(t)))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "None"},
		{ptr(41.3), "41.3"},
		{ptr(2), "2.0"},
		{ptr(-0.5), "-0.5"},
		{ptr(0), "0.0"},
		{ptr(1e-5), "1e-05"},
		{ptr(2.5e17), "2.5e+17"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}

func TestBackend_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.tsv")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	b := New(Config{Path: path, Location: time.UTC}, zerolog.Nop())
	require.NoError(t, b.Init())

	o := &core.Observation{
		Time:     time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		Aircraft: []core.ObservedAircraft{{ICAO: "34510a", Lat: ptr(41.3), Lon: ptr(2.1), Alt: ptr(3500)}},
	}
	require.NoError(t, b.RecordObservation(o))
	require.NoError(t, b.RecordObservation(o))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := "2024-07-01 10:00:00\t[41.3]\t[2.1]\t[3500]\n"
	assert.Equal(t, "existing\n"+line+line, string(data))
}

func TestBackend_NotOpen(t *testing.T) {
	b := New(Config{Path: filepath.Join(t.TempDir(), "x.tsv")}, zerolog.Nop())
	assert.Error(t, b.RecordObservation(&core.Observation{}))
}

func TestBackend_InitError(t *testing.T) {
	b := New(Config{Path: filepath.Join(t.TempDir(), "missing", "x.tsv")}, zerolog.Nop())
	assert.Error(t, b.Init())
}
