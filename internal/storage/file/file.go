// Package filestorage appends observations to a tab-separated text file.
//
// Each line is: local timestamp, latitudes, longitudes, barometric altitudes.
// Lists keep the receiver's order and use None for missing values, e.g.
//
//	2024-07-01 12:00:00	[41.3, None]	[2.1, None]	[3500, 'ground']
package filestorage

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skywatch-bcn/planeview/pkg/core"
)

// TimestampLayout is the local wall clock format at the start of each line.
const TimestampLayout = "2006-01-02 15:04:05"

// Config holds configuration for the file storage backend.
type Config struct {
	Path     string
	Location *time.Location
}

// Backend implements storage.Backend by appending lines to a file.
type Backend struct {
	cfg  Config
	log  zerolog.Logger
	mu   sync.Mutex
	file *os.File
}

// New creates a new file storage backend.
func New(cfg Config, log zerolog.Logger) *Backend {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Backend{cfg: cfg, log: log}
}

// Init opens the observations file for appending, creating it if needed.
func (b *Backend) Init() error {
	file, err := os.OpenFile(b.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening observations file: %w", err)
	}
	b.mu.Lock()
	b.file = file
	b.mu.Unlock()
	return nil
}

// Close closes the observations file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}

// RecordObservation appends one line for o.
func (b *Backend) RecordObservation(o *core.Observation) error {
	line := FormatLine(o, b.cfg.Location)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file == nil {
		return fmt.Errorf("observations file is not open")
	}
	if _, err := b.file.WriteString(line); err != nil {
		return fmt.Errorf("error writing observation: %w", err)
	}

	b.log.Debug().Str("timestamp", o.Time.In(b.cfg.Location).Format(TimestampLayout)).
		Int("aircraft", len(o.Aircraft)).Msg("Observation saved")
	return nil
}

// FormatLine renders o as a newline terminated record.
func FormatLine(o *core.Observation, loc *time.Location) string {
	lats := make([]string, len(o.Aircraft))
	lons := make([]string, len(o.Aircraft))
	alts := make([]string, len(o.Aircraft))
	for i, a := range o.Aircraft {
		lats[i] = formatFloat(a.Lat)
		lons[i] = formatFloat(a.Lon)
		switch {
		case a.OnGround:
			alts[i] = "'ground'"
		case a.Alt != nil && *a.Alt == math.Trunc(*a.Alt):
			alts[i] = strconv.FormatFloat(*a.Alt, 'f', 0, 64)
		default:
			alts[i] = formatFloat(a.Alt)
		}
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s\n",
		o.Time.In(loc).Format(TimestampLayout),
		list(lats), list(lons), list(alts),
	)
}

func list(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// formatFloat writes v the way the recorded lists always have: shortest
// round-trip digits, a trailing ".0" on whole numbers, exponent outside
// [1e-4, 1e16).
func formatFloat(v *float64) string {
	if v == nil {
		return "None"
	}
	f := *v
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
