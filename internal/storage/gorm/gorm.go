// Package gormstorage records observations through GORM with an internal queue
// drained by a background DB writer goroutine.
package gormstorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skywatch-bcn/planeview/internal/database"
	"github.com/skywatch-bcn/planeview/internal/model"
	"github.com/skywatch-bcn/planeview/internal/queue"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

const (
	defaultFlushInterval = 30 * time.Second
	defaultMaxPending    = 10000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        zerolog.Logger
	Location      *time.Location
	FlushInterval time.Duration
	MaxPending    int // Oldest observations are dropped beyond this
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps         Dependencies
	observations *queue.Queue[model.Observation]
	stopChan     chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.MaxPending <= 0 {
		deps.MaxPending = defaultMaxPending
	}
	return &Backend{
		deps:         deps,
		observations: queue.NewBounded[model.Observation](deps.MaxPending),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database connection")
	}
	if err := database.Setup(b.deps.DB, b.deps.Logger); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
	})
	return nil
}

// RecordObservation queues the observation for the next write cycle.
func (b *Backend) RecordObservation(o *core.Observation) error {
	b.observations.Push(model.FromObservation(*o, b.deps.Location))
	return nil
}

// Pending returns the number of observations waiting to be written.
func (b *Backend) Pending() int {
	return b.observations.Len()
}

// Dropped returns how many observations were discarded while the database
// could not keep up.
func (b *Backend) Dropped() uint64 {
	return b.observations.Dropped()
}

// Flush writes every queued observation in one transaction.
// On failure the batch is put back for the next cycle.
func (b *Backend) Flush() error {
	if b.observations.Empty() {
		return nil
	}

	batch := b.observations.Drain()
	start := time.Now()
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&batch).Error
	})
	if err != nil {
		for i := range batch {
			batch[i].ID = 0
			for j := range batch[i].Positions {
				batch[i].Positions[j].ID = 0
				batch[i].Positions[j].ObservationID = 0
			}
		}
		b.observations.Requeue(batch...)
		return fmt.Errorf("failed to write %d observations: %w", len(batch), err)
	}

	b.deps.Logger.Debug().
		Int("observations", len(batch)).
		Dur("duration", time.Since(start)).
		Msg("Wrote observations")
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error().Err(err).Msg("Final flush failed")
			}
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error().Err(err).Msg("Error writing observations")
			}
		}
	}
}
