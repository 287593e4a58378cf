// Package sqlitestorage records observations into an in-memory SQLite database
// with periodic disk dumps via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skywatch-bcn/planeview/internal/database"
	gormstorage "github.com/skywatch-bcn/planeview/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	MemoryName    string // Private in-memory database, shared cache when empty
	DumpInterval  time.Duration
	DumpPath      string // Path for periodic VACUUM INTO dumps
	FlushInterval time.Duration
	Location      *time.Location
}

// Backend wraps the GORM backend with an in-memory database and disk dumps.
type Backend struct {
	*gormstorage.Backend
	db        *gorm.DB
	cfg       Config
	log       zerolog.Logger
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new SQLite storage backend.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	dsn := database.MemoryDSN
	if cfg.MemoryName != "" {
		dsn = database.NamedMemoryDSN(cfg.MemoryName)
	}
	db, err := database.OpenSqlite(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		Logger:        log,
		Location:      cfg.Location,
		FlushInterval: cfg.FlushInterval,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	b.done = make(chan struct{})
	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}

	return nil
}

// Close flushes pending observations, writes a last dump and closes the database.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopChan)
		if b.done != nil {
			<-b.done
		}
		if err = b.Backend.Close(); err != nil {
			return
		}
		if b.cfg.DumpPath != "" {
			if err = b.Dump(); err != nil {
				return
			}
		}
		err = database.Close(b.db)
	})
	return err
}

// Dump snapshots the in-memory database to DumpPath.
func (b *Backend) Dump() error {
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug().Dur("duration", time.Since(start)).Str("path", b.cfg.DumpPath).Msg("Dumped memory DB to disk")
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so writes keep flowing.
func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Backend.Flush(); err != nil {
				b.log.Error().Err(err).Msg("Error writing observations before dump")
			}
			if err := b.Dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
