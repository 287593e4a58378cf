package storage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skywatch-bcn/planeview/internal/config"
	"github.com/skywatch-bcn/planeview/internal/database"
	filestorage "github.com/skywatch-bcn/planeview/internal/storage/file"
	gormstorage "github.com/skywatch-bcn/planeview/internal/storage/gorm"
	sqlitestorage "github.com/skywatch-bcn/planeview/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid storage timezone %q: %w", cfg.Timezone, err)
	}

	switch cfg.Type {
	case "file":
		return filestorage.New(filestorage.Config{
			Path:     cfg.File.Path,
			Location: loc,
		}, log), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:      cfg.SQLite.Path,
			DumpInterval:  cfg.SQLite.DumpInterval,
			FlushInterval: cfg.FlushInterval,
			Location:      loc,
		}, log)
	case "postgres":
		db, err := database.GetPostgresDB(config.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			Logger:        log,
			Location:      loc,
			FlushInterval: cfg.FlushInterval,
		}), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
