package database

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skywatch-bcn/planeview/internal/model"
)

// MemoryDSN is the shared in-memory SQLite database.
const MemoryDSN = "file::memory:?cache=shared"

// NamedMemoryDSN returns a shared in-memory database private to name.
func NamedMemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
	"PRAGMA page_size = 32768;",
}

// GetPostgresDB opens and validates a connection to the Postgres database.
func GetPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDB(path string) (*gorm.DB, error) {
	if path == "" {
		return OpenSqlite(MemoryDSN)
	}
	return OpenSqlite(path)
}

// OpenSqlite opens dsn and applies the write-heavy PRAGMAs.
func OpenSqlite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// Setup installs PostGIS on Postgres and migrates the observation tables.
func Setup(db *gorm.DB, log zerolog.Logger) error {
	if db.Name() == "postgres" {
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		log.Info().Msg("PostGIS Extension created")
	}

	log.Info().Str("dialect", db.Name()).Msg("Migrating schema")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info().Msg("Database setup complete")
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	// VACUUM INTO refuses to overwrite
	if exists, err := os.Stat(sqliteFilePath); err == nil && exists != nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %s", err)
		}
	}

	err := db.Exec("VACUUM INTO 'file:" + sqliteFilePath + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %s", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
