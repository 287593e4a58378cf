package gormstorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skywatch-bcn/planeview/internal/database"
	"github.com/skywatch-bcn/planeview/internal/model"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.GetSqliteDB(filepath.Join(t.TempDir(), "obs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func observation(icao string) *core.Observation {
	lat, lon, alt := 41.3, 2.1, 3500.0
	return &core.Observation{
		Time:     time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		Aircraft: []core.ObservedAircraft{{ICAO: icao, Lat: &lat, Lon: &lon, Alt: &alt}},
	}
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{Logger: zerolog.Nop()})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestInitClose(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{DB: db, Logger: zerolog.Nop(), FlushInterval: time.Hour})

	require.NoError(t, b.Init())
	require.NotNil(t, b.stopChan)
	assert.True(t, db.Migrator().HasTable(&model.Observation{}))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestRecordObservation_QueuesUntilFlush(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{DB: db, Logger: zerolog.Nop(), FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.RecordObservation(observation("34510a")))
	require.NoError(t, b.RecordObservation(observation("4ca7b1")))
	assert.Equal(t, 2, b.Pending())

	var count int64
	require.NoError(t, db.Model(&model.Observation{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, b.Flush())
	assert.Zero(t, b.Pending())

	require.NoError(t, db.Model(&model.Observation{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	require.NoError(t, db.Model(&model.AircraftPosition{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestClose_FlushesQueue(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{DB: db, Logger: zerolog.Nop(), FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordObservation(observation("34510a")))
	require.NoError(t, b.Close())

	var got []model.Observation
	require.NoError(t, db.Preload("Positions").Find(&got).Error)
	require.Len(t, got, 1)
	require.Len(t, got[0].Positions, 1)
	assert.Equal(t, "34510a", got[0].Positions[0].ICAO)
}

func TestWriteLoop_FlushesOnTick(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{DB: db, Logger: zerolog.Nop(), FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.RecordObservation(observation("34510a")))

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Observation{}).Count(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestFlush_RequeuesOnFailure(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{DB: db, Logger: zerolog.Nop(), FlushInterval: time.Hour})

	// tables were never migrated
	require.NoError(t, b.RecordObservation(observation("34510a")))
	assert.Error(t, b.Flush())
	assert.Equal(t, 1, b.Pending())
}

func TestRecordObservation_DropsOldestBeyondLimit(t *testing.T) {
	b := New(Dependencies{Logger: zerolog.Nop(), MaxPending: 2})

	require.NoError(t, b.RecordObservation(observation("000001")))
	require.NoError(t, b.RecordObservation(observation("000002")))
	require.NoError(t, b.RecordObservation(observation("000003")))

	assert.Equal(t, 2, b.Pending())
	assert.Equal(t, uint64(1), b.Dropped())
}
