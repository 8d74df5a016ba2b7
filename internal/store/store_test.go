package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-status-backend/internal/model"
)

// newMockDB creates a gorm connection backed by sqlmock, for asserting the
// SQL the store emits against the production dialect.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore creates a migrated in-memory store for behavioral tests.
func newSQLiteStore(t *testing.T, name string) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.ParkingEvent{},
		&model.LatestStatus{},
		&model.ClientLog{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})
	return NewGormStore(testDB)
}

func TestGormStore_AppendEvent(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "parking_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	ev := model.ParkingEvent{
		DevEUI:     "a84041ffff1c2b4f",
		Status:     model.StatusOccupied,
		ObservedAt: time.Now().UTC(),
	}
	require.NoError(t, s.AppendEvent(context.Background(), &ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpsertLatestUsesOnConflict(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "latest_statuses" .* ON CONFLICT \("dev_eui"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := model.ParkingEvent{
		DevEUI:     "a84041ffff1c2b4f",
		Status:     model.StatusFree,
		ObservedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertLatest(context.Background(), &ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountEventsPushesRangeToSQL(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "parking_events" WHERE observed_at >= \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	from := time.Now().UTC().Add(-time.Minute)
	count, err := s.CountEvents(context.Background(), EventFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountEventsOnIngestionTime(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "parking_events" WHERE created_at >= \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	from := time.Now().UTC().Add(-time.Minute)
	count, err := s.CountEvents(context.Background(), EventFilter{CreatedFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterBuckets(t *testing.T) {
	// Thursday 2026-05-14 18:30 UTC shifts to 11:30 local at -7.
	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return ts
	}
	events := []model.ParkingEvent{
		{DevEUI: "D1", ObservedAt: at("2026-05-14T18:30:00Z")}, // Thu 11:30 local
		{DevEUI: "D1", ObservedAt: at("2026-05-14T19:30:00Z")}, // Thu 12:30 local
		{DevEUI: "D1", ObservedAt: at("2026-05-15T18:30:00Z")}, // Fri 11:30 local
		{DevEUI: "D1", ObservedAt: at("2026-05-15T02:30:00Z")}, // Thu 19:30 local, crosses midnight
	}
	offset := -7 * time.Hour

	t.Run("hour filter after shift", func(t *testing.T) {
		got := filterBuckets(append([]model.ParkingEvent(nil), events...), EventFilter{
			Hours:  []int{11},
			Offset: offset,
		})
		require.Len(t, got, 2)
	})

	t.Run("day filter crosses the date line", func(t *testing.T) {
		thursday := time.Thursday
		got := filterBuckets(append([]model.ParkingEvent(nil), events...), EventFilter{
			DayOfWeek: &thursday,
			Offset:    offset,
		})
		require.Len(t, got, 3, "the 02:30 UTC Friday event belongs to local Thursday")
	})

	t.Run("combined hour and day filter", func(t *testing.T) {
		thursday := time.Thursday
		got := filterBuckets(append([]model.ParkingEvent(nil), events...), EventFilter{
			Hours:     []int{11},
			DayOfWeek: &thursday,
			Offset:    offset,
		})
		require.Len(t, got, 1)
		assert.Equal(t, at("2026-05-14T18:30:00Z"), got[0].ObservedAt)
	})

	t.Run("no bucket predicates is a no-op", func(t *testing.T) {
		got := filterBuckets(append([]model.ParkingEvent(nil), events...), EventFilter{})
		assert.Len(t, got, len(events))
	})
}

func TestGormStore_LatestRadioEvent(t *testing.T) {
	s := newSQLiteStore(t, "store_radio")
	ctx := context.Background()

	got, err := s.LatestRadioEvent(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "no radio events yet")

	base := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)
	rssiOld, rssiNew := -80, -67
	snr := 8.5
	require.NoError(t, s.AppendEvent(ctx, &model.ParkingEvent{
		DevEUI: "D1", Status: model.StatusFree, ObservedAt: base,
		RSSI: &rssiOld, SNR: &snr,
	}))
	require.NoError(t, s.AppendEvent(ctx, &model.ParkingEvent{
		DevEUI: "D1", Status: model.StatusFree, ObservedAt: base.Add(2 * time.Minute),
	}))
	require.NoError(t, s.AppendEvent(ctx, &model.ParkingEvent{
		DevEUI: "D1", Status: model.StatusOccupied, ObservedAt: base.Add(time.Minute),
		RSSI: &rssiNew, SNR: &snr,
	}))

	got, err = s.LatestRadioEvent(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.RSSI)
	assert.Equal(t, -67, *got.RSSI, "the newest event with metrics wins, not the newest event")
}

func TestGormStore_DeleteEvents(t *testing.T) {
	s := newSQLiteStore(t, "store_delete")
	ctx := context.Background()
	base := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendEvent(ctx, &model.ParkingEvent{
			DevEUI: "D1", Status: model.StatusFree, ObservedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	deleted, err := s.DeleteEvents(ctx, "D1", base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "range is inclusive-exclusive")

	count, err := s.CountEvents(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGormStore_UpsertLatestReplaces(t *testing.T) {
	s := newSQLiteStore(t, "store_upsert")
	ctx := context.Background()
	base := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)

	first := model.ParkingEvent{DevEUI: "D1", DeviceLabel: "spot", Status: model.StatusFree, ObservedAt: base}
	require.NoError(t, s.UpsertLatest(ctx, &first))

	second := model.ParkingEvent{DevEUI: "D1", DeviceLabel: "spot", Status: model.StatusOccupied, ObservedAt: base.Add(time.Minute)}
	require.NoError(t, s.UpsertLatest(ctx, &second))

	rows, err := s.LatestEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1, "one logical row per device")
	assert.Equal(t, model.StatusOccupied, rows[0].Status)
	assert.Equal(t, base.Add(time.Minute).Unix(), rows[0].ObservedAt.Unix())
}
