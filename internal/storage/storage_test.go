package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, DriverNone, "")
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Open(ctx, "mysql", "dsn")
	assert.ErrorContains(t, err, "unsupported storage driver")
}

func TestMigrationsFor(t *testing.T) {
	files, err := migrationsFor(DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_recommendations_sqlite.sql"}, files)

	files, err = migrationsFor(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_recommendations.sql"}, files)

	assert.Equal(t, "0001_recommendations", migrationVersion("0001_recommendations_sqlite.sql"))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	applied, err := Migrate(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_recommendations"}, applied)

	applied, err = Migrate(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRecommendationLog_SQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	log := NewRecommendationLog(db, DriverSQLite)
	require.NoError(t, log.Migrate(ctx))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := &Entry{
		RequestID:     "req-1",
		Query:         "Show revenue by month",
		ResponseChars: 120,
		Model:         "hashing-v1-384",
		Charts:        []ChartScore{{Chart: "line_chart", Score: 1}, {Chart: "bar_chart", Score: 0}},
		LatencyMS:     12,
		CreatedAt:     base,
	}
	second := &Entry{
		Query:     "Market share by company",
		Model:     "hashing-v1-384",
		CreatedAt: base.Add(time.Minute),
	}

	require.NoError(t, log.Record(ctx, first))
	require.NoError(t, log.Record(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, HashQuery("Show revenue by month"), first.QueryHash)
	assert.Len(t, first.QueryHash, 64)

	got, err := log.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.RequestID, got.RequestID)
	assert.Equal(t, first.Query, got.Query)
	assert.Equal(t, first.Charts, got.Charts)
	assert.Equal(t, int64(12), got.LatencyMS)
	assert.True(t, base.Equal(got.CreatedAt))

	entries, err := log.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Empty(t, entries[0].Charts)
	assert.Equal(t, first.ID, entries[1].ID)

	entries, err = log.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = log.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
