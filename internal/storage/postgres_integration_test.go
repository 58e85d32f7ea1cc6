//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRecommendationLog_Postgres(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vizrec"),
		tcpostgres.WithUsername("vizrec"),
		tcpostgres.WithPassword("vizrec"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer db.Close()

	log := NewRecommendationLog(db, DriverPostgres)
	require.NoError(t, log.Migrate(ctx))
	require.NoError(t, log.Migrate(ctx))

	e := &Entry{
		Query:  "Compare sales by region",
		Model:  "hashing-v1-384",
		Charts: []ChartScore{{Chart: "bar_chart", Score: 1}},
	}
	require.NoError(t, log.Record(ctx, e))

	got, err := log.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Charts, got.Charts)
	assert.Equal(t, e.QueryHash, got.QueryHash)

	entries, err := log.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
