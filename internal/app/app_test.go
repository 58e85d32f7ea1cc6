package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgviz/vizrec/internal/cache"
	"github.com/kgviz/vizrec/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Dimension = 64

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.History)
	assert.IsType(t, &cache.MemoryClient{}, a.Cache)
	assert.Equal(t, "hashing-v1-64", a.Embedder.Model())
	assert.Equal(t, "rules", a.Processor.Name())
	assert.False(t, a.Catalog.Ready())

	engine, err := a.Engine(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Catalog.Ready())

	recs, err := engine.Recommend(context.Background(), "Compare sales by region", "North 10, South 12, East 9, West 14")
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

func TestNew_SQLiteHistory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "history.db")

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.History)
	entries, err := a.History.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_RedisFallsBackToMemory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = "127.0.0.1:1"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &cache.MemoryClient{}, a.Cache)
}

func TestNewEmbedder(t *testing.T) {
	_, err := newEmbedder(config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = newEmbedder(config.EmbeddingConfig{Provider: "bogus"})
	assert.ErrorContains(t, err, "unknown embedding provider")

	e, err := newEmbedder(config.EmbeddingConfig{Provider: "openai", APIKey: "k", Model: "text-embedding-3-small", Dimension: 1536})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())
}
