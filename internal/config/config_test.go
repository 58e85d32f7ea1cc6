package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Recommender.MaxResults)
	assert.Equal(t, 0.8, cfg.Recommender.DiversityThreshold)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vizrec.yaml")
	data := `
server:
  port: 9090
  request_timeout: 5s
nlp:
  backend: prose
cache:
  driver: memory
  ttl: 1m
topics:
  file: topics.json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "prose", cfg.NLP.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, filepath.Join(dir, "topics.json"), cfg.Topics.File)
	// untouched sections keep defaults
	assert.Equal(t, 384, cfg.Embedding.Dimension)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/vizrec.db")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/vizrec.db", cfg.Storage.DSN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.API.CORSOrigins)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad provider", func(c *Config) { c.Embedding.Provider = "magic" }},
		{"openai without key", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"tiny dimension", func(c *Config) { c.Embedding.Dimension = 2 }},
		{"bad nlp backend", func(c *Config) { c.NLP.Backend = "spacy" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"zero results", func(c *Config) { c.Recommender.MaxResults = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/etc/topics.json", ResolveRelativePath("/srv/vizrec.yaml", "/etc/topics.json"))
	assert.Equal(t, filepath.Join("/srv", "topics.json"), ResolveRelativePath("/srv/vizrec.yaml", "topics.json"))
}

func TestLoad_ExampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "vizrec.example.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 0.3, cfg.Recommender.DonutForceThreshold)
	assert.Equal(t, uint32(5), cfg.Embedding.Breaker.FailureThreshold)
	assert.Equal(t, filepath.Join("..", "..", "configs", "subreddit_topics.json"), cfg.Topics.File)
}
