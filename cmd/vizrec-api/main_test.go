package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgviz/vizrec/internal/app"
	"github.com/kgviz/vizrec/internal/config"
	"github.com/kgviz/vizrec/internal/embedding"
	"github.com/kgviz/vizrec/internal/nlp"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/viz"
)

type downEmbedder struct {
	*embedding.HashingEmbedder
}

var errDown = errors.New("embedding backend down")

func (downEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errDown
}

func testApp(emb embedding.Embedder) *app.App {
	return &app.App{
		Config:    config.DefaultConfig(),
		Logger:    observability.Nop(),
		Embedder:  emb,
		Processor: nlp.NewRuleProcessor(),
		Catalog:   viz.NewCatalogLoader(emb),
	}
}

func TestLoadEngine(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		a := testApp(embedding.NewHashingEmbedder(64))
		engine, err := loadEngine(context.Background(), a)
		require.NoError(t, err)
		require.NotNil(t, engine)
		assert.True(t, a.Catalog.Ready())
	})

	t.Run("catalog failure is returned", func(t *testing.T) {
		a := testApp(downEmbedder{embedding.NewHashingEmbedder(64)})
		var engine *viz.Engine
		var err error
		assert.NotPanics(t, func() {
			engine, err = loadEngine(context.Background(), a)
		})
		assert.Nil(t, engine)
		assert.ErrorIs(t, err, viz.ErrCatalogUnavailable)
		assert.ErrorIs(t, err, errDown)
		assert.False(t, a.Catalog.Ready())
	})
}
