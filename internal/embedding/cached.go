package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kgviz/vizrec/internal/cache"
	"github.com/kgviz/vizrec/internal/metrics"
	"github.com/kgviz/vizrec/internal/observability"
)

// CachedEmbedder memoises another Embedder in a cache.Client.
// Concurrent misses for the same text share one backend call.
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
	group  singleflight.Group

	flightTimeout time.Duration
}

// defaultFlightTimeout bounds a shared backend call once it is detached
// from the caller that started it.
const defaultFlightTimeout = 30 * time.Second

// NewCachedEmbedder wraps inner with a cache. A zero ttl keeps entries until evicted.
func NewCachedEmbedder(inner Embedder, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedEmbedder {
	if logger == nil {
		logger = observability.Nop()
	}
	return &CachedEmbedder{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger,

		flightTimeout: defaultFlightTimeout,
	}
}

// Embed returns embeddings for texts, calling the backend only for cache misses.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if v, ok := c.lookup(ctx, text); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d inputs", len(fresh), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = fresh[j]
		c.store(ctx, missTexts[j], fresh[j])
	}

	return out, nil
}

// EmbedSingle returns the embedding for one text. Concurrent misses share a
// backend call that outlives any single caller; each caller stops waiting when
// its own ctx is done and receives its own copy of the vector.
func (c *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.lookup(ctx, text); ok {
		return v, nil
	}

	ch := c.group.DoChan(c.key(text), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		v, err := c.inner.EmbedSingle(fctx, text)
		if err != nil {
			return nil, err
		}
		c.store(fctx, text, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v := res.Val.([]float32)
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	}
}

// Model returns the wrapped model name.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Dimension returns the wrapped dimension.
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cache.Key("emb", c.inner.Model(), hex.EncodeToString(sum[:16]))
}

func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	data, err := c.cache.Get(ctx, c.key(text))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("Embedding cache get failed")
		}
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}

	v, err := decodeVector(data)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Discarding corrupt cached embedding")
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("embedding").Inc()
	return v, true
}

func (c *CachedEmbedder) store(ctx context.Context, text string, v []float32) {
	if err := c.cache.Set(ctx, c.key(text), encodeVector(v), c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("Embedding cache set failed")
	}
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding: %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
