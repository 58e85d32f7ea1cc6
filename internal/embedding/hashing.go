package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kgviz/vizrec/internal/metrics"
	"github.com/kgviz/vizrec/internal/nlp"
)

// HashingEmbedder is an offline embedder based on signed feature hashing of
// lemmatised content words and word bigrams. It needs no model download and
// is fully deterministic, which makes it the default for development and tests.
type HashingEmbedder struct {
	dimension int
	model     string
}

// NewHashingEmbedder creates a hashing embedder with the given dimension.
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashingEmbedder{
		dimension: dimension,
		model:     fmt.Sprintf("hashing-v1-%d", dimension),
	}
}

// Embed generates embeddings for texts.
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	metrics.EmbeddingRequests.WithLabelValues("local", "ok").Inc()
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (h *HashingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := h.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Model returns the model identifier, which encodes the dimension.
func (h *HashingEmbedder) Model() string {
	return h.model
}

// Dimension returns the embedding dimension.
func (h *HashingEmbedder) Dimension() int {
	return h.dimension
}

func (h *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dimension)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len(w) < 2 || nlp.IsStopWord(w) {
			continue
		}
		terms = append(terms, nlp.Lemmatize(w))
	}

	for i, term := range terms {
		h.add(v, term, 1.0)
		if i > 0 {
			h.add(v, terms[i-1]+"_"+term, 0.5)
		}
	}

	return Normalize(v)
}

func (h *HashingEmbedder) add(v []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}
