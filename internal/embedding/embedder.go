package embedding

import (
	"context"
	"math"
)

// Embedder defines the interface for embedding generation.
//
// Implementations must return unit-length vectors and must be deterministic
// for identical input under a fixed model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimension() int
}

// Ensure implementations satisfy interface.
var (
	_ Embedder = (*Client)(nil)
	_ Embedder = (*HashingEmbedder)(nil)
	_ Embedder = (*CachedEmbedder)(nil)
)

// Normalize returns v scaled to unit length. v is not modified.
// Zero vectors come back as an unchanged copy.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	norm := 1 / math.Sqrt(sum)
	for i := range out {
		out[i] = float32(float64(out[i]) * norm)
	}
	return out
}

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths and zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
