package viz

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kgviz/vizrec/internal/embedding"
)

// ErrEmbedding is returned when request text cannot be embedded.
var ErrEmbedding = errors.New("embedding failed")

// ScoreMap maps every chart id to a score.
type ScoreMap map[string]float64

// Clone returns an independent copy of m.
func (m ScoreMap) Clone() ScoreMap {
	out := make(ScoreMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Scored is a chart paired with a score.
type Scored struct {
	Chart string  `json:"chart"`
	Score float64 `json:"score"`
}

// Ranked returns all charts by descending score. Equal scores keep catalog
// order.
func (m ScoreMap) Ranked() []Scored {
	out := make([]Scored, 0, len(chartTypes))
	for _, c := range chartTypes {
		out = append(out, Scored{Chart: c.ID, Score: m[c.ID]})
	}
	sortDescending(out)
	return out
}

func sortDescending(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

func sortAscending(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score < s[j].Score })
}

// SimilarityScores embeds the combined text once and scores it against every
// chart in the catalog by cosine similarity.
func SimilarityScores(ctx context.Context, catalog *Catalog, query, response string) (ScoreMap, error) {
	vec, err := catalog.Embedder().EmbedSingle(ctx, CombinedText(query, response))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	vec = embedding.Normalize(vec)

	scores := make(ScoreMap, len(chartTypes))
	for _, c := range chartTypes {
		scores[c.ID] = embedding.Cosine(vec, catalog.Embedding(c.ID))
	}
	return scores, nil
}
