package viz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kgviz/vizrec/internal/cache"
	"github.com/kgviz/vizrec/internal/metrics"
	"github.com/kgviz/vizrec/internal/nlp"
	"github.com/kgviz/vizrec/internal/observability"
)

// Recommendation is one ranked chart suggestion.
type Recommendation struct {
	Chart       string  `json:"chart"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Category    string  `json:"category,omitempty"`
}

// Result is a recommendation run with its intermediate values.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Features        FeatureSet       `json:"features"`
	Baseline        ScoreMap         `json:"baseline"`
	Scores          ScoreMap         `json:"scores"`
	Selected        []Scored         `json:"selected"`
	Model           string           `json:"model"`
	Latency         time.Duration    `json:"-"`
	Cached          bool             `json:"-"`
}

// EngineConfig configures an Engine. A nil Cache disables result caching.
type EngineConfig struct {
	Select   SelectOptions
	Cache    cache.Client
	CacheTTL time.Duration
}

// Engine runs the recommendation pipeline. It is safe for concurrent use.
type Engine struct {
	catalog   *Catalog
	processor nlp.Processor
	logger    *observability.Logger
	cfg       EngineConfig
}

// NewEngine creates an engine over a built catalog.
func NewEngine(catalog *Catalog, processor nlp.Processor, logger *observability.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.Select.MaxResults < 1 {
		cfg.Select = DefaultSelectOptions()
	}
	return &Engine{
		catalog:   catalog,
		processor: processor,
		logger:    logger,
		cfg:       cfg,
	}
}

// Catalog returns the engine's chart catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Recommend returns between one and MaxResults charts for query and response.
func (e *Engine) Recommend(ctx context.Context, query, response string) ([]Recommendation, error) {
	res, err := e.Analyze(ctx, query, response)
	if err != nil {
		return nil, err
	}
	return res.Recommendations, nil
}

// Analyze runs the pipeline and keeps every intermediate value.
func (e *Engine) Analyze(ctx context.Context, query, response string) (*Result, error) {
	start := time.Now()
	log := e.logger.WithContext(ctx).WithOperation("recommend")

	key := e.cacheKey(query, response)
	if res, ok := e.cached(ctx, key); ok {
		res.Latency = time.Since(start)
		return res, nil
	}

	stage := time.Now()
	combined, err := e.processor.Process(ctx, CombinedText(query, response))
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues("nlp").Inc()
		return nil, fmt.Errorf("process text: %w", err)
	}
	responseDoc, err := e.processor.Process(ctx, response)
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues("nlp").Inc()
		return nil, fmt.Errorf("process response: %w", err)
	}
	features := ExtractFeatures(combined).ApplyStructure(AnalyzeStructure(response, responseDoc))
	metrics.RecommendationDuration.WithLabelValues("nlp").Observe(time.Since(stage).Seconds())

	stage = time.Now()
	baseline, err := SimilarityScores(ctx, e.catalog, query, response)
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues("embedding").Inc()
		return nil, err
	}
	metrics.RecommendationDuration.WithLabelValues("embedding").Observe(time.Since(stage).Seconds())

	scores := AdjustForContext(Boost(baseline, features), query, features)
	selected := Select(scores, features, e.cfg.Select)

	normalized := NormalizeScores(selected)
	recs := make([]Recommendation, len(normalized))
	for i, s := range normalized {
		recs[i] = Recommendation{
			Chart:       s.Chart,
			Score:       s.Score,
			Explanation: Explain(s.Chart, features),
			Category:    CategoryOf(s.Chart),
		}
		metrics.RecommendationsTotal.WithLabelValues(s.Chart).Inc()
	}

	res := &Result{
		Recommendations: recs,
		Features:        features,
		Baseline:        baseline,
		Scores:          scores,
		Selected:        selected,
		Model:           e.catalog.Model(),
		Latency:         time.Since(start),
	}
	metrics.RecommendationDuration.WithLabelValues("total").Observe(res.Latency.Seconds())

	log.Debug().
		Interface("selected", selected).
		Bool("time_series", features.HasTimeSeries).
		Int("percentage_indicators", features.PercentageIndicators).
		Dur("latency", res.Latency).
		Msg("Recommendation computed")

	e.store(ctx, key, res)
	return res, nil
}

func (e *Engine) cacheKey(query, response string) string {
	opts := e.cfg.Select
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d|%g|%g\x00",
		e.catalog.Model(), e.processor.Name(),
		opts.MaxResults, opts.DiversityThreshold, opts.DonutForceThreshold)
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(response))
	return cache.Key("rec", hex.EncodeToString(h.Sum(nil)))
}

func (e *Engine) cached(ctx context.Context, key string) (*Result, bool) {
	if e.cfg.Cache == nil {
		return nil, false
	}

	data, err := e.cfg.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("Recommendation cache get failed")
		}
		metrics.CacheMisses.WithLabelValues("recommendation").Inc()
		return nil, false
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		e.logger.Warn().Err(err).Msg("Discarding corrupt cached recommendation")
		metrics.CacheMisses.WithLabelValues("recommendation").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("recommendation").Inc()
	res.Cached = true
	return &res, true
}

func (e *Engine) store(ctx context.Context, key string, res *Result) {
	if e.cfg.Cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to encode recommendation for cache")
		return
	}
	if err := e.cfg.Cache.Set(ctx, key, data, e.cfg.CacheTTL); err != nil {
		e.logger.Warn().Err(err).Msg("Recommendation cache set failed")
	}
}
