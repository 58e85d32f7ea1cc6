package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/validation"
	"github.com/kgviz/vizrec/internal/viz"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// VisualizeHandler serves chart recommendations.
type VisualizeHandler struct {
	logger  *observability.Logger
	engine  Recommender
	history History
}

// NewVisualizeHandler creates a new handler. history may be nil.
func NewVisualizeHandler(logger *observability.Logger, engine Recommender, history History) *VisualizeHandler {
	return &VisualizeHandler{
		logger:  logger,
		engine:  engine,
		history: history,
	}
}

// VisualizeRequestDTO is the request body. Response may be a string or an
// object holding the text under "response".
type VisualizeRequestDTO struct {
	UserQuery interface{} `json:"user_query"`
	Response  interface{} `json:"response"`
	Explain   bool        `json:"explain,omitempty"`
}

// RecommendInput is a decoded request with text fields resolved.
type RecommendInput struct {
	UserQuery string `json:"user_query" validate:"notblank,max=10000"`
	Response  string `json:"response" validate:"notblank,max=500000"`
}

// RecommendationsResponseDTO is the /api/v1/recommendations response.
type RecommendationsResponseDTO struct {
	Recommendations []viz.Recommendation `json:"recommendations"`
	Model           string               `json:"model"`
	LatencyMs       int64                `json:"latency_ms"`
	Cached          bool                 `json:"cached"`
	Features        *viz.FeatureSet      `json:"features,omitempty"`
}

// Visualize handles POST /api/visualize and returns [[chart, score], ...].
func (h *VisualizeHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	response := unwrapResponse(req.Response)
	if !present(req.UserQuery) || !present(response) {
		writeError(w, h.logger, http.StatusBadRequest, "Missing user_query or response", "")
		return
	}

	res, ok := h.analyze(w, r, textOf(req.UserQuery), textOf(response))
	if !ok {
		return
	}

	pairs := make([][2]interface{}, len(res.Recommendations))
	for i, rec := range res.Recommendations {
		pairs[i] = [2]interface{}{rec.Chart, rec.Score}
	}
	writeJSON(w, h.logger, http.StatusOK, pairs)
}

// Recommend handles POST /api/v1/recommendations.
func (h *VisualizeHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	in := RecommendInput{
		UserQuery: textOf(req.UserQuery),
		Response:  textOf(unwrapResponse(req.Response)),
	}
	if err := validation.Struct(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	res, ok := h.analyze(w, r, in.UserQuery, in.Response)
	if !ok {
		return
	}

	out := RecommendationsResponseDTO{
		Recommendations: res.Recommendations,
		Model:           res.Model,
		LatencyMs:       res.Latency.Milliseconds(),
		Cached:          res.Cached,
	}
	if req.Explain {
		out.Features = &res.Features
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *VisualizeHandler) analyze(w http.ResponseWriter, r *http.Request, query, response string) (*viz.Result, bool) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	res, err := h.engine.Analyze(ctx, query, response)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, viz.ErrEmbedding) {
			status = http.StatusServiceUnavailable
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Recommendation failed")
		writeError(w, h.logger, status, "Recommendation failed", err.Error())
		return nil, false
	}

	if !res.Cached {
		h.record(ctx, query, response, res)
	}
	return res, true
}

func (h *VisualizeHandler) record(ctx context.Context, query, response string, res *viz.Result) {
	if h.history == nil {
		return
	}
	charts := make([]storage.ChartScore, len(res.Recommendations))
	for i, rec := range res.Recommendations {
		charts[i] = storage.ChartScore{Chart: rec.Chart, Score: rec.Score}
	}
	entry := storage.NewEntry(observability.RequestIDFromContext(ctx), query, len(response), res.Model, charts, res.Latency)
	if err := h.history.Record(ctx, entry); err != nil {
		h.logger.WithContext(ctx).Warn().Err(err).Msg("Failed to record recommendation")
	}
}

// unwrapResponse extracts the inner text of {"response": ...} bodies.
func unwrapResponse(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		if inner, ok := m["response"]; ok {
			return inner
		}
	}
	return v
}

// present reports whether a decoded JSON value is non-empty.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

// textOf returns v if it is a string and "" otherwise.
func textOf(v interface{}) string {
	s, _ := v.(string)
	return s
}
