// Package handlers provides HTTP handlers for the recommender API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/viz"
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Analyze(ctx context.Context, query, response string) (*viz.Result, error)
}

// History stores and reads served recommendations.
type History interface {
	Record(ctx context.Context, e *storage.Entry) error
	List(ctx context.Context, limit int) ([]*storage.Entry, error)
	GetByID(ctx context.Context, id string) (*storage.Entry, error)
}

// ErrorResponseDTO is the body of every non-2xx response.
type ErrorResponseDTO struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *observability.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, logger *observability.Logger, status int, message, detail string) {
	writeJSON(w, logger, status, ErrorResponseDTO{Error: message, Detail: detail})
}
