package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/topics"
	"github.com/kgviz/vizrec/internal/viz"
)

// CatalogHandler serves read-only reference data.
type CatalogHandler struct {
	logger  *observability.Logger
	topics  *topics.Source
	history History
}

// NewCatalogHandler creates a new handler. history may be nil.
func NewCatalogHandler(logger *observability.Logger, topicSource *topics.Source, history History) *CatalogHandler {
	return &CatalogHandler{
		logger:  logger,
		topics:  topicSource,
		history: history,
	}
}

// ChartDTO describes one chart type.
type ChartDTO struct {
	ID          string `json:"id"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
}

// Charts handles GET /api/v1/charts.
func (h *CatalogHandler) Charts(w http.ResponseWriter, r *http.Request) {
	types := viz.ChartTypes()
	out := make([]ChartDTO, len(types))
	for i, c := range types {
		out[i] = ChartDTO{ID: c.ID, Category: c.Category, Description: c.Description}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"charts": out})
}

// Subreddits handles GET /api/subreddits.
func (h *CatalogHandler) Subreddits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.topics.Load())
}

// History handles GET /api/v1/history?limit=N.
func (h *CatalogHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, h.logger, http.StatusNotFound, "History is disabled", "")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, h.logger, http.StatusBadRequest, "limit must be between 1 and 500", "")
			return
		}
		limit = n
	}

	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("List history failed")
		writeError(w, h.logger, http.StatusInternalServerError, "List history failed", err.Error())
		return
	}
	if entries == nil {
		entries = []*storage.Entry{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"entries": entries})
}

// HistoryEntry handles GET /api/v1/history/{id}.
func (h *CatalogHandler) HistoryEntry(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, h.logger, http.StatusNotFound, "History is disabled", "")
		return
	}

	entry, err := h.history.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Entry not found", "")
		return
	}
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Get history entry failed")
		writeError(w, h.logger, http.StatusInternalServerError, "Get history entry failed", err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, entry)
}
