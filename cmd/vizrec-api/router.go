package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kgviz/vizrec/cmd/vizrec-api/handlers"
	"github.com/kgviz/vizrec/cmd/vizrec-api/middleware"
	"github.com/kgviz/vizrec/internal/api/rpc"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/topics"
)

// RouterDeps holds everything the router serves.
type RouterDeps struct {
	Logger         *observability.Logger
	Engine         handlers.Recommender
	History        handlers.History // nil disables history routes
	Topics         *topics.Source
	Ready          func() bool
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

// NewRouter creates the API router with all routes configured.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(deps.CORSOrigins))
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"API is running"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"vizrec"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.Ready != nil && !deps.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	visualizeHandler := handlers.NewVisualizeHandler(deps.Logger, deps.Engine, deps.History)
	catalogHandler := handlers.NewCatalogHandler(deps.Logger, deps.Topics, deps.History)
	rpcPath, rpcHandler := rpc.NewHandler(rpc.NewRecommendationService(deps.Engine, deps.History, deps.Logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.RateLimit, deps.RateWindow))

		r.Post("/api/visualize", visualizeHandler.Visualize)
		r.Get("/api/subreddits", catalogHandler.Subreddits)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/recommendations", visualizeHandler.Recommend)
			r.Get("/charts", catalogHandler.Charts)
			r.Get("/history", catalogHandler.History)
			r.Get("/history/{id}", catalogHandler.HistoryEntry)
		})

		r.Mount(rpcPath, rpcHandler)
	})

	return r
}
