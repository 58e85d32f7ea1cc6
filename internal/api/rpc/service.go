// Package rpc exposes the recommendation engine as a Connect service.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/validation"
	"github.com/kgviz/vizrec/internal/viz"
)

// RecommendProcedure is the fully-qualified Recommend procedure path.
const RecommendProcedure = "/vizrec.v1.RecommendationService/Recommend"

// Recommender produces chart recommendations.
type Recommender interface {
	Analyze(ctx context.Context, query, response string) (*viz.Result, error)
}

// Recorder persists served recommendations.
type Recorder interface {
	Record(ctx context.Context, e *storage.Entry) error
}

// RecommendRequest is the Recommend request message.
type RecommendRequest struct {
	UserQuery string `json:"user_query" validate:"notblank"`
	Response  string `json:"response" validate:"notblank"`
	Explain   bool   `json:"explain,omitempty"`
}

// RecommendResponse is the Recommend response message.
type RecommendResponse struct {
	Recommendations []viz.Recommendation `json:"recommendations"`
	Model           string               `json:"model"`
	LatencyMs       int64                `json:"latency_ms"`
	Features        *viz.FeatureSet      `json:"features,omitempty"`
}

// RecommendationService implements the Connect recommendation service.
type RecommendationService struct {
	engine   Recommender
	recorder Recorder
	logger   *observability.Logger
}

// NewRecommendationService creates a new service. recorder may be nil.
func NewRecommendationService(engine Recommender, recorder Recorder, logger *observability.Logger) *RecommendationService {
	if logger == nil {
		logger = observability.Nop()
	}
	return &RecommendationService{
		engine:   engine,
		recorder: recorder,
		logger:   logger,
	}
}

// Recommend handles Connect recommendation calls.
func (s *RecommendationService) Recommend(ctx context.Context, req *connect.Request[RecommendRequest]) (*connect.Response[RecommendResponse], error) {
	msg := req.Msg
	if err := validation.Struct(msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	res, err := s.engine.Analyze(ctx, msg.UserQuery, msg.Response)
	if err != nil {
		s.logger.Error().Err(err).Str("procedure", RecommendProcedure).Msg("Recommendation failed")
		return nil, connect.NewError(errorCode(err), err)
	}

	if s.recorder != nil && !res.Cached {
		entry := storage.NewEntry(observability.RequestIDFromContext(ctx), msg.UserQuery, len(msg.Response), res.Model, chartScores(res.Recommendations), res.Latency)
		if err := s.recorder.Record(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to record recommendation")
		}
	}

	out := &RecommendResponse{
		Recommendations: res.Recommendations,
		Model:           res.Model,
		LatencyMs:       res.Latency.Milliseconds(),
	}
	if msg.Explain {
		out.Features = &res.Features
	}
	return connect.NewResponse(out), nil
}

// NewHandler returns the mount path and handler for the service.
func NewHandler(svc *RecommendationService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)
	mux := http.NewServeMux()
	mux.Handle(RecommendProcedure, connect.NewUnaryHandler(RecommendProcedure, svc.Recommend, opts...))
	return "/vizrec.v1.RecommendationService/", mux
}

func errorCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, viz.ErrEmbedding):
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

func chartScores(recs []viz.Recommendation) []storage.ChartScore {
	out := make([]storage.ChartScore, len(recs))
	for i, r := range recs {
		out[i] = storage.ChartScore{Chart: r.Chart, Score: r.Score}
	}
	return out
}

// Codec returns the JSON codec used by the service. Clients must use it too.
func Codec() connect.Codec {
	return jsonCodec{}
}

// jsonCodec marshals plain Go structs; the service has no protobuf schema.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
