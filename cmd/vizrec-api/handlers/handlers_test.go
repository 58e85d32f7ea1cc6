package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgviz/vizrec/internal/embedding"
	"github.com/kgviz/vizrec/internal/nlp"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/topics"
	"github.com/kgviz/vizrec/internal/viz"
)

type memoryHistory struct {
	mu      sync.Mutex
	entries []*storage.Entry
}

func (m *memoryHistory) Record(_ context.Context, e *storage.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = "id-" + e.Query
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryHistory) List(_ context.Context, limit int) ([]*storage.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *memoryHistory) GetByID(_ context.Context, id string) (*storage.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

type failingEngine struct{ err error }

func (f failingEngine) Analyze(context.Context, string, string) (*viz.Result, error) {
	return nil, f.err
}

func newEngine(t *testing.T) *viz.Engine {
	t.Helper()
	catalog, err := viz.NewCatalog(context.Background(), embedding.NewHashingEmbedder(128))
	require.NoError(t, err)
	return viz.NewEngine(catalog, nlp.NewRuleProcessor(), nil, viz.EngineConfig{})
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestVisualize(t *testing.T) {
	history := &memoryHistory{}
	h := NewVisualizeHandler(observability.Nop(), newEngine(t), history)

	tests := []struct {
		name string
		body string
	}{
		{name: "string response", body: `{"user_query":"Which plans do our customers choose?","response":"Plan A: 40%, Plan B: 35%, Plan C: 25%"}`},
		{name: "wrapped response", body: `{"user_query":"Which plans do our customers choose?","response":{"response":"Plan A: 40%, Plan B: 35%, Plan C: 25%"}}`},
		{name: "non-string response", body: `{"user_query":"Compare teams","response":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Visualize, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var pairs [][]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
			require.NotEmpty(t, pairs)
			assert.LessOrEqual(t, len(pairs), 4)
			for _, p := range pairs {
				require.Len(t, p, 2)
				_, ok := viz.Lookup(p[0].(string))
				assert.True(t, ok)
				assert.IsType(t, float64(0), p[1])
			}
		})
	}

	assert.Len(t, history.entries, 3)
}

func TestVisualize_DonutForPercentages(t *testing.T) {
	h := NewVisualizeHandler(observability.Nop(), newEngine(t), nil)
	rec := post(h.Visualize, `{"user_query":"Which plans do our customers choose?","response":"Plan A: 40%, Plan B: 35%, Plan C: 25%"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var pairs [][]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	var charts []string
	for _, p := range pairs {
		charts = append(charts, p[0].(string))
	}
	assert.Contains(t, charts, viz.DonutChart)
}

func TestVisualize_BadRequests(t *testing.T) {
	h := NewVisualizeHandler(observability.Nop(), newEngine(t), nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing query", body: `{"response":"text"}`, want: "Missing user_query or response"},
		{name: "empty response", body: `{"user_query":"q","response":""}`, want: "Missing user_query or response"},
		{name: "empty wrapped response", body: `{"user_query":"q","response":{"response":""}}`, want: "Missing user_query or response"},
		{name: "zero response", body: `{"user_query":"q","response":0}`, want: "Missing user_query or response"},
		{name: "malformed", body: `{"user_query":`, want: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Visualize, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponseDTO
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Error)
		})
	}
}

func TestVisualize_EngineFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
		{name: "embedding", err: viz.ErrEmbedding, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewVisualizeHandler(observability.Nop(), failingEngine{err: tt.err}, nil)
			rec := post(h.Visualize, `{"user_query":"q","response":"r"}`)
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponseDTO
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Recommendation failed", body.Error)
			assert.Equal(t, tt.err.Error(), body.Detail)
		})
	}
}

func TestRecommend(t *testing.T) {
	h := NewVisualizeHandler(observability.Nop(), newEngine(t), nil)

	rec := post(h.Recommend, `{"user_query":"What is the breakdown of market share by company?","response":"Apple holds 40% of the market. Samsung accounts for 30%. Google has 20%. Microsoft makes up the remaining 10%.","explain":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out RecommendationsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Recommendations)
	assert.Equal(t, "hashing-v1-128", out.Model)
	for _, r := range out.Recommendations {
		assert.NotEmpty(t, r.Explanation)
	}
	require.NotNil(t, out.Features)
	assert.True(t, out.Features.SumToWhole)

	rec = post(h.Recommend, `{"user_query":"   ","response":"text"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_query must not be blank")
}

func TestCatalogHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"golang":["generics"]}`), 0o644))

	history := &memoryHistory{}
	require.NoError(t, history.Record(context.Background(), &storage.Entry{Query: "q1"}))
	h := NewCatalogHandler(observability.Nop(), topics.NewSource(path, nil), history)

	r := chi.NewRouter()
	r.Get("/charts", h.Charts)
	r.Get("/subreddits", h.Subreddits)
	r.Get("/history", h.History)
	r.Get("/history/{id}", h.HistoryEntry)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/charts")
	require.Equal(t, http.StatusOK, rec.Code)
	var charts struct {
		Charts []ChartDTO `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
	assert.Len(t, charts.Charts, 19)

	rec = get("/subreddits")
	assert.JSONEq(t, `{"golang":["generics"]}`, rec.Body.String())

	rec = get("/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query":"q1"`)

	assert.Equal(t, http.StatusBadRequest, get("/history?limit=0").Code)
	assert.Equal(t, http.StatusOK, get("/history/id-q1").Code)
	assert.Equal(t, http.StatusNotFound, get("/history/absent").Code)
}

func TestCatalogHandler_HistoryDisabled(t *testing.T) {
	h := NewCatalogHandler(observability.Nop(), topics.NewSource("", nil), nil)
	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresent(t *testing.T) {
	tests := []struct {
		v    interface{}
		want bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{0.0, false},
		{1.5, true},
		{false, false},
		{true, true},
		{[]interface{}{}, false},
		{[]interface{}{"a"}, true},
		{map[string]interface{}{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, present(tt.v), "%#v", tt.v)
	}
}
