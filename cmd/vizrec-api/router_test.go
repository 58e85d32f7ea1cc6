package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgviz/vizrec/internal/api/rpc"
	"github.com/kgviz/vizrec/internal/embedding"
	"github.com/kgviz/vizrec/internal/nlp"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/topics"
	"github.com/kgviz/vizrec/internal/viz"
	"github.com/kgviz/vizrec/pkg/client"
)

func newTestServer(t *testing.T, ready bool) *httptest.Server {
	t.Helper()
	catalog, err := viz.NewCatalog(context.Background(), embedding.NewHashingEmbedder(128))
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(RouterDeps{
		Logger:         observability.Nop(),
		Engine:         viz.NewEngine(catalog, nlp.NewRuleProcessor(), nil, viz.EngineConfig{}),
		Topics:         topics.NewSource("", nil),
		Ready:          func() bool { return ready },
		CORSOrigins:    []string{"*"},
		RateLimit:      100,
		RateWindow:     time.Minute,
		RequestTimeout: 5 * time.Second,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_Status(t *testing.T) {
	srv := newTestServer(t, true)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/", status: http.StatusOK, body: `"API is running"`},
		{path: "/health", status: http.StatusOK, body: `"healthy"`},
		{path: "/ready", status: http.StatusOK, body: `"ready"`},
		{path: "/api/subreddits", status: http.StatusOK, body: `"TravelHacks"`},
		{path: "/api/v1/charts", status: http.StatusOK, body: `"donut_chart"`},
		{path: "/api/v1/history", status: http.StatusNotFound, body: `History is disabled`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			var buf bytes.Buffer
			_, _ = buf.ReadFrom(resp.Body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, buf.String(), tt.body)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestRouter_NotReady(t *testing.T) {
	srv := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouter_Visualize(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"user_query":"Show me the trend of user signups over the last 6 months","response":"Signups grew steadily: January 120, February 150, March 190, April 240, May 310 and June 400 new users."}`
	resp, err := http.Post(srv.URL+"/api/visualize", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pairs [][]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pairs))
	var charts []string
	for _, p := range pairs {
		charts = append(charts, p[0].(string))
	}
	assert.Contains(t, charts, viz.LineChart)
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), `http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestRouter_Connect(t *testing.T) {
	srv := newTestServer(t, true)

	rpcClient := connect.NewClient[rpc.RecommendRequest, rpc.RecommendResponse](
		srv.Client(),
		srv.URL+rpc.RecommendProcedure,
		connect.WithCodec(rpc.Codec()),
	)
	resp, err := rpcClient.CallUnary(context.Background(), connect.NewRequest(&rpc.RecommendRequest{
		UserQuery: "Which plans do our customers choose?",
		Response:  "Plan A: 40%, Plan B: 35%, Plan C: 25%",
	}))
	require.NoError(t, err)

	var charts []string
	for _, r := range resp.Msg.Recommendations {
		charts = append(charts, r.Chart)
	}
	assert.Contains(t, charts, viz.DonutChart)
}

func TestRouter_SDKClient(t *testing.T) {
	srv := newTestServer(t, true)
	c, err := client.NewClient(client.ClientConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	resp, err := c.Recommend(ctx, client.RecommendRequest{
		UserQuery: "What is the breakdown of market share by company?",
		Response:  "Apple holds 40% of the market. Samsung accounts for 30%. Google has 20%. Microsoft makes up the remaining 10%.",
		Explain:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, "hashing-v1-128", resp.Model)
	assert.NotEmpty(t, resp.Features)

	pairs, err := c.Visualize(ctx, "Which plans do our customers choose?", "Plan A: 40%, Plan B: 35%, Plan C: 25%")
	require.NoError(t, err)
	require.NotEmpty(t, pairs)

	charts, err := c.Charts(ctx)
	require.NoError(t, err)
	assert.Len(t, charts, len(viz.ChartIDs()))

	_, err = c.Recommend(ctx, client.RecommendRequest{UserQuery: " ", Response: "x"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = c.History(ctx, 5)
	assert.True(t, client.IsNotFound(err))
}
