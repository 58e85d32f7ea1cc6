// Package client provides the public Go SDK for the chart recommendation API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is used when ClientConfig.BaseURL is empty.
const DefaultBaseURL = "http://localhost:5000"

// Client is the public SDK client for vizrec-api.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}, nil
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("vizrec: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("vizrec: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// RecommendRequest is a recommendation request.
type RecommendRequest struct {
	UserQuery string `json:"user_query"`
	Response  string `json:"response"`
	Explain   bool   `json:"explain,omitempty"`
}

// Recommendation is one recommended chart.
type Recommendation struct {
	Chart       string  `json:"chart"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Category    string  `json:"category,omitempty"`
}

// RecommendResponse is a recommendation response. Features is only set when
// the request asked for an explanation.
type RecommendResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Model           string           `json:"model"`
	LatencyMs       int64            `json:"latency_ms"`
	Cached          bool             `json:"cached"`
	Features        json.RawMessage  `json:"features,omitempty"`
}

// ChartScore is a (chart, score) pair.
type ChartScore struct {
	Chart string  `json:"chart"`
	Score float64 `json:"score"`
}

// Chart describes one supported chart type.
type Chart struct {
	ID          string `json:"id"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
}

// HistoryEntry is one logged recommendation.
type HistoryEntry struct {
	ID            string       `json:"id"`
	RequestID     string       `json:"request_id,omitempty"`
	QueryHash     string       `json:"query_hash"`
	Query         string       `json:"query"`
	ResponseChars int          `json:"response_chars"`
	Model         string       `json:"model"`
	Charts        []ChartScore `json:"charts"`
	LatencyMS     int64        `json:"latency_ms"`
	CreatedAt     time.Time    `json:"created_at"`
}

// HealthResponse is a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// Recommend calls POST /api/v1/recommendations.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	var out RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/recommendations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Visualize calls the legacy POST /api/visualize endpoint.
func (c *Client) Visualize(ctx context.Context, userQuery, response string) ([]ChartScore, error) {
	var pairs [][2]interface{}
	body := RecommendRequest{UserQuery: userQuery, Response: response}
	if err := c.do(ctx, http.MethodPost, "/api/visualize", body, &pairs); err != nil {
		return nil, err
	}

	out := make([]ChartScore, 0, len(pairs))
	for _, p := range pairs {
		chart, ok := p[0].(string)
		score, ok2 := p[1].(float64)
		if !ok || !ok2 {
			return nil, fmt.Errorf("unexpected visualize pair %v", p)
		}
		out = append(out, ChartScore{Chart: chart, Score: score})
	}
	return out, nil
}

// Charts lists the supported chart types.
func (c *Client) Charts(ctx context.Context) ([]Chart, error) {
	var out struct {
		Charts []Chart `json:"charts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/charts", nil, &out); err != nil {
		return nil, err
	}
	return out.Charts, nil
}

// Topics returns the subreddit topic map.
func (c *Client) Topics(ctx context.Context) (map[string][]string, error) {
	var out map[string][]string
	if err := c.do(ctx, http.MethodGet, "/api/subreddits", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists the most recent logged recommendations.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Entries []HistoryEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// HistoryEntry fetches one logged recommendation.
func (c *Client) HistoryEntry(ctx context.Context, id string) (*HistoryEntry, error) {
	var out HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/history/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
