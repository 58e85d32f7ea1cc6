package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChartScore is one chart in a logged result.
type ChartScore struct {
	Chart string  `json:"chart"`
	Score float64 `json:"score"`
}

// Entry is a logged recommendation request.
type Entry struct {
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

// NewEntry builds an entry for a served request.
func NewEntry(requestID, query string, responseChars int, model string, charts []ChartScore, latency time.Duration) *Entry {
	return &Entry{
		RequestID:     requestID,
		Query:         query,
		ResponseChars: responseChars,
		Model:         model,
		Charts:        charts,
		LatencyMS:     latency.Milliseconds(),
	}
}

// RecommendationLog stores served recommendations.
type RecommendationLog struct {
	db     DB
	driver string
}

// NewRecommendationLog creates a log over db.
func NewRecommendationLog(db DB, driver string) *RecommendationLog {
	return &RecommendationLog{db: db, driver: driver}
}

// Migrate brings the schema up to date.
func (r *RecommendationLog) Migrate(ctx context.Context) error {
	_, err := Migrate(ctx, r.db, r.driver)
	return err
}

// HashQuery returns the hex SHA-256 of a query.
func HashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// Record inserts e, filling ID, QueryHash and CreatedAt when unset.
func (r *RecommendationLog) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.QueryHash == "" {
		e.QueryHash = HashQuery(e.Query)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Charts == nil {
		e.Charts = []ChartScore{}
	}

	charts, err := json.Marshal(e.Charts)
	if err != nil {
		return fmt.Errorf("marshal charts: %w", err)
	}

	query := `
		INSERT INTO recommendations (id, request_id, query_hash, query, response_chars, model, charts, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.RequestID, e.QueryHash, e.Query, e.ResponseChars, e.Model, string(charts), e.LatencyMS, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by id.
func (r *RecommendationLog) GetByID(ctx context.Context, id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, request_id, query_hash, query, response_chars, model, charts, latency_ms, created_at
		FROM recommendations WHERE id = $1
	`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return e, nil
}

// List returns the most recent entries, newest first.
func (r *RecommendationLog) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, request_id, query_hash, query, response_chars, model, charts, latency_ms, created_at
		FROM recommendations
		ORDER BY created_at DESC, id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e      Entry
		charts []byte
	)
	err := row.Scan(&e.ID, &e.RequestID, &e.QueryHash, &e.Query, &e.ResponseChars, &e.Model, &charts, &e.LatencyMS, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(charts, &e.Charts); err != nil {
		return nil, fmt.Errorf("decode charts: %w", err)
	}
	return &e, nil
}
