package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgviz/vizrec/internal/viz"
)

type stubRecommender struct{}

func (stubRecommender) Recommend(_ context.Context, query, _ string) ([]viz.Recommendation, error) {
	if query == "fail" {
		return nil, errors.New("backend down")
	}
	return []viz.Recommendation{{Chart: viz.BarChart, Score: 1}}, nil
}

func TestReadBatch(t *testing.T) {
	input := `{"id":"1","user_query":"q1","response":"r1"}

{"id":"2","user_query":"q2","response":"r2"}
`
	items, err := readBatch(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[1].ID)

	_, err = readBatch(strings.NewReader("{\"id\":\"1\"}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestRunBatch(t *testing.T) {
	items := []batchItem{
		{ID: "a", UserQuery: "q", Response: "r"},
		{ID: "b", UserQuery: "fail", Response: "r"},
		{ID: "c", UserQuery: "q"},
	}

	done := 0
	results, err := runBatch(context.Background(), stubRecommender{}, items, 1, func() { done++ })
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, done)

	assert.Equal(t, "a", results[0].ID)
	assert.Len(t, results[0].Recommendations, 1)
	assert.Equal(t, "backend down", results[1].Error)
	assert.Equal(t, "missing user_query or response", results[2].Error)

	var buf bytes.Buffer
	require.NoError(t, writeBatch(&buf, results))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"chart":"bar_chart"`)
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runBatch(ctx, stubRecommender{}, []batchItem{{UserQuery: "q", Response: "r"}}, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))

	got, err := readResponse("inline", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = readResponse("", path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readResponse("", "-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readResponse("", filepath.Join(t.TempDir(), "absent"), nil)
	assert.Error(t, err)
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "░░░░", ScoreBar(0, 4))
	assert.Equal(t, "██░░", ScoreBar(0.5, 4))
	assert.Equal(t, "████", ScoreBar(1.7, 4))
}

func TestUITable(t *testing.T) {
	var buf bytes.Buffer
	u := &UI{out: &buf, err: &buf, noColor: true}
	u.Table([]string{"A", "LONG"}, [][]string{{"xyz", "1"}, {"q", "22"}})
	assert.Equal(t, "A    LONG\nxyz  1\nq    22\n", buf.String())

	buf.Reset()
	quiet := &UI{out: &buf, err: &buf, jsonMode: true}
	quiet.Success("hidden")
	quiet.Table([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
