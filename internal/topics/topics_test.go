package topics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subreddit_topics.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSource_Load(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want Map
	}{
		{
			name: "valid file",
			path: func(t *testing.T) string {
				return writeFile(t, `{"golang": ["generics", "modules"], "rust": []}`)
			},
			want: Map{"golang": {"generics", "modules"}, "rust": {}},
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
			want: Fallback(),
		},
		{
			name: "invalid json",
			path: func(t *testing.T) string { return writeFile(t, `{"golang": `) },
			want: Fallback(),
		},
		{
			name: "json null",
			path: func(t *testing.T) string { return writeFile(t, `null`) },
			want: Fallback(),
		},
		{
			name: "no path",
			path: func(t *testing.T) string { return "" },
			want: Fallback(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(tt.path(t), nil)
			assert.Equal(t, tt.want, s.Load())
		})
	}
}

func TestSource_ReloadsFile(t *testing.T) {
	path := writeFile(t, `{"a": ["x"]}`)
	s := NewSource(path, nil)
	assert.Equal(t, []string{"a"}, s.Load().Names())

	require.NoError(t, os.WriteFile(path, []byte(`{"b": ["y"], "a": ["x"]}`), 0o644))
	assert.Equal(t, []string{"a", "b"}, s.Load().Names())
}

func TestFallback(t *testing.T) {
	m := Fallback()
	assert.Equal(t, []string{"CryptoCurrency", "TravelHacks"}, m.Names())
	assert.Len(t, m["TravelHacks"], 7)
	assert.Contains(t, m["CryptoCurrency"], "kanye")
}
