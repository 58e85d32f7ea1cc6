// Package topics serves the subreddit to topics map used by the front-end picker.
package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kgviz/vizrec/internal/observability"
)

// Map is subreddit name to topic keywords.
type Map map[string][]string

// Names returns the subreddit names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fallback is served when the topics file cannot be read.
func Fallback() Map {
	return Map{
		"TravelHacks":    {"iterninary", "mexican", "searched", "prepared", "pack", "lagging", "trolley"},
		"CryptoCurrency": {"kanye", "adress", "brightly", "aped", "pointless", "awakens", "tulsi"},
	}
}

// Source reads the topics file on every call so an external job can rewrite it.
type Source struct {
	path   string
	logger *observability.Logger
}

// NewSource creates a source for path.
func NewSource(path string, logger *observability.Logger) *Source {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Source{path: path, logger: logger}
}

// Path returns the file path.
func (s *Source) Path() string {
	return s.path
}

// Load returns the file's map, or Fallback when it is missing or invalid.
func (s *Source) Load() Map {
	m, err := ReadFile(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Serving fallback subreddit topics")
		return Fallback()
	}
	return m
}

// ReadFile parses a topics JSON file.
func ReadFile(path string) (Map, error) {
	if path == "" {
		return nil, fmt.Errorf("no topics file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("parse topics file: expected an object")
	}
	return m, nil
}
