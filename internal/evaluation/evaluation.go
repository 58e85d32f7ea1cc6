// Package evaluation runs labelled query/response cases through a recommender
// and reports which expectations hold.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kgviz/vizrec/internal/validation"
	"github.com/kgviz/vizrec/internal/viz"
)

// Case is one labelled example.
type Case struct {
	Name          string         `yaml:"name" json:"name" validate:"required"`
	Query         string         `yaml:"query" json:"query" validate:"required"`
	Response      string         `yaml:"response" json:"response" validate:"required"`
	ExpectInclude []string       `yaml:"expect_include" json:"expect_include,omitempty"`
	ExpectExclude []string       `yaml:"expect_exclude" json:"expect_exclude,omitempty"`
	ExpectTopN    map[string]int `yaml:"expect_top_n" json:"expect_top_n,omitempty"`
}

// Suite is a case file.
type Suite struct {
	Cases []Case `yaml:"cases" validate:"required,min=1,dive"`
}

// LoadSuite reads and validates a YAML case file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses and validates YAML case data.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if err := validation.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid cases: %w", err)
	}
	for _, c := range s.Cases {
		for _, id := range append(append([]string{}, c.ExpectInclude...), c.ExpectExclude...) {
			if _, ok := viz.Lookup(id); !ok {
				return nil, fmt.Errorf("case %q: unknown chart %q", c.Name, id)
			}
		}
		for id, n := range c.ExpectTopN {
			if _, ok := viz.Lookup(id); !ok {
				return nil, fmt.Errorf("case %q: unknown chart %q", c.Name, id)
			}
			if n < 1 {
				return nil, fmt.Errorf("case %q: expect_top_n for %q must be at least 1", c.Name, id)
			}
		}
	}
	return &s, nil
}

// Recommender produces chart recommendations.
type Recommender interface {
	Recommend(ctx context.Context, query, response string) ([]viz.Recommendation, error)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Charts   []string      `json:"charts"`
	Failures []string      `json:"failures,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarises a run. Results keep the suite's case order.
type Report struct {
	Results []CaseResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// Options tunes a run.
type Options struct {
	Workers int
	// OnResult is called after each case completes, from the worker goroutine.
	OnResult func(CaseResult)
}

// Run evaluates every case with at most opts.Workers in flight. A case whose
// recommender call fails is reported as failed; only ctx cancellation aborts.
func Run(ctx context.Context, rec Recommender, suite *Suite, opts Options) (*Report, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 4
	}

	results := make([]CaseResult, len(suite.Cases))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range suite.Cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := evaluate(ctx, rec, c)
			results[i] = r
			if opts.OnResult != nil {
				mu.Lock()
				opts.OnResult(r)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func evaluate(ctx context.Context, rec Recommender, c Case) CaseResult {
	start := time.Now()
	res := CaseResult{Name: c.Name}

	recs, err := rec.Recommend(ctx, c.Query, c.Response)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	rank := make(map[string]int, len(recs))
	for i, r := range recs {
		res.Charts = append(res.Charts, r.Chart)
		rank[r.Chart] = i + 1
	}

	for _, id := range c.ExpectInclude {
		if _, ok := rank[id]; !ok {
			res.Failures = append(res.Failures, fmt.Sprintf("expected %s in results", id))
		}
	}
	for _, id := range c.ExpectExclude {
		if _, ok := rank[id]; ok {
			res.Failures = append(res.Failures, fmt.Sprintf("expected %s absent, got rank %d", id, rank[id]))
		}
	}

	ids := make([]string, 0, len(c.ExpectTopN))
	for id := range c.ExpectTopN {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := c.ExpectTopN[id]
		if r, ok := rank[id]; !ok || r > n {
			res.Failures = append(res.Failures, fmt.Sprintf("expected %s in top %d", id, n))
		}
	}

	res.Passed = len(res.Failures) == 0
	return res
}
