package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kgviz/vizrec/internal/evaluation"
	"github.com/kgviz/vizrec/internal/viz"
)

// batchItem is one input line.
type batchItem struct {
	ID        string `json:"id,omitempty"`
	UserQuery string `json:"user_query"`
	Response  string `json:"response"`
}

// batchResult is one output line.
type batchResult struct {
	ID              string               `json:"id,omitempty"`
	UserQuery       string               `json:"user_query"`
	Recommendations []viz.Recommendation `json:"recommendations,omitempty"`
	Error           string               `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var (
		input   string
		output  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Recommend charts for every line of a JSONL file",
		Long: `Batch reads {"id", "user_query", "response"} objects, one per line,
and writes one result object per line in the same order. Failed lines carry
an "error" field instead of recommendations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			items, err := readBatch(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			progress := ui.Progress()
			bar := ui.AddBar(progress, "batch", int64(len(items)))
			results, err := runBatch(ctx, engine, items, workers, func() {
				if bar != nil {
					bar.Increment()
				}
			})
			if progress != nil {
				progress.Wait()
			}
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := writeBatch(out, results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if output != "" && output != "-" {
				ui.Success("Wrote %d results to %s (%d failed)", len(results), output, failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "input JSONL file (- for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output JSONL file (- for stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent requests")

	return cmd
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func readBatch(r io.Reader) ([]batchItem, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var items []batchItem
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item batchItem
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return items, nil
}

// runBatch keeps input order. Per-item failures are reported in the result;
// only ctx cancellation stops the run.
func runBatch(ctx context.Context, rec evaluation.Recommender, items []batchItem, workers int, done func()) ([]batchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]batchResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := batchResult{ID: item.ID, UserQuery: item.UserQuery}
			if strings.TrimSpace(item.UserQuery) == "" || strings.TrimSpace(item.Response) == "" {
				res.Error = "missing user_query or response"
			} else if recs, err := rec.Recommend(ctx, item.UserQuery, item.Response); err != nil {
				res.Error = err.Error()
			} else {
				res.Recommendations = recs
			}
			results[i] = res
			if done != nil {
				done()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeBatch(w io.Writer, results []batchResult) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return bw.Flush()
}
