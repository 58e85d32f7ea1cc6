package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/viz"
	"github.com/kgviz/vizrec/pkg/client"
)

func newRecommendCmd() *cobra.Command {
	var (
		query        string
		response     string
		responseFile string
		explain      bool
		server       string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend charts for a question and its answer",
		Long: `Recommend ranks chart types for a question and the answer text.

The answer can be given inline with --response or read from a file with
--response-file ("-" reads stdin). --explain also prints the detected
features and the raw scores before selection.

With --server the request is sent to a running vizrec-api instead of
loading the catalog locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResponse(response, responseFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(query) == "" || strings.TrimSpace(text) == "" {
				return fmt.Errorf("both --query and a response are required")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if server != "" {
				return recommendRemote(ctx, server, query, text, explain)
			}

			a, engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := engine.Analyze(ctx, query, text)
			if err != nil {
				return err
			}

			if a.History != nil && !res.Cached {
				charts := make([]storage.ChartScore, len(res.Recommendations))
				for i, r := range res.Recommendations {
					charts[i] = storage.ChartScore{Chart: r.Chart, Score: r.Score}
				}
				entry := storage.NewEntry("cli", query, len(text), res.Model, charts, res.Latency)
				if err := a.History.Record(ctx, entry); err != nil {
					logger.Warn().Err(err).Msg("Failed to record recommendation")
				}
			}

			if outputJSON {
				if explain {
					return printJSON(res)
				}
				return printJSON(res.Recommendations)
			}

			printRecommendations(res.Recommendations)
			if explain {
				printExplain(res)
			}
			ui.Info("%s in %s", res.Model, res.Latency.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "user question")
	cmd.Flags().StringVarP(&response, "response", "r", "", "answer text")
	cmd.Flags().StringVarP(&responseFile, "response-file", "f", "", "read answer text from file (- for stdin)")
	cmd.Flags().BoolVar(&explain, "explain", false, "show features and intermediate scores")
	cmd.Flags().StringVar(&server, "server", "", "vizrec-api base URL (e.g. http://localhost:5000)")
	cmd.MarkFlagsMutuallyExclusive("response", "response-file")

	return cmd
}

func recommendRemote(ctx context.Context, server, query, text string, explain bool) error {
	c, err := client.NewClient(client.ClientConfig{BaseURL: server})
	if err != nil {
		return err
	}

	stop := ui.Spinner("Requesting recommendations from " + server)
	resp, err := c.Recommend(ctx, client.RecommendRequest{UserQuery: query, Response: text, Explain: explain})
	stop()
	if err != nil {
		return err
	}

	if outputJSON {
		if explain {
			return printJSON(resp)
		}
		return printJSON(resp.Recommendations)
	}

	recs := make([]viz.Recommendation, len(resp.Recommendations))
	for i, r := range resp.Recommendations {
		recs[i] = viz.Recommendation{Chart: r.Chart, Score: r.Score, Explanation: r.Explanation, Category: r.Category}
	}
	printRecommendations(recs)
	if explain && len(resp.Features) > 0 {
		var f viz.FeatureSet
		if err := json.Unmarshal(resp.Features, &f); err != nil {
			return fmt.Errorf("decode features: %w", err)
		}
		ui.Section("Detected features")
		ui.Table([]string{"FEATURE", "VALUE"}, featureRows(f))
	}
	ui.Info("%s in %dms (cached: %t)", resp.Model, resp.LatencyMs, resp.Cached)
	return nil
}

func readResponse(inline, path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return inline, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read response file: %w", err)
		}
		return string(data), nil
	}
}

func printRecommendations(recs []viz.Recommendation) {
	ui.Section("Recommended charts")
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			r.Chart,
			fmt.Sprintf("%.2f %s", r.Score, ScoreBar(r.Score, 10)),
			r.Explanation,
		}
	}
	ui.Table([]string{"#", "CHART", "SCORE", "WHY"}, rows)
}

func printExplain(res *viz.Result) {
	ui.Section("Detected features")
	ui.Table([]string{"FEATURE", "VALUE"}, featureRows(res.Features))

	ui.Section("Scores")
	rows := make([][]string, 0, len(res.Scores))
	for _, s := range res.Scores.Ranked() {
		rows = append(rows, []string{
			s.Chart,
			fmt.Sprintf("%.3f", res.Baseline[s.Chart]),
			fmt.Sprintf("%.3f", s.Score),
		})
	}
	ui.Table([]string{"CHART", "SIMILARITY", "ADJUSTED"}, rows)
}

func featureRows(f viz.FeatureSet) [][]string {
	return [][]string{
		{"numbers", fmt.Sprintf("%d", len(f.Numbers))},
		{"locations", fmt.Sprintf("%d", f.LocationCount)},
		{"time series", fmt.Sprintf("%t", f.HasTimeSeries)},
		{"categories", fmt.Sprintf("%t", f.HasCategories)},
		{"percentages", fmt.Sprintf("%d", f.PercentageIndicators)},
		{"sums to whole", fmt.Sprintf("%t", f.SumToWhole)},
		{"text heavy", fmt.Sprintf("%t", f.IsTextHeavy)},
		{"table / lists", fmt.Sprintf("%t / %t", f.HasTable, f.HasLists)},
		{"keywords", strings.Join(keywords(f), ", ")},
	}
}

func keywords(f viz.FeatureSet) []string {
	var out []string
	for _, group := range [][]string{f.Trends, f.Relationships, f.Hierarchies, f.PartToWhole, f.Comparisons} {
		out = append(out, group...)
	}
	if len(out) == 0 {
		return []string{"-"}
	}
	return out
}
