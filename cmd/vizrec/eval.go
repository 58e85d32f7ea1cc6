package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kgviz/vizrec/internal/evaluation"
)

func newEvalCmd() *cobra.Command {
	var (
		casesPath string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run a labelled evaluation suite",
		Long: `Eval runs every case in a YAML suite and checks the expected charts:

  cases:
    - name: signup trend
      query: Show me the trend of user signups
      response: January 120, February 150, March 190
      expect_include: [line_chart]
      expect_exclude: [word_cloud]
      expect_top_n: {line_chart: 2}

The command fails when any case fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := evaluation.LoadSuite(casesPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			a, engine, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			bar := ui.ProgressBar(len(suite.Cases), "evaluating")
			report, err := evaluation.Run(ctx, engine, suite, evaluation.Options{
				Workers:  workers,
				OnResult: func(evaluation.CaseResult) { _ = bar.Add(1) },
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			if outputJSON {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(report.Results))
				for i, r := range report.Results {
					status := "PASS"
					detail := strings.Join(r.Charts, ", ")
					if !r.Passed {
						status = "FAIL"
						detail = strings.Join(r.Failures, "; ")
						if r.Err != "" {
							detail = r.Err
						}
					}
					rows[i] = []string{status, r.Name, detail}
				}
				ui.Section("Evaluation")
				ui.Table([]string{"", "CASE", "DETAIL"}, rows)
			}

			if report.Failed > 0 {
				ui.Error("%d of %d cases failed", report.Failed, len(report.Results))
				return fmt.Errorf("%d cases failed", report.Failed)
			}
			ui.Success("All %d cases passed", report.Passed)
			return nil
		},
	}

	cmd.Flags().StringVar(&casesPath, "cases", "", "YAML case file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent cases")
	_ = cmd.MarkFlagRequired("cases")

	return cmd
}
