// Package main provides the vizrec command-line interface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kgviz/vizrec/internal/app"
	"github.com/kgviz/vizrec/internal/config"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/viz"
)

var version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "vizrec",
	Short: "Chart recommendations for question and answer text",
	Long: `vizrec suggests chart types for a user question and the answer text
that responds to it.

Use this tool to:
- Get ranked chart recommendations with explanations
- Run JSONL batches and labelled evaluation suites
- Inspect the chart catalog and the recommendation history

All commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "vizrec-cli",
		})

		if noColor {
			color.NoColor = true
		}
		ui = NewUI(outputJSON, noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEngine builds the components and loads the chart catalog.
func openEngine(ctx context.Context) (*app.App, *viz.Engine, error) {
	stop := ui.Spinner("Loading chart catalog")
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	engine, err := a.Engine(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, engine, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the supported chart types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := viz.ChartTypes()
			if outputJSON {
				return printJSON(types)
			}

			rows := make([][]string, len(types))
			for i, c := range types {
				category := c.Category
				if category == "" {
					category = "-"
				}
				rows[i] = []string{c.ID, category, c.Rationale}
			}
			ui.Section("Chart catalog")
			ui.Table([]string{"CHART", "GROUP", "USE"}, rows)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently served recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.History == nil {
				return fmt.Errorf("history requires storage; set storage.driver to sqlite or postgres")
			}

			entries, err := a.History.List(ctx, limit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				ui.Info("No recommendations recorded yet")
				return nil
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				charts := make([]string, len(e.Charts))
				for j, c := range e.Charts {
					charts[j] = c.Chart
				}
				rows[i] = []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					truncate(e.Query, 48),
					strings.Join(charts, ", "),
					fmt.Sprintf("%dms", e.LatencyMS),
				}
			}
			ui.Table([]string{"WHEN", "QUERY", "CHARTS", "LATENCY"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				_ = printJSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
				return
			}
			fmt.Printf("vizrec v%s\n", version)
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
