// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/synthbench/internal/dataset"
	"github.com/pdiddy/synthbench/internal/evaluate"
	"github.com/pdiddy/synthbench/internal/synth"
	"github.com/pdiddy/synthbench/pkg/types"
)

// --- regression subcommand ---

var regressionCmd = &cobra.Command{
	Use:   "regression",
	Short: "Sample the heteroskedastic regression model",
	Long: `Regression draws n covariates x ~ U[0,1) and responses
y = sin(4*pi*x) + 0.25*sqrt((1-a) + 10*a*x^2)*z with z ~ N(0,1).

Prints the first rows and a summary, or every row with --json.
Use --save to store the dataset in the local SQLite store.`,
	RunE: runRegression,
}

func runRegression(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	model := synth.NewRegressionModel(cfg.Regression, synth.NewSource(cfg.Sampling.Seed))
	X, y, err := model.Sample(cfg.Sampling.N)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		meta := types.DatasetMeta{Seed: cfg.Sampling.Seed, Regression: &cfg.Regression}
		err := withStore(cfg.Store, func(s *dataset.Store) error {
			saved, err := s.SaveRegression(context.Background(), meta, X, y)
			meta = saved
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s (%d rows)\n", meta.ID, meta.N)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	head, _ := cmd.Flags().GetInt("head")
	return formatRegressionOutput(os.Stdout, X, y, jsonOutput, head)
}

func formatRegressionOutput(w io.Writer, X mat.Matrix, y []float64, jsonOutput bool, head int) error {
	if jsonOutput {
		rows := make([]types.RegressionRow, len(y))
		for i := range rows {
			rows[i] = types.RegressionRow{X: X.At(i, 0), Y: y[i]}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintf(w, "%-6s  %12s  %12s\n", "Row", "x", "y")
	fmt.Fprintln(w, strings.Repeat("-", 34))
	for i := 0; i < len(y) && i < head; i++ {
		fmt.Fprintf(w, "%-6d  %12.6f  %12.6f\n", i, X.At(i, 0), y[i])
	}
	if len(y) > head {
		fmt.Fprintf(w, "... %d more rows\n", len(y)-head)
	}

	var x []float64
	if len(y) > 0 {
		x = mat.Col(nil, 0, X)
	}
	fmt.Fprintln(w)
	writeSummary(w, "x", evaluate.Describe(x))
	writeSummary(w, "y", evaluate.Describe(y))
	return nil
}

// --- classification subcommand ---

var classificationCmd = &cobra.Command{
	Use:   "classification",
	Short: "Sample the linear-softmax classification model",
	Long: `Classification draws a p×K coefficient matrix once from the seed, then
n covariate rows from N(0,1) with column 0 set to 1 for the first 20% of
rows and -8 for the rest. Labels are drawn from softmax(X·beta).

Prints the first rows and class counts, or every row with --json.
Use --save to store the dataset in the local SQLite store.`,
	RunE: runClassification,
}

func runClassification(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	model, err := synth.NewClassificationModel(cfg.Classification, synth.NewSource(cfg.Sampling.Seed))
	if err != nil {
		return err
	}
	X, labels, err := model.Sample(cfg.Sampling.N)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		meta := types.DatasetMeta{Seed: cfg.Sampling.Seed, Classification: &cfg.Classification}
		err := withStore(cfg.Store, func(s *dataset.Store) error {
			saved, err := s.SaveClassification(context.Background(), meta, X, labels)
			meta = saved
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s (%d rows)\n", meta.ID, meta.N)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	head, _ := cmd.Flags().GetInt("head")
	return formatClassificationOutput(os.Stdout, X, labels, model.K(), jsonOutput, head)
}

func formatClassificationOutput(w io.Writer, X mat.Matrix, labels []int, k int, jsonOutput bool, head int) error {
	_, p := X.Dims()
	if jsonOutput {
		rows := make([]types.ClassificationRow, len(labels))
		for i := range rows {
			rows[i] = types.ClassificationRow{X: mat.Row(nil, i, X), Label: labels[i]}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintf(w, "%-6s  %-5s  %s\n", "Row", "Label", "x")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	row := make([]float64, p)
	for i := 0; i < len(labels) && i < head; i++ {
		mat.Row(row, i, X)
		fmt.Fprintf(w, "%-6d  %-5d  %s\n", i, labels[i], formatVector(row))
	}
	if len(labels) > head {
		fmt.Fprintf(w, "... %d more rows\n", len(labels)-head)
	}

	fmt.Fprintln(w)
	for class, c := range evaluate.ClassCounts(labels, k) {
		fmt.Fprintf(w, "class %-3d  %d\n", class, c)
	}
	return nil
}

// --- shared helpers ---

func withStore(cfg types.StoreConfig, fn func(*dataset.Store) error) error {
	store, err := dataset.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func writeSummary(w io.Writer, name string, s evaluate.Summary) {
	fmt.Fprintf(w, "%-2s  n=%d  mean=%.4f  std=%.4f  min=%.4f  max=%.4f\n",
		name, s.N, s.Mean, s.Std, s.Min, s.Max)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func init() {
	for _, cmd := range []*cobra.Command{regressionCmd, classificationCmd} {
		addSamplingFlags(cmd)
		addStoreFlags(cmd)
		cmd.Flags().Bool("save", false, "store the dataset in the SQLite store")
		cmd.Flags().Bool("json", false, "output every row as JSON")
		cmd.Flags().Int("head", 10, "number of rows to print in table output")
		rootCmd.AddCommand(cmd)
	}
	addRegressionFlags(regressionCmd)
	addClassificationFlags(classificationCmd)
}
