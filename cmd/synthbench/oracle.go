// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/synthbench/internal/diagnose"
	"github.com/pdiddy/synthbench/internal/evaluate"
	"github.com/pdiddy/synthbench/internal/synth"
)

// oracleSummary is the JSON form of an oracle run.
type oracleSummary struct {
	Model    string  `json:"model"`
	N        int     `json:"n"`
	Alpha    float64 `json:"alpha"`
	Coverage float64 `json:"coverage"`
	Width    float64 `json:"mean_width,omitempty"`
	SetSize  float64 `json:"mean_set_size,omitempty"`
}

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Evaluate oracle prediction intervals or sets on a fresh sample",
	Long: `Oracle samples n rows and scores the oracle predictions computed from
the true generative distribution at miscoverage level alpha.

For --model regression it reports the empirical coverage and mean width of
the oracle intervals. For --model classification it reports the coverage
and mean size of the oracle prediction sets.`,
	RunE: runOracle,
}

func runOracle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	modelName, _ := cmd.Flags().GetString("model")

	summary := oracleSummary{Model: modelName, N: cfg.Sampling.N, Alpha: cfg.Sampling.Alpha}
	src := synth.NewSource(cfg.Sampling.Seed)

	switch modelName {
	case "regression":
		model := synth.NewRegressionModel(cfg.Regression, src)
		X, y, err := model.Sample(cfg.Sampling.N)
		if err != nil {
			return err
		}
		lower, upper, err := model.OraclePredict(X, cfg.Sampling.Alpha)
		if err != nil {
			return err
		}
		if summary.Coverage, err = evaluate.Coverage(y, lower, upper); err != nil {
			return err
		}
		if summary.Width, err = evaluate.MeanWidth(lower, upper); err != nil {
			return err
		}
	case "classification":
		model, err := synth.NewClassificationModel(cfg.Classification, src)
		if err != nil {
			return err
		}
		X, labels, err := model.Sample(cfg.Sampling.N)
		if err != nil {
			return err
		}
		sets, err := model.OracleSets(X, cfg.Sampling.Alpha)
		if err != nil {
			return err
		}
		if summary.Coverage, err = evaluate.SetCoverage(labels, sets); err != nil {
			return err
		}
		summary.SetSize = evaluate.MeanSetSize(sets)
	default:
		return fmt.Errorf("unsupported model %q: use regression or classification", modelName)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("model:    %s\n", summary.Model)
	fmt.Printf("n:        %d\n", summary.N)
	fmt.Printf("nominal:  %.4f\n", 1-summary.Alpha)
	fmt.Printf("coverage: %.4f\n", summary.Coverage)
	if summary.Model == "regression" {
		fmt.Printf("width:    %.4f\n", summary.Width)
	} else {
		fmt.Printf("set size: %.3f\n", summary.SetSize)
	}
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the diagnostic battery against both models",
	Long: `Check samples both models with the configured parameters and verifies
covariate uniformity, oracle interval and set coverage, the covariate-shift
split, probability-matrix bounds, label range and seeded reproducibility.

Exits non-zero if any check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		report, err := diagnose.Run(cfg, os.Stdout)
		if err != nil {
			return err
		}
		if !report.Passed() {
			return fmt.Errorf("%d check(s) failed", report.Failed())
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{oracleCmd, checkCmd} {
		addSamplingFlags(cmd)
		addRegressionFlags(cmd)
		addClassificationFlags(cmd)
		cmd.Flags().Float64("alpha", 0.1, "miscoverage level in (0,1)")
		rootCmd.AddCommand(cmd)
	}
	oracleCmd.Flags().String("model", "regression", "model to evaluate: regression or classification")
	oracleCmd.Flags().Bool("json", false, "output the summary as JSON")
}
