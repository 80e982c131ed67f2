// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the synthbench CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/synthbench/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the synthbench CLI.
var rootCmd = &cobra.Command{
	Use:   "synthbench",
	Short: "Synthetic data models for benchmarking conformal inference",
	Long: `synthbench samples synthetic datasets with known generative
distributions for evaluating conformal-inference procedures.

The regression model draws x ~ U[0,1) and a sinusoidal response with
heteroskedastic Gaussian noise; its oracle intervals come from the true
conditional distribution. The classification model draws Gaussian covariates
with a covariate-shift split and labels from a softmax of a fixed random
linear map.

Every run is seeded, so the same parameters reproduce the same dataset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./synthbench.yaml or ~/.config/synthbench/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("synthbench")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "synthbench"))
		}
	}

	viper.SetEnvPrefix("SYNTHBENCH")
	viper.AutomaticEnv()

	viper.SetDefault("classification.k", 3)
	viper.SetDefault("classification.p", 2)
	viper.SetDefault("classification.magnitude", types.DefaultMagnitude)
	viper.SetDefault("sampling.n", 1000)
	viper.SetDefault("sampling.alpha", 0.1)
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("store.max_results", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"a":              "regression.a",
	"calibrated":     "regression.calibrated_oracle",
	"k":              "classification.k",
	"p":              "classification.p",
	"magnitude":      "classification.magnitude",
	"stable-softmax": "classification.stable_softmax",
	"seed":           "sampling.seed",
	"n":              "sampling.n",
	"alpha":          "sampling.alpha",
	"data-dir":       "store.data_dir",
	"max-results":    "store.max_results",
}

// bindFlags binds the flags of the executing command to their configuration
// keys. Binding happens per invocation because several commands share keys.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// loadConfig decodes the merged flag, environment and file configuration.
func loadConfig() (types.BenchConfig, error) {
	var cfg types.BenchConfig
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// addSamplingFlags registers the flags every sampling command accepts.
func addSamplingFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("seed", 0, "random seed")
	cmd.Flags().Int("n", 1000, "number of rows to sample")
}

// addRegressionFlags registers the regression model parameters.
func addRegressionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("a", 0, "heteroskedasticity coefficient in [0,1]")
	cmd.Flags().Bool("calibrated", false, "oracle uses the noise scale SampleY applies")
}

// addClassificationFlags registers the classification model parameters.
func addClassificationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("k", 3, "number of classes")
	cmd.Flags().Int("p", 2, "covariate dimension")
	cmd.Flags().Float64("magnitude", types.DefaultMagnitude, "coefficient scale")
	cmd.Flags().Bool("stable-softmax", false, "subtract the row maximum before exponentiating")
}

// addStoreFlags registers the dataset store location.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "data", "base directory for datasets (contains index/, export/)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
