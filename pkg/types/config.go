// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultMagnitude scales the classification coefficients when no magnitude
// is configured.
const DefaultMagnitude = 1.0

// RegressionConfig holds the parameters of the heteroskedastic regression model.
type RegressionConfig struct {
	// A mixes constant and covariate-dependent noise. Values outside [0,1]
	// are accepted without validation.
	A float64 `json:"a" yaml:"a"`

	// CalibratedOracle makes the oracle use the noise scale that SampleY
	// actually applies (0.25*sigma) instead of sqrt(0.25*sigma^2).
	CalibratedOracle bool `json:"calibrated_oracle" yaml:"calibrated_oracle"`
}

// ClassificationConfig holds the parameters of the linear-softmax
// classification model.
type ClassificationConfig struct {
	// K is the number of classes.
	K int `json:"k" yaml:"k"`

	// P is the covariate dimension.
	P int `json:"p" yaml:"p"`

	// Magnitude scales the standard normal coefficient matrix (default 1).
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`

	// StableSoftmax subtracts the row maximum before exponentiating.
	StableSoftmax bool `json:"stable_softmax" yaml:"stable_softmax"`
}

// DefaultClassificationConfig returns a ClassificationConfig with K classes,
// P covariates and the default magnitude.
func DefaultClassificationConfig(k, p int) ClassificationConfig {
	return ClassificationConfig{K: k, P: p, Magnitude: DefaultMagnitude}
}

// SamplingConfig holds settings shared by every sampling run.
type SamplingConfig struct {
	// Seed initializes the random source. Identical seeds reproduce
	// identical datasets.
	Seed uint64 `json:"seed" yaml:"seed"`

	// N is the number of rows to draw.
	N int `json:"n" yaml:"n"`

	// Alpha is the miscoverage level used by oracle predictions (default 0.1).
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// StoreConfig holds settings for the dataset store.
type StoreConfig struct {
	// DataDir is the base directory for datasets (contains index/, export/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults caps the number of datasets returned by List (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// BenchConfig groups all configuration sections.
type BenchConfig struct {
	Regression     RegressionConfig     `json:"regression" yaml:"regression"`
	Classification ClassificationConfig `json:"classification" yaml:"classification"`
	Sampling       SamplingConfig       `json:"sampling" yaml:"sampling"`
	Store          StoreConfig          `json:"store" yaml:"store"`
}
