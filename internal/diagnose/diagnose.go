// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diagnose runs a battery of checks against the synthetic models:
// covariate uniformity, oracle coverage, the covariate-shift split,
// probability-matrix bounds, label range and seeded reproducibility.
package diagnose

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/synthbench/internal/evaluate"
	"github.com/pdiddy/synthbench/internal/synth"
	"github.com/pdiddy/synthbench/pkg/types"
)

// uniformityLevel is the KS p-value below which uniformity is rejected.
const uniformityLevel = 0.01

// Result is the outcome of one check.
type Result struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail" yaml:"detail"`
}

// Report holds the outcomes of a diagnostic run.
type Report struct {
	Results []Result `json:"results" yaml:"results"`
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the number of failed checks.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

type check struct {
	name string
	run  func(cfg types.BenchConfig) (bool, string, error)
}

var checks = []check{
	{"covariates-uniform", checkUniform},
	{"oracle-coverage", checkOracleCoverage},
	{"covariate-shift", checkCovariateShift},
	{"probability-matrix", checkProbabilities},
	{"label-range", checkLabels},
	{"oracle-set-coverage", checkOracleSets},
	{"seeded-reproducibility", checkReproducible},
}

// Run executes every check with the sampling size, seed and alpha from cfg
// and writes one status line per check to w. Each check draws from its own
// source seeded with cfg.Sampling.Seed. An error is returned only when a
// model cannot be constructed or sampled at all.
func Run(cfg types.BenchConfig, w io.Writer) (Report, error) {
	if cfg.Sampling.N <= 0 {
		return Report{}, fmt.Errorf("diagnostics need a positive sample size, got %d", cfg.Sampling.N)
	}

	var report Report
	for _, c := range checks {
		passed, detail, err := c.run(cfg)
		if err != nil {
			return report, fmt.Errorf("%s: %w", c.name, err)
		}
		status := "pass"
		if !passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s  %-24s  %s\n", status, c.name, detail)
		report.Results = append(report.Results, Result{Name: c.name, Passed: passed, Detail: detail})
	}

	fmt.Fprintf(w, "\npassed: %d, failed: %d\n", len(report.Results)-report.Failed(), report.Failed())
	return report, nil
}

// coverageFloor is the lowest empirical coverage consistent with nominal
// 1-alpha at three binomial standard errors.
func coverageFloor(alpha float64, n int) float64 {
	return 1 - alpha - 3*math.Sqrt(alpha*(1-alpha)/float64(n))
}

func checkUniform(cfg types.BenchConfig) (bool, string, error) {
	m := synth.NewRegressionModel(cfg.Regression, synth.NewSource(cfg.Sampling.Seed))
	X, err := m.SampleX(cfg.Sampling.N)
	if err != nil {
		return false, "", err
	}
	x := mat.Col(nil, 0, X)
	if lo, hi := floats.Min(x), floats.Max(x); lo < 0 || hi >= 1 {
		return false, fmt.Sprintf("covariates span [%g, %g], want [0,1)", lo, hi), nil
	}
	res := evaluate.KSUniform(x)
	return res.PValue >= uniformityLevel,
		fmt.Sprintf("KS D=%.5f p=%.4f", res.Statistic, res.PValue), nil
}

func checkOracleCoverage(cfg types.BenchConfig) (bool, string, error) {
	m := synth.NewRegressionModel(cfg.Regression, synth.NewSource(cfg.Sampling.Seed))
	X, y, err := m.Sample(cfg.Sampling.N)
	if err != nil {
		return false, "", err
	}
	lower, upper, err := m.OraclePredict(X, cfg.Sampling.Alpha)
	if err != nil {
		return false, "", err
	}
	cov, err := evaluate.Coverage(y, lower, upper)
	if err != nil {
		return false, "", err
	}
	width, err := evaluate.MeanWidth(lower, upper)
	if err != nil {
		return false, "", err
	}
	nominal := 1 - cfg.Sampling.Alpha
	return cov >= coverageFloor(cfg.Sampling.Alpha, cfg.Sampling.N),
		fmt.Sprintf("coverage=%.4f nominal=%.4f width=%.4f", cov, nominal, width), nil
}

func checkCovariateShift(cfg types.BenchConfig) (bool, string, error) {
	m, err := synth.NewClassificationModel(cfg.Classification, synth.NewSource(cfg.Sampling.Seed))
	if err != nil {
		return false, "", err
	}
	X, err := m.SampleX(cfg.Sampling.N)
	if err != nil {
		return false, "", err
	}

	n := cfg.Sampling.N
	want := int(float64(n) * 0.2)
	easy, hard := 0, 0
	for i := 0; i < n; i++ {
		switch v := X.At(i, 0); {
		case v == 1 && i < want:
			easy++
		case v == -8 && i >= want:
			hard++
		}
	}
	return easy == want && hard == n-want,
		fmt.Sprintf("easy rows=%d hard rows=%d want %d/%d", easy, hard, want, n-want), nil
}

func checkProbabilities(cfg types.BenchConfig) (bool, string, error) {
	m, err := synth.NewClassificationModel(cfg.Classification, synth.NewSource(cfg.Sampling.Seed))
	if err != nil {
		return false, "", err
	}
	X, err := m.SampleX(cfg.Sampling.N)
	if err != nil {
		return false, "", err
	}
	prob, err := m.ComputeProb(X)
	if err != nil {
		return false, "", err
	}
	if err := evaluate.CheckRowStochastic(prob, 1e-9); err != nil {
		return false, err.Error(), nil
	}
	r, c := prob.Dims()
	return true, fmt.Sprintf("%dx%d rows sum to 1", r, c), nil
}

func checkLabels(cfg types.BenchConfig) (bool, string, error) {
	m, err := synth.NewClassificationModel(cfg.Classification, synth.NewSource(cfg.Sampling.Seed))
	if err != nil {
		return false, "", err
	}
	_, labels, err := m.Sample(cfg.Sampling.N)
	if err != nil {
		return false, err.Error(), nil
	}
	for i, label := range labels {
		if label < 0 || label >= m.K() {
			return false, fmt.Sprintf("label[%d]=%d outside [0,%d)", i, label, m.K()), nil
		}
	}
	return true, fmt.Sprintf("class counts %v", evaluate.ClassCounts(labels, m.K())), nil
}

func checkOracleSets(cfg types.BenchConfig) (bool, string, error) {
	m, err := synth.NewClassificationModel(cfg.Classification, synth.NewSource(cfg.Sampling.Seed))
	if err != nil {
		return false, "", err
	}
	X, labels, err := m.Sample(cfg.Sampling.N)
	if err != nil {
		return false, err.Error(), nil
	}
	sets, err := m.OracleSets(X, cfg.Sampling.Alpha)
	if err != nil {
		return false, "", err
	}
	cov, err := evaluate.SetCoverage(labels, sets)
	if err != nil {
		return false, "", err
	}
	return cov >= coverageFloor(cfg.Sampling.Alpha, cfg.Sampling.N),
		fmt.Sprintf("coverage=%.4f mean size=%.3f", cov, evaluate.MeanSetSize(sets)), nil
}

func checkReproducible(cfg types.BenchConfig) (bool, string, error) {
	draw := func() (*mat.Dense, []float64, error) {
		m := synth.NewRegressionModel(cfg.Regression, synth.NewSource(cfg.Sampling.Seed))
		return m.Sample(cfg.Sampling.N)
	}
	X1, y1, err := draw()
	if err != nil {
		return false, "", err
	}
	X2, y2, err := draw()
	if err != nil {
		return false, "", err
	}
	same := mat.Equal(X1, X2) && floats.Equal(y1, y2)
	return same, fmt.Sprintf("seed %d", cfg.Sampling.Seed), nil
}
