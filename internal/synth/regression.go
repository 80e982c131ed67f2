// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/synthbench/pkg/types"
)

// noiseScale multiplies the standard normal noise term of the response.
const noiseScale = 0.25

// maxBelowOne is the largest float32 value below 1.
var maxBelowOne = float64(math.Nextafter32(1, 0))

// RegressionModel generates x ~ U[0,1) and
// y = sin(4*pi*x) + 0.25*sqrt((1-a) + 10*a*x^2)*z with z ~ N(0,1).
type RegressionModel struct {
	a          float64
	calibrated bool
	covariate  distuv.Uniform
	noise      distuv.Normal
}

// NewRegressionModel returns a RegressionModel drawing from src.
func NewRegressionModel(cfg types.RegressionConfig, src rand.Source) *RegressionModel {
	return &RegressionModel{
		a:          cfg.A,
		calibrated: cfg.CalibratedOracle,
		covariate:  distuv.Uniform{Min: 0, Max: 1, Src: src},
		noise:      distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// A returns the heteroskedasticity coefficient.
func (m *RegressionModel) A() float64 { return m.a }

// SampleX draws n covariates as an n×1 matrix. n == 0 yields an empty matrix.
func (m *RegressionModel) SampleX(n int) (*mat.Dense, error) {
	if n < 0 {
		return nil, fmt.Errorf("sampling %d covariates: %w", n, ErrNegativeSize)
	}
	if n == 0 {
		return &mat.Dense{}, nil
	}
	data := make([]float64, n)
	for i := range data {
		// Rounding may carry values just below 1 up to 1.
		data[i] = math.Min(round32(m.covariate.Rand()), maxBelowOne)
	}
	return mat.NewDense(n, 1, data), nil
}

// SampleY draws one response per row of X, using column 0 as the covariate.
func (m *RegressionModel) SampleY(X mat.Matrix) []float64 {
	n, _ := X.Dims()
	y := make([]float64, n)
	for i := range y {
		x := X.At(i, 0)
		y[i] = round32(mean(x) + noiseScale*m.scale(x)*m.noise.Rand())
	}
	return y
}

// Sample draws n covariates and their responses.
func (m *RegressionModel) Sample(n int) (*mat.Dense, []float64, error) {
	X, err := m.SampleX(n)
	if err != nil {
		return nil, nil, err
	}
	return X, m.SampleY(X), nil
}

// OraclePredict returns the alpha/2 and 1-alpha/2 quantiles of the
// conditional normal distribution at each row of X.
//
// The reported standard deviation is sqrt(0.25*((1-a) + 10*a*x^2)), which is
// twice the scale SampleY applies, so the intervals over-cover. Set
// CalibratedOracle to use 0.25*sqrt((1-a) + 10*a*x^2) instead.
func (m *RegressionModel) OraclePredict(X mat.Matrix, alpha float64) (lower, upper []float64, err error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, nil, fmt.Errorf("oracle predict with alpha %v: %w", alpha, ErrInvalidAlpha)
	}
	n, _ := X.Dims()
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := 0; i < n; i++ {
		x := X.At(i, 0)
		dist := distuv.Normal{Mu: mean(x), Sigma: m.oracleSigma(x)}
		lower[i] = dist.Quantile(alpha / 2)
		upper[i] = dist.Quantile(1 - alpha/2)
	}
	return lower, upper, nil
}

func (m *RegressionModel) oracleSigma(x float64) float64 {
	if m.calibrated {
		return noiseScale * m.scale(x)
	}
	return math.Sqrt(noiseScale * m.variance(x))
}

// variance is the unscaled noise variance (1-a) + 10*a*x^2.
func (m *RegressionModel) variance(x float64) float64 {
	return (1 - m.a) + 10*m.a*x*x
}

func (m *RegressionModel) scale(x float64) float64 {
	return math.Sqrt(m.variance(x))
}

func mean(x float64) float64 {
	return math.Sin(4 * math.Pi * x)
}
