// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/synthbench/internal/evaluate"
	"github.com/pdiddy/synthbench/pkg/types"
)

func newRegression(t *testing.T, a float64, seed uint64) *RegressionModel {
	t.Helper()
	return NewRegressionModel(types.RegressionConfig{A: a}, NewSource(seed))
}

func TestRegressionSampleShapes(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"single row", 1},
		{"small", 17},
		{"large", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRegression(t, 0.5, 1)
			X, Y, err := m.Sample(tt.n)
			require.NoError(t, err)

			r, c := X.Dims()
			assert.Equal(t, tt.n, r)
			assert.Equal(t, 1, c)
			assert.Len(t, Y, tt.n)
		})
	}
}

func TestRegressionSampleXZero(t *testing.T) {
	m := newRegression(t, 0, 1)
	X, Y, err := m.Sample(0)
	require.NoError(t, err)
	assert.True(t, X.IsEmpty())
	assert.Empty(t, Y)
}

func TestRegressionSampleXNegative(t *testing.T) {
	m := newRegression(t, 0, 1)
	_, err := m.SampleX(-1)
	assert.ErrorIs(t, err, ErrNegativeSize)
}

func TestRegressionFloat32Precision(t *testing.T) {
	m := newRegression(t, 0.3, 9)
	X, Y, err := m.Sample(200)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		x := X.At(i, 0)
		assert.Equal(t, x, float64(float32(x)), "x[%d]", i)
		assert.Equal(t, Y[i], float64(float32(Y[i])), "y[%d]", i)
	}
}

func TestRegressionDeterministic(t *testing.T) {
	X1, Y1, err := newRegression(t, 0.7, 42).Sample(100)
	require.NoError(t, err)
	X2, Y2, err := newRegression(t, 0.7, 42).Sample(100)
	require.NoError(t, err)

	assert.True(t, mat.Equal(X1, X2))
	assert.Equal(t, Y1, Y2)

	X3, _, err := newRegression(t, 0.7, 43).Sample(100)
	require.NoError(t, err)
	assert.False(t, mat.Equal(X1, X3))
}

func TestRegressionCovariatesUniform(t *testing.T) {
	m := newRegression(t, 0, 2024)
	X, err := m.SampleX(100000)
	require.NoError(t, err)

	x := mat.Col(nil, 0, X)
	for i, v := range x {
		require.True(t, v >= 0 && v < 1, "x[%d] = %v outside [0,1)", i, v)
	}

	res := evaluate.KSUniform(x)
	assert.Greater(t, res.PValue, 0.001, "KS statistic %v", res.Statistic)
}

func TestRegressionNoiseScale(t *testing.T) {
	// With a = 0 the residual standard deviation is 0.25.
	m := newRegression(t, 0, 5)
	X, Y, err := m.Sample(50000)
	require.NoError(t, err)

	var sum, sumSq float64
	for i, y := range Y {
		r := y - math.Sin(4*math.Pi*X.At(i, 0))
		sum += r
		sumSq += r * r
	}
	n := float64(len(Y))
	assert.InDelta(t, 0, sum/n, 0.01)
	assert.InDelta(t, 0.25, math.Sqrt(sumSq/n), 0.01)
}

func TestOraclePredictFormula(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 0.125, 0.5})
	m := newRegression(t, 0.5, 1)

	lower, upper, err := m.OraclePredict(X, 0.1)
	require.NoError(t, err)
	require.Len(t, lower, 3)
	require.Len(t, upper, 3)

	const z = 1.6448536269514722
	for i := 0; i < 3; i++ {
		x := X.At(i, 0)
		mu := math.Sin(4 * math.Pi * x)
		sigma := math.Sqrt(0.25 * ((1 - 0.5) + 10*0.5*x*x))
		assert.InDelta(t, mu-z*sigma, lower[i], 1e-9)
		assert.InDelta(t, mu+z*sigma, upper[i], 1e-9)
	}
}

func TestOraclePredictInvalidAlpha(t *testing.T) {
	m := newRegression(t, 0, 1)
	X := mat.NewDense(1, 1, []float64{0.3})

	for _, alpha := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, _, err := m.OraclePredict(X, alpha)
		assert.ErrorIs(t, err, ErrInvalidAlpha, "alpha %v", alpha)
	}
}

func TestOracleCoverage(t *testing.T) {
	const alpha = 0.1
	tests := []struct {
		name       string
		calibrated bool
		want       float64
		delta      float64
	}{
		// The reference oracle reports sigma = 0.5 while the noise has
		// standard deviation 0.25, so it covers P(|Z| < 2*1.645) ~ 0.999.
		{"reference oracle over-covers", false, 0.999, 0.002},
		{"calibrated oracle is nominal", true, 1 - alpha, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewRegressionModel(types.RegressionConfig{A: 0, CalibratedOracle: tt.calibrated}, NewSource(77))
			X, Y, err := m.Sample(20000)
			require.NoError(t, err)

			lower, upper, err := m.OraclePredict(X, alpha)
			require.NoError(t, err)

			cov, err := evaluate.Coverage(Y, lower, upper)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cov, tt.delta)
		})
	}
}
