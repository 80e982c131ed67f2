// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// KSResult holds a one-sample Kolmogorov-Smirnov test outcome.
type KSResult struct {
	// Statistic is sup |F_n(x) - F(x)|.
	Statistic float64 `json:"statistic" yaml:"statistic"`

	// PValue is the asymptotic probability of a statistic at least as large
	// under the null hypothesis.
	PValue float64 `json:"p_value" yaml:"p_value"`
}

// KSUniform tests x against the U[0,1) distribution.
func KSUniform(x []float64) KSResult {
	return KSTest(x, distuv.Uniform{Min: 0, Max: 1})
}

// KSTest tests x against the distribution with the given CDF. x is not modified.
func KSTest(x []float64, dist interface{ CDF(float64) float64 }) KSResult {
	n := len(x)
	if n == 0 {
		return KSResult{PValue: 1}
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	var d float64
	fn := float64(n)
	for i, v := range sorted {
		f := dist.CDF(v)
		d = math.Max(d, math.Max(float64(i+1)/fn-f, f-float64(i)/fn))
	}

	sqrtN := math.Sqrt(fn)
	return KSResult{
		Statistic: d,
		PValue:    kolmogorovQ((sqrtN + 0.12 + 0.11/sqrtN) * d),
	}
}

// kolmogorovQ is the survival function of the Kolmogorov distribution,
// 2 * sum_{k>=1} (-1)^(k-1) exp(-2 k^2 lambda^2).
func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	if lambda < 1.18 {
		// Complementary (Jacobi theta) form of the CDF.
		y := math.Exp(-math.Pi * math.Pi / (8 * lambda * lambda))
		s := y + math.Pow(y, 9) + math.Pow(y, 25) + math.Pow(y, 49)
		return 1 - math.Sqrt(2*math.Pi)/lambda*s
	}
	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-16 {
			break
		}
		sign = -sign
	}
	return math.Max(0, math.Min(1, 2*sum))
}
