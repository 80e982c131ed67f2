// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate computes diagnostics for synthetic datasets and oracle
// predictions: empirical coverage, interval widths, prediction-set sizes,
// uniformity tests and probability-matrix checks.
package evaluate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when paired slices differ in length.
var ErrLengthMismatch = errors.New("length mismatch")

// Coverage returns the fraction of i with lower[i] <= y[i] <= upper[i].
// It returns 0 for empty input.
func Coverage(y, lower, upper []float64) (float64, error) {
	if len(y) != len(lower) || len(y) != len(upper) {
		return 0, fmt.Errorf("coverage of %d responses with %d/%d bounds: %w",
			len(y), len(lower), len(upper), ErrLengthMismatch)
	}
	if len(y) == 0 {
		return 0, nil
	}
	covered := 0
	for i, v := range y {
		if lower[i] <= v && v <= upper[i] {
			covered++
		}
	}
	return float64(covered) / float64(len(y)), nil
}

// MeanWidth returns the average of upper[i]-lower[i].
func MeanWidth(lower, upper []float64) (float64, error) {
	if len(lower) != len(upper) {
		return 0, fmt.Errorf("width of %d/%d bounds: %w", len(lower), len(upper), ErrLengthMismatch)
	}
	if len(lower) == 0 {
		return 0, nil
	}
	width := make([]float64, len(lower))
	floats.SubTo(width, upper, lower)
	return stat.Mean(width, nil), nil
}

// SetCoverage returns the fraction of labels contained in their prediction set.
func SetCoverage(labels []int, sets [][]int) (float64, error) {
	if len(labels) != len(sets) {
		return 0, fmt.Errorf("set coverage of %d labels with %d sets: %w", len(labels), len(sets), ErrLengthMismatch)
	}
	if len(labels) == 0 {
		return 0, nil
	}
	covered := 0
	for i, label := range labels {
		for _, k := range sets[i] {
			if k == label {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(labels)), nil
}

// MeanSetSize returns the average prediction-set cardinality.
func MeanSetSize(sets [][]int) float64 {
	if len(sets) == 0 {
		return 0
	}
	total := 0
	for _, s := range sets {
		total += len(s)
	}
	return float64(total) / float64(len(sets))
}

// ClassCounts returns the number of occurrences of each label in [0,k).
// Labels outside the range are ignored.
func ClassCounts(labels []int, k int) []int {
	counts := make([]int, k)
	for _, label := range labels {
		if label >= 0 && label < k {
			counts[label]++
		}
	}
	return counts
}

// Summary holds descriptive statistics of a sample.
type Summary struct {
	N    int     `json:"n" yaml:"n"`
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Describe summarizes v. The zero Summary is returned for empty input.
func Describe(v []float64) Summary {
	if len(v) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(v, nil)
	if len(v) == 1 {
		std = 0
	}
	return Summary{
		N:    len(v),
		Mean: mean,
		Std:  std,
		Min:  floats.Min(v),
		Max:  floats.Max(v),
	}
}

// CheckRowStochastic verifies that every entry of prob lies in [0,1] and
// every row sums to 1 within tol.
func CheckRowStochastic(prob mat.Matrix, tol float64) error {
	r, c := prob.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, prob)
		for k, p := range row {
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("prob[%d,%d] = %v outside [0,1]", i, k, p)
			}
		}
		if sum := floats.Sum(row); math.Abs(sum-1) > tol {
			return fmt.Errorf("row %d sums to %v", i, sum)
		}
	}
	return nil
}
