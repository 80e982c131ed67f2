// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/synthbench/pkg/types"
)

// Column 0 of the covariates separates an easy subpopulation (the first
// easyFraction of rows, value easyValue) from a hard one (hardValue).
const (
	easyFraction = 0.2
	easyValue    = 1
	hardValue    = -8
)

// ClassificationModel generates Gaussian covariates and labels drawn from
// softmax(X·beta), where beta is a p×K matrix fixed at construction.
type ClassificationModel struct {
	k         int
	p         int
	magnitude float64
	stable    bool
	beta      *mat.Dense
	src       rand.Source
	normal    distuv.Normal
}

// NewClassificationModel draws the coefficient matrix from src and returns
// the model. K and P must be positive.
func NewClassificationModel(cfg types.ClassificationConfig, src rand.Source) (*ClassificationModel, error) {
	if cfg.K <= 0 || cfg.P <= 0 {
		return nil, fmt.Errorf("classification model needs positive K and P, got K=%d P=%d", cfg.K, cfg.P)
	}

	m := &ClassificationModel{
		k:         cfg.K,
		p:         cfg.P,
		magnitude: cfg.Magnitude,
		stable:    cfg.StableSoftmax,
		src:       src,
		normal:    distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}

	data := make([]float64, cfg.P*cfg.K)
	for i := range data {
		data[i] = cfg.Magnitude * m.normal.Rand()
	}
	m.beta = mat.NewDense(cfg.P, cfg.K, data)
	return m, nil
}

// K returns the number of classes.
func (m *ClassificationModel) K() int { return m.k }

// P returns the covariate dimension.
func (m *ClassificationModel) P() int { return m.p }

// Magnitude returns the coefficient scale.
func (m *ClassificationModel) Magnitude() float64 { return m.magnitude }

// Beta returns a copy of the p×K coefficient matrix.
func (m *ClassificationModel) Beta() *mat.Dense {
	return mat.DenseCopyOf(m.beta)
}

// SampleX draws an n×p standard normal matrix and overrides column 0: the
// first floor(0.2n) rows are 1, the rest are -8.
func (m *ClassificationModel) SampleX(n int) (*mat.Dense, error) {
	if n < 0 {
		return nil, fmt.Errorf("sampling %d covariates: %w", n, ErrNegativeSize)
	}
	if n == 0 {
		return &mat.Dense{}, nil
	}

	data := make([]float64, n*m.p)
	for i := range data {
		data[i] = round32(m.normal.Rand())
	}
	X := mat.NewDense(n, m.p, data)

	split := int(float64(n) * easyFraction)
	for i := 0; i < n; i++ {
		if i < split {
			X.Set(i, 0, easyValue)
		} else {
			X.Set(i, 0, hardValue)
		}
	}
	return X, nil
}

// ComputeProb returns the n×K matrix of class probabilities for X.
//
// Unless StableSoftmax is configured the logits are exponentiated directly,
// so large logits overflow and produce NaN rows.
func (m *ClassificationModel) ComputeProb(X mat.Matrix) (*mat.Dense, error) {
	n, c := X.Dims()
	if n == 0 {
		return &mat.Dense{}, nil
	}
	if c != m.p {
		return nil, fmt.Errorf("covariates have %d columns, model expects %d: %w", c, m.p, mat.ErrShape)
	}

	var prob mat.Dense
	prob.Mul(X, m.beta)
	for i := 0; i < n; i++ {
		row := prob.RawRowView(i)
		if m.stable {
			floats.AddConst(-floats.Max(row), row)
		}
		for k, f := range row {
			row[k] = math.Exp(f)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return &prob, nil
}

// SampleY draws one label in [0,K) per row of X from its class probabilities.
func (m *ClassificationModel) SampleY(X mat.Matrix) ([]int, error) {
	prob, err := m.ComputeProb(X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	labels := make([]int, n)
	for i := range labels {
		row := prob.RawRowView(i)
		if !sampleable(row) {
			return nil, fmt.Errorf("row %d: %w", i, ErrDegenerateProbabilities)
		}
		labels[i] = int(distuv.NewCategorical(row, m.src).Rand())
	}
	return labels, nil
}

// Sample draws n covariate rows and their labels.
func (m *ClassificationModel) Sample(n int) (*mat.Dense, []int, error) {
	X, err := m.SampleX(n)
	if err != nil {
		return nil, nil, err
	}
	y, err := m.SampleY(X)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// OracleSets returns, for each row of X, the smallest set of labels whose
// true probabilities sum to at least 1-alpha. Labels enter in decreasing
// order of probability.
func (m *ClassificationModel) OracleSets(X mat.Matrix, alpha float64) ([][]int, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("oracle sets with alpha %v: %w", alpha, ErrInvalidAlpha)
	}
	prob, err := m.ComputeProb(X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	sets := make([][]int, n)
	order := make([]int, m.k)
	for i := range sets {
		row := prob.RawRowView(i)
		if !sampleable(row) {
			return nil, fmt.Errorf("row %d: %w", i, ErrDegenerateProbabilities)
		}
		for k := range order {
			order[k] = k
		}
		sort.SliceStable(order, func(a, b int) bool { return row[order[a]] > row[order[b]] })

		var mass float64
		for _, k := range order {
			sets[i] = append(sets[i], k)
			mass += row[k]
			if mass >= 1-alpha {
				break
			}
		}
	}
	return sets, nil
}

func sampleable(row []float64) bool {
	var sum float64
	for _, p := range row {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return false
		}
		sum += p
	}
	return sum > 0
}
