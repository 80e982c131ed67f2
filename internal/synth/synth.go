// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth implements the synthetic data-generating models used to
// benchmark conformal-inference procedures: a heteroskedastic regression
// model with analytic oracle intervals and a linear-softmax classification
// model with a covariate-shift construction.
//
// Models draw all randomness from the rand.Source passed at construction.
// A source must not be shared across goroutines.
package synth

import (
	"errors"
	"math/rand/v2"
)

var (
	// ErrNegativeSize is returned when a negative sample size is requested.
	ErrNegativeSize = errors.New("sample size must be non-negative")

	// ErrInvalidAlpha is returned when a miscoverage level is outside (0,1).
	ErrInvalidAlpha = errors.New("alpha must be in (0,1)")

	// ErrDegenerateProbabilities is returned when a probability row cannot
	// be sampled from (NaN, Inf or all zero), typically after softmax overflow.
	ErrDegenerateProbabilities = errors.New("degenerate class probabilities")
)

// pcgStream is the fixed PCG stream selector; only the seed varies.
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns a PCG random source for seed. Two sources built from the
// same seed produce identical streams.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgStream)
}

// round32 rounds v to float32 precision.
func round32(v float64) float64 {
	return float64(float32(v))
}
