// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetID(t *testing.T) {
	reg := func(a float64) DatasetMeta {
		return DatasetMeta{Kind: KindRegression, Seed: 1, N: 2, Regression: &RegressionConfig{A: a}}
	}
	cls := DefaultClassificationConfig(3, 2)

	assert.Regexp(t, `^regression-s1-n2-[0-9a-f]{8}$`, DatasetID(reg(0)))
	assert.Equal(t, DatasetID(reg(0.5)), DatasetID(reg(0.5)), "stable for equal parameters")
	assert.NotEqual(t, DatasetID(reg(0)), DatasetID(reg(0.5)))
	assert.Regexp(t, `^classification-s7-n10-[0-9a-f]{8}$`,
		DatasetID(DatasetMeta{Kind: KindClassification, Seed: 7, N: 10, Classification: &cls}))
}
