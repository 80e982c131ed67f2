// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// DatasetKind identifies which model generated a dataset.
type DatasetKind string

const (
	KindRegression     DatasetKind = "regression"
	KindClassification DatasetKind = "classification"
)

// DatasetMeta describes a stored dataset and the parameters that produced it.
type DatasetMeta struct {
	// ID is derived from kind, seed, size and model parameters; see DatasetID.
	ID string `json:"id" yaml:"id"`

	Kind DatasetKind `json:"kind" yaml:"kind"`

	// Seed and N reproduce the dataset together with the model parameters.
	Seed uint64 `json:"seed" yaml:"seed"`
	N    int    `json:"n" yaml:"n"`

	// Regression parameters; nil for classification datasets.
	Regression *RegressionConfig `json:"regression,omitempty" yaml:"regression,omitempty"`

	// Classification parameters; nil for regression datasets.
	Classification *ClassificationConfig `json:"classification,omitempty" yaml:"classification,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// DatasetID returns the canonical identifier for a dataset of the given
// kind, seed, size and model parameters, e.g. "regression-s42-n1000-1c9a3f07".
// The suffix is an FNV-32a hash of the JSON-encoded parameters, so datasets
// that differ only in model parameters get distinct IDs.
func DatasetID(meta DatasetMeta) string {
	data, _ := json.Marshal(struct {
		Regression     *RegressionConfig     `json:"regression,omitempty"`
		Classification *ClassificationConfig `json:"classification,omitempty"`
	}{meta.Regression, meta.Classification})
	h := fnv.New32a()
	h.Write(data)
	return fmt.Sprintf("%s-s%d-n%d-%08x", meta.Kind, meta.Seed, meta.N, h.Sum32())
}

// RegressionRow is one (x, y) observation.
type RegressionRow struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ClassificationRow is one covariate vector with its class label.
type ClassificationRow struct {
	X     []float64 `json:"x" yaml:"x,flow"`
	Label int       `json:"label" yaml:"label"`
}

// RegressionDataset is a stored regression dataset.
type RegressionDataset struct {
	Meta DatasetMeta     `json:"meta" yaml:"meta"`
	Rows []RegressionRow `json:"rows" yaml:"rows"`
}

// ClassificationDataset is a stored classification dataset.
type ClassificationDataset struct {
	Meta DatasetMeta         `json:"meta" yaml:"meta"`
	Rows []ClassificationRow `json:"rows" yaml:"rows"`
}
