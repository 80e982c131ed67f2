// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/synthbench/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.StoreConfig{DataDir: tmpDir, MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func saveRegression(t *testing.T, store *Store, seed uint64, created time.Time) types.DatasetMeta {
	t.Helper()
	X := mat.NewDense(3, 1, []float64{0.1, 0.5, 0.9})
	y := []float64{0.25, -0.5, 1.5}
	meta, err := store.SaveRegression(context.Background(), types.DatasetMeta{
		Seed:       seed,
		Regression: &types.RegressionConfig{A: 0.3},
		CreatedAt:  created,
	}, X, y)
	require.NoError(t, err)
	return meta
}

func saveClassification(t *testing.T, store *Store, seed uint64) types.DatasetMeta {
	t.Helper()
	X := mat.NewDense(2, 3, []float64{1, 0.5, -0.25, -8, 2, 0})
	cfg := types.DefaultClassificationConfig(4, 3)
	meta, err := store.SaveClassification(context.Background(), types.DatasetMeta{
		Seed:           seed,
		Classification: &cfg,
	}, X, []int{3, 0})
	require.NoError(t, err)
	return meta
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, tmpDir := testStore(t)

	for _, table := range []string{"datasets", "regression_rows", "classification_rows"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}

	_, err := os.Stat(filepath.Join(tmpDir, indexDir, dbFile))
	assert.NoError(t, err)
}

// --- save/load tests ---

func TestSaveLoadRegression(t *testing.T) {
	store, _ := testStore(t)
	meta := saveRegression(t, store, 42, time.Time{})

	assert.Regexp(t, `^regression-s42-n3-[0-9a-f]{8}$`, meta.ID)
	assert.Equal(t, types.KindRegression, meta.Kind)
	assert.Equal(t, 3, meta.N)
	assert.False(t, meta.CreatedAt.IsZero())

	ds, err := store.LoadRegression(context.Background(), meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.RegressionRow{{X: 0.1, Y: 0.25}, {X: 0.5, Y: -0.5}, {X: 0.9, Y: 1.5}}, ds.Rows)
	require.NotNil(t, ds.Meta.Regression)
	assert.Equal(t, 0.3, ds.Meta.Regression.A)
	assert.Nil(t, ds.Meta.Classification)
	assert.Equal(t, uint64(42), ds.Meta.Seed)
}

func TestSaveLoadClassification(t *testing.T) {
	store, _ := testStore(t)
	meta := saveClassification(t, store, 7)

	ds, err := store.LoadClassification(context.Background(), meta.ID)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []float64{1, 0.5, -0.25}, ds.Rows[0].X)
	assert.Equal(t, 3, ds.Rows[0].Label)
	assert.Equal(t, []float64{-8, 2, 0}, ds.Rows[1].X)
	assert.Equal(t, 0, ds.Rows[1].Label)
	require.NotNil(t, ds.Meta.Classification)
	assert.Equal(t, 4, ds.Meta.Classification.K)
}

func TestSaveReplacesRows(t *testing.T) {
	store, _ := testStore(t)
	meta := saveRegression(t, store, 1, time.Time{})

	X := mat.NewDense(3, 1, []float64{0.2, 0.3, 0.4})
	_, err := store.SaveRegression(context.Background(), types.DatasetMeta{
		Seed:       1,
		Regression: &types.RegressionConfig{A: 0.3},
	}, X, []float64{1, 2, 3})
	require.NoError(t, err)

	ds, err := store.LoadRegression(context.Background(), meta.ID)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, 0.2, ds.Rows[0].X)
	assert.Equal(t, 3.0, ds.Rows[2].Y)
}

func TestSaveDistinctParamsKeepsBoth(t *testing.T) {
	store, _ := testStore(t)
	X := mat.NewDense(2, 1, []float64{0.1, 0.6})
	y := []float64{0.5, -0.5}

	first, err := store.SaveRegression(context.Background(), types.DatasetMeta{
		Seed:       1,
		Regression: &types.RegressionConfig{A: 0},
	}, X, y)
	require.NoError(t, err)
	second, err := store.SaveRegression(context.Background(), types.DatasetMeta{
		Seed:       1,
		Regression: &types.RegressionConfig{A: 0.5},
	}, X, y)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	metas, err := store.List(context.Background(), types.KindRegression)
	require.NoError(t, err)
	assert.Len(t, metas, 2)

	ds, err := store.LoadRegression(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.Meta.Regression.A)
}

func TestSaveRegressionRejectsUndefinedResponse(t *testing.T) {
	store, _ := testStore(t)
	X := mat.NewDense(2, 1, []float64{0.1, 0.2})

	// a = 2 makes the noise variance negative at small x.
	_, err := store.SaveRegression(context.Background(), types.DatasetMeta{
		Seed:       1,
		Regression: &types.RegressionConfig{A: 2},
	}, X, []float64{0.5, math.NaN()})
	require.ErrorIs(t, err, ErrUndefinedResponse)
	assert.Contains(t, err.Error(), "response 1")

	metas, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestSaveClassificationEncodingError(t *testing.T) {
	store, _ := testStore(t)
	cfg := types.DefaultClassificationConfig(2, 2)
	X := mat.NewDense(2, 2, []float64{1, 2, math.Inf(1), 0})

	_, err := store.SaveClassification(context.Background(), types.DatasetMeta{
		Seed:           1,
		Classification: &cfg,
	}, X, []int{0, 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding features of row 1")

	metas, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, metas, "failed save rolls back")
}

func TestSaveLengthMismatch(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.SaveRegression(context.Background(), types.DatasetMeta{}, mat.NewDense(2, 1, nil), []float64{1})
	assert.Error(t, err)
	_, err = store.SaveClassification(context.Background(), types.DatasetMeta{}, mat.NewDense(2, 2, nil), []int{1, 2, 3})
	assert.Error(t, err)
}

func TestLoadWrongKind(t *testing.T) {
	store, _ := testStore(t)
	meta := saveClassification(t, store, 7)

	_, err := store.LoadRegression(context.Background(), meta.ID)
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.LoadRegression(context.Background(), "regression-s1-n1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- list/delete tests ---

func TestList(t *testing.T) {
	store, _ := testStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	saveRegression(t, store, 1, base)
	saveRegression(t, store, 2, base.Add(time.Hour))
	saveClassification(t, store, 3)

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	reg, err := store.List(context.Background(), types.KindRegression)
	require.NoError(t, err)
	require.Len(t, reg, 2)
	assert.Regexp(t, `^regression-s2-n3-`, reg[0].ID, "newest first")
	assert.Regexp(t, `^regression-s1-n3-`, reg[1].ID)
}

func TestListRespectsMaxResults(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(types.StoreConfig{DataDir: tmpDir, MaxResults: 2})
	require.NoError(t, err)
	defer store.Close()

	for seed := uint64(0); seed < 4; seed++ {
		saveRegression(t, store, seed, time.Time{})
	}
	metas, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}

func TestDeleteCascades(t *testing.T) {
	store, _ := testStore(t)
	meta := saveRegression(t, store, 5, time.Time{})

	require.NoError(t, store.Delete(context.Background(), meta.ID))

	var rows int
	require.NoError(t, store.db.QueryRow(`SELECT count(*) FROM regression_rows`).Scan(&rows))
	assert.Equal(t, 0, rows)

	assert.ErrorIs(t, store.Delete(context.Background(), meta.ID), ErrNotFound)
}

// --- export tests ---

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"parquet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestExportYAML(t *testing.T) {
	store, tmpDir := testStore(t)
	meta := saveRegression(t, store, 42, time.Time{})

	path, err := store.Export(context.Background(), meta.ID, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, exportDir, meta.ID+".yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ds types.RegressionDataset
	require.NoError(t, yaml.Unmarshal(data, &ds))
	assert.Equal(t, meta.ID, ds.Meta.ID)
	assert.Len(t, ds.Rows, 3)
}

func TestExportJSON(t *testing.T) {
	store, _ := testStore(t)
	meta := saveClassification(t, store, 9)

	path, err := store.Export(context.Background(), meta.ID, FormatJSON)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ds types.ClassificationDataset
	require.NoError(t, json.Unmarshal(data, &ds))
	assert.Equal(t, types.KindClassification, ds.Meta.Kind)
	assert.Equal(t, 3, ds.Rows[0].Label)
}

func TestWriteExportCSV(t *testing.T) {
	store, _ := testStore(t)
	reg := saveRegression(t, store, 1, time.Time{})
	cls := saveClassification(t, store, 2)

	var buf bytes.Buffer
	require.NoError(t, store.WriteExport(context.Background(), &buf, reg.ID, FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "y"}, {"0.1", "0.25"}, {"0.5", "-0.5"}, {"0.9", "1.5"}}, records)

	buf.Reset()
	require.NoError(t, store.WriteExport(context.Background(), &buf, cls.ID, FormatCSV))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"x0", "x1", "x2", "label"}, records[0])
	assert.Equal(t, []string{"-8", "2", "0", "0"}, records[2])
}

func TestExportMissingDataset(t *testing.T) {
	store, tmpDir := testStore(t)
	_, err := store.Export(context.Background(), "nope", FormatJSON)
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(filepath.Join(tmpDir, exportDir, "nope.json"))
	assert.True(t, os.IsNotExist(statErr))
}
