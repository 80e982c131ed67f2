// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset persists generated datasets in SQLite and exports them to
// YAML, JSON and CSV.
package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/synthbench/pkg/types"
)

const (
	indexDir  = "index"
	exportDir = "export"
	dbFile    = "synthbench.db"

	// timeLayout is fixed width so created_at sorts lexicographically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	// ErrNotFound is returned when a dataset ID is not in the store.
	ErrNotFound = errors.New("dataset not found")

	// ErrUndefinedResponse is returned when a regression response is NaN or
	// infinite, as happens when a lies outside [0,1] and the noise variance
	// goes negative.
	ErrUndefinedResponse = errors.New("undefined regression response")
)

// Store manages the dataset SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the dataset database at
// dataDir/index/synthbench.db and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			seed INTEGER NOT NULL,
			n INTEGER NOT NULL,
			params TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS regression_rows (
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (dataset_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS classification_rows (
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			features TEXT NOT NULL,
			label INTEGER NOT NULL,
			PRIMARY KEY (dataset_id, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_datasets_kind ON datasets(kind)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// params is the JSON document stored in datasets.params.
type params struct {
	Regression     *types.RegressionConfig     `json:"regression,omitempty"`
	Classification *types.ClassificationConfig `json:"classification,omitempty"`
}

// SaveRegression stores a regression dataset, replacing any rows previously
// stored under the same ID. meta.ID, meta.Kind and meta.N are filled in.
func (s *Store) SaveRegression(ctx context.Context, meta types.DatasetMeta, X mat.Matrix, y []float64) (types.DatasetMeta, error) {
	n, _ := X.Dims()
	if n != len(y) {
		return meta, fmt.Errorf("saving regression dataset: %d covariate rows, %d responses", n, len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return meta, fmt.Errorf("saving regression dataset: response %d is %v: %w", i, v, ErrUndefinedResponse)
		}
	}
	meta = s.completeMeta(meta, types.KindRegression, n)

	err := s.withTx(ctx, meta, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO regression_rows (dataset_id, idx, x, y) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, meta.ID, i, X.At(i, 0), y[i]); err != nil {
				return fmt.Errorf("inserting row %d: %w", i, err)
			}
		}
		return nil
	})
	return meta, err
}

// SaveClassification stores a classification dataset, replacing any rows
// previously stored under the same ID.
func (s *Store) SaveClassification(ctx context.Context, meta types.DatasetMeta, X mat.Matrix, labels []int) (types.DatasetMeta, error) {
	n, p := X.Dims()
	if n != len(labels) {
		return meta, fmt.Errorf("saving classification dataset: %d covariate rows, %d labels", n, len(labels))
	}
	meta = s.completeMeta(meta, types.KindClassification, n)

	err := s.withTx(ctx, meta, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO classification_rows (dataset_id, idx, features, label) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		row := make([]float64, p)
		for i := 0; i < n; i++ {
			mat.Row(row, i, X)
			features, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("encoding features of row %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, meta.ID, i, string(features), labels[i]); err != nil {
				return fmt.Errorf("inserting row %d: %w", i, err)
			}
		}
		return nil
	})
	return meta, err
}

func (s *Store) completeMeta(meta types.DatasetMeta, kind types.DatasetKind, n int) types.DatasetMeta {
	meta.Kind = kind
	meta.N = n
	if meta.ID == "" {
		meta.ID = types.DatasetID(meta)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	return meta
}

// withTx upserts the dataset record, clears its rows and runs insertRows in
// the same transaction.
func (s *Store) withTx(ctx context.Context, meta types.DatasetMeta, insertRows func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	paramsJSON, err := json.Marshal(params{
		Regression:     meta.Regression,
		Classification: meta.Classification,
	})
	if err != nil {
		return fmt.Errorf("marshaling params: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, kind, seed, n, params, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, seed=excluded.seed, n=excluded.n,
			params=excluded.params, created_at=excluded.created_at`,
		meta.ID, string(meta.Kind), int64(meta.Seed), meta.N, string(paramsJSON),
		meta.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting dataset: %w", err)
	}

	for _, table := range []string{"regression_rows", "classification_rows"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE dataset_id = ?`, meta.ID); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	if err := insertRows(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the metadata of a stored dataset.
func (s *Store) Get(ctx context.Context, id string) (types.DatasetMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, seed, n, params, created_at FROM datasets WHERE id = ?`, id)
	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.DatasetMeta{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return meta, err
}

// List returns stored datasets, newest first. An empty kind lists all kinds.
func (s *Store) List(ctx context.Context, kind types.DatasetKind) ([]types.DatasetMeta, error) {
	query := `SELECT id, kind, seed, n, params, created_at FROM datasets`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, s.maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var metas []types.DatasetMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Delete removes a dataset and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dataset %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// LoadRegression returns a stored regression dataset with its rows in order.
func (s *Store) LoadRegression(ctx context.Context, id string) (*types.RegressionDataset, error) {
	meta, err := s.getKind(ctx, id, types.KindRegression)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y FROM regression_rows WHERE dataset_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	ds := &types.RegressionDataset{Meta: meta, Rows: make([]types.RegressionRow, 0, meta.N)}
	for rows.Next() {
		var r types.RegressionRow
		if err := rows.Scan(&r.X, &r.Y); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ds.Rows = append(ds.Rows, r)
	}
	return ds, rows.Err()
}

// LoadClassification returns a stored classification dataset with its rows in order.
func (s *Store) LoadClassification(ctx context.Context, id string) (*types.ClassificationDataset, error) {
	meta, err := s.getKind(ctx, id, types.KindClassification)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT features, label FROM classification_rows WHERE dataset_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	ds := &types.ClassificationDataset{Meta: meta, Rows: make([]types.ClassificationRow, 0, meta.N)}
	for rows.Next() {
		var (
			features string
			r        types.ClassificationRow
		)
		if err := rows.Scan(&features, &r.Label); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &r.X); err != nil {
			return nil, fmt.Errorf("parsing features: %w", err)
		}
		ds.Rows = append(ds.Rows, r)
	}
	return ds, rows.Err()
}

func (s *Store) getKind(ctx context.Context, id string, kind types.DatasetKind) (types.DatasetMeta, error) {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return meta, err
	}
	if meta.Kind != kind {
		return meta, fmt.Errorf("dataset %s is a %s dataset, not %s", id, meta.Kind, kind)
	}
	return meta, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(sc scanner) (types.DatasetMeta, error) {
	var (
		meta       types.DatasetMeta
		kind       string
		seed       int64
		paramsJSON string
		createdAt  string
	)
	if err := sc.Scan(&meta.ID, &kind, &seed, &meta.N, &paramsJSON, &createdAt); err != nil {
		return meta, err
	}
	meta.Kind = types.DatasetKind(kind)
	meta.Seed = uint64(seed)

	var p params
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return meta, fmt.Errorf("parsing params of %s: %w", meta.ID, err)
	}
	meta.Regression = p.Regression
	meta.Classification = p.Classification

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return meta, fmt.Errorf("parsing created_at of %s: %w", meta.ID, err)
	}
	meta.CreatedAt = t
	return meta, nil
}
