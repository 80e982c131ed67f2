// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/synthbench/pkg/types"
)

// Format selects the export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a user-supplied name to a Format. The empty string
// selects YAML.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON, FormatCSV:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported format %q: use yaml, json or csv", name)
	}
}

// ExportPath returns the file an export of id in format f is written to.
func (s *Store) ExportPath(id string, f Format) string {
	return filepath.Join(s.dataDir, exportDir, id+"."+string(f))
}

// Export writes the dataset to dataDir/export/<id>.<format> and returns the path.
func (s *Store) Export(ctx context.Context, id string, f Format) (string, error) {
	path := s.ExportPath(id, f)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := s.WriteExport(ctx, file, id, f); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	return path, file.Close()
}

// WriteExport encodes the dataset to w.
func (s *Store) WriteExport(ctx context.Context, w io.Writer, id string, f Format) error {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var doc any
	switch meta.Kind {
	case types.KindRegression:
		doc, err = s.LoadRegression(ctx, id)
	case types.KindClassification:
		doc, err = s.LoadClassification(ctx, id)
	default:
		return fmt.Errorf("dataset %s has unknown kind %q", id, meta.Kind)
	}
	if err != nil {
		return err
	}

	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case FormatCSV:
		return writeCSV(w, doc)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// writeCSV writes one header line and one line per row. Classification
// covariates become columns x0..x{p-1}.
func writeCSV(w io.Writer, doc any) error {
	cw := csv.NewWriter(w)

	switch ds := doc.(type) {
	case *types.RegressionDataset:
		if err := cw.Write([]string{"x", "y"}); err != nil {
			return err
		}
		for _, r := range ds.Rows {
			if err := cw.Write([]string{formatFloat(r.X), formatFloat(r.Y)}); err != nil {
				return err
			}
		}
	case *types.ClassificationDataset:
		p := 0
		if ds.Meta.Classification != nil {
			p = ds.Meta.Classification.P
		} else if len(ds.Rows) > 0 {
			p = len(ds.Rows[0].X)
		}
		header := make([]string, 0, p+1)
		for j := 0; j < p; j++ {
			header = append(header, "x"+strconv.Itoa(j))
		}
		if err := cw.Write(append(header, "label")); err != nil {
			return err
		}
		for _, r := range ds.Rows {
			record := make([]string, 0, len(r.X)+1)
			for _, v := range r.X {
				record = append(record, formatFloat(v))
			}
			if err := cw.Write(append(record, strconv.Itoa(r.Label))); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
