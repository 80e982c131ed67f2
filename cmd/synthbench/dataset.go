// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/synthbench/internal/dataset"
	"github.com/pdiddy/synthbench/pkg/types"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage stored datasets (list, export, delete)",
	Long: `Dataset manages the local SQLite store of generated datasets. Datasets
are added with the --save flag of the regression and classification
commands.`,
}

// --- list subcommand ---

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets, newest first",
	RunE:  runDatasetList,
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	switch types.DatasetKind(kind) {
	case "", types.KindRegression, types.KindClassification:
	default:
		return fmt.Errorf("unsupported kind %q: use regression or classification", kind)
	}

	var metas []types.DatasetMeta
	err = withStore(cfg.Store, func(s *dataset.Store) error {
		var err error
		metas, err = s.List(context.Background(), types.DatasetKind(kind))
		return err
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(metas, jsonOutput)
}

func formatListOutput(metas []types.DatasetMeta, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	}

	if len(metas) == 0 {
		fmt.Println("No datasets found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-48s  %-14s  %-8s  %-20s  %s\n",
		"ID", "Kind", "Rows", "Created", "Parameters")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 112))

	for _, m := range metas {
		id := m.ID
		if len(id) > 48 {
			id = id[:45] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-48s  %-14s  %-8d  %-20s  %s\n",
			id, m.Kind, m.N, m.CreatedAt.Format("2006-01-02 15:04:05"), describeParams(m))
	}

	fmt.Fprintf(os.Stdout, "\n%d datasets\n", len(metas))
	return nil
}

func describeParams(m types.DatasetMeta) string {
	switch {
	case m.Regression != nil:
		return fmt.Sprintf("a=%g", m.Regression.A)
	case m.Classification != nil:
		c := m.Classification
		s := fmt.Sprintf("K=%d p=%d magnitude=%g", c.K, c.P, c.Magnitude)
		if c.StableSoftmax {
			s += " stable"
		}
		return s
	default:
		return ""
	}
}

// --- export subcommand ---

var datasetExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a dataset to YAML, JSON or CSV",
	Long: `Export writes a stored dataset to data/export/<id>.yaml, .json or .csv.
Use --stdout to write to standard output instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetExport,
}

func runDatasetExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("format")
	format, err := dataset.ParseFormat(name)
	if err != nil {
		return err
	}
	toStdout, _ := cmd.Flags().GetBool("stdout")

	return withStore(cfg.Store, func(s *dataset.Store) error {
		if toStdout {
			return s.WriteExport(context.Background(), os.Stdout, args[0], format)
		}
		path, err := s.Export(context.Background(), args[0], format)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	})
}

// --- delete subcommand ---

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		err = withStore(cfg.Store, func(s *dataset.Store) error {
			return s.Delete(context.Background(), args[0])
		})
		if err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{datasetListCmd, datasetExportCmd, datasetDeleteCmd} {
		addStoreFlags(cmd)
	}

	datasetListCmd.Flags().String("kind", "", "filter by kind: regression or classification")
	datasetListCmd.Flags().Int("max-results", 20, "maximum number of datasets to list")
	datasetListCmd.Flags().Bool("json", false, "output results as JSON")

	datasetExportCmd.Flags().String("format", "yaml", "export format: yaml, json or csv")
	datasetExportCmd.Flags().Bool("stdout", false, "write to standard output instead of a file")

	// Wire subcommands.
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetExportCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)

	rootCmd.AddCommand(datasetCmd)
}
