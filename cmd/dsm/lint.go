package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"mercator-hq/dsm/pkg/cli"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/modelstore"
	"mercator-hq/dsm/pkg/telemetry/logging"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate model files",
	Long: `Validate model files without evaluating them.

The lint command parses each model and reports every problem it finds,
with the dn of the offending node:
  - YAML/JSON syntax errors
  - nodes without a type
  - leaves without a source
  - lists declaring more than one of item, items and nested
  - unknown resolver, filter and postformat names

Examples:
  # Lint single file
  dsm lint --file models/monitor.yaml

  # Lint directory
  dsm lint --dir models/

  # JSON output for CI/CD
  dsm lint --dir models/ --format json`,
	RunE: lintModels,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "model file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of model files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation result for one model file.
type LintResult struct {
	File   string      `json:"file"`
	Valid  bool        `json:"valid"`
	Errors []LintError `json:"errors,omitempty"`
}

// LintError is one problem found in a model.
type LintError struct {
	DN      string `json:"dn,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func lintModels(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		entries, err := os.ReadDir(lintFlags.dir)
		if err != nil {
			return fmt.Errorf("failed to list model files: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && modelstore.HasModelExtension(e.Name()) {
				files = append(files, filepath.Join(lintFlags.dir, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no model files found")
	}
	sort.Strings(files)

	// Only the catalog is used; no evaluation happens.
	eng, err := engine.New(nil, logging.Discard())
	if err != nil {
		return err
	}

	results := make([]LintResult, 0, len(files))
	for _, file := range files {
		results = append(results, lintFile(eng, file))
	}

	out := io.Writer(os.Stdout)
	if cmd != nil {
		out = cmd.OutOrStdout()
	}
	if lintFlags.format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		writeLintText(out, results)
	}

	for _, r := range results {
		if !r.Valid {
			return cli.NewCommandError("lint", fmt.Errorf("validation failed: %w", model.ErrInvalidModel))
		}
	}
	return nil
}

func lintFile(catalog model.Catalog, path string) LintResult {
	result := LintResult{File: path, Valid: true}

	root, err := model.ParseFile(path)
	if err == nil {
		err = model.Validate(root, catalog)
	}
	if err == nil {
		return result
	}

	result.Valid = false
	var list *model.ErrorList
	var single *model.Error
	switch {
	case errors.As(err, &list):
		for _, e := range list.Errors {
			result.Errors = append(result.Errors, lintError(e))
		}
	case errors.As(err, &single):
		result.Errors = append(result.Errors, lintError(single))
	default:
		result.Errors = append(result.Errors, LintError{Message: err.Error()})
	}
	return result
}

func lintError(e *model.Error) LintError {
	return LintError{DN: e.DN.String(), Kind: string(e.Kind), Message: e.Message}
}

func writeLintText(w io.Writer, results []LintResult) {
	totalErrors := 0
	for _, result := range results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)
		if result.Valid {
			fmt.Fprintln(w, "✓ Model valid")
		}
		for _, e := range result.Errors {
			fmt.Fprintf(w, "✗ Error: %s", e.Message)
			if e.DN != "" {
				fmt.Fprintf(w, " (dn %s)", e.DN)
			}
			fmt.Fprintln(w)
			totalErrors++
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d file(s), %d error(s)\n", len(results), totalErrors)
}
