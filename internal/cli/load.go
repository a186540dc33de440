package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/config"
	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/report"
)

// ReportArgs are the flags shared by commands that load report definitions.
type ReportArgs struct {
	ConfigPaths []string
}

func (ra *ReportArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&ra.ConfigPaths, "config", "c", nil,
		"Report definition files or globs, merged in order; searched for from the data file when unset")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

// Paths returns the configured definition files, or the one found by
// searching upward from near.
func (ra *ReportArgs) Paths(near string) ([]string, error) {
	if len(ra.ConfigPaths) > 0 {
		return ra.ConfigPaths, nil
	}

	if near == "" || near == "-" {
		var err error

		near, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	path, err := config.FindReport(near)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	slog.Debug("found report definition", slog.String("path", path))

	return []string{path}, nil
}

// Load reads and merges the report definitions.
func (ra *ReportArgs) Load(cmd *cobra.Command, near string) (*reports.Report, error) {
	paths, err := ra.Paths(near)
	if err != nil {
		return nil, err
	}

	r, err := config.LoadReports(paths, config.WithReportColor(isTerminal(cmd.ErrOrStderr())))
	if err != nil {
		return nil, err //nolint:wrapcheck // Carries the path.
	}

	return r, nil
}

// Builder loads the report definitions and creates a [report.Builder].
func (ra *ReportArgs) Builder(cmd *cobra.Command, near string) (*report.Builder, error) {
	r, err := ra.Load(cmd, near)
	if err != nil {
		return nil, err
	}

	b, err := report.NewBuilder(r)
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}

	return b, nil
}

// loadData reads form data from path, or returns an empty context when path
// is empty.
func loadData(path string) (expr.Context, error) {
	if path == "" {
		return expr.Context{}, nil
	}

	data, err := config.LoadData(path)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}

	return data, nil
}

// watchPaths returns the files to watch for a report built from configs and
// dataPath. Globs are expanded; stdin is skipped.
func watchPaths(configs []string, dataPath string) []string {
	var paths []string

	for _, c := range append(slices.Clone(configs), dataPath) {
		if c == "" || c == "-" {
			continue
		}

		matches, err := filepath.Glob(c)
		if err != nil || len(matches) == 0 {
			paths = append(paths, c)

			continue
		}

		paths = append(paths, matches...)
	}

	return paths
}
