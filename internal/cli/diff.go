package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/pkg/report"
)

var (
	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffRemoveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diffHunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	diffHeaderStyle = lipgloss.NewStyle().Bold(true)
)

type DiffArgs struct {
	*RootArgs
	ReportArgs

	DataPath    string
	AgainstPath string
	Blocks      []string
}

func NewDiffArgs(rootArgs *RootArgs) *DiffArgs {
	return &DiffArgs{RootArgs: rootArgs}
}

func (da *DiffArgs) AddFlags(cmd *cobra.Command) {
	da.ReportArgs.AddFlags(cmd)

	cmd.Flags().StringVarP(&da.DataPath, "data", "d", "", "Form data to compare from")
	cmd.Flags().StringVar(&da.AgainstPath, "against", "", "Form data to compare to")
	cmd.Flags().StringSliceVarP(&da.Blocks, "block", "b", nil, "Only compare these blocks")

	for _, name := range []string{"data", "against"} {
		err := cmd.MarkFlagRequired(name)
		if err != nil {
			panic(fmt.Errorf("mark %s flag: %w", name, err))
		}

		err = cmd.MarkFlagFilename(name, "yaml", "yml", "json")
		if err != nil {
			panic(fmt.Errorf("mark %s flag: %w", name, err))
		}
	}
}

func NewDiffCmd(da *DiffArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diff",
		Short:   "Show how the report text changes between two sets of form data",
		Example: `  dictamen diff -d datos-2024.yaml --against datos-2025.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := da.Builder(cmd, da.DataPath)
			if err != nil {
				return err
			}

			err = checkBlocks(da.Blocks, b.Report().BlockIDs())
			if err != nil {
				return err
			}

			from, err := da.build(cmd.Context(), b, da.DataPath)
			if err != nil {
				return err
			}

			to, err := da.build(cmd.Context(), b, da.AgainstPath)
			if err != nil {
				return err
			}

			diff := udiff.Unified(da.DataPath, da.AgainstPath, from, to)
			if diff == "" {
				slog.Info("no differences")

				return nil
			}

			writeDiff(cmd.OutOrStdout(), diff)

			return nil
		},
	}

	da.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func (da *DiffArgs) build(ctx context.Context, b *report.Builder, path string) (string, error) {
	data, err := loadData(path)
	if err != nil {
		return "", err
	}

	out, err := b.Build(ctx, data)
	if err != nil {
		return "", err //nolint:wrapcheck // Names the report.
	}

	return blockText(out, da.Blocks), nil
}

// blockText lists the text of each block under a header with its ID.
func blockText(out *report.Output, ids []string) string {
	if len(ids) == 0 {
		ids = out.Order
	}

	var sb strings.Builder

	for _, id := range ids {
		fmt.Fprintf(&sb, "## %s\n", id)

		if text := out.Blocks[id]; text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// writeDiff writes a unified diff, colored when w is a terminal.
func writeDiff(w io.Writer, diff string) {
	if !isTerminal(w) {
		mustN(io.WriteString(w, diff))

		return
	}

	for line := range strings.Lines(diff) {
		text := strings.TrimSuffix(line, "\n")

		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = diffHeaderStyle.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = diffHunkStyle.Render(text)
		case strings.HasPrefix(text, "+"):
			text = diffAddStyle.Render(text)
		case strings.HasPrefix(text, "-"):
			text = diffRemoveStyle.Render(text)
		}

		mustN(fmt.Fprintln(w, text))
	}
}
