package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/pkg/report"
)

type RenderArgs struct {
	*RootArgs
	ReportArgs

	DataPath string
	Format   string
	Blocks   []string
	Width    int
	Watch    bool
}

func NewRenderArgs(rootArgs *RootArgs) *RenderArgs {
	return &RenderArgs{RootArgs: rootArgs}
}

func (ra *RenderArgs) AddFlags(cmd *cobra.Command) {
	ra.ReportArgs.AddFlags(cmd)

	cmd.Flags().StringVarP(&ra.DataPath, "data", "d", "", "Form data file (YAML or JSON), or - for stdin")
	cmd.Flags().StringVarP(&ra.Format, "format", "f", FormatYAML,
		fmt.Sprintf("Output format, one of: %s", AllOutputFormats))
	cmd.Flags().StringSliceVarP(&ra.Blocks, "block", "b", nil, "Only output these blocks")
	cmd.Flags().IntVar(&ra.Width, "width", 0, "Wrap text output at this width; the terminal width when 0")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Render again whenever the definition or data changes")

	err := cmd.MarkFlagFilename("data", "yaml", "yml", "json")
	if err != nil {
		panic(fmt.Errorf("mark data flag: %w", err))
	}

	err = cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(AllOutputFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("block", ra.completeBlocks)
	if err != nil {
		panic(err)
	}
}

func (ra *RenderArgs) completeBlocks(cmd *cobra.Command, _ []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
	r, err := ra.Load(cmd, ra.DataPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	completions := make([]cobra.Completion, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		completions = append(completions, cobra.CompletionWithDesc(b.ID, b.Description))
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

func NewRenderCmd(ra *RenderArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Build the report text for form data",
		Example: `  dictamen render -d datos.yaml
  dictamen render -c informe.yaml -d datos.json -b parrafo_opinion -f text
  cat datos.yaml | dictamen render -c informe.yaml -d - -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !ra.Watch {
				return ra.render(cmd.Context(), cmd)
			}

			if ra.DataPath == "-" {
				return fmt.Errorf("%w: cannot watch data read from stdin", ErrInvalidArgument)
			}

			paths, err := ra.Paths(ra.DataPath)
			if err != nil {
				return err
			}

			w, err := NewWatcher(watchPaths(paths, ra.DataPath), defaultWatchDelay)
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Run(cmd.Context(), func(ctx context.Context) error {
				return ra.render(ctx, cmd)
			})
		},
	}

	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func (ra *RenderArgs) render(ctx context.Context, cmd *cobra.Command) error {
	b, err := ra.Builder(cmd, ra.DataPath)
	if err != nil {
		return err
	}

	err = checkBlocks(ra.Blocks, b.Report().BlockIDs())
	if err != nil {
		return err
	}

	data, err := loadData(ra.DataPath)
	if err != nil {
		return err
	}

	out, err := b.Build(ctx, data)
	if err != nil {
		return err //nolint:wrapcheck // Names the report.
	}

	return ra.write(cmd, out)
}

func (ra *RenderArgs) write(cmd *cobra.Command, out *report.Output) error {
	// Structured formats carry the diagnostics themselves.
	if ra.Format == FormatText {
		writeDiagnostics(cmd.ErrOrStderr(), out.Diagnostics)
	}

	return writeOutput(cmd.OutOrStdout(), out, ra.Blocks, ra.Format, ra.Width)
}
