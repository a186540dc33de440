package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type ValidateArgs struct {
	*RootArgs
	ReportArgs
}

func NewValidateArgs(rootArgs *RootArgs) *ValidateArgs {
	return &ValidateArgs{RootArgs: rootArgs}
}

func NewValidateCmd(va *ValidateArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check report definitions against the schema and compile them",
		Example: `  dictamen validate
  dictamen validate -c informe.yaml -c 'anexos/*.yaml'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := va.Paths("")
			if err != nil {
				return err
			}

			va.ConfigPaths = paths

			r, err := va.Load(cmd, "")
			if err != nil {
				return err
			}

			files := watchPaths(paths, "")

			var size uint64

			for _, path := range files {
				info, err := os.Stat(path)
				if err == nil {
					size += uint64(info.Size()) //nolint:gosec // File sizes are positive.
				}
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %s, %s (%s in %s)\n",
				r.Name,
				plural(len(r.Blocks), "block"),
				plural(len(r.Variables), "variable"),
				humanize.Bytes(size),
				plural(len(files), "file"),
			))

			return nil
		},
	}

	va.ReportArgs.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return humanize.Comma(int64(n)) + " " + noun + "s"
}
