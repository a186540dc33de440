package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/yaml"
)

type InitArgs struct {
	*RootArgs

	Name  string
	Force bool
}

func NewInitArgs(rootArgs *RootArgs) *InitArgs {
	return &InitArgs{RootArgs: rootArgs}
}

func (ia *InitArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ia.Name, "name", "", "Name of the new report definition")
	cmd.Flags().BoolVar(&ia.Force, "force", false, "Overwrite an existing file, keeping a backup")
}

func NewInitCmd(ia *InitArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example report definition",
		Example: `  dictamen init
  dictamen init informes/cuentas.yaml --name cuentas_anuales`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := reports.FileNames[0]
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !ia.Force {
				return fmt.Errorf("%w: %s already exists, use --force to overwrite it", ErrInvalidArgument, path)
			}

			data := reports.DefaultYAML()

			if ia.Name != "" {
				var err error

				data, err = yaml.SetRootField(data, "name", ia.Name)
				if err != nil {
					return fmt.Errorf("set name: %w", err)
				}
			}

			err := reports.WriteDefault(path, data, ia.Force)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			slog.Info("wrote report definition", slog.String("path", path))

			return nil
		},
	}

	ia.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
