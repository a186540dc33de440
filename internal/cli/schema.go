package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/version"
)

func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of report definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(reports.SchemaJSON())
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustN(fmt.Fprintln(cmd.OutOrStdout(), cmdName, version.Get().String()))

			return nil
		},
	}
}
