package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/pkg/config"
	"github.com/macropower/dictamen/pkg/mcp"
	"github.com/macropower/dictamen/pkg/report"
)

type ServeMCPArgs struct {
	*RootArgs
	ReportArgs

	Address string
}

func NewServeMCPArgs(rootArgs *RootArgs) *ServeMCPArgs {
	return &ServeMCPArgs{RootArgs: rootArgs}
}

func (sa *ServeMCPArgs) AddFlags(cmd *cobra.Command) {
	sa.ReportArgs.AddFlags(cmd)

	cmd.Flags().StringVar(&sa.Address, "address", "", "Serve streamable HTTP at this address; stdio when empty")
}

func NewServeMCPCmd(sa *ServeMCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the MCP tools for evaluating conditions and rendering reports",
		Example: `  dictamen serve-mcp -c informe.yaml
  dictamen serve-mcp --address localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := sa.Builder(cmd, "")

			switch {
			case errors.Is(err, config.ErrNoReports):
				slog.Warn("no report definition found, only evaluate_condition is available")

				b = nil
			case err != nil:
				return err
			}

			return serveMCP(cmd, sa.Address, b)
		},
	}

	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func serveMCP(cmd *cobra.Command, address string, b *report.Builder) error {
	err := mcp.NewServer(address, b).Serve(cmd.Context())
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}
