package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/pkg/log"
	"github.com/macropower/dictamen/pkg/telemetry"
	"github.com/macropower/dictamen/pkg/version"
)

const (
	cmdName = "dictamen"
	cmdDesc = `Rule-based drafting of audit report text from form data.`

	cmdExamples = `  # Render every block of the report definition found next to the data:
  dictamen render --data ./clientes/acme/datos.yaml

  # Render one block as wrapped text:
  dictamen render -c informe.yaml -c 'anexos/*.yaml' -d datos.yaml --block parrafo_opinion -f text

  # Re-render whenever the definition or the data changes:
  dictamen render -d datos.yaml --watch

  # Check a condition against form data:
  dictamen eval "tipo_opinion == 'salvedades' and num_salvedades > 1" -d datos.yaml --explain

  # Compare the text produced for two data files:
  dictamen diff -d datos-2024.yaml --against datos-2025.yaml

  # Write an example report definition:
  dictamen init informe.yaml`
)

type RootArgs struct {
	shutdown func(context.Context) error

	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	OTLPInsecure bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for traces; tracing is off when empty")
	cmd.PersistentFlags().
		BoolVar(&ra.OTLPInsecure, "otlp-insecure", false, "Connect to the OTLP endpoint without TLS")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		SilenceUsage:       true,
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewRenderCmd(NewRenderArgs(args)),
		NewEvalCmd(NewEvalArgs(args)),
		NewValidateCmd(NewValidateArgs(args)),
		NewDiffCmd(NewDiffArgs(args)),
		NewServeMCPCmd(NewServeMCPArgs(args)),
		NewInitCmd(NewInitArgs(args)),
		NewSchemaCmd(),
		NewVersionCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		ra.shutdown, err = telemetry.Setup(cmd.Context(), telemetry.Config{
			ServiceName:    cmdName,
			ServiceVersion: version.GetVersion(),
			Endpoint:       ra.OTLPEndpoint,
			Insecure:       ra.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdown == nil {
			return nil
		}

		err := ra.shutdown(context.WithoutCancel(cmd.Context()))
		if err != nil {
			slog.Warn("shutdown telemetry", slog.Any("err", err))
		}

		return nil
	}
}
