package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/yaml"
)

type EvalArgs struct {
	*RootArgs

	DataPath string
	Explain  bool
}

func NewEvalArgs(rootArgs *RootArgs) *EvalArgs {
	return &EvalArgs{RootArgs: rootArgs}
}

func (ea *EvalArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ea.DataPath, "data", "d", "", "Form data file (YAML or JSON), or - for stdin")
	cmd.Flags().BoolVar(&ea.Explain, "explain", false, "Print the parsed condition and the values it reads")

	err := cmd.MarkFlagFilename("data", "yaml", "yml", "json")
	if err != nil {
		panic(fmt.Errorf("mark data flag: %w", err))
	}
}

// explanation is printed by eval --explain.
type explanation struct {
	Expression string         `json:"expression" yaml:"expression"`
	Result     bool           `json:"result"     yaml:"result"`
	Values     map[string]any `json:"values"     yaml:"values"`
}

func NewEvalCmd(ea *EvalArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval EXPRESSION",
		Short: "Evaluate a rule condition against form data",
		Example: `  dictamen eval "tipo_opinion == 'favorable'" -d datos.yaml
  dictamen eval "1 < num_salvedades <= 10 and not incertidumbre" -d datos.yaml --explain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadData(ea.DataPath)
			if err != nil {
				return err
			}

			x, err := expr.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			result := x.Eval(data)

			if !ea.Explain {
				mustN(fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(result)))

				return nil
			}

			e := explanation{
				Expression: x.String(),
				Result:     result,
				Values:     map[string]any{},
			}
			for _, name := range x.Variables() {
				e.Values[name] = data[name]
			}

			b, err := yaml.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal explanation: %w", err)
			}

			if isTerminal(cmd.OutOrStdout()) {
				b, err = yaml.NewHighlighter(highlightStyle).Highlight(b)
				if err != nil {
					return fmt.Errorf("highlight: %w", err)
				}
			}

			_, err = cmd.OutOrStdout().Write(b)
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		},
	}

	ea.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
