package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars automatically binds environment variables to cobra command flags.
// Environment variable names are DICTAMEN_<FLAG_NAME>, with the flag name in
// uppercase and dashes replaced with underscores:
//   - Flag "log-level" becomes "DICTAMEN_LOG_LEVEL"
//   - Flag "data" becomes "DICTAMEN_DATA"
//
// Slice flags such as "config" take a comma-separated list. Arguments take
// precedence over environment variables, which take precedence over defaults.
// Flag usage strings are updated to name the variable in help output.
func bindEnvVars(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		bindFlagToEnv(flag)
	})

	cmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		bindFlagToEnv(flag)
	})
}

// bindFlagToEnv binds a single flag to its corresponding environment variable.
func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	envValue, ok := os.LookupEnv(envName)
	if ok {
		var err error

		// Replace does not mark a slice as set, so arguments still
		// overwrite it instead of appending.
		if sv, isSlice := flag.Value.(pflag.SliceValue); isSlice {
			err = sv.Replace(strings.Split(envValue, ","))
		} else {
			err = flag.Value.Set(envValue)
		}

		if err != nil {
			// Keep the default.
			slog.Error("failed to set flag from environment variable",
				slog.String("flag", flag.Name),
				slog.String("env", envName),
				slog.String("value", envValue),
				slog.Any("error", err),
			)
		}
	}
}

// flagToEnvName converts a flag name to its environment variable name.
func flagToEnvName(flagName string) string {
	envName := strings.ReplaceAll(flagName, "-", "_")
	return strings.ToUpper(cmdName + "_" + envName)
}
