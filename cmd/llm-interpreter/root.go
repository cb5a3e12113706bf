package llminterpreter

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRootCommand assembles the CLI. Every flag can also be given through the
// environment as LLM_INTERPRETER_<FLAG>, e.g. LLM_INTERPRETER_MAX_ROUND.
func NewRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootCommandUse,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnvironmentOverrides(cmd.Flags())
		},
	}
	rootCommand.AddCommand(newRunCommand())
	rootCommand.AddCommand(newStepsCommand())
	rootCommand.AddCommand(newConfigCommand())
	rootCommand.AddCommand(newHistoryCommand())
	return rootCommand
}

func Execute() error {
	return NewRootCommand().Execute()
}

// applyEnvironmentOverrides fills flags left unset on the command line from
// the environment. Explicit flags always win.
func applyEnvironmentOverrides(flags *pflag.FlagSet) error {
	environment := viper.New()
	environment.SetEnvPrefix(environmentPrefix)
	environment.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	environment.AutomaticEnv()

	var overrideErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		// The configuration loader reads LLM_INTERPRETER_CONFIG itself so it can report the tier.
		if flag.Name == configFlagName || overrideErr != nil || flag.Changed || !environment.IsSet(flag.Name) {
			return
		}
		if err := flags.Set(flag.Name, environment.GetString(flag.Name)); err != nil {
			overrideErr = fmt.Errorf(environmentFlagErrorFormat, flag.Name, err)
		}
	})
	return overrideErr
}
