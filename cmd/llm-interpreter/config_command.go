package llminterpreter

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-interpreter/internal/config"
)

const (
	sourceLineFormat = "source: %s (%s)\n"
	modelsHeading    = "models:"
	agentsHeading    = "agents:"
	userModeFormat   = "%s (%s)"
)

func newConfigCommand() *cobra.Command {
	configPath := defaultConfigPath
	command := &cobra.Command{
		Use:   configCommandUse,
		Short: configCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootConfiguration, source, err := loadRootConfiguration(configPath)
			if err != nil {
				return err
			}
			if err := printConfiguration(cmd.OutOrStdout(), rootConfiguration, source); err != nil {
				return fmt.Errorf(writeOutputErrorFormat, err)
			}
			return nil
		},
	}
	command.Flags().StringVar(&configPath, configFlagName, defaultConfigPath, configFlagUsage)
	return command
}

func printConfiguration(writer io.Writer, root config.Root, source config.RootConfigurationSource) error {
	if _, err := fmt.Fprintf(writer, sourceLineFormat, source.Reference, source.Tier); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(writer, modelsHeading); err != nil {
		return err
	}
	for _, modelConfiguration := range root.Models {
		marker := ""
		if modelConfiguration.Default {
			marker = defaultMarker
		}
		provider := modelConfiguration.Provider
		if provider == "" {
			provider = dashPlaceholder
		}
		if _, err := fmt.Fprintf(writer, modelLineFormat, modelConfiguration.Name, provider, modelConfiguration.ModelID, marker); err != nil {
			return err
		}
	}

	interpreter := root.Interpreter
	agents := []struct{ name, model string }{
		{plannerAgentName, interpreter.Planner.Model},
		{interpreter.Coder.Name, interpreter.Coder.Model},
		{interpreter.Runner.Name, interpreter.Runner.Model},
		{fmt.Sprintf(userModeFormat, interpreter.User.Name, interpreter.User.Mode), interpreter.User.Model},
	}
	if _, err := fmt.Fprintln(writer, agentsHeading); err != nil {
		return err
	}
	for _, entry := range agents {
		model := entry.model
		if model == "" {
			model = dashPlaceholder
		}
		if _, err := fmt.Fprintf(writer, agentLineFormat, entry.name, model); err != nil {
			return err
		}
	}
	return nil
}
