package llminterpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/fsops"
	"github.com/temirov/llm-interpreter/internal/planner"
	"github.com/temirov/llm-interpreter/internal/transcript"
	"github.com/temirov/llm-interpreter/internal/workflow"
)

const (
	unresolvedTaskErrorFormat = "task not resolved: %s: %s"
	resultParseErrorFormat    = "read session result: %w"
)

type runCommandOptions struct {
	configPath      string
	task            string
	maxRound        int
	modelOverride   string
	timeout         time.Duration
	interactive     bool
	interactiveSet  bool
	transcriptPath  string
	historyDatabase string
}

func newRunCommand() *cobra.Command {
	options := &runCommandOptions{configPath: defaultConfigPath}

	command := &cobra.Command{
		Use:   runCommandUse,
		Short: runCommandShort,
		Args:  cobra.MaximumNArgs(runCommandArgsMax),
		RunE: func(cmd *cobra.Command, args []string) error {
			effectiveOptions := *options
			if len(args) > 0 {
				effectiveOptions.task = args[0]
			}
			return runTask(cmd, effectiveOptions)
		},
	}

	command.Flags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.Flags().StringVar(&options.task, taskFlagName, "", taskFlagUsage)
	command.Flags().IntVar(&options.maxRound, maxRoundFlagName, 0, maxRoundFlagUsage)
	command.Flags().StringVar(&options.modelOverride, modelFlagName, "", modelFlagUsage)
	command.Flags().DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagUsage)
	command.Flags().StringVar(&options.transcriptPath, transcriptFlagName, "", transcriptFlagUsage)
	command.Flags().StringVar(&options.historyDatabase, historyDatabaseFlagName, "", historyDatabaseFlagUsage)
	interactiveValue := newBoolChoiceValue(&options.interactive, &options.interactiveSet)
	command.Flags().Var(interactiveValue, interactiveFlagName, interactiveFlagUsage)
	if interactiveFlag := command.Flags().Lookup(interactiveFlagName); interactiveFlag != nil {
		interactiveFlag.NoOptDefVal = "true"
		interactiveFlag.DefValue = "false"
	}
	return command
}

func runTask(cmd *cobra.Command, options runCommandOptions) error {
	task := strings.TrimSpace(options.task)
	if task == "" {
		return errors.New(missingTaskErrorMessage)
	}

	rootConfiguration, _, err := loadRootConfiguration(options.configPath)
	if err != nil {
		return err
	}

	timeout := options.timeout
	if timeout <= 0 {
		timeout = time.Duration(rootConfiguration.Common.Defaults.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	built, err := buildInterpreter(rootConfiguration, buildOptions{
		modelOverride:   options.modelOverride,
		maxRound:        options.maxRound,
		interactive:     options.interactive,
		interactiveSet:  options.interactiveSet,
		historyDatabase: options.historyDatabase,
	}, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf(buildInterpreterErrorFormat, err)
	}
	defer built.Close()

	request := agent.NewUserMessage(task)
	request.From = rootConfiguration.Interpreter.User.Name
	result, solveErr := built.orchestrator.Solve(ctx, []agent.Message{request})

	if err := exportTranscript(cmd, options.transcriptPath, built.collector.Events()); err != nil {
		return err
	}
	if solveErr != nil {
		return fmt.Errorf(solveErrorFormat, solveErr)
	}

	step, err := workflow.Result(result)
	if err != nil {
		return fmt.Errorf(resultParseErrorFormat, err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), resultLineFormat, step.Name, step.Reason); err != nil {
		return fmt.Errorf(writeOutputErrorFormat, err)
	}
	if step.Kind() != planner.KindSucceed {
		return fmt.Errorf(unresolvedTaskErrorFormat, step.Name, step.Reason)
	}
	return nil
}

// exportTranscript writes the markdown transcript when a path was requested.
func exportTranscript(cmd *cobra.Command, path string, events []workflow.Event) error {
	if strings.TrimSpace(path) == "" || len(events) == 0 {
		return nil
	}
	written, err := transcript.Export(fsops.NewOps(fsops.NewOS()), path, events)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), transcriptWrittenFormat, written); err != nil {
		return fmt.Errorf(writeOutputErrorFormat, err)
	}
	return nil
}
