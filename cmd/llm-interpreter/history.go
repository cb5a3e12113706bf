package llminterpreter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-interpreter/internal/store"
	"github.com/temirov/llm-interpreter/internal/transcript"
)

const (
	sessionTimeLayout = time.RFC3339
	maxTaskPreview    = 60
	ellipsis          = "..."
)

type historyCommandOptions struct {
	configPath      string
	historyDatabase string
	limit           int
}

func newHistoryCommand() *cobra.Command {
	options := &historyCommandOptions{configPath: defaultConfigPath, limit: defaultHistoryLimit}

	command := &cobra.Command{
		Use:   historyCommandUse,
		Short: historyCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd, *options)
		},
	}
	command.PersistentFlags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.PersistentFlags().StringVar(&options.historyDatabase, historyDatabaseFlagName, "", historyDatabaseFlagUsage)
	command.Flags().IntVar(&options.limit, limitFlagName, defaultHistoryLimit, limitFlagUsage)

	command.AddCommand(&cobra.Command{
		Use:   historyShowCommandUse,
		Short: historyShowCommandShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSession(cmd, *options, strings.TrimSpace(args[0]))
		},
	})
	return command
}

func openEventLog(options historyCommandOptions) (*store.EventLog, func() error, error) {
	path := strings.TrimSpace(options.historyDatabase)
	if path == "" {
		rootConfiguration, _, err := loadRootConfiguration(options.configPath)
		if err != nil {
			return nil, nil, err
		}
		path = resolveHistoryDatabase("", rootConfiguration)
	}
	if path == "" {
		return nil, nil, errors.New(missingHistoryDatabaseMessage)
	}
	database, err := openHistoryDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	return store.NewEventLog(database), database.Close, nil
}

func listSessions(cmd *cobra.Command, options historyCommandOptions) error {
	eventLog, closeDatabase, err := openEventLog(options)
	if err != nil {
		return err
	}
	defer closeDatabase()

	sessions, err := eventLog.Sessions(cmd.Context(), options.limit)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		result := session.Result
		if result == "" {
			result = dashPlaceholder
		}
		line := fmt.Sprintf(sessionLineFormat, session.ID, session.StartedAt.Format(sessionTimeLayout), result, session.Rounds, preview(session.Task))
		if _, err := fmt.Fprint(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf(writeOutputErrorFormat, err)
		}
	}
	return nil
}

func showSession(cmd *cobra.Command, options historyCommandOptions, sessionID string) error {
	eventLog, closeDatabase, err := openEventLog(options)
	if err != nil {
		return err
	}
	defer closeDatabase()

	events, err := eventLog.ListBySession(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf(unknownSessionErrorFormat, sessionID)
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), transcript.Render(events)); err != nil {
		return fmt.Errorf(writeOutputErrorFormat, err)
	}
	return nil
}

// preview flattens a task to one line and shortens it for listings.
func preview(task string) string {
	flattened := strings.Join(strings.Fields(task), " ")
	runes := []rune(flattened)
	if len(runes) <= maxTaskPreview {
		return flattened
	}
	return string(runes[:maxTaskPreview]) + ellipsis
}
