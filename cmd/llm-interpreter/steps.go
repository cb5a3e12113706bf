package llminterpreter

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-interpreter/internal/planner"
)

func newStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   stepsCommandUse,
		Short: stepsCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := planner.DefaultCatalog()
			if failStep, ok := planner.Template(planner.KindFail); ok {
				steps = append(steps, failStep)
			}
			for _, step := range steps {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), stepLineFormat, step.Name, step.Description); err != nil {
					return fmt.Errorf(writeOutputErrorFormat, err)
				}
			}
			return nil
		},
	}
}
