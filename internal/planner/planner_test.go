package planner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/coerce"
	"github.com/temirov/llm-interpreter/internal/planner"
)

func TestParseStepAcceptsArgumentAndInput(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected planner.Step
	}{
		{
			name:     "argument key",
			content:  `{"name":"WriteCode","argument":"task: sum","reason":"code needed"}`,
			expected: planner.Step{Name: "WriteCode", Argument: "task: sum", Reason: "code needed"},
		},
		{
			name:     "input key",
			content:  `{"name":"NeedInfo","input":"ask user: which folder?","reason":"missing name"}`,
			expected: planner.Step{Name: "NeedInfo", Argument: "ask user: which folder?", Reason: "missing name"},
		},
		{
			name:     "argument wins over input",
			content:  `{"name":"RunCode","argument":"a","input":"b"}`,
			expected: planner.Step{Name: "RunCode", Argument: "a"},
		},
		{
			name:     "fenced reply",
			content:  "```json\n{\"name\":\"Succeed\",\"reason\":\"done\"}\n```",
			expected: planner.Step{Name: "Succeed", Reason: "done"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			step, err := planner.ParseStep(testCase.content)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, step)
		})
	}
}

func TestParseStepRejectsMissingName(t *testing.T) {
	_, err := planner.ParseStep(`{"reason":"no name"}`)
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, planner.KindRunCode, planner.KindOf("RunCode"))
	assert.Equal(t, planner.KindFail, planner.KindOf("Fail"))
	assert.Equal(t, planner.KindUnknown, planner.KindOf("writecode"))
	assert.Equal(t, planner.KindUnknown, planner.KindOf(" FixError "))
	assert.Equal(t, planner.KindUnknown, planner.KindOf("Deploy"))
	assert.True(t, planner.KindSucceed.Terminal())
	assert.True(t, planner.KindFail.Terminal())
	assert.False(t, planner.KindWriteCode.Terminal())
	assert.Equal(t, "Unknown", planner.KindUnknown.String())
}

func TestDefaultCatalogExcludesFail(t *testing.T) {
	catalog := planner.DefaultCatalog()
	require.Len(t, catalog, 6)
	assert.False(t, catalog.Contains("Fail"))
	assert.True(t, catalog.Contains("Succeed"))
	assert.False(t, catalog.Contains("succeed"))

	failStep, ok := planner.Template(planner.KindFail)
	require.True(t, ok)
	assert.Equal(t, "The task has not been resolved", failStep.Description)
}

func TestSystemPromptEnumeratesCatalog(t *testing.T) {
	prompt := planner.SystemPrompt(planner.DefaultCatalog())
	assert.Contains(t, prompt, "- NeedInfo: Ask for more information when details are not enough or unclear")
	assert.Contains(t, prompt, "- RunCode: Run the code when the code is available")
	assert.Contains(t, prompt, "- input: the input of the step")
	assert.NotContains(t, prompt, "- Fail:")
}

func TestFewshotExamplesPairUserAndAssistantMessages(t *testing.T) {
	examples := planner.FewshotExamples()
	require.Len(t, examples, 10)

	expectedSteps := []string{"NeedInfo", "WriteCode", "RunCode", "NeedInfo", "Succeed"}
	for index, expectedStep := range expectedSteps {
		situation := examples[2*index]
		answer := examples[2*index+1]
		assert.Equal(t, agent.RoleUser, situation.Role)
		assert.Equal(t, agent.RoleAssistant, answer.Role)

		step, err := planner.ParseStep(answer.Content)
		require.NoError(t, err)
		assert.Equal(t, expectedStep, step.Name)
	}
}

func TestBuildContextKeepsLastWindowEntries(t *testing.T) {
	fewshot := planner.FewshotExamples()
	previous := []agent.Message{
		agent.NewUserMessage("print hello"),
		planner.StepMessage(planner.Step{Name: "WriteCode"}, "planner"),
	}
	last := agent.NewAssistantMessage("coder", "```go\nfmt.Println(\"hello\")\n```")

	plannerContext := planner.BuildContext(fewshot, previous, last, 5)

	require.Len(t, plannerContext, 5)
	assert.Equal(t, last, plannerContext[4])
	assert.Equal(t, previous[1], plannerContext[3])
	assert.Equal(t, previous[0], plannerContext[2])
	assert.Equal(t, fewshot[9], plannerContext[1])
	assert.Len(t, fewshot, 10)

	assert.Len(t, planner.BuildContext(nil, nil, last, 0), 1)
}

func TestStepMessageParsesBackToStep(t *testing.T) {
	step := planner.Step{Name: "FixError", Reason: "undefined: fmt \"quoted\"\n"}

	message := planner.StepMessage(step, "planner")

	assert.Equal(t, "planner", message.From)
	parsed, err := planner.ParseStep(message.Content)
	require.NoError(t, err)
	assert.Equal(t, step, parsed)
}

func TestPlannerRepairsWithFormatter(t *testing.T) {
	var personaCalls, formatterCalls int
	persona := agent.New("planner", func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		personaCalls++
		return agent.NewAssistantMessage("planner", "I would write some code now."), nil
	})
	formatter := agent.New("planner-helper", func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		formatterCalls++
		return agent.NewAssistantMessage("planner-helper", `{"name":"WriteCode","input":"task: print","reason":"needs code"}`), nil
	})

	plannerAgent, err := planner.New(persona, planner.Options{Formatter: formatter})
	require.NoError(t, err)
	assert.Equal(t, "planner", plannerAgent.Name())

	step, reply, err := plannerAgent.Plan(context.Background(), []agent.Message{agent.NewUserMessage("print hi")})
	require.NoError(t, err)
	assert.Equal(t, planner.KindWriteCode, step.Kind())
	assert.Equal(t, "task: print", step.Argument)
	assert.Equal(t, "planner", reply.From)
	assert.Equal(t, 1, personaCalls)
	assert.Equal(t, 1, formatterCalls)
}

func TestPlannerFailsAfterDefaultRetryBudget(t *testing.T) {
	var formatterCalls int
	persona := agent.New("planner", func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		return agent.NewAssistantMessage("planner", "no idea"), nil
	})
	formatter := agent.New("planner-helper", func(ctx context.Context, messages []agent.Message) (agent.Message, error) {
		formatterCalls++
		return agent.NewAssistantMessage("planner-helper", fmt.Sprintf("attempt %d", formatterCalls)), nil
	})

	plannerAgent, err := planner.New(persona, planner.Options{Formatter: formatter})
	require.NoError(t, err)

	_, _, err = plannerAgent.Plan(context.Background(), []agent.Message{agent.NewUserMessage("task")})
	assert.ErrorIs(t, err, coerce.ErrFormatFailure)
	assert.Equal(t, planner.DefaultMaxRetry, formatterCalls)
}
