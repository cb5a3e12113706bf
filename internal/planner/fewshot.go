package planner

import (
	"github.com/temirov/llm-interpreter/internal/agent"
)

type example struct {
	situation string
	step      Step
}

var fewshotExamples = []example{
	{
		situation: "hey, help me create a folder",
		step: Step{
			Name:     "NeedInfo",
			Argument: "ask user: what's the name of the folder?",
			Reason:   "The user has asked for help to create a folder but the folder name is not provided",
		},
	},
	{
		situation: "What's the 100th prime number?",
		step: Step{
			Name:        "WriteCode",
			Description: "Write code to solve the problem",
			Argument:    "task: What's the 100th prime number?",
			Reason:      "The user has asked for the 100th prime number",
		},
	},
	{
		situation: "```go\nfmt.Println(\"Hello, World!\")\n```\n\nThe code writes \"Hello, World!\" to the console",
		step: Step{
			Name:        "RunCode",
			Description: "Run the code",
			Reason:      "The code is available",
		},
	},
	{
		situation: "### Output\n\n 403 Forbidden",
		step: Step{
			Name:     "NeedInfo",
			Argument: "ask user: please provide necessary information for authorization",
			Reason:   "The code returns 403 Forbidden, which means the user needs to provide necessary information for authorization",
		},
	},
	{
		situation: "### Output\n\nHello, World!",
		step: Step{
			Name:        "Succeed",
			Description: "The task has been resolved",
			Reason:      "The code has been run successfully",
		},
	},
}

// FewshotExamples returns user/assistant pairs anchoring the planner's output.
func FewshotExamples() []agent.Message {
	messages := make([]agent.Message, 0, 2*len(fewshotExamples))
	for _, entry := range fewshotExamples {
		messages = append(messages, agent.NewUserMessage(entry.situation), StepMessage(entry.step, ""))
	}
	return messages
}
