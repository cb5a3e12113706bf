package planner

import (
	"fmt"
	"strings"
)

// HelperSystemPrompt is the neutral persona used to repair malformed planner replies.
const HelperSystemPrompt = "You are a helpful AI assistant."

const responseInstructions = `Your response must be a valid JSON object that contains the following fields:
- name: the name of the step you choose, which must be one of the available steps
- input: the input of the step
- reason: the brief reason of why you choose the step

Below is an example of the response:
` + "```json" + `
{
    "name": "step1",
    "input": "input for step1",
    "reason": "brief reason"
}
` + "```"

// SystemPrompt renders the planner persona for a catalog.
func SystemPrompt(catalog Catalog) string {
	var builder strings.Builder
	builder.WriteString("You are responsible for returning the next step from the available steps below.\n\n")
	builder.WriteString("### Available Steps\n")
	for _, step := range catalog {
		builder.WriteString(fmt.Sprintf("- %s: %s\n", step.Name, step.Description))
	}
	builder.WriteString("\n")
	builder.WriteString(responseInstructions)
	builder.WriteString("\n")
	return builder.String()
}
