// Package planner classifies a conversation into the next step of a fixed catalog.
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/coerce"
)

const (
	DefaultMaxRetry      = 3
	DefaultContextWindow = 5
)

const (
	planErrorFormat        = "plan next step: %w"
	parseStepErrorFormat   = "parse planner step: %w"
	wrapPlannerErrorFormat = "wrap planner %s: %w"
)

// Options configures a Planner.
type Options struct {
	MaxRetry int
	// Formatter repairs malformed replies. Nil repairs with the planner persona itself.
	Formatter agent.Agent
}

// Planner wraps a planner persona so every reply decodes as a Step.
type Planner struct {
	name    string
	coerced agent.Agent
}

// New wraps persona, which should carry SystemPrompt(catalog) as its system prompt.
func New(persona agent.Agent, options Options) (*Planner, error) {
	maxRetry := options.MaxRetry
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	coerced, err := coerce.FormatAsJSON[Step](persona, coerce.Options{MaxRetry: maxRetry, Formatter: options.Formatter})
	if err != nil {
		return nil, fmt.Errorf(wrapPlannerErrorFormat, persona.Name(), err)
	}
	return &Planner{name: persona.Name(), coerced: coerced}, nil
}

func (p *Planner) Name() string { return p.name }

func (p *Planner) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	return p.coerced.GenerateReply(ctx, messages)
}

// Plan asks the planner for the next step given an already windowed context.
func (p *Planner) Plan(ctx context.Context, plannerContext []agent.Message) (Step, agent.Message, error) {
	reply, err := p.coerced.GenerateReply(ctx, plannerContext)
	if err != nil {
		return Step{}, agent.Message{}, fmt.Errorf(planErrorFormat, err)
	}
	step, err := ParseStep(reply.Content)
	if err != nil {
		return Step{}, agent.Message{}, err
	}
	return step, reply, nil
}

// ParseStep decodes a step, accepting either "argument" or "input".
func ParseStep(content string) (Step, error) {
	step, err := coerce.Decode[Step](content)
	if err != nil {
		return Step{}, fmt.Errorf(parseStepErrorFormat, err)
	}
	return step, nil
}

// StepMessage serializes a step into an assistant message.
func StepMessage(step Step, from string) agent.Message {
	// Step holds only strings, so Marshal cannot fail.
	encoded, _ := json.Marshal(step)
	return agent.NewAssistantMessage(from, string(encoded))
}

// BuildContext returns fewshot ++ previous ++ [last], keeping only the last window entries.
func BuildContext(fewshot []agent.Message, previous []agent.Message, last agent.Message, window int) []agent.Message {
	if window <= 0 {
		window = DefaultContextWindow
	}
	combined := agent.Append(fewshot, previous...)
	combined = append(combined, last)
	return agent.TakeLast(combined, window)
}
