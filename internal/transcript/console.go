package transcript

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/planner"
	"github.com/temirov/llm-interpreter/internal/workflow"
)

var (
	speakerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	resultStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46"))

	draftStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("214"))
)

// Console streams session events to a terminal.
type Console struct {
	mutex  sync.Mutex
	writer io.Writer
}

func NewConsole(writer io.Writer) *Console {
	return &Console{writer: writer}
}

func (c *Console) Record(ctx context.Context, event workflow.Event) error {
	var line string
	switch event.Kind {
	case workflow.EventStart:
		return nil
	case workflow.EventStep:
		line = stepStyle.Render(fmt.Sprintf("round %d → %s", event.Round, event.Step))
		if detail := stepDetail(event.Content); detail != "" {
			line += " " + dimStyle.Render(detail)
		}
	case workflow.EventMessage:
		line = speakerStyle.Render(event.Speaker+":") + "\n" + strings.TrimSpace(event.Content)
	case workflow.EventStall:
		line = dimStyle.Render(fmt.Sprintf("round %d stalled on %s", event.Round, event.Step))
	case workflow.EventResult:
		line = resultStyle.Render("result: " + event.Step)
	default:
		return nil
	}
	return c.write(line)
}

// stepDetail is the question or reason the planner attached to a step.
func stepDetail(content string) string {
	step, err := planner.ParseStep(content)
	if err != nil {
		return ""
	}
	if step.Argument != "" {
		return step.Argument
	}
	return step.Reason
}

func (c *Console) write(line string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, err := fmt.Fprintln(c.writer, line)
	return err
}

// PrintHook prints every reply of the wrapped agent before passing it on,
// which makes drafts that never reach the session history visible.
func (c *Console) PrintHook() agent.Middleware {
	return func(ctx context.Context, messages []agent.Message, next agent.Agent) (agent.Message, error) {
		reply, err := next.GenerateReply(ctx, messages)
		if err != nil {
			return reply, err
		}
		header := draftStyle.Render(fmt.Sprintf("%s (draft):", next.Name()))
		if writeErr := c.write(header + "\n" + strings.TrimSpace(reply.Content)); writeErr != nil {
			return agent.Message{}, writeErr
		}
		return reply, nil
	}
}
