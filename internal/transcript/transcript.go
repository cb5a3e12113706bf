// Package transcript renders session events for people: a markdown export
// and a styled console stream.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/temirov/llm-interpreter/internal/fsops"
	"github.com/temirov/llm-interpreter/internal/workflow"
)

const (
	sessionHeadingFormat = "# Session %s\n"
	taskHeading          = "\n## Task\n\n"
	roundHeadingFormat   = "\n## Round %d\n"
	stepLineFormat       = "\n**Step:** `%s`\n"
	speakerHeadingFormat = "\n### %s\n\n"
	stallLineFormat      = "\n_No participant could act on `%s`; the round stalled._\n"
	resultHeading        = "\n## Result\n\n"
	exportErrorFormat    = "export transcript: %w"
)

// Collector keeps every event it records, in order.
type Collector struct {
	mutex  sync.Mutex
	events []workflow.Event
}

func (c *Collector) Record(ctx context.Context, event workflow.Event) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.events = append(c.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []workflow.Event {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]workflow.Event(nil), c.events...)
}

// Render writes the events of one session as markdown.
func Render(events []workflow.Event) string {
	var builder strings.Builder
	if len(events) == 0 {
		return ""
	}
	fmt.Fprintf(&builder, sessionHeadingFormat, events[0].SessionID)

	currentRound := 0
	for _, event := range events {
		if event.Round > currentRound {
			currentRound = event.Round
			if event.Kind != workflow.EventResult {
				fmt.Fprintf(&builder, roundHeadingFormat, currentRound)
			}
		}
		switch event.Kind {
		case workflow.EventStart:
			builder.WriteString(taskHeading)
			builder.WriteString(strings.TrimSpace(event.Content) + "\n")
		case workflow.EventStep:
			fmt.Fprintf(&builder, stepLineFormat, event.Step)
		case workflow.EventMessage:
			fmt.Fprintf(&builder, speakerHeadingFormat, event.Speaker)
			builder.WriteString(strings.TrimSpace(event.Content) + "\n")
		case workflow.EventStall:
			fmt.Fprintf(&builder, stallLineFormat, event.Step)
		case workflow.EventResult:
			builder.WriteString(resultHeading)
			builder.WriteString("```json\n" + strings.TrimSpace(event.Content) + "\n```\n")
		}
	}
	return builder.String()
}

// Export renders events to path, choosing a free sibling name when path exists.
// It returns the path written.
func Export(ops fsops.Ops, path string, events []workflow.Event) (string, error) {
	target, err := ops.AvailablePath(path)
	if err != nil {
		return "", fmt.Errorf(exportErrorFormat, err)
	}
	if err := ops.WriteFileAtomic(target, []byte(Render(events))); err != nil {
		return "", fmt.Errorf(exportErrorFormat, err)
	}
	return target, nil
}
