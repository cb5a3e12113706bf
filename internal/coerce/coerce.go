// Package coerce forces free-form model replies into JSON that decodes as a
// target type, repairing bad replies with bounded, feedback-driven retries.
package coerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/temirov/llm-interpreter/internal/agent"
)

// DefaultMaxRetry is the repair budget used when Options.MaxRetry is not positive.
const DefaultMaxRetry = 5

const (
	schemaGenerationErrorFormat = "generate json schema: %w"
	innerReplyErrorFormat       = "coerce %s: generate reply: %w"
	repairReplyErrorFormat      = "coerce %s: repair attempt %d: %w"
	repairPromptTemplate        = "Fix the error and format the plain text into a JSON object. The object must conform to the following schema:\n\n```schema\n%s\n```\n\n```plaintext\n%s\n```\n\n```error\n%s\n```\n\nReturn the JSON directly. Do not wrap it inside any block or include any other text."
)

var ErrFormatFailure = errors.New("format failure")

// FormatError reports a reply that never decoded within the repair budget.
type FormatError struct {
	Agent       string
	Attempts    int
	LastContent string
	Err         error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s produced no valid json after %d repair attempts: %v", ErrFormatFailure, e.Agent, e.Attempts, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormatFailure }

// Options configures FormatAsJSON.
type Options struct {
	// MaxRetry is the number of repair calls allowed after the first reply.
	MaxRetry int
	// Formatter receives the repair prompts. Nil repairs with the wrapped agent itself.
	Formatter agent.Agent
}

// SchemaFor returns the serialized JSON schema of T.
func SchemaFor[T any]() (string, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return "", fmt.Errorf(schemaGenerationErrorFormat, err)
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf(schemaGenerationErrorFormat, err)
	}
	return string(encoded), nil
}

// RepairPrompt renders the message sent to the formatter for a reply that failed to decode.
func RepairPrompt(schema string, content string, parseErr error) string {
	return fmt.Sprintf(repairPromptTemplate, schema, content, parseErr)
}

// FormatAsJSON wraps inner so that every successful reply decodes as T.
func FormatAsJSON[T any](inner agent.Agent, options Options) (agent.Agent, error) {
	schema, err := SchemaFor[T]()
	if err != nil {
		return nil, err
	}
	maxRetry := options.MaxRetry
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	formatter := options.Formatter
	if formatter == nil {
		formatter = inner
	}

	middleware := func(ctx context.Context, messages []agent.Message, next agent.Agent) (agent.Message, error) {
		reply, replyErr := next.GenerateReply(ctx, messages)
		if replyErr != nil {
			return agent.Message{}, fmt.Errorf(innerReplyErrorFormat, next.Name(), replyErr)
		}

		for attempt := 0; ; attempt++ {
			_, payload, parseErr := decode[T](reply.Content)
			if parseErr == nil {
				if payload != strings.TrimSpace(reply.Content) {
					reply.Content = payload
				}
				return reply, nil
			}
			if attempt == maxRetry {
				return agent.Message{}, &FormatError{
					Agent:       next.Name(),
					Attempts:    attempt,
					LastContent: reply.Content,
					Err:         parseErr,
				}
			}

			prompt := RepairPrompt(schema, reply.Content, parseErr)
			repaired, repairErr := agent.Send(ctx, formatter, prompt)
			if repairErr != nil {
				return agent.Message{}, fmt.Errorf(repairReplyErrorFormat, next.Name(), attempt+1, repairErr)
			}
			repaired.Role = agent.RoleAssistant
			repaired.From = next.Name()
			reply = repaired
		}
	}
	return agent.Use(inner, middleware), nil
}
