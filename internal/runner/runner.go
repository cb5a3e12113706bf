// Package runner implements the participant that executes the coder's code in a sandbox.
package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/sandbox"
)

const DefaultOutputCap = 500

const (
	OutputHeading      = "## Output from running the code:"
	ErrorHeading       = "## Error from running the code:"
	NoCodeReply        = "No code snippet found"
	TruncatedMarker    = "(truncated)"
	noCodeSentinel     = "NONE"
	submitErrorFormat  = "runner %s: submit code: %w"
	extractErrorFormat = "runner %s: extract code: %w"
)

const extractionPromptTemplate = "Retrieve the Go code from the code snippet in the original reply below and return the code only. Don't include ```go and ``` in your reply. If there is no code, reply with NONE.\n\n```original reply\n%s\n```\n\nHere are a few examples of your reply:\n# Example 1:\nfmt.Println(\"Hello, World!\")\n\n# Example 2:\nimport \"fmt\"\n\nfmt.Println(\"Hello, World!\")"

var codeBlock = regexp.MustCompile("(?s)```(?:go|golang)?[ \\t]*\\r?\\n(.*?)```")

// Options configures a Runner.
type Options struct {
	OutputCap int
	// Extractor is consulted only when the message carries no fenced code block.
	Extractor agent.Agent
	Logger    *zap.Logger
}

// Runner runs the code found in the last message it receives.
type Runner struct {
	name    string
	sandbox sandbox.Sandbox
	options Options
	logger  *zap.Logger
}

func New(name string, box sandbox.Sandbox, options Options) *Runner {
	if options.OutputCap <= 0 {
		options.OutputCap = DefaultOutputCap
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{name: name, sandbox: box, options: options, logger: logger}
}

func (r *Runner) Name() string { return r.name }

// GenerateReply executes the code in the last message. Sandbox failures become
// an error report so the planner can choose to fix the code.
func (r *Runner) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	last, ok := agent.Last(messages)
	if !ok {
		return r.reply(NoCodeReply), nil
	}

	code, found := ExtractCode(last.Content)
	if !found && r.options.Extractor != nil {
		extracted, err := r.extractWithHelper(ctx, last.Content)
		if err != nil {
			return agent.Message{}, fmt.Errorf(extractErrorFormat, r.name, err)
		}
		code, found = extracted, extracted != ""
	}
	if !found {
		r.logger.Info("no code to run", zap.String("runner", r.name))
		return r.reply(NoCodeReply), nil
	}

	output, err := r.sandbox.Submit(ctx, code)
	if err != nil {
		var executionErr *sandbox.ExecutionError
		if !errors.As(err, &executionErr) {
			return agent.Message{}, fmt.Errorf(submitErrorFormat, r.name, err)
		}
		r.logger.Info("code execution failed", zap.String("runner", r.name), zap.Error(err))
		detail := strings.TrimSpace(strings.TrimSpace(executionErr.Output) + "\n" + executionErr.Err.Error())
		return r.reply(ErrorHeading + "\n" + Truncate(detail, r.options.OutputCap)), nil
	}

	r.logger.Debug("code executed", zap.String("runner", r.name), zap.Int("output_bytes", len(output)))
	return r.reply(OutputHeading + "\n" + Truncate(output, r.options.OutputCap)), nil
}

func (r *Runner) reply(content string) agent.Message {
	return agent.NewAssistantMessage(r.name, content)
}

func (r *Runner) extractWithHelper(ctx context.Context, content string) (string, error) {
	reply, err := agent.Send(ctx, r.options.Extractor, fmt.Sprintf(extractionPromptTemplate, content))
	if err != nil {
		return "", err
	}
	code := strings.TrimSpace(reply.Content)
	if fenced, ok := ExtractCode(code); ok {
		code = fenced
	}
	if code == "" || strings.EqualFold(code, noCodeSentinel) {
		return "", nil
	}
	return code, nil
}

// ExtractCode returns the body of the first fenced go block in content.
func ExtractCode(content string) (string, bool) {
	match := codeBlock.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	code := strings.TrimSpace(match[1])
	return code, code != ""
}

// Truncate keeps at most limit runes of output and marks the cut.
func Truncate(output string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(output) <= limit {
		return output
	}
	runes := []rune(output)
	return string(runes[:limit]) + "\n" + TruncatedMarker
}
