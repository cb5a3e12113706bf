// Package human provides the user participant: a console proxy for a person,
// or the prompt of a simulated user played by a model.
package human

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/llm-interpreter/internal/agent"
)

const (
	DefaultPrompt     = "> "
	readErrorFormat   = "read user input: %w"
	promptErrorFormat = "write user prompt: %w"
)

// SimulatedSystemPrompt makes a model stand in for the person using the interpreter.
const SimulatedSystemPrompt = `You are the user, you want to use code interpreter to solve your problem.
If you are asked to approve the code, you will approve it.
If you are asked for information you do not have, make a reasonable choice and say what you chose.`

// ErrNoInput reports that the input stream ended before the user answered.
var ErrNoInput = errors.New("user input closed")

// Proxy reads the user's replies from a line-oriented input stream.
type Proxy struct {
	name   string
	reader *bufio.Reader
	writer io.Writer
	prompt string
}

func NewProxy(name string, input io.Reader, output io.Writer) *Proxy {
	return &Proxy{name: name, reader: bufio.NewReader(input), writer: output, prompt: DefaultPrompt}
}

func (p *Proxy) Name() string { return p.name }

// GenerateReply prompts once and returns the next input line. A final line
// without a newline still counts; an empty stream yields ErrNoInput.
func (p *Proxy) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	if err := ctx.Err(); err != nil {
		return agent.Message{}, err
	}
	if _, err := io.WriteString(p.writer, p.prompt); err != nil {
		return agent.Message{}, fmt.Errorf(promptErrorFormat, err)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return agent.Message{}, fmt.Errorf(readErrorFormat, err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return agent.Message{}, ErrNoInput
	}
	return agent.Message{Role: agent.RoleUser, From: p.name, Content: strings.TrimSpace(line)}, nil
}
