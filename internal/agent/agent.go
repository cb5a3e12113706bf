// Package agent defines the conversation model shared by every participant:
// messages, the Agent capability and middleware composition.
package agent

import (
	"context"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	From    string `json:"from,omitempty"`
	Content string `json:"content"`
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(from string, content string) Message {
	return Message{Role: RoleAssistant, From: from, Content: content}
}

// Agent is a conversational capability: given a history it produces one reply.
type Agent interface {
	Name() string
	GenerateReply(ctx context.Context, messages []Message) (Message, error)
}

// ReplyFunc produces a reply for a history.
type ReplyFunc func(ctx context.Context, messages []Message) (Message, error)

type funcAgent struct {
	name  string
	reply ReplyFunc
}

// New builds an Agent from a name and a reply function.
func New(name string, reply ReplyFunc) Agent {
	return funcAgent{name: name, reply: reply}
}

func (a funcAgent) Name() string { return a.name }

func (a funcAgent) GenerateReply(ctx context.Context, messages []Message) (Message, error) {
	return a.reply(ctx, messages)
}

// Middleware intercepts a GenerateReply call. It may call next any number of times.
type Middleware func(ctx context.Context, messages []Message, next Agent) (Message, error)

type middlewareAgent struct {
	inner      Agent
	middleware Middleware
}

func (a middlewareAgent) Name() string { return a.inner.Name() }

func (a middlewareAgent) GenerateReply(ctx context.Context, messages []Message) (Message, error) {
	return a.middleware(ctx, messages, a.inner)
}

// Use wraps inner with the given middlewares. The first middleware is the outermost.
func Use(inner Agent, middlewares ...Middleware) Agent {
	wrapped := inner
	for index := len(middlewares) - 1; index >= 0; index-- {
		wrapped = middlewareAgent{inner: wrapped, middleware: middlewares[index]}
	}
	return wrapped
}

// Send asks target to reply to a single user message.
func Send(ctx context.Context, target Agent, content string) (Message, error) {
	return target.GenerateReply(ctx, []Message{NewUserMessage(content)})
}

// Append returns a new history; the input slice is never written to.
func Append(messages []Message, more ...Message) []Message {
	combined := make([]Message, 0, len(messages)+len(more))
	combined = append(combined, messages...)
	return append(combined, more...)
}

func Last(messages []Message) (Message, bool) {
	if len(messages) == 0 {
		return Message{}, false
	}
	return messages[len(messages)-1], true
}

// LastFrom returns the most recent message authored by name.
func LastFrom(messages []Message, name string) (Message, bool) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Message{}, false
	}
	for index := len(messages) - 1; index >= 0; index-- {
		if messages[index].From == trimmedName {
			return messages[index], true
		}
	}
	return Message{}, false
}

// TakeLast returns a copy of the last n messages.
func TakeLast(messages []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	start := 0
	if len(messages) > n {
		start = len(messages) - n
	}
	window := make([]Message, len(messages)-start)
	copy(window, messages[start:])
	return window
}
