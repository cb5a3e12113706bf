package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/llm-interpreter/internal/agent"
)

const (
	roleSystem          = "system"
	roleUser            = "user"
	roleAssistant       = "assistant"
	completeErrorFormat = "agent %s: %w"
)

// ChatAgent is an agent.Agent backed by a language model.
type ChatAgent struct {
	name         string
	systemPrompt string
	completer    Completer
	settings     ModelSettings
	schema       *ResponseSchema
}

func NewChatAgent(name string, systemPrompt string, completer Completer, settings ModelSettings) *ChatAgent {
	return &ChatAgent{name: name, systemPrompt: systemPrompt, completer: completer, settings: settings}
}

// WithResponseSchema returns a copy that requests schema-constrained replies.
func (a *ChatAgent) WithResponseSchema(schema ResponseSchema) *ChatAgent {
	constrained := *a
	constrained.schema = &schema
	return &constrained
}

func (a *ChatAgent) Name() string { return a.name }

func (a *ChatAgent) GenerateReply(ctx context.Context, messages []agent.Message) (agent.Message, error) {
	content, err := a.completer.Complete(ctx, CompletionRequest{
		Messages:    a.chatMessages(messages),
		Model:       a.settings.ModelID,
		MaxTokens:   a.settings.MaxCompletionTokens,
		Temperature: a.settings.temperature(),
		Schema:      a.schema,
	})
	if err != nil {
		return agent.Message{}, fmt.Errorf(completeErrorFormat, a.name, err)
	}
	return agent.NewAssistantMessage(a.name, content), nil
}

// chatMessages maps the shared history onto the wire roles: the agent's own
// messages become assistant turns and every other speaker becomes a user turn.
func (a *ChatAgent) chatMessages(messages []agent.Message) []ChatMessage {
	chatMessages := make([]ChatMessage, 0, len(messages)+1)
	if strings.TrimSpace(a.systemPrompt) != "" {
		chatMessages = append(chatMessages, ChatMessage{Role: roleSystem, Content: a.systemPrompt})
	}
	for _, message := range messages {
		chatMessages = append(chatMessages, ChatMessage{Role: a.wireRole(message), Content: message.Content})
	}
	return chatMessages
}

func (a *ChatAgent) wireRole(message agent.Message) string {
	switch {
	case message.Role == agent.RoleSystem:
		return roleSystem
	case message.From == a.name:
		return roleAssistant
	case message.From == "" && message.Role == agent.RoleAssistant:
		return roleAssistant
	default:
		return roleUser
	}
}
