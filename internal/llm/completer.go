// Package llm turns configured language model providers into conversational agents.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// ResponseSchema asks the provider to constrain its reply to a JSON schema.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}

// CompletionRequest is a provider-neutral chat completion call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Model       string
	MaxTokens   int
	Temperature *float64
	Schema      *ResponseSchema
}

// Completer produces the text of one assistant reply.
type Completer interface {
	Complete(ctx context.Context, request CompletionRequest) (string, error)
}

// ModelSettings are the per-model request defaults taken from configuration.
type ModelSettings struct {
	ModelID             string
	MaxCompletionTokens int
	SupportsTemperature bool
	DefaultTemperature  float64
}

// temperature returns nil when the model only accepts its server default.
// Values of 0 and 1 are left to the server as well.
func (s ModelSettings) temperature() *float64 {
	if !s.SupportsTemperature || s.DefaultTemperature == 0 || s.DefaultTemperature == 1 {
		return nil
	}
	value := s.DefaultTemperature
	return &value
}

// OpenAICompleter sends completions through the HTTP Client.
type OpenAICompleter struct {
	Client Client
}

func (c OpenAICompleter) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	payload := ChatCompletionRequest{
		Model:               strings.TrimSpace(request.Model),
		Messages:            request.Messages,
		MaxCompletionTokens: request.MaxTokens,
		Temperature:         request.Temperature,
	}
	if request.Schema != nil {
		payload.ResponseFormat = &responseFormat{
			Type: responseFormatJSONSchema,
			JSONSchema: &jsonSchemaWrapper{
				Name:   request.Schema.Name,
				Schema: request.Schema.Schema,
			},
		}
	}
	return c.Client.CreateChatCompletion(ctx, payload)
}
