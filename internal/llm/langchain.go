package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	langchainGenerateErrorFormat = "langchaingo generate content: %w"
	langchainClientErrorFormat   = "creating langchaingo client: %w"
	langchainPlaceholderToken    = "placeholder"
)

var errNoLangchainChoices = errors.New("langchaingo returned no choices")

// LangchainCompleter sends completions through any langchaingo model.
type LangchainCompleter struct {
	Model llms.Model
}

// NewLangchainOpenAI builds a langchaingo OpenAI-compatible model.
func NewLangchainOpenAI(baseURL string, apiKey string, modelID string) (LangchainCompleter, error) {
	token := apiKey
	if strings.TrimSpace(token) == "" {
		token = langchainPlaceholderToken
	}
	options := []openai.Option{
		openai.WithModel(modelID),
		openai.WithToken(token),
	}
	if strings.TrimSpace(baseURL) != "" {
		options = append(options, openai.WithBaseURL(baseURL))
	}
	model, err := openai.New(options...)
	if err != nil {
		return LangchainCompleter{}, fmt.Errorf(langchainClientErrorFormat, err)
	}
	return LangchainCompleter{Model: model}, nil
}

func (c LangchainCompleter) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	contents := make([]llms.MessageContent, 0, len(request.Messages))
	for _, message := range request.Messages {
		contents = append(contents, llms.TextParts(langchainRole(message.Role), message.Content))
	}

	var callOptions []llms.CallOption
	if strings.TrimSpace(request.Model) != "" {
		callOptions = append(callOptions, llms.WithModel(request.Model))
	}
	if request.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(request.MaxTokens))
	}
	if request.Temperature != nil {
		callOptions = append(callOptions, llms.WithTemperature(*request.Temperature))
	}
	if request.Schema != nil {
		callOptions = append(callOptions, llms.WithJSONMode())
	}

	response, err := c.Model.GenerateContent(ctx, contents, callOptions...)
	if err != nil {
		return "", fmt.Errorf(langchainGenerateErrorFormat, err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", errNoLangchainChoices
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

func langchainRole(role string) llms.ChatMessageType {
	switch role {
	case roleSystem:
		return llms.ChatMessageTypeSystem
	case roleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
