package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	chatCompletionsPath         = "/chat/completions"
	bodyPreviewLimit            = 512
	fragmentPreviewLimit        = 240
	refusalPreviewLimit         = 200
	finishReasonLength          = "length"
	responseFormatJSONSchema    = "json_schema"
	httpStatusErrorFormat       = "llm http error %d: %s"
	decodeCompletionErrorFormat = "decode chat completion: %w (body=%s)"
	noChoicesErrorFormat        = "chat completion returned no choices (status=%d body=%s)"
	parseContentErrorFormat     = "chat completion parse error: %w (body=%s)"
	truncatedReplyErrorFormat   = "chat completion truncated at max tokens (status=%d body=%s)"
	emptyReplyErrorFormat       = "chat completion returned empty message (status=%d body=%s)"
	refusalErrorFormat          = "chat completion refusal: %s"
	toolCallsErrorFormat        = "chat completion produced tool_calls: %s"
	unsupportedContentFormat    = "unsupported message content: %s"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	HTTPBaseURL string
	APIKey      string
	HTTPClient  *http.Client
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model               string          `json:"model"`
	Messages            []ChatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string             `json:"type"`
	JSONSchema *jsonSchemaWrapper `json:"json_schema,omitempty"`
}

type jsonSchemaWrapper struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

type chatMessageResponse struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Refusal   json.RawMessage `json:"refusal,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
}

type chatCompletionChoice struct {
	Message      chatMessageResponse `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	Choices []chatCompletionChoice `json:"choices"`
}

func truncateForLog(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// CreateChatCompletion posts one request and returns the trimmed text of the first choice.
func (c Client) CreateChatCompletion(ctx context.Context, requestPayload ChatCompletionRequest) (string, error) {
	requestBytes, err := json.Marshal(requestPayload)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(c.HTTPBaseURL, "/") + chatCompletionsPath
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBytes))
	if err != nil {
		return "", err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpResponse, err := c.httpClient().Do(httpRequest)
	if err != nil {
		return "", err
	}
	defer func(closer io.ReadCloser) { _ = closer.Close() }(httpResponse.Body)

	bodyBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return "", err
	}
	bodyPreview := truncateForLog(string(bodyBytes), bodyPreviewLimit)

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf(httpStatusErrorFormat, httpResponse.StatusCode, bodyPreview)
	}

	var completion ChatCompletionResponse
	if decodeErr := json.Unmarshal(bodyBytes, &completion); decodeErr != nil {
		return "", fmt.Errorf(decodeCompletionErrorFormat, decodeErr, bodyPreview)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf(noChoicesErrorFormat, httpResponse.StatusCode, bodyPreview)
	}

	choice := completion.Choices[0]
	content, err := extractMessageContent(choice.Message)
	if err != nil {
		return "", fmt.Errorf(parseContentErrorFormat, err, bodyPreview)
	}

	trimmed := strings.TrimSpace(content)
	if trimmed != "" {
		return trimmed, nil
	}
	if strings.EqualFold(strings.TrimSpace(choice.FinishReason), finishReasonLength) {
		return "", fmt.Errorf(truncatedReplyErrorFormat, httpResponse.StatusCode, bodyPreview)
	}
	return "", fmt.Errorf(emptyReplyErrorFormat, httpResponse.StatusCode, bodyPreview)
}

func extractMessageContent(message chatMessageResponse) (string, error) {
	if refusal := decodeRefusal(message.Refusal); refusal != "" && isEmptyJSON(message.Content) {
		return "", fmt.Errorf(refusalErrorFormat, refusal)
	}
	if isEmptyJSON(message.Content) {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(message.Content, &asString); err == nil {
		return asString, nil
	}
	if text, ok := extractRichText(message.Content); ok {
		return text, nil
	}
	if refusal := decodeRefusal(message.Refusal); refusal != "" {
		return "", fmt.Errorf(refusalErrorFormat, refusal)
	}
	if !isEmptyJSON(message.ToolCalls) {
		return "", fmt.Errorf(toolCallsErrorFormat, truncateForLog(string(message.ToolCalls), fragmentPreviewLimit))
	}
	return "", fmt.Errorf(unsupportedContentFormat, truncateForLog(string(message.Content), fragmentPreviewLimit))
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// extractRichText flattens structured content parts into newline-joined text.
func extractRichText(raw json.RawMessage) (string, bool) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", false
	}
	combined := strings.TrimSpace(strings.Join(flattenText(data), "\n"))
	return combined, combined != ""
}

func flattenText(value any) []string {
	switch typed := value.(type) {
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	case []any:
		var collected []string
		for _, item := range typed {
			collected = append(collected, flattenText(item)...)
		}
		return collected
	case map[string]any:
		for _, key := range []string{"text", "content", "value"} {
			if nested, ok := typed[key]; ok {
				return flattenText(nested)
			}
		}
		return nil
	default:
		return nil
	}
}

func decodeRefusal(raw json.RawMessage) string {
	if isEmptyJSON(raw) {
		return ""
	}
	var refusal string
	if err := json.Unmarshal(raw, &refusal); err == nil {
		return strings.TrimSpace(refusal)
	}
	if text, ok := extractRichText(raw); ok {
		return text
	}
	return strings.TrimSpace(truncateForLog(string(raw), refusalPreviewLimit))
}
