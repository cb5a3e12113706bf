package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	errEmptyContent = errors.New("content is empty")
	errTrailingData = errors.New("unexpected data after the json value")
	fencedJSONBlock = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")
)

// Validator is implemented by targets that have constraints beyond their shape.
type Validator interface {
	Validate() error
}

// Decode parses content as T. A single surrounding ```json fence is tolerated.
func Decode[T any](content string) (T, error) {
	value, _, err := decode[T](content)
	return value, err
}

func decode[T any](content string) (T, string, error) {
	var zero T
	payload := strings.TrimSpace(content)
	if match := fencedJSONBlock.FindStringSubmatch(payload); match != nil {
		payload = strings.TrimSpace(match[1])
	}
	if payload == "" {
		return zero, "", errEmptyContent
	}

	decoder := json.NewDecoder(strings.NewReader(payload))
	var value T
	if err := decoder.Decode(&value); err != nil {
		return zero, "", err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return zero, "", errTrailingData
	}
	if validator, ok := any(value).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return zero, "", fmt.Errorf("invalid value: %w", err)
		}
	}
	return value, payload, nil
}
