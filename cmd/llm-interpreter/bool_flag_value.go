package llminterpreter

import (
	"fmt"
	"strconv"
	"strings"
)

// boolChoiceValue is a bool flag that also tracks whether it was given,
// so an unset --interactive leaves the configured user mode alone.
type boolChoiceValue struct {
	target *bool
	set    *bool
}

func newBoolChoiceValue(target *bool, set *bool) *boolChoiceValue {
	return &boolChoiceValue{target: target, set: set}
}

func (value *boolChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return strconv.FormatBool(*value.target)
}

func (value *boolChoiceValue) Set(input string) error {
	boolValue, ok := parseBoolChoice(input)
	if !ok {
		return fmt.Errorf("invalid boolean value %q", input)
	}
	*value.target = boolValue
	if value.set != nil {
		*value.set = true
	}
	return nil
}

func (value *boolChoiceValue) Type() string {
	return "bool"
}

func parseBoolChoice(input string) (bool, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		trimmed = "true"
	}
	switch strings.ToLower(trimmed) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
