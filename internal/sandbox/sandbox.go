// Package sandbox executes Go snippets in an embedded interpreter.
package sandbox

import (
	"context"
	"errors"
	"fmt"
)

// Sandbox runs source text and returns what it printed.
type Sandbox interface {
	Submit(ctx context.Context, source string) (string, error)
}

var ErrExecutionFailure = errors.New("execution failure")

// ExecutionError carries the output produced before a snippet failed.
type ExecutionError struct {
	Output string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrExecutionFailure, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecutionFailure }
