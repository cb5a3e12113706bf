package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const DefaultTimeout = 30 * time.Second

const (
	interpretErrorFormat  = "interpret snippet: %w"
	entryPointErrorFormat = "resolve %s: %w"
	panicErrorFormat      = "snippet panicked: %v"
	timeoutErrorFormat    = "snippet did not finish: %w"
)

// Yaegi runs snippets in a fresh yaegi interpreter per submission.
type Yaegi struct {
	Timeout time.Duration
}

func NewYaegi(timeout time.Duration) *Yaegi {
	return &Yaegi{Timeout: timeout}
}

type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}

// Submit interprets source and returns combined stdout and stderr. Any
// compile error, panic or timeout is reported as an *ExecutionError.
func (y *Yaegi) Submit(ctx context.Context, source string) (string, error) {
	timeout := y.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output := &lockedBuffer{}
	interpreter := interp.New(interp.Options{Stdout: output, Stderr: output})
	interpreter.Use(stdlib.Symbols)

	if _, err := interpreter.EvalWithContext(runContext, Prepare(source)); err != nil {
		return output.String(), &ExecutionError{Output: output.String(), Err: fmt.Errorf(interpretErrorFormat, err)}
	}
	entryPoint, err := interpreter.EvalWithContext(runContext, entryPointName)
	if err != nil {
		return output.String(), &ExecutionError{Output: output.String(), Err: fmt.Errorf(entryPointErrorFormat, entryPointName, err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- invoke(entryPoint)
	}()

	select {
	case runErr := <-done:
		if runErr != nil {
			return output.String(), &ExecutionError{Output: output.String(), Err: runErr}
		}
		return output.String(), nil
	case <-runContext.Done():
		return output.String(), &ExecutionError{Output: output.String(), Err: fmt.Errorf(timeoutErrorFormat, runContext.Err())}
	}
}

func invoke(entryPoint reflect.Value) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf(panicErrorFormat, recovered)
		}
	}()
	if entryPoint.Kind() != reflect.Func {
		return fmt.Errorf("%s is not a function", entryPointName)
	}
	entryPoint.Call(nil)
	return nil
}
