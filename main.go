package main

import (
	"os"

	"go.uber.org/zap"

	llminterpreter "github.com/temirov/llm-interpreter/cmd/llm-interpreter"
)

func main() {
	logger := zap.Must(zap.NewProduction())

	executionErr := llminterpreter.Execute()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}

	syncErr := logger.Sync()
	if syncErr != nil {
		os.Exit(1)
	}
}
