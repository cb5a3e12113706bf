package llminterpreter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"

	llminterpreter "github.com/temirov/llm-interpreter/cmd/llm-interpreter"
	"github.com/temirov/llm-interpreter/internal/config"
)

const (
	openAIAPIKeyEnvironmentVariable = "OPENAI_API_KEY"
	maxRoundEnvironmentVariable     = "LLM_INTERPRETER_MAX_ROUND"
	chatCompletionPath              = "/chat/completions"
	responseContentTypeJSON         = "application/json"
	testModelName                   = "test-model"
	testModelIdentifier             = "gpt-test"
	helloWorldTask                  = "print hello world"
	plannerPromptPrefix             = "You are responsible for returning the next step"
	coderPromptPrefix               = "You act as a Go coder"
	simulatedUserPromptPrefix       = "You are the user"
	runnerOutputHeading             = "## Output from running the code:"
	goFence                         = "```go"
	helloWorldReply                 = "Here is the code:\n```go\nimport \"fmt\"\n\nfmt.Println(\"Hello, World!\")\n```"
	simulatedUserReply              = "Any greeting is fine."
)

type chatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeModel answers chat completions by persona, recognized from the system prompt.
type fakeModel struct {
	plannerReply func(lastMessage string) string
	requests     int32
}

func (model *fakeModel) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(responseWriter http.ResponseWriter, httpRequest *http.Request) {
		if httpRequest.URL.Path != chatCompletionPath {
			t.Errorf("unexpected request path: %s", httpRequest.URL.Path)
			http.NotFound(responseWriter, httpRequest)
			return
		}
		atomic.AddInt32(&model.requests, 1)

		var payload chatRequest
		if decodeErr := json.NewDecoder(httpRequest.Body).Decode(&payload); decodeErr != nil {
			t.Errorf("decode request: %v", decodeErr)
			http.Error(responseWriter, decodeErr.Error(), http.StatusBadRequest)
			return
		}
		if len(payload.Messages) == 0 {
			t.Errorf("request without messages")
			http.Error(responseWriter, "no messages", http.StatusBadRequest)
			return
		}
		systemPrompt := payload.Messages[0].Content
		lastMessage := payload.Messages[len(payload.Messages)-1].Content

		var content string
		switch {
		case strings.HasPrefix(systemPrompt, plannerPromptPrefix):
			content = model.plannerReply(lastMessage)
		case strings.HasPrefix(systemPrompt, coderPromptPrefix):
			content = helloWorldReply
		case strings.HasPrefix(systemPrompt, simulatedUserPromptPrefix):
			content = simulatedUserReply
		default:
			t.Errorf("unexpected system prompt: %q", systemPrompt)
			http.Error(responseWriter, "unknown persona", http.StatusBadRequest)
			return
		}

		responsePayload := map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		responseWriter.Header().Set("Content-Type", responseContentTypeJSON)
		if encodeErr := json.NewEncoder(responseWriter).Encode(responsePayload); encodeErr != nil {
			t.Errorf("write response: %v", encodeErr)
		}
	})
}

func stepReply(name string, reason string) string {
	encoded, _ := json.Marshal(map[string]string{"name": name, "reason": reason})
	return string(encoded)
}

func helloWorldPlanner(lastMessage string) string {
	switch {
	case strings.Contains(lastMessage, runnerOutputHeading):
		return stepReply("Succeed", "the program printed the greeting")
	case strings.Contains(lastMessage, goFence):
		return stepReply("RunCode", "code is ready")
	default:
		return stepReply("WriteCode", "no code yet")
	}
}

func writeTestConfig(t *testing.T, directory string, endpoint string) string {
	t.Helper()

	rootConfiguration := config.Root{}
	rootConfiguration.Common.API.Endpoint = endpoint
	rootConfiguration.Common.API.APIKeyEnv = openAIAPIKeyEnvironmentVariable
	rootConfiguration.Common.Logging.Level = "error"
	rootConfiguration.Common.Logging.Format = "console"
	rootConfiguration.Common.Defaults.TimeoutSeconds = 60
	rootConfiguration.Models = []config.Model{
		{
			Name:                testModelName,
			Provider:            "openai",
			ModelID:             testModelIdentifier,
			Default:             true,
			MaxCompletionTokens: 1024,
		},
	}
	rootConfiguration.Interpreter.Planner.RepairWith = config.RepairWithSelf
	rootConfiguration.Interpreter.Coder.Reviewer = config.ReviewerPolicy
	rootConfiguration.Interpreter.User.Mode = config.UserModeSimulated
	rootConfiguration.Interpreter.History.Database = filepath.Join(directory, "history", "sessions.db")

	configData, marshalErr := yaml.Marshal(rootConfiguration)
	if marshalErr != nil {
		t.Fatalf("marshal config: %v", marshalErr)
	}
	configPath := filepath.Join(directory, "config.yaml")
	if writeErr := os.WriteFile(configPath, configData, 0o600); writeErr != nil {
		t.Fatalf("write config: %v", writeErr)
	}
	return configPath
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCommand := llminterpreter.NewRootCommand()
	rootCommand.SetArgs(args)
	rootCommand.SetIn(strings.NewReader(""))
	var commandOutput bytes.Buffer
	rootCommand.SetOut(&commandOutput)
	rootCommand.SetErr(&commandOutput)
	executionErr := rootCommand.Execute()
	return commandOutput.String(), executionErr
}

func TestRunCommandSolvesHelloWorld(t *testing.T) {
	model := &fakeModel{plannerReply: helloWorldPlanner}
	mockServer := httptest.NewServer(model.handler(t))
	t.Cleanup(mockServer.Close)
	t.Setenv(openAIAPIKeyEnvironmentVariable, "test-key")

	tempDir := t.TempDir()
	configPath := writeTestConfig(t, tempDir, mockServer.URL)
	transcriptPath := filepath.Join(tempDir, "out", "session.md")

	output, executionErr := executeCommand(t, "run", helloWorldTask, "--config", configPath, "--transcript", transcriptPath)
	if executionErr != nil {
		t.Fatalf("execute command: %v\nOutput: %s", executionErr, output)
	}
	if !strings.Contains(output, "Succeed: the program printed the greeting") {
		t.Fatalf("expected Succeed result line, got:\n%s", output)
	}
	if !strings.Contains(output, "Hello, World!") {
		t.Fatalf("expected program output in console stream, got:\n%s", output)
	}
	if got := atomic.LoadInt32(&model.requests); got != 4 {
		t.Fatalf("expected 3 planner and 1 coder request, got %d", got)
	}

	transcriptData, readErr := os.ReadFile(transcriptPath)
	if readErr != nil {
		t.Fatalf("read transcript: %v", readErr)
	}
	if !strings.Contains(string(transcriptData), helloWorldTask) || !strings.Contains(string(transcriptData), "Succeed") {
		t.Fatalf("transcript misses task or result:\n%s", transcriptData)
	}

	historyOutput, historyErr := executeCommand(t, "history", "--config", configPath)
	if historyErr != nil {
		t.Fatalf("history command: %v\nOutput: %s", historyErr, historyOutput)
	}
	historyLines := strings.Split(strings.TrimSpace(historyOutput), "\n")
	if len(historyLines) != 1 {
		t.Fatalf("expected one recorded session, got:\n%s", historyOutput)
	}
	fields := strings.Split(historyLines[0], "\t")
	if len(fields) != 5 || fields[2] != "Succeed" || fields[3] != "rounds=3" || fields[4] != helloWorldTask {
		t.Fatalf("unexpected session line: %q", historyLines[0])
	}

	showOutput, showErr := executeCommand(t, "history", "show", fields[0], "--config", configPath)
	if showErr != nil {
		t.Fatalf("history show: %v\nOutput: %s", showErr, showOutput)
	}
	if !strings.Contains(showOutput, "# Session "+fields[0]) || !strings.Contains(showOutput, "Hello, World!") {
		t.Fatalf("unexpected session transcript:\n%s", showOutput)
	}
}

func TestRunCommandReportsFailure(t *testing.T) {
	model := &fakeModel{plannerReply: func(string) string { return stepReply("Fail", "the task is impossible") }}
	mockServer := httptest.NewServer(model.handler(t))
	t.Cleanup(mockServer.Close)
	t.Setenv(openAIAPIKeyEnvironmentVariable, "test-key")

	configPath := writeTestConfig(t, t.TempDir(), mockServer.URL)
	output, executionErr := executeCommand(t, "run", "--task", "divide by zero", "--config", configPath)
	if executionErr == nil {
		t.Fatalf("expected an error for a failed task\nOutput: %s", output)
	}
	if !strings.Contains(executionErr.Error(), "task not resolved") {
		t.Fatalf("unexpected error: %v", executionErr)
	}
	if !strings.Contains(output, "Fail: the task is impossible") {
		t.Fatalf("expected Fail result line, got:\n%s", output)
	}
}

func TestRunCommandMaxRoundFromEnvironment(t *testing.T) {
	model := &fakeModel{plannerReply: func(string) string { return stepReply("NeedInfo", "which greeting?") }}
	mockServer := httptest.NewServer(model.handler(t))
	t.Cleanup(mockServer.Close)
	t.Setenv(openAIAPIKeyEnvironmentVariable, "test-key")
	t.Setenv(maxRoundEnvironmentVariable, "1")

	configPath := writeTestConfig(t, t.TempDir(), mockServer.URL)
	output, executionErr := executeCommand(t, "run", helloWorldTask, "--config", configPath)
	if executionErr == nil {
		t.Fatalf("expected an error when the round budget runs out\nOutput: %s", output)
	}
	if !strings.Contains(output, "maximum round reached: 1 rounds") {
		t.Fatalf("expected max round failure, got:\n%s", output)
	}
	if got := atomic.LoadInt32(&model.requests); got != 2 {
		t.Fatalf("expected one planner and one simulated user request, got %d", got)
	}
}

func TestRunCommandValidation(t *testing.T) {
	testCases := []struct {
		name          string
		args          []string
		apiKey        string
		expectedError string
	}{
		{
			name:          "MissingTask",
			args:          []string{"run"},
			apiKey:        "test-key",
			expectedError: "a task is required",
		},
		{
			name:          "MissingAPIKey",
			args:          []string{"run", helloWorldTask},
			apiKey:        "",
			expectedError: "missing API key: set " + openAIAPIKeyEnvironmentVariable,
		},
		{
			name:          "UnknownModel",
			args:          []string{"run", helloWorldTask, "--model", "absent"},
			apiKey:        "test-key",
			expectedError: `model "absent" not found`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			testingT.Setenv(openAIAPIKeyEnvironmentVariable, testCase.apiKey)
			configPath := writeTestConfig(testingT, testingT.TempDir(), "http://127.0.0.1:0")
			args := append(append([]string{}, testCase.args...), "--config", configPath)
			output, executionErr := executeCommand(testingT, args...)
			if executionErr == nil || !strings.Contains(executionErr.Error(), testCase.expectedError) {
				testingT.Fatalf("expected error containing %q, got %v\nOutput: %s", testCase.expectedError, executionErr, output)
			}
		})
	}
}

func TestStepsCommandListsCatalog(t *testing.T) {
	output, executionErr := executeCommand(t, "steps")
	if executionErr != nil {
		t.Fatalf("execute steps: %v", executionErr)
	}
	for _, name := range []string{"NeedInfo", "Approval", "WriteCode", "RunCode", "FixError", "Succeed", "Fail"} {
		if !strings.Contains(output, name+"\t") {
			t.Fatalf("steps output misses %s:\n%s", name, output)
		}
	}
}

func TestConfigCommandPrintsModels(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:0")
	output, executionErr := executeCommand(t, "config", "--config", configPath)
	if executionErr != nil {
		t.Fatalf("execute config: %v", executionErr)
	}
	if !strings.Contains(output, "source: "+configPath+" (flag)") {
		t.Fatalf("expected config source, got:\n%s", output)
	}
	if !strings.Contains(output, testModelName+"\t(provider=openai, model_id="+testModelIdentifier+", default)") {
		t.Fatalf("expected default model line, got:\n%s", output)
	}
}

func TestConfigCommandReadsPathFromEnvironment(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:0")
	t.Setenv("LLM_INTERPRETER_CONFIG", configPath)

	output, executionErr := executeCommand(t, "config")
	if executionErr != nil {
		t.Fatalf("execute config: %v", executionErr)
	}
	if !strings.Contains(output, "source: "+configPath+" (environment)") {
		t.Fatalf("expected environment config source, got:\n%s", output)
	}
}
