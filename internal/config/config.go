package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	emptyModelsErrorMessage                  = "config.models is empty"
	missingDefaultModelErrorMessage          = "no default model found (set models[].default: true)"
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"
	unknownModelErrorFormat                  = "%s references unknown model %q"
	invalidChoiceErrorFormat                 = "%s must be one of %s, got %q"
	duplicateAgentNameErrorFormat            = "interpreter agent names must be distinct, %q is used twice"
)

const (
	RepairWithHelper  = "helper"
	RepairWithSelf    = "self"
	ReviewerLLM       = "llm"
	ReviewerPolicy    = "policy"
	UserModeHuman     = "human"
	UserModeSimulated = "simulated"
)

const (
	defaultInterpreterName   = "code-interpreter"
	defaultMaxRound          = 10
	defaultPlannerMaxRetry   = 3
	defaultContextWindow     = 5
	defaultCoderName         = "go-coder"
	defaultCoderMaxRetry     = 3
	defaultRunnerName        = "go-runner"
	defaultOutputCap         = 500
	defaultRunnerTimeout     = 30
	defaultUserName          = "user"
	defaultTimeoutSeconds    = 300
	defaultAPIEndpoint       = "https://api.openai.com/v1"
	defaultAPIKeyEnvironment = "OPENAI_API_KEY"
	defaultLoggingLevel      = "info"
	defaultLoggingFormat     = "console"
)

type Root struct {
	Common      Common      `yaml:"common"`
	Models      []Model     `yaml:"models"`
	Interpreter Interpreter `yaml:"interpreter"`
}

type Common struct {
	API struct {
		Endpoint  string `yaml:"endpoint"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"api"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Defaults struct {
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"defaults"`
}

type Model struct {
	Name                string  `yaml:"name"`
	Provider            string  `yaml:"provider"`
	ModelID             string  `yaml:"model_id"`
	Default             bool    `yaml:"default"`
	SupportsTemperature bool    `yaml:"supports_temperature"`
	DefaultTemperature  float64 `yaml:"default_temperature"`
	MaxCompletionTokens int     `yaml:"max_completion_tokens"`
}

// Interpreter configures the code interpreter workflow and its agents.
// Empty model references select the default model.
type Interpreter struct {
	Name     string `yaml:"name"`
	MaxRound int    `yaml:"max_round"`
	Planner  struct {
		Model         string `yaml:"model"`
		MaxRetry      int    `yaml:"max_retry"`
		RepairWith    string `yaml:"repair_with"`
		ContextWindow int    `yaml:"context_window"`
	} `yaml:"planner"`
	Coder struct {
		Name     string `yaml:"name"`
		Model    string `yaml:"model"`
		MaxRetry int    `yaml:"max_retry"`
		Reviewer string `yaml:"reviewer"`
	} `yaml:"coder"`
	Runner struct {
		Name              string `yaml:"name"`
		Model             string `yaml:"model"`
		OutputCap         int    `yaml:"output_cap"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		ExtractWithHelper bool   `yaml:"extract_with_helper"`
	} `yaml:"runner"`
	User struct {
		Name  string `yaml:"name"`
		Mode  string `yaml:"mode"`
		Model string `yaml:"model"`
	} `yaml:"user"`
	History struct {
		Database string `yaml:"database"`
	} `yaml:"history"`
}

// LoadRoot parses the provided configuration source, fills defaults and validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}

	if len(rootConfiguration.Models) == 0 {
		return Root{}, errors.New(emptyModelsErrorMessage)
	}
	if _, ok := rootConfiguration.DefaultModel(); !ok {
		return Root{}, errors.New(missingDefaultModelErrorMessage)
	}
	rootConfiguration.applyDefaults()
	if err := rootConfiguration.validate(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

func (root *Root) applyDefaults() {
	common := &root.Common
	common.API.Endpoint = orString(common.API.Endpoint, defaultAPIEndpoint)
	common.API.APIKeyEnv = orString(common.API.APIKeyEnv, defaultAPIKeyEnvironment)
	common.Logging.Level = orString(common.Logging.Level, defaultLoggingLevel)
	common.Logging.Format = orString(common.Logging.Format, defaultLoggingFormat)
	common.Defaults.TimeoutSeconds = orInt(common.Defaults.TimeoutSeconds, defaultTimeoutSeconds)

	interpreter := &root.Interpreter
	interpreter.Name = orString(interpreter.Name, defaultInterpreterName)
	interpreter.MaxRound = orInt(interpreter.MaxRound, defaultMaxRound)
	interpreter.Planner.MaxRetry = orInt(interpreter.Planner.MaxRetry, defaultPlannerMaxRetry)
	interpreter.Planner.RepairWith = strings.ToLower(orString(interpreter.Planner.RepairWith, RepairWithHelper))
	interpreter.Planner.ContextWindow = orInt(interpreter.Planner.ContextWindow, defaultContextWindow)
	interpreter.Coder.Name = orString(interpreter.Coder.Name, defaultCoderName)
	interpreter.Coder.MaxRetry = orInt(interpreter.Coder.MaxRetry, defaultCoderMaxRetry)
	interpreter.Coder.Reviewer = strings.ToLower(orString(interpreter.Coder.Reviewer, ReviewerLLM))
	interpreter.Runner.Name = orString(interpreter.Runner.Name, defaultRunnerName)
	interpreter.Runner.OutputCap = orInt(interpreter.Runner.OutputCap, defaultOutputCap)
	interpreter.Runner.TimeoutSeconds = orInt(interpreter.Runner.TimeoutSeconds, defaultRunnerTimeout)
	interpreter.User.Name = orString(interpreter.User.Name, defaultUserName)
	interpreter.User.Mode = strings.ToLower(orString(interpreter.User.Mode, UserModeHuman))
}

func (root Root) validate() error {
	interpreter := root.Interpreter
	if err := requireChoice("interpreter.planner.repair_with", interpreter.Planner.RepairWith, RepairWithHelper, RepairWithSelf); err != nil {
		return err
	}
	if err := requireChoice("interpreter.coder.reviewer", interpreter.Coder.Reviewer, ReviewerLLM, ReviewerPolicy); err != nil {
		return err
	}
	if err := requireChoice("interpreter.user.mode", interpreter.User.Mode, UserModeHuman, UserModeSimulated); err != nil {
		return err
	}

	modelReferences := []struct{ field, name string }{
		{"interpreter.planner.model", interpreter.Planner.Model},
		{"interpreter.coder.model", interpreter.Coder.Model},
		{"interpreter.runner.model", interpreter.Runner.Model},
		{"interpreter.user.model", interpreter.User.Model},
	}
	for _, reference := range modelReferences {
		if reference.name == "" {
			continue
		}
		if _, ok := root.FindModel(reference.name); !ok {
			return fmt.Errorf(unknownModelErrorFormat, reference.field, reference.name)
		}
	}

	agentNames := map[string]bool{}
	for _, name := range []string{interpreter.User.Name, interpreter.Coder.Name, interpreter.Runner.Name} {
		if agentNames[name] {
			return fmt.Errorf(duplicateAgentNameErrorFormat, name)
		}
		agentNames[name] = true
	}
	return nil
}

func (root Root) DefaultModel() (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Default {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

func (root Root) FindModel(name string) (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Name == name {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

// ResolveModel returns the named model, or the default model for an empty name.
func (root Root) ResolveModel(name string) (Model, bool) {
	if strings.TrimSpace(name) == "" {
		return root.DefaultModel()
	}
	return root.FindModel(name)
}

func requireChoice(field string, value string, choices ...string) error {
	for _, choice := range choices {
		if value == choice {
			return nil
		}
	}
	return fmt.Errorf(invalidChoiceErrorFormat, field, strings.Join(choices, "|"), value)
}

func orString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func orInt(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
