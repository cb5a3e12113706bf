package llminterpreter

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/llm-interpreter/internal/agent"
	"github.com/temirov/llm-interpreter/internal/coder"
	"github.com/temirov/llm-interpreter/internal/coerce"
	"github.com/temirov/llm-interpreter/internal/config"
	"github.com/temirov/llm-interpreter/internal/fsops"
	"github.com/temirov/llm-interpreter/internal/human"
	"github.com/temirov/llm-interpreter/internal/llm"
	"github.com/temirov/llm-interpreter/internal/logging"
	"github.com/temirov/llm-interpreter/internal/planner"
	"github.com/temirov/llm-interpreter/internal/review"
	"github.com/temirov/llm-interpreter/internal/runner"
	"github.com/temirov/llm-interpreter/internal/sandbox"
	"github.com/temirov/llm-interpreter/internal/store"
	"github.com/temirov/llm-interpreter/internal/transcript"
	"github.com/temirov/llm-interpreter/internal/workflow"
)

const plannerSchemaName = "planner_step"

// buildOptions are the command line overrides applied on top of the configuration.
type buildOptions struct {
	modelOverride   string
	maxRound        int
	interactive     bool
	interactiveSet  bool
	historyDatabase string
}

// interpreter is a fully wired orchestrator together with the sinks that
// observe it.
type interpreter struct {
	orchestrator *workflow.Orchestrator
	collector    *transcript.Collector
	logger       *zap.Logger
	database     *sql.DB
}

// Close flushes the logger and closes the session log. Sync errors are
// ignored since stderr may be a terminal.
func (i *interpreter) Close() error {
	_ = i.logger.Sync()
	if i.database == nil {
		return nil
	}
	return i.database.Close()
}

type interpreterBuilder struct {
	root      config.Root
	options   buildOptions
	registry  *llm.Registry
	factories map[string]llm.Factory
	logger    *zap.Logger
}

func buildInterpreter(root config.Root, options buildOptions, input io.Reader, output io.Writer, errorOutput io.Writer) (*interpreter, error) {
	logger, err := logging.NewWithWriter(root.Common.Logging.Level, root.Common.Logging.Format, errorOutput)
	if err != nil {
		return nil, err
	}
	builder := &interpreterBuilder{
		root:      root,
		options:   options,
		registry:  llm.DefaultRegistry(),
		factories: map[string]llm.Factory{},
		logger:    logger,
	}
	settings := root.Interpreter
	console := transcript.NewConsole(output)

	stepPlanner, err := builder.planner()
	if err != nil {
		return nil, err
	}
	codeWriter, err := builder.coder(console)
	if err != nil {
		return nil, err
	}
	codeRunner, err := builder.runner()
	if err != nil {
		return nil, err
	}
	user, err := builder.user(input, output)
	if err != nil {
		return nil, err
	}

	collector := &transcript.Collector{}
	recorders := workflow.Recorders{console, collector}
	database, err := builder.historyDatabase()
	if err != nil {
		return nil, err
	}
	if database != nil {
		recorders = append(recorders, store.NewEventLog(database))
	}

	maxRound := settings.MaxRound
	if options.maxRound > 0 {
		maxRound = options.maxRound
	}
	orchestrator, err := workflow.New(stepPlanner, workflow.Participants{User: user, Coder: codeWriter, Runner: codeRunner}, workflow.Options{
		Name:          settings.Name,
		MaxRound:      maxRound,
		ContextWindow: settings.Planner.ContextWindow,
		Recorder:      recorders,
		Logger:        logger,
	})
	if err != nil {
		if database != nil {
			_ = database.Close()
		}
		return nil, err
	}
	return &interpreter{orchestrator: orchestrator, collector: collector, logger: logger, database: database}, nil
}

// factory returns the agent factory of a model, shared by every agent that
// uses the model so they also share its rate limit.
func (b *interpreterBuilder) factory(modelName string) (llm.Factory, error) {
	if strings.TrimSpace(b.options.modelOverride) != "" {
		modelName = b.options.modelOverride
	}
	modelConfiguration, ok := b.root.ResolveModel(modelName)
	if !ok {
		return llm.Factory{}, fmt.Errorf(unknownModelErrorFormat, modelName)
	}
	if existing, ok := b.factories[modelConfiguration.Name]; ok {
		return existing, nil
	}

	apiKey := strings.TrimSpace(os.Getenv(b.root.Common.API.APIKeyEnv))
	if apiKey == "" {
		return llm.Factory{}, fmt.Errorf(missingAPIKeyErrorFormat, b.root.Common.API.APIKeyEnv)
	}
	factory, err := llm.NewFactory(b.registry, modelConfiguration.Provider,
		llm.Endpoint{BaseURL: b.root.Common.API.Endpoint, APIKey: apiKey},
		llm.ModelSettings{
			ModelID:             modelConfiguration.ModelID,
			MaxCompletionTokens: modelConfiguration.MaxCompletionTokens,
			SupportsTemperature: modelConfiguration.SupportsTemperature,
			DefaultTemperature:  modelConfiguration.DefaultTemperature,
		},
		b.root.Common.Defaults.RequestsPerSecond)
	if err != nil {
		return llm.Factory{}, err
	}
	b.factories[modelConfiguration.Name] = factory
	return factory, nil
}

func (b *interpreterBuilder) planner() (*planner.Planner, error) {
	settings := b.root.Interpreter.Planner
	factory, err := b.factory(settings.Model)
	if err != nil {
		return nil, err
	}
	schema, err := coerce.SchemaFor[planner.Step]()
	if err != nil {
		return nil, err
	}
	persona := factory.Create(plannerAgentName, planner.SystemPrompt(planner.DefaultCatalog())).
		WithResponseSchema(llm.ResponseSchema{Name: plannerSchemaName, Schema: json.RawMessage(schema)})

	var formatter agent.Agent
	if settings.RepairWith == config.RepairWithHelper {
		formatter = factory.Agent(plannerHelperAgentName, planner.HelperSystemPrompt)
	}
	return planner.New(persona, planner.Options{MaxRetry: settings.MaxRetry, Formatter: formatter})
}

func (b *interpreterBuilder) coder(console *transcript.Console) (agent.Agent, error) {
	settings := b.root.Interpreter.Coder
	factory, err := b.factory(settings.Model)
	if err != nil {
		return nil, err
	}
	generator := agent.Use(factory.Agent(settings.Name, coder.SystemPrompt), console.PrintHook())

	reviewerName := settings.Name + reviewerAgentSuffix
	var reviewer agent.Agent = coder.NewPolicyReviewer(reviewerName)
	if settings.Reviewer == config.ReviewerLLM {
		reviewer, err = review.Coerce(factory.Agent(reviewerName, coder.ReviewerSystemPrompt), coerce.Options{})
		if err != nil {
			return nil, err
		}
	}
	return coder.New(settings.Name, generator, reviewer, settings.MaxRetry, b.logger), nil
}

func (b *interpreterBuilder) runner() (agent.Agent, error) {
	settings := b.root.Interpreter.Runner
	options := runner.Options{OutputCap: settings.OutputCap, Logger: b.logger}
	if settings.ExtractWithHelper {
		factory, err := b.factory(settings.Model)
		if err != nil {
			return nil, err
		}
		options.Extractor = factory.Agent(settings.Name+extractorAgentSuffix, planner.HelperSystemPrompt)
	}
	box := sandbox.NewYaegi(time.Duration(settings.TimeoutSeconds) * time.Second)
	return runner.New(settings.Name, box, options), nil
}

func (b *interpreterBuilder) user(input io.Reader, output io.Writer) (agent.Agent, error) {
	settings := b.root.Interpreter.User
	mode := settings.Mode
	if b.options.interactiveSet {
		mode = config.UserModeSimulated
		if b.options.interactive {
			mode = config.UserModeHuman
		}
	}
	if mode == config.UserModeHuman {
		return human.NewProxy(settings.Name, input, output), nil
	}
	factory, err := b.factory(settings.Model)
	if err != nil {
		return nil, err
	}
	return factory.Agent(settings.Name, human.SimulatedSystemPrompt), nil
}

// historyDatabase opens the session log, or returns nil when none is configured.
func (b *interpreterBuilder) historyDatabase() (*sql.DB, error) {
	path := resolveHistoryDatabase(b.options.historyDatabase, b.root)
	if path == "" {
		return nil, nil
	}
	return openHistoryDatabase(path)
}

func resolveHistoryDatabase(flagValue string, root config.Root) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(root.Interpreter.History.Database)
}

func openHistoryDatabase(path string) (*sql.DB, error) {
	if err := fsops.NewOps(fsops.NewOS()).EnsureDir(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}
