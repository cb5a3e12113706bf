package llm

import (
	"github.com/temirov/llm-interpreter/internal/agent"
)

// Factory creates chat agents that share one completer, and so one rate limiter.
type Factory struct {
	completer Completer
	settings  ModelSettings
}

// NewFactory resolves provider through registry and applies the request rate limit.
func NewFactory(registry *Registry, provider string, endpoint Endpoint, settings ModelSettings, requestsPerSecond float64) (Factory, error) {
	completer, err := registry.Create(provider, endpoint, settings)
	if err != nil {
		return Factory{}, err
	}
	return Factory{completer: NewRateLimited(completer, requestsPerSecond), settings: settings}, nil
}

// NewFactoryFromCompleter wraps an existing completer.
func NewFactoryFromCompleter(completer Completer, settings ModelSettings) Factory {
	return Factory{completer: completer, settings: settings}
}

func (f Factory) Create(name string, systemPrompt string) *ChatAgent {
	return NewChatAgent(name, systemPrompt, f.completer, f.settings)
}

// Agent is Create typed as agent.Agent.
func (f Factory) Agent(name string, systemPrompt string) agent.Agent {
	return f.Create(name, systemPrompt)
}
