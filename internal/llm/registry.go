package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	ProviderOpenAI     = "openai"
	ProviderLangchain  = "langchaingo"
	unknownProviderFmt = "%w: %q (known: %s)"
	providerBuildFmt   = "provider %s: %w"
)

var ErrUnknownProvider = errors.New("unknown llm provider")

// Endpoint locates an OpenAI-compatible API.
type Endpoint struct {
	BaseURL string
	APIKey  string
}

// ProviderConstructor builds a Completer for one model.
type ProviderConstructor func(endpoint Endpoint, settings ModelSettings) (Completer, error)

type Registry struct{ providers map[string]ProviderConstructor }

func NewRegistry() *Registry { return &Registry{providers: map[string]ProviderConstructor{}} }

// DefaultRegistry knows the built-in providers.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(ProviderOpenAI, func(endpoint Endpoint, settings ModelSettings) (Completer, error) {
		return OpenAICompleter{Client: Client{HTTPBaseURL: endpoint.BaseURL, APIKey: endpoint.APIKey}}, nil
	})
	registry.Register(ProviderLangchain, func(endpoint Endpoint, settings ModelSettings) (Completer, error) {
		return NewLangchainOpenAI(endpoint.BaseURL, endpoint.APIKey, settings.ModelID)
	})
	return registry
}

func (r *Registry) Register(name string, constructor ProviderConstructor) {
	r.providers[strings.ToLower(name)] = constructor
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the completer of the named provider. An empty name selects openai.
func (r *Registry) Create(name string, endpoint Endpoint, settings ModelSettings) (Completer, error) {
	providerName := strings.ToLower(strings.TrimSpace(name))
	if providerName == "" {
		providerName = ProviderOpenAI
	}
	constructor, ok := r.providers[providerName]
	if !ok {
		return nil, fmt.Errorf(unknownProviderFmt, ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	completer, err := constructor(endpoint, settings)
	if err != nil {
		return nil, fmt.Errorf(providerBuildFmt, providerName, err)
	}
	return completer, nil
}
