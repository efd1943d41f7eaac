package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/postpilot-cms/postpilot/internal/config"
	"github.com/sony/gobreaker"
)

// Registry holds the configured providers and a circuit breaker per
// provider so a flapping upstream does not burn user quota on doomed calls.
type Registry struct {
	providers map[string]Provider
	breakers  map[string]*gobreaker.CircuitBreaker
}

func NewRegistry(cfg config.ProvidersConfig) *Registry {
	reg := &Registry{
		providers: make(map[string]Provider),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
	if cfg.OpenAI.APIKey != "" {
		reg.register(NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL))
	}
	if cfg.Anthropic.APIKey != "" {
		reg.register(NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL))
	}
	if cfg.Gemini.APIKey != "" {
		reg.register(NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL))
	}
	return reg
}

func (r *Registry) register(p Provider) {
	r.providers[p.Name()] = p
	r.breakers[p.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// Provider returns the client registered for the given tag.
func (r *Registry) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
	return p, nil
}

// Generate runs the request through the named provider's circuit breaker.
func (r *Registry) Generate(ctx context.Context, name string, req *Request) (*Result, error) {
	p, err := r.Provider(name)
	if err != nil {
		return nil, err
	}
	cb := r.breakers[name]
	result, err := cb.Execute(func() (interface{}, error) {
		return p.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Result), nil
}

// Available lists the registered providers and their models, keyed by tag.
func (r *Registry) Available() map[string][]string {
	out := make(map[string][]string, len(r.providers))
	for name, p := range r.providers {
		out[name] = p.Models()
	}
	return out
}
