// Package llm contains thin HTTP clients for the supported completion
// providers. Clients only talk to the upstream API; quota enforcement and
// usage accounting live in the usage package.
package llm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Request is a provider-neutral completion request.
type Request struct {
	Model       string
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

// Result carries the completion text together with the token usage
// reported by the upstream API.
type Result struct {
	Content          string
	PromptTokens     int64
	CompletionTokens int64
	Model            string
	Provider         string
}

// Provider is implemented by each upstream client.
type Provider interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
	Name() string
	Models() []string
}

// ErrUnsupportedProvider is returned by the registry for unknown tags.
var ErrUnsupportedProvider = errors.New("llm: unsupported provider")

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
