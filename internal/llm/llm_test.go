package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/postpilot-cms/postpilot/internal/config"
	"github.com/sony/gobreaker"
)

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: got %q", got)
		}
		resp := openAIResponse{
			ID: "chatcmpl-1",
			Choices: []openAIChoice{
				{Message: openAIMessage{Role: "assistant", Content: "Visit our bakery!"}},
			},
			Usage: openAIUsage{PromptTokens: 100, CompletionTokens: 50},
			Model: "gpt-4",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL)
	result, err := client.Generate(context.Background(), &Request{
		Model:  "gpt-4",
		Prompt: "write a post",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "Visit our bakery!" {
		t.Errorf("content: got %q", result.Content)
	}
	if result.PromptTokens != 100 || result.CompletionTokens != 50 {
		t.Errorf("tokens: got %d/%d", result.PromptTokens, result.CompletionTokens)
	}
	if result.Provider != "openai" {
		t.Errorf("provider: got %q", result.Provider)
	}
}

func TestOpenAIGenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL)
	_, err := client.Generate(context.Background(), &Request{Model: "gpt-4", Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry upstream status, got %v", err)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key header: got %q", got)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens == 0 {
			t.Error("max_tokens must always be set")
		}
		resp := anthropicResponse{
			ID:      "msg-1",
			Content: []anthropicContent{{Type: "text", Text: "Fresh bread daily."}},
			Model:   "claude-3-sonnet",
			Usage:   anthropicUsage{InputTokens: 80, OutputTokens: 30},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", server.URL)
	result, err := client.Generate(context.Background(), &Request{
		Model:  "claude-3-sonnet",
		Prompt: "write a post",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "Fresh bread daily." {
		t.Errorf("content: got %q", result.Content)
	}
	if result.PromptTokens != 80 || result.CompletionTokens != 30 {
		t.Errorf("tokens: got %d/%d", result.PromptTokens, result.CompletionTokens)
	}
}

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "key=test-key") {
			t.Errorf("api key missing from query: %s", r.URL.RawQuery)
		}
		resp := geminiResponse{
			Candidates: []geminiCandidate{
				{Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "Try our croissants."}}}},
			},
			UsageMetadata: geminiUsageMetadata{PromptTokenCount: 60, CandidatesTokenCount: 20},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", server.URL)
	result, err := client.Generate(context.Background(), &Request{
		Model:  "gemini-1.5-flash",
		Prompt: "write a post",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "Try our croissants." {
		t.Errorf("content: got %q", result.Content)
	}
	if result.PromptTokens != 60 || result.CompletionTokens != 20 {
		t.Errorf("tokens: got %d/%d", result.PromptTokens, result.CompletionTokens)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(config.ProvidersConfig{
		OpenAI:    config.ProviderConfig{APIKey: "k1"},
		Anthropic: config.ProviderConfig{APIKey: "k2"},
	})

	if _, err := reg.Provider("openai"); err != nil {
		t.Fatalf("openai should be registered: %v", err)
	}
	if _, err := reg.Provider("anthropic"); err != nil {
		t.Fatalf("anthropic should be registered: %v", err)
	}
	if _, err := reg.Provider("gemini"); err == nil {
		t.Fatal("gemini has no key and should not be registered")
	}
	if _, err := reg.Generate(context.Background(), "mistral", &Request{}); err == nil {
		t.Fatal("unknown provider tag should fail")
	}

	available := reg.Available()
	if len(available) != 2 {
		t.Fatalf("available providers: got %d, want 2", len(available))
	}
	if len(available["openai"]) == 0 {
		t.Fatal("openai models should be listed")
	}
}

func TestRegistryBreakerOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	reg := NewRegistry(config.ProvidersConfig{
		OpenAI: config.ProviderConfig{APIKey: "k1", BaseURL: server.URL},
	})

	req := &Request{Model: "gpt-4", Prompt: "hi"}
	for i := 0; i < 3; i++ {
		if _, err := reg.Generate(context.Background(), "openai", req); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}

	// Breaker is now open, the next call fails without hitting upstream.
	_, err := reg.Generate(context.Background(), "openai", req)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker error, got %v", err)
	}
}

func TestBuildPostPrompt(t *testing.T) {
	prompt := BuildPostPrompt("Artisan bakery in Lisbon", "young professionals", "instagram", "friendly", 500)
	for _, want := range []string{
		"Business: Artisan bakery in Lisbon",
		"Target Audience: young professionals",
		"Platform: instagram",
		"Tone: friendly",
		"Instagram caption",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Unknown platforms fall back to the general instructions.
	prompt = BuildPostPrompt("bakery", "", "myspace", "casual", 500)
	if !strings.Contains(prompt, "works across platforms") {
		t.Error("unknown platform should use general instructions")
	}
	if strings.Contains(prompt, "Target Audience") {
		t.Error("empty avatars should not add an audience line")
	}
}

func TestParseHashtags(t *testing.T) {
	got := ParseHashtags(" #bread, #bakery , ,#lisbon\n")
	want := []string{"#bread", "#bakery", "#lisbon"}
	if len(got) != len(want) {
		t.Fatalf("hashtags: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hashtag %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
