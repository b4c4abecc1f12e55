// Package llm provides a provider-agnostic LLM adapter for eventsift.
// It is the boundary that turns a user's text into the raw model response
// the extraction pipeline consumes; it does no parsing of its own.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "google/gemini-2.5-flash").
	Name() string
}

// StreamingProvider is a Provider that can deliver its response
// incrementally. onDelta receives each text fragment as it arrives; the
// accumulated text is returned once the stream ends.
type StreamingProvider interface {
	Provider
	Stream(ctx context.Context, prompt string, opts CompletionOpts, onDelta func(delta string)) (string, error)
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // Max tokens to generate (0 = provider default)
	Temperature float64 // 0.0-2.0 (0 = deterministic)
	Model       string  // Override model for this request (empty = use provider default)
	Format      string  // "json" for structured output, empty for plain text
	System      string  // System prompt (optional)
}

// Config holds provider configuration.
type Config struct {
	Provider string // "google", "openrouter"
	Model    string // e.g., "gemini-2.5-flash", "openai/gpt-4o-mini"
	APIKey   string // API key (empty = read from env)
	BaseURL  string // Optional URL override
}

// providerSpec holds per-provider defaults.
type providerSpec struct {
	envKeys []string
	model   string
	baseURL string
}

var providers = map[string]providerSpec{
	"google": {
		envKeys: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		model:   "gemini-2.5-flash",
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
	},
	"openrouter": {
		envKeys: []string{"OPENROUTER_API_KEY"},
		model:   "openai/gpt-4o-mini",
		baseURL: "https://openrouter.ai/api/v1",
	},
}

// Supported lists the provider names NewProvider accepts.
const Supported = "google, openrouter"

// NewProvider creates an LLM provider from the given config. A missing
// API key is read from the provider's conventional environment variables.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	spec, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: %s)", cfg.Provider, Supported)
	}

	key := cfg.APIKey
	for _, env := range spec.envKeys {
		if key != "" {
			break
		}
		key = os.Getenv(env)
	}
	if key == "" {
		return nil, fmt.Errorf("%s provider requires %s env var", name, strings.Join(spec.envKeys, " or "))
	}
	model := cfg.Model
	if model == "" {
		model = spec.model
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = spec.baseURL
	}

	switch name {
	case "google":
		return &googleProvider{apiKey: key, model: model, baseURL: baseURL, client: http.DefaultClient}, nil
	default:
		return &openrouterProvider{apiKey: key, model: model, baseURL: baseURL, client: http.DefaultClient}, nil
	}
}

// DefaultFlag is the provider/model used when none is configured.
const DefaultFlag = "google/gemini-2.5-flash"

// ParseLLMFlag parses a --llm flag value into a Config.
// Format: "provider/model" e.g., "google/gemini-2.5-flash", "openrouter/openai/gpt-4o-mini"
func ParseLLMFlag(flag string) (Config, error) {
	if flag == "" {
		flag = DefaultFlag
	}

	parts := strings.SplitN(flag, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return Config{}, fmt.Errorf("invalid --llm format %q: expected provider/model (e.g., %s)", flag, DefaultFlag)
	}

	provider := strings.ToLower(parts[0])
	if _, ok := providers[provider]; !ok {
		return Config{}, fmt.Errorf("unknown provider %q in --llm flag (supported: %s)", provider, Supported)
	}
	return Config{Provider: provider, Model: parts[1]}, nil
}
