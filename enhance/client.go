// Package enhance rewrites transcripts with an LLM: grammar fixes,
// punctuation, tone, or a user-supplied instruction.
package enhance

import (
	"context"
	"net/http"
	"slices"

	"go.aimuz.me/voxlore/internal/types"
)

// Provider identifiers as stored in settings.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderTogether   = "together"
	ProviderGroq       = "groq"
	ProviderDeepSeek   = "deepseek"
	ProviderCustom     = "custom_openai_compatible"
	ProviderClaude     = "claude"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderLMStudio   = "lmstudio"
)

// Providers lists every supported enhancement provider.
var Providers = []string{
	ProviderOpenAI,
	ProviderOpenRouter,
	ProviderTogether,
	ProviderGroq,
	ProviderDeepSeek,
	ProviderCustom,
	ProviderClaude,
	ProviderGemini,
	ProviderOllama,
	ProviderLMStudio,
}

// IsKnown reports whether name is a supported provider.
func IsKnown(name string) bool {
	return slices.Contains(Providers, name)
}

// IsLocal reports whether provider runs on this machine and needs no key.
func IsLocal(provider string) bool {
	return provider == ProviderOllama || provider == ProviderLMStudio
}

// presetBaseURLs are the OpenAI-compatible endpoints of known providers.
var presetBaseURLs = map[string]string{
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderTogether:   "https://api.together.xyz/v1",
	ProviderGroq:       "https://api.groq.com/openai/v1",
	ProviderDeepSeek:   "https://api.deepseek.com/v1",
	ProviderLMStudio:   "http://localhost:1234/v1",
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures completion behavior.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
type completerConfig struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

// NewCompleter creates a Completer for provider. baseURL overrides the
// provider's default endpoint; it is required for the custom provider.
func NewCompleter(provider, apiKey, baseURL, model string, client *http.Client, opts Options) Completer {
	if client == nil {
		client = http.DefaultClient
	}
	cfg := completerConfig{
		http:        client,
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}

	switch provider {
	case ProviderOpenAI:
		return &openaiCompleter{cfg: cfg}
	case ProviderClaude:
		return &claudeCompleter{cfg: cfg}
	case ProviderGemini:
		return &geminiCompleter{cfg: cfg}
	case ProviderOllama:
		return &ollamaCompleter{cfg: cfg}
	default:
		if cfg.baseURL == "" {
			cfg.baseURL = presetBaseURLs[provider]
		}
		return &compatCompleter{cfg: cfg}
	}
}
