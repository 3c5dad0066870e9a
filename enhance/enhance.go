package enhance

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
)

// DefaultTimeout bounds one enhancement request.
const DefaultTimeout = 30 * time.Second

// KeyStore looks up provider API keys. A missing key is (_, false, nil).
type KeyStore interface {
	Get(provider string) (string, bool, error)
}

// Config is one enhancement request's settings.
type Config struct {
	Provider     string
	Model        string
	Mode         Mode
	Language     string
	CustomPrompt string
	Endpoint     string
	Temperature  *float64 // nil means types.DefaultTemperature
	MaxTokens    int
}

// ConfigFrom builds a Config from persisted settings and the dictation
// language.
func ConfigFrom(s types.EnhancementSettings, language string) Config {
	return Config{
		Provider:     s.Provider,
		Model:        s.Model,
		Mode:         Mode(s.Mode),
		Language:     language,
		CustomPrompt: s.CustomPrompt,
		Endpoint:     s.Endpoint,
		Temperature:  s.Temperature,
		MaxTokens:    s.MaxTokens,
	}
}

// Enhancer rewrites transcripts through the configured provider.
type Enhancer struct {
	Keys    KeyStore
	HTTP    *http.Client
	Timeout time.Duration

	// newCompleter is NewCompleter; replaced in tests.
	newCompleter func(provider, apiKey, baseURL, model string, client *http.Client, opts Options) Completer
}

// New creates an Enhancer reading keys from keys.
func New(keys KeyStore) *Enhancer {
	return &Enhancer{Keys: keys, Timeout: DefaultTimeout, newCompleter: NewCompleter}
}

// Enhance returns text rewritten according to cfg. Blank input is
// returned unchanged without calling the provider, as is blank output.
func (e *Enhancer) Enhance(ctx context.Context, text string, cfg Config) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if !IsKnown(cfg.Provider) {
		return "", apperr.Enhancement("Unsupported enhancement provider: %s", cfg.Provider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return "", apperr.Enhancement("No model configured for %s", cfg.Provider)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Provider == ProviderCustom && endpoint == "" {
		return "", apperr.Enhancement("Custom OpenAI-compatible provider requires endpoint.")
	}

	var key string
	if !IsLocal(cfg.Provider) {
		var err error
		if key, err = e.apiKey(cfg.Provider); err != nil {
			return "", err
		}
	}

	opts := Options{MaxTokens: cfg.MaxTokens, Temperature: types.DefaultTemperature}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = types.DefaultMaxTokens
	}
	if cfg.Temperature != nil {
		opts.Temperature = *cfg.Temperature
	}

	newCompleter := e.newCompleter
	if newCompleter == nil {
		newCompleter = NewCompleter
	}
	completer := newCompleter(cfg.Provider, key, endpoint, cfg.Model, e.HTTP, opts)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	out, usage, err := completer.Complete(ctx, []Message{
		{Role: "system", Content: SystemPrompt(cfg.Mode, cfg.Language, cfg.CustomPrompt)},
		{Role: "user", Content: text},
	})
	if err != nil {
		slog.Warn("enhancement failed", "provider", cfg.Provider, "model", cfg.Model, "error", err)
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return "", err
		}
		return "", &apperr.Error{Kind: apperr.KindEnhancement, Msg: "Enhancement failed", Err: err}
	}

	slog.Info("enhancement done",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"mode", string(cfg.Mode),
		"tokens", usage.TotalTokens,
		"elapsed", time.Since(started))

	if out = strings.TrimSpace(out); out == "" {
		return text, nil
	}
	return out, nil
}

func (e *Enhancer) apiKey(provider string) (string, error) {
	if e.Keys == nil {
		return "", apperr.Enhancement("No API key configured for %s", provider)
	}
	key, ok, err := e.Keys.Get(provider)
	if err != nil {
		return "", err
	}
	if !ok || key == "" {
		return "", apperr.Enhancement("No API key configured for %s", provider)
	}
	return key, nil
}
