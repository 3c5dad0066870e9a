// Package stt turns recorded audio into text using a local whisper.cpp
// model or one of several cloud providers.
package stt

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"go.aimuz.me/voxlore/internal/apperr"
)

// Provider identifiers as stored in settings.
const (
	ProviderLocal            = "local"
	ProviderOpenAI           = "openai"
	ProviderOpenAITranscribe = "openai_transcribe"
	ProviderElevenLabs       = "elevenlabs"
	ProviderMistral          = "mistral"
	ProviderOpenRouter       = "openrouter"
	ProviderCustom           = "custom_openai_compatible"
)

// Providers lists every supported provider, local first.
var Providers = []string{
	ProviderLocal,
	ProviderOpenAI,
	ProviderOpenAITranscribe,
	ProviderElevenLabs,
	ProviderMistral,
	ProviderOpenRouter,
	ProviderCustom,
}

// IsKnown reports whether name is a supported provider.
func IsKnown(name string) bool {
	return slices.Contains(Providers, name)
}

var (
	// ErrModelNotLoaded is returned by the local engine before Load.
	ErrModelNotLoaded = apperr.STT("Local model not loaded. Load a model first.")

	// ErrTimeout is returned when a cloud request exceeds its deadline.
	ErrTimeout = apperr.STT("Cloud STT timeout. Check internet and try again.")

	// ErrUnknownProvider is returned for provider names outside Providers.
	ErrUnknownProvider = errors.New("unknown stt provider")
)

// Result is the outcome of one transcription.
type Result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"` // detected or requested language code
	Confidence float64 `json:"confidence"`         // 0-1
}

// Config is what a cloud engine needs for one request.
type Config struct {
	APIKey   string
	Language string // empty or "auto" for auto-detect
	Model    string // engine default when empty
	BaseURL  string // engine default when empty
	HTTP     *http.Client
}

func (c Config) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// CloudEngine transcribes a WAV file through a remote API.
type CloudEngine interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe uploads wav (16 kHz mono 16-bit) and returns the transcript.
	Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error)
}

// normalizedLanguage maps "auto" to the empty string.
func normalizedLanguage(lang string) string {
	if lang == "auto" {
		return ""
	}
	return lang
}
