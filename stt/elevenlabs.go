package stt

import (
	"context"
	"encoding/json"
	"net/http"

	"go.aimuz.me/voxlore/internal/apperr"
)

const (
	defaultElevenLabsURL   = "https://api.elevenlabs.io/v1/speech-to-text"
	defaultElevenLabsModel = "scribe_v2"
)

// ElevenLabs transcribes with the ElevenLabs Scribe API.
type ElevenLabs struct {
	// URL overrides the endpoint; used by tests.
	URL string
}

func (ElevenLabs) Name() string { return ProviderElevenLabs }

func (e ElevenLabs) Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error) {
	url := e.URL
	if url == "" {
		url = defaultElevenLabsURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultElevenLabsModel
	}

	header := http.Header{}
	header.Set("xi-api-key", cfg.APIKey)

	body, err := uploadWAV(ctx, cfg, "ElevenLabs", url, "audio", wav, []formField{
		{"model_id", model},
		{"language_code", normalizedLanguage(cfg.Language)},
	}, header)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Text         string  `json:"text"`
		LanguageCode string  `json:"language_code"`
		LanguageProb float64 `json:"language_probability"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.STT("Failed to parse response: %v", err)
	}
	return &Result{
		Text:       resp.Text,
		Language:   resp.LanguageCode,
		Confidence: resp.LanguageProb,
	}, nil
}
