package stt

import (
	"context"
	"encoding/json"

	"go.aimuz.me/voxlore/internal/apperr"
)

const (
	defaultMistralURL   = "https://api.mistral.ai/v1/audio/transcriptions"
	defaultMistralModel = "mistral-vox-latest"
)

// Mistral transcribes with the Mistral audio transcription API.
type Mistral struct {
	URL string
}

func (Mistral) Name() string { return ProviderMistral }

func (m Mistral) Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error) {
	url := m.URL
	if url == "" {
		url = defaultMistralURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultMistralModel
	}

	body, err := uploadWAV(ctx, cfg, "Mistral", url, "file", wav, []formField{
		{"model", model},
		{"language", isoLanguage(cfg.Language)},
	}, bearer(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.STT("Failed to parse response: %v", err)
	}
	return &Result{Text: resp.Text, Language: resp.Language}, nil
}
