package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
)

const (
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "google/gemini-3-flash-preview"
)

// ChatAudio transcribes by sending the WAV as input_audio to an
// OpenAI-compatible chat completions endpoint. It serves OpenRouter and
// custom compatible endpoints.
type ChatAudio struct {
	Provider string
}

func (c ChatAudio) Name() string {
	if c.Provider == "" {
		return ProviderOpenRouter
	}
	return c.Provider
}

type chatAudioRequest struct {
	Model       string             `json:"model"`
	Messages    []chatAudioMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

type chatAudioMessage struct {
	Role    string          `json:"role"`
	Content []chatAudioPart `json:"content"`
}

type chatAudioPart struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	InputAudio *chatInputAudio `json:"input_audio,omitempty"`
}

type chatInputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

func (c ChatAudio) Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error) {
	base := baseURL(cfg.BaseURL, defaultOpenRouterURL)
	isOpenRouter := strings.Contains(base, "openrouter.ai")
	model := chatAudioModel(cfg.Model, isOpenRouter)

	req := chatAudioRequest{
		Model: model,
		Messages: []chatAudioMessage{{
			Role: "user",
			Content: []chatAudioPart{
				{Type: "text", Text: chatAudioPrompt(cfg.Language)},
				{Type: "input_audio", InputAudio: &chatInputAudio{
					Data:   base64.StdEncoding.EncodeToString(wav),
					Format: "wav",
				}},
			},
		}},
		Temperature: 0,
		MaxTokens:   4096,
	}

	header := bearer(cfg.APIKey)
	if isOpenRouter {
		header.Set("HTTP-Referer", "https://voxlore.app")
		header.Set("X-Title", "Voxlore")
	}

	started := time.Now()
	body, err := postJSON(ctx, cfg, "OpenRouter", base+"/chat/completions", req, header)
	slog.Debug("chat audio transcription",
		"provider", c.Name(),
		"model", model,
		"latency", time.Since(started),
		"error", err)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.STT("Failed to parse OpenRouter response: %v", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	return &Result{Text: text, Language: cfg.Language}, nil
}

func chatAudioModel(model string, isOpenRouter bool) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return defaultOpenRouterModel
	}
	if isOpenRouter && (model == "gemini-3-flash" || model == "gemini-3-flash-preview") {
		return defaultOpenRouterModel
	}
	return model
}

func chatAudioPrompt(lang string) string {
	if strings.EqualFold(lang, "zh") || strings.EqualFold(lang, "zh-tw") {
		return "請直接輸出「臺灣繁體中文」逐字稿，不要解釋，不要額外標點修飾。"
	}
	return "Return plain transcript text only. No explanation."
}
