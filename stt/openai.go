package stt

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/voxlore/internal/apperr"
)

const (
	defaultOpenAIURL             = "https://api.openai.com/v1"
	defaultOpenAIModel           = "whisper-1"
	defaultOpenAITranscribeModel = "gpt-4o-mini-transcribe"
)

// OpenAI transcribes with the OpenAI audio transcription endpoint. With
// Transcribe4o set it defaults to the gpt-4o transcription model instead of
// whisper-1; both share the "openai" API key.
type OpenAI struct {
	Transcribe4o bool
}

func (o OpenAI) Name() string {
	if o.Transcribe4o {
		return ProviderOpenAITranscribe
	}
	return ProviderOpenAI
}

func (o OpenAI) Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
		if o.Transcribe4o {
			model = defaultOpenAITranscribeModel
		}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL(cfg.BaseURL, defaultOpenAIURL)+"/"),
		option.WithHTTPClient(cfg.client()),
		option.WithMaxRetries(0),
	)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(model),
	}
	if lang := isoLanguage(cfg.Language); lang != "" {
		params.Language = openai.String(lang)
	}
	if prompt := openAIPrompt(cfg.Language); prompt != "" {
		params.Prompt = openai.String(prompt)
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, apperr.STT("OpenAI API error (%d): %s", apiErr.StatusCode, apiErr.Message)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apperr.Error{Kind: apperr.KindNetwork, Msg: "OpenAI request failed", Err: err}
	}
	return &Result{Text: resp.Text, Language: cfg.Language}, nil
}

func openAIPrompt(lang string) string {
	lang = strings.ToLower(lang)
	switch {
	case lang == "zh" || lang == "zh-tw":
		return "請輸出臺灣繁體中文逐字稿，只回傳辨識文字。"
	case strings.HasPrefix(lang, "ja"):
		return "日本語で文字起こしし、認識結果のみ返してください。"
	case strings.HasPrefix(lang, "en"):
		return "Transcribe in English and return transcript text only."
	default:
		return ""
	}
}
