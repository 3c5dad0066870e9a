// Package types provides shared type definitions for the application.
package types

import "time"

// RecordingResult is the outcome of one completed recording cycle.
// Text is empty when transcription failed or nothing was captured; the
// paths are empty only when nothing was captured.
type RecordingResult struct {
	Text         string  `json:"text"`
	AudioPath    string  `json:"audioPath,omitempty"`
	TextPath     string  `json:"textPath,omitempty"`
	DurationSecs float64 `json:"durationSecs"`
}

// STTSettings is the per-cycle snapshot of transcription settings.
type STTSettings struct {
	Provider           string `json:"provider"`
	Language           string `json:"language"`
	Model              string `json:"model,omitempty"`
	BaseURL            string `json:"baseUrl,omitempty"`
	CloudTimeoutSecs   int    `json:"cloudTimeoutSecs"`
	OutputDir          string `json:"outputDir,omitempty"`
	PreviewBeforeApply bool   `json:"previewBeforeApply"`
	AutoInsert         bool   `json:"autoInsert"`
}

// EnhancementSettings configures the optional LLM rewrite of transcripts.
type EnhancementSettings struct {
	Enabled      bool     `json:"enabled"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	Mode         string   `json:"mode"`
	CustomPrompt string   `json:"customPrompt,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty"`
}

// DefaultMaxTokens is the default max tokens if not specified.
const DefaultMaxTokens = 2048

// DefaultTemperature is the default temperature if not specified.
const DefaultTemperature = 0.3

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Event payloads
// ─────────────────────────────────────────────────────────────────────────────

// AudioLevel is the payload of the audio-level event.
type AudioLevel struct {
	Level float32 `json:"level"` // RMS in [0, 1]
}

// StatusMessage is the payload of processing and error events.
type StatusMessage struct {
	Message string `json:"message"`
}

// DeliveryResult is the payload of the delivery event.
type DeliveryResult struct {
	AutoPasted bool   `json:"autoPasted"`
	Target     string `json:"target,omitempty"`
}

// PreviewState is the payload of the preview event.
type PreviewState struct {
	Open   bool   `json:"open"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
}

// DownloadProgress is the payload of the model-download event.
type DownloadProgress struct {
	ModelID string `json:"modelId"`
	Percent int    `json:"percent"`
}

// HotkeyState is the payload of the hotkey-state event.
type HotkeyState struct {
	State string `json:"state"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Status DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ModelStatus describes the local transcription model.
type ModelStatus struct {
	Loaded  bool   `json:"loaded"`
	ModelID string `json:"modelId,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ModelInfo describes a local model known to the application.
type ModelInfo struct {
	ID         string `json:"id"`
	Size       int64  `json:"size"`
	Downloaded bool   `json:"downloaded"`
	Loaded     bool   `json:"loaded"`
}

// ProviderHealth reports whether a cloud provider is usable.
type ProviderHealth struct {
	Provider  string `json:"provider"`
	HasAPIKey bool   `json:"hasApiKey"`
	IsLocal   bool   `json:"isLocal"`
}

// PermissionStatus mirrors the OS permission state for the UI.
type PermissionStatus struct {
	Accessibility bool   `json:"accessibility"`
	PostEvent     bool   `json:"postEvent"`
	Microphone    string `json:"microphone"`
}

// HistoryEntry is one persisted dictation.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	RawText      string    `json:"rawText,omitempty"`
	Provider     string    `json:"provider"`
	Language     string    `json:"language,omitempty"`
	AudioPath    string    `json:"audioPath,omitempty"`
	DurationSecs float64   `json:"durationSecs"`
	Target       string    `json:"target,omitempty"`
	AutoPasted   bool      `json:"autoPasted"`
	CreatedAt    time.Time `json:"createdAt"`
}
