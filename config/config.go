// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/hotkey"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/stt"
)

const (
	appName        = "voxlore"
	configFileName = "config.json"

	// DefaultSelfAppID identifies this application to the focus resolver.
	DefaultSelfAppID = "app.voxlore"

	// DefaultHistoryLimit is how many dictations history keeps.
	DefaultHistoryLimit = 500
)

// Enhancement configures the optional rewrite of transcripts.
type Enhancement struct {
	Enabled      bool     `json:"enabled"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	Mode         string   `json:"mode"`
	CustomPrompt string   `json:"custom_prompt,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
}

// LocalModel selects the whisper.cpp model loaded at startup.
type LocalModel struct {
	ID  string `json:"id,omitempty"`
	Dir string `json:"dir,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	STTProvider      string `json:"stt_provider"`
	STTLanguage      string `json:"stt_language"`
	STTModel         string `json:"stt_model,omitempty"`
	STTBaseURL       string `json:"stt_base_url,omitempty"`
	CloudTimeoutSecs int    `json:"cloud_timeout_secs"`
	OutputDir        string `json:"output_dir,omitempty"`

	InputMode           string `json:"input_mode"`
	Hotkey              string `json:"hotkey"`
	PreviewBeforeInsert bool   `json:"preview_before_insert"`
	AutoInsert          bool   `json:"auto_insert"`

	Enhancement Enhancement `json:"enhancement"`
	LocalModel  LocalModel  `json:"local_model"`

	Notifications bool   `json:"notifications"`
	DebugLogging  bool   `json:"debug_logging"`
	SelfAppID     string `json:"self_app_id"`
	HistoryLimit  int    `json:"history_limit"`

	path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{AutoInsert: true}
	c.applyDefaults()
	return c
}

// Load loads configuration from the default config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path, falling back to defaults if the
// file doesn't exist. Later Save calls write back to path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c := Default()
			c.path = path
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.applyDefaults()
	c.path = path
	return c, nil
}

// Save persists the configuration to the file it was loaded from, or the
// default location.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := Path()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		path = p
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Readers never see a partially written file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	c.path = path
	return nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Dir returns the application's config directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// Validate rejects unknown providers, modes and hotkeys.
func (c *Config) Validate() error {
	if !stt.IsKnown(c.STTProvider) {
		return fmt.Errorf("unknown stt provider: %s", c.STTProvider)
	}
	if c.STTProvider == stt.ProviderCustom && strings.TrimSpace(c.STTBaseURL) == "" {
		return fmt.Errorf("stt provider %s requires stt_base_url", c.STTProvider)
	}
	if c.CloudTimeoutSecs < stt.MinTimeoutSecs || c.CloudTimeoutSecs > stt.MaxTimeoutSecs {
		return fmt.Errorf("cloud_timeout_secs must be between %d and %d", stt.MinTimeoutSecs, stt.MaxTimeoutSecs)
	}
	if _, err := hotkey.ParseMode(c.InputMode); err != nil {
		return err
	}
	if _, err := hotkey.ParseCombo(c.Hotkey); err != nil {
		return err
	}

	e := c.Enhancement
	if e.Provider != "" && !enhance.IsKnown(e.Provider) {
		return fmt.Errorf("unknown enhancement provider: %s", e.Provider)
	}
	if e.Mode != "" && !enhance.IsValidMode(e.Mode) {
		return fmt.Errorf("unknown enhancement mode: %s", e.Mode)
	}
	if e.Enabled && (e.Provider == "" || strings.TrimSpace(e.Model) == "") {
		return fmt.Errorf("enhancement requires provider and model")
	}
	if t := e.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("enhancement temperature must be between 0 and 2")
	}
	if e.MaxTokens < 0 {
		return fmt.Errorf("enhancement max_tokens must not be negative")
	}

	if c.LocalModel.ID != "" {
		if _, ok := stt.LookupModel(c.LocalModel.ID); !ok {
			return fmt.Errorf("unknown local model: %s", c.LocalModel.ID)
		}
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	return nil
}

// Snapshot returns the transcription settings for one dictation cycle.
func (c *Config) Snapshot() types.STTSettings {
	return types.STTSettings{
		Provider:           c.STTProvider,
		Language:           c.STTLanguage,
		Model:              c.STTModel,
		BaseURL:            c.STTBaseURL,
		CloudTimeoutSecs:   c.CloudTimeoutSecs,
		OutputDir:          c.OutputDir,
		PreviewBeforeApply: c.PreviewBeforeInsert,
		AutoInsert:         c.AutoInsert,
	}
}

// EnhancementSettings returns the rewrite settings.
func (c *Config) EnhancementSettings() types.EnhancementSettings {
	e := c.Enhancement
	return types.EnhancementSettings{
		Enabled:      e.Enabled,
		Provider:     e.Provider,
		Model:        e.Model,
		Mode:         e.Mode,
		CustomPrompt: e.CustomPrompt,
		Endpoint:     e.Endpoint,
		Temperature:  e.Temperature,
		MaxTokens:    e.MaxTokens,
	}
}

// Replace validates o and copies it into c, keeping c's file.
func (c *Config) Replace(o Config) error {
	o.applyDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	path := c.path
	*c = o
	c.path = path
	return nil
}

// Clone returns a copy bound to the same file.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) applyDefaults() {
	if c.STTProvider == "" {
		c.STTProvider = stt.ProviderLocal
	}
	if c.STTLanguage == "" {
		c.STTLanguage = "en"
	}
	if c.CloudTimeoutSecs == 0 {
		c.CloudTimeoutSecs = stt.DefaultTimeoutSecs
	}
	if c.InputMode == "" {
		c.InputMode = string(hotkey.ModePushToTalk)
	}
	if c.Hotkey == "" {
		c.Hotkey = hotkey.DefaultCombo
	}
	if c.Enhancement.Mode == "" {
		c.Enhancement.Mode = string(enhance.ModeFixGrammar)
	}
	if c.SelfAppID == "" {
		c.SelfAppID = DefaultSelfAppID
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
}
