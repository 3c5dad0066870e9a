package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/langdetect"
	"go.aimuz.me/voxlore/pcm"
)

// Cloud timeout bounds, in seconds.
const (
	MinTimeoutSecs     = 5
	MaxTimeoutSecs     = 180
	DefaultTimeoutSecs = 45
)

// ClampTimeout converts a configured timeout to the enforced deadline.
// Zero or negative values select the default.
func ClampTimeout(secs int) time.Duration {
	if secs <= 0 {
		secs = DefaultTimeoutSecs
	}
	return time.Duration(min(max(secs, MinTimeoutSecs), MaxTimeoutSecs)) * time.Second
}

// KeyStore looks up provider API keys. A missing key is (_, false, nil).
type KeyStore interface {
	Get(provider string) (string, bool, error)
}

// Request is one transcription job. Samples are used when present;
// otherwise WAV is decoded for the local engine and uploaded as is for
// cloud engines.
type Request struct {
	Provider    string
	Samples     []int16
	SampleRate  int
	WAV         []byte
	Language    string
	Model       string
	BaseURL     string
	TimeoutSecs int
}

// Dispatcher routes requests to the local engine or a cloud engine and
// post-processes every result the same way.
type Dispatcher struct {
	Local  *LocalEngine
	Keys   KeyStore
	Cloud  map[string]CloudEngine
	HTTP   *http.Client
	Detect func(text string) (code, name string)
}

// NewDispatcher wires the default cloud engines.
func NewDispatcher(local *LocalEngine, keys KeyStore) *Dispatcher {
	return &Dispatcher{
		Local: local,
		Keys:  keys,
		Cloud: map[string]CloudEngine{
			ProviderOpenAI:           OpenAI{},
			ProviderOpenAITranscribe: OpenAI{Transcribe4o: true},
			ProviderElevenLabs:       ElevenLabs{},
			ProviderMistral:          Mistral{},
			ProviderOpenRouter:       ChatAudio{Provider: ProviderOpenRouter},
			ProviderCustom:           ChatAudio{Provider: ProviderCustom},
		},
		Detect: langdetect.Detect,
	}
}

// keyName maps a provider to the key it authenticates with.
func keyName(provider string) string {
	if provider == ProviderOpenAITranscribe {
		return ProviderOpenAI
	}
	return provider
}

// HasKey reports whether an API key is stored for provider. The local
// provider never needs one.
func (d *Dispatcher) HasKey(provider string) bool {
	if provider == ProviderLocal {
		return true
	}
	if d.Keys == nil {
		return false
	}
	_, ok, err := d.Keys.Get(keyName(provider))
	return ok && err == nil
}

// Transcribe runs req on the selected provider.
func (d *Dispatcher) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if !IsKnown(req.Provider) {
		return nil, &apperr.Error{
			Kind: apperr.KindSTT,
			Msg:  "Unsupported STT provider: " + req.Provider,
			Err:  ErrUnknownProvider,
		}
	}
	if req.SampleRate <= 0 {
		req.SampleRate = 16000
	}

	started := time.Now()
	var (
		res *Result
		err error
	)
	if req.Provider == ProviderLocal {
		res, err = d.transcribeLocal(ctx, req)
	} else {
		res, err = d.transcribeCloud(ctx, req)
	}
	if err != nil {
		slog.Warn("transcription failed", "provider", req.Provider, "error", err)
		return nil, err
	}

	d.postprocess(res, req.Language)
	slog.Info("transcription done",
		"provider", req.Provider,
		"language", res.Language,
		"chars", len(res.Text),
		"elapsed", time.Since(started))
	return res, nil
}

func (d *Dispatcher) transcribeLocal(ctx context.Context, req Request) (*Result, error) {
	if d.Local == nil {
		return nil, ErrModelNotLoaded
	}
	samples, rate := req.Samples, req.SampleRate
	if len(samples) == 0 && len(req.WAV) > 0 {
		var err error
		samples, rate, err = pcm.DecodeWAV(req.WAV)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindAudio, err, "Failed to decode audio")
		}
	}
	return d.Local.Transcribe(ctx, samples, rate, req.Language)
}

func (d *Dispatcher) transcribeCloud(ctx context.Context, req Request) (*Result, error) {
	engine, ok := d.Cloud[req.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
	}
	if req.Provider == ProviderCustom && req.BaseURL == "" {
		return nil, apperr.STT("Custom provider requires OpenAI-compatible endpoint.")
	}

	key, err := d.apiKey(req.Provider)
	if err != nil {
		return nil, err
	}

	wav := req.WAV
	if len(req.Samples) > 0 || len(wav) == 0 {
		wav = pcm.EncodeWAV(req.Samples, req.SampleRate)
	}

	tctx, cancel := context.WithTimeout(ctx, ClampTimeout(req.TimeoutSecs))
	defer cancel()

	res, err := engine.Transcribe(tctx, wav, Config{
		APIKey:   key,
		Language: req.Language,
		Model:    req.Model,
		BaseURL:  req.BaseURL,
		HTTP:     d.HTTP,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return res, nil
}

func (d *Dispatcher) apiKey(provider string) (string, error) {
	if d.Keys == nil {
		return "", apperr.STT("No API key configured for %s", keyName(provider))
	}
	key, ok, err := d.Keys.Get(keyName(provider))
	if err != nil {
		return "", err
	}
	if !ok || key == "" {
		return "", apperr.STT("No API key configured for %s", keyName(provider))
	}
	return key, nil
}

// postprocess applies the s2t conversion for Traditional Chinese and fills
// in the language when the provider did not report one.
func (d *Dispatcher) postprocess(res *Result, requested string) {
	if NeedsS2T(requested) {
		res.Text = SimplifiedToTraditional(res.Text)
	}
	if res.Language == langdetect.Auto {
		res.Language = ""
	}
	if res.Language == "" && d.Detect != nil {
		if code, _ := d.Detect(res.Text); code != langdetect.Auto {
			res.Language = code
		}
	}
	res.Language = canonicalLanguage(res.Language)
}
