package stt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/pcm"
)

type mapKeys map[string]string

func (m mapKeys) Get(provider string) (string, bool, error) {
	k, ok := m[provider]
	return k, ok, nil
}

type failingKeys struct{ err error }

func (f failingKeys) Get(string) (string, bool, error) { return "", false, f.err }

// fakeEngine records the last call and returns a fixed result.
type fakeEngine struct {
	name   string
	result Result
	err    error
	block  bool

	gotWAV []byte
	gotCfg Config
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Transcribe(ctx context.Context, wav []byte, cfg Config) (*Result, error) {
	f.gotWAV = wav
	f.gotCfg = cfg
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

func newTestDispatcher(engine *fakeEngine, keys KeyStore) *Dispatcher {
	return &Dispatcher{
		Keys:   keys,
		Cloud:  map[string]CloudEngine{engine.name: engine},
		Detect: func(string) (string, string) { return "auto", "Auto" },
	}
}

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		secs int
		want time.Duration
	}{
		{0, 45 * time.Second},
		{-1, 45 * time.Second},
		{1, 5 * time.Second},
		{5, 5 * time.Second},
		{30, 30 * time.Second},
		{180, 180 * time.Second},
		{600, 180 * time.Second},
	}
	for _, tt := range tests {
		if got := ClampTimeout(tt.secs); got != tt.want {
			t.Errorf("ClampTimeout(%d) = %v, want %v", tt.secs, got, tt.want)
		}
	}
}

func TestDispatcherUnknownProvider(t *testing.T) {
	d := newTestDispatcher(&fakeEngine{name: ProviderMistral}, mapKeys{})
	_, err := d.Transcribe(context.Background(), Request{Provider: "vosk"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
	if !errors.Is(err, apperr.ErrSTT) {
		t.Errorf("err kind = %v, want stt", apperr.KindOf(err))
	}
}

func TestDispatcherMissingKey(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{ProviderMistral, "No API key configured for mistral"},
		{ProviderOpenAITranscribe, "No API key configured for openai"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			engine := &fakeEngine{name: tt.provider}
			d := newTestDispatcher(engine, mapKeys{})
			_, err := d.Transcribe(context.Background(), Request{Provider: tt.provider, Samples: []int16{1}})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperr.Message(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
			if engine.gotWAV != nil {
				t.Error("engine called without key")
			}
		})
	}
}

func TestDispatcherKeyStoreError(t *testing.T) {
	want := apperr.Security("keyring locked")
	d := newTestDispatcher(&fakeEngine{name: ProviderMistral}, failingKeys{err: want})
	_, err := d.Transcribe(context.Background(), Request{Provider: ProviderMistral})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestDispatcherCustomRequiresEndpoint(t *testing.T) {
	engine := &fakeEngine{name: ProviderCustom}
	d := newTestDispatcher(engine, mapKeys{ProviderCustom: "k"})
	_, err := d.Transcribe(context.Background(), Request{Provider: ProviderCustom, Samples: []int16{1}})
	if err == nil || !strings.Contains(apperr.Message(err), "requires OpenAI-compatible endpoint") {
		t.Fatalf("err = %v", err)
	}

	_, err = d.Transcribe(context.Background(), Request{
		Provider: ProviderCustom,
		Samples:  []int16{1},
		BaseURL:  "http://localhost:9999/v1",
	})
	if err != nil {
		t.Fatalf("with endpoint: %v", err)
	}
	if engine.gotCfg.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %q", engine.gotCfg.BaseURL)
	}
}

func TestDispatcherEncodesSamples(t *testing.T) {
	engine := &fakeEngine{name: ProviderElevenLabs, result: Result{Text: "hello", Language: "eng"}}
	d := newTestDispatcher(engine, mapKeys{ProviderElevenLabs: "secret"})

	samples := []int16{1, 2, 3, 4}
	res, err := d.Transcribe(context.Background(), Request{
		Provider: ProviderElevenLabs,
		Samples:  samples,
		Language: "en",
		Model:    "scribe_v1",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hello" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "en" {
		t.Errorf("Language = %q, want en", res.Language)
	}
	if len(engine.gotWAV) != pcm.HeaderSize+len(samples)*2 {
		t.Errorf("wav size = %d", len(engine.gotWAV))
	}
	if engine.gotCfg.APIKey != "secret" || engine.gotCfg.Model != "scribe_v1" || engine.gotCfg.Language != "en" {
		t.Errorf("cfg = %+v", engine.gotCfg)
	}
}

func TestDispatcherPassesWAV(t *testing.T) {
	engine := &fakeEngine{name: ProviderMistral}
	d := newTestDispatcher(engine, mapKeys{ProviderMistral: "k"})
	wav := pcm.EncodeWAV([]int16{9, 9}, 16000)

	if _, err := d.Transcribe(context.Background(), Request{Provider: ProviderMistral, WAV: wav}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if string(engine.gotWAV) != string(wav) {
		t.Error("wav was re-encoded")
	}
}

func TestDispatcherUpstreamError(t *testing.T) {
	want := apperr.STT("Mistral API error (500): boom")
	d := newTestDispatcher(&fakeEngine{name: ProviderMistral, err: want}, mapKeys{ProviderMistral: "k"})
	_, err := d.Transcribe(context.Background(), Request{Provider: ProviderMistral})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestDispatcherTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the minimum cloud timeout")
	}
	d := newTestDispatcher(&fakeEngine{name: ProviderMistral, block: true}, mapKeys{ProviderMistral: "k"})

	start := time.Now()
	_, err := d.Transcribe(context.Background(), Request{Provider: ProviderMistral, TimeoutSecs: 1})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if got := apperr.Message(err); got != "Cloud STT timeout. Check internet and try again." {
		t.Errorf("message = %q", got)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Second {
		t.Errorf("returned after %v, before the clamped minimum", elapsed)
	}
}

func TestDispatcherParentCancel(t *testing.T) {
	d := newTestDispatcher(&fakeEngine{name: ProviderMistral, block: true}, mapKeys{ProviderMistral: "k"})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := d.Transcribe(ctx, Request{Provider: ProviderMistral})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDispatcherPostprocess(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		result   Result
		detect   string
		wantText string
		wantLang string
	}{
		{
			name:     "s2t for zh-TW",
			lang:     "zh-TW",
			result:   Result{Text: "简体中文", Language: "zh"},
			wantText: "簡體中文",
			wantLang: "zh",
		},
		{
			name:     "no s2t for zh",
			lang:     "zh",
			result:   Result{Text: "简体中文", Language: "zh"},
			wantText: "简体中文",
			wantLang: "zh",
		},
		{
			name:     "detected language filled",
			lang:     "auto",
			result:   Result{Text: "bonjour"},
			detect:   "fr",
			wantText: "bonjour",
			wantLang: "fr",
		},
		{
			name:     "echoed auto replaced",
			lang:     "auto",
			result:   Result{Text: "hello", Language: "auto"},
			detect:   "en",
			wantText: "hello",
			wantLang: "en",
		},
		{
			name:     "undetectable stays empty",
			lang:     "",
			result:   Result{Text: "…"},
			detect:   "auto",
			wantText: "…",
			wantLang: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{name: ProviderMistral, result: tt.result}
			d := newTestDispatcher(engine, mapKeys{ProviderMistral: "k"})
			if tt.detect != "" {
				d.Detect = func(string) (string, string) { return tt.detect, "" }
			}
			res, err := d.Transcribe(context.Background(), Request{Provider: ProviderMistral, Language: tt.lang})
			if err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if res.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", res.Text, tt.wantText)
			}
			if res.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", res.Language, tt.wantLang)
			}
		})
	}
}

func TestDispatcherLocalNotLoaded(t *testing.T) {
	d := NewDispatcher(NewLocalEngine(), mapKeys{})
	_, err := d.Transcribe(context.Background(), Request{Provider: ProviderLocal, Samples: []int16{1}})
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("err = %v, want ErrModelNotLoaded", err)
	}
}

func TestHasKey(t *testing.T) {
	d := NewDispatcher(nil, mapKeys{ProviderOpenAI: "k"})
	tests := map[string]bool{
		ProviderLocal:            true,
		ProviderOpenAI:           true,
		ProviderOpenAITranscribe: true,
		ProviderMistral:          false,
	}
	for provider, want := range tests {
		if got := d.HasKey(provider); got != want {
			t.Errorf("HasKey(%s) = %v, want %v", provider, got, want)
		}
	}
}
