package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"go.aimuz.me/voxlore/config"
	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/focus"
	"go.aimuz.me/voxlore/history"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/notify"
	"go.aimuz.me/voxlore/platform"
	"go.aimuz.me/voxlore/recording"
	"go.aimuz.me/voxlore/stt"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeCaps struct {
	mu        sync.Mutex
	front     string
	activated []string
}

func (f *fakeCaps) SelfID() string { return platform.SelfID }

func (f *fakeCaps) FrontmostApp() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.front, f.front != ""
}

func (f *fakeCaps) Activate(id string) error {
	f.mu.Lock()
	f.activated = append(f.activated, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeCaps) CheckPermission(platform.Permission) platform.Status {
	return platform.StatusGranted
}

func (f *fakeCaps) RequestPermission(platform.Permission) platform.Status {
	return platform.StatusGranted
}

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	samples  []int16
	starts   int
	stops    int

	// startGate, when set, holds Start until closed.
	startGate chan struct{}
	// stopWaits makes Stop wait for its context, like a stop polling for a
	// session that is still starting.
	stopWaits bool
	stopErr   error
}

func (f *fakeRecorder) Start(context.Context) error {
	if f.startGate != nil {
		<-f.startGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeRecorder) Stop(ctx context.Context) (recording.Capture, error) {
	f.mu.Lock()
	f.stops++
	waits := f.stopWaits
	f.mu.Unlock()

	if waits {
		<-ctx.Done()
		f.mu.Lock()
		f.stopErr = ctx.Err()
		f.mu.Unlock()
		return recording.Capture{}, ctx.Err()
	}
	return recording.Capture{SessionID: "s1", StartedAt: time.Now(), Samples: f.samples}, nil
}

func (f *fakeRecorder) IsRecording() bool { return false }

type fakeTranscriber struct {
	mu   sync.Mutex
	res  stt.Result
	err  error
	reqs []stt.Request
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req stt.Request) (*stt.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	res := f.res
	return &res, nil
}

func (f *fakeTranscriber) HasKey(provider string) bool { return provider == stt.ProviderLocal }

type fakeEnhancer struct {
	out string
	err error
	cfg enhance.Config
}

func (f *fakeEnhancer) Enhance(_ context.Context, text string, cfg enhance.Config) (string, error) {
	f.cfg = cfg
	return f.out, f.err
}

type mapKeys map[string]string

func (m mapKeys) Get(p string) (string, bool, error) {
	k, ok := m[p]
	return k, ok, nil
}

func (m mapKeys) Set(p, k string) error {
	if k == "" {
		delete(m, p)
		return nil
	}
	m[p] = k
	return nil
}

func (m mapKeys) Delete(p string) error {
	delete(m, p)
	return nil
}

type fakeDeliverer struct {
	mu     sync.Mutex
	pasted bool
	texts  []string
}

func (f *fakeDeliverer) Deliver(_ context.Context, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.pasted, nil
}

type event struct {
	name string
	data any
}

type eventLog struct {
	mu     sync.Mutex
	events []event
}

func (l *eventLog) emit(name string, data any) {
	l.mu.Lock()
	l.events = append(l.events, event{name, data})
	l.mu.Unlock()
}

func (l *eventLog) find(name string) []any {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []any
	for _, e := range l.events {
		if e.name == name {
			out = append(out, e.data)
		}
	}
	return out
}

type harness struct {
	svc       *Service
	cfg       *config.Config
	caps      *fakeCaps
	recorder  *fakeRecorder
	stt       *fakeTranscriber
	enhancer  *fakeEnhancer
	keys      mapKeys
	deliverer *fakeDeliverer
	events    *eventLog
	dir       string
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadFrom(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.OutputDir = filepath.Join(dir, "recordings")
	cfg.LocalModel.Dir = filepath.Join(dir, "models")
	if mutate != nil {
		mutate(cfg)
	}

	hist, err := history.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{
		cfg:       cfg,
		caps:      &fakeCaps{front: "com.editor"},
		recorder:  &fakeRecorder{samples: make([]int16, 1600)},
		stt:       &fakeTranscriber{res: stt.Result{Text: "hello world", Language: "en"}},
		enhancer:  &fakeEnhancer{},
		keys:      mapKeys{},
		deliverer: &fakeDeliverer{pasted: true},
		events:    &eventLog{},
		dir:       dir,
	}
	h.svc = New("test")
	h.svc.Init(Options{
		Config:      cfg,
		Platform:    h.caps,
		Recorder:    h.recorder,
		Transcriber: h.stt,
		Local:       stt.NewLocalEngine(),
		Enhancer:    h.enhancer,
		Keys:        h.keys,
		Deliverer:   h.deliverer,
		History:     hist,
		Notifier:    notify.New(false),
		FocusTiming: focus.Timing{
			RecordingTimeout:  20 * time.Millisecond,
			RecordingInterval: time.Millisecond,
			PreviewTimeout:    20 * time.Millisecond,
			PreviewInterval:   time.Millisecond,
			ApplyTimeout:      20 * time.Millisecond,
			ApplyInterval:     time.Millisecond,
		},
	})
	h.svc.SetEmitter(h.events.emit)
	t.Cleanup(h.svc.Shutdown)
	return h
}

func (h *harness) dictate(t *testing.T) types.RecordingResult {
	t.Helper()
	if err := h.svc.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	res, err := h.svc.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	return res
}

func (h *harness) history(t *testing.T) []types.HistoryEntry {
	t.Helper()
	entries, err := h.svc.ListHistory(0)
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

// ─────────────────────────────────────────────────────────────────────────────
// Dictation
// ─────────────────────────────────────────────────────────────────────────────

func TestDictationAutoInsert(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.STTProvider = stt.ProviderMistral
		c.STTLanguage = "fr"
		c.CloudTimeoutSecs = 30
	})

	res := h.dictate(t)
	if res.Text != "hello world" || res.DurationSecs != 0.1 {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(res.AudioPath); err != nil {
		t.Errorf("wav not written: %v", err)
	}

	req := h.stt.reqs[0]
	if req.Provider != stt.ProviderMistral || req.Language != "fr" || req.SampleRate != 16000 || req.TimeoutSecs != 30 || len(req.Samples) != 1600 {
		t.Errorf("request = %+v", req)
	}

	if !slices.Equal(h.deliverer.texts, []string{"hello world"}) {
		t.Errorf("delivered = %v", h.deliverer.texts)
	}
	if !slices.Contains(h.caps.activated, "com.editor") {
		t.Errorf("target not restored: %v", h.caps.activated)
	}
	if d := h.events.find(EventDelivery); len(d) != 1 || d[0] != (types.DeliveryResult{AutoPasted: true, Target: "com.editor"}) {
		t.Errorf("delivery events = %v", d)
	}
	if r := h.events.find(EventRecordingResult); len(r) != 1 {
		t.Errorf("result events = %v", r)
	}

	entries := h.history(t)
	if len(entries) != 1 {
		t.Fatalf("history = %+v", entries)
	}
	e := entries[0]
	if e.Text != "hello world" || e.Provider != stt.ProviderMistral || !e.AutoPasted || e.Target != "com.editor" || e.RawText != "" {
		t.Errorf("entry = %+v", e)
	}
	if h.svc.focus.RecordingTarget() != "" {
		t.Error("focus slots not cleared after delivery")
	}
	if h.svc.HotkeyState() != "idle" {
		t.Errorf("state = %s", h.svc.HotkeyState())
	}
}

func TestDictationClipboardFallbackRetriesOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.deliverer.pasted = false

	h.dictate(t)

	if len(h.deliverer.texts) != 2 {
		t.Errorf("deliver calls = %d, want 2", len(h.deliverer.texts))
	}
	if e := h.history(t); len(e) != 1 || e[0].AutoPasted {
		t.Errorf("history = %+v", e)
	}
}

func TestDictationWithoutAutoInsert(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.AutoInsert = false })
	h.dictate(t)
	if len(h.deliverer.texts) != 0 {
		t.Errorf("delivered = %v", h.deliverer.texts)
	}
	if len(h.history(t)) != 1 {
		t.Error("dictation not recorded")
	}
}

func TestDictationEnhancement(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.STTLanguage = "auto"
		c.Enhancement = config.Enhancement{Enabled: true, Provider: enhance.ProviderGroq, Model: "llama", Mode: "add_punctuation"}
	})
	h.stt.res.Language = "de"
	h.enhancer.out = "Hello, world."

	res := h.dictate(t)
	if res.Text != "Hello, world." {
		t.Errorf("text = %q", res.Text)
	}
	if h.enhancer.cfg.Language != "de" || h.enhancer.cfg.Mode != enhance.ModeAddPunctuation {
		t.Errorf("enhance cfg = %+v", h.enhancer.cfg)
	}
	e := h.history(t)[0]
	if e.Text != "Hello, world." || e.RawText != "hello world" || e.Language != "de" {
		t.Errorf("entry = %+v", e)
	}
}

func TestDictationEnhancementFailureKeepsTranscript(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Enhancement = config.Enhancement{Enabled: true, Provider: enhance.ProviderOpenAI, Model: "m", Mode: "fix_grammar"}
	})
	h.enhancer.err = apperr.Enhancement("API error (500)")

	if res := h.dictate(t); res.Text != "hello world" {
		t.Errorf("text = %q", res.Text)
	}
	if !slices.Equal(h.deliverer.texts, []string{"hello world"}) {
		t.Errorf("delivered = %v", h.deliverer.texts)
	}
}

func TestDictationTranscriptionFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.stt.err = stt.ErrModelNotLoaded

	res := h.dictate(t)
	if res.Text != "" || res.AudioPath == "" {
		t.Errorf("result = %+v", res)
	}
	errs := h.events.find(EventError)
	if len(errs) != 1 || errs[0] != (types.StatusMessage{Message: "Transcription failed: Local model not loaded. Load a model first."}) {
		t.Errorf("error events = %v", errs)
	}
	if len(h.deliverer.texts) != 0 || len(h.history(t)) != 0 {
		t.Error("empty transcript delivered or recorded")
	}
}

func TestDictationEmptyCapture(t *testing.T) {
	h := newHarness(t, nil)
	h.recorder.samples = nil

	res := h.dictate(t)
	if res != (types.RecordingResult{}) {
		t.Errorf("result = %+v", res)
	}
	if len(h.stt.reqs) != 0 {
		t.Error("transcriber called for empty capture")
	}
}

func TestStartRecordingFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, nil)
	h.recorder.startErr = apperr.Audio(platform.MicrophoneDeniedMessage)

	if err := h.svc.StartRecording(); !errors.Is(err, apperr.ErrAudio) {
		t.Fatalf("err = %v", err)
	}
	if h.svc.HotkeyState() != "idle" {
		t.Errorf("state = %s", h.svc.HotkeyState())
	}
	if _, err := h.svc.StopRecording(); !errors.Is(err, recording.ErrNotRecording) {
		t.Errorf("StopRecording err = %v", err)
	}
}

func TestFailedStartReleasesPendingStop(t *testing.T) {
	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.recorder.startGate = gate
	h.recorder.startErr = apperr.Audio("No input device")
	h.recorder.stopWaits = true

	h.svc.HotkeyDown()
	h.svc.HotkeyUp()
	close(gate)

	done := make(chan struct{})
	go func() {
		h.svc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop kept waiting after the start failed")
	}

	if !errors.Is(h.recorder.stopErr, context.Canceled) {
		t.Errorf("stop err = %v, want context.Canceled", h.recorder.stopErr)
	}
	if h.svc.HotkeyState() != "idle" {
		t.Errorf("state = %s", h.svc.HotkeyState())
	}
	for _, e := range h.events.find(EventError) {
		if m := e.(types.StatusMessage).Message; m == context.Canceled.Error() {
			t.Errorf("cancelled stop reported as error: %q", m)
		}
	}

	// The next dictation is unaffected.
	h.recorder.startGate = nil
	h.recorder.startErr = nil
	h.recorder.stopWaits = false
	if res := h.dictate(t); res.Text != "hello world" {
		t.Errorf("next dictation = %+v", res)
	}
}

func TestStartRecordingTwice(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.svc.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.StartRecording(); !errors.Is(err, recording.ErrAlreadyRecording) {
		t.Errorf("err = %v", err)
	}
	if h.recorder.starts != 1 {
		t.Errorf("starts = %d", h.recorder.starts)
	}
}

func TestHotkeyPushToTalk(t *testing.T) {
	h := newHarness(t, nil)

	h.svc.HotkeyDown()
	h.svc.HotkeyDown() // auto-repeat
	h.svc.HotkeyUp()
	h.svc.wg.Wait()

	if h.recorder.starts != 1 || h.recorder.stops != 1 {
		t.Errorf("starts=%d stops=%d", h.recorder.starts, h.recorder.stops)
	}
	if len(h.deliverer.texts) != 1 {
		t.Errorf("delivered = %v", h.deliverer.texts)
	}
	if h.svc.HotkeyState() != "idle" {
		t.Errorf("state = %s", h.svc.HotkeyState())
	}
}

func TestHotkeyToggle(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.InputMode = "toggle" })

	h.svc.HotkeyDown()
	h.svc.HotkeyUp()
	h.svc.wg.Wait()
	if h.recorder.starts != 1 || h.recorder.stops != 0 {
		t.Fatalf("after first press: starts=%d stops=%d", h.recorder.starts, h.recorder.stops)
	}

	h.svc.HotkeyDown()
	h.svc.HotkeyUp()
	h.svc.wg.Wait()
	if h.recorder.stops != 1 || len(h.deliverer.texts) != 1 {
		t.Errorf("after second press: stops=%d delivered=%v", h.recorder.stops, h.deliverer.texts)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Preview
// ─────────────────────────────────────────────────────────────────────────────

func TestPreviewApply(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.PreviewBeforeInsert = true })
	var shown []bool
	h.svc.SetPreviewWindow(func(v bool) { shown = append(shown, v) })

	h.dictate(t)
	if len(h.deliverer.texts) != 0 {
		t.Fatal("delivered before apply")
	}
	if h.svc.PreviewText() != "hello world" || h.svc.PreviewTarget() != "com.editor" {
		t.Errorf("preview = %q -> %q", h.svc.PreviewText(), h.svc.PreviewTarget())
	}
	if p := h.events.find(EventPreview); len(p) != 1 || !p[0].(types.PreviewState).Open {
		t.Errorf("preview events = %v", p)
	}

	got := h.svc.ApplyPreview("Hello world!")
	if !got.AutoPasted || got.Target != "com.editor" {
		t.Errorf("ApplyPreview = %+v", got)
	}
	if !slices.Equal(h.deliverer.texts, []string{"Hello world!"}) {
		t.Errorf("delivered = %v", h.deliverer.texts)
	}
	if !slices.Equal(shown, []bool{true, false}) {
		t.Errorf("window = %v", shown)
	}
	if h.svc.PreviewText() != "" {
		t.Error("preview text kept after apply")
	}
	if len(h.events.find(EventDone)) != 2 {
		t.Errorf("done events = %d, want finisher + apply", len(h.events.find(EventDone)))
	}

	e := h.history(t)
	if len(e) != 1 || e[0].Text != "Hello world!" || e[0].RawText != "hello world" || !e[0].AutoPasted {
		t.Errorf("history = %+v", e)
	}
}

func TestPreviewCancel(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.PreviewBeforeInsert = true })
	h.dictate(t)

	h.svc.CancelPreview()
	if h.svc.PreviewText() != "" || h.svc.PreviewTarget() != "" {
		t.Error("preview state kept after cancel")
	}
	if len(h.deliverer.texts) != 0 || len(h.history(t)) != 0 {
		t.Error("cancelled preview delivered or recorded")
	}
}

func TestShowPreviewWithoutRecording(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.ShowPreview("typed text")
	if h.svc.PreviewTarget() != "com.editor" {
		t.Errorf("target = %q", h.svc.PreviewTarget())
	}
	h.svc.ApplyPreview("typed text")
	if e := h.history(t); len(e) != 1 || e[0].RawText != "" {
		t.Errorf("history = %+v", e)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings, keys, models
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateSettings(t *testing.T) {
	h := newHarness(t, nil)
	var debug []bool
	h.svc.setDebug = func(v bool) { debug = append(debug, v) }

	next := h.svc.GetSettings()
	next.InputMode = "toggle"
	next.DebugLogging = true
	next.STTProvider = stt.ProviderElevenLabs
	next.Notifications = false
	if err := h.svc.UpdateSettings(next); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if h.svc.machine.Mode() != "toggle" || !slices.Equal(debug, []bool{true}) {
		t.Errorf("mode=%s debug=%v", h.svc.machine.Mode(), debug)
	}

	saved, err := config.LoadFrom(filepath.Join(h.dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.STTProvider != stt.ProviderElevenLabs || saved.InputMode != "toggle" {
		t.Errorf("saved = %+v", saved)
	}

	bad := h.svc.GetSettings()
	bad.STTProvider = "vosk"
	if err := h.svc.UpdateSettings(bad); err == nil {
		t.Fatal("invalid settings accepted")
	}
	if h.svc.GetSettings().STTProvider != stt.ProviderElevenLabs {
		t.Error("invalid settings applied")
	}
}

func TestUpdateSettingsDoesNotBlockEvents(t *testing.T) {
	h := newHarness(t, nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.svc.save = func(c *config.Config) error {
		close(entered)
		<-release
		return c.Save()
	}

	next := h.svc.GetSettings()
	next.InputMode = "toggle"
	errc := make(chan error, 1)
	go func() { errc <- h.svc.UpdateSettings(next) }()
	<-entered

	emitted := make(chan struct{})
	go func() {
		h.svc.emit(EventHotkeyState, types.HotkeyState{State: "idle"})
		close(emitted)
	}()
	select {
	case <-emitted:
	case <-time.After(time.Second):
		close(release)
		t.Fatal("emit blocked while settings were being written")
	}
	if h.svc.GetSettings().InputMode == "toggle" {
		t.Error("settings visible before they were written")
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if h.svc.GetSettings().InputMode != "toggle" {
		t.Error("settings not applied after write")
	}
}

func TestUpdateSettingsSaveFailureKeepsSettings(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.save = func(*config.Config) error { return errors.New("disk full") }

	next := h.svc.GetSettings()
	next.InputMode = "toggle"
	if err := h.svc.UpdateSettings(next); err == nil {
		t.Fatal("save failure not reported")
	}
	if h.svc.GetSettings().InputMode == "toggle" || h.svc.machine.Mode() == "toggle" {
		t.Error("unsaved settings applied")
	}
}

func TestSelfAppID(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.SelfAppID = "com.editor" })

	if err := h.svc.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if got := h.svc.focus.RecordingTarget(); got != "" {
		t.Errorf("recording target = %q, want configured self id skipped", got)
	}
	if _, err := h.svc.StopRecording(); err != nil {
		t.Fatal(err)
	}

	next := h.svc.GetSettings()
	next.SelfAppID = "dev.voxlore.other"
	if err := h.svc.UpdateSettings(next); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if got := h.svc.focus.RecordingTarget(); got != "com.editor" {
		t.Errorf("recording target after update = %q", got)
	}
}

func TestAPIKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.transcriber = stt.NewDispatcher(nil, h.keys)

	if err := h.svc.SaveAPIKey("openai", "sk-1"); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.SaveAPIKey("", "x"); err == nil {
		t.Error("empty provider accepted")
	}
	if !h.svc.HasAPIKey("openai") || h.svc.HasAPIKey("groq") {
		t.Error("HasAPIKey mismatch")
	}

	health := make(map[string]types.ProviderHealth)
	for _, p := range h.svc.CheckProviders() {
		health[p.Provider] = p
	}
	for provider, want := range map[string]bool{
		"local":             true,
		"openai":            true,
		"openai_transcribe": true,
		"elevenlabs":        false,
		"groq":              false,
		"ollama":            true,
	} {
		if health[provider].HasAPIKey != want {
			t.Errorf("%s: HasAPIKey = %v, want %v", provider, health[provider].HasAPIKey, want)
		}
	}
	if !health["ollama"].IsLocal || health["openai"].IsLocal {
		t.Error("IsLocal mismatch")
	}

	if err := h.svc.DeleteAPIKey("openai"); err != nil {
		t.Fatal(err)
	}
	if h.svc.HasAPIKey("openai") {
		t.Error("key not deleted")
	}
}

func TestListModels(t *testing.T) {
	h := newHarness(t, nil)
	dir, _ := h.svc.ModelDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stt.ModelPath(dir, "base"), []byte("ggml"), 0644); err != nil {
		t.Fatal(err)
	}

	models, err := h.svc.ListModels()
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != len(stt.Models) {
		t.Fatalf("models = %+v", models)
	}
	for _, m := range models {
		if m.Downloaded != (m.ID == "base") {
			t.Errorf("%s: downloaded = %v", m.ID, m.Downloaded)
		}
	}

	if err := h.svc.LoadModel("tiny"); err == nil {
		t.Error("loading a missing model succeeded")
	}
}

func TestCheckPermissions(t *testing.T) {
	h := newHarness(t, nil)
	got := h.svc.CheckPermissions()
	if !got.Accessibility || !got.PostEvent || got.Microphone != "granted" {
		t.Errorf("permissions = %+v", got)
	}
	if !h.svc.RequestAccessibilityPermission() {
		t.Error("RequestAccessibilityPermission = false")
	}
}

func TestHistoryCommands(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.HistoryLimit = 2 })
	for range 3 {
		h.dictate(t)
	}
	entries := h.history(t)
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want trimmed to 2", len(entries))
	}
	if err := h.svc.DeleteHistory(entries[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.ClearHistory(); err != nil {
		t.Fatal(err)
	}
	if len(h.history(t)) != 0 {
		t.Error("history not cleared")
	}
}
