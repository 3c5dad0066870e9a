package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.aimuz.me/voxlore/audiocapture"
	"go.aimuz.me/voxlore/clipboard"
	"go.aimuz.me/voxlore/config"
	"go.aimuz.me/voxlore/enhance"
	"go.aimuz.me/voxlore/focus"
	"go.aimuz.me/voxlore/history"
	"go.aimuz.me/voxlore/hotkey"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/notify"
	"go.aimuz.me/voxlore/platform"
	"go.aimuz.me/voxlore/recording"
	"go.aimuz.me/voxlore/secret"
	"go.aimuz.me/voxlore/stt"
	"go.aimuz.me/voxlore/textinsert"
)

// Recorder captures one microphone session at a time.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (recording.Capture, error)
	IsRecording() bool
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error)
	HasKey(provider string) bool
}

// Enhancer rewrites a transcript.
type Enhancer interface {
	Enhance(ctx context.Context, text string, cfg enhance.Config) (string, error)
}

// KeyManager stores provider API keys.
type KeyManager interface {
	Get(provider string) (string, bool, error)
	Set(provider, key string) error
	Delete(provider string) error
}

// Options holds the collaborators of a Service. Nil fields get the
// production implementation in Init.
type Options struct {
	Config      *config.Config
	Platform    platform.Capabilities
	Recorder    Recorder
	Transcriber Transcriber
	Local       *stt.LocalEngine
	Enhancer    Enhancer
	Keys        KeyManager
	Deliverer   textinsert.TextDeliverer
	History     *history.Store
	Notifier    *notify.Sink
	HTTP        *http.Client

	FocusTiming focus.Timing

	// SetDebugLogging is called when the debug_logging setting changes.
	SetDebugLogging func(bool)
}

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; business logic lives in sub-components.
type Service struct {
	version string

	mu       sync.RWMutex
	cfg      *config.Config
	emitFn   func(name string, data any)
	showFn   func(show bool)
	listener *hotkey.Listener
	preview  previewState
	cycle    *cycle

	// saveMu serialises settings writes; save runs without mu held.
	saveMu sync.Mutex
	save   func(*config.Config) error

	caps        platform.Capabilities
	recorder    Recorder
	finisher    *recording.Finisher
	focus       *focus.Resolver
	machine     *hotkey.Machine
	transcriber Transcriber
	local       *stt.LocalEngine
	enhancer    Enhancer
	keys        KeyManager
	deliverer   textinsert.TextDeliverer
	history     *history.Store
	notifier    *notify.Sink
	http        *http.Client
	setDebug    func(bool)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Service. Call Init() before use.
func New(version string) *Service {
	return &Service{version: version}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init wires the collaborators and loads the local model when one is
// configured. It does not start the hotkey listener; see StartHotkey.
func (s *Service) Init(opts Options) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			slog.Error("load config", "error", err)
			cfg = config.Default()
		}
	}
	s.cfg = cfg

	s.caps = opts.Platform
	if s.caps == nil {
		s.caps = platform.New()
	}

	s.keys = opts.Keys
	if s.keys == nil {
		s.keys = secret.New()
	}

	s.local = opts.Local
	if s.local == nil {
		s.local = stt.NewLocalEngine()
	}

	s.http = opts.HTTP
	if s.http == nil {
		s.http = http.DefaultClient
	}

	s.transcriber = opts.Transcriber
	if s.transcriber == nil {
		d := stt.NewDispatcher(s.local, s.keys)
		d.HTTP = s.http
		s.transcriber = d
	}

	s.enhancer = opts.Enhancer
	if s.enhancer == nil {
		e := enhance.New(s.keys)
		e.HTTP = s.http
		s.enhancer = e
	}

	s.recorder = opts.Recorder
	if s.recorder == nil {
		caps := s.caps
		s.recorder = recording.New(recording.Config{
			Backend:    audiocapture.MalgoBackend{},
			Emit:       s.emit,
			Microphone: func() error { return platform.EnsureMicrophone(caps) },
		})
	}

	s.deliverer = opts.Deliverer
	if s.deliverer == nil {
		s.deliverer = textinsert.NewDeliverer(clipboard.System{}, s.caps)
	}

	s.history = opts.History
	if s.history == nil {
		s.setupHistory()
	}

	s.notifier = opts.Notifier
	if s.notifier == nil {
		s.notifier = notify.New(cfg.Notifications)
	}

	timing := opts.FocusTiming
	if timing == (focus.Timing{}) {
		timing = focus.DefaultTiming()
	}
	s.focus = focus.NewResolver(s.caps, timing)
	s.focus.SetSelfID(cfg.SelfAppID)
	s.save = (*config.Config).Save
	s.finisher = recording.NewFinisher(s.emit)

	mode, _ := hotkey.ParseMode(cfg.InputMode)
	s.machine = hotkey.NewMachine(mode)
	s.setDebug = opts.SetDebugLogging

	s.autoLoadModel()
}

// SetEmitter sets where events are published.
func (s *Service) SetEmitter(emit func(name string, data any)) {
	s.mu.Lock()
	s.emitFn = emit
	s.mu.Unlock()
}

// SetPreviewWindow sets the callback that shows or hides the preview window.
func (s *Service) SetPreviewWindow(show func(bool)) {
	s.mu.Lock()
	s.showFn = show
	s.mu.Unlock()
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	s.StopHotkey()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Error("close history", "error", err)
		}
	}
}

func (s *Service) setupHistory() {
	dir, err := history.DefaultDir()
	if err != nil {
		slog.Error("get history dir", "error", err)
		return
	}
	h, err := history.Open(dir)
	if err != nil {
		slog.Error("open history", "error", err)
		return
	}
	s.history = h
	slog.Info("history opened", "path", dir)
}

// emit publishes an event and mirrors errors to desktop notifications.
func (s *Service) emit(name string, data any) {
	s.mu.RLock()
	fn := s.emitFn
	s.mu.RUnlock()

	if fn != nil {
		fn(name, data)
	}
	if name == EventError {
		if m, ok := data.(types.StatusMessage); ok {
			s.notifier.Error(m.Message)
		}
	}
}

func (s *Service) showPreviewWindow(show bool) {
	s.mu.RLock()
	fn := s.showFn
	s.mu.RUnlock()
	if fn != nil {
		fn(show)
	}
}

// settings returns a copy of the current configuration.
func (s *Service) settings() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// ─────────────────────────────────────────────────────────────────────────────
// Hotkey
// ─────────────────────────────────────────────────────────────────────────────

// StartHotkey registers the configured global shortcut.
func (s *Service) StartHotkey() error {
	combo, err := hotkey.ParseCombo(s.settings().Hotkey)
	if err != nil {
		return err
	}
	l, err := hotkey.NewListener(combo, s.HotkeyDown, s.HotkeyUp)
	if err != nil {
		return err
	}

	s.StopHotkey()
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	l.Start()

	if s.caps.CheckPermission(platform.Accessibility) != platform.StatusGranted {
		slog.Warn("accessibility permission missing; global hotkey may not fire")
	}
	return nil
}

// StopHotkey unregisters the global shortcut.
func (s *Service) StopHotkey() {
	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.mu.Unlock()
	if l != nil {
		l.Stop()
	}
}

// HotkeyDown handles a press of the dictation shortcut.
func (s *Service) HotkeyDown() {
	action, state := s.machine.KeyDown()
	s.dispatch(action, state)
}

// HotkeyUp handles a release of the dictation shortcut.
func (s *Service) HotkeyUp() {
	action, state := s.machine.KeyUp()
	s.dispatch(action, state)
}

// HotkeyState returns the dictation cycle state: idle, recording or
// processing.
func (s *Service) HotkeyState() string {
	return s.machine.State().String()
}

func (s *Service) dispatch(action hotkey.Action, state hotkey.State) {
	if action == hotkey.ActionNone {
		return
	}
	slog.Debug("hotkey", "action", action.String(), "state", state.String())
	s.emit(EventHotkeyState, types.HotkeyState{State: state.String()})

	// The cycle is picked here, in hotkey order, not in the goroutine.
	var c *cycle
	if action == hotkey.ActionStart {
		c = s.newCycle()
	} else {
		c = s.currentCycle()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		switch action {
		case hotkey.ActionStart:
			_ = s.begin(c)
		case hotkey.ActionStop:
			_, _ = s.finish(c)
		}
	}()
}

// ─────────────────────────────────────────────────────────────────────────────
// Permissions
// ─────────────────────────────────────────────────────────────────────────────

// CheckPermissions returns the permission state shown in settings.
func (s *Service) CheckPermissions() types.PermissionStatus {
	return types.PermissionStatus{
		Accessibility: s.caps.CheckPermission(platform.Accessibility) == platform.StatusGranted,
		PostEvent:     s.caps.CheckPermission(platform.PostEvent) == platform.StatusGranted,
		Microphone:    s.caps.CheckPermission(platform.Microphone).String(),
	}
}

// RequestMicrophonePermission prompts for microphone access.
func (s *Service) RequestMicrophonePermission() string {
	return s.caps.RequestPermission(platform.Microphone).String()
}

// RequestAccessibilityPermission prompts for accessibility and event
// posting access.
func (s *Service) RequestAccessibilityPermission() bool {
	ax := s.caps.RequestPermission(platform.Accessibility) == platform.StatusGranted
	post := s.caps.RequestPermission(platform.PostEvent) == platform.StatusGranted
	return ax && post
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// GetSettings returns the current settings.
func (s *Service) GetSettings() config.Config {
	return *s.settings()
}

// UpdateSettings validates, saves and applies new settings. The file is
// written before the new settings become visible.
func (s *Service) UpdateSettings(next config.Config) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	prev := s.settings()
	cur := prev.Clone()
	if err := cur.Replace(next); err != nil {
		return err
	}
	if err := s.save(cur); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	*s.cfg = *cur
	listening := s.listener != nil
	s.mu.Unlock()

	mode, _ := hotkey.ParseMode(cur.InputMode)
	s.machine.SetMode(mode)
	s.notifier.SetEnabled(cur.Notifications)
	s.focus.SetSelfID(cur.SelfAppID)
	if s.setDebug != nil && cur.DebugLogging != prev.DebugLogging {
		s.setDebug(cur.DebugLogging)
	}
	if listening && cur.Hotkey != prev.Hotkey {
		if err := s.StartHotkey(); err != nil {
			slog.Error("restart hotkey", "hotkey", cur.Hotkey, "error", err)
			return err
		}
	}
	slog.Info("settings updated", "stt_provider", cur.STTProvider, "input_mode", cur.InputMode)
	return nil
}

// RecordingsDir returns where recordings are written.
func (s *Service) RecordingsDir() (string, error) {
	return recording.ResolveOutputDir(s.settings().OutputDir)
}
