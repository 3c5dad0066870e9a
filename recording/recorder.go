// Package recording runs the microphone recording session state machine and
// turns a finished capture into saved files and a transcript.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go.aimuz.me/voxlore/audiocapture"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
	"go.aimuz.me/voxlore/pcm"
)

// Status event names.
const (
	EventStarted    = "recording-started"
	EventAudioLevel = "audio-level"
	EventProcessing = "processing"
	EventDone       = "done"
	EventError      = "error"
)

var (
	// ErrAlreadyRecording is returned by Start while a session exists.
	ErrAlreadyRecording = apperr.Audio("Already recording")

	// ErrNotRecording is returned by Stop when no session appeared in time.
	ErrNotRecording = apperr.Audio("No recording in progress")

	// ErrTaskNotReady is returned by Stop when the session never published
	// its capture task.
	ErrTaskNotReady = apperr.Audio("Recording task not ready")
)

// State is the recorder's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Emitter publishes a status event to the UI.
type Emitter func(name string, data any)

// Timing holds the recorder's waits and polling intervals.
type Timing struct {
	ReadyTimeout  time.Duration
	RecvPoll      time.Duration
	LevelInterval time.Duration
	StopTimeout   time.Duration
	StopPoll      time.Duration
	DrainTimeout  time.Duration
}

// DefaultTiming returns the production timing.
func DefaultTiming() Timing {
	return Timing{
		ReadyTimeout:  3 * time.Second,
		RecvPoll:      50 * time.Millisecond,
		LevelInterval: 33 * time.Millisecond,
		StopTimeout:   5 * time.Second,
		StopPoll:      50 * time.Millisecond,
		DrainTimeout:  5 * time.Second,
	}
}

// Config configures a Recorder.
type Config struct {
	Backend audiocapture.Backend
	Emit    Emitter

	// Microphone, when set, gates Start on microphone permission.
	Microphone func() error

	Timing Timing
}

// Capture is the audio collected by one session.
type Capture struct {
	SessionID string
	StartedAt time.Time
	Samples   []int16
}

// Duration returns the capture length in seconds at 16 kHz.
func (c Capture) Duration() float64 {
	return pcm.Duration(len(c.Samples), audiocapture.TargetSampleRate)
}

// Recorder coordinates one recording session at a time. Start and Stop may
// be called from different goroutines; Stop tolerates being called before
// Start has finished publishing the session.
type Recorder struct {
	cfg Config

	mu    sync.Mutex
	state State
	stop  *session // stop-flag slot, taken by Stop
	task  *session // task slot, published once capture is ready
}

type session struct {
	id      string
	started time.Time

	stop      atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	abandoned bool // guarded by Recorder.mu

	samples []int16
}

func newSession() *session {
	return &session{
		id:      uuid.NewString(),
		started: time.Now(),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// New creates a Recorder. Zero Timing fields take their defaults.
func New(cfg Config) *Recorder {
	def := DefaultTiming()
	t := &cfg.Timing
	if t.ReadyTimeout == 0 {
		t.ReadyTimeout = def.ReadyTimeout
	}
	if t.RecvPoll == 0 {
		t.RecvPoll = def.RecvPoll
	}
	if t.LevelInterval == 0 {
		t.LevelInterval = def.LevelInterval
	}
	if t.StopTimeout == 0 {
		t.StopTimeout = def.StopTimeout
	}
	if t.StopPoll == 0 {
		t.StopPoll = def.StopPoll
	}
	if t.DrainTimeout == 0 {
		t.DrainTimeout = def.DrainTimeout
	}
	if cfg.Emit == nil {
		cfg.Emit = func(string, any) {}
	}
	return &Recorder{cfg: cfg}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRecording reports whether a session is starting or running.
func (r *Recorder) IsRecording() bool {
	s := r.State()
	return s == StateStarting || s == StateRecording
}

// Start begins a new session. It returns once capture signalled readiness
// or the ready wait expired.
func (r *Recorder) Start(ctx context.Context) error {
	if r.cfg.Microphone != nil {
		if err := r.cfg.Microphone(); err != nil {
			r.cfg.Emit(EventError, types.StatusMessage{Message: apperr.Message(err)})
			return err
		}
	}

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	s := newSession()
	r.state = StateStarting
	r.stop = s
	r.mu.Unlock()

	go r.run(s)

	timer := time.NewTimer(r.cfg.Timing.ReadyTimeout)
	select {
	case <-s.ready:
	case <-timer.C:
		slog.Warn("recording not ready in time", "session", s.id, "timeout", r.cfg.Timing.ReadyTimeout)
	case <-ctx.Done():
	}
	timer.Stop()

	r.mu.Lock()
	if !s.abandoned {
		r.task = s
		if r.state == StateStarting {
			r.state = StateRecording
		}
	}
	r.mu.Unlock()

	r.cfg.Emit(EventStarted, nil)
	slog.Info("recording started", "session", s.id)
	return nil
}

// Stop ends the current session and returns the captured audio.
func (r *Recorder) Stop(ctx context.Context) (Capture, error) {
	t := r.cfg.Timing
	deadline := time.Now().Add(t.StopTimeout)

	var s *session
	for {
		r.mu.Lock()
		if r.stop != nil {
			s = r.stop
			r.stop = nil
			r.state = StateStopping
		}
		r.mu.Unlock()

		if s != nil {
			s.stop.Store(true)
			break
		}
		if time.Now().After(deadline) {
			return Capture{}, ErrNotRecording
		}
		if err := sleep(ctx, t.StopPoll); err != nil {
			return Capture{}, err
		}
	}

	for {
		r.mu.Lock()
		took := r.task == s
		if took {
			r.task = nil
		}
		r.mu.Unlock()

		if took {
			break
		}
		if time.Now().After(deadline) {
			r.mu.Lock()
			s.abandoned = true
			r.state = StateIdle
			r.mu.Unlock()
			return Capture{}, ErrTaskNotReady
		}
		if err := sleep(ctx, t.StopPoll); err != nil {
			r.reset(s)
			return Capture{}, err
		}
	}

	timer := time.NewTimer(t.DrainTimeout)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		r.reset(s)
		return Capture{}, apperr.Audio("Recording task did not finish")
	case <-ctx.Done():
		r.reset(s)
		return Capture{}, ctx.Err()
	}

	r.mu.Lock()
	r.state = StateIdle
	r.mu.Unlock()

	c := Capture{SessionID: s.id, StartedAt: s.started, Samples: s.samples}
	slog.Info("recording stopped", "session", s.id, "samples", len(c.Samples), "seconds", c.Duration())
	return c, nil
}

// reset returns to Idle after an abandoned stop.
func (r *Recorder) reset(s *session) {
	r.mu.Lock()
	s.abandoned = true
	if r.task == s {
		r.task = nil
	}
	r.state = StateIdle
	r.mu.Unlock()
}

// run is the capture goroutine of session s.
func (r *Recorder) run(s *session) {
	defer close(s.done)

	ctl := audiocapture.NewController(r.cfg.Backend)
	if err := ctl.Start(); err != nil {
		s.markReady()
		msg := "Audio capture failed: " + apperr.Message(err)
		slog.Error("start audio capture", "session", s.id, "error", err)
		r.cfg.Emit(EventError, types.StatusMessage{Message: msg})
		return
	}
	s.markReady()

	t := r.cfg.Timing
	lastLevel := time.Now()
	for !s.stop.Load() {
		chunk, err := ctl.Recv(t.RecvPoll)
		if errors.Is(err, audiocapture.ErrRecvTimeout) {
			continue
		}
		if err != nil {
			break
		}
		if time.Since(lastLevel) >= t.LevelInterval {
			r.cfg.Emit(EventAudioLevel, types.AudioLevel{Level: pcm.RMS(chunk)})
			lastLevel = time.Now()
		}
		s.samples = append(s.samples, chunk...)
	}

	ctl.Stop()
	for {
		chunk, ok := ctl.TryRecv()
		if !ok {
			break
		}
		s.samples = append(s.samples, chunk...)
	}
	slog.Debug("capture loop finished", "session", s.id, "samples", len(s.samples))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
