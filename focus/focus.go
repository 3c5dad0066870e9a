// Package focus remembers which application had focus when dictation began
// and brings it back before text is delivered.
package focus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Platform is the subset of OS capabilities the Resolver needs.
type Platform interface {
	SelfID() string
	FrontmostApp() (string, bool)
	Activate(id string) error
}

// Timing holds the polling budgets of each capture point.
type Timing struct {
	RecordingTimeout  time.Duration
	RecordingInterval time.Duration
	PreviewTimeout    time.Duration
	PreviewInterval   time.Duration
	ApplyTimeout      time.Duration
	ApplyInterval     time.Duration

	// ActivationSettle is the wait after re-activating a target before pasting.
	ActivationSettle time.Duration
	// RetrySettle is the wait before the single paste retry.
	RetrySettle time.Duration
}

// DefaultTiming returns the production timing.
func DefaultTiming() Timing {
	return Timing{
		RecordingTimeout:  500 * time.Millisecond,
		RecordingInterval: 25 * time.Millisecond,
		PreviewTimeout:    800 * time.Millisecond,
		PreviewInterval:   40 * time.Millisecond,
		ApplyTimeout:      1200 * time.Millisecond,
		ApplyInterval:     50 * time.Millisecond,
		ActivationSettle:  250 * time.Millisecond,
		RetrySettle:       300 * time.Millisecond,
	}
}

// Resolver tracks the recording and preview targets. The recording target
// is captured when a hotkey press starts recording; the preview target when
// the preview window opens.
type Resolver struct {
	platform Platform
	timing   Timing

	mu        sync.Mutex
	selfID    string
	recording string
	preview   string
}

// NewResolver creates a Resolver.
func NewResolver(p Platform, t Timing) *Resolver {
	return &Resolver{platform: p, timing: t}
}

// Timing returns the resolver's timing.
func (r *Resolver) Timing() Timing { return r.timing }

// SetSelfID adds id as another identifier of this application, on top of
// the one the platform reports. An empty id removes it.
func (r *Resolver) SetSelfID(id string) {
	r.mu.Lock()
	r.selfID = id
	r.mu.Unlock()
}

func (r *Resolver) isSelf(id string) bool {
	r.mu.Lock()
	extra := r.selfID
	r.mu.Unlock()
	return id == r.platform.SelfID() || (extra != "" && id == extra)
}

// Frontmost returns the focused application if it is not this one.
func (r *Resolver) Frontmost() (string, bool) {
	id, ok := r.platform.FrontmostApp()
	if !ok || id == "" || r.isSelf(id) {
		return "", false
	}
	return id, true
}

// WaitForNonSelf polls every interval until a non-self application is
// frontmost or timeout elapses.
func (r *Resolver) WaitForNonSelf(ctx context.Context, timeout, interval time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if id, ok := r.Frontmost(); ok {
			return id, true
		}
		if !time.Now().Before(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(interval):
		}
	}
}

// CaptureRecordingTarget records the application focused when recording
// starts. The slot is cleared when none is found.
func (r *Resolver) CaptureRecordingTarget(ctx context.Context) (string, bool) {
	id, ok := r.WaitForNonSelf(ctx, r.timing.RecordingTimeout, r.timing.RecordingInterval)

	r.mu.Lock()
	r.recording = id
	r.mu.Unlock()

	if ok {
		slog.Debug("captured recording target", "app", id)
	} else {
		slog.Debug("no recording target found")
	}
	return id, ok
}

// CapturePreviewTarget records the target for a preview window. It prefers
// the recording target, then the current frontmost application, then polls.
func (r *Resolver) CapturePreviewTarget(ctx context.Context) (string, bool) {
	r.mu.Lock()
	id := r.recording
	r.mu.Unlock()

	ok := id != ""
	if !ok {
		id, ok = r.Frontmost()
	}
	if !ok {
		id, ok = r.WaitForNonSelf(ctx, r.timing.PreviewTimeout, r.timing.PreviewInterval)
	}

	r.mu.Lock()
	r.preview = id
	r.mu.Unlock()
	return id, ok
}

// ApplyTarget returns where text should be delivered: the preview target,
// else the recording target, else whatever non-self application gains focus
// within the apply budget.
func (r *Resolver) ApplyTarget(ctx context.Context) (string, bool) {
	r.mu.Lock()
	id := r.preview
	if id == "" {
		id = r.recording
	}
	r.mu.Unlock()

	if id != "" {
		return id, true
	}
	return r.WaitForNonSelf(ctx, r.timing.ApplyTimeout, r.timing.ApplyInterval)
}

// RecordingTarget returns the stored recording target.
func (r *Resolver) RecordingTarget() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// PreviewTarget returns the stored preview target.
func (r *Resolver) PreviewTarget() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preview
}

// Clear forgets both targets.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.recording = ""
	r.preview = ""
	r.mu.Unlock()
}

// Restore activates id and waits settle so the application can take focus.
// An empty id does nothing. Activation failures are logged, not returned.
func (r *Resolver) Restore(ctx context.Context, id string, settle time.Duration) {
	if id == "" {
		return
	}
	if err := r.platform.Activate(id); err != nil {
		slog.Warn("activate target app", "app", id, "error", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(settle):
	}
}
