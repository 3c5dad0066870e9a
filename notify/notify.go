// Package notify shows desktop notifications for dictation outcomes.
package notify

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gen2brain/beeep"
)

// DefaultTitle is the notification title.
const DefaultTitle = "Voxlore"

// Sink posts notifications while enabled. The zero value is disabled.
type Sink struct {
	title   string
	enabled atomic.Bool
	post    func(title, message string) error
}

// New returns a Sink using the desktop notification service.
func New(enabled bool) *Sink {
	s := &Sink{title: DefaultTitle, post: desktop}
	s.enabled.Store(enabled)
	return s
}

func desktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// SetEnabled turns notifications on or off.
func (s *Sink) SetEnabled(v bool) { s.enabled.Store(v) }

// Enabled reports whether notifications are shown.
func (s *Sink) Enabled() bool { return s.enabled.Load() }

// Info reports a successful outcome.
func (s *Sink) Info(message string) { s.show(message) }

// Error reports a failure.
func (s *Sink) Error(message string) { s.show(message) }

func (s *Sink) show(message string) {
	message = strings.TrimSpace(message)
	if s == nil || message == "" || !s.enabled.Load() || s.post == nil {
		return
	}
	if err := s.post(s.title, message); err != nil {
		slog.Debug("notification failed", "error", err)
	}
}
