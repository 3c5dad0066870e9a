// Package platform exposes the OS capabilities the dictation flow needs:
// the frontmost application, re-activating it, and permission state.
package platform

import (
	"log/slog"

	"go.aimuz.me/voxlore/internal/apperr"
)

// SelfID identifies this application when the OS does not report one.
const SelfID = "app.voxlore"

// Permission is an OS privilege the application may need.
type Permission int

const (
	// Accessibility allows inspecting and driving other applications.
	Accessibility Permission = iota
	// PostEvent allows synthesising keyboard events.
	PostEvent
	// Microphone allows opening input devices.
	Microphone
)

func (p Permission) String() string {
	switch p {
	case Accessibility:
		return "accessibility"
	case PostEvent:
		return "post-event"
	case Microphone:
		return "microphone"
	default:
		return "unknown"
	}
}

// Status is the state of a Permission.
type Status int

const (
	StatusGranted Status = iota
	StatusDenied
	StatusNotDetermined
	StatusRestricted
)

func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusDenied:
		return "denied"
	case StatusNotDetermined:
		return "not_determined"
	case StatusRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Capabilities is implemented per OS.
type Capabilities interface {
	// SelfID returns the identifier FrontmostApp reports for this process.
	SelfID() string

	// FrontmostApp returns the identifier of the focused application.
	FrontmostApp() (string, bool)

	// Activate brings the application with the given identifier to the front.
	Activate(id string) error

	CheckPermission(p Permission) Status

	// RequestPermission prompts for p where the OS supports it and returns
	// the resulting status.
	RequestPermission(p Permission) Status
}

// MicrophoneDeniedMessage is shown when recording is blocked by permissions.
const MicrophoneDeniedMessage = "Microphone access denied. Please grant permission in System Settings > Privacy > Microphone."

// EnsureMicrophone checks microphone access, prompting once when the user
// has not decided yet.
func EnsureMicrophone(c Capabilities) error {
	status := c.CheckPermission(Microphone)
	switch status {
	case StatusGranted:
		return nil
	case StatusNotDetermined:
		slog.Info("requesting microphone permission")
		if c.RequestPermission(Microphone) == StatusGranted {
			return nil
		}
		return apperr.Audio(MicrophoneDeniedMessage)
	default:
		slog.Warn("microphone permission unavailable", "status", status.String())
		return apperr.Audio(MicrophoneDeniedMessage)
	}
}
