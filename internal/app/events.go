// Package app provides the core application service for Wails bindings.
package app

import "go.aimuz.me/voxlore/recording"

// Event names for frontend communication.
const (
	EventRecordingStarted = recording.EventStarted
	EventAudioLevel       = recording.EventAudioLevel
	EventProcessing       = recording.EventProcessing
	EventDone             = recording.EventDone
	EventError            = recording.EventError

	EventRecordingResult = "recording-result"
	EventDelivery        = "delivery"
	EventPreview         = "preview"
	EventModelDownload   = "model-download"
	EventHotkeyState     = "hotkey-state"
)
