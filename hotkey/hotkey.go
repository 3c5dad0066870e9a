// Package hotkey turns global key events into recording start/stop actions.
package hotkey

import (
	"fmt"
	"sync"
)

// Mode selects how the hotkey drives a recording.
type Mode string

const (
	// ModePushToTalk records while the combo is held.
	ModePushToTalk Mode = "push-to-talk"
	// ModeToggle starts on one press and stops on the next.
	ModeToggle Mode = "toggle"
)

// ParseMode validates s. The empty string means push-to-talk.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePushToTalk:
		return ModePushToTalk, nil
	case ModeToggle:
		return ModeToggle, nil
	}
	return "", fmt.Errorf("unknown input mode %q", s)
}

// State is the dictation cycle position as seen by the hotkey.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Action is what the caller should do after a key event.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	}
	return "none"
}

// Machine tracks the hotkey state. It is safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	mode  Mode
	state State
}

// NewMachine returns an idle machine in the given mode.
func NewMachine(mode Mode) *Machine {
	if mode != ModeToggle {
		mode = ModePushToTalk
	}
	return &Machine{mode: mode}
}

// Mode returns the current input mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode switches the input mode. The current state is kept.
func (m *Machine) SetMode(mode Mode) {
	if mode != ModeToggle {
		mode = ModePushToTalk
	}
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// KeyDown handles a press of the combo.
func (m *Machine) KeyDown() (Action, State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.state == StateIdle:
		m.state = StateRecording
		return ActionStart, m.state
	case m.state == StateRecording && m.mode == ModeToggle:
		m.state = StateProcessing
		return ActionStop, m.state
	}
	return ActionNone, m.state
}

// KeyUp handles a release of the combo. Toggle mode ignores releases.
func (m *Machine) KeyUp() (Action, State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == ModePushToTalk && m.state == StateRecording {
		m.state = StateProcessing
		return ActionStop, m.state
	}
	return ActionNone, m.state
}

// Begin moves Idle to Recording regardless of mode, for callers other than
// the hotkey. It reports whether the transition happened.
func (m *Machine) Begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return false
	}
	m.state = StateRecording
	return true
}

// End moves Recording to Processing regardless of mode.
func (m *Machine) End() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRecording {
		return false
	}
	m.state = StateProcessing
	return true
}

// Done returns the machine to idle once processing finished or failed.
func (m *Machine) Done() {
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
}
