package hotkey

import (
	"fmt"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// variants lists the hook key names that count as one combo key.
var variants = map[string][]string{
	"alt":   {"alt", "lalt", "ralt"},
	"ctrl":  {"ctrl", "lctrl", "rctrl"},
	"shift": {"shift", "lshift", "rshift"},
	"cmd":   {"cmd", "lcmd", "rcmd"},
}

// Listener watches global key events for one combo and reports press and
// release edges. Auto-repeat while the combo is held is swallowed.
type Listener struct {
	combo   Combo
	onDown  func()
	onUp    func()
	tracker *tracker

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewListener resolves combo to key codes. onDown and onUp run on the
// listener goroutine and must not block.
func NewListener(combo Combo, onDown, onUp func()) (*Listener, error) {
	groups := make([][]uint16, 0, len(combo.Names()))
	for _, name := range combo.Names() {
		names, ok := variants[name]
		if !ok {
			names = []string{name}
		}
		var codes []uint16
		for _, n := range names {
			if code, ok := hook.Keycode[n]; ok {
				codes = append(codes, code)
			}
		}
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %s: no key code for %q", combo, name)
		}
		groups = append(groups, codes)
	}
	return &Listener{
		combo:   combo,
		onDown:  onDown,
		onUp:    onUp,
		tracker: newTracker(groups),
	}, nil
}

// Combo returns the watched shortcut.
func (l *Listener) Combo() Combo { return l.combo }

// Start begins listening. It is a no-op if already running.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.done = make(chan struct{})

	events := hook.Start()
	go l.loop(events, l.done)
	slog.Info("hotkey listener started", "combo", l.combo.String())
}

// Stop ends listening and waits for the event loop to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	done := l.done
	l.mu.Unlock()

	hook.End()
	<-done
	slog.Info("hotkey listener stopped", "combo", l.combo.String())
}

func (l *Listener) loop(events chan hook.Event, done chan struct{}) {
	defer close(done)
	for ev := range events {
		switch ev.Kind {
		case hook.KeyDown, hook.KeyHold:
			if l.tracker.press(ev.Keycode) && l.onDown != nil {
				l.onDown()
			}
		case hook.KeyUp:
			if l.tracker.release(ev.Keycode) && l.onUp != nil {
				l.onUp()
			}
		}
	}
}

// tracker holds the set of pressed keys and reports combo edges.
type tracker struct {
	groups [][]uint16
	held   map[uint16]bool
	active bool
}

func newTracker(groups [][]uint16) *tracker {
	return &tracker{groups: groups, held: make(map[uint16]bool)}
}

// press records code and reports whether the combo just became fully held.
func (t *tracker) press(code uint16) bool {
	t.held[code] = true
	if t.active || !t.complete() {
		return false
	}
	t.active = true
	return true
}

// release records code and reports whether the combo was just broken.
func (t *tracker) release(code uint16) bool {
	delete(t.held, code)
	if !t.active || t.complete() {
		return false
	}
	t.active = false
	return true
}

func (t *tracker) complete() bool {
	for _, group := range t.groups {
		found := false
		for _, c := range group {
			if t.held[c] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
