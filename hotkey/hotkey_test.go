package hotkey

import (
	"slices"
	"testing"
)

type step struct {
	event  string // "down", "up" or "done"
	action Action
	state  State
}

func run(t *testing.T, m *Machine, steps []step) {
	t.Helper()
	for i, s := range steps {
		var (
			action Action
			state  State
		)
		switch s.event {
		case "down":
			action, state = m.KeyDown()
		case "up":
			action, state = m.KeyUp()
		case "done":
			m.Done()
			action, state = ActionNone, m.State()
		}
		if action != s.action || state != s.state {
			t.Fatalf("step %d (%s): got %s/%s, want %s/%s", i, s.event, action, state, s.action, s.state)
		}
	}
}

func TestPushToTalk(t *testing.T) {
	m := NewMachine(ModePushToTalk)
	run(t, m, []step{
		{"down", ActionStart, StateRecording},
		{"down", ActionNone, StateRecording},
		{"up", ActionStop, StateProcessing},
		{"down", ActionNone, StateProcessing},
		{"up", ActionNone, StateProcessing},
		{"done", ActionNone, StateIdle},
		{"up", ActionNone, StateIdle},
		{"down", ActionStart, StateRecording},
	})
}

func TestToggle(t *testing.T) {
	m := NewMachine(ModeToggle)
	run(t, m, []step{
		{"down", ActionStart, StateRecording},
		{"up", ActionNone, StateRecording},
		{"down", ActionStop, StateProcessing},
		{"down", ActionNone, StateProcessing},
		{"up", ActionNone, StateProcessing},
		{"done", ActionNone, StateIdle},
		{"down", ActionStart, StateRecording},
	})
}

func TestSetModeKeepsState(t *testing.T) {
	m := NewMachine("")
	if m.Mode() != ModePushToTalk {
		t.Fatalf("default mode = %s", m.Mode())
	}
	m.KeyDown()
	m.SetMode(ModeToggle)
	if m.State() != StateRecording {
		t.Fatalf("state = %s", m.State())
	}
	if a, _ := m.KeyUp(); a != ActionNone {
		t.Errorf("toggle key up = %s", a)
	}
	if a, _ := m.KeyDown(); a != ActionStop {
		t.Errorf("toggle second press = %s", a)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModePushToTalk, false},
		{"push-to-talk", ModePushToTalk, false},
		{"toggle", ModeToggle, false},
		{"hold", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alt+space", "alt+space", false},
		{" Option + Space ", "alt+space", false},
		{"ctrl+shift+d", "ctrl+shift+d", false},
		{"cmd+alt+alt+F5", "cmd+alt+f5", false},
		{"f9", "f9", false},
		{"super+return", "cmd+enter", false},
		{"", "", true},
		{"alt+", "", true},
		{"space+alt", "", true},
		{"alt+f13", "", true},
		{"ctrl+shift", "", true},
		{"hyper+k", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCombo(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCombo(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCombo(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseCombo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComboNames(t *testing.T) {
	c, err := ParseCombo(DefaultCombo)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Names(); !slices.Equal(got, []string{"alt", "space"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestTracker(t *testing.T) {
	const (
		lalt  = 1
		ralt  = 2
		space = 3
		other = 4
	)
	tr := newTracker([][]uint16{{lalt, ralt}, {space}})

	if tr.press(space) {
		t.Fatal("space alone fired")
	}
	if !tr.press(ralt) {
		t.Fatal("ralt+space did not fire")
	}
	if tr.press(space) {
		t.Error("auto-repeat fired again")
	}
	if tr.press(other) || tr.release(other) {
		t.Error("unrelated key changed the edge")
	}
	if !tr.release(space) {
		t.Fatal("release did not fire")
	}
	if tr.release(ralt) {
		t.Error("second release fired")
	}

	tr.press(lalt)
	if !tr.press(space) {
		t.Fatal("lalt+space did not fire")
	}
	if !tr.release(lalt) {
		t.Error("releasing the modifier first did not fire")
	}
}

func TestBeginEnd(t *testing.T) {
	m := NewMachine(ModePushToTalk)
	if m.End() {
		t.Fatal("End from idle succeeded")
	}
	if !m.Begin() || m.Begin() {
		t.Fatal("Begin should succeed exactly once")
	}
	if a, _ := m.KeyDown(); a != ActionNone {
		t.Errorf("KeyDown while recording = %s", a)
	}
	if !m.End() || m.State() != StateProcessing {
		t.Fatalf("End: state = %s", m.State())
	}
	if m.Begin() {
		t.Error("Begin while processing succeeded")
	}
	m.Done()
	if m.State() != StateIdle {
		t.Errorf("state = %s", m.State())
	}
}
