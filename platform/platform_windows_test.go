//go:build windows

package platform

import (
	"strconv"
	"testing"
)

func TestWin32Activate(t *testing.T) {
	if err := New().Activate("not-a-handle"); err == nil {
		t.Error("Activate accepted a malformed handle")
	}
}

func TestWin32FrontmostApp(t *testing.T) {
	id, ok := New().FrontmostApp()
	if !ok || id == SelfID {
		t.Skip("no foreground window")
	}
	if _, err := strconv.ParseUint(id, 16, 64); err != nil {
		t.Errorf("FrontmostApp = %q, want a hex window handle", id)
	}
}
