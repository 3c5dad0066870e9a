//go:build windows

package platform

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

// win32 identifies applications by top-level window handle.
type win32 struct{}

// New returns the Windows capabilities.
func New() Capabilities { return win32{} }

func (win32) SelfID() string { return SelfID }

func (win32) FrontmostApp() (string, bool) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return "", false
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return "", false
	}
	if int(pid) == os.Getpid() {
		return SelfID, true
	}
	return strconv.FormatUint(uint64(hwnd), 16), true
}

func (win32) Activate(id string) error {
	hwnd, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return fmt.Errorf("parse window handle %q: %w", id, err)
	}
	if ok, _, _ := procSetForegroundWindow.Call(uintptr(hwnd)); ok == 0 {
		return fmt.Errorf("SetForegroundWindow %s refused", id)
	}
	return nil
}

func (win32) CheckPermission(Permission) Status   { return StatusGranted }
func (win32) RequestPermission(Permission) Status { return StatusGranted }
