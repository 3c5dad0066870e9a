//go:build linux

package platform

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// linux identifies applications by X11 window id through xdotool.
type linux struct{}

// New returns the Linux capabilities.
func New() Capabilities { return linux{} }

func (linux) SelfID() string { return SelfID }

func (linux) FrontmostApp() (string, bool) {
	out, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		return "", false
	}
	wid := strings.TrimSpace(string(out))
	if wid == "" {
		return "", false
	}

	if pidOut, err := exec.Command("xdotool", "getwindowpid", wid).Output(); err == nil {
		if pid, err := strconv.Atoi(string(bytes.TrimSpace(pidOut))); err == nil && pid == os.Getpid() {
			return SelfID, true
		}
	}
	return wid, true
}

func (linux) Activate(id string) error {
	if id == "" || id == SelfID {
		return fmt.Errorf("cannot activate %q", id)
	}
	if out, err := exec.Command("xdotool", "windowactivate", "--sync", id).CombinedOutput(); err != nil {
		return fmt.Errorf("xdotool windowactivate: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Desktop Linux has no permission prompts for these capabilities.
func (linux) CheckPermission(Permission) Status   { return StatusGranted }
func (linux) RequestPermission(Permission) Status { return StatusGranted }
