package textinsert

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ScriptInjector pastes by running an OS automation command.
type ScriptInjector struct {
	name string
	argv []string
}

// NewScriptInjector returns the scripted paste for the running OS.
func NewScriptInjector() *ScriptInjector {
	switch runtime.GOOS {
	case "darwin":
		return &ScriptInjector{name: "osascript", argv: []string{
			"osascript", "-e", `tell application "System Events" to keystroke "v" using command down`,
		}}
	case "windows":
		return &ScriptInjector{name: "powershell", argv: []string{
			"powershell", "-NoProfile", "-NonInteractive", "-Command",
			`(New-Object -ComObject WScript.Shell).SendKeys('^v')`,
		}}
	default:
		return &ScriptInjector{name: "xdotool", argv: []string{
			"xdotool", "key", "--clearmodifiers", "ctrl+v",
		}}
	}
}

func (s *ScriptInjector) Name() string { return s.name }

func (s *ScriptInjector) Paste(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
