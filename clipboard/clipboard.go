// Package clipboard reads and writes the system clipboard as text.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard is a text clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// clipboardLock serialises access from the hotkey, preview and delivery paths.
var clipboardLock sync.Mutex

// System is the OS clipboard.
type System struct{}

// ReadText returns the current clipboard text.
func (System) ReadText() (string, error) {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()

	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// WriteText replaces the clipboard contents with text.
func (System) WriteText(text string) error {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Available reports whether a clipboard backend exists on this system.
func Available() bool {
	return !clipboard.Unsupported
}

// Memory is an in-process Clipboard for headless use.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
