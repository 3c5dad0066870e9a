//go:build darwin || linux || windows

package textinsert

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/micmonay/keybd_event"
)

// KeyInjector posts the paste shortcut as low-level key events.
type KeyInjector struct {
	dev *keyDevice[*keybd_event.KeyBonding]
	mu  sync.Mutex
}

// NewKeyInjector returns a KeyInjector and starts opening the key device.
// On Linux the uinput keyboard needs keyDeviceSettle after creation before
// its events reach applications; a Paste issued earlier waits for it.
func NewKeyInjector() *KeyInjector {
	return &KeyInjector{dev: openKeyDevice(func() (*keybd_event.KeyBonding, error) {
		kb, err := keybd_event.NewKeyBonding()
		return &kb, err
	}, keyDeviceSettle)}
}

func (k *KeyInjector) Name() string { return "keybd_event" }

func (k *KeyInjector) Paste(ctx context.Context) error {
	kb, err := k.dev.get(ctx)
	if err != nil {
		return fmt.Errorf("open key device: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("post paste keys: %w", err)
	}
	return nil
}
