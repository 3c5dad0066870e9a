//go:build !darwin && !linux && !windows

package textinsert

import (
	"context"
	"errors"
)

// KeyInjector is unavailable on this OS.
type KeyInjector struct{}

func NewKeyInjector() *KeyInjector { return &KeyInjector{} }

func (*KeyInjector) Name() string                { return "keybd_event" }
func (*KeyInjector) Paste(context.Context) error { return errors.ErrUnsupported }
