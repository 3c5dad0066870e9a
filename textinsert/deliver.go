// Package textinsert delivers dictated text into the focused application by
// way of the clipboard and a synthesised paste keystroke.
package textinsert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.aimuz.me/voxlore/clipboard"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/platform"
)

// Injector posts a paste keystroke to the focused application.
type Injector interface {
	Name() string
	Paste(ctx context.Context) error
}

// Permissions is the subset of platform capabilities used for preflight.
type Permissions interface {
	CheckPermission(p platform.Permission) platform.Status
	RequestPermission(p platform.Permission) platform.Status
}

// Timing holds the delivery settle delays.
type Timing struct {
	ClipboardSettle  time.Duration
	PermissionSettle time.Duration
	PasteSettle      time.Duration
}

// DefaultTiming returns the production timing.
func DefaultTiming() Timing {
	return Timing{
		ClipboardSettle:  50 * time.Millisecond,
		PermissionSettle: 200 * time.Millisecond,
		PasteSettle:      200 * time.Millisecond,
	}
}

// Deliverer puts text on the clipboard and tries to paste it.
//
// Text is always left reachable: if the paste cannot be confirmed the text
// stays on the clipboard for a manual paste. The previous clipboard content
// is restored only when both permissions are granted and an injector
// reported success.
type Deliverer struct {
	Clipboard   clipboard.Clipboard
	Permissions Permissions
	Primary     Injector
	Fallback    Injector
	Timing      Timing

	mu   sync.Mutex
	left *leftText
}

// leftText remembers a clipboard-only outcome so the next attempt restores
// what the clipboard held before it, not the text left there.
type leftText struct {
	text    string
	saved   string
	readErr error
}

// NewDeliverer creates a Deliverer using the platform's paste injectors.
func NewDeliverer(cb clipboard.Clipboard, perms Permissions) *Deliverer {
	return &Deliverer{
		Clipboard:   cb,
		Permissions: perms,
		Primary:     NewKeyInjector(),
		Fallback:    NewScriptInjector(),
		Timing:      DefaultTiming(),
	}
}

// Deliver returns true when the text was auto-pasted and false when it was
// left on the clipboard. The only error is failing to write the clipboard.
func (d *Deliverer) Deliver(ctx context.Context, text string) (bool, error) {
	slog.Info("delivering text", "chars", len([]rune(text)))

	saved, readErr := d.previousClipboard()
	if readErr != nil {
		slog.Debug("read previous clipboard", "error", readErr)
	}

	if err := d.Clipboard.WriteText(text); err != nil {
		return false, apperr.Wrap(apperr.KindTextInsertion, err, "Failed to set clipboard")
	}
	sleep(ctx, d.Timing.ClipboardSettle)

	trusted, postAllowed := d.preflight(ctx)
	untrusted := !(trusted && postAllowed)
	if untrusted {
		slog.Warn("paste permissions not fully granted; attempting paste anyway",
			"accessibility", trusted, "post_event", postAllowed)
	}

	pasted := d.paste(ctx)

	sleep(ctx, d.Timing.PasteSettle)

	switch {
	case pasted && !untrusted:
		if readErr == nil {
			if err := d.Clipboard.WriteText(saved); err != nil {
				slog.Warn("restore clipboard", "error", err)
			}
		}
		slog.Info("text auto-pasted")
		return true, nil
	case pasted:
		slog.Info("paste posted without full permissions; text kept on clipboard")
	default:
		slog.Info("text left on clipboard for manual paste")
	}
	d.mu.Lock()
	d.left = &leftText{text: text, saved: saved, readErr: readErr}
	d.mu.Unlock()
	return false, nil
}

// previousClipboard reads the clipboard to restore after a paste. When it
// still holds text an earlier attempt left behind, the content from before
// that attempt is returned instead.
func (d *Deliverer) previousClipboard() (string, error) {
	d.mu.Lock()
	left := d.left
	d.left = nil
	d.mu.Unlock()

	saved, err := d.Clipboard.ReadText()
	if left != nil && err == nil && saved == left.text {
		return left.saved, left.readErr
	}
	return saved, err
}

// preflight checks both permissions, asking once for any that is missing.
func (d *Deliverer) preflight(ctx context.Context) (trusted, postAllowed bool) {
	if d.Permissions == nil {
		return true, true
	}
	trusted = d.Permissions.CheckPermission(platform.Accessibility) == platform.StatusGranted
	postAllowed = d.Permissions.CheckPermission(platform.PostEvent) == platform.StatusGranted

	if !trusted {
		// the prompt is asynchronous; the answer is not awaited
		d.Permissions.RequestPermission(platform.Accessibility)
	}
	if !postAllowed {
		d.Permissions.RequestPermission(platform.PostEvent)
		sleep(ctx, d.Timing.PermissionSettle)
		postAllowed = d.Permissions.CheckPermission(platform.PostEvent) == platform.StatusGranted
	}
	return trusted, postAllowed
}

func (d *Deliverer) paste(ctx context.Context) bool {
	for _, inj := range []Injector{d.Primary, d.Fallback} {
		if inj == nil {
			continue
		}
		if err := inj.Paste(ctx); err != nil {
			slog.Warn("paste injector failed", "injector", inj.Name(), "error", err)
			continue
		}
		slog.Debug("paste posted", "injector", inj.Name())
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
