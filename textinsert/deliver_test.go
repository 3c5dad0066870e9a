package textinsert

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.aimuz.me/voxlore/clipboard"
	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/platform"
)

type fakePerms struct {
	ax, post           platform.Status
	postAfterRequest   platform.Status
	axAsked, postAsked int
}

func (p *fakePerms) CheckPermission(perm platform.Permission) platform.Status {
	if perm == platform.Accessibility {
		return p.ax
	}
	return p.post
}

func (p *fakePerms) RequestPermission(perm platform.Permission) platform.Status {
	if perm == platform.Accessibility {
		p.axAsked++
		return p.ax
	}
	p.postAsked++
	p.post = p.postAfterRequest
	return p.post
}

type fakeInjector struct {
	err   error
	calls int
	// seen records the clipboard contents at paste time
	cb   clipboard.Clipboard
	seen []string
}

func (f *fakeInjector) Name() string { return "fake" }

func (f *fakeInjector) Paste(context.Context) error {
	f.calls++
	if f.cb != nil {
		text, _ := f.cb.ReadText()
		f.seen = append(f.seen, text)
	}
	return f.err
}

// flakyInjector fails until it has been called more than failures times.
type flakyInjector struct {
	failures int
	calls    int
}

func (f *flakyInjector) Name() string { return "flaky" }

func (f *flakyInjector) Paste(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("event tap not ready")
	}
	return nil
}

type failingClipboard struct{ clipboard.Memory }

func (*failingClipboard) WriteText(string) error { return errors.New("pasteboard unavailable") }

func TestDeliver(t *testing.T) {
	injErr := errors.New("cannot post")

	tests := []struct {
		name          string
		perms         *fakePerms
		primaryErr    error
		fallbackErr   error
		wantPasted    bool
		wantClipboard string
		wantFallback  int
	}{
		{
			name:          "trusted_primary_restores",
			perms:         &fakePerms{ax: platform.StatusGranted, post: platform.StatusGranted},
			wantPasted:    true,
			wantClipboard: "previous",
		},
		{
			name:          "trusted_fallback_restores",
			perms:         &fakePerms{ax: platform.StatusGranted, post: platform.StatusGranted},
			primaryErr:    injErr,
			wantPasted:    true,
			wantClipboard: "previous",
			wantFallback:  1,
		},
		{
			name:          "both_injectors_fail",
			perms:         &fakePerms{ax: platform.StatusGranted, post: platform.StatusGranted},
			primaryErr:    injErr,
			fallbackErr:   injErr,
			wantPasted:    false,
			wantClipboard: "dictated text",
			wantFallback:  1,
		},
		{
			name:          "untrusted_keeps_text",
			perms:         &fakePerms{ax: platform.StatusDenied, post: platform.StatusGranted},
			wantPasted:    false,
			wantClipboard: "dictated text",
		},
		{
			name:          "post_event_granted_after_request",
			perms:         &fakePerms{ax: platform.StatusGranted, post: platform.StatusDenied, postAfterRequest: platform.StatusGranted},
			wantPasted:    true,
			wantClipboard: "previous",
		},
		{
			name:          "post_event_still_denied",
			perms:         &fakePerms{ax: platform.StatusGranted, post: platform.StatusDenied, postAfterRequest: platform.StatusDenied},
			wantPasted:    false,
			wantClipboard: "dictated text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := &clipboard.Memory{}
			cb.WriteText("previous")

			primary := &fakeInjector{err: tt.primaryErr, cb: cb}
			fallback := &fakeInjector{err: tt.fallbackErr}
			d := &Deliverer{Clipboard: cb, Permissions: tt.perms, Primary: primary, Fallback: fallback}

			pasted, err := d.Deliver(context.Background(), "dictated text")
			if err != nil {
				t.Fatalf("Deliver: %v", err)
			}
			if pasted != tt.wantPasted {
				t.Errorf("pasted = %v, want %v", pasted, tt.wantPasted)
			}
			if got, _ := cb.ReadText(); got != tt.wantClipboard {
				t.Errorf("clipboard = %q, want %q", got, tt.wantClipboard)
			}
			if len(primary.seen) != 1 || primary.seen[0] != "dictated text" {
				t.Errorf("clipboard at paste time = %v", primary.seen)
			}
			if fallback.calls != tt.wantFallback {
				t.Errorf("fallback calls = %d, want %d", fallback.calls, tt.wantFallback)
			}
		})
	}
}

func TestDeliverToTargetRetryRestoresOriginalClipboard(t *testing.T) {
	cb := &clipboard.Memory{}
	cb.WriteText("previous")
	inj := &flakyInjector{failures: 1}
	d := &Deliverer{Clipboard: cb, Primary: inj}

	pasted, err := DeliverToTarget(context.Background(), d, &recordingRestorer{}, "com.editor", "dictated text", 0, 0)
	if err != nil || !pasted {
		t.Fatalf("DeliverToTarget = (%v, %v), want pasted", pasted, err)
	}
	if inj.calls != 2 {
		t.Errorf("paste calls = %d, want 2", inj.calls)
	}
	if got, _ := cb.ReadText(); got != "previous" {
		t.Errorf("clipboard = %q, want %q", got, "previous")
	}
}

func TestDeliverAfterUserCopied(t *testing.T) {
	cb := &clipboard.Memory{}
	cb.WriteText("previous")
	inj := &flakyInjector{failures: 1}
	d := &Deliverer{Clipboard: cb, Primary: inj}

	if pasted, _ := d.Deliver(context.Background(), "dictated text"); pasted {
		t.Fatal("first attempt pasted")
	}
	// The user replaced the left text before the next delivery.
	cb.WriteText("copied later")
	if pasted, _ := d.Deliver(context.Background(), "dictated text"); !pasted {
		t.Fatal("second attempt not pasted")
	}
	if got, _ := cb.ReadText(); got != "copied later" {
		t.Errorf("clipboard = %q, want %q", got, "copied later")
	}
}

func TestDeliverRequestsMissingPermissionsOnce(t *testing.T) {
	perms := &fakePerms{ax: platform.StatusDenied, post: platform.StatusDenied, postAfterRequest: platform.StatusDenied}
	d := &Deliverer{Clipboard: &clipboard.Memory{}, Permissions: perms, Primary: &fakeInjector{}}

	if _, err := d.Deliver(context.Background(), "x"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if perms.axAsked != 1 || perms.postAsked != 1 {
		t.Errorf("requests: accessibility=%d post=%d, want 1 each", perms.axAsked, perms.postAsked)
	}
}

func TestDeliverClipboardFailure(t *testing.T) {
	primary := &fakeInjector{}
	d := &Deliverer{Clipboard: &failingClipboard{}, Primary: primary}

	_, err := d.Deliver(context.Background(), "x")
	if !errors.Is(err, apperr.ErrTextInsertion) {
		t.Fatalf("Deliver error = %v, want text insertion error", err)
	}
	if primary.calls != 0 {
		t.Error("injector ran after clipboard failure")
	}
}

type scriptedDeliverer struct {
	results []bool
	calls   int
}

func (s *scriptedDeliverer) Deliver(context.Context, string) (bool, error) {
	r := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	return r, nil
}

type recordingRestorer struct {
	ids     []string
	settles []time.Duration
}

func (r *recordingRestorer) Restore(_ context.Context, id string, settle time.Duration) {
	r.ids = append(r.ids, id)
	r.settles = append(r.settles, settle)
}

func TestDeliverToTarget(t *testing.T) {
	tests := []struct {
		name        string
		results     []bool
		wantPasted  bool
		wantCalls   int
		wantRestore int
	}{
		{"first_attempt", []bool{true}, true, 1, 1},
		{"retry_succeeds", []bool{false, true}, true, 2, 2},
		{"retry_fails", []bool{false, false, true}, false, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &scriptedDeliverer{results: tt.results}
			r := &recordingRestorer{}

			pasted, err := DeliverToTarget(context.Background(), d, r, "com.apple.TextEdit", "hi", 250*time.Millisecond, 300*time.Millisecond)
			if err != nil {
				t.Fatalf("DeliverToTarget: %v", err)
			}
			if pasted != tt.wantPasted {
				t.Errorf("pasted = %v, want %v", pasted, tt.wantPasted)
			}
			if d.calls != tt.wantCalls {
				t.Errorf("deliver calls = %d, want %d", d.calls, tt.wantCalls)
			}
			if len(r.ids) != tt.wantRestore {
				t.Fatalf("restores = %d, want %d", len(r.ids), tt.wantRestore)
			}
			if r.settles[0] != 250*time.Millisecond {
				t.Errorf("first settle = %v", r.settles[0])
			}
			if tt.wantRestore == 2 && r.settles[1] != 300*time.Millisecond {
				t.Errorf("retry settle = %v", r.settles[1])
			}
		})
	}
}

func TestScriptInjectorForOS(t *testing.T) {
	s := NewScriptInjector()
	if s.Name() == "" || len(s.argv) < 2 {
		t.Fatalf("script injector = %+v", s)
	}
}
