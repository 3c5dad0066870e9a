package textinsert

import (
	"context"
	"log/slog"
	"time"
)

// TextDeliverer is implemented by Deliverer.
type TextDeliverer interface {
	Deliver(ctx context.Context, text string) (bool, error)
}

// Restorer brings a target application back to the front.
type Restorer interface {
	Restore(ctx context.Context, id string, settle time.Duration)
}

// DeliverToTarget re-activates target, delivers text, and on a
// clipboard-only outcome re-activates and delivers exactly once more.
// An empty target skips activation. A Deliverer restores the clipboard from
// before the first attempt when the retry pastes.
func DeliverToTarget(ctx context.Context, d TextDeliverer, r Restorer, target, text string, settle, retrySettle time.Duration) (bool, error) {
	r.Restore(ctx, target, settle)

	pasted, err := d.Deliver(ctx, text)
	if err != nil || pasted {
		return pasted, err
	}

	slog.Info("retrying paste", "target", target)
	r.Restore(ctx, target, retrySettle)
	return d.Deliver(ctx, text)
}
