package textinsert

import (
	"context"
	"time"
)

// keyDevice opens a key event device once, in the background. The device
// is handed out only after settle has passed since a successful open, as
// events posted before the OS registers it are silently lost.
type keyDevice[T any] struct {
	ready chan struct{}
	dev   T
	err   error
}

func openKeyDevice[T any](open func() (T, error), settle time.Duration) *keyDevice[T] {
	d := &keyDevice[T]{ready: make(chan struct{})}
	go func() {
		defer close(d.ready)
		d.dev, d.err = open()
		if d.err == nil && settle > 0 {
			time.Sleep(settle)
		}
	}()
	return d
}

// get waits until the device is usable or ctx ends.
func (d *keyDevice[T]) get(ctx context.Context) (T, error) {
	select {
	case <-d.ready:
		return d.dev, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
