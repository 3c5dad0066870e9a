package textinsert

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyDeviceWaitsForSettle(t *testing.T) {
	opened := time.Now()
	d := openKeyDevice(func() (int, error) { return 7, nil }, 60*time.Millisecond)

	dev, err := d.get(context.Background())
	if err != nil || dev != 7 {
		t.Fatalf("get = (%v, %v)", dev, err)
	}
	if waited := time.Since(opened); waited < 50*time.Millisecond {
		t.Errorf("device handed out after %v, before it settled", waited)
	}
}

func TestKeyDeviceOpenError(t *testing.T) {
	boom := errors.New("no uinput")
	start := time.Now()
	d := openKeyDevice(func() (int, error) { return 0, boom }, time.Hour)

	if _, err := d.get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if time.Since(start) > time.Second {
		t.Error("failed open still waited for settle")
	}
	// The result is kept for later calls.
	if _, err := d.get(context.Background()); !errors.Is(err, boom) {
		t.Errorf("second get err = %v", err)
	}
}

func TestKeyDeviceContext(t *testing.T) {
	d := openKeyDevice(func() (int, error) { return 1, nil }, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := d.get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
