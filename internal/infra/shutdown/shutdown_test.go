package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func newTestHandler(timeout time.Duration) *Handler {
	return NewHandler(timeout, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"metrics", "sessions", "http"} {
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	if strings.Join(order, ",") != "http,sessions,metrics" {
		t.Errorf("order = %v", order)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Signal(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	called := make(chan struct{})
	h.OnShutdown("probe", func(context.Context) error {
		close(called)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	// Give Wait time to install the signal handler.
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
	select {
	case <-called:
	default:
		t.Error("hook not called")
	}
}

func TestHandler_CombinesErrors(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("ok", func(context.Context) error { return nil })
	h.OnShutdown("b", func(context.Context) error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Shutdown() = %v, want both errors", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("len(errors) = %d, want 2", n)
	}
	if !strings.Contains(err.Error(), "b: b failed") {
		t.Errorf("error %q lacks hook name", err)
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := newTestHandler(50 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("hook deadline not applied")
	}
}
