package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestNewShutdownManager(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	if m == nil {
		t.Fatal("NewShutdownManager returned nil")
	}

	if m.timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", m.timeout)
	}
}

func TestShutdownManager_Register(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var called int32

	m.Register("test-handler", func(ctx context.Context) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	m.Shutdown()

	if atomic.LoadInt32(&called) != 1 {
		t.Error("handler was not called")
	}
}

func TestShutdownManager_AllHandlersRun(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var called int32
	for _, name := range []string{"capture", "session", "tui"} {
		m.Register(name, func(ctx context.Context) error {
			atomic.AddInt32(&called, 1)
			return nil
		})
	}

	m.Shutdown()

	if got := atomic.LoadInt32(&called); got != 3 {
		t.Errorf("expected 3 handlers called, got %d", got)
	}
}

func TestShutdownManager_HandlerSeesCanceledContext(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var sawCancel atomic.Bool
	m.Register("session", func(context.Context) error {
		sawCancel.Store(m.Context().Err() != nil)
		return nil
	})

	m.Shutdown()

	if !sawCancel.Load() {
		t.Error("main context should be canceled before handlers run")
	}
	if m.Signaled() {
		t.Error("manual shutdown should not report a signal")
	}
}

func TestShutdownManager_StopListening(t *testing.T) {
	m := NewShutdownManager(time.Second)
	stop := m.ListenForSignals()
	stop()
	stop()

	select {
	case <-m.Done():
		t.Fatal("stopping the listener must not trigger shutdown")
	default:
	}
}

func TestShutdownManager_Context(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	ctx := m.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled before shutdown")
	default:
		// Good
	}

	m.Shutdown()

	select {
	case <-ctx.Done():
		// Good - context should be cancelled
	case <-time.After(time.Second):
		t.Fatal("context should be cancelled after shutdown")
	}
}

func TestShutdownManager_Done(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	done := m.Done()

	select {
	case <-done:
		t.Fatal("done channel should not be closed before shutdown")
	default:
		// Good
	}

	m.Shutdown()

	select {
	case <-done:
		// Good - done should be closed
	case <-time.After(time.Second):
		t.Fatal("done channel should be closed after shutdown")
	}
}

func TestShutdownManager_Timeout(t *testing.T) {
	m := NewShutdownManager(100 * time.Millisecond)

	m.Register("slow-handler", func(ctx context.Context) error {
		// This handler is slow and should be interrupted
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	m.Shutdown()
	duration := time.Since(start)

	// Should complete in roughly the timeout period
	if duration > 500*time.Millisecond {
		t.Errorf("shutdown took too long: %v", duration)
	}
}

func TestShutdownManager_ErrorHandling(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	m.Register("error-handler", func(ctx context.Context) error {
		return errors.New("test error")
	})

	m.Register("success-handler", func(ctx context.Context) error {
		return nil
	})

	// Should not panic with errors
	m.Shutdown()
}

func TestShutdownManager_OnlyOnce(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var callCount int32

	m.Register("once-handler", func(ctx context.Context) error {
		atomic.AddInt32(&callCount, 1)
		return nil
	})

	m.Shutdown()
	m.Shutdown()
	m.Shutdown()

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("handler should only be called once, got %d", callCount)
	}
}

func TestShutdownManager_PanickingHandler(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var called atomic.Bool
	m.Register("broken", func(ctx context.Context) error {
		panic("handler exploded")
	})
	m.Register("session", func(ctx context.Context) error {
		called.Store(true)
		return nil
	})

	m.Shutdown()

	if !called.Load() {
		t.Error("a panicking handler must not stop the others")
	}
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel should be closed after a handler panics")
	}
}

func TestShutdownManager_SignalMarksSignaled(t *testing.T) {
	m := NewShutdownManager(time.Second)

	m.signal(syscall.SIGINT)

	if !m.Signaled() {
		t.Error("signal-driven shutdown should report Signaled")
	}
	if m.Context().Err() == nil {
		t.Error("signal should cancel the main context")
	}
}
