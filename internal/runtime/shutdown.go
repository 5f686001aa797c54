// Package runtime provides graceful shutdown handling for ddx processes.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joss/ddx/internal/logging"
)

// ShutdownFunc is a cleanup function called during shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager cancels in-flight work on SIGINT/SIGTERM and runs cleanup
// handlers within a timeout.
type ShutdownManager struct {
	mu          sync.Mutex
	handlers    []namedHandler
	timeout     time.Duration
	shutdownCtx context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	once        sync.Once
	signaled    atomic.Bool
	log         *logging.Logger
}

type namedHandler struct {
	name string
	fn   ShutdownFunc
}

// DefaultShutdownTimeout is the default timeout for cleanup operations
const DefaultShutdownTimeout = 5 * time.Second

// NewShutdownManager creates a new shutdown manager with specified timeout
func NewShutdownManager(timeout time.Duration) *ShutdownManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout:     timeout,
		shutdownCtx: ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         logging.New("runtime"),
	}
}

// Register adds a cleanup handler to be called during shutdown.
func (m *ShutdownManager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// Context returns a context that is cancelled when shutdown begins
func (m *ShutdownManager) Context() context.Context {
	return m.shutdownCtx
}

// Done returns a channel that's closed when shutdown is complete
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

// Signaled reports whether shutdown was triggered by a signal.
func (m *ShutdownManager) Signaled() bool {
	return m.signaled.Load()
}

// ListenForSignals starts listening for SIGTERM and SIGINT. The returned
// function stops listening; it is safe to call after shutdown.
func (m *ShutdownManager) ListenForSignals() (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	quit := make(chan struct{})

	logging.SafeGo("runtime", func() {
		select {
		case sig := <-sigChan:
			m.signal(sig)
		case <-quit:
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(quit)
		})
	}
}

func (m *ShutdownManager) signal(sig os.Signal) {
	m.log.Info("signal_received", map[string]interface{}{"signal": sig.String()})
	m.signaled.Store(true)
	m.Shutdown()
}

// Shutdown initiates graceful shutdown - can only be called once
func (m *ShutdownManager) Shutdown() {
	m.once.Do(func() {
		m.performShutdown()
	})
}

// performShutdown cancels the main context, then runs handlers concurrently
// until they finish or the timeout expires.
func (m *ShutdownManager) performShutdown() {
	defer close(m.done)
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	var wg sync.WaitGroup
	var failed atomic.Int32

	for i := len(handlers) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(h namedHandler) {
			defer wg.Done()
			recovery := logging.NewRecoveryHandler("shutdown")
			recovery.Logger = m.log
			recovery.OnPanic = func(interface{}, string) { failed.Add(1) }
			recovery.Wrap(func() {
				start := time.Now()
				if err := h.fn(ctx); err != nil {
					failed.Add(1)
					m.log.Warn("shutdown_handler", map[string]interface{}{"handler": h.name}, err)
					return
				}
				m.log.TimedEvent("shutdown_handler", start, map[string]interface{}{"handler": h.name})
			})
		}(handlers[i])
	}

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		m.log.Debug("shutdown_complete", map[string]interface{}{"handlers": len(handlers), "failed": failed.Load()})
	case <-ctx.Done():
		m.log.Warn("shutdown_timeout", map[string]interface{}{"timeout": m.timeout.String()}, ctx.Err())
	}
}
