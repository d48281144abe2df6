package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler coordinates graceful shutdown. Hooks run in reverse order of
// registration, so dependencies registered first are torn down last.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []hook
	done  chan struct{}
	trig  chan struct{}
	once  sync.Once
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// NewHandler creates a shutdown handler. timeout bounds the total time
// granted to all hooks.
func NewHandler(timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
		trig:    make(chan struct{}),
	}
}

// OnShutdown registers a named shutdown hook.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Trigger initiates shutdown without a signal, used by tests and by
// fatal error paths.
func (h *Handler) Trigger() {
	h.once.Do(func() { close(h.trig) })
}

// Wait blocks until SIGINT, SIGTERM, or Trigger, then executes hooks in
// reverse order. The last hook error is returned.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.logger.Info("shutdown signal received", "signal", sig.String())
	case <-h.trig:
		h.logger.Info("shutdown triggered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var lastErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			lastErr = err
		}
	}

	close(h.done)
	return lastErr
}

// Done closes when shutdown has completed.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
