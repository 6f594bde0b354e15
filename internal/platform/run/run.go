package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc releases one resource within the shutdown deadline.
type ShutdownFunc func(ctx context.Context) error

type Runner struct {
	Logger          *zap.Logger
	ShutdownTimeout time.Duration

	hooks []namedHook
}

type namedHook struct {
	name string
	fn   ShutdownFunc
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, ShutdownTimeout: 10 * time.Second}
}

// OnShutdown registers fn to run after start returns or a signal arrives.
// Hooks run in reverse registration order.
func (r *Runner) OnShutdown(name string, fn ShutdownFunc) {
	r.hooks = append(r.hooks, namedHook{name: name, fn: fn})
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives, then
// runs the shutdown hooks and returns the process exit code.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, start)
}

func (r *Runner) run(ctx context.Context, start func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	code := 0
	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.Logger.Error("service exited with error", zap.Error(err))
			code = 1
		}
	}
	r.shutdown()
	return code
}

func (r *Runner) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), r.ShutdownTimeout)
	defer cancel()
	for i := len(r.hooks) - 1; i >= 0; i-- {
		h := r.hooks[i]
		if err := h.fn(ctx); err != nil {
			r.Logger.Warn("shutdown hook failed", zap.String("hook", h.name), zap.Error(err))
		}
	}
}

func Exit(code int) {
	os.Exit(code)
}
