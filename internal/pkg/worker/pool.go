// Package worker provides goroutine pool management.
//
// Naked goroutines are avoided outside main; background work such as the
// clan member-count recompute goes through the pool with context
// propagation.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"clanhub.gg/clanhub/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission. Detached tasks run
// under the pool's lifecycle context so they survive request cancellation
// but still respect graceful shutdown.
type Pool struct {
	pool *ants.Pool

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
}

// New creates a pool of the given size.
func New(ctx context.Context, size int) (*Pool, error) {
	if size <= 0 {
		size = 32
	}

	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	antsPool, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancel(ctx)
	return &Pool{pool: antsPool, lifeCtx: lifeCtx, lifeCancel: lifeCancel}, nil
}

// Submit runs a task under the caller's context. If the context is already
// cancelled, the task is not submitted.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.pool.Submit(func() {
		// May have been cancelled while queued.
		select {
		case <-ctx.Done():
			logger.Debug("Task skipped: context cancelled", zap.Error(ctx.Err()))
			return
		default:
		}
		task(ctx)
	})
}

// SubmitDetached runs a task under the pool lifecycle context. Use for
// work that must outlive the triggering request, like the member-count
// recompute after a membership mutation.
func (p *Pool) SubmitDetached(task Task) error {
	return p.pool.Submit(func() {
		select {
		case <-p.lifeCtx.Done():
			logger.Debug("Detached task skipped: shutting down")
			return
		default:
		}
		task(p.lifeCtx)
	})
}

// Shutdown cancels the lifecycle context and waits for running tasks.
func (p *Pool) Shutdown() {
	p.lifeCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Worker pool shutdown timeout", zap.Error(err))
	}
}

// Running returns the number of currently running workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}
