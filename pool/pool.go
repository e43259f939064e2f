package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/tpool/internal/scheduler"
	"github.com/utkarsh5026/tpool/internal/types"
)

// Pool is a fixed-size group of long-lived workers consuming tasks from one
// shared FIFO queue.
//
// A Pool is created running and accepts submissions until Shutdown is
// called. Shutdown stops intake immediately, lets the workers drain every
// task that was accepted before it, and returns once they have all exited.
// Go has no destructors, so the usual pattern is:
//
//	p, err := pool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown()
type Pool struct {
	conf        *poolConfig
	logger      *zap.Logger
	workerCount int

	queue *scheduler.FIFO[types.Runnable]
	group errgroup.Group
	done  chan struct{} // closed once every worker has returned

	taskIDCounter atomic.Int64
	running       atomic.Int32
	active        atomic.Int32
	submitted     atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	rejected      atomic.Int64
}

// New creates a pool with exactly workerCount workers and starts them.
// When New returns without error every worker is running and waiting for
// work.
//
// Parameters:
//   - workerCount: number of workers, must be > 0
//   - opts: functional options (logger, rate limit, retries, hooks, ...)
//
// Returns:
//   - *Pool: a running pool
//   - error: wraps ErrInvalidArgument when workerCount <= 0
//
// Example:
//
//	p, err := pool.New(2, pool.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Shutdown()
func New(workerCount int, opts ...Option) (*Pool, error) {
	if workerCount <= 0 {
		return nil, fmt.Errorf("%w: worker count must be > 0, got %d", ErrInvalidArgument, workerCount)
	}

	cfg := createConfig(opts...)
	p := &Pool{
		conf:        cfg,
		logger:      cfg.logger.With(zap.String("pool", cfg.name)),
		workerCount: workerCount,
		queue:       scheduler.NewFIFO[types.Runnable](),
		done:        make(chan struct{}),
	}

	var ready sync.WaitGroup
	ready.Add(workerCount)
	for i := range workerCount {
		p.startWorker(i, &ready)
	}
	ready.Wait()

	go func() {
		_ = p.group.Wait()
		p.logger.Info("pool stopped",
			zap.Int64("completed", p.completed.Load()),
			zap.Int64("failed", p.failed.Load()),
		)
		close(p.done)
	}()

	p.logger.Info("pool started", zap.Int("workers", workerCount))
	return p, nil
}

// DefaultWorkerCount returns the number of logical CPUs usable by the
// process, a sensible workerCount for CPU-bound tasks.
func DefaultWorkerCount() int {
	return runtime.GOMAXPROCS(0)
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workerCount
}

// Name returns the pool name set with WithName.
func (p *Pool) Name() string {
	return p.conf.name
}

// State reports where the pool is in its lifecycle.
func (p *Pool) State() State {
	select {
	case <-p.done:
		return StateStopped
	default:
	}
	if p.queue.Closed() {
		return StateStopping
	}
	return StateRunning
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Name:      p.conf.name,
		State:     p.State(),
		Workers:   p.workerCount,
		Running:   int(p.running.Load()),
		Active:    int(p.active.Load()),
		Queued:    p.queue.Len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// Done returns a channel that is closed once the pool has stopped.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Shutdown stops accepting tasks, wakes every idle worker and blocks until
// the workers have executed everything already queued and exited.
// It is safe to call more than once and from several goroutines; every call
// returns only after the pool has stopped.
func (p *Pool) Shutdown() {
	p.beginShutdown()
	<-p.done
}

// ShutdownContext is Shutdown with a bounded wait. If ctx ends first it
// returns an error wrapping ErrShutdownTimeout and the context error; the
// workers keep draining in the background and the pool still stops.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	p.beginShutdown()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// ShutdownTimeout is Shutdown with a bounded wait.
// A timeout <= 0 waits forever.
//
// Example:
//
//	if err := p.ShutdownTimeout(5 * time.Second); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
func (p *Pool) ShutdownTimeout(timeout time.Duration) error {
	p.beginShutdown()
	return waitUntil(p.done, timeout)
}

func (p *Pool) beginShutdown() {
	if p.queue.Close() {
		p.logger.Info("pool shutting down", zap.Int("queued", p.queue.Len()))
	}
}

// waitUntil blocks until either the done channel is closed or the timeout is reached.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
