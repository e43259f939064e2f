package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tpool/internal/algorithms"
	"github.com/utkarsh5026/tpool/internal/cpu"
	"github.com/utkarsh5026/tpool/internal/types"
)

// startWorker adds one consume-and-execute loop to the group.
func (p *Pool) startWorker(id int, ready *sync.WaitGroup) {
	p.group.Go(func() error {
		p.worker(id, ready)
		return nil
	})
}

// worker is the consume-and-execute loop run by every goroutine of the group.
// It only returns once the queue is closed and empty, so a failing or
// panicking task never costs the pool a worker.
func (p *Pool) worker(id int, ready *sync.WaitGroup) {
	log := p.logger.With(zap.Int("worker", id))

	if p.conf.pinWorkers {
		release, err := cpu.Pin(id)
		if err != nil {
			log.Warn("cpu affinity not applied", zap.Error(err))
		}
		defer release()
	}

	p.running.Add(1)
	defer p.running.Add(-1)
	if ready != nil {
		ready.Done()
	}

	log.Debug("worker started")

	drained := false
	defer func() {
		if drained {
			log.Debug("worker exited")
			return
		}
		// A task called runtime.Goexit, which unwinds the goroutine past every
		// recover. The replacement is added while this goroutine still counts
		// in the group, so the pool never looks stopped.
		log.Warn("worker aborted by task, starting a replacement")
		p.startWorker(id, nil)
	}()

	var backoff algorithms.BackoffStrategy
	if p.conf.maxAttempts > 1 {
		backoff = p.conf.newBackoff()
	}

	for {
		task, ok := p.queue.Pop()
		if !ok {
			drained = true
			return
		}
		p.execute(id, task, backoff, log)
	}
}

// execute runs one task outside the queue lock and writes its outcome into
// the task's Future exactly once.
func (p *Pool) execute(workerID int, task types.Runnable, backoff algorithms.BackoffStrategy, log *zap.Logger) {
	info := TaskInfo{
		ID:         task.ID(),
		WorkerID:   workerID,
		EnqueuedAt: task.EnqueuedAt(),
		StartedAt:  time.Now(),
	}

	p.active.Add(1)
	defer p.active.Add(-1)
	p.conf.metrics.dequeued(info.StartedAt.Sub(info.EnqueuedAt))

	written := false
	defer func() {
		if written {
			return
		}
		// Only runtime.Goexit gets here: panics are recovered below.
		task.Complete(ErrTaskAborted)
		p.failed.Add(1)
		p.conf.metrics.finished(time.Since(info.StartedAt), ErrTaskAborted)
		log.Warn("task aborted", zap.Int64("task", info.ID), zap.Error(ErrTaskAborted))
	}()

	ctx := p.conf.baseCtx
	if p.conf.rateLimiter != nil {
		// Throttling only delays a task; an accepted task always runs.
		if err := p.conf.rateLimiter.Wait(context.WithoutCancel(ctx)); err != nil {
			log.Warn("rate limiter wait failed", zap.Int64("task", info.ID), zap.Error(err))
		}
	}

	p.runHook(log, "before_task_start", func() {
		if p.conf.beforeTaskStart != nil {
			p.conf.beforeTaskStart(info)
		}
	})

	err := p.processWithRetry(ctx, task, info, backoff, log)
	task.Complete(err)

	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	p.conf.metrics.finished(time.Since(info.StartedAt), err)
	written = true

	p.runHook(log, "on_task_end", func() {
		if p.conf.onTaskEnd != nil {
			p.conf.onTaskEnd(info, err)
		}
	})
}

// processWithRetry calls the task up to maxAttempts times, sleeping between
// attempts according to backoff, which is nil when retries are disabled. It
// returns the error of the last attempt, or nil as soon as one succeeds.
func (p *Pool) processWithRetry(ctx context.Context, task types.Runnable, info TaskInfo, backoff algorithms.BackoffStrategy, log *zap.Logger) error {
	maxAttempts := max(p.conf.maxAttempts, 1)
	if backoff == nil {
		maxAttempts = 1
	} else {
		backoff.Reset()
	}

	var err error
	for attempt := range maxAttempts {
		if attempt > 0 {
			delay := backoff.NextDelay(attempt-1, err)
			log.Debug("retrying task",
				zap.Int64("task", info.ID),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if delay > 0 {
				time.Sleep(delay)
			}
		}

		err = processWithRecovery(ctx, task)
		if err == nil {
			return nil
		}
		// Panics are not retried.
		if IsPanic(err) {
			break
		}

		if attempt < maxAttempts-1 {
			p.conf.metrics.retried()
			p.runHook(log, "on_retry", func() {
				if p.conf.onRetry != nil {
					p.conf.onRetry(info, attempt+1, err)
				}
			})
		}
	}

	if IsPanic(err) {
		log.Warn("task panicked",
			zap.Int64("task", info.ID),
			zap.Error(err),
			zap.ByteString("stack", panicStack(err)),
		)
	} else {
		log.Debug("task failed", zap.Int64("task", info.ID), zap.Error(err))
	}
	return err
}

// processWithRecovery makes a single call, turning a panic into a *PanicError
// so the worker survives it.
func processWithRecovery(ctx context.Context, task types.Runnable) (err error) {
	normalReturn := false
	defer func() {
		if normalReturn {
			return
		}
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: r, Stack: buf[:n]}
		}
	}()

	err = task.Call(ctx)
	normalReturn = true
	return err
}

// runHook invokes a user hook, logging instead of propagating its panics.
func (p *Pool) runHook(log *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("hook panicked", zap.String("hook", name), zap.Any("panic", r))
		}
	}()
	fn()
}

func panicStack(err error) []byte {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Stack
	}
	return nil
}
