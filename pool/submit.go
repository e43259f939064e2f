package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/utkarsh5026/tpool/internal/scheduler"
	"github.com/utkarsh5026/tpool/internal/types"
)

// Go methods cannot declare type parameters, so the typed submission forms
// are package-level functions taking the pool as their first argument.

// Submit queues fn for execution and returns the Future that will receive
// its outcome. Arguments are bound by the closure.
//
// Submit never waits for a worker. It returns an error wrapping
// ErrIllegalState once shutdown has begun (fn is then never run), and one
// wrapping ErrInvalidArgument when fn is nil.
//
// Example:
//
//	x := 7
//	f, err := pool.Submit(p, func() (int, error) { return x * x, nil })
//	if err != nil {
//	    return err
//	}
//	sq, err := f.Get()
func Submit[R any](p *Pool, fn func() (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil task function", ErrInvalidArgument)
	}
	return SubmitTask(p, func(context.Context, struct{}) (R, error) {
		return fn()
	}, struct{}{})
}

// SubmitTask queues fn bound to arg. fn receives the pool's task context.
// Errors are the same as for Submit.
//
// Example:
//
//	square := func(_ context.Context, n int) (int, error) { return n * n, nil }
//	f, _ := pool.SubmitTask(p, square, 3)
func SubmitTask[T, R any](p *Pool, fn ProcessFunc[T, R], arg T) (*Future[R], error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidArgument)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil task function", ErrInvalidArgument)
	}

	st := types.NewSubmittedTask(p.taskIDCounter.Add(1), arg, fn)
	if err := p.enqueue(st); err != nil {
		return nil, err
	}
	return st.Future(), nil
}

// Execute queues a side-effect-only task. The returned Future carries only
// its error.
func (p *Pool) Execute(fn func() error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil task function", ErrInvalidArgument)
	}
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

func (p *Pool) enqueue(r types.Runnable) error {
	// The depth gauge goes up before Push so a fast worker never drives it
	// below zero.
	p.conf.metrics.queued(1)

	if err := p.queue.Push(r); err != nil {
		p.conf.metrics.queued(-1)
		p.rejected.Add(1)
		p.conf.metrics.rejected()

		if errors.Is(err, scheduler.ErrQueueClosed) {
			return fmt.Errorf("%w: pool %q is shutting down", ErrIllegalState, p.conf.name)
		}
		return err
	}

	p.submitted.Add(1)
	p.conf.metrics.submitted()
	return nil
}
