package types

import (
	"context"
	"sync"
	"time"
)

// Future is the read side of a one-shot result cell.
//
// The worker that executed the associated task writes exactly one outcome,
// either a value or an error, through Complete. Any number of readers may
// then observe that same outcome; the cell is never re-armed.
//
// Type parameters:
//   - R: The result type produced by the task
type Future[R any] struct {
	id    int64
	done  chan struct{}
	once  sync.Once
	value R
	err   error
}

// NewFuture creates an unfulfilled Future for the task with the given id.
func NewFuture[R any](id int64) *Future[R] {
	return &Future[R]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the submission sequence number of the task backing this Future.
func (f *Future[R]) ID() int64 {
	return f.id
}

// Complete fulfils the Future. Only the first call has an effect; it reports
// whether this call was the one that wrote the outcome.
//
// When err is non-nil the value is discarded so that readers observe either a
// value or an error, never both.
func (f *Future[R]) Complete(value R, err error) bool {
	written := false
	f.once.Do(func() {
		if err != nil {
			f.err = err
		} else {
			f.value = value
		}
		close(f.done)
		written = true
	})
	return written
}

// Get blocks until the task has finished and returns its outcome.
// If the task failed, the zero value of R and the task's error are returned.
//
// Example:
//
//	future, _ := pool.Submit(p, func() (int, error) { return 6 * 7, nil })
//	value, err := future.Get()
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext is like Get but gives up when ctx is done, returning the
// context's error. The Future stays valid and can be read again later.
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetWithTimeout waits at most timeout for the outcome.
// On expiry it returns context.DeadlineExceeded.
func (f *Future[R]) GetWithTimeout(timeout time.Duration) (R, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return f.GetWithContext(ctx)
}

// TryGet returns the outcome without blocking. ready is false while the task
// is still queued or running, in which case value and err are zero.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return value, nil, false
	}
}

// IsReady reports whether the outcome has been written.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the outcome has been written.
// It is meant for use in select statements.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}
