package types

import (
	"context"
	"time"
)

// ProcessFunc is a callable bound to a single argument of type T that
// produces a result of type R or fails with an error.
//
// Type parameters:
//   - T: The type of the bound argument
//   - R: The type of the produced result
type ProcessFunc[T any, R any] func(ctx context.Context, arg T) (R, error)

// Runnable is the type-erased view of a queued task. Workers only ever see
// Runnables, which lets one pool execute tasks of unrelated result types.
type Runnable interface {
	// ID returns the submission sequence number.
	ID() int64

	// EnqueuedAt returns the time the task entered the queue.
	EnqueuedAt() time.Time

	// Call invokes the callable once. It may be invoked again by a retry
	// policy; only the outcome of the last call is kept.
	Call(ctx context.Context) error

	// Complete writes the outcome of the last Call, or err if it is non-nil
	// and did not come from Call (a recovered panic, for instance), into the
	// task's Future.
	Complete(err error) bool
}

// SubmittedTask binds a ProcessFunc to its argument and to the Future that
// will receive its outcome.
type SubmittedTask[T any, R any] struct {
	Task     T
	Id       int64
	fn       ProcessFunc[T, R]
	future   *Future[R]
	result   R
	enqueued time.Time
}

// NewSubmittedTask creates a task with a fresh Future for the given id.
func NewSubmittedTask[T, R any](id int64, task T, fn ProcessFunc[T, R]) *SubmittedTask[T, R] {
	return &SubmittedTask[T, R]{
		Task:     task,
		Id:       id,
		fn:       fn,
		future:   NewFuture[R](id),
		enqueued: time.Now(),
	}
}

// Future returns the read side handed back to the submitter.
func (s *SubmittedTask[T, R]) Future() *Future[R] {
	return s.future
}

func (s *SubmittedTask[T, R]) ID() int64 {
	return s.Id
}

func (s *SubmittedTask[T, R]) EnqueuedAt() time.Time {
	return s.enqueued
}

func (s *SubmittedTask[T, R]) Call(ctx context.Context) error {
	result, err := s.fn(ctx, s.Task)
	s.result = result
	return err
}

func (s *SubmittedTask[T, R]) Complete(err error) bool {
	return s.future.Complete(s.result, err)
}
