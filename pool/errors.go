package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned synchronously by New for a non-positive
	// worker count and by the submit functions for a nil callable.
	ErrInvalidArgument = errors.New("pool: invalid argument")

	// ErrIllegalState is returned by the submit functions once shutdown has
	// begun. The rejected task is never queued.
	ErrIllegalState = errors.New("pool: illegal state")

	// ErrShutdownTimeout is returned by the bounded shutdown variants when the
	// wait expires before the workers have drained the queue.
	ErrShutdownTimeout = errors.New("pool: shutdown timed out before workers drained")

	// ErrTaskAborted is stored in a task's Future when its callable ends the
	// worker goroutine with runtime.Goexit instead of returning. The pool
	// replaces the worker.
	ErrTaskAborted = errors.New("pool: task aborted by runtime.Goexit")
)

// PanicError is stored in a task's Future when its callable panics.
// The worker that recovered it keeps running.
type PanicError struct {
	// Value is the argument passed to panic.
	Value any
	// Stack is the goroutine stack captured at the point of recovery.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so runtime
// errors such as an integer division by zero can be matched with errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsPanic reports whether err came from a recovered task panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
