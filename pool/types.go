package pool

import (
	"time"

	"github.com/utkarsh5026/tpool/internal/types"
)

// ProcessFunc is a callable bound to one argument of type T. It receives the
// pool's task context (see WithContext) and produces a result of type R or
// fails with an error that is stored unchanged in the task's Future.
//
// Type parameters:
//   - T: The type of the bound argument
//   - R: The type of result produced after processing
type ProcessFunc[T any, R any] = types.ProcessFunc[T, R]

// Future is the one-shot result handle returned by every submission.
// It is fulfilled exactly once, with a value or with an error.
type Future[R any] = types.Future[R]

// TaskInfo describes a task to the lifecycle hooks.
type TaskInfo struct {
	// ID is the submission sequence number, also returned by Future.ID.
	ID int64
	// WorkerID identifies the worker executing the task, in [0, Workers).
	WorkerID int
	// EnqueuedAt is the time the task was accepted by the pool.
	EnqueuedAt time.Time
	// StartedAt is the time the worker dequeued the task.
	StartedAt time.Time
}

// Stats is a point-in-time snapshot of a pool's counters.
// Fields are read independently, so a snapshot taken while tasks are moving
// may be off by one between related counters.
type Stats struct {
	Name      string
	State     State
	Workers   int   // configured worker count
	Running   int   // workers whose loop has not exited yet
	Active    int   // workers currently executing a task
	Queued    int   // tasks waiting in the queue
	Submitted int64 // tasks accepted
	Completed int64 // tasks whose Future holds a value
	Failed    int64 // tasks whose Future holds an error
	Rejected  int64 // submissions refused after shutdown began
}
