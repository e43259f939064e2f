// Package pool provides a bounded worker pool: a fixed number of long-lived
// workers consume tasks from one shared FIFO queue, and every submission
// returns a one-shot Future that receives the task's value or error.
//
// # Basic Usage
//
//	p, err := pool.New(2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Shutdown()
//
//	f, err := pool.Submit(p, func() (int, error) { return 6 * 7, nil })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := f.Get() // 42, nil
//
// Tasks with an explicit argument use SubmitTask, side-effect-only tasks use
// (*Pool).Execute. Submissions never wait for a free worker; the queue is
// unbounded.
//
// # Ordering
//
// Tasks are dequeued in submission order. With one worker they also run and
// complete in that order; with more workers completion order is unspecified.
//
// # Shutdown
//
// Shutdown stops intake at once (later submissions fail with ErrIllegalState)
// but executes every task accepted before it, then waits for all workers to
// exit. ShutdownContext and ShutdownTimeout bound that wait. There is no way
// to cancel a queued or running task.
//
// # Errors
//
// A task's own error is stored unchanged in its Future. A panic inside a task,
// an integer division by zero for instance, is recovered and stored as a
// *PanicError; the worker carries on with the next task.
//
//	_, err := f.Get()
//	var re runtime.Error
//	if errors.As(err, &re) {
//	    // the task hit a runtime panic
//	}
//
// # Configuration Options
//
//   - WithLogger(logger): zap logger for lifecycle, failure and retry events
//   - WithName(name): pool name attached to logs and Stats
//   - WithContext(ctx): context handed to every ProcessFunc
//   - WithRateLimit(tasksPerSecond, burst): throttle task starts
//   - WithRetryPolicy(maxAttempts, initialDelay): retry failing callables
//   - WithBackoff(kind, initial, max, jitter): retry delay curve
//   - WithBeforeTaskStart, WithOnTaskEnd, WithOnRetry: lifecycle hooks
//   - WithCPUAffinity(true): lock each worker to an OS thread and CPU
//   - WithMetrics(m): keep Prometheus collectors up to date
package pool
