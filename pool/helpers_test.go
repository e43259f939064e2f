package pool

import (
	"testing"
	"time"
)

// newTestPool creates a pool that is shut down when the test ends.
func newTestPool(t *testing.T, workers int, opts ...Option) *Pool {
	t.Helper()

	p, err := New(workers, opts...)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", workers, err)
	}
	t.Cleanup(p.Shutdown)
	return p
}

// mustGet waits for a future and fails the test if it holds an error or
// takes longer than a few seconds.
func mustGet[R any](t *testing.T, f *Future[R]) R {
	t.Helper()

	v, err := f.GetWithTimeout(5 * time.Second)
	if err != nil {
		t.Fatalf("task %d: unexpected error: %v", f.ID(), err)
	}
	return v
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(time.Millisecond)
	}
}
