package cli

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"github.com/utkarsh5026/tpool/internal/config"
	"github.com/utkarsh5026/tpool/pool"
)

// shouldFail picks the tasks that get a zero divisor. The choice is a pure
// function of the task index, so repeated runs fail the same tasks.
func shouldFail(n int, rate float64) bool {
	if rate <= 0 {
		return false
	}
	return n%100 < int(math.Round(rate*100))
}

// newWorkload returns the task run by the run and bench commands for the
// configured workload. Every task divides its result by a divisor that is
// zero for the tasks selected by failure_rate, so injected failures surface
// as integer division panics.
func newWorkload(cfg *config.Config) (pool.ProcessFunc[int, int], error) {
	var body func(n int) int

	switch cfg.Workload {
	case config.WorkloadSquare:
		body = func(n int) int { return n * n }
	case config.WorkloadCPU:
		d := cfg.TaskDuration
		body = func(n int) int { return spin(n, d) }
	case config.WorkloadSleep:
		d := cfg.TaskDuration
		body = func(n int) int {
			time.Sleep(d)
			return n
		}
	default:
		return nil, fmt.Errorf("unknown workload %q", cfg.Workload)
	}

	rate := cfg.FailureRate
	return func(_ context.Context, n int) (int, error) {
		divisor := 1
		if shouldFail(n, rate) {
			divisor = 0
		}
		return body(n) / divisor, nil
	}, nil
}

// spin hashes repeatedly until d has elapsed and returns a value derived
// from the work done, so the loop cannot be optimised away.
func spin(n int, d time.Duration) int {
	h := fnv.New64a()
	buf := []byte(strconv.Itoa(n))
	deadline := time.Now().Add(d)

	var rounds int
	for {
		for range 256 {
			_, _ = h.Write(buf)
			buf = h.Sum(buf[:0])
		}
		rounds++
		if !time.Now().Before(deadline) {
			break
		}
	}
	return int(h.Sum64()%1000) + rounds
}
