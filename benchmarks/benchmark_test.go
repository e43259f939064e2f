package benchmarks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utkarsh5026/tpool/pool"
)

// =============================================================================
// Benchmark Workload Generators
// =============================================================================

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations int) pool.ProcessFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		result := 0
		for i := 0; i < iterations; i++ {
			result += i * task
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) pool.ProcessFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		time.Sleep(delay)
		return task * 2, nil
	}
}

// mixedWork simulates a realistic workload with variable processing time
func mixedWork() pool.ProcessFunc[int, int] {
	return func(ctx context.Context, task int) (int, error) {
		delay := time.Duration(task%10) * 100 * time.Microsecond
		time.Sleep(delay)

		result := 0
		for i := 0; i < 1000; i++ {
			result += i
		}
		return result + task, nil
	}
}

// flakyWork fails the first attempt of every tenth task.
func flakyWork() pool.ProcessFunc[int, int] {
	var attempts sync.Map
	return func(ctx context.Context, task int) (int, error) {
		val, _ := attempts.LoadOrStore(task, new(atomic.Int32))
		if val.(*atomic.Int32).Add(1) == 1 && task%10 == 0 {
			return 0, errors.New("transient")
		}
		return task * 2, nil
	}
}

// runBatch submits taskCount tasks to a fresh pool and waits for all of them.
func runBatch(b *testing.B, workers, taskCount int, fn pool.ProcessFunc[int, int], opts ...pool.Option) {
	b.Helper()

	p, err := pool.New(workers, opts...)
	if err != nil {
		b.Fatal(err)
	}

	futures := make([]*pool.Future[int], taskCount)
	for j := range taskCount {
		futures[j], err = pool.SubmitTask(p, fn, j)
		if err != nil {
			b.Fatal(err)
		}
	}
	for _, f := range futures {
		if _, err := f.Get(); err != nil {
			b.Fatal(err)
		}
	}
	p.Shutdown()
}

func reportThroughput(b *testing.B, taskCount int) {
	nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
	b.ReportMetric(float64(taskCount)/nsPerOp*1e9, "tasks/sec")
}

// =============================================================================
// Throughput Benchmarks - Core Performance Metrics
// =============================================================================

func BenchmarkThroughput_WorkerScaling(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16, 32}
	taskCount := 10000

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			fn := cpuBoundWork(100)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				runBatch(b, workers, taskCount, fn)
			}
			b.StopTimer()

			reportThroughput(b, taskCount)
		})
	}
}

func BenchmarkThroughput_LoadScaling(b *testing.B) {
	taskCounts := []int{100, 1000, 10000, 100000}
	workers := 8

	for _, taskCount := range taskCounts {
		b.Run(fmt.Sprintf("tasks_%d", taskCount), func(b *testing.B) {
			fn := cpuBoundWork(100)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				runBatch(b, workers, taskCount, fn)
			}
			b.StopTimer()

			reportThroughput(b, taskCount)
		})
	}
}

// =============================================================================
// Submission Benchmarks
// =============================================================================

func BenchmarkSubmit_SingleProducer(b *testing.B) {
	p, err := pool.New(4)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()

	fn := func() (int, error) { return 1, nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pool.Submit(p, fn); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSubmit_ParallelProducers(b *testing.B) {
	p, err := pool.New(4)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()

	fn := func() error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := p.Execute(fn); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkSubmit_RoundTrip(b *testing.B) {
	p, err := pool.New(1)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()

	square := func(_ context.Context, n int) (int, error) { return n * n, nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f, err := pool.SubmitTask(p, square, i)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := f.Get(); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Feature Overhead Benchmarks
// =============================================================================

func BenchmarkFeatures(b *testing.B) {
	const (
		workers   = 4
		taskCount = 1000
	)

	features := []struct {
		name string
		fn   func() pool.ProcessFunc[int, int]
		opts []pool.Option
	}{
		{"baseline", func() pool.ProcessFunc[int, int] { return cpuBoundWork(100) }, nil},
		{"with_retry", flakyWork, []pool.Option{pool.WithRetryPolicy(3, time.Microsecond)}},
		{"with_rate_limit", func() pool.ProcessFunc[int, int] { return cpuBoundWork(100) }, []pool.Option{pool.WithRateLimit(1e9, taskCount)}},
		{"with_hooks", func() pool.ProcessFunc[int, int] { return cpuBoundWork(100) }, []pool.Option{
			pool.WithBeforeTaskStart(func(pool.TaskInfo) {}),
			pool.WithOnTaskEnd(func(pool.TaskInfo, error) {}),
		}},
		{"with_metrics", func() pool.ProcessFunc[int, int] { return cpuBoundWork(100) }, []pool.Option{
			pool.WithMetrics(pool.NewMetrics("bench", "features")),
		}},
	}

	for _, feature := range features {
		b.Run(feature.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// flakyWork remembers attempts, so every batch gets a fresh one.
				runBatch(b, workers, taskCount, feature.fn(), feature.opts...)
			}
			b.StopTimer()

			reportThroughput(b, taskCount)
		})
	}
}

// =============================================================================
// Workload Benchmarks
// =============================================================================

func BenchmarkWorkload_CPUBound(b *testing.B) {
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			fn := cpuBoundWork(10000)
			for i := 0; i < b.N; i++ {
				runBatch(b, workers, 1000, fn)
			}
			reportThroughput(b, 1000)
		})
	}
}

func BenchmarkWorkload_IOBound(b *testing.B) {
	for _, workers := range []int{8, 32, 128} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			fn := ioBoundWork(time.Millisecond)
			for i := 0; i < b.N; i++ {
				runBatch(b, workers, 256, fn)
			}
			reportThroughput(b, 256)
		})
	}
}

func BenchmarkWorkload_Mixed(b *testing.B) {
	fn := mixedWork()
	for i := 0; i < b.N; i++ {
		runBatch(b, 16, 500, fn)
	}
	reportThroughput(b, 500)
}

// =============================================================================
// Latency Benchmarks
// =============================================================================

func BenchmarkLatencyDistribution(b *testing.B) {
	p, err := pool.New(4)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Shutdown()

	fn := cpuBoundWork(100)
	latencies := make([]time.Duration, 0, b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := time.Now()
		f, err := pool.SubmitTask(p, fn, i)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := f.Get(); err != nil {
			b.Fatal(err)
		}
		latencies = append(latencies, time.Since(start))
	}
	b.StopTimer()

	b.ReportMetric(float64(percentile(latencies, 50).Nanoseconds()), "p50-ns")
	b.ReportMetric(float64(percentile(latencies, 95).Nanoseconds()), "p95-ns")
	b.ReportMetric(float64(percentile(latencies, 99).Nanoseconds()), "p99-ns")
}

// =============================================================================
// Comparison Benchmarks
// =============================================================================

func BenchmarkComparison_Sequential(b *testing.B) {
	fn := cpuBoundWork(1000)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		for j := 0; j < 1000; j++ {
			if _, err := fn(ctx, j); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkComparison_WorkerPool(b *testing.B) {
	fn := cpuBoundWork(1000)
	for i := 0; i < b.N; i++ {
		runBatch(b, pool.DefaultWorkerCount(), 1000, fn)
	}
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	index = max(0, min(index, len(sorted)-1))
	return sorted[index]
}
