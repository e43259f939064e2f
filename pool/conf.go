package pool

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/tpool/internal/algorithms"
)

// BackoffType selects the delay curve used between retry attempts.
type BackoffType = algorithms.BackoffType

const (
	BackoffExponential  = algorithms.BackoffExponential
	BackoffJittered     = algorithms.BackoffJittered
	BackoffDecorrelated = algorithms.BackoffDecorrelated
)

// Option is a functional option for configuring a Pool.
type Option func(*poolConfig)

type poolConfig struct {
	name    string
	logger  *zap.Logger
	baseCtx context.Context
	metrics *Metrics

	rateLimiter *rate.Limiter
	pinWorkers  bool

	maxAttempts         int
	backoffType         BackoffType
	backoffInitialDelay time.Duration
	backoffMaxDelay     time.Duration
	backoffJitterFactor float64

	beforeTaskStart func(TaskInfo)
	onTaskEnd       func(TaskInfo, error)
	onRetry         func(TaskInfo, int, error)
}

func createConfig(opts ...Option) *poolConfig {
	cfg := &poolConfig{
		name:                "tpool",
		logger:              zap.NewNop(),
		baseCtx:             context.Background(),
		maxAttempts:         1,
		backoffType:         BackoffExponential,
		backoffInitialDelay: 100 * time.Millisecond,
		backoffMaxDelay:     5 * time.Second,
		backoffJitterFactor: 0.1,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// newBackoff returns the strategy owned by one worker. The worker resets it
// before every task so history never carries over between tasks.
func (c *poolConfig) newBackoff() algorithms.BackoffStrategy {
	return algorithms.NewBackoffStrategy(
		c.backoffType,
		c.backoffInitialDelay,
		c.backoffMaxDelay,
		c.backoffJitterFactor,
	)
}

// WithName sets the pool name attached to every log line and Stats snapshot.
func WithName(name string) Option {
	return func(cfg *poolConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithLogger sets the structured logger used by the pool and its workers.
// If not specified, logging is disabled.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *poolConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithContext sets the context handed to every ProcessFunc.
// Cancelling it never removes queued tasks; callables decide for themselves
// whether to honour it.
func WithContext(ctx context.Context) Option {
	return func(cfg *poolConfig) {
		if ctx != nil {
			cfg.baseCtx = ctx
		}
	}
}

// WithMetrics registers Prometheus collectors that the pool keeps up to date.
func WithMetrics(m *Metrics) Option {
	return func(cfg *poolConfig) {
		cfg.metrics = m
	}
}

// WithRateLimit sets a rate limiter for controlling task throughput.
// tasksPerSecond specifies the maximum number of tasks started per second and
// burst the number that may start back to back.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *poolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithRetryPolicy makes a worker call a failing callable up to maxAttempts
// times before storing the last error in the task's Future. initialDelay is
// the pause before the first retry; later pauses follow the backoff curve.
// The task is still dequeued and completed exactly once.
// If not specified, callables are invoked once.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *poolConfig) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.backoffInitialDelay = initialDelay
		}
	}
}

// WithBackoff selects the retry delay curve. maxDelay caps every pause and
// jitter (0..1) is only used by BackoffJittered.
func WithBackoff(kind BackoffType, initialDelay, maxDelay time.Duration, jitter float64) Option {
	return func(cfg *poolConfig) {
		cfg.backoffType = kind
		if initialDelay > 0 {
			cfg.backoffInitialDelay = initialDelay
		}
		if maxDelay > 0 {
			cfg.backoffMaxDelay = maxDelay
		}
		if jitter >= 0 {
			cfg.backoffJitterFactor = jitter
		}
	}
}

// WithCPUAffinity dedicates every worker to its own OS thread and, where the
// platform supports it, pins that thread to one CPU core.
func WithCPUAffinity(enabled bool) Option {
	return func(cfg *poolConfig) {
		cfg.pinWorkers = enabled
	}
}

// WithBeforeTaskStart registers a hook called by the worker right before a
// task's callable runs.
func WithBeforeTaskStart(fn func(TaskInfo)) Option {
	return func(cfg *poolConfig) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd registers a hook called after a task's outcome has been
// written to its Future. err is the task's error, nil on success.
func WithOnTaskEnd(fn func(TaskInfo, error)) Option {
	return func(cfg *poolConfig) {
		cfg.onTaskEnd = fn
	}
}

// WithOnRetry registers a hook called before each retry with the attempt
// number that just failed (1-indexed) and its error.
func WithOnRetry(fn func(TaskInfo, int, error)) Option {
	return func(cfg *poolConfig) {
		cfg.onRetry = fn
	}
}
