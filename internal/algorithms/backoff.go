package algorithms

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift caps the exponent so that 1<<attempt never overflows int64.
const maxShift = 62

// BackoffType selects the delay curve used between retry attempts.
type BackoffType int

const (
	// BackoffExponential doubles the delay on every attempt (default).
	BackoffExponential BackoffType = iota
	// BackoffJittered is exponential backoff scaled by a random factor in
	// [1-jitter, 1+jitter].
	BackoffJittered
	// BackoffDecorrelated picks each delay at random between the initial
	// delay and three times the previous one.
	BackoffDecorrelated
)

func (b BackoffType) String() string {
	switch b {
	case BackoffExponential:
		return "exponential"
	case BackoffJittered:
		return "jittered"
	case BackoffDecorrelated:
		return "decorrelated"
	default:
		return "unknown"
	}
}

// BackoffStrategy computes the pause before a retry.
//
// Stateful strategies guard their state with a mutex, so one instance may be
// shared. Reset returns a strategy to its initial state between tasks.
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (0-indexed:
	// 0 is the first retry after the initial failure).
	NextDelay(attempt int, lastErr error) time.Duration

	// Reset forgets any state accumulated by previous calls.
	Reset()
}

// NewBackoffStrategy builds the strategy described by kind.
// A non-positive maxDelay means "no cap".
func NewBackoffStrategy(kind BackoffType, initialDelay, maxDelay time.Duration, jitter float64) BackoffStrategy {
	if maxDelay <= 0 {
		maxDelay = time.Duration(1<<63 - 1)
	}

	switch kind {
	case BackoffJittered:
		return &jitteredBackoff{
			initial: initialDelay,
			max:     maxDelay,
			jitter:  clamp(jitter, 0, 1),
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	case BackoffDecorrelated:
		return &decorrelatedBackoff{
			initial: initialDelay,
			max:     maxDelay,
			prev:    initialDelay,
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	default:
		return &exponentialBackoff{initial: initialDelay, max: maxDelay}
	}
}

// exponentialBackoff yields initial * 2^attempt, capped at max.
type exponentialBackoff struct {
	initial, max time.Duration
}

func (b *exponentialBackoff) NextDelay(attempt int, _ error) time.Duration {
	return exponentialDelay(attempt, b.initial, b.max)
}

func (b *exponentialBackoff) Reset() {}

// jitteredBackoff spreads simultaneous retries apart so that tasks failing
// together do not come back together.
type jitteredBackoff struct {
	initial, max time.Duration
	jitter       float64

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func (b *jitteredBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}

	base := exponentialDelay(attempt, b.initial, b.max)

	b.mu.Lock()
	factor := 1 + (b.rng.Float64()*2-1)*b.jitter
	b.mu.Unlock()

	return clamp(time.Duration(float64(base)*factor), 0, b.max)
}

func (b *jitteredBackoff) Reset() {}

// decorrelatedBackoff follows sleep = rand(initial, prev*3), capped at max.
// Each delay depends on the previous one rather than on the attempt number.
type decorrelatedBackoff struct {
	initial, max time.Duration

	mu   sync.Mutex
	prev time.Duration
	rng  *rand.Rand
}

func (b *decorrelatedBackoff) NextDelay(attempt int, _ error) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if attempt <= 0 {
		b.prev = b.initial
		return b.initial
	}

	upper := b.max
	if b.prev <= b.max/3 {
		upper = b.prev * 3
	}
	if upper <= b.initial {
		b.prev = b.initial
		return b.initial
	}

	delay := b.initial + time.Duration(b.rng.Int63n(int64(upper-b.initial)))
	b.prev = delay
	return delay
}

func (b *decorrelatedBackoff) Reset() {
	b.mu.Lock()
	b.prev = b.initial
	b.mu.Unlock()
}

func exponentialDelay(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt > maxShift {
		return maxDelay
	}

	delay := initial * time.Duration(int64(1)<<uint(attempt))
	if delay > maxDelay || delay < 0 || (initial > 0 && delay/initial != time.Duration(int64(1)<<uint(attempt))) {
		return maxDelay
	}
	return delay
}

func clamp[N ~int64 | ~float64](v, lo, hi N) N {
	return max(lo, min(v, hi))
}
