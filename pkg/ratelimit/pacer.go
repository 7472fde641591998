package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"apiscraper/pkg/config"
	"apiscraper/pkg/logger"
)

// Pacer blocks before outbound calls to keep request timing irregular
type Pacer interface {
	// Pace blocks for a duration within d, or until ctx is done.
	Pace(ctx context.Context, d config.Delay) error
}

// Jitter sleeps for a uniformly random duration within the requested bounds
type Jitter struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
	log   logger.Logger
}

// NewJitter creates a Jitter pacer backed by the runtime random source
func NewJitter(log logger.Logger) *Jitter {
	return &Jitter{
		sleep: sleepContext,
		log:   logger.OrNop(log),
	}
}

// NewSeededJitter creates a Jitter pacer with a deterministic random source
func NewSeededJitter(seed uint64, log logger.Logger) *Jitter {
	j := NewJitter(log)
	j.rng = rand.New(rand.NewPCG(seed, seed))
	return j
}

// Duration draws a delay from [d.Min, d.Max]. Swapped bounds are tolerated.
func (j *Jitter) Duration(d config.Delay) time.Duration {
	lo, hi := d.Min, d.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}

	span := int64(hi-lo) + 1
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.rng != nil {
		return lo + time.Duration(j.rng.Int64N(span))
	}
	return lo + time.Duration(rand.Int64N(span))
}

// Pace implements Pacer
func (j *Jitter) Pace(ctx context.Context, d config.Delay) error {
	wait := j.Duration(d)
	j.log.DebugWithFields("pacing", map[string]interface{}{
		"delay": wait,
		"min":   d.Min,
		"max":   d.Max,
	})
	return j.sleep(ctx, wait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop is a Pacer that never waits
type Nop struct{}

func (Nop) Pace(ctx context.Context, _ config.Delay) error {
	return ctx.Err()
}

// Recorder is a Pacer that records requested bounds without waiting
type Recorder struct {
	mu     sync.Mutex
	delays []config.Delay
}

func (r *Recorder) Pace(ctx context.Context, d config.Delay) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

// Delays returns the bounds passed to Pace, in call order
func (r *Recorder) Delays() []config.Delay {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]config.Delay, len(r.delays))
	copy(out, r.delays)
	return out
}

// Count returns how many Pace calls used exactly d
func (r *Recorder) Count(d config.Delay) int {
	n := 0
	for _, got := range r.Delays() {
		if got == d {
			n++
		}
	}
	return n
}
