// Package simulate provides the randomized-delay stand-ins for database,
// cache, and business-logic work that give generated traffic its shape.
package simulate

import (
	"context"
	"log"
	"math/rand"
	"time"
)

type Simulator struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Simulator {
	return &Simulator{logger: logger}
}

// Operation pauses for a uniformly sampled duration in [min, max) and returns
// the sampled duration. The pause is cut short if ctx is cancelled.
func (s *Simulator) Operation(ctx context.Context, label string, min, max time.Duration) time.Duration {
	d := between(min, max)
	s.logger.Printf("starting %s operation", label)
	sleep(ctx, d)
	s.logger.Printf("completed %s operation in %s", label, d)
	return d
}

// CacheLookup models a cache probe: hits come back in 1-5ms, misses in 10-30ms.
func (s *Simulator) CacheLookup(ctx context.Context, key string, hitRate float64) bool {
	s.logger.Printf("cache lookup for key %q", key)
	if rand.Float64() < hitRate {
		sleep(ctx, between(1*time.Millisecond, 5*time.Millisecond))
		s.logger.Printf("cache hit for key %q", key)
		return true
	}
	sleep(ctx, between(10*time.Millisecond, 30*time.Millisecond))
	s.logger.Printf("cache miss for key %q", key)
	return false
}

// BusinessLogic walks the validate/initialize/process/finalize steps. Only the
// process step cares about complexity: "high" sleeps 100-300ms, anything else
// stays in the 20-50ms band.
func (s *Simulator) BusinessLogic(ctx context.Context, name, complexity string) time.Duration {
	s.logger.Printf("processing %s with %s complexity", name, complexity)
	total := s.Operation(ctx, "validation", 10*time.Millisecond, 30*time.Millisecond)

	for _, step := range []string{"initialize", "process", "finalize"} {
		min, max := 20*time.Millisecond, 50*time.Millisecond
		if step == "process" && complexity == "high" {
			min, max = 100*time.Millisecond, 300*time.Millisecond
		}
		total += s.Operation(ctx, "step_"+step, min, max)
	}

	s.logger.Printf("%s completed", name)
	return total
}

func between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
