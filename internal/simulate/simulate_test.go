package simulate

import (
	"context"
	"io"
	"log"
	"testing"
	"time"
)

func newTestSimulator() *Simulator {
	return New(log.New(io.Discard, "", 0))
}

func TestOperationDurationWithinBounds(t *testing.T) {
	s := newTestSimulator()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		min, max := time.Millisecond, 5*time.Millisecond
		start := time.Now()
		d := s.Operation(ctx, "database_select", min, max)
		elapsed := time.Since(start)

		if d < min || d >= max {
			t.Fatalf("sampled duration %v outside [%v, %v)", d, min, max)
		}
		if elapsed < d {
			t.Fatalf("slept %v, shorter than sampled %v", elapsed, d)
		}
	}
}

func TestOperationDegenerateRange(t *testing.T) {
	s := newTestSimulator()

	d := s.Operation(context.Background(), "noop", time.Millisecond, time.Millisecond)
	if d != time.Millisecond {
		t.Fatalf("expected min duration for empty range, got %v", d)
	}
}

func TestOperationHonorsCancellation(t *testing.T) {
	s := newTestSimulator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	s.Operation(ctx, "slow", time.Second, 2*time.Second)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("cancelled operation still slept %v", elapsed)
	}
}

func TestCacheLookupHitRateExtremes(t *testing.T) {
	s := newTestSimulator()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !s.CacheLookup(ctx, "k", 1.0) {
			t.Fatalf("hit rate 1.0 produced a miss")
		}
		if s.CacheLookup(ctx, "k", 0.0) {
			t.Fatalf("hit rate 0.0 produced a hit")
		}
	}
}

func TestBusinessLogicReturnsTotal(t *testing.T) {
	s := newTestSimulator()

	total := s.BusinessLogic(context.Background(), "pricing_calculation", "medium")
	// validation (>=10ms) plus three steps (>=20ms each).
	if total < 70*time.Millisecond {
		t.Fatalf("total %v implausibly small", total)
	}
}
