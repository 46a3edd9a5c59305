// Package worker holds the background goroutines the service runs next to the
// HTTP listener: a periodic metrics reporter and a runner for async tasks.
// Both are started under the server's root context and joined on shutdown.
package worker

import (
	"context"
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/observelab/trafficgen/internal/metrics"
)

// Reporter logs a metrics snapshot together with process and synthetic gauges
// on a fixed interval. It gives log-scraping agents a steady signal even when
// no requests are flowing.
type Reporter struct {
	registry *metrics.Registry
	interval time.Duration
	logger   *log.Logger
}

func NewReporter(registry *metrics.Registry, interval time.Duration, logger *log.Logger) *Reporter {
	return &Reporter{registry: registry, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled, emitting one report per interval.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Printf("reporter started, interval=%s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("reporter stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	snap := r.registry.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	// The gauges are synthetic on purpose: they move every tick so that
	// downstream collectors always see fresh values.
	cpu := 10 + rand.Float64()*70
	memPct := 30 + rand.Float64()*40

	r.logger.Printf(
		"METRICS requests=%d errors=%d avg_response_ms=%.2f max_response_ms=%.2f goroutines=%d heap_alloc_mb=%.1f cpu_percent=%.1f memory_percent=%.1f",
		snap.TotalRequests,
		snap.TotalErrors,
		snap.AvgResponseMS,
		snap.MaxResponseMS,
		runtime.NumGoroutine(),
		float64(mem.HeapAlloc)/(1024*1024),
		cpu,
		memPct,
	)
}
