// Package metrics keeps application-level counters behind a single mutex so
// they can be bumped from request middleware and background workers alike.
package metrics

import (
	"sync"
	"time"
)

type Registry struct {
	mu sync.Mutex

	totalRequests int64
	totalErrors   int64
	byClass       map[string]int64

	responseCount int64
	responseSum   time.Duration
	responseMax   time.Duration
}

type Snapshot struct {
	TotalRequests int64            `json:"total_requests"`
	TotalErrors   int64            `json:"total_errors"`
	ByStatusClass map[string]int64 `json:"by_status_class"`
	AvgResponseMS float64          `json:"avg_response_ms"`
	MaxResponseMS float64          `json:"max_response_ms"`
}

func NewRegistry() *Registry {
	return &Registry{byClass: make(map[string]int64)}
}

// RecordRequest tallies one finished request.
func (r *Registry) RecordRequest(status int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	if status >= 400 {
		r.totalErrors++
	}
	r.byClass[statusClass(status)]++

	r.responseCount++
	r.responseSum += elapsed
	if elapsed > r.responseMax {
		r.responseMax = elapsed
	}
}

func (r *Registry) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalErrors++
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		TotalRequests: r.totalRequests,
		TotalErrors:   r.totalErrors,
		ByStatusClass: make(map[string]int64, len(r.byClass)),
		MaxResponseMS: float64(r.responseMax) / float64(time.Millisecond),
	}
	for k, v := range r.byClass {
		s.ByStatusClass[k] = v
	}
	if r.responseCount > 0 {
		avg := r.responseSum / time.Duration(r.responseCount)
		s.AvgResponseMS = float64(avg) / float64(time.Millisecond)
	}
	return s
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
