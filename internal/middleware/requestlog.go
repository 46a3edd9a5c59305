package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/observelab/trafficgen/internal/metrics"
)

// statusWriter captures the status code so the middleware can log and count it
// after the handler returns.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wrote {
		w.status = status
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	return w.ResponseWriter.Write(p)
}

// RequestLog times every request, records it in the registry, and sets an
// X-Response-Time header. Instrumentation lives here so handlers stay free of
// bookkeeping.
func RequestLog(registry *metrics.Registry, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			registry.RecordRequest(sw.status, elapsed)
			logger.Printf("%s %s -> %d in %s cid=%s",
				r.Method, r.URL.Path, sw.status, elapsed, GetCorrelationID(r.Context()))
		})
	}
}

// ResponseTime sets X-Response-Time before the handler writes. The value is
// measured up to the first write, which is when headers go out.
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(&timedWriter{ResponseWriter: w, start: start}, r)
	})
}

type timedWriter struct {
	http.ResponseWriter
	start time.Time
	wrote bool
}

func (w *timedWriter) WriteHeader(status int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(status)
}

func (w *timedWriter) Write(p []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(p)
}

func (w *timedWriter) stamp() {
	if !w.wrote {
		w.wrote = true
		w.Header().Set("X-Response-Time", fmt.Sprintf("%.2fms", float64(time.Since(w.start).Microseconds())/1000))
	}
}
