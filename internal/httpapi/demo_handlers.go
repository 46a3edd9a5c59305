package httpapi

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/observelab/trafficgen/internal/middleware"
	"github.com/observelab/trafficgen/internal/store"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        serviceName,
		"version":        serviceVersion,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"requests":       h.registry.Snapshot(),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		h.logger.Printf("readiness check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) SystemMetrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"service":        serviceName,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"memory": map[string]any{
			"heap_alloc_mb":   float64(mem.HeapAlloc) / (1024 * 1024),
			"heap_sys_mb":     float64(mem.HeapSys) / (1024 * 1024),
			"total_alloc_mb":  float64(mem.TotalAlloc) / (1024 * 1024),
			"num_gc":          mem.NumGC,
			"gc_pause_ms":     float64(mem.PauseTotalNs) / float64(time.Millisecond),
			"next_gc_mb":      float64(mem.NextGC) / (1024 * 1024),
			"heap_objects":    mem.HeapObjects,
			"stack_in_use_mb": float64(mem.StackInuse) / (1024 * 1024),
		},
		"requests": h.registry.Snapshot(),
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":       serviceName,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"metrics":       h.registry.Snapshot(),
		"entities":      counts,
		"tasks_started": h.tasks.Started(),
	})
}

func (h *Handler) CPUIntensive(w http.ResponseWriter, r *http.Request) {
	iterations := queryInt(r, "iterations", 1_000_000)
	if iterations < 1 {
		writeError(w, http.StatusBadRequest, "iterations must be positive")
		return
	}
	if iterations > maxCPUIterations {
		iterations = maxCPUIterations
	}

	start := time.Now()
	var sum float64
	for i := 0; i < iterations; i++ {
		sum += math.Sqrt(float64(i)) * math.Sin(float64(i))
	}
	elapsed := time.Since(start)

	h.logger.Printf("cpu burn: %d iterations in %s", iterations, elapsed)
	writeJSON(w, http.StatusOK, map[string]any{
		"operation":  "cpu_intensive",
		"iterations": iterations,
		"result":     sum,
		"elapsed_ms": toMillis(elapsed),
	})
}

func (h *Handler) MemoryTest(w http.ResponseWriter, r *http.Request) {
	sizeMB := queryInt(r, "size_mb", 10)
	if sizeMB < 1 {
		writeError(w, http.StatusBadRequest, "size_mb must be positive")
		return
	}
	if sizeMB > maxMemoryMB {
		sizeMB = maxMemoryMB
	}

	start := time.Now()
	block := make([]byte, sizeMB*1024*1024)
	// Touch each page so the allocation is real, not just reserved.
	for i := 0; i < len(block); i += 4096 {
		block[i] = byte(i)
	}
	checksum := 0
	for i := 0; i < len(block); i += 1024 * 1024 {
		checksum += int(block[i])
	}
	elapsed := time.Since(start)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"operation":     "memory_test",
		"allocated_mb":  sizeMB,
		"checksum":      checksum,
		"elapsed_ms":    toMillis(elapsed),
		"heap_alloc_mb": float64(mem.HeapAlloc) / (1024 * 1024),
	})
}

func (h *Handler) DatabaseOps(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("operation")
	if op == "" {
		op = "select"
	}

	start := time.Now()
	var result any
	switch op {
	case "select":
		rows, err := h.repo.SpendingReport(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		result = map[string]any{"rows": rows, "row_count": len(rows)}
	case "insert":
		n := rand.Intn(1_000_000)
		u := &store.User{
			Name:   fmt.Sprintf("generated-user-%d", n),
			Email:  fmt.Sprintf("generated-%d@example.com", n),
			Status: store.UserStatusActive,
		}
		if err := h.repo.CreateUser(r.Context(), u); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.userCache.Invalidate(r.Context(), usersCacheKey)
		result = map[string]any{"inserted_id": u.ID}
	case "update":
		users, err := h.repo.ListUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(users) == 0 {
			writeError(w, http.StatusNotFound, "no users to update")
			return
		}
		target := users[rand.Intn(len(users))]
		name := fmt.Sprintf("%s-updated-%d", target.Name, time.Now().Unix())
		if err := h.repo.RenameUser(r.Context(), target.ID, name); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.userCache.Invalidate(r.Context(), usersCacheKey)
		result = map[string]any{"updated_id": target.ID, "new_name": name}
	default:
		writeError(w, http.StatusBadRequest, "operation must be select, insert or update")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"operation":  op,
		"result":     result,
		"elapsed_ms": toMillis(time.Since(start)),
	})
}

func (h *Handler) ExternalAPI(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		target = h.external.BaseURL.String()
	}
	if u, err := url.Parse(target); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	ctx := r.Context()
	if secs := queryInt(r, "timeout", 0); secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	resp, err := h.external.GetURL(ctx, target)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"operation": "external_api",
			"url":       target,
			"error":     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"operation":           "external_api",
		"url":                 target,
		"status_code":         resp.StatusCode,
		"response_size_bytes": resp.BodyBytes,
		"elapsed_ms":          toMillis(resp.Elapsed),
	})
}

func (h *Handler) ErrorTest(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "http_error"
	}

	switch kind {
	case "http_error":
		statuses := []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable}
		status := statuses[rand.Intn(len(statuses))]
		h.logger.Printf("injected http error %d", status)
		writeJSON(w, status, map[string]any{
			"error":      "injected error",
			"error_type": "http_error",
			"status":     status,
		})
	case "db_error":
		err := h.repo.FaultyQuery(r.Context())
		h.logger.Printf("injected database error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      err.Error(),
			"error_type": "db_error",
		})
	case "panic":
		panic("injected panic from error-test endpoint")
	default:
		writeError(w, http.StatusBadRequest, "type must be http_error, db_error or panic")
	}
}

func (h *Handler) CustomMetrics(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "business"
	}

	switch kind {
	case "business":
		elapsed := h.sim.BusinessLogic(r.Context(), "business_metrics", "normal")
		writeJSON(w, http.StatusOK, map[string]any{
			"metric_type": "business",
			"elapsed_ms":  toMillis(elapsed),
			"metrics": map[string]any{
				"orders_processed":   rand.Intn(500),
				"revenue_usd":        math.Round(rand.Float64()*100000) / 100,
				"active_users":       rand.Intn(2000),
				"conversion_percent": math.Round(rand.Float64()*1000) / 100,
			},
		})
	case "technical":
		hit := h.sim.CacheLookup(r.Context(), "technical_metrics", 0.7)
		writeJSON(w, http.StatusOK, map[string]any{
			"metric_type": "technical",
			"cache_hit":   hit,
			"metrics": map[string]any{
				"queue_depth":        rand.Intn(100),
				"active_connections": rand.Intn(50),
				"cache_hit_ratio":    math.Round(rand.Float64()*100) / 100,
				"gc_runs":            readGCRuns(),
			},
		})
	default:
		writeError(w, http.StatusBadRequest, "type must be business or technical")
	}
}

func (h *Handler) AsyncTask(w http.ResponseWriter, r *http.Request) {
	secs := queryInt(r, "duration", 5)
	if secs < 1 {
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	}

	cid := middleware.GetCorrelationID(r.Context())
	id, ok := h.tasks.Submit(cid, time.Duration(secs)*time.Second)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"task_id":          id,
		"status":           "running",
		"duration_seconds": secs,
		"started_at":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) LoadTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	// A little of everything: cpu, memory, database, cache, business logic.
	cpuStart := time.Now()
	var sum float64
	for i := 0; i < 200_000; i++ {
		sum += math.Sqrt(float64(i))
	}
	cpuElapsed := time.Since(cpuStart)

	memStart := time.Now()
	block := make([]byte, 4*1024*1024)
	for i := 0; i < len(block); i += 4096 {
		block[i] = byte(i)
	}
	memElapsed := time.Since(memStart)

	dbElapsed := h.sim.Operation(ctx, "database", 20*time.Millisecond, 100*time.Millisecond)
	cacheHit := h.sim.CacheLookup(ctx, "load_test", 0.7)
	logicElapsed := h.sim.BusinessLogic(ctx, "load_test", r.URL.Query().Get("complexity"))

	writeJSON(w, http.StatusOK, map[string]any{
		"operation": "load_test",
		"steps": map[string]any{
			"cpu_ms":      toMillis(cpuElapsed),
			"cpu_result":  sum,
			"memory_ms":   toMillis(memElapsed),
			"database_ms": toMillis(dbElapsed),
			"cache_hit":   cacheHit,
			"logic_ms":    toMillis(logicElapsed),
		},
		"elapsed_ms": toMillis(time.Since(start)),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func toMillis(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}

func readGCRuns() uint32 {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return mem.NumGC
}
