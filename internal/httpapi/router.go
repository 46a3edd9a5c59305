package httpapi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/observelab/trafficgen/internal/metrics"
	"github.com/observelab/trafficgen/internal/middleware"
)

// routeList is returned on 404 so exploratory callers can discover the API.
var routeList = []string{
	"GET /health",
	"GET /ready",
	"GET /system-metrics",
	"GET /metrics",
	"GET /cpu-intensive?iterations=N",
	"GET /memory-test?size_mb=N",
	"GET /database-ops?operation=select|insert|update",
	"GET /external-api?url=U&timeout=S",
	"GET /error-test?type=http_error|db_error|panic",
	"GET /custom-metrics?type=business|technical",
	"POST /async-task?duration=S",
	"GET /load-test",
	"GET /api/users",
	"POST /api/users",
	"POST /api/orders",
	"GET /api/external-service",
}

func NewRouter(h *Handler, registry *metrics.Registry, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	// RequestLog sits outside Recover so recovered panics still get counted.
	r.Use(middleware.RequestLog(registry, logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.ResponseTime)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/system-metrics", h.SystemMetrics)
	r.Get("/metrics", h.Metrics)

	r.Get("/cpu-intensive", h.CPUIntensive)
	r.Get("/memory-test", h.MemoryTest)
	r.Get("/database-ops", h.DatabaseOps)
	r.Get("/external-api", h.ExternalAPI)
	r.Get("/error-test", h.ErrorTest)
	r.Get("/custom-metrics", h.CustomMetrics)
	r.Post("/async-task", h.AsyncTask)
	r.Get("/load-test", h.LoadTest)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Post("/orders", h.CreateOrder)
		r.Get("/external-service", h.ExternalService)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":            "not found",
			"path":             r.URL.Path,
			"available_routes": routeList,
		})
	})

	return r
}
