package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/observelab/trafficgen/internal/cache"
	"github.com/observelab/trafficgen/internal/config"
	"github.com/observelab/trafficgen/internal/db"
	"github.com/observelab/trafficgen/internal/events"
	"github.com/observelab/trafficgen/internal/httpapi"
	"github.com/observelab/trafficgen/internal/metrics"
	"github.com/observelab/trafficgen/internal/simulate"
	"github.com/observelab/trafficgen/internal/store"
	"github.com/observelab/trafficgen/internal/upstream"
	"github.com/observelab/trafficgen/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[trafficgen] ", log.LstdFlags|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repository: Postgres when a DSN is configured, in-memory otherwise.
	var repo store.Repository
	if cfg.DatabaseDSN != "" {
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				logger.Fatalf("migrations: %v", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		repo = store.NewPostgresRepository(pool)
		logger.Println("using postgres repository")
	} else {
		repo = store.NewMemoryRepository()
		logger.Println("using in-memory repository")
	}

	// Events: RabbitMQ when configured, otherwise a no-op publisher.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("connect rabbitmq: %v", err)
		}
		publisher = p
		logger.Println("publishing events to rabbitmq")
	}
	defer publisher.Close()

	// Cache: Redis when configured, otherwise a process-local TTL map.
	var cacheStore cache.Store = cache.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs := cache.NewRedisStore(cfg.RedisAddr)
		defer rs.Close()
		cacheStore = rs
		logger.Println("caching in redis")
	}

	external, err := upstream.NewClient("external-api", cfg.ExternalAPIURL, cfg.UpstreamTimeout)
	if err != nil {
		logger.Fatalf("external api client: %v", err)
	}
	payment, err := upstream.NewClient("payment", cfg.PaymentServiceURL, cfg.UpstreamTimeout)
	if err != nil {
		logger.Fatalf("payment client: %v", err)
	}
	inventory, err := upstream.NewClient("inventory", cfg.InventoryServiceURL, cfg.UpstreamTimeout)
	if err != nil {
		logger.Fatalf("inventory client: %v", err)
	}

	registry := metrics.NewRegistry()
	runner := worker.NewTaskRunner(publisher, time.Duration(cfg.MaxTaskSeconds)*time.Second, logger)
	reporter := worker.NewReporter(registry, cfg.ReportInterval, logger)

	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run(ctx)
	}()

	handler := httpapi.NewHandler(httpapi.HandlerOptions{
		Repo:               repo,
		Simulator:          simulate.New(logger),
		Registry:           registry,
		Tasks:              runner,
		Publisher:          publisher,
		UserCache:          cache.NewLoader(cacheStore, cfg.CacheTTL),
		External:           external,
		Payment:            payment,
		Inventory:          inventory,
		PaymentSuccessRate: cfg.PaymentSuccessRate,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.NewRouter(handler, registry, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Printf("task runner shutdown: %v", err)
	}
	<-reporterDone
	logger.Println("bye")
}
