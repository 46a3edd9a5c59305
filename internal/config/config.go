package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// DatabaseDSN selects the Postgres repository when set; empty means the
	// in-memory store.
	DatabaseDSN   string
	RunMigrations bool

	RabbitURL string
	RedisAddr string

	ExternalAPIURL      string
	PaymentServiceURL   string
	InventoryServiceURL string
	UpstreamTimeout     time.Duration

	ReportInterval     time.Duration
	PaymentSuccessRate float64
	MaxTaskSeconds     int
	CacheTTL           time.Duration
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		DatabaseDSN:   getenv("DATABASE_DSN", ""),
		RunMigrations: parseBool(getenv("RUN_MIGRATIONS", "true"), true),

		RabbitURL: getenv("RABBITMQ_URL", ""),
		RedisAddr: getenv("REDIS_ADDR", ""),

		ExternalAPIURL:      getenv("EXTERNAL_API_URL", "https://httpbin.org/json"),
		PaymentServiceURL:   getenv("PAYMENT_SERVICE_URL", "https://httpbin.org/delay/1"),
		InventoryServiceURL: getenv("INVENTORY_SERVICE_URL", "https://httpbin.org/json"),
		UpstreamTimeout:     parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		ReportInterval:     parseDuration(getenv("REPORT_INTERVAL", "30s"), 30*time.Second),
		PaymentSuccessRate: parseFloat(getenv("PAYMENT_SUCCESS_RATE", "0.9"), 0.9),
		MaxTaskSeconds:     parseInt(getenv("MAX_TASK_SECONDS", "30"), 30),
		CacheTTL:           parseDuration(getenv("CACHE_TTL", "5s"), 5*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}
