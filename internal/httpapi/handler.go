// Package httpapi serves the demo endpoints. Each one produces a distinct,
// controllable traffic pattern so a monitoring agent pointed at the process
// has something worth watching: CPU burn, heap churn, database round trips,
// outbound calls, injected failures and async work.
package httpapi

import (
	"log"
	"time"

	"github.com/observelab/trafficgen/internal/cache"
	"github.com/observelab/trafficgen/internal/events"
	"github.com/observelab/trafficgen/internal/metrics"
	"github.com/observelab/trafficgen/internal/simulate"
	"github.com/observelab/trafficgen/internal/store"
	"github.com/observelab/trafficgen/internal/upstream"
	"github.com/observelab/trafficgen/internal/worker"
)

const (
	serviceName    = "trafficgen"
	serviceVersion = "1.0.0"
)

// Caps on caller-supplied knobs so a single request cannot wedge the process.
const (
	maxCPUIterations = 50_000_000
	maxMemoryMB      = 256
)

type Handler struct {
	repo      store.Repository
	sim       *simulate.Simulator
	registry  *metrics.Registry
	tasks     *worker.TaskRunner
	publisher events.Publisher
	userCache *cache.Loader
	external  *upstream.Client
	payment   *upstream.Client
	inventory *upstream.Client

	paymentSuccessRate float64
	logger             *log.Logger
	startedAt          time.Time
}

type HandlerOptions struct {
	Repo               store.Repository
	Simulator          *simulate.Simulator
	Registry           *metrics.Registry
	Tasks              *worker.TaskRunner
	Publisher          events.Publisher
	UserCache          *cache.Loader
	External           *upstream.Client
	Payment            *upstream.Client
	Inventory          *upstream.Client
	PaymentSuccessRate float64
	Logger             *log.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{
		repo:               opts.Repo,
		sim:                opts.Simulator,
		registry:           opts.Registry,
		tasks:              opts.Tasks,
		publisher:          opts.Publisher,
		userCache:          opts.UserCache,
		external:           opts.External,
		payment:            opts.Payment,
		inventory:          opts.Inventory,
		paymentSuccessRate: opts.PaymentSuccessRate,
		logger:             opts.Logger,
		startedAt:          time.Now(),
	}
}
