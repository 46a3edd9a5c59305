package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/observelab/trafficgen/internal/events"
)

// TaskRunner executes fire-and-forget background tasks. Every task gets a
// uuid, runs on its own goroutine under the runner's root context, and is
// joined on Shutdown so a stopping server never strands work mid-flight.
type TaskRunner struct {
	publisher events.Publisher
	logger    *log.Logger
	maxDur    time.Duration

	mu      sync.Mutex
	root    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
	started int64
}

func NewTaskRunner(publisher events.Publisher, maxDur time.Duration, logger *log.Logger) *TaskRunner {
	root, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		publisher: publisher,
		logger:    logger,
		maxDur:    maxDur,
		root:      root,
		cancel:    cancel,
	}
}

// Submit schedules a task that sleeps for d, capped at the configured maximum,
// and returns its id. The second return value is false once the runner is shut
// down. correlationID is carried into the published task events.
func (r *TaskRunner) Submit(correlationID string, d time.Duration) (string, bool) {
	if d < 0 {
		d = 0
	}
	if d > r.maxDur {
		d = r.maxDur
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", false
	}
	id := uuid.NewString()
	r.started++
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(id, correlationID, d)
	return id, true
}

// Started reports how many tasks have been accepted since startup.
func (r *TaskRunner) Started() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Shutdown stops accepting tasks and waits for running ones to finish, or for
// ctx to expire, whichever comes first.
func (r *TaskRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

func (r *TaskRunner) run(id, correlationID string, d time.Duration) {
	defer r.wg.Done()

	start := time.Now()
	r.logger.Printf("task %s started, duration=%s", id, d)
	if err := r.publisher.PublishTaskStarted(r.root, correlationID, id, int(d.Seconds())); err != nil {
		r.logger.Printf("task %s: publish started event: %v", id, err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-r.root.Done():
		r.logger.Printf("task %s cancelled after %s", id, time.Since(start))
		return
	case <-timer.C:
	}

	elapsed := time.Since(start)
	r.logger.Printf("task %s completed in %s", id, elapsed)
	if err := r.publisher.PublishTaskCompleted(r.root, correlationID, id, elapsed); err != nil {
		r.logger.Printf("task %s: publish completed event: %v", id, err)
	}
}
