// Package loadtester drives traffic against a running trafficgen instance and
// reports pass/fail per endpoint. It is the client half of the demo: point it
// at a service, pick a suite, and watch the dashboards move.
package loadtester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Step is one endpoint exercised by a suite. Accept decides whether a status
// code counts as a pass; nil means any status below 500.
type Step struct {
	Name    string
	Method  string
	Path    string
	Body    func() any
	Repeat  int
	Accept  func(status int) bool
}

type StepResult struct {
	Name      string        `json:"name"`
	Requests  int           `json:"requests"`
	Failures  int           `json:"failures"`
	TotalTime time.Duration `json:"total_time"`
}

func (r StepResult) AvgTime() time.Duration {
	if r.Requests == 0 {
		return 0
	}
	return r.TotalTime / time.Duration(r.Requests)
}

type Summary struct {
	Suite    string       `json:"suite"`
	Steps    []StepResult `json:"steps"`
	Requests int          `json:"requests"`
	Failures int          `json:"failures"`
	Elapsed  time.Duration `json:"elapsed"`
}

func (s Summary) Passed() bool { return s.Failures == 0 }

type Runner struct {
	BaseURL string
	Token   string
	Threads int
	Client  *http.Client
	Logger  *log.Logger
}

func NewRunner(baseURL, token string, threads int, logger *log.Logger) *Runner {
	if threads < 1 {
		threads = 1
	}
	return &Runner{
		BaseURL: baseURL,
		Token:   token,
		Threads: threads,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

// Run executes every step of the named suite and returns the aggregate.
func (r *Runner) Run(ctx context.Context, suite string) (Summary, error) {
	steps, err := SuiteSteps(suite)
	if err != nil {
		return Summary{}, err
	}

	start := time.Now()
	summary := Summary{Suite: suite}
	for _, step := range steps {
		res := r.runStep(ctx, step)
		summary.Steps = append(summary.Steps, res)
		summary.Requests += res.Requests
		summary.Failures += res.Failures

		status := "PASS"
		if res.Failures > 0 {
			status = "FAIL"
		}
		r.Logger.Printf("%-28s %s  %d requests, %d failures, avg %s",
			res.Name, status, res.Requests, res.Failures, res.AvgTime().Round(time.Millisecond))
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) StepResult {
	repeat := step.Repeat
	if repeat < 1 {
		repeat = 1
	}

	var mu sync.Mutex
	res := StepResult{Name: step.Name}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Threads)
	for i := 0; i < repeat; i++ {
		g.Go(func() error {
			elapsed, status, err := r.call(ctx, step)

			mu.Lock()
			defer mu.Unlock()
			res.Requests++
			res.TotalTime += elapsed
			if err != nil || !accepted(step, status) {
				res.Failures++
				if err != nil {
					r.Logger.Printf("%s: %v", step.Name, err)
				} else {
					r.Logger.Printf("%s: unexpected status %d", step.Name, status)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (r *Runner) call(ctx context.Context, step Step) (time.Duration, int, error) {
	var body *bytes.Buffer
	if step.Body != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(step.Body()); err != nil {
			return 0, 0, err
		}
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, step.Method, r.BaseURL+step.Path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, step.Method, r.BaseURL+step.Path, nil)
	}
	if err != nil {
		return 0, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	start := time.Now()
	resp, err := r.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, 0, err
	}
	resp.Body.Close()
	return elapsed, resp.StatusCode, nil
}

func accepted(step Step, status int) bool {
	if step.Accept != nil {
		return step.Accept(status)
	}
	return status < 500
}

func randomUserBody() any {
	id := uuid.NewString()[:8]
	return map[string]string{
		"name":  fmt.Sprintf("load-user-%s", id),
		"email": fmt.Sprintf("load-%s@example.com", id),
	}
}
