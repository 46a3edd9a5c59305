package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/observelab/trafficgen/internal/loadtester"
)

func main() {
	var (
		baseURL = flag.String("base-url", "http://localhost:8080", "service to test")
		suite   = flag.String("suite", "full", "suite to run: quick, full or stress")
		threads = flag.Int("threads", 4, "concurrent requests per step")
		timeout = flag.Duration("duration", 10*time.Minute, "overall deadline for the run")
		token   = flag.String("token", "", "bearer token sent with every request")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	runner := loadtester.NewRunner(*baseURL, *token, *threads, logger)
	summary, err := runner.Run(ctx, *suite)
	if err != nil {
		logger.Fatalf("load test: %v", err)
	}

	fmt.Println()
	fmt.Printf("suite:    %s\n", summary.Suite)
	fmt.Printf("requests: %d\n", summary.Requests)
	fmt.Printf("failures: %d\n", summary.Failures)
	fmt.Printf("elapsed:  %s\n", summary.Elapsed.Round(time.Millisecond))

	if !summary.Passed() {
		os.Exit(1)
	}
}
