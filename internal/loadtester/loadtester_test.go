package loadtester

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRunQuickSuitePasses(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	runner := NewRunner(srv.URL, "", 4, quietLogger())
	summary, err := runner.Run(context.Background(), "quick")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !summary.Passed() {
		t.Fatalf("expected pass, got %d failures", summary.Failures)
	}
	if summary.Requests != 4 || atomic.LoadInt64(&hits) != 4 {
		t.Fatalf("requests=%d hits=%d, want 4", summary.Requests, hits)
	}
}

func TestRunCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	runner := NewRunner(srv.URL, "", 1, quietLogger())
	summary, err := runner.Run(context.Background(), "quick")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Passed() || summary.Failures != 1 {
		t.Fatalf("failures=%d, want 1", summary.Failures)
	}
}

func TestRunUnknownSuite(t *testing.T) {
	runner := NewRunner("http://localhost:0", "", 1, quietLogger())
	if _, err := runner.Run(context.Background(), "nonsense"); err == nil {
		t.Fatal("expected error for unknown suite")
	}
}

func TestTokenHeaderSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	runner := NewRunner(srv.URL, "secret", 1, quietLogger())
	if _, err := runner.Run(context.Background(), "quick"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
}

func TestSuiteStepsKnownSuites(t *testing.T) {
	for _, suite := range []string{"quick", "full", "stress"} {
		steps, err := SuiteSteps(suite)
		if err != nil {
			t.Fatalf("%s: %v", suite, err)
		}
		if len(steps) == 0 {
			t.Fatalf("%s: no steps", suite)
		}
		for _, s := range steps {
			if s.Name == "" || s.Method == "" || s.Path == "" {
				t.Fatalf("%s: incomplete step %+v", suite, s)
			}
		}
	}
}
