package loadtester

import (
	"fmt"
	"net/http"
)

// SuiteSteps returns the steps for one of the named suites. quick is a smoke
// pass, full touches every endpoint, stress leans on the expensive ones.
func SuiteSteps(suite string) ([]Step, error) {
	switch suite {
	case "quick":
		return []Step{
			{Name: "health", Method: http.MethodGet, Path: "/health", Accept: is(http.StatusOK)},
			{Name: "ready", Method: http.MethodGet, Path: "/ready", Accept: is(http.StatusOK)},
			{Name: "metrics", Method: http.MethodGet, Path: "/metrics", Accept: is(http.StatusOK)},
			{Name: "system-metrics", Method: http.MethodGet, Path: "/system-metrics", Accept: is(http.StatusOK)},
		}, nil
	case "full":
		return []Step{
			{Name: "health", Method: http.MethodGet, Path: "/health", Repeat: 5, Accept: is(http.StatusOK)},
			{Name: "ready", Method: http.MethodGet, Path: "/ready", Accept: is(http.StatusOK)},
			{Name: "system-metrics", Method: http.MethodGet, Path: "/system-metrics", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "cpu-intensive", Method: http.MethodGet, Path: "/cpu-intensive?iterations=500000", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "memory-test", Method: http.MethodGet, Path: "/memory-test?size_mb=20", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "database-select", Method: http.MethodGet, Path: "/database-ops?operation=select", Repeat: 5, Accept: is(http.StatusOK)},
			{Name: "database-insert", Method: http.MethodGet, Path: "/database-ops?operation=insert", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "database-update", Method: http.MethodGet, Path: "/database-ops?operation=update", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "external-api", Method: http.MethodGet, Path: "/external-api", Repeat: 2, Accept: below(600)},
			{Name: "error-http", Method: http.MethodGet, Path: "/error-test?type=http_error", Repeat: 3, Accept: in(500, 502, 503)},
			{Name: "error-database", Method: http.MethodGet, Path: "/error-test?type=db_error", Repeat: 2, Accept: is(500)},
			{Name: "error-panic", Method: http.MethodGet, Path: "/error-test?type=panic", Accept: is(500)},
			{Name: "custom-business", Method: http.MethodGet, Path: "/custom-metrics?type=business", Repeat: 2, Accept: is(http.StatusOK)},
			{Name: "custom-technical", Method: http.MethodGet, Path: "/custom-metrics?type=technical", Repeat: 2, Accept: is(http.StatusOK)},
			{Name: "async-task", Method: http.MethodPost, Path: "/async-task?duration=2", Repeat: 2, Accept: is(http.StatusAccepted)},
			{Name: "load-test", Method: http.MethodGet, Path: "/load-test", Repeat: 3, Accept: is(http.StatusOK)},
			{Name: "create-user", Method: http.MethodPost, Path: "/api/users", Body: randomUserBody, Repeat: 5, Accept: is(http.StatusCreated)},
			{Name: "list-users", Method: http.MethodGet, Path: "/api/users", Repeat: 5, Accept: is(http.StatusOK)},
			{Name: "create-order", Method: http.MethodPost, Path: "/api/orders", Body: firstUserOrderBody, Repeat: 3, Accept: in(201, 404)},
			{Name: "external-service", Method: http.MethodGet, Path: "/api/external-service", Repeat: 2, Accept: below(600)},
		}, nil
	case "stress":
		return []Step{
			{Name: "cpu-intensive", Method: http.MethodGet, Path: "/cpu-intensive?iterations=2000000", Repeat: 20, Accept: is(http.StatusOK)},
			{Name: "memory-test", Method: http.MethodGet, Path: "/memory-test?size_mb=50", Repeat: 20, Accept: is(http.StatusOK)},
			{Name: "load-test", Method: http.MethodGet, Path: "/load-test?complexity=high", Repeat: 30, Accept: is(http.StatusOK)},
			{Name: "database-select", Method: http.MethodGet, Path: "/database-ops?operation=select", Repeat: 30, Accept: is(http.StatusOK)},
			{Name: "create-user", Method: http.MethodPost, Path: "/api/users", Body: randomUserBody, Repeat: 50, Accept: is(http.StatusCreated)},
			{Name: "list-users", Method: http.MethodGet, Path: "/api/users", Repeat: 50, Accept: is(http.StatusOK)},
		}, nil
	default:
		return nil, fmt.Errorf("unknown suite %q (want quick, full or stress)", suite)
	}
}

// firstUserOrderBody orders two catalog products for the seeded first user. A
// 404 pass lets the full suite run against a fresh instance with no users.
func firstUserOrderBody() any {
	return map[string]any{
		"user_id":     1,
		"product_ids": []int64{2, 4},
	}
}

func is(status int) func(int) bool {
	return func(got int) bool { return got == status }
}

func in(statuses ...int) func(int) bool {
	return func(got int) bool {
		for _, s := range statuses {
			if got == s {
				return true
			}
		}
		return false
	}
}

func below(limit int) func(int) bool {
	return func(got int) bool { return got > 0 && got < limit }
}
