package middleware

import (
	"encoding/json"
	"log"
	"net/http"
)

// Recover converts handler panics into a JSON 500. The error_type field lets
// callers distinguish a panic from the deliberate error responses the error
// endpoints produce.
func Recover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("panic on %s %s: %v", r.Method, r.URL.Path, rec)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error":          "internal server error",
						"error_type":     "panic",
						"correlation_id": GetCorrelationID(r.Context()),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
