package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker checks database health
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

type checkStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every registered checker and reports aggregate health.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		overall := "healthy"
		checks := make(map[string]checkStatus, len(checkers))
		for name, checker := range checkers {
			if err := checker.Check(ctx); err != nil {
				overall = "unhealthy"
				checks[name] = checkStatus{Status: "unhealthy", Message: err.Error()}
			} else {
				checks[name] = checkStatus{Status: "healthy"}
			}
		}

		code := http.StatusOK
		if overall == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    checks,
		})
	}
}
