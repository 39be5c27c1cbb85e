package hc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

func Handler(version, commit string, check Check) http.Handler {
	t := time.Now()
	fn := func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := check(ctx); err != nil {
				status, code = err.Error(), http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version": version,
			"commit":  commit,
			"status":  status,
			"uptime":  time.Since(t).String(),
		})
	}

	return http.HandlerFunc(fn)
}
