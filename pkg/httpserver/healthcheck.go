package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrymomot/callgate/pkg/logger"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Liveness answers 200 "ALIVE" while the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every check with the request context bounded by timeout
// and answers 200 when all pass, 503 otherwise. The body maps check names
// to "ok" or the failure message.
func Readiness(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := make(map[string]string, len(names))

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			err := checks[name](ctx)
			cancel()

			if err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					logger.Component(name),
					logger.Error(err),
				)
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
