// Package httpapi exposes the read-only HTTP surface: a keep-alive root,
// a ping endpoint, and event summaries for dashboards.
package httpapi

import (
	"net/http"
	"time"

	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

// Register attaches API routes to the provided mux.
func Register(mux *http.ServeMux, logger *slog.Logger, svc events.Service) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("✅ SlotBot läuft."))
	})

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"server":  "slotbot",
			"version": "v1",
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to write ping response", "err", err)
		}
	})

	registerEventRoutes(mux, logger, svc)
}
