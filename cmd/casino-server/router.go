package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/logging"
	"github.com/Richrosh3/online-casino/internal/registry"
	"github.com/Richrosh3/online-casino/internal/ws"
)

func newRouter(reg *registry.Registry, hub *ws.Hub, led ledger.Ledger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(led))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Get("/sessions/{kind}", listSessionsHandler(reg))
		r.Post("/sessions/{kind}", createSessionHandler(reg))
	})

	// The socket upgrade must not pass through the request logger: the
	// connection outlives the request.
	r.Get("/ws/{kind}/{session}", hub.HandleWS)
	return r
}

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

func healthHandler(led ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A zero-grant ensure round-trips the backing store.
		if err := led.Ensure(r.Context(), "healthcheck", 0); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// listSessionsHandler maps live session ids to their player counts, which
// is all a lobby needs to render join buttons.
func listSessionsHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := game.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			writeHTTPError(w, http.StatusNotFound, "unknown_game")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"game":     string(kind),
			"sessions": reg.ListActive(kind),
		})
	}
}

func createSessionHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := game.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			writeHTTPError(w, http.StatusNotFound, "unknown_game")
			return
		}
		id := reg.NewID()
		if _, err := reg.GetOrCreate(id, kind); err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": id,
			"game":       string(kind),
		})
	}
}
