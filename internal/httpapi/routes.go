package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes builds the management API router.
func SetupRoutes(m BotManager, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	api := &api{mgr: m, log: log}
	r.Post("/bots", api.createBot)
	r.Get("/bots", api.listBots)
	r.Get("/bots/{id}", api.getBot)
	r.Delete("/bots/{id}", api.deleteBot)
	r.Get("/bots/{id}/players", api.listPlayers)
	r.Post("/bots/{id}/join", api.joinBot)
	r.Post("/bots/{id}/spawn", api.spawnBot)
	r.Post("/bots/{id}/leave", api.leaveBot)

	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
