package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/accounts"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/manager"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/session"
)

// BotManager is the registry surface the API serves from. The concrete
// implementation is manager.Manager.
type BotManager interface {
	Create(ctx context.Context, room string) (session.Snapshot, error)
	Get(id string) (session.Snapshot, error)
	List() []session.Snapshot
	Players(id string) ([]session.Actor, error)
	Join(ctx context.Context, id, room string) error
	Spawn(ctx context.Context, id string) error
	Leave(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

type api struct {
	mgr BotManager
	log *slog.Logger
}

type createBotRequest struct {
	// Room is optional on create; an empty room registers an idle bot.
	Room string `json:"room"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *api) createBot(w http.ResponseWriter, r *http.Request) {
	var req createBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	snap, err := a.mgr.Create(r.Context(), req.Room)
	if err != nil {
		a.log.Warn("bot create failed", "room", req.Room, "err", err)
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (a *api) listBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.mgr.List())
}

func (a *api) getBot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.mgr.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) deleteBot(w http.ResponseWriter, r *http.Request) {
	if err := a.mgr.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listPlayers(w http.ResponseWriter, r *http.Request) {
	roster, err := a.mgr.Players(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if roster == nil {
		roster = []session.Actor{}
	}
	writeJSON(w, http.StatusOK, roster)
}

func (a *api) joinBot(w http.ResponseWriter, r *http.Request) {
	var req createBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Room == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"room\": \"...\"}"})
		return
	}
	if err := a.mgr.Join(r.Context(), chi.URLParam(r, "id"), req.Room); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) leaveBot(w http.ResponseWriter, r *http.Request) {
	if err := a.mgr.Leave(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) spawnBot(w http.ResponseWriter, r *http.Request) {
	if err := a.mgr.Spawn(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps domain errors onto management API status codes.
func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, manager.ErrUnknownBot):
		status = http.StatusNotFound
	case errors.Is(err, accounts.ErrPoolExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, session.ErrJoinTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, session.ErrJoinInProgress), errors.Is(err, session.ErrNotInRoom):
		status = http.StatusConflict
	case errors.Is(err, session.ErrChannelClosed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
