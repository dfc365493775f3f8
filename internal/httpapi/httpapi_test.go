package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/accounts"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/manager"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/session"
)

// stubManager scripts the registry surface per test.
type stubManager struct {
	createErr error
	getErr    error
	joinErr   error
	spawnErr  error
	leaveErr  error
	removeErr error
	snap      session.Snapshot
	list      []session.Snapshot
}

func (s *stubManager) Create(context.Context, string) (session.Snapshot, error) {
	return s.snap, s.createErr
}
func (s *stubManager) Get(string) (session.Snapshot, error) { return s.snap, s.getErr }
func (s *stubManager) List() []session.Snapshot             { return s.list }
func (s *stubManager) Players(string) ([]session.Actor, error) {
	return s.snap.Roster, s.getErr
}
func (s *stubManager) Join(context.Context, string, string) error { return s.joinErr }
func (s *stubManager) Spawn(context.Context, string) error        { return s.spawnErr }
func (s *stubManager) Leave(context.Context, string) error        { return s.leaveErr }
func (s *stubManager) Remove(context.Context, string) error       { return s.removeErr }

func newServer(t *testing.T, m BotManager) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(SetupRoutes(m, slog.Default()))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateBot(t *testing.T) {
	m := &stubManager{snap: session.Snapshot{ID: "bot-1", Phase: "in_room", Room: "Arena (#1)"}}
	srv := newServer(t, m)

	resp, err := http.Post(srv.URL+"/bots", "application/json",
		strings.NewReader(`{"room": "Arena (#1)"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "bot-1", snap.ID)
	assert.Equal(t, "in_room", snap.Phase)
}

func TestCreateBotWithoutRoom(t *testing.T) {
	m := &stubManager{snap: session.Snapshot{ID: "bot-1", Phase: "idle"}}
	srv := newServer(t, m)

	// An empty body registers an idle bot.
	resp, err := http.Post(srv.URL+"/bots", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateBotBadBody(t *testing.T) {
	srv := newServer(t, &stubManager{})
	resp, err := http.Post(srv.URL+"/bots", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"pool exhausted", accounts.ErrPoolExhausted, http.StatusServiceUnavailable},
		{"join timeout", session.ErrJoinTimeout, http.StatusGatewayTimeout},
		{"join in progress", session.ErrJoinInProgress, http.StatusConflict},
		{"channel closed", session.ErrChannelClosed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, &stubManager{createErr: tc.err})
			resp, err := http.Post(srv.URL+"/bots", "application/json",
				strings.NewReader(`{"room": "Arena (#1)"}`))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Contains(t, body["error"], tc.err.Error())
		})
	}
}

func TestGetBotNotFound(t *testing.T) {
	srv := newServer(t, &stubManager{getErr: manager.ErrUnknownBot})
	resp, err := http.Get(srv.URL + "/bots/bot-9")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListBots(t *testing.T) {
	m := &stubManager{list: []session.Snapshot{
		{ID: "bot-1", Phase: "in_room"},
		{ID: "bot-2", Phase: "idle"},
	}}
	srv := newServer(t, m)

	resp, err := http.Get(srv.URL + "/bots")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "bot-1", list[0].ID)
}

func TestDeleteAndSpawn(t *testing.T) {
	srv := newServer(t, &stubManager{})

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/bots/bot-1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/bots/bot-1/spawn", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPlayers(t *testing.T) {
	m := &stubManager{snap: session.Snapshot{
		ID:    "bot-1",
		Phase: "in_room",
		Roster: []session.Actor{
			{ActorNumber: 7, DisplayName: "alice", Rank: 42},
			{ActorNumber: 9, DisplayName: "bob", Rank: 7},
		},
	}}
	srv := newServer(t, m)

	resp, err := http.Get(srv.URL + "/bots/bot-1/players")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roster []session.Actor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roster))
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].DisplayName)
}

func TestJoinAndLeave(t *testing.T) {
	srv := newServer(t, &stubManager{})

	resp, err := http.Post(srv.URL+"/bots/bot-1/join", "application/json",
		strings.NewReader(`{"room": "Arena (#1)"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/bots/bot-1/leave", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSpawnOutsideRoomConflicts(t *testing.T) {
	srv := newServer(t, &stubManager{spawnErr: session.ErrNotInRoom})
	resp, err := http.Post(srv.URL+"/bots/bot-1/spawn", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, &stubManager{})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	srv := newServer(t, &stubManager{})
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
