// Package manager owns the set of live bot sessions. It leases accounts
// from the pool, dials channels (optionally through a rotating proxy list),
// and exposes the registry the HTTP API serves from.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/accounts"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/channel"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/config"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/metrics"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/session"
)

// ErrUnknownBot is returned for ids that are not in the registry.
var ErrUnknownBot = errors.New("manager: unknown bot")

// Manager creates, tracks, and tears down bot sessions.
type Manager struct {
	cfg     config.Config
	pool    *accounts.Pool
	codes   session.AuthCodeFetcher
	log     *slog.Logger
	proxies []*url.URL
	dialFn  session.DialFunc

	mu       sync.Mutex
	bots     map[string]*session.Session
	nextID   int
	proxyIdx int
}

// New builds a manager. Proxy entries from the configuration are parsed
// eagerly so a bad URL fails startup rather than the first join.
func New(cfg config.Config, pool *accounts.Pool, codes session.AuthCodeFetcher, log *slog.Logger) (*Manager, error) {
	m := &Manager{
		cfg:   cfg,
		pool:  pool,
		codes: codes,
		log:   log,
		bots:  make(map[string]*session.Session),
	}
	for _, raw := range cfg.Proxies {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("manager: proxy %q: %w", raw, err)
		}
		m.proxies = append(m.proxies, u)
	}
	m.dialFn = m.dial
	return m, nil
}

// Create leases an account and starts a session. With a non-empty room it
// also joins, blocking until the bot is in the room or the join fails; a
// failed join releases the session but not the account. With an empty room
// the bot is registered idle.
func (m *Manager) Create(ctx context.Context, room string) (session.Snapshot, error) {
	acc, err := m.pool.Next()
	if err != nil {
		return session.Snapshot{}, err
	}

	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("bot-%d", m.nextID)
	m.mu.Unlock()

	s := session.New(session.Config{
		ID: id,
		Credential: session.Credential{
			Username: acc.Username,
			Secret:   acc.Secret,
		},
		LobbyAddr:          m.cfg.LobbyAddr,
		AppID:              m.cfg.AppID,
		AppVersion:         m.cfg.AppVersion,
		AnnounceJoinInChat: m.cfg.AnnounceJoinInChat,
		Dial:               m.dialFn,
		AuthCodes:          m.codes,
		Logger:             m.log,
		JoinTimeout:        m.cfg.JoinTimeout(),
	})

	if room != "" {
		if err := s.Join(ctx, room); err != nil {
			s.Close()
			return session.Snapshot{}, err
		}
	}

	m.mu.Lock()
	m.bots[id] = s
	m.mu.Unlock()
	metrics.SessionsActive.Inc()
	m.log.Info("bot created", "bot", id, "room", room, "account", acc.Username)
	return s.Snapshot(), nil
}

// Get returns the snapshot for one bot.
func (m *Manager) Get(id string) (session.Snapshot, error) {
	m.mu.Lock()
	s, ok := m.bots[id]
	m.mu.Unlock()
	if !ok {
		return session.Snapshot{}, ErrUnknownBot
	}
	return s.Snapshot(), nil
}

// List returns snapshots for every registered bot, ordered by id.
func (m *Manager) List() []session.Snapshot {
	m.mu.Lock()
	all := make([]*session.Session, 0, len(m.bots))
	for _, s := range m.bots {
		all = append(all, s)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	out := make([]session.Snapshot, len(all))
	for i, s := range all {
		out[i] = s.Snapshot()
	}
	return out
}

// Players returns one bot's current roster.
func (m *Manager) Players(id string) ([]session.Actor, error) {
	snap, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return snap.Roster, nil
}

// Leave takes one bot out of its room without removing it from the
// registry; the account stays leased and the bot can join again.
func (m *Manager) Leave(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.bots[id]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownBot
	}
	return s.Leave(ctx)
}

// Join sends an already registered bot into a room.
func (m *Manager) Join(ctx context.Context, id, room string) error {
	m.mu.Lock()
	s, ok := m.bots[id]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownBot
	}
	return s.Join(ctx, room)
}

// Spawn triggers a spawn broadcast on one bot.
func (m *Manager) Spawn(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.bots[id]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownBot
	}
	return s.Spawn(ctx)
}

// Remove leaves the room, closes the session, and drops it from the
// registry.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.bots[id]
	if ok {
		delete(m.bots, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrUnknownBot
	}
	if err := s.Leave(ctx); err != nil {
		m.log.Warn("leave during removal failed", "bot", id, "err", err)
	}
	s.Close()
	metrics.SessionsActive.Dec()
	m.log.Info("bot removed", "bot", id)
	return nil
}

// Shutdown closes every session. Used on process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.bots
	m.bots = make(map[string]*session.Session)
	m.mu.Unlock()
	for id, s := range all {
		s.Close()
		metrics.SessionsActive.Dec()
		m.log.Debug("bot closed", "bot", id)
	}
}

// dial opens one websocket channel, rotating through the proxy list when
// one is configured.
func (m *Manager) dial(ctx context.Context, addr, role string) (session.Transport, error) {
	ch, err := channel.Dial(ctx, addr, channel.Config{
		Role:         role,
		ProxyURL:     m.nextProxy(),
		WriteTimeout: 10 * time.Second,
		Logger:       m.log,
	})
	if err != nil {
		return nil, err
	}
	return transport{ch}, nil
}

func (m *Manager) nextProxy() *url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.proxies) == 0 {
		return nil
	}
	u := m.proxies[m.proxyIdx%len(m.proxies)]
	m.proxyIdx++
	return u
}

// transport narrows *channel.Channel to the session's Transport interface.
// The handler types are structurally identical; only the Start signature
// differs.
type transport struct {
	*channel.Channel
}

func (t transport) Start(h session.TransportHandler) {
	t.Channel.Start(h)
}
