package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/metrics"
	"github.com/cyberarchives/BLF-Photon-Bot/pkg/protocol"
)

// Session errors.
var (
	ErrJoinTimeout    = errors.New("session: join timed out")
	ErrJoinInProgress = errors.New("session: join already in progress")
	ErrNotInRoom      = errors.New("session: not in a room")
	ErrChannelClosed  = errors.New("session: channel closed unexpectedly")
	ErrJoinAborted    = errors.New("session: join aborted")
	ErrClosed         = errors.New("session: session closed")
)

// Transport is one duplex binary-message connection to a lobby or game
// server. Implementations must serialize writes internally.
type Transport interface {
	// Start begins delivering inbound packets to h. Called exactly once,
	// after the owner has recorded the transport.
	Start(h TransportHandler)

	Send(p *protocol.Packet) error
	SendRaw(data []byte) error
	Close() error
	Addr() string
}

// TransportHandler receives a transport's inbound packets and its terminal
// close notification.
type TransportHandler interface {
	OnPacket(p *protocol.Packet)
	OnClose(err error)
}

// DialFunc establishes a Transport to addr. role is "lobby" or "game".
type DialFunc func(ctx context.Context, addr, role string) (Transport, error)

// AuthCodeFetcher is the auxiliary authentication service boundary.
type AuthCodeFetcher interface {
	Fetch(ctx context.Context, username, hashedSecret string) (string, error)
}

// Credential is one account from the pool: a username and the secret
// derived from its password.
type Credential struct {
	Username string
	Secret   string
}

// roomIDPattern matches room names that carry a numeric room id suffix,
// e.g. "Arena (#12345)". Listings are filtered to these.
var roomIDPattern = regexp.MustCompile(`\(#\d+\)$`)

// gameHandshakeBlob is an opaque artifact the game server expects once per
// handshake, right after authenticate. Its meaning is unknown; the peer
// misbehaves without it, so it is preserved verbatim.
var gameHandshakeBlob = []byte{
	0xF3, 0x06, 0x30, 0x00, 0x01, 0x08, 0x00, 0x01,
	0x04, 0x00, 0x00, 0x00, 0x02,
}

// Config configures a Session. Zero timing fields get defaults.
type Config struct {
	ID         string
	Credential Credential
	LobbyAddr  string
	AppID      string
	AppVersion string

	// AnnounceJoinInChat broadcasts a presence line into room chat after a
	// completed join.
	AnnounceJoinInChat bool

	Dial      DialFunc
	AuthCodes AuthCodeFetcher
	Logger    *slog.Logger

	JoinTimeout    time.Duration // default 30s
	JoinDelay      time.Duration // default 250ms, lobby listing → join request
	ProbeInterval  time.Duration // default 2s
	StatusInterval time.Duration // default 5s
}

func (c Config) withDefaults() Config {
	if c.AppID == "" {
		c.AppID = "bulletforce"
	}
	if c.AppVersion == "" {
		c.AppVersion = "1.0"
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = 30 * time.Second
	}
	if c.JoinDelay == 0 {
		c.JoinDelay = 250 * time.Millisecond
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = 2 * time.Second
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Snapshot is the externally observable session state.
type Snapshot struct {
	ID          string   `json:"id"`
	Phase       string   `json:"phase"`
	Room        string   `json:"room,omitempty"`
	GameAddr    string   `json:"gameAddr,omitempty"`
	Rooms       []string `json:"rooms,omitempty"`
	ActorNumber int64    `json:"actorNumber,omitempty"`
	Roster      []Actor  `json:"roster,omitempty"`
	LastError   string   `json:"lastError,omitempty"`
}

// Session owns up to two transport channels and applies the protocol
// transition table to every decoded packet. All fields below the inbox are
// owned by the loop goroutine and never touched from outside it.
type Session struct {
	cfg   Config
	log   *slog.Logger
	inbox chan message
	done  chan struct{}

	phase       Phase
	lobby       Transport
	game        Transport
	lobbyGen    int
	gameGen     int
	dialGen     int
	targetRoom  string
	rooms       []string
	gameAddr    string
	authToken   string
	actorNumber int64
	roster      []Actor
	lastErr     error
	started     time.Time

	joinSeq     int
	joinReply   chan error
	joinTimer   *time.Timer
	delayTimer  *time.Timer
	fetchActive bool
	probeMark   byte

	ka *keepAlive
}

// Loop messages. Each trigger for the state machine is one of these.
type message interface{ isMessage() }

type packetIn struct {
	gen int
	p   *protocol.Packet
}

type channelOpened struct {
	gen  int
	role string
	ch   Transport
	err  error
}

type channelClosed struct {
	gen int
	err error
}

type joinDelayFired struct{ seq int }
type joinTimedOut struct{ seq int }

type authCodeReady struct {
	seq  int
	code string
	err  error
}

type keepAliveTick struct{ status bool }

type cmdJoin struct {
	room  string
	reply chan error
}

type cmdLeave struct{ reply chan error }
type cmdSpawn struct{ reply chan error }
type cmdSnapshot struct{ reply chan Snapshot }
type cmdClose struct{ reply chan struct{} }

func (packetIn) isMessage()       {}
func (channelOpened) isMessage()  {}
func (channelClosed) isMessage()  {}
func (joinDelayFired) isMessage() {}
func (joinTimedOut) isMessage()   {}
func (authCodeReady) isMessage()  {}
func (keepAliveTick) isMessage()  {}
func (cmdJoin) isMessage()        {}
func (cmdLeave) isMessage()       {}
func (cmdSpawn) isMessage()       {}
func (cmdSnapshot) isMessage()    {}
func (cmdClose) isMessage()       {}

// New creates a session in the Idle phase and starts its event loop.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:     cfg,
		log:     cfg.Logger.With("bot", cfg.ID),
		inbox:   make(chan message, 64),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	go s.loop()
	return s
}

// ID returns the session's bot identifier.
func (s *Session) ID() string { return s.cfg.ID }

// Join connects to the lobby, authenticates, follows the handoff to the
// game server, and joins room. It blocks until the session is in the room,
// the join times out, or ctx is done. The machine does not auto-retry.
func (s *Session) Join(ctx context.Context, room string) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdJoin{room: room, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Leave sends a leave request if in a room, closes the active channels, and
// resets the session to Idle. Leaving an Idle session is a no-op.
func (s *Session) Leave(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdLeave{reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// Spawn broadcasts a positional spawn event. Valid any number of times
// while in a room; an error otherwise.
func (s *Session) Spawn(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, cmdSpawn{reply: reply}); err != nil {
		return err
	}
	return s.await(ctx, reply)
}

// Snapshot returns the externally observable state.
func (s *Session) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if err := s.send(context.Background(), cmdSnapshot{reply: reply}); err != nil {
		return Snapshot{ID: s.cfg.ID, Phase: PhaseIdle.String(), LastError: err.Error()}
	}
	select {
	case snap := <-reply:
		return snap
	case <-s.done:
		return Snapshot{ID: s.cfg.ID, Phase: PhaseIdle.String()}
	}
}

// Close tears the session down: channels closed, loop stopped. Idempotent.
func (s *Session) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	reply := make(chan struct{})
	select {
	case s.inbox <- cmdClose{reply: reply}:
		// The loop may have exited between the check above and the send, in
		// which case nothing will answer; done is closed before reply, so
		// waiting on either never blocks forever.
		select {
		case <-reply:
		case <-s.done:
		}
	case <-s.done:
	}
}

func (s *Session) send(ctx context.Context, m message) error {
	select {
	case s.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// post delivers a message from a helper goroutine (dialer, timer, fetcher,
// scheduler). It never blocks past session shutdown.
func (s *Session) post(m message) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

func (s *Session) loop() {
	for m := range s.inbox {
		switch msg := m.(type) {
		case cmdJoin:
			s.handleJoin(msg)
		case cmdLeave:
			s.handleLeave(msg)
		case cmdSpawn:
			s.handleSpawn(msg)
		case cmdSnapshot:
			msg.reply <- s.snapshot()
		case cmdClose:
			s.reset()
			close(s.done)
			close(msg.reply)
			return
		case channelOpened:
			s.handleChannelOpened(msg)
		case channelClosed:
			s.handleChannelClosed(msg)
		case packetIn:
			s.handlePacket(msg)
		case joinDelayFired:
			s.handleJoinDelay(msg)
		case joinTimedOut:
			s.handleJoinTimeout(msg)
		case authCodeReady:
			s.handleAuthCode(msg)
		case keepAliveTick:
			s.handleKeepAlive(msg)
		}
	}
}

// ---- commands ----

func (s *Session) handleJoin(cmd cmdJoin) {
	if s.phase != PhaseIdle {
		cmd.reply <- fmt.Errorf("%w: phase %s", ErrJoinInProgress, s.phase)
		return
	}
	s.joinSeq++
	s.joinReply = cmd.reply
	s.targetRoom = cmd.room
	s.lastErr = nil
	s.phase = PhaseLobbyConnecting
	s.lobbyGen = s.dial("lobby", s.cfg.LobbyAddr)

	seq := s.joinSeq
	s.joinTimer = time.AfterFunc(s.cfg.JoinTimeout, func() {
		s.post(joinTimedOut{seq: seq})
	})
	s.log.Info("join started", "room", cmd.room, "lobby", s.cfg.LobbyAddr)
}

func (s *Session) handleLeave(cmd cmdLeave) {
	if s.phase == PhaseIdle {
		cmd.reply <- nil
		return
	}
	if s.phase == PhaseInRoom && s.game != nil {
		if err := s.game.Send(protocol.NewRequest(protocol.OpLeave)); err != nil {
			s.log.Warn("leave request failed", "err", err)
		}
	}
	s.failJoin(ErrJoinAborted)
	s.reset()
	s.log.Info("left room")
	cmd.reply <- nil
}

func (s *Session) handleSpawn(cmd cmdSpawn) {
	if s.phase != PhaseInRoom {
		cmd.reply <- fmt.Errorf("%w: phase %s", ErrNotInRoom, s.phase)
		return
	}
	// Entity ids are synthesized per spawn from the actor number and the
	// session clock; the same actor may spawn any number of times.
	entityID := s.actorNumber*100_000 + time.Since(s.started).Milliseconds()%100_000
	cmd.reply <- s.raiseEvent(protocol.EvSpawn, protocol.Map{
		{Key: protocol.Byte(0), Val: protocol.Long(entityID)},
		{Key: protocol.Byte(1), Val: protocol.Vector{X: 0, Y: 50, Z: 0}},
		{Key: protocol.Byte(2), Val: protocol.Long(s.actorNumber)},
	})
}

// ---- channel lifecycle ----

func (s *Session) dial(role, addr string) int {
	s.dialGen++
	gen := s.dialGen
	go func() {
		ch, err := s.cfg.Dial(context.Background(), addr, role)
		s.post(channelOpened{gen: gen, role: role, ch: ch, err: err})
	}()
	return gen
}

func (s *Session) handleChannelOpened(msg channelOpened) {
	current := msg.gen == s.lobbyGen || msg.gen == s.gameGen
	if !current || (msg.role == "lobby" && s.phase != PhaseLobbyConnecting) ||
		(msg.role == "game" && s.phase != PhaseGameConnecting) {
		// A dial that outlived its join. Don't leak the connection.
		if msg.err == nil {
			_ = msg.ch.Close()
		}
		return
	}
	if msg.err != nil {
		s.abort(fmt.Errorf("%s connect: %w", msg.role, msg.err))
		return
	}

	switch msg.role {
	case "lobby":
		s.lobby = msg.ch
		msg.ch.Start(&transportSink{s: s, gen: msg.gen})
		s.sendProbe(msg.ch)
	case "game":
		s.game = msg.ch
		msg.ch.Start(&transportSink{s: s, gen: msg.gen})
		// Handoff: the lobby channel is closed only now that the game
		// channel is open, so there is no window with zero live channels.
		if s.lobby != nil {
			_ = s.lobby.Close()
			s.lobby = nil
		}
		s.startKeepAlive()
	}
	s.log.Debug("channel opened", "role", msg.role, "addr", msg.ch.Addr())
}

func (s *Session) handleChannelClosed(msg channelClosed) {
	if msg.err == nil {
		return // deliberate close
	}
	if msg.gen != s.lobbyGen && msg.gen != s.gameGen {
		return // stale channel from an earlier join
	}
	if s.phase == PhaseIdle {
		return
	}
	s.log.Error("channel closed unexpectedly", "err", msg.err)
	s.abort(fmt.Errorf("%w: %v", ErrChannelClosed, msg.err))
}

// transportSink forwards one channel's events into the session inbox,
// stamped with the dial generation so stale channels can be ignored.
type transportSink struct {
	s   *Session
	gen int
}

func (t *transportSink) OnPacket(p *protocol.Packet) {
	t.s.post(packetIn{gen: t.gen, p: p})
}

func (t *transportSink) OnClose(err error) {
	t.s.post(channelClosed{gen: t.gen, err: err})
}

// ---- transition table ----

// handlePacket applies the (phase, packet) transition table. Packets that
// do not match any row are sequence violations: logged and ignored, never a
// state regression.
func (s *Session) handlePacket(msg packetIn) {
	fromLobby := msg.gen == s.lobbyGen && s.lobby != nil
	fromGame := msg.gen == s.gameGen && s.game != nil
	if !fromLobby && !fromGame {
		return
	}
	p := msg.p

	switch {
	case s.phase == PhaseLobbyConnecting && fromLobby &&
		p.Kind == protocol.KindEvent && p.Code == protocol.EvHandshakeInit:
		s.sendLobbyAuth()

	case s.phase == PhaseLobbyHandshaking && fromLobby &&
		p.Kind == protocol.KindResponse && p.Code == protocol.OpAuthenticate:
		s.handleLobbyAuthResponse(p)

	case s.phase == PhaseAwaitingGameAddress && fromLobby &&
		p.Kind == protocol.KindEvent && p.Code == protocol.EvAppStats:
		s.handleGameAddress(p)

	case s.phase == PhaseGameConnecting && fromGame &&
		p.Kind == protocol.KindEvent && p.Code == protocol.EvHandshakeInit:
		s.sendGameAuth()

	case s.phase == PhaseGameHandshaking && fromGame &&
		p.Kind == protocol.KindResponse && p.Code == protocol.OpAuthenticate:
		s.sendJoinRoom()

	case s.phase == PhaseJoiningRoom && fromGame &&
		p.Kind == protocol.KindResponse && p.Code == protocol.OpJoinGame:
		s.roster = rosterFromJoinResponse(p)
		s.log.Debug("roster replaced", "actors", len(s.roster))

	case s.phase == PhaseJoiningRoom && fromGame &&
		p.Kind == protocol.KindEvent && p.Code == protocol.EvJoin:
		s.handleJoinEvent(p)

	case s.phase == PhaseInRoom && fromGame &&
		p.Kind == protocol.KindEvent && p.Code == protocol.EvJoin:
		// Duplicate delivery of the join trigger: the one-time side
		// effects already ran.
		s.log.Debug("duplicate join event ignored")

	default:
		s.log.Debug("packet ignored in current phase",
			"phase", s.phase, "kind", p.Kind.String(), "code", p.Code)
	}
}

func (s *Session) sendLobbyAuth() {
	nonce := make([]byte, 16)
	_, _ = rand.Read(nonce)

	req := protocol.NewRequest(protocol.OpAuthenticate)
	req.Set(protocol.ParamAppID, protocol.String(s.cfg.AppID))
	req.Set(protocol.ParamAppVersion, protocol.String(s.cfg.AppVersion))
	req.Set(protocol.ParamNonce, protocol.Bytes(nonce))
	if err := s.lobby.Send(req); err != nil {
		s.abort(fmt.Errorf("lobby auth: %w", err))
		return
	}
	s.phase = PhaseLobbyHandshaking
}

func (s *Session) handleLobbyAuthResponse(p *protocol.Packet) {
	token, ok := p.GetString(protocol.ParamToken)
	if !ok {
		s.log.Warn("authenticate response without token")
		return
	}
	s.authToken = token
	s.phase = PhaseLobbyAuthenticated

	if s.targetRoom == "" {
		return // authenticated lobby presence is a valid resting state
	}
	if rooms, ok := p.GetStringArray(protocol.ParamRoomList); ok {
		s.rooms = FilterRoomListing(rooms)
	}
	seq := s.joinSeq
	s.delayTimer = time.AfterFunc(s.cfg.JoinDelay, func() {
		s.post(joinDelayFired{seq: seq})
	})
	s.phase = PhaseAwaitingGameAddress
}

func (s *Session) handleJoinDelay(msg joinDelayFired) {
	if msg.seq != s.joinSeq || s.phase != PhaseAwaitingGameAddress || s.lobby == nil {
		return
	}
	req := protocol.NewRequest(protocol.OpJoinGame)
	req.Set(protocol.ParamRoomName, protocol.String(s.targetRoom))
	if err := s.lobby.Send(req); err != nil {
		s.abort(fmt.Errorf("join from lobby: %w", err))
	}
}

func (s *Session) handleGameAddress(p *protocol.Packet) {
	addr, ok := p.GetString(protocol.ParamAddress)
	if !ok {
		s.log.Debug("stats event without address")
		return
	}
	s.gameAddr = addr
	s.phase = PhaseGameConnecting
	s.gameGen = s.dial("game", addr)
	s.log.Info("game server address received", "addr", addr)
}

func (s *Session) sendGameAuth() {
	req := protocol.NewRequest(protocol.OpAuthenticate)
	req.Set(protocol.ParamToken, protocol.String(s.authToken))
	if err := s.game.Send(req); err != nil {
		s.abort(fmt.Errorf("game auth: %w", err))
		return
	}
	if err := s.game.SendRaw(gameHandshakeBlob); err != nil {
		s.log.Warn("handshake artifact send failed", "err", err)
	}
	s.phase = PhaseGameHandshaking
}

func (s *Session) sendJoinRoom() {
	s.phase = PhaseGameAuthenticated

	req := protocol.NewRequest(protocol.OpJoinGame)
	req.Set(protocol.ParamRoomName, protocol.String(s.targetRoom))
	req.Set(protocol.ParamBroadcast, protocol.Bool(true))
	req.Set(protocol.ParamProps, protocol.Map{
		{Key: protocol.Byte(protocol.PropName), Val: protocol.String(s.cfg.Credential.Username)},
		{Key: protocol.Byte(protocol.PropPlatform), Val: protocol.String("WindowsPlayer")},
		{Key: protocol.Byte(protocol.PropRank), Val: protocol.Int(1)},
	})
	if err := s.game.Send(req); err != nil {
		s.abort(fmt.Errorf("join room: %w", err))
		return
	}
	s.phase = PhaseJoiningRoom
}

func (s *Session) handleJoinEvent(p *protocol.Packet) {
	nr, ok := p.GetInt64(protocol.ParamActorNr)
	if !ok {
		s.log.Warn("join event without actor number")
		return
	}
	if _, followUp := p.Get(protocol.ParamFollowUp); !followUp {
		s.log.Debug("join event without follow-up marker ignored")
		return
	}
	if s.fetchActive {
		return // duplicate delivery while the fetch is in flight
	}
	s.actorNumber = nr
	s.fetchActive = true

	seq := s.joinSeq
	username, secret := s.cfg.Credential.Username, s.cfg.Credential.Secret
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JoinTimeout)
		defer cancel()
		code, err := s.cfg.AuthCodes.Fetch(ctx, username, secret)
		s.post(authCodeReady{seq: seq, code: code, err: err})
	}()
}

func (s *Session) handleAuthCode(msg authCodeReady) {
	if msg.seq != s.joinSeq || s.phase != PhaseJoiningRoom {
		return
	}
	s.fetchActive = false
	if msg.err != nil {
		s.abort(fmt.Errorf("auth code fetch: %w", msg.err))
		return
	}

	if err := s.raiseEvent(protocol.EvJoinNotify, protocol.Map{
		{Key: protocol.String("name"), Val: protocol.String(s.cfg.Credential.Username)},
		{Key: protocol.String("actor"), Val: protocol.Long(s.actorNumber)},
	}); err != nil {
		s.abort(fmt.Errorf("join notify: %w", err))
		return
	}
	if err := s.raiseEvent(protocol.EvAuthCode, protocol.Map{
		{Key: protocol.String("code"), Val: protocol.String(msg.code)},
	}); err != nil {
		s.abort(fmt.Errorf("auth code event: %w", err))
		return
	}
	if s.cfg.AnnounceJoinInChat {
		if err := s.raiseEvent(protocol.EvChat, protocol.Map{
			{Key: protocol.String("text"), Val: protocol.String(s.cfg.Credential.Username + " joined")},
		}); err != nil {
			s.log.Warn("chat announce failed", "err", err)
		}
	}

	s.phase = PhaseInRoom
	s.stopJoinTimers()
	metrics.JoinsTotal.WithLabelValues("ok").Inc()
	if s.joinReply != nil {
		s.joinReply <- nil
		s.joinReply = nil
	}
	s.log.Info("in room", "room", s.targetRoom, "actor", s.actorNumber)
}

// ---- timers, keep-alive, teardown ----

func (s *Session) handleJoinTimeout(msg joinTimedOut) {
	if msg.seq != s.joinSeq || s.joinReply == nil {
		return
	}
	metrics.JoinsTotal.WithLabelValues("timeout").Inc()
	s.failJoin(ErrJoinTimeout)
	s.reset()
}

func (s *Session) handleKeepAlive(tick keepAliveTick) {
	ch := s.activeChannel()
	if ch == nil {
		return
	}
	var err error
	if tick.status {
		err = s.raiseEvent(protocol.EvStatus, protocol.Map{
			{Key: protocol.Byte(0), Val: protocol.Byte(1)},
			{Key: protocol.Byte(1), Val: protocol.Long(time.Since(s.started).Milliseconds())},
		})
	} else {
		err = s.sendProbe(ch)
	}
	if err != nil {
		// Fire-and-forget: a lost keep-alive never changes phase.
		s.log.Warn("keep-alive send failed", "status", tick.status, "err", err)
	}
}

func (s *Session) sendProbe(ch Transport) error {
	s.probeMark++
	req := protocol.NewRequest(protocol.OpPing)
	req.Set(protocol.ParamData, protocol.Byte(s.probeMark))
	return ch.Send(req)
}

func (s *Session) raiseEvent(code byte, data protocol.Value) error {
	ch := s.activeChannel()
	if ch == nil {
		return ErrChannelClosed
	}
	req := protocol.NewRequest(protocol.OpRaiseEvent)
	req.Set(protocol.ParamEventCode, protocol.Byte(code))
	req.Set(protocol.ParamData, data)
	return ch.Send(req)
}

func (s *Session) activeChannel() Transport {
	if s.game != nil {
		return s.game
	}
	return s.lobby
}

// abort fails any pending join with err and tears the session down to Idle.
func (s *Session) abort(err error) {
	s.lastErr = err
	s.log.Error("session aborted", "err", err)
	if s.joinReply != nil {
		metrics.JoinsTotal.WithLabelValues("error").Inc()
	}
	s.failJoin(err)
	s.reset()
}

func (s *Session) failJoin(err error) {
	if s.joinReply == nil {
		return
	}
	s.joinReply <- err
	s.joinReply = nil
}

func (s *Session) stopJoinTimers() {
	if s.joinTimer != nil {
		s.joinTimer.Stop()
		s.joinTimer = nil
	}
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
}

// reset closes every channel and clears transient room state, returning the
// machine to Idle. The auth token survives only within one join attempt.
func (s *Session) reset() {
	s.stopKeepAlive()
	s.stopJoinTimers()
	s.joinSeq++ // invalidates in-flight timers, dials, and fetches
	if s.lobby != nil {
		_ = s.lobby.Close()
		s.lobby = nil
	}
	if s.game != nil {
		_ = s.game.Close()
		s.game = nil
	}
	s.phase = PhaseIdle
	s.targetRoom = ""
	s.rooms = nil
	s.gameAddr = ""
	s.authToken = ""
	s.actorNumber = 0
	s.roster = nil
	s.fetchActive = false
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:          s.cfg.ID,
		Phase:       s.phase.String(),
		Room:        s.targetRoom,
		GameAddr:    s.gameAddr,
		ActorNumber: s.actorNumber,
	}
	if s.phase == PhaseIdle {
		snap.Room = ""
		snap.ActorNumber = 0
	}
	if len(s.rooms) > 0 {
		snap.Rooms = append([]string(nil), s.rooms...)
	}
	if len(s.roster) > 0 {
		snap.Roster = append([]Actor(nil), s.roster...)
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// FilterRoomListing keeps only entries that carry a numeric room id suffix
// like "Arena (#12345)"; plain named lobbies are not joinable rooms.
func FilterRoomListing(rooms []string) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if roomIDPattern.MatchString(r) {
			out = append(out, r)
		}
	}
	return out
}
