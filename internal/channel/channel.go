// Package channel provides the duplex binary-message connection to one
// logical server (lobby or game). It frames outbound packets, feeds inbound
// byte messages through the protocol decoder, and hands decoded packets to
// its handler in strict arrival order.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/metrics"
	"github.com/cyberarchives/BLF-Photon-Bot/pkg/protocol"
)

const (
	defaultWriteTimeout = 5 * time.Second
	maxInboundMessage   = 1 << 20 // 1MB, far above any legal packet
)

// Handler receives inbound packets and the terminal close notification.
// Both are called from the channel's read goroutine, one call at a time, so
// packet order is exactly wire arrival order.
type Handler interface {
	// OnPacket delivers one decoded inbound packet.
	OnPacket(p *protocol.Packet)

	// OnClose fires exactly once when the read loop ends. err is nil after
	// a deliberate Close, non-nil on transport failure.
	OnClose(err error)
}

// Config configures a dial.
type Config struct {
	// Role names the logical server this channel connects to ("lobby" or
	// "game"); used for logging and metrics only.
	Role string

	// ProxyURL optionally routes the connection through a forward proxy.
	ProxyURL *url.URL

	// WriteTimeout bounds each outbound write. Zero means a 5s default.
	WriteTimeout time.Duration

	// Logger for per-message diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Channel is one live connection. Writes are serialized internally; Send is
// safe to call from any goroutine.
type Channel struct {
	conn         *websocket.Conn
	addr         string
	role         string
	writeTimeout time.Duration
	log          *slog.Logger

	wmu    sync.Mutex
	closed atomic.Bool
}

// Dial connects to addr (host:port) and returns the open channel. It blocks
// until the connection is established or fails. No messages are read until
// Start is called, so the caller can record the channel before the first
// inbound packet can arrive.
func Dial(ctx context.Context, addr string, cfg Config) (*Channel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if cfg.ProxyURL != nil {
		dialer.Proxy = http.ProxyURL(cfg.ProxyURL)
	}

	wsURL := fmt.Sprintf("ws://%s", addr)
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.SetReadLimit(maxInboundMessage)

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Channel{
		conn:         conn,
		addr:         addr,
		role:         cfg.Role,
		writeTimeout: cfg.WriteTimeout,
		log:          log.With("role", cfg.Role, "addr", addr),
	}
	if c.writeTimeout == 0 {
		c.writeTimeout = defaultWriteTimeout
	}
	return c, nil
}

// Start launches the read loop, delivering inbound packets to h until the
// connection closes.
func (c *Channel) Start(h Handler) {
	go c.readLoop(h)
}

// Addr returns the remote address this channel was dialed to.
func (c *Channel) Addr() string {
	return c.addr
}

// Send encodes p and writes it as one binary message.
func (c *Channel) Send(p *protocol.Packet) error {
	if c.closed.Load() {
		return fmt.Errorf("channel %s: send on closed channel", c.role)
	}
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("encode %s op %d: %w", p.Kind, p.Code, err)
	}

	c.wmu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	err = c.conn.WriteMessage(websocket.BinaryMessage, data)
	c.wmu.Unlock()

	if err != nil {
		return fmt.Errorf("write %s op %d: %w", p.Kind, p.Code, err)
	}
	metrics.PacketsSent.WithLabelValues(c.role).Inc()
	return nil
}

// SendRaw writes pre-encoded bytes as one binary message, bypassing the
// packet encoder. Used for the fixed opaque handshake artifact.
func (c *Channel) SendRaw(data []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("channel %s: send on closed channel", c.role)
	}
	c.wmu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	err := c.conn.WriteMessage(websocket.BinaryMessage, data)
	c.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("write raw: %w", err)
	}
	return nil
}

// Close tears the connection down. The handler's OnClose fires with a nil
// error. Close is idempotent.
func (c *Channel) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	return c.conn.Close()
}

// readLoop reads inbound messages until the connection dies. A message that
// fails to decode is discarded and logged; the channel itself survives.
func (c *Channel) readLoop(h Handler) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				h.OnClose(nil)
			} else {
				c.closed.Store(true)
				_ = c.conn.Close()
				h.OnClose(err)
			}
			return
		}

		p, err := protocol.DecodePacket(data)
		if err != nil {
			metrics.DecodeErrors.WithLabelValues(c.role).Inc()
			c.log.Warn("dropping malformed message", "bytes", len(data), "err", err)
			continue
		}
		metrics.PacketsDecoded.WithLabelValues(c.role).Inc()
		h.OnPacket(p)
	}
}
