package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberarchives/BLF-Photon-Bot/pkg/protocol"
)

type collector struct {
	packets chan *protocol.Packet
	closed  chan error
}

func newCollector() *collector {
	return &collector{
		packets: make(chan *protocol.Packet, 16),
		closed:  make(chan error, 1),
	}
}

func (c *collector) OnPacket(p *protocol.Packet) { c.packets <- p }
func (c *collector) OnClose(err error)           { c.closed <- err }

// wsServer upgrades one connection and hands it to fn.
func wsServer(t *testing.T, fn func(conn *websocket.Conn)) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		fn(conn)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func dialTest(t *testing.T, addr string) *Channel {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, err := Dial(ctx, addr, Config{Role: "lobby"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestRoundTrip(t *testing.T) {
	inbound := make(chan []byte, 1)
	addr := wsServer(t, func(conn *websocket.Conn) {
		// Push one packet, then echo back whatever arrives.
		p := protocol.NewEvent(protocol.EvHandshakeInit)
		data, err := p.Encode()
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

		_, msg, err := conn.ReadMessage()
		if err == nil {
			inbound <- msg
		}
	})

	ch := dialTest(t, addr)
	col := newCollector()
	ch.Start(col)

	select {
	case p := <-col.packets:
		assert.Equal(t, protocol.KindEvent, p.Kind)
		assert.Equal(t, protocol.EvHandshakeInit, p.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound packet")
	}

	out := protocol.NewRequest(protocol.OpPing)
	out.Set(protocol.ParamData, protocol.Byte(1))
	require.NoError(t, ch.Send(out))

	select {
	case msg := <-inbound:
		got, err := protocol.DecodePacket(msg)
		require.NoError(t, err)
		assert.Equal(t, protocol.OpPing, got.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the packet")
	}
}

func TestSendRawPassthrough(t *testing.T) {
	inbound := make(chan []byte, 1)
	addr := wsServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			inbound <- msg
		}
	})

	ch := dialTest(t, addr)
	ch.Start(newCollector())

	blob := []byte{0xF3, 0x01, 0x02, 0x03}
	require.NoError(t, ch.SendRaw(blob))

	select {
	case msg := <-inbound:
		assert.Equal(t, blob, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("raw bytes never arrived")
	}
}

func TestMalformedMessageIsDropped(t *testing.T) {
	addr := wsServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x00, 0x01}))

		p := protocol.NewEvent(protocol.EvChat)
		data, err := p.Encode()
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
		_, _, _ = conn.ReadMessage()
	})

	ch := dialTest(t, addr)
	col := newCollector()
	ch.Start(col)

	// The garbage message is skipped; the valid one still comes through.
	select {
	case p := <-col.packets:
		assert.Equal(t, protocol.EvChat, p.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("valid packet after garbage never delivered")
	}
}

func TestDeliberateCloseReportsNil(t *testing.T) {
	addr := wsServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	ch := dialTest(t, addr)
	col := newCollector()
	ch.Start(col)

	require.NoError(t, ch.Close())
	select {
	case err := <-col.closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose never fired")
	}

	assert.Error(t, ch.Send(protocol.NewRequest(protocol.OpPing)))
}

func TestServerCloseReportsError(t *testing.T) {
	addr := wsServer(t, func(conn *websocket.Conn) {
		_ = conn.Close()
	})

	ch := dialTest(t, addr)
	col := newCollector()
	ch.Start(col)

	select {
	case err := <-col.closed:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose never fired")
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "127.0.0.1:1", Config{Role: "lobby"})
	assert.Error(t, err)
}
