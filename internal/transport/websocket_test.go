package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skyraid/internal/protocol"
	"skyraid/internal/room"

	"github.com/gorilla/websocket"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	m := room.NewManager(room.Options{TickHz: protocol.SimTickHz, BroadcastHz: protocol.BroadcastHz, Seed: 3})
	srv := httptest.NewServer(NewHandler(m))
	t.Cleanup(func() {
		srv.Close()
		m.Shutdown()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func write(t *testing.T, ws *websocket.Conn, c protocol.Codec, typ string, payload any) {
	t.Helper()
	b, err := c.Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mt := websocket.TextMessage
	if c.Binary() {
		mt = websocket.BinaryMessage
	}
	if err := ws.WriteMessage(mt, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// next reads frames until one of type want arrives.
func next(t *testing.T, ws *websocket.Conn, c protocol.Codec, want string) protocol.Envelope {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		mt, b, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if c.Binary() != (mt == websocket.BinaryMessage) {
			t.Fatalf("frame type %d does not match codec %s", mt, c.Name())
		}
		env, err := c.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.T == want {
			return env
		}
	}
}

func TestJoinOverWebsocket(t *testing.T) {
	srv := startServer(t)
	for _, c := range []protocol.Codec{protocol.JSON, protocol.MsgPack} {
		ws := dial(t, srv, "room=T1&codec="+c.Name())
		write(t, ws, c, protocol.MsgJoin, protocol.Join{Name: "ada", X: 400, Y: 550, Health: 100})

		w, err := protocol.DecodePayload[protocol.Welcome](c, next(t, ws, c, protocol.MsgWelcome))
		if err != nil || w.PlayerID == "" {
			t.Fatalf("%s welcome = %+v, %v", c.Name(), w, err)
		}
		snap, err := protocol.DecodePayload[protocol.Snapshot](c, next(t, ws, c, protocol.MsgState))
		if err != nil {
			t.Fatalf("%s state: %v", c.Name(), err)
		}
		found := false
		for _, p := range snap.Players {
			found = found || p.ID == w.PlayerID
		}
		if !found {
			t.Fatalf("%s: joined player missing from state", c.Name())
		}
	}
}

func TestInvalidInputGetsErrorAndKeepsConnection(t *testing.T) {
	srv := startServer(t)
	c := protocol.JSON
	ws := dial(t, srv, "room=T2")
	write(t, ws, c, protocol.MsgJoin, protocol.Join{Name: "ada"})
	next(t, ws, c, protocol.MsgWelcome)

	write(t, ws, c, protocol.MsgDamage, protocol.Damage{EnemyID: "e1", Amount: -5})
	e, err := protocol.DecodePayload[protocol.Error](c, next(t, ws, c, protocol.MsgError))
	if err != nil || !strings.Contains(e.Message, "damage") {
		t.Fatalf("error = %+v, %v", e, err)
	}
	// Still served after the rejected message.
	next(t, ws, c, protocol.MsgState)
}

func TestFirstMessageMustBeJoin(t *testing.T) {
	srv := startServer(t)
	c := protocol.JSON
	ws := dial(t, srv, "room=T3")
	write(t, ws, c, protocol.MsgPosition, protocol.Position{X: 1, Y: 1})
	next(t, ws, c, protocol.MsgError)
}

func TestUnknownCodecRejected(t *testing.T) {
	srv := startServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?codec=xml"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestLeaveOnDisconnect(t *testing.T) {
	srv := startServer(t)
	c := protocol.JSON
	a := dial(t, srv, "room=T4")
	write(t, a, c, protocol.MsgJoin, protocol.Join{Name: "a"})
	wa, _ := protocol.DecodePayload[protocol.Welcome](c, next(t, a, c, protocol.MsgWelcome))

	b := dial(t, srv, "room=T4")
	write(t, b, c, protocol.MsgJoin, protocol.Join{Name: "b"})
	next(t, b, c, protocol.MsgWelcome)

	a.Close()
	l, err := protocol.DecodePayload[protocol.Left](c, next(t, b, c, protocol.MsgLeft))
	if err != nil || l.PlayerID != wa.PlayerID {
		t.Fatalf("left = %+v, %v", l, err)
	}
}

func TestFullSendQueueSkipsFrameWithoutClosing(t *testing.T) {
	c := newConn(nil, protocol.JSON)
	for i := range sendBuffer {
		if err := c.Send([]byte("frame")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := c.Send([]byte("overflow")); !errors.Is(err, room.ErrBackpressure) {
		t.Fatalf("send on full queue = %v, want ErrBackpressure", err)
	}
	<-c.send
	if err := c.Send([]byte("after drain")); err != nil {
		t.Fatalf("send after drain = %v", err)
	}

	c.Close()
	if err := c.Send([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close = %v, want ErrClosed", err)
	}
}
