package transport

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/room"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	joinWait       = 10 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 256

	DefaultRoom = "lobby"
)

var ErrClosed = errors.New("transport: connection closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// conn adapts a websocket to room.Conn. Sends are queued for the write pump
// so the room never blocks on a slow client.
type conn struct {
	ws        *websocket.Conn
	codec     protocol.Codec
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, codec protocol.Codec) *conn {
	return &conn{
		ws:    ws,
		codec: codec,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
}

func (c *conn) Codec() protocol.Codec { return c.codec }

func (c *conn) Send(b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		// Slow reader: skip this frame, a later snapshot replaces it.
		return room.ErrBackpressure
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *conn) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(c.messageType(), msg); err != nil {
				log.Printf("[WS] write: %v", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever was queued before the close.
func (c *conn) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(c.messageType(), msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *conn) sendError(err error) {
	b, encErr := c.codec.Encode(protocol.MsgError, protocol.Error{Message: err.Error()})
	if encErr != nil {
		return
	}
	_ = c.Send(b)
}

func (c *conn) read() (protocol.Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, err
	}
	return c.codec.DecodeEnvelope(data)
}

// NewHandler upgrades /ws requests and attaches each client to a room.
// Query: room (default "lobby"), name, codec (json|msgpack).
func NewHandler(m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("room")
		if code == "" {
			code = DefaultRoom
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("[WS] upgrade:", err)
			return
		}
		ws.SetReadLimit(maxMessageSize)

		c := newConn(ws, codec)
		go c.writePump()
		serve(m, c, code, r.URL.Query().Get("name"))
	}
}

func serve(m *room.Manager, c *conn, code, queryName string) {
	defer c.Close()

	_ = c.ws.SetReadDeadline(time.Now().Add(joinWait))
	env, err := c.read()
	if err != nil {
		c.sendError(err)
		return
	}
	if env.T != protocol.MsgJoin {
		c.sendError(invalid("expected %q, got %q", protocol.MsgJoin, env.T))
		return
	}
	j, err := protocol.DecodePayload[protocol.Join](c.codec, env)
	if err != nil {
		c.sendError(invalid("%v", err))
		return
	}
	if j.Name == "" {
		j.Name = queryName
	}
	if j, err = ValidateJoin(j); err != nil {
		c.sendError(err)
		return
	}

	rm, playerID, ok := attach(m, c, code, j)
	if !ok {
		c.sendError(errors.New("room unavailable"))
		return
	}
	defer rm.Submit(room.Leave{PlayerID: playerID})

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] %s: %v", playerID, err)
			}
			return
		}
		env, err := c.codec.DecodeEnvelope(data)
		if err != nil {
			c.sendError(invalid("%v", err))
			continue
		}
		cmd, err := Command(playerID, c.codec, env)
		if err != nil {
			c.sendError(err)
			continue
		}
		if !rm.Submit(cmd) {
			return
		}
	}
}

// attach joins the client to the room for code. A room that stopped between
// lookup and join is replaced by a fresh one.
func attach(m *room.Manager, c *conn, code string, j protocol.Join) (*room.Room, string, bool) {
	for range 3 {
		rm := m.GetOrCreate(code)
		reply := make(chan room.JoinResult, 1)
		join := room.Join{Conn: c, Name: j.Name, Pos: entity.Vec2{X: j.X, Y: j.Y}, Health: j.Health, Reply: reply}
		if !rm.Submit(join) {
			continue
		}
		select {
		case res := <-reply:
			return rm, res.PlayerID, true
		case <-rm.Done():
		}
	}
	return nil, "", false
}
