package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/reconcile"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var ErrNotJoined = errors.New("client: not joined")

// Client is a multiplayer connection that keeps a reconcile.Engine current.
type Client struct {
	ws    *websocket.Conn
	codec protocol.Codec

	writeMu sync.Mutex

	mu     sync.Mutex
	engine *reconcile.Engine
	errs   []string

	joined chan struct{}
	done   chan struct{}
	err    error
}

// Dial connects to a server websocket URL such as ws://host:8080/ws and joins
// room with the given name. It returns once the server welcomed the player.
func Dial(ctx context.Context, rawURL, room, name string, codec protocol.Codec, localW, localH float64) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	c := &Client{
		ws:     ws,
		codec:  codec,
		engine: reconcile.NewEngine(localW, localH),
		joined: make(chan struct{}),
		done:   make(chan struct{}),
	}
	join := protocol.Join{Name: name, X: entity.LogicalWidth / 2, Y: entity.LogicalHeight - 50}
	if err := c.send(protocol.MsgJoin, join); err != nil {
		ws.Close()
		return nil, err
	}
	go c.readLoop()

	select {
	case <-c.joined:
		return c, nil
	case <-c.done:
		return nil, c.err
	case <-ctx.Done():
		ws.Close()
		return nil, ctx.Err()
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	joined := false
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		env, err := c.codec.DecodeEnvelope(data)
		if err != nil {
			log.Printf("[CLIENT] bad frame: %v", err)
			continue
		}
		if err := c.handle(env); err != nil {
			log.Printf("[CLIENT] %s: %v", env.T, err)
			continue
		}
		if env.T == protocol.MsgWelcome && !joined {
			joined = true
			close(c.joined)
		}
	}
}

func (c *Client) handle(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch env.T {
	case protocol.MsgWelcome:
		w, err := protocol.DecodePayload[protocol.Welcome](c.codec, env)
		if err != nil {
			return err
		}
		c.engine.Welcome(w)
	case protocol.MsgState:
		s, err := protocol.DecodePayload[protocol.Snapshot](c.codec, env)
		if err != nil {
			return err
		}
		c.engine.Apply(s)
	case protocol.MsgDefeated:
		d, err := protocol.DecodePayload[protocol.Defeated](c.codec, env)
		if err != nil {
			return err
		}
		c.engine.ApplyDefeated(d)
	case protocol.MsgLeft:
		l, err := protocol.DecodePayload[protocol.Left](c.codec, env)
		if err != nil {
			return err
		}
		c.engine.ApplyLeft(l)
	case protocol.MsgFired:
		f, err := protocol.DecodePayload[protocol.Fired](c.codec, env)
		if err != nil {
			return err
		}
		c.engine.ApplyFired(f)
	case protocol.MsgError:
		e, err := protocol.DecodePayload[protocol.Error](c.codec, env)
		if err != nil {
			return err
		}
		c.errs = append(c.errs, e.Message)
	case protocol.MsgJoined:
	default:
		return fmt.Errorf("%w: %q", protocol.ErrUnknownType, env.T)
	}
	return nil
}

func (c *Client) send(t string, payload any) error {
	b, err := c.codec.Encode(t, payload)
	if err != nil {
		return err
	}
	mt := websocket.TextMessage
	if c.codec.Binary() {
		mt = websocket.BinaryMessage
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(mt, b)
}

// View returns a copy of the reconciled state.
func (c *Client) View() reconcile.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.View()
}

// Frame advances local-only motion by one rendered frame.
func (c *Client) Frame() {
	c.mu.Lock()
	c.engine.Advance(1)
	c.mu.Unlock()
}

// Resize rescales the reconciled state to a new local resolution.
func (c *Client) Resize(localW, localH float64) {
	c.mu.Lock()
	c.engine.Resize(localW, localH)
	c.mu.Unlock()
}

// Errors drains the error messages received from the server.
func (c *Client) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.errs
	c.errs = nil
	return out
}

// Move applies the predicted local position (local units) and reports it upstream.
func (c *Client) Move(pos entity.Vec2, health int) error {
	c.mu.Lock()
	c.engine.MoveSelf(pos, health)
	logical, ok := c.engine.SelfLogical()
	c.mu.Unlock()
	if !ok {
		return ErrNotJoined
	}
	return c.send(protocol.MsgPosition, protocol.Position{X: logical.X, Y: logical.Y, Health: health})
}

// Fire announces a locally simulated shot in logical units.
func (c *Client) Fire(b protocol.Bullet) error {
	return c.send(protocol.MsgFire, b)
}

// ReportDamage tells the server a local shot hit enemyID.
func (c *Client) ReportDamage(enemyID string, amount int) error {
	c.mu.Lock()
	c.engine.MarkHit(enemyID)
	c.mu.Unlock()
	return c.send(protocol.MsgDamage, protocol.Damage{EnemyID: enemyID, Amount: amount})
}

func (c *Client) UseAbility(kind string) error {
	return c.send(protocol.MsgAbility, protocol.Ability{Kind: kind})
}

func (c *Client) ChooseUpgrade(kind string) error {
	return c.send(protocol.MsgUpgrade, protocol.Upgrade{Kind: kind})
}

// Done is closed when the connection ends; Err then reports why.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}
