package room

import (
	"errors"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
)

// ErrBackpressure is returned by Conn.Send when the frame was skipped because the
// member's outbound queue is full. The member stays; the next snapshot supersedes it.
var ErrBackpressure = errors.New("room: member send queue full")

// Conn is one member's outbound side. Send must not block the room. Any error
// other than ErrBackpressure means the connection is gone.
type Conn interface {
	Send([]byte) error
	Close() error
	Codec() protocol.Codec
}

// Join is issued once after the client's join message was validated.
type Join struct {
	Conn   Conn
	Name   string
	Pos    entity.Vec2
	Health int
	Reply  chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
}

// Position carries the client-owned position and health.
type Position struct {
	PlayerID string
	Pos      entity.Vec2
	Health   int
}

// Fire is a client-simulated shot; the room only relays it.
type Fire struct {
	PlayerID string
	Bullet   protocol.Bullet
}

// Damage is a client-reported hit on an enemy.
type Damage struct {
	PlayerID string
	EnemyID  string
	Amount   int
}

type Ability struct {
	PlayerID string
	Kind     string
}

type Upgrade struct {
	PlayerID string
	Kind     string
}

// Leave is issued on disconnect.
type Leave struct {
	PlayerID string
}
