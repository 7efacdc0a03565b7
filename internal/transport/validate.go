package transport

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/room"
)

const (
	MaxNameRunes  = 24
	MaxDamage     = 10_000
	maxCoordinate = 10_000.0
	maxRadius     = 50.0
	maxIDLen      = 64
	defaultName   = "Pilot"
)

var ErrInvalidPayload = errors.New("transport: invalid payload")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxCoordinate {
			return false
		}
	}
	return true
}

func validKind(kind string) bool {
	switch kind {
	case protocol.KindAlly, protocol.KindLightning, protocol.KindShield, protocol.KindBlade:
		return true
	}
	return false
}

// ValidateJoin normalizes the name and checks the spawn fields.
func ValidateJoin(j protocol.Join) (protocol.Join, error) {
	j.Name = strings.TrimSpace(j.Name)
	if j.Name == "" {
		j.Name = defaultName
	}
	if utf8.RuneCountInString(j.Name) > MaxNameRunes {
		return j, invalid("name longer than %d characters", MaxNameRunes)
	}
	if !finite(j.X, j.Y) {
		return j, invalid("join position out of range")
	}
	if j.Health < 0 {
		return j, invalid("negative health")
	}
	return j, nil
}

// Command decodes one post-join envelope into a room command for playerID.
func Command(playerID string, c protocol.Codec, env protocol.Envelope) (any, error) {
	switch env.T {
	case protocol.MsgPosition:
		p, err := protocol.DecodePayload[protocol.Position](c, env)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if !finite(p.X, p.Y) || p.Health < 0 {
			return nil, invalid("position out of range")
		}
		return room.Position{PlayerID: playerID, Pos: entity.Vec2{X: p.X, Y: p.Y}, Health: p.Health}, nil

	case protocol.MsgFire:
		b, err := protocol.DecodePayload[protocol.Bullet](c, env)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if b.ID == "" || len(b.ID) > maxIDLen {
			return nil, invalid("bad bullet id")
		}
		if !finite(b.X, b.Y, b.VX, b.VY) || b.Radius <= 0 || b.Radius > maxRadius {
			return nil, invalid("bullet out of range")
		}
		if b.Damage <= 0 || b.Damage > MaxDamage {
			return nil, invalid("bullet damage out of range")
		}
		return room.Fire{PlayerID: playerID, Bullet: b}, nil

	case protocol.MsgDamage:
		d, err := protocol.DecodePayload[protocol.Damage](c, env)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if d.EnemyID == "" || len(d.EnemyID) > maxIDLen {
			return nil, invalid("bad enemy id")
		}
		if d.Amount <= 0 || d.Amount > MaxDamage {
			return nil, invalid("damage out of range")
		}
		return room.Damage{PlayerID: playerID, EnemyID: d.EnemyID, Amount: d.Amount}, nil

	case protocol.MsgAbility:
		a, err := protocol.DecodePayload[protocol.Ability](c, env)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if !validKind(a.Kind) {
			return nil, invalid("unknown ability %q", a.Kind)
		}
		return room.Ability{PlayerID: playerID, Kind: a.Kind}, nil

	case protocol.MsgUpgrade:
		u, err := protocol.DecodePayload[protocol.Upgrade](c, env)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if !validKind(u.Kind) {
			return nil, invalid("unknown upgrade %q", u.Kind)
		}
		return room.Upgrade{PlayerID: playerID, Kind: u.Kind}, nil

	case protocol.MsgJoin:
		return nil, invalid("already joined")
	}
	return nil, fmt.Errorf("%w: %q", protocol.ErrUnknownType, env.T)
}
