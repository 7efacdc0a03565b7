package transport

import (
	"errors"
	"math"
	"strings"
	"testing"

	"skyraid/internal/protocol"
	"skyraid/internal/room"
)

func envelope(t *testing.T, c protocol.Codec, typ string, payload any) protocol.Envelope {
	t.Helper()
	b, err := c.Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := c.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestValidateJoin(t *testing.T) {
	tests := []struct {
		name    string
		in      protocol.Join
		want    string
		wantErr bool
	}{
		{"trimmed", protocol.Join{Name: "  ada  ", X: 10, Y: 20}, "ada", false},
		{"default name", protocol.Join{Name: "   "}, defaultName, false},
		{"max runes", protocol.Join{Name: strings.Repeat("é", MaxNameRunes)}, strings.Repeat("é", MaxNameRunes), false},
		{"too long", protocol.Join{Name: strings.Repeat("x", MaxNameRunes+1)}, "", true},
		{"nan", protocol.Join{Name: "a", X: math.NaN()}, "", true},
		{"negative health", protocol.Join{Name: "a", Health: -1}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateJoin(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("expected ErrInvalidPayload, got %v", err)
				}
				return
			}
			if err != nil || got.Name != tt.want {
				t.Fatalf("got %q, %v; want %q", got.Name, err, tt.want)
			}
		})
	}
}

func TestCommandAccepts(t *testing.T) {
	for _, c := range []protocol.Codec{protocol.JSON, protocol.MsgPack} {
		cmd, err := Command("p1", c, envelope(t, c, protocol.MsgDamage, protocol.Damage{EnemyID: "e1", Amount: 20}))
		if err != nil {
			t.Fatalf("%s damage: %v", c.Name(), err)
		}
		if d, ok := cmd.(room.Damage); !ok || d.PlayerID != "p1" || d.EnemyID != "e1" || d.Amount != 20 {
			t.Fatalf("%s damage command = %#v", c.Name(), cmd)
		}

		cmd, err = Command("p1", c, envelope(t, c, protocol.MsgPosition, protocol.Position{X: 1, Y: 2, Health: 50}))
		if err != nil {
			t.Fatalf("%s position: %v", c.Name(), err)
		}
		if p, ok := cmd.(room.Position); !ok || p.Pos.X != 1 || p.Health != 50 {
			t.Fatalf("%s position command = %#v", c.Name(), cmd)
		}

		cmd, err = Command("p1", c, envelope(t, c, protocol.MsgAbility, protocol.Ability{Kind: protocol.KindBlade}))
		if err != nil {
			t.Fatalf("%s ability: %v", c.Name(), err)
		}
		if a, ok := cmd.(room.Ability); !ok || a.Kind != protocol.KindBlade {
			t.Fatalf("%s ability command = %#v", c.Name(), cmd)
		}
	}
}

func TestCommandRejects(t *testing.T) {
	c := protocol.JSON
	tests := []struct {
		name    string
		typ     string
		payload any
	}{
		{"zero damage", protocol.MsgDamage, protocol.Damage{EnemyID: "e1", Amount: 0}},
		{"huge damage", protocol.MsgDamage, protocol.Damage{EnemyID: "e1", Amount: MaxDamage + 1}},
		{"no enemy", protocol.MsgDamage, protocol.Damage{Amount: 5}},
		{"far position", protocol.MsgPosition, protocol.Position{X: 1e9}},
		{"bullet without id", protocol.MsgFire, protocol.Bullet{Radius: 4, Damage: 10}},
		{"bullet zero radius", protocol.MsgFire, protocol.Bullet{ID: "b", Damage: 10}},
		{"unknown ability", protocol.MsgAbility, protocol.Ability{Kind: "laser"}},
		{"unknown upgrade", protocol.MsgUpgrade, protocol.Upgrade{Kind: ""}},
		{"second join", protocol.MsgJoin, protocol.Join{Name: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Command("p1", c, envelope(t, c, tt.typ, tt.payload)); !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}

	if _, err := Command("p1", c, envelope(t, c, "teleport", protocol.Left{})); !errors.Is(err, protocol.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
