package protocol

import (
	"skyraid/internal/entity"
)

// Client -> server.
const (
	MsgJoin     = "join"
	MsgPosition = "position"
	MsgFire     = "fire"
	MsgDamage   = "damage"
	MsgAbility  = "ability"
	MsgUpgrade  = "upgrade"
)

// Server -> client.
const (
	MsgWelcome  = "welcome"
	MsgJoined   = "joined"
	MsgFired    = "fired"
	MsgDefeated = "defeated"
	MsgLeft     = "left"
	MsgState    = "state"
	MsgError    = "error"
)

const (
	SimTickHz   = 60
	BroadcastHz = 20
)

// Ability and upgrade kinds.
const (
	KindAlly      = "ally"
	KindLightning = "lightning"
	KindShield    = "shield"
	KindBlade     = "blade"
)

type Join struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health int     `json:"health"`
}

type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health int     `json:"health"`
}

type Bullet struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Damage int     `json:"damage"`
}

type Damage struct {
	EnemyID string `json:"enemyId"`
	Amount  int    `json:"amount"`
}

type Ability struct {
	Kind string `json:"kind"`
}

type Upgrade struct {
	Kind string `json:"kind"`
}

type Welcome struct {
	PlayerID string  `json:"playerId"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	TickHz   int     `json:"tickHz"`
}

type Joined struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type Fired struct {
	PlayerID string `json:"playerId"`
	Bullet   Bullet `json:"bullet"`
}

type Defeated struct {
	EnemyID  string `json:"enemyId"`
	KillerID string `json:"killerId"`
	XP       int    `json:"xp"`
}

type Left struct {
	PlayerID string `json:"playerId"`
}

type Error struct {
	Message string `json:"message"`
}

// Snapshot is the full authoritative state broadcast to a room.
type Snapshot struct {
	Tick              int64                    `json:"tick"`
	GameTime          float64                  `json:"gameTime"`
	Wave              int                      `json:"wave"`
	WavePhase         string                   `json:"wavePhase"`
	WaveTimer         int                      `json:"waveTimer"`
	Players           []entity.Player          `json:"players"`
	Enemies           []entity.Enemy           `json:"enemies"`
	EnemyProjectiles  []entity.Projectile      `json:"enemyProjectiles"`
	PlayerProjectiles []entity.Projectile      `json:"playerProjectiles,omitempty"`
	LightningStrikes  []entity.LightningStrike `json:"lightningStrikes"`
	ActiveBlades      []entity.Blade           `json:"activeBlades"`
}
