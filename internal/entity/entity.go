package entity

import (
	"github.com/google/uuid"
)

// Logical arena. Every authoritative position is expressed in these units.
const (
	LogicalWidth  = 800.0
	LogicalHeight = 600.0
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Scale(sx, sy float64) Vec2 { return Vec2{X: v.X * sx, Y: v.Y * sy} }

// Class identifies an enemy archetype.
type Class string

const (
	ClassNormal   Class = "normal"
	ClassSniper   Class = "sniper"
	ClassRicochet Class = "ricochet"
	ClassBoss     Class = "boss"
)

// Owner tags who fired a projectile.
type Owner string

const (
	OwnerPlayer Owner = "player"
	OwnerEnemy  Owner = "enemy"
)

// NewID returns a fresh identifier such as "e_1b4e28ba-2fa1-11d2-883f-0016d3cca427".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

type Enemy struct {
	ID               string  `json:"id"`
	Class            Class   `json:"class"`
	Pos              Vec2    `json:"pos"`
	Size             Vec2    `json:"size"`
	HP               int     `json:"hp"`
	MaxHP            int     `json:"maxHp"`
	Speed            Vec2    `json:"speed"` // X horizontal drift, Y entry descent
	Damage           int     `json:"damage"`
	ProjectileDamage int     `json:"projectileDamage"`
	ShootCooldownMs  int64   `json:"shootCooldown"`
	LastShotMs       int64   `json:"lastShot"`
	TargetY          float64 `json:"targetY"`
	ReachedPosition  bool    `json:"reachedPosition"`
	IsSniper         bool    `json:"isSniper,omitempty"`
	IsRicochet       bool    `json:"isRicochet,omitempty"`
	IsBoss           bool    `json:"isBoss,omitempty"`
}

func (e *Enemy) Bounds() Rect {
	return Rect{X: e.Pos.X, Y: e.Pos.Y, W: e.Size.X, H: e.Size.Y}
}

func (e *Enemy) Center() Vec2 { return e.Bounds().Center() }

type Projectile struct {
	ID          string  `json:"id"`
	Pos         Vec2    `json:"pos"`
	Vel         Vec2    `json:"vel"`
	Radius      float64 `json:"radius"`
	Damage      int     `json:"damage"`
	Owner       Owner   `json:"owner"`
	ShooterID   string  `json:"shooterId,omitempty"` // lookup only; the shooter may already be gone
	CanRicochet bool    `json:"canRicochet,omitempty"`
	BouncesLeft int     `json:"bouncesLeft,omitempty"`
	TTL         int     `json:"-"`
}

func (p *Projectile) Bounds() Rect {
	return Rect{X: p.Pos.X - p.Radius, Y: p.Pos.Y - p.Radius, W: 2 * p.Radius, H: 2 * p.Radius}
}

type Weapon struct {
	CooldownMs  int64   `json:"cooldown"`
	Damage      int     `json:"damage"`
	BulletSpeed float64 `json:"bulletSpeed"`
}

// Upgrades are permanent for the lifetime of a player record.
type Upgrades struct {
	Ally      bool `json:"ally"`
	Lightning bool `json:"lightning"`
	Shield    bool `json:"shield"`
	Blade     bool `json:"blade"`
}

type Player struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Pos           Vec2     `json:"pos"`
	Size          Vec2     `json:"size"`
	Health        int      `json:"health"`
	MaxHealth     int      `json:"maxHealth"`
	XP            int      `json:"xp"`
	Level         int      `json:"level"`
	UpgradePoints int      `json:"upgradePoints"`
	Weapon        Weapon   `json:"weapon"`
	Upgrades      Upgrades `json:"upgrades"`

	// Cooldowns are wave numbers at which the ability is usable again.
	LightningReadyWave int   `json:"lightningReadyWave"`
	ShieldReadyWave    int   `json:"shieldReadyWave"`
	BladeReadyWave     int   `json:"bladeReadyWave"`
	ShieldActive       bool  `json:"shieldActive"`
	AllyCooldown       int   `json:"-"`
	LastFiredMs        int64 `json:"-"`
}

func (p *Player) Bounds() Rect {
	return Rect{X: p.Pos.X - p.Size.X/2, Y: p.Pos.Y - p.Size.Y/2, W: p.Size.X, H: p.Size.Y}
}

func (p *Player) Alive() bool { return p.Health > 0 }

// LightningStrike is a short-lived marker of an ability hit.
type LightningStrike struct {
	ID       string `json:"id"`
	Pos      Vec2   `json:"pos"`
	TargetID string `json:"targetId"`
	TTL      int    `json:"ttl"`
}

// Blade is the moving rectangle spawned by Total Reaction.
type Blade struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Pos     Vec2   `json:"pos"`
	Size    Vec2   `json:"size"`
	Vel     Vec2   `json:"vel"`
	TTL     int    `json:"ttl"`
}

func (b *Blade) Bounds() Rect {
	return Rect{X: b.Pos.X, Y: b.Pos.Y, W: b.Size.X, H: b.Size.Y}
}
