package wave

import (
	"math"

	"skyraid/internal/entity"
)

const projectileTTL = 600

// Stats is the field set every enemy class carries.
type Stats struct {
	HP               int
	Damage           int
	ProjectileDamage int
	Size             entity.Vec2
	Speed            entity.Vec2
	ShootCooldownMs  int64
	XP               int
	BulletSpeed      float64
	BulletRadius     float64
}

// ClassConfig is one tagged variant of the per-class configuration.
type ClassConfig interface {
	Class() entity.Class
	Base() Stats
	// Decorate sets the class-specific flags on a freshly built enemy.
	Decorate(e *entity.Enemy)
	// Volley builds the projectiles fired by e at target inside an arena of the given width.
	Volley(e *entity.Enemy, target entity.Vec2, width float64) []*entity.Projectile
}

type NormalConfig struct {
	Stats
}

func (c NormalConfig) Class() entity.Class { return entity.ClassNormal }
func (c NormalConfig) Base() Stats { return c.Stats }
func (c NormalConfig) Decorate(e *entity.Enemy) {}

func (c NormalConfig) Volley(e *entity.Enemy, target entity.Vec2, _ float64) []*entity.Projectile {
	return []*entity.Projectile{shot(e, entity.Heading(e.Center(), target, c.BulletSpeed), c.BulletRadius)}
}

// SniperConfig enemies hover in place and fire fast, heavy rounds.
type SniperConfig struct {
	Stats
}

func (c SniperConfig) Class() entity.Class { return entity.ClassSniper }
func (c SniperConfig) Base() Stats { return c.Stats }

func (c SniperConfig) Decorate(e *entity.Enemy) {
	e.IsSniper = true
	e.Speed.X = 0
}

func (c SniperConfig) Volley(e *entity.Enemy, target entity.Vec2, _ float64) []*entity.Projectile {
	return []*entity.Projectile{shot(e, entity.Heading(e.Center(), target, c.BulletSpeed), c.BulletRadius)}
}

// RicochetConfig enemies bank their shots off the nearest side wall.
type RicochetConfig struct {
	Stats
	Bounces int
}

func (c RicochetConfig) Class() entity.Class { return entity.ClassRicochet }
func (c RicochetConfig) Base() Stats { return c.Stats }

func (c RicochetConfig) Decorate(e *entity.Enemy) {
	e.IsRicochet = true
}

func (c RicochetConfig) Volley(e *entity.Enemy, target entity.Vec2, width float64) []*entity.Projectile {
	aim := MirrorTarget(e.Center(), target, width)
	p := shot(e, entity.Heading(e.Center(), aim, c.BulletSpeed), c.BulletRadius)
	p.CanRicochet = true
	p.BouncesLeft = c.Bounces
	return []*entity.Projectile{p}
}

// BossConfig fires a fan of Spread projectiles centred on the target.
type BossConfig struct {
	Stats
	Spread int
	Arc    float64 // radians between neighbouring projectiles
}

func (c BossConfig) Class() entity.Class { return entity.ClassBoss }
func (c BossConfig) Base() Stats { return c.Stats }

func (c BossConfig) Decorate(e *entity.Enemy) {
	e.IsBoss = true
}

func (c BossConfig) Volley(e *entity.Enemy, target entity.Vec2, _ float64) []*entity.Projectile {
	from := e.Center()
	center := math.Atan2(target.Y-from.Y, target.X-from.X)
	out := make([]*entity.Projectile, 0, c.Spread)
	for i := 0; i < c.Spread; i++ {
		angle := center + (float64(i)-float64(c.Spread-1)/2)*c.Arc
		vel := entity.Vec2{X: math.Cos(angle) * c.BulletSpeed, Y: math.Sin(angle) * c.BulletSpeed}
		out = append(out, shot(e, vel, c.BulletRadius))
	}
	return out
}

func shot(e *entity.Enemy, vel entity.Vec2, radius float64) *entity.Projectile {
	return &entity.Projectile{
		ID:        entity.NewID("b"),
		Pos:       e.Center(),
		Vel:       vel,
		Radius:    radius,
		Damage:    e.ProjectileDamage,
		Owner:     entity.OwnerEnemy,
		ShooterID: e.ID,
		TTL:       projectileTTL,
	}
}

// MirrorTarget reflects target across the side wall nearest to from.
func MirrorTarget(from, target entity.Vec2, width float64) entity.Vec2 {
	if from.X < width/2 {
		return entity.Vec2{X: -target.X, Y: target.Y}
	}
	return entity.Vec2{X: 2*width - target.X, Y: target.Y}
}

// BaseTable holds the base enemy class per wave; index 0 is wave 1.
var BaseTable = []ClassConfig{
	NormalConfig{Stats{HP: 120, Damage: 10, ProjectileDamage: 10, Size: entity.Vec2{X: 40, Y: 30},
		Speed: entity.Vec2{X: 1.0, Y: 1.5}, ShootCooldownMs: 2000, XP: 10, BulletSpeed: 4, BulletRadius: 5}},
	NormalConfig{Stats{HP: 140, Damage: 12, ProjectileDamage: 12, Size: entity.Vec2{X: 40, Y: 30},
		Speed: entity.Vec2{X: 1.2, Y: 1.6}, ShootCooldownMs: 1800, XP: 10, BulletSpeed: 4.5, BulletRadius: 5}},
	SniperConfig{Stats{HP: 100, Damage: 10, ProjectileDamage: 22, Size: entity.Vec2{X: 36, Y: 36},
		Speed: entity.Vec2{X: 0, Y: 1.2}, ShootCooldownMs: 3000, XP: 15, BulletSpeed: 7, BulletRadius: 4}},
	NormalConfig{Stats{HP: 170, Damage: 14, ProjectileDamage: 14, Size: entity.Vec2{X: 44, Y: 32},
		Speed: entity.Vec2{X: 1.4, Y: 1.7}, ShootCooldownMs: 1600, XP: 10, BulletSpeed: 5, BulletRadius: 5}},
	SniperConfig{Stats{HP: 130, Damage: 12, ProjectileDamage: 28, Size: entity.Vec2{X: 36, Y: 36},
		Speed: entity.Vec2{X: 0, Y: 1.3}, ShootCooldownMs: 2700, XP: 15, BulletSpeed: 8, BulletRadius: 4}},
}

var Ricochet = RicochetConfig{
	Stats: Stats{HP: 160, Damage: 12, ProjectileDamage: 14, Size: entity.Vec2{X: 40, Y: 40},
		Speed: entity.Vec2{X: 1.5, Y: 1.4}, ShootCooldownMs: 2400, XP: 20, BulletSpeed: 4.5, BulletRadius: 5},
	Bounces: 1,
}

var Boss = BossConfig{
	Stats: Stats{HP: 1500, Damage: 30, ProjectileDamage: 20, Size: entity.Vec2{X: 120, Y: 90},
		Speed: entity.Vec2{X: 0.8, Y: 0.8}, ShootCooldownMs: 1200, XP: 100, BulletSpeed: 3.5, BulletRadius: 8},
	Spread: 3,
	Arc:    0.25,
}

// BaseConfig returns the base class for wave w, clamped to the last table entry.
func BaseConfig(w int) ClassConfig {
	i := w - 1
	if i < 0 {
		i = 0
	}
	if i >= len(BaseTable) {
		i = len(BaseTable) - 1
	}
	return BaseTable[i]
}
