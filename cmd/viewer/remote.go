package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skyraid/internal/client"
	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/reconcile"
)

const (
	moveSpeed   = 5.0 // logical units per frame
	shotRadius  = 4.0
	shotSpeed   = 8.0
	fallbackFPS = 60
)

type hit struct {
	enemyID string
	damage  int
}

// pilot is the locally simulated part of a multiplayer player: own shots,
// their hits on enemies, and enemy fire landing on the player.
type pilot struct {
	fps      int
	shots    map[string]*entity.Projectile // local units
	absorbed map[string]bool               // enemy projectiles already applied
	cooldown int                           // frames until the next shot
}

func newPilot(fps int) *pilot {
	return &pilot{
		fps:      fps,
		shots:    make(map[string]*entity.Projectile),
		absorbed: make(map[string]bool),
	}
}

// fire spawns a local shot from self and returns the bullet to announce, in logical units.
func (pl *pilot) fire(self *reconcile.Player, sc reconcile.Scale) (protocol.Bullet, bool) {
	if pl.cooldown > 0 || self == nil {
		return protocol.Bullet{}, false
	}
	speed := self.Weapon.BulletSpeed
	if speed <= 0 {
		speed = shotSpeed
	}
	pl.cooldown = max(int(self.Weapon.CooldownMs)*pl.fps/1000, 1)

	origin := self.Pos.Add(entity.Vec2{Y: -self.Size.Y / 2})
	vel := entity.Vec2{Y: -speed}
	shot := &entity.Projectile{
		ID:        entity.NewID("b"),
		Pos:       origin,
		Vel:       sc.Vec(vel),
		Radius:    sc.Radius(shotRadius),
		Damage:    self.Weapon.Damage,
		Owner:     entity.OwnerPlayer,
		ShooterID: self.ID,
	}
	pl.shots[shot.ID] = shot

	logical := origin.Scale(1/sc.X, 1/sc.Y)
	return protocol.Bullet{
		ID:     shot.ID,
		X:      logical.X,
		Y:      logical.Y,
		VX:     vel.X,
		VY:     vel.Y,
		Radius: shotRadius,
		Damage: shot.Damage,
	}, true
}

// step advances own shots one frame against v and returns the enemies hit and
// the damage taken by the local player.
func (pl *pilot) step(v reconcile.View, width, height float64) ([]hit, int) {
	if pl.cooldown > 0 {
		pl.cooldown--
	}
	var hits []hit
	for id, s := range pl.shots {
		s.Pos = s.Pos.Add(s.Vel)
		if !s.Bounds().Inside(width, height, 0) {
			delete(pl.shots, id)
			continue
		}
		for _, e := range v.Enemies {
			if s.Bounds().Intersects(e.Bounds()) {
				hits = append(hits, hit{enemyID: e.ID, damage: s.Damage})
				delete(pl.shots, id)
				break
			}
		}
	}

	if v.Self == nil {
		return hits, 0
	}
	taken := 0
	live := make(map[string]bool, len(v.Projectiles))
	self := v.Self.Bounds()
	for _, p := range v.Projectiles {
		if p.Owner != entity.OwnerEnemy {
			continue
		}
		live[p.ID] = true
		if pl.absorbed[p.ID] || !p.Bounds().Intersects(self) {
			continue
		}
		pl.absorbed[p.ID] = true
		if !v.Self.ShieldActive {
			taken += p.Damage
		}
	}
	for id := range pl.absorbed {
		if !live[id] {
			delete(pl.absorbed, id)
		}
	}
	return hits, taken
}

// remoteDriver plays against a server; the server owns enemies and waves,
// this side owns movement, health and hit detection of its own shots.
type remoteDriver struct {
	c          *client.Client
	pilot      *pilot
	cols, rows float64
	lastPos    entity.Vec2
	lastHealth int
	status     string
}

func newRemote(ctx context.Context, url, room, name string, codec protocol.Codec, cols, rows float64) (*remoteDriver, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := client.Dial(dialCtx, url, room, name, codec, cols, rows)
	if err != nil {
		return nil, err
	}
	return &remoteDriver{c: c, pilot: newPilot(fallbackFPS), cols: cols, rows: rows, lastHealth: -1}, nil
}

func (d *remoteDriver) frame(in input, cols, rows float64) scene {
	select {
	case <-d.c.Done():
		sc := sceneFromView(d.c.View())
		sc.status = fmt.Sprintf("disconnected: %v, q to quit", d.c.Err())
		return sc
	default:
	}
	if cols != d.cols || rows != d.rows {
		d.cols, d.rows = cols, rows
		d.c.Resize(cols, rows)
	}
	sc := reconcile.NewScale(cols, rows, entity.LogicalWidth, entity.LogicalHeight)

	v := d.c.View()
	if v.Self != nil && v.Self.Alive() {
		if in.upgrade != "" {
			_ = d.c.ChooseUpgrade(in.upgrade)
		}
		if in.ability != "" {
			_ = d.c.UseAbility(in.ability)
		}
		if in.fire {
			if b, ok := d.pilot.fire(v.Self, sc); ok {
				_ = d.c.Fire(b)
			}
		}
	}

	d.c.Frame()
	v = d.c.View()
	hits, taken := d.pilot.step(v, cols, rows)
	for _, h := range hits {
		_ = d.c.ReportDamage(h.enemyID, h.damage)
	}

	if self := v.Self; self != nil {
		pos, health := self.Pos, max(self.Health-taken, 0)
		if health > 0 && (in.move.X != 0 || in.move.Y != 0) {
			step := sc.Vec(entity.Heading(entity.Vec2{}, in.move, moveSpeed))
			pos = pos.Add(step)
			pos.X = min(max(pos.X, 0), cols)
			pos.Y = min(max(pos.Y, 0), rows)
		}
		if pos != d.lastPos || health != d.lastHealth {
			_ = d.c.Move(pos, health)
			d.lastPos, d.lastHealth = pos, health
		}
		if health == 0 {
			d.status = "shot down, q to quit"
		}
	}
	if errs := d.c.Errors(); len(errs) > 0 {
		d.status = strings.Join(errs, "; ")
	}

	out := sceneFromView(d.c.View())
	out.sprites = append(out.sprites, d.ownShots()...)
	out.status = d.status
	return out
}

func (d *remoteDriver) ownShots() []sprite {
	out := make([]sprite, 0, len(d.pilot.shots))
	for _, s := range d.pilot.shots {
		out = append(out, sprite{s.Bounds(), '|', styleOwnBul})
	}
	return out
}

func (d *remoteDriver) close() { _ = d.c.Close() }
