package main

import (
	"testing"

	"skyraid/internal/entity"
	"skyraid/internal/reconcile"
)

func selfAt(x, y float64) *reconcile.Player {
	return &reconcile.Player{Player: entity.Player{
		ID:     "p1",
		Pos:    entity.Vec2{X: x, Y: y},
		Size:   entity.Vec2{X: 30, Y: 30},
		Health: 100,
		Weapon: entity.Weapon{CooldownMs: 250, Damage: 20, BulletSpeed: 8},
	}}
}

func TestPilotFireCooldown(t *testing.T) {
	pl := newPilot(60)
	sc := reconcile.NewScale(400, 300, entity.LogicalWidth, entity.LogicalHeight)
	self := selfAt(200, 250)

	b, ok := pl.fire(self, sc)
	if !ok {
		t.Fatalf("first shot refused")
	}
	if b.X != 400 || b.Y != 470 || b.VY != -8 || b.Damage != 20 {
		t.Fatalf("bullet not in logical units: %+v", b)
	}
	if _, ok := pl.fire(self, sc); ok {
		t.Fatalf("second shot inside cooldown")
	}
	for range 15 {
		pl.step(reconcile.View{}, 400, 300)
	}
	if _, ok := pl.fire(self, sc); !ok {
		t.Fatalf("shot refused after cooldown")
	}
}

func TestPilotShotHitsEnemyOnce(t *testing.T) {
	pl := newPilot(60)
	sc := reconcile.NewScale(800, 600, entity.LogicalWidth, entity.LogicalHeight)
	pl.fire(selfAt(100, 500), sc)

	v := reconcile.View{Enemies: []reconcile.Enemy{{Enemy: entity.Enemy{
		ID: "e1", Pos: entity.Vec2{X: 80, Y: 420}, Size: entity.Vec2{X: 40, Y: 40},
	}}}}
	var hits []hit
	for range 20 {
		h, _ := pl.step(v, 800, 600)
		hits = append(hits, h...)
	}
	if len(hits) != 1 || hits[0].enemyID != "e1" || hits[0].damage != 20 {
		t.Fatalf("hits = %+v", hits)
	}
	if len(pl.shots) != 0 {
		t.Fatalf("shot survived its hit")
	}
}

func TestPilotTakesEnemyFireOnce(t *testing.T) {
	pl := newPilot(60)
	self := selfAt(100, 100)
	shot := reconcile.Projectile{Projectile: entity.Projectile{
		ID: "eb1", Pos: entity.Vec2{X: 100, Y: 100}, Radius: 4, Damage: 15, Owner: entity.OwnerEnemy,
	}}
	v := reconcile.View{Self: self, Projectiles: []reconcile.Projectile{shot}}

	if _, taken := pl.step(v, 800, 600); taken != 15 {
		t.Fatalf("taken = %d, want 15", taken)
	}
	if _, taken := pl.step(v, 800, 600); taken != 0 {
		t.Fatalf("same projectile applied twice")
	}

	self.ShieldActive = true
	shot.ID = "eb2"
	v.Projectiles = []reconcile.Projectile{shot}
	if _, taken := pl.step(v, 800, 600); taken != 0 {
		t.Fatalf("shield let %d through", taken)
	}
	if len(pl.absorbed) != 1 || !pl.absorbed["eb2"] {
		t.Fatalf("absorbed set not pruned: %v", pl.absorbed)
	}
}
