package wave

import (
	"math"
	"math/rand"
	"testing"

	"skyraid/internal/entity"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(rand.New(rand.NewSource(1)), entity.LogicalWidth, entity.LogicalHeight)
}

func TestScaleFactor(t *testing.T) {
	cases := []struct {
		wave int
		want float64
	}{
		{1, 1.0},
		{2, 1.1},
		{4, 1.3},
		{6, 1.5},
		{7, 1.5},
		{20, 1.5},
	}
	for _, tc := range cases {
		if got := ScaleFactor(tc.wave); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ScaleFactor(%d) = %v, want %v", tc.wave, got, tc.want)
		}
	}
}

func TestScaleStatFloors(t *testing.T) {
	if got := ScaleStat(125, 2); got != 137 {
		t.Fatalf("ScaleStat(125, 2) = %d, want 137", got)
	}
	if got := ScaleStat(120, 1); got != 120 {
		t.Fatalf("ScaleStat(120, 1) = %d, want 120", got)
	}
	for _, tc := range []struct{ base, wave, want int }{
		{45, 5, 63},
		{10, 4, 13},
		{7, 30, 10},
		{50, 0, 50},
	} {
		if got := ScaleStat(tc.base, tc.wave); got != tc.want {
			t.Fatalf("ScaleStat(%d, %d) = %d, want %d", tc.base, tc.wave, got, tc.want)
		}
	}
}

func TestPlanCounts(t *testing.T) {
	for w := 1; w <= 40; w++ {
		plan := Plan(w)
		var base, ricochet, boss int
		for _, sp := range plan {
			switch sp.Config.Class() {
			case entity.ClassRicochet:
				ricochet++
			case entity.ClassBoss:
				boss++
			default:
				base++
			}
		}
		if base != w+1 {
			t.Fatalf("wave %d: base = %d, want %d", w, base, w+1)
		}
		wantRicochet := 0
		if w >= 3 {
			wantRicochet++
		}
		if w >= 7 && (w-7)%2 == 0 {
			wantRicochet++
		}
		if ricochet != wantRicochet {
			t.Fatalf("wave %d: ricochet = %d, want %d", w, ricochet, wantRicochet)
		}
		wantBoss := 0
		if w >= 10 && (w-10)%3 == 0 {
			wantBoss = 1
		}
		if boss != wantBoss {
			t.Fatalf("wave %d: boss = %d, want %d", w, boss, wantBoss)
		}
	}
}

func TestPlanStaggersSpawns(t *testing.T) {
	plan := Plan(5)
	for i := 1; i < len(plan); i++ {
		if plan[i].Delay <= plan[i-1].Delay {
			t.Fatalf("spawn %d delay %d not after %d", i, plan[i].Delay, plan[i-1].Delay)
		}
	}
}

func TestBaseConfigClamps(t *testing.T) {
	last := BaseTable[len(BaseTable)-1]
	if BaseConfig(len(BaseTable)+10) != last {
		t.Fatalf("expected clamp to last table entry")
	}
	if BaseConfig(1).Class() != entity.ClassNormal {
		t.Fatalf("wave 1 should be normal")
	}
}

func TestFirstWaveSpawnsTwoNormals(t *testing.T) {
	s := newTestScheduler()
	var spawned []Spawned
	var tick int64
	for tick = 1; tick <= IntermissionTicks; tick++ {
		spawned = append(spawned, s.Step(tick, 0)...)
	}
	if s.Wave != 1 || s.Phase != PhaseActive {
		t.Fatalf("after countdown wave=%d phase=%s, want 1 active", s.Wave, s.Phase)
	}
	for ; len(spawned) < 2 && tick < IntermissionTicks+200; tick++ {
		spawned = append(spawned, s.Step(tick, len(spawned))...)
	}
	if len(spawned) != 2 {
		t.Fatalf("spawned %d enemies, want 2", len(spawned))
	}
	for _, sp := range spawned {
		if sp.Enemy.Class != entity.ClassNormal {
			t.Fatalf("class = %s, want normal", sp.Enemy.Class)
		}
		if sp.Enemy.HP != 120 {
			t.Fatalf("hp = %d, want 120", sp.Enemy.HP)
		}
	}
	if spawned[0].Enemy.ID == spawned[1].Enemy.ID {
		t.Fatalf("enemy ids must be unique")
	}
}

func TestActiveReturnsToIntermissionWhenCleared(t *testing.T) {
	s := newTestScheduler()
	s.Timer = 1
	tick := int64(1)
	got := s.Step(tick, 0)
	if len(got) != 1 || s.Pending() != 1 {
		t.Fatalf("expected one immediate spawn and one pending, got %d / %d", len(got), s.Pending())
	}
	// the board is empty but a spawn is still queued
	tick++
	s.Step(tick, 0)
	if s.Phase != PhaseActive {
		t.Fatalf("phase changed while spawns pending")
	}
	for ; s.Pending() > 0; tick++ {
		s.Step(tick, 1)
	}
	s.Step(tick, 0)
	if s.Phase != PhaseIntermission || s.Timer != IntermissionTicks {
		t.Fatalf("phase=%s timer=%d, want intermission %d", s.Phase, s.Timer, IntermissionTicks)
	}
	if s.Wave != 1 {
		t.Fatalf("wave = %d, want 1", s.Wave)
	}
}

func TestScaledStatsApplied(t *testing.T) {
	s := newTestScheduler()
	s.Wave = 5
	s.Timer = 1
	got := s.Step(1, 0)
	if len(got) == 0 {
		t.Fatalf("no spawn released")
	}
	e := got[0].Enemy
	base := BaseConfig(6).Base()
	if e.HP != ScaleStat(base.HP, 6) || e.ProjectileDamage != ScaleStat(base.ProjectileDamage, 6) {
		t.Fatalf("wave 6 stats not scaled: hp=%d pd=%d", e.HP, e.ProjectileDamage)
	}
}

func TestCanFireCooldowns(t *testing.T) {
	s := newTestScheduler()
	a := &entity.Enemy{ID: "a", Class: entity.ClassNormal, ShootCooldownMs: 1000}
	b := &entity.Enemy{ID: "b", Class: entity.ClassNormal, ShootCooldownMs: 1000, ReachedPosition: true}

	if s.CanFire(a, 5000) {
		t.Fatalf("enemy still entering must not fire")
	}
	a.ReachedPosition = true
	if !s.CanFire(a, 5000) {
		t.Fatalf("expected first shot allowed")
	}
	s.RecordShot(a, 5000)
	if s.CanFire(b, 5100) {
		t.Fatalf("class cooldown should block same-class burst")
	}
	if !s.CanFire(b, 5300) {
		t.Fatalf("class cooldown elapsed, expected fire")
	}
	if s.CanFire(a, 5500) {
		t.Fatalf("individual cooldown should block")
	}
	other := &entity.Enemy{ID: "c", Class: entity.ClassSniper, ShootCooldownMs: 1000, ReachedPosition: true}
	if !s.CanFire(other, 5100) {
		t.Fatalf("different class must not share cooldown")
	}
}

func TestMirrorTarget(t *testing.T) {
	target := entity.Vec2{X: 300, Y: 500}
	left := MirrorTarget(entity.Vec2{X: 100, Y: 50}, target, 800)
	if left.X != -300 || left.Y != 500 {
		t.Fatalf("left mirror = %+v", left)
	}
	right := MirrorTarget(entity.Vec2{X: 700, Y: 50}, target, 800)
	if right.X != 1300 {
		t.Fatalf("right mirror = %+v", right)
	}
}

func TestRicochetVolleyBounces(t *testing.T) {
	e := &entity.Enemy{ID: "r", Pos: entity.Vec2{X: 100, Y: 50}, Size: entity.Vec2{X: 40, Y: 40}, ProjectileDamage: 14}
	shots := Ricochet.Volley(e, entity.Vec2{X: 300, Y: 500}, 800)
	if len(shots) != 1 {
		t.Fatalf("got %d shots", len(shots))
	}
	p := shots[0]
	if !p.CanRicochet || p.BouncesLeft != 1 || p.ShooterID != "r" || p.Owner != entity.OwnerEnemy {
		t.Fatalf("unexpected projectile %+v", p)
	}
	if p.Vel.X >= 0 {
		t.Fatalf("left-side ricochet should head for the left wall, vel=%+v", p.Vel)
	}
}

func TestBossVolleySpread(t *testing.T) {
	e := &entity.Enemy{ID: "boss", Pos: entity.Vec2{X: 340, Y: 40}, Size: Boss.Size, ProjectileDamage: 20}
	shots := Boss.Volley(e, entity.Vec2{X: 400, Y: 500}, 800)
	if len(shots) != Boss.Spread {
		t.Fatalf("got %d shots, want %d", len(shots), Boss.Spread)
	}
	seen := map[string]bool{}
	for _, p := range shots {
		if seen[p.ID] {
			t.Fatalf("duplicate projectile id")
		}
		seen[p.ID] = true
	}
}
