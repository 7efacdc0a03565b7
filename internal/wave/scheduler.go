package wave

import (
	"math"
	"math/rand"

	"skyraid/internal/entity"
)

type Phase string

const (
	PhaseIntermission Phase = "intermission"
	PhaseActive       Phase = "active"
)

const (
	IntermissionTicks = 600
	SpawnStaggerTicks = 30
	ClassCooldownMs   = 300
	maxScaleBonus     = 0.5
	scalePerWave      = 0.1
)

// ScaleFactor is the stat multiplier for wave w, capped at 1.5.
func ScaleFactor(w int) float64 {
	if w < 1 {
		return 1
	}
	return 1 + math.Min(maxScaleBonus, float64(w-1)*scalePerWave)
}

// ScaleStat applies the wave multiplier to a base stat, flooring to an integer.
// It works in tenths so the result is exact: ScaleStat(45, 5) is 63, not the
// 62 a float product would floor to.
func ScaleStat(base, w int) int {
	if w < 1 {
		return base
	}
	tenths := 10 + min(int(maxScaleBonus*10), w-1)
	return base * tenths / 10
}

// Spawn is one planned enemy of a wave, released Delay ticks after the wave starts.
type Spawn struct {
	Config ClassConfig
	Delay  int
}

// Plan lists every spawn of wave w in release order.
func Plan(w int) []Spawn {
	if w < 1 {
		return nil
	}
	base := BaseConfig(w)
	out := make([]Spawn, 0, w+4)
	for i := 0; i < w+1; i++ {
		out = append(out, Spawn{Config: base})
	}
	if w >= 3 {
		out = append(out, Spawn{Config: Ricochet})
	}
	if w >= 7 && (w-7)%2 == 0 {
		out = append(out, Spawn{Config: Ricochet})
	}
	if w >= 10 && (w-10)%3 == 0 {
		out = append(out, Spawn{Config: Boss})
	}
	for i := range out {
		out[i].Delay = i * SpawnStaggerTicks
	}
	return out
}

// Spawned pairs a new enemy with the configuration that drives it.
type Spawned struct {
	Enemy  *entity.Enemy
	Config ClassConfig
}

type task struct {
	due   int64
	wave  int
	spawn Spawn
}

// Scheduler is the intermission/active state machine. It advances one step per
// simulation tick and never reads the wall clock.
type Scheduler struct {
	Wave            int
	Phase           Phase
	Timer           int
	LastShotByClass map[entity.Class]int64

	width, height float64
	pending       []task
	rng           *rand.Rand
}

func NewScheduler(rng *rand.Rand, width, height float64) *Scheduler {
	return &Scheduler{
		Phase:           PhaseIntermission,
		Timer:           IntermissionTicks,
		LastShotByClass: make(map[entity.Class]int64),
		width:           width,
		height:          height,
		rng:             rng,
	}
}

// Pending reports how many deferred spawns are still queued.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Step runs one tick. alive is the number of enemies currently in play.
func (s *Scheduler) Step(tick int64, alive int) []Spawned {
	if s.Phase == PhaseIntermission {
		s.Timer--
		if s.Timer > 0 {
			return nil
		}
		s.startWave(tick)
	}

	released := s.release(tick)
	if alive+len(released) == 0 && len(s.pending) == 0 {
		s.Phase = PhaseIntermission
		s.Timer = IntermissionTicks
	}
	return released
}

func (s *Scheduler) startWave(tick int64) {
	s.Wave++
	s.Phase = PhaseActive
	s.Timer = 0
	for _, sp := range Plan(s.Wave) {
		s.pending = append(s.pending, task{due: tick + int64(sp.Delay), wave: s.Wave, spawn: sp})
	}
}

func (s *Scheduler) release(tick int64) []Spawned {
	var out []Spawned
	kept := s.pending[:0]
	for _, t := range s.pending {
		if t.due > tick {
			kept = append(kept, t)
			continue
		}
		out = append(out, Spawned{Enemy: s.build(t.spawn.Config, t.wave), Config: t.spawn.Config})
	}
	s.pending = kept
	return out
}

func (s *Scheduler) build(cfg ClassConfig, w int) *entity.Enemy {
	st := cfg.Base()
	hp := ScaleStat(st.HP, w)
	span := s.width - st.Size.X
	if span < 0 {
		span = 0
	}
	e := &entity.Enemy{
		ID:               entity.NewID("e"),
		Class:            cfg.Class(),
		Pos:              entity.Vec2{X: s.rng.Float64() * span, Y: -st.Size.Y},
		Size:             st.Size,
		HP:               hp,
		MaxHP:            hp,
		Speed:            st.Speed,
		Damage:           ScaleStat(st.Damage, w),
		ProjectileDamage: ScaleStat(st.ProjectileDamage, w),
		ShootCooldownMs:  st.ShootCooldownMs,
		TargetY:          40 + s.rng.Float64()*math.Max(0, s.height/2-40-st.Size.Y),
	}
	if s.rng.Intn(2) == 0 {
		e.Speed.X = -e.Speed.X
	}
	cfg.Decorate(e)
	if e.IsBoss {
		e.TargetY = 40
	}
	return e
}

// CanFire applies the individual and the shared per-class cooldown.
func (s *Scheduler) CanFire(e *entity.Enemy, nowMs int64) bool {
	if !e.ReachedPosition {
		return false
	}
	if e.LastShotMs != 0 && nowMs-e.LastShotMs < e.ShootCooldownMs {
		return false
	}
	if last, ok := s.LastShotByClass[e.Class]; ok && nowMs-last < ClassCooldownMs {
		return false
	}
	return true
}

func (s *Scheduler) RecordShot(e *entity.Enemy, nowMs int64) {
	e.LastShotMs = nowMs
	s.LastShotByClass[e.Class] = nowMs
}
