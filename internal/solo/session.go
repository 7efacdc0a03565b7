package solo

import (
	"errors"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/sim"
)

const (
	PlayerID  = "local"
	moveSpeed = 5.0
)

// Input is one frame of local controls.
type Input struct {
	Move    entity.Vec2 // direction; normalized internally
	Fire    bool
	Aim     entity.Vec2 // shot direction; straight up when zero
	Ability string
	Upgrade string
}

// Frame reports what one tick produced.
type Frame struct {
	Defeated []protocol.Defeated
	Fired    *entity.Projectile
	Err      error // rejected ability or upgrade
	Over     bool
}

// Session is the self-authoritative single-player game: the same world the
// server runs, with enemy fire allowed to deplete the local player's health.
type Session struct {
	world *sim.World
	over  bool
}

func New(name string, seed int64) *Session {
	opts := sim.DefaultOptions()
	opts.PlayerDamage = true
	opts.Seed = seed
	w := sim.New(opts)
	w.Join(PlayerID, name, entity.Vec2{X: opts.Width / 2, Y: opts.Height - 50}, sim.DefaultMaxHealth)
	return &Session{world: w}
}

func (s *Session) World() *sim.World { return s.world }

func (s *Session) Player() *entity.Player { return s.world.Players[PlayerID] }

// Over reports whether the player's health reached zero.
func (s *Session) Over() bool { return s.over }

// Survived is the elapsed game time in seconds.
func (s *Session) Survived() float64 { return s.world.GameTime() }

// Tick runs one frame: local input first, then one simulation step.
func (s *Session) Tick(in Input) Frame {
	var f Frame
	if s.over {
		f.Over = true
		return f
	}
	p := s.Player()

	if in.Move.X != 0 || in.Move.Y != 0 {
		step := entity.Heading(entity.Vec2{}, in.Move, moveSpeed)
		_ = s.world.UpdatePlayer(PlayerID, p.Pos.Add(step), p.Health)
	}
	if in.Upgrade != "" {
		f.Err = s.world.ChooseUpgrade(PlayerID, in.Upgrade)
	}
	if in.Ability != "" {
		events, err := s.world.UseAbility(PlayerID, in.Ability)
		f.Err = errors.Join(f.Err, err)
		f.Defeated = append(f.Defeated, events...)
	}
	if in.Fire {
		aim := in.Aim
		if aim.X == 0 && aim.Y == 0 {
			aim = entity.Vec2{Y: -1}
		}
		if shot, err := s.world.Fire(PlayerID, aim); err == nil {
			f.Fired = shot
		}
	}

	f.Defeated = append(f.Defeated, s.world.Step()...)
	if !p.Alive() {
		s.over = true
	}
	f.Over = s.over
	return f
}
