package reconcile

import (
	"maps"
	"slices"

	"skyraid/internal/entity"
)

// View is a detached copy of the engine state in id order, safe to hand to a renderer.
type View struct {
	SelfID      string
	Self        *Player
	Players     []Player
	Enemies     []Enemy
	Projectiles []Projectile // enemy shots, server-made player shots, relayed shots
	Strikes     []entity.LightningStrike
	Blades      []entity.Blade
	Wave        int
	WavePhase   string
	WaveTimer   int
	GameTime    float64
}

func sortedValues[T any](m map[string]*T) []T {
	out := make([]T, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, *m[id])
	}
	return out
}

func detach(p Player) Player {
	if p.Ally != nil {
		ally := *p.Ally
		p.Ally = &ally
	}
	return p
}

func (e *Engine) View() View {
	v := View{
		SelfID:    e.SelfID,
		Players:   sortedValues(e.Players),
		Enemies:   sortedValues(e.Enemies),
		Strikes:   slices.Clone(e.Strikes),
		Blades:    slices.Clone(e.Blades),
		Wave:      e.Wave,
		WavePhase: e.WavePhase,
		WaveTimer: e.WaveTimer,
		GameTime:  e.GameTime,
	}
	for i := range v.Players {
		v.Players[i] = detach(v.Players[i])
	}
	if e.Self != nil {
		self := detach(*e.Self)
		v.Self = &self
	}
	v.Projectiles = append(v.Projectiles, sortedValues(e.EnemyProjectiles)...)
	v.Projectiles = append(v.Projectiles, sortedValues(e.PlayerProjectiles)...)
	v.Projectiles = append(v.Projectiles, sortedValues(e.RemoteShots)...)
	return v
}
