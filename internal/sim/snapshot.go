package sim

import (
	"maps"
	"slices"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
)

// Snapshot copies the full authoritative state in id order.
func (w *World) Snapshot() protocol.Snapshot {
	s := protocol.Snapshot{
		Tick:             w.Tick,
		GameTime:         w.GameTime(),
		Wave:             w.Waves.Wave,
		WavePhase:        string(w.Waves.Phase),
		WaveTimer:        w.Waves.Timer,
		Players:          make([]entity.Player, 0, len(w.Players)),
		Enemies:          make([]entity.Enemy, 0, len(w.Enemies)),
		EnemyProjectiles: make([]entity.Projectile, 0, len(w.Projectiles)),
		LightningStrikes: make([]entity.LightningStrike, 0, len(w.Strikes)),
		ActiveBlades:     make([]entity.Blade, 0, len(w.Blades)),
	}
	for _, id := range slices.Sorted(maps.Keys(w.Players)) {
		s.Players = append(s.Players, *w.Players[id])
	}
	for _, id := range slices.Sorted(maps.Keys(w.Enemies)) {
		s.Enemies = append(s.Enemies, *w.Enemies[id])
	}
	for _, id := range slices.Sorted(maps.Keys(w.Projectiles)) {
		p := *w.Projectiles[id]
		if p.Owner == entity.OwnerEnemy {
			s.EnemyProjectiles = append(s.EnemyProjectiles, p)
		} else {
			s.PlayerProjectiles = append(s.PlayerProjectiles, p)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(w.Strikes)) {
		s.LightningStrikes = append(s.LightningStrikes, *w.Strikes[id])
	}
	for _, id := range slices.Sorted(maps.Keys(w.Blades)) {
		s.ActiveBlades = append(s.ActiveBlades, *w.Blades[id])
	}
	return s
}
