package sim

import (
	"maps"
	"math"
	"slices"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
)

const (
	lightningDamage  = 100
	lightningTargets = 3
	lightningTTL     = 30
	bladeSpeed       = 6.0
	bladeTTL         = 120
)

var defaultWeapon = entity.Weapon{CooldownMs: 250, Damage: 20, BulletSpeed: 8}

// Join registers a player. A non-positive health starts the player at full health.
func (w *World) Join(id, name string, pos entity.Vec2, health int) *entity.Player {
	if health <= 0 || health > DefaultMaxHealth {
		health = DefaultMaxHealth
	}
	p := &entity.Player{
		ID:        id,
		Name:      name,
		Pos:       w.clamp(pos),
		Size:      entity.Vec2{X: playerSize, Y: playerSize},
		Health:    health,
		MaxHealth: DefaultMaxHealth,
		Level:     1,
		Weapon:    defaultWeapon,

		LastFiredMs: -defaultWeapon.CooldownMs,
	}
	w.Players[id] = p
	return p
}

// Leave removes a player and every blade it owns.
func (w *World) Leave(id string) bool {
	if _, ok := w.Players[id]; !ok {
		return false
	}
	delete(w.Players, id)
	for bid, b := range w.Blades {
		if b.OwnerID == id {
			delete(w.Blades, bid)
		}
	}
	return true
}

// UpdatePlayer upserts the client-reported position and health.
func (w *World) UpdatePlayer(id string, pos entity.Vec2, health int) error {
	p, ok := w.Players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if !pos.Finite() {
		return ErrInvalidInput
	}
	p.Pos = w.clamp(pos)
	p.Health = min(max(health, 0), p.MaxHealth)
	return nil
}

func (w *World) clamp(v entity.Vec2) entity.Vec2 {
	if !v.Finite() {
		return entity.Vec2{X: w.opts.Width / 2, Y: w.opts.Height - playerSize}
	}
	return entity.Vec2{
		X: math.Min(math.Max(v.X, 0), w.opts.Width),
		Y: math.Min(math.Max(v.Y, 0), w.opts.Height),
	}
}

// Fire launches a player projectile with heading vel scaled to the weapon's bullet speed.
// Only self-authoritative worlds simulate player shots.
func (w *World) Fire(playerID string, dir entity.Vec2) (*entity.Projectile, error) {
	p, ok := w.Players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if !dir.Finite() || (dir.X == 0 && dir.Y == 0) {
		return nil, ErrInvalidInput
	}
	now := w.NowMs()
	if now-p.LastFiredMs < p.Weapon.CooldownMs {
		return nil, ErrWeaponCooldown
	}
	p.LastFiredMs = now
	shot := &entity.Projectile{
		ID:        entity.NewID("b"),
		Pos:       p.Pos,
		Vel:       entity.Heading(entity.Vec2{}, dir, p.Weapon.BulletSpeed),
		Radius:    4,
		Damage:    p.Weapon.Damage,
		Owner:     entity.OwnerPlayer,
		ShooterID: p.ID,
		TTL:       playerShotTTL,
	}
	w.Projectiles[shot.ID] = shot
	return shot, nil
}

// ChooseUpgrade spends one upgrade point on a permanent upgrade.
func (w *World) ChooseUpgrade(playerID, kind string) error {
	p, ok := w.Players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	var flag *bool
	switch kind {
	case protocol.KindAlly:
		flag = &p.Upgrades.Ally
	case protocol.KindLightning:
		flag = &p.Upgrades.Lightning
	case protocol.KindShield:
		flag = &p.Upgrades.Shield
	case protocol.KindBlade:
		flag = &p.Upgrades.Blade
	default:
		return ErrUnknownKind
	}
	if *flag {
		return ErrAlreadyUnlocked
	}
	if p.UpgradePoints <= 0 {
		return ErrNoUpgradePoints
	}
	*flag = true
	p.UpgradePoints--
	return nil
}

// UseAbility triggers an unlocked active ability. Cooldowns are counted in waves.
func (w *World) UseAbility(playerID, kind string) ([]protocol.Defeated, error) {
	p, ok := w.Players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	current := w.Waves.Wave
	switch kind {
	case protocol.KindLightning:
		if !p.Upgrades.Lightning {
			return nil, ErrLocked
		}
		if current < p.LightningReadyWave {
			return nil, ErrCooldown
		}
		p.LightningReadyWave = current + 1
		return w.lightning(p), nil
	case protocol.KindShield:
		if !p.Upgrades.Shield {
			return nil, ErrLocked
		}
		if current < p.ShieldReadyWave {
			return nil, ErrCooldown
		}
		p.ShieldReadyWave = current + 2
		p.ShieldActive = true
		return nil, nil
	case protocol.KindBlade:
		if !p.Upgrades.Blade {
			return nil, ErrLocked
		}
		if current < p.BladeReadyWave {
			return nil, ErrCooldown
		}
		p.BladeReadyWave = current + 3
		b := &entity.Blade{
			ID:      entity.NewID("blade"),
			OwnerID: p.ID,
			Size:    entity.Vec2{X: 120, Y: 16},
			Vel:     entity.Vec2{X: 0, Y: -bladeSpeed},
			TTL:     bladeTTL,
		}
		b.Pos = entity.Vec2{X: p.Pos.X - b.Size.X/2, Y: p.Pos.Y - p.Size.Y}
		w.Blades[b.ID] = b
		return nil, nil
	case protocol.KindAlly:
		return nil, ErrInvalidInput
	}
	return nil, ErrUnknownKind
}

func (w *World) lightning(p *entity.Player) []protocol.Defeated {
	ids := slices.Sorted(maps.Keys(w.Enemies))
	w.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > lightningTargets {
		ids = ids[:lightningTargets]
	}
	var events []protocol.Defeated
	for _, id := range ids {
		e := w.Enemies[id]
		s := &entity.LightningStrike{ID: entity.NewID("l"), Pos: e.Center(), TargetID: id, TTL: lightningTTL}
		w.Strikes[s.ID] = s
		if ev, ok := w.damage(id, p.ID, lightningDamage); ok {
			events = append(events, ev)
		}
	}
	return events
}
