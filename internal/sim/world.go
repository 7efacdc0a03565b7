package sim

import (
	"errors"
	"maps"
	"math"
	"math/rand"
	"slices"

	"skyraid/internal/combat"
	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/wave"
)

const (
	DefaultMaxHealth = 100
	playerSize       = 30.0
	exitMargin       = 200.0
	allyDamage       = 15
	allyCooldown     = 60
	allySpeed        = 7.0
	playerShotTTL    = 300
)

var (
	ErrUnknownPlayer   = errors.New("sim: unknown player")
	ErrUnknownKind     = errors.New("sim: unknown ability kind")
	ErrLocked          = errors.New("sim: ability not unlocked")
	ErrCooldown        = errors.New("sim: ability on cooldown")
	ErrNoUpgradePoints = errors.New("sim: no upgrade points")
	ErrAlreadyUnlocked = errors.New("sim: upgrade already unlocked")
	ErrWeaponCooldown  = errors.New("sim: weapon on cooldown")
	ErrInvalidInput    = errors.New("sim: invalid input")
)

type Options struct {
	TickHz int
	// PlayerDamage lets enemy fire deplete player health. Only a self-authoritative
	// single-player world sets it; in multiplayer health belongs to the client.
	PlayerDamage bool
	Seed         int64
	Width        float64
	Height       float64
}

func DefaultOptions() Options {
	return Options{
		TickHz: protocol.SimTickHz,
		Seed:   1,
		Width:  entity.LogicalWidth,
		Height: entity.LogicalHeight,
	}
}

// World is the authoritative simulation state. It is not safe for concurrent use;
// exactly one owner drives it.
type World struct {
	Tick        int64
	Players     map[string]*entity.Player
	Enemies     map[string]*entity.Enemy
	Projectiles map[string]*entity.Projectile
	Strikes     map[string]*entity.LightningStrike
	Blades      map[string]*entity.Blade
	Waves       *wave.Scheduler

	configs map[string]wave.ClassConfig
	opts    Options
	rng     *rand.Rand
}

func New(opts Options) *World {
	if opts.TickHz <= 0 {
		opts.TickHz = protocol.SimTickHz
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = entity.LogicalWidth, entity.LogicalHeight
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	return &World{
		Players:     make(map[string]*entity.Player),
		Enemies:     make(map[string]*entity.Enemy),
		Projectiles: make(map[string]*entity.Projectile),
		Strikes:     make(map[string]*entity.LightningStrike),
		Blades:      make(map[string]*entity.Blade),
		Waves:       wave.NewScheduler(rng, opts.Width, opts.Height),
		configs:     make(map[string]wave.ClassConfig),
		opts:        opts,
		rng:         rng,
	}
}

func (w *World) Options() Options { return w.opts }

// NowMs is the simulation clock in milliseconds.
func (w *World) NowMs() int64 { return w.Tick * 1000 / int64(w.opts.TickHz) }

// GameTime is the simulation clock in seconds.
func (w *World) GameTime() float64 { return float64(w.Tick) / float64(w.opts.TickHz) }

// Enemy resolves an enemy id against the live set.
func (w *World) Enemy(id string) (*entity.Enemy, bool) {
	e, ok := w.Enemies[id]
	return e, ok
}

// AddEnemy places an enemy driven by cfg into the world.
func (w *World) AddEnemy(e *entity.Enemy, cfg wave.ClassConfig) {
	w.Enemies[e.ID] = e
	w.configs[e.ID] = cfg
}

func (w *World) removeEnemy(id string) {
	delete(w.Enemies, id)
	delete(w.configs, id)
}

// Step advances the world by one tick and returns the kills it produced.
func (w *World) Step() []protocol.Defeated {
	w.Tick++

	for _, sp := range w.Waves.Step(w.Tick, len(w.Enemies)) {
		w.AddEnemy(sp.Enemy, sp.Config)
	}

	w.moveEnemies()
	w.enemyFire()
	w.moveProjectiles()
	w.moveBlades()
	w.hitPlayers()
	w.allyFire()

	var events []protocol.Defeated
	for _, h := range combat.Resolve(w.Projectiles, entity.OwnerPlayer, w.Enemies) {
		if ev, ok := w.damage(h.TargetID, h.Projectile.ShooterID, h.Projectile.Damage); ok {
			events = append(events, ev)
		}
	}

	for id, s := range w.Strikes {
		s.TTL--
		if s.TTL <= 0 {
			delete(w.Strikes, id)
		}
	}
	return events
}

func (w *World) moveEnemies() {
	for _, id := range slices.Sorted(maps.Keys(w.Enemies)) {
		e := w.Enemies[id]
		if !e.ReachedPosition {
			e.Pos.Y += e.Speed.Y
			if e.Pos.Y >= e.TargetY {
				e.Pos.Y = e.TargetY
				e.ReachedPosition = true
			}
		} else if e.Speed.X != 0 {
			e.Pos.X += e.Speed.X
			if e.Pos.X <= 0 && e.Speed.X < 0 || e.Pos.X+e.Size.X >= w.opts.Width && e.Speed.X > 0 {
				e.Speed.X = -e.Speed.X
			}
		}
		if !e.Bounds().Inside(w.opts.Width, w.opts.Height, exitMargin) {
			w.removeEnemy(id)
		}
	}
}

func (w *World) nearestPlayer(from entity.Vec2) (*entity.Player, bool) {
	var best *entity.Player
	bestDist := math.MaxFloat64
	for _, id := range slices.Sorted(maps.Keys(w.Players)) {
		p := w.Players[id]
		if !p.Alive() {
			continue
		}
		if d := entity.Distance(from, p.Pos); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, best != nil
}

func (w *World) nearestEnemy(from entity.Vec2) (*entity.Enemy, bool) {
	var best *entity.Enemy
	bestDist := math.MaxFloat64
	for _, id := range slices.Sorted(maps.Keys(w.Enemies)) {
		e := w.Enemies[id]
		if d := entity.Distance(from, e.Center()); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

func (w *World) enemyFire() {
	now := w.NowMs()
	for _, id := range slices.Sorted(maps.Keys(w.Enemies)) {
		e := w.Enemies[id]
		if !w.Waves.CanFire(e, now) {
			continue
		}
		target, ok := w.nearestPlayer(e.Center())
		if !ok {
			return
		}
		cfg, ok := w.configs[id]
		if !ok {
			cfg = wave.BaseConfig(1)
		}
		for _, p := range cfg.Volley(e, target.Pos, w.opts.Width) {
			w.Projectiles[p.ID] = p
		}
		w.Waves.RecordShot(e, now)
	}
}

func (w *World) moveProjectiles() {
	for id, p := range w.Projectiles {
		p.Pos = p.Pos.Add(p.Vel)
		p.TTL--
		if p.TTL <= 0 || !combat.Confine(p, w.opts.Width, w.opts.Height) {
			delete(w.Projectiles, id)
		}
	}
}

func (w *World) moveBlades() {
	for _, id := range slices.Sorted(maps.Keys(w.Blades)) {
		b := w.Blades[id]
		b.Pos = b.Pos.Add(b.Vel)
		for _, r := range combat.Reflect(b, w.Projectiles, w.Enemy) {
			w.Projectiles[r.ID] = r
		}
		b.TTL--
		if b.TTL <= 0 || !b.Bounds().Inside(w.opts.Width, w.opts.Height, 0) {
			delete(w.Blades, id)
		}
	}
}

func (w *World) hitPlayers() {
	alive := make(map[string]*entity.Player, len(w.Players))
	for id, p := range w.Players {
		if p.Alive() {
			alive[id] = p
		}
	}
	for _, h := range combat.Resolve(w.Projectiles, entity.OwnerEnemy, alive) {
		p := alive[h.TargetID]
		if p.ShieldActive {
			p.ShieldActive = false
			continue
		}
		if w.opts.PlayerDamage {
			p.Health = max(0, p.Health-h.Projectile.Damage)
		}
	}
}

func (w *World) allyFire() {
	for _, id := range slices.Sorted(maps.Keys(w.Players)) {
		p := w.Players[id]
		if !p.Upgrades.Ally || !p.Alive() {
			continue
		}
		if p.AllyCooldown > 0 {
			p.AllyCooldown--
			continue
		}
		from := p.Pos.Add(entity.Vec2{X: -playerSize, Y: 0})
		target, ok := w.nearestEnemy(from)
		if !ok {
			continue
		}
		shot := &entity.Projectile{
			ID:        entity.NewID("b"),
			Pos:       from,
			Vel:       entity.Heading(from, target.Center(), allySpeed),
			Radius:    3,
			Damage:    allyDamage,
			Owner:     entity.OwnerPlayer,
			ShooterID: p.ID,
			TTL:       playerShotTTL,
		}
		w.Projectiles[shot.ID] = shot
		p.AllyCooldown = allyCooldown
	}
}

// damage applies amount to an enemy. Unknown ids are ignored.
func (w *World) damage(enemyID, killerID string, amount int) (protocol.Defeated, bool) {
	e, ok := w.Enemies[enemyID]
	if !ok || amount <= 0 {
		return protocol.Defeated{}, false
	}
	e.HP -= amount
	if e.HP > 0 {
		return protocol.Defeated{}, false
	}
	xp := 0
	if cfg, ok := w.configs[enemyID]; ok {
		xp = cfg.Base().XP
	}
	w.removeEnemy(enemyID)
	if killer, ok := w.Players[killerID]; ok {
		awardXP(killer, xp)
	}
	return protocol.Defeated{EnemyID: enemyID, KillerID: killerID, XP: xp}, true
}

// DamageEnemy applies a client-reported hit. It reports a kill when the enemy's
// health reached zero; an id that is no longer alive is a silent no-op.
func (w *World) DamageEnemy(playerID, enemyID string, amount int) (protocol.Defeated, bool) {
	if _, ok := w.Players[playerID]; !ok {
		return protocol.Defeated{}, false
	}
	return w.damage(enemyID, playerID, amount)
}

// XPForLevel is the experience needed to leave the given level.
func XPForLevel(level int) int { return 100 * level }

func awardXP(p *entity.Player, xp int) {
	p.XP += xp
	for p.XP >= XPForLevel(p.Level) {
		p.XP -= XPForLevel(p.Level)
		p.Level++
		p.UpgradePoints++
	}
}
