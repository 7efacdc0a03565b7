package reconcile

import (
	"maps"
	"slices"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
)

const (
	hitFlashFrames = 6
	allyOffset     = 30.0
	// remote shots are client-simulated only and expire on their own.
	remoteShotFrames = 300
)

// Enemy is the local mirror of a server enemy, in local units.
type Enemy struct {
	entity.Enemy
	HitFlash int // frames left of the hit highlight; client-only
}

// Projectile is a local mirror in local units.
type Projectile struct {
	entity.Projectile
	Age int // frames since first seen; client-only
}

// Ally is the companion drawn next to a player holding the ally upgrade.
type Ally struct {
	Pos entity.Vec2
}

type Player struct {
	entity.Player
	Ally *Ally
}

// Engine merges authoritative snapshots into locally held state by identity.
// It is not safe for concurrent use.
type Engine struct {
	SelfID string
	// Self is client-predicted: snapshots never touch its position or health.
	Self *Player

	Players           map[string]*Player
	Enemies           map[string]*Enemy
	EnemyProjectiles  map[string]*Projectile
	PlayerProjectiles map[string]*Projectile // server-made shots: reflections, ally fire
	RemoteShots       map[string]*Projectile // relayed from other players' fired events
	Strikes           []entity.LightningStrike
	Blades            []entity.Blade

	Tick      int64
	GameTime  float64
	Wave      int
	WavePhase string
	WaveTimer int

	localW, localH     float64
	logicalW, logicalH float64
	scale              Scale
}

func NewEngine(localW, localH float64) *Engine {
	e := &Engine{
		Players:           make(map[string]*Player),
		Enemies:           make(map[string]*Enemy),
		EnemyProjectiles:  make(map[string]*Projectile),
		PlayerProjectiles: make(map[string]*Projectile),
		RemoteShots:       make(map[string]*Projectile),
		localW:            localW,
		localH:            localH,
		logicalW:          entity.LogicalWidth,
		logicalH:          entity.LogicalHeight,
	}
	e.scale = NewScale(localW, localH, e.logicalW, e.logicalH)
	return e
}

func (e *Engine) Scale() Scale { return e.scale }

// Welcome records the local identity and the server's logical arena.
func (e *Engine) Welcome(w protocol.Welcome) {
	e.SelfID = w.PlayerID
	if w.Width > 0 && w.Height > 0 && (w.Width != e.logicalW || w.Height != e.logicalH) {
		e.logicalW, e.logicalH = w.Width, w.Height
		e.rescaleTo(NewScale(e.localW, e.localH, e.logicalW, e.logicalH))
	}
}

// Apply merges one snapshot. Snapshots older than the last applied one are
// ignored and reported as false.
func (e *Engine) Apply(s protocol.Snapshot) bool {
	if s.Tick < e.Tick {
		return false
	}
	e.Tick = s.Tick
	e.GameTime = s.GameTime
	e.Wave = s.Wave
	e.WavePhase = s.WavePhase
	e.WaveTimer = s.WaveTimer

	e.applyEnemies(s.Enemies)
	diffProjectiles(e.EnemyProjectiles, s.EnemyProjectiles, e.scale)
	diffProjectiles(e.PlayerProjectiles, s.PlayerProjectiles, e.scale)
	e.applyEffects(s.LightningStrikes, s.ActiveBlades)
	e.applyPlayers(s.Players)
	return true
}

func (e *Engine) scaleEnemy(src entity.Enemy) entity.Enemy {
	src.Pos = e.scale.Vec(src.Pos)
	src.Size = e.scale.Vec(src.Size)
	src.Speed = e.scale.Vec(src.Speed)
	src.TargetY *= e.scale.Y
	return src
}

func (e *Engine) applyEnemies(list []entity.Enemy) {
	seen := make(map[string]struct{}, len(list))
	for _, src := range list {
		seen[src.ID] = struct{}{}
		if m, ok := e.Enemies[src.ID]; ok {
			m.Enemy = e.scaleEnemy(src)
			continue
		}
		e.Enemies[src.ID] = &Enemy{Enemy: e.scaleEnemy(src)}
	}
	for id := range e.Enemies {
		if _, ok := seen[id]; !ok {
			delete(e.Enemies, id)
		}
	}
}

// diffProjectiles creates unseen projectiles and deletes vanished ones. A
// projectile already held keeps its locally simulated fields.
func diffProjectiles(local map[string]*Projectile, list []entity.Projectile, sc Scale) {
	seen := make(map[string]struct{}, len(list))
	for _, src := range list {
		seen[src.ID] = struct{}{}
		if _, ok := local[src.ID]; ok {
			continue
		}
		src.Pos = sc.Vec(src.Pos)
		src.Vel = sc.Vec(src.Vel)
		src.Radius = sc.Radius(src.Radius)
		local[src.ID] = &Projectile{Projectile: src}
	}
	for id := range local {
		if _, ok := seen[id]; !ok {
			delete(local, id)
		}
	}
}

func (e *Engine) applyEffects(strikes []entity.LightningStrike, blades []entity.Blade) {
	e.Strikes = make([]entity.LightningStrike, 0, len(strikes))
	for _, s := range strikes {
		s.Pos = e.scale.Vec(s.Pos)
		e.Strikes = append(e.Strikes, s)
	}
	e.Blades = make([]entity.Blade, 0, len(blades))
	for _, b := range blades {
		b.Pos = e.scale.Vec(b.Pos)
		b.Size = e.scale.Vec(b.Size)
		b.Vel = e.scale.Vec(b.Vel)
		e.Blades = append(e.Blades, b)
	}
}

func (e *Engine) scalePlayer(src entity.Player) entity.Player {
	src.Pos = e.scale.Vec(src.Pos)
	src.Size = e.scale.Vec(src.Size)
	return src
}

func (e *Engine) applyPlayers(list []entity.Player) {
	seen := make(map[string]struct{}, len(list))
	for _, src := range list {
		if src.ID == e.SelfID && e.SelfID != "" {
			e.applySelf(src)
			continue
		}
		seen[src.ID] = struct{}{}
		p, ok := e.Players[src.ID]
		if !ok {
			p = &Player{}
			e.Players[src.ID] = p
		}
		p.Player = e.scalePlayer(src)
		e.syncAlly(p)
	}
	for id := range e.Players {
		if _, ok := seen[id]; !ok {
			delete(e.Players, id)
		}
	}
}

// applySelf takes only server-confirmed progression from the snapshot.
func (e *Engine) applySelf(src entity.Player) {
	if e.Self == nil {
		e.Self = &Player{Player: e.scalePlayer(src)}
		e.syncAlly(e.Self)
		return
	}
	p := &e.Self.Player
	p.Upgrades = src.Upgrades
	p.LightningReadyWave = src.LightningReadyWave
	p.ShieldReadyWave = src.ShieldReadyWave
	p.BladeReadyWave = src.BladeReadyWave
	p.ShieldActive = src.ShieldActive
	p.XP = src.XP
	p.Level = src.Level
	p.UpgradePoints = src.UpgradePoints
	e.syncAlly(e.Self)
}

func (e *Engine) syncAlly(p *Player) {
	if !p.Upgrades.Ally {
		p.Ally = nil
		return
	}
	if p.Ally == nil {
		p.Ally = &Ally{}
	}
	p.Ally.Pos = AllyPos(p.Pos, e.scale)
}

// AllyPos is where the ally companion flies next to a player at pos (local units).
func AllyPos(pos entity.Vec2, sc Scale) entity.Vec2 {
	return pos.Add(entity.Vec2{X: -allyOffset * sc.X})
}

// MoveSelf applies client-predicted movement in local units.
func (e *Engine) MoveSelf(pos entity.Vec2, health int) {
	if e.Self == nil {
		return
	}
	e.Self.Pos = pos
	e.Self.Health = health
	e.syncAlly(e.Self)
}

// SelfLogical returns the local player's position in logical units for upstream reports.
func (e *Engine) SelfLogical() (entity.Vec2, bool) {
	if e.Self == nil {
		return entity.Vec2{}, false
	}
	return e.Self.Pos.Scale(1/e.scale.X, 1/e.scale.Y), true
}

// MarkHit starts the hit highlight on a local enemy.
func (e *Engine) MarkHit(enemyID string) {
	if m, ok := e.Enemies[enemyID]; ok {
		m.HitFlash = hitFlashFrames
	}
}

// ApplyDefeated removes the enemy ahead of the next snapshot.
func (e *Engine) ApplyDefeated(ev protocol.Defeated) {
	delete(e.Enemies, ev.EnemyID)
}

func (e *Engine) ApplyLeft(ev protocol.Left) {
	delete(e.Players, ev.PlayerID)
}

// ApplyFired adds another player's shot. Own shots are already simulated locally.
func (e *Engine) ApplyFired(ev protocol.Fired) {
	if ev.PlayerID == e.SelfID {
		return
	}
	if _, ok := e.RemoteShots[ev.Bullet.ID]; ok {
		return
	}
	b := ev.Bullet
	e.RemoteShots[b.ID] = &Projectile{Projectile: entity.Projectile{
		ID:        b.ID,
		Pos:       e.scale.Vec(entity.Vec2{X: b.X, Y: b.Y}),
		Vel:       e.scale.Vec(entity.Vec2{X: b.VX, Y: b.VY}),
		Radius:    e.scale.Radius(b.Radius),
		Damage:    b.Damage,
		Owner:     entity.OwnerPlayer,
		ShooterID: ev.PlayerID,
	}}
}

// Advance runs local-only motion for the given number of frames.
func (e *Engine) Advance(frames int) {
	for range frames {
		for _, set := range []map[string]*Projectile{e.EnemyProjectiles, e.PlayerProjectiles, e.RemoteShots} {
			for _, p := range set {
				p.Pos = p.Pos.Add(p.Vel)
				p.Age++
			}
		}
		for id, p := range e.RemoteShots {
			if p.Age > remoteShotFrames || !p.Bounds().Inside(e.localW, e.localH, 0) {
				delete(e.RemoteShots, id)
			}
		}
		for _, m := range e.Enemies {
			if m.HitFlash > 0 {
				m.HitFlash--
			}
		}
	}
}

// Resize rescales every held mirror to a new local resolution.
func (e *Engine) Resize(localW, localH float64) {
	e.localW, e.localH = localW, localH
	e.rescaleTo(NewScale(localW, localH, e.logicalW, e.logicalH))
}

func (e *Engine) rescaleTo(next Scale) {
	r := e.scale.Ratio(next)
	for _, m := range e.Enemies {
		m.Pos = r.Vec(m.Pos)
		m.Size = r.Vec(m.Size)
		m.Speed = r.Vec(m.Speed)
		m.TargetY *= r.Y
	}
	for _, set := range []map[string]*Projectile{e.EnemyProjectiles, e.PlayerProjectiles, e.RemoteShots} {
		for _, p := range set {
			p.Pos = r.Vec(p.Pos)
			p.Vel = r.Vec(p.Vel)
			p.Radius = next.Radius(e.scale.LogicalRadius(p.Radius))
		}
	}
	players := slices.Collect(maps.Values(e.Players))
	if e.Self != nil {
		players = append(players, e.Self)
	}
	for _, p := range players {
		p.Pos = r.Vec(p.Pos)
		p.Size = r.Vec(p.Size)
	}
	for i := range e.Strikes {
		e.Strikes[i].Pos = r.Vec(e.Strikes[i].Pos)
	}
	for i := range e.Blades {
		b := &e.Blades[i]
		b.Pos = r.Vec(b.Pos)
		b.Size = r.Vec(b.Size)
		b.Vel = r.Vec(b.Vel)
	}
	e.scale = next
	for _, p := range players {
		e.syncAlly(p)
	}
}
