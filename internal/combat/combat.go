package combat

import (
	"maps"
	"slices"

	"skyraid/internal/entity"

	"github.com/solarlune/resolv"
)

const (
	ReflectMultiplier = 3
	ReflectSpeed      = 9.0
	reflectTTL        = 240
)

// Target is anything a projectile can strike.
type Target interface {
	Bounds() entity.Rect
}

// Hit records one projectile landing on one target.
type Hit struct {
	Projectile *entity.Projectile
	TargetID   string
}

func box(r entity.Rect) *resolv.Object {
	return resolv.NewObject(r.X, r.Y, r.W, r.H)
}

// Resolve tests every projectile of the given owner against targets. A projectile
// lands at most once and is deleted from projectiles in the same call.
// Iteration follows sorted ids so the outcome is reproducible.
func Resolve[T Target](projectiles map[string]*entity.Projectile, owner entity.Owner, targets map[string]T) []Hit {
	if len(targets) == 0 {
		return nil
	}
	ids := slices.Sorted(maps.Keys(targets))
	boxes := make([]*resolv.Object, len(ids))
	for i, id := range ids {
		boxes[i] = box(targets[id].Bounds())
	}

	var hits []Hit
	for _, pid := range slices.Sorted(maps.Keys(projectiles)) {
		p := projectiles[pid]
		if p.Owner != owner {
			continue
		}
		pb := box(p.Bounds())
		for i, b := range boxes {
			if !pb.Overlaps(b) {
				continue
			}
			hits = append(hits, Hit{Projectile: p, TargetID: ids[i]})
			delete(projectiles, pid)
			break
		}
	}
	return hits
}

// Confine keeps a projectile inside the arena. Ricochet projectiles with charges
// left bounce off the side walls; anything fully outside reports false.
func Confine(p *entity.Projectile, width, height float64) bool {
	if p.CanRicochet && p.BouncesLeft > 0 {
		switch {
		case p.Pos.X-p.Radius <= 0 && p.Vel.X < 0:
			p.Pos.X = p.Radius
			p.Vel.X = -p.Vel.X
			p.BouncesLeft--
		case p.Pos.X+p.Radius >= width && p.Vel.X > 0:
			p.Pos.X = width - p.Radius
			p.Vel.X = -p.Vel.X
			p.BouncesLeft--
		}
	}
	return p.Bounds().Inside(width, height, 0)
}

// ShooterLookup resolves a weak shooter reference against the live enemy set.
type ShooterLookup func(id string) (*entity.Enemy, bool)

// Reflect destroys every enemy projectile touching the blade. For each one whose
// shooter is still alive a player projectile with triple damage is sent back at it.
func Reflect(blade *entity.Blade, projectiles map[string]*entity.Projectile, shooter ShooterLookup) []*entity.Projectile {
	bb := box(blade.Bounds())
	var out []*entity.Projectile
	for _, pid := range slices.Sorted(maps.Keys(projectiles)) {
		p := projectiles[pid]
		if p.Owner != entity.OwnerEnemy || !bb.Overlaps(box(p.Bounds())) {
			continue
		}
		delete(projectiles, pid)

		src, ok := shooter(p.ShooterID)
		if !ok {
			continue
		}
		out = append(out, &entity.Projectile{
			ID:        entity.NewID("b"),
			Pos:       p.Pos,
			Vel:       entity.Heading(p.Pos, src.Center(), ReflectSpeed),
			Radius:    p.Radius,
			Damage:    p.Damage * ReflectMultiplier,
			Owner:     entity.OwnerPlayer,
			ShooterID: blade.OwnerID,
			TTL:       reflectTTL,
		})
	}
	return out
}
