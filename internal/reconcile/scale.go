package reconcile

import "skyraid/internal/entity"

// Scale maps logical arena units to local rendering units.
type Scale struct {
	X, Y float64
}

func NewScale(localW, localH, logicalW, logicalH float64) Scale {
	s := Scale{X: 1, Y: 1}
	if localW > 0 && logicalW > 0 {
		s.X = localW / logicalW
	}
	if localH > 0 && logicalH > 0 {
		s.Y = localH / logicalH
	}
	return s
}

func (s Scale) Vec(v entity.Vec2) entity.Vec2 { return v.Scale(s.X, s.Y) }

// Radius scales a round extent by the smaller axis so circles stay circles.
func (s Scale) Radius(r float64) float64 { return r * min(s.X, s.Y) }

// LogicalRadius undoes Radius.
func (s Scale) LogicalRadius(r float64) float64 { return r / min(s.X, s.Y) }

// Ratio is the scale that turns coordinates under s into coordinates under to.
func (s Scale) Ratio(to Scale) Scale {
	return Scale{X: to.X / s.X, Y: to.Y / s.Y}
}
