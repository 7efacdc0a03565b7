package entity

import "math"

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inside reports whether the rect overlaps the arena grown by margin on every side.
func (r Rect) Inside(width, height, margin float64) bool {
	return r.Intersects(Rect{X: -margin, Y: -margin, W: width + 2*margin, H: height + 2*margin})
}

func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Heading returns a velocity of the given speed pointing from a to b.
func Heading(a, b Vec2, speed float64) Vec2 {
	angle := math.Atan2(b.Y-a.Y, b.X-a.X)
	return Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}
}

// Finite reports whether every component is a real number.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
