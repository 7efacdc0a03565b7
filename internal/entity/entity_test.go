package entity

import (
	"math"
	"strings"
	"testing"
)

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID("e")
		if !strings.HasPrefix(id, "e_") {
			t.Fatalf("id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"contained", Rect{X: 2, Y: 2, W: 2, H: 2}, true},
		{"touching edge", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
		{"apart", Rect{X: 20, Y: 20, W: 1, H: 1}, false},
	}
	for _, tc := range cases {
		if got := a.Intersects(tc.b); got != tc.want {
			t.Fatalf("%s: Intersects = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProjectileBoundsCentered(t *testing.T) {
	p := Projectile{Pos: Vec2{X: 50, Y: 60}, Radius: 4}
	b := p.Bounds()
	if b.Center() != p.Pos {
		t.Fatalf("center = %+v, want %+v", b.Center(), p.Pos)
	}
	if b.W != 8 || b.H != 8 {
		t.Fatalf("size = %vx%v, want 8x8", b.W, b.H)
	}
}

func TestHeading(t *testing.T) {
	v := Heading(Vec2{}, Vec2{X: 0, Y: 10}, 5)
	if math.Abs(v.X) > 1e-9 || math.Abs(v.Y-5) > 1e-9 {
		t.Fatalf("heading = %+v, want (0,5)", v)
	}
}

func TestFinite(t *testing.T) {
	if !(Vec2{X: 1, Y: 2}).Finite() {
		t.Fatalf("expected finite")
	}
	if (Vec2{X: math.NaN()}).Finite() || (Vec2{Y: math.Inf(1)}).Finite() {
		t.Fatalf("expected non-finite")
	}
}
