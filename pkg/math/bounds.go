package math

import "github.com/chewxy/math32"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds returns inverted bounds that any Extend call will replace.
func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X
}

// Size returns the extent along each axis.
func (b Bounds) Size() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Vec3 {
	if b.Empty() {
		return Vec3{}
	}
	return b.Min.Add(b.Max).Scale(0.5)
}
