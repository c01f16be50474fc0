package atlas

import "sort"

// Rect is the placement of one square source inside the atlas, in texels.
type Rect struct {
	X, Y int
	Side int
}

// Overlaps reports whether two rectangles share any texel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Side && o.X < r.X+r.Side &&
		r.Y < o.Y+o.Side && o.Y < r.Y+r.Side
}

// Packer places square sources of the given sides. rects[i] belongs to
// sides[i]; width and height are the atlas dimensions required.
type Packer interface {
	Pack(sides []int) (rects []Rect, width, height int)
}

// ShelfPacker is a single-shelf heuristic: sources are placed largest first,
// left to right, at the width of the largest source. When the next source no
// longer fits on the current shelf a new shelf starts below everything placed
// so far. Not optimal, but O(n log n) and good for small, size-skewed sets.
type ShelfPacker struct{}

// Pack implements Packer.
func (ShelfPacker) Pack(sides []int) ([]Rect, int, int) {
	rects := make([]Rect, len(sides))
	if len(sides) == 0 {
		return rects, 0, 0
	}

	order := make([]int, len(sides))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sides[order[a]] > sides[order[b]]
	})

	width := sides[order[0]]
	x, shelfY, bottom := 0, 0, 0
	for _, i := range order {
		side := sides[i]
		if width-x < side {
			shelfY = bottom
			x = 0
		}
		rects[i] = Rect{X: x, Y: shelfY, Side: side}
		x += side
		bottom = max(bottom, shelfY+side)
	}

	return rects, width, bottom
}
