// Package geom provides the axis-aligned box arithmetic used by the tracker
// for detection-to-track association.
package geom

// Box is an axis-aligned rectangle in pixel coordinates. W and H are
// non-negative; a zero-width or zero-height box has zero area.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return b.W * b.H
}

// Center returns the box midpoint.
func (b Box) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// IoU returns the Intersection-over-Union of two boxes: 0 for disjoint boxes,
// 1 for identical boxes. A zero union (two zero-area boxes) yields 0 rather
// than a division fault.
func IoU(a, b Box) float64 {
	left := max(a.X, b.X)
	top := max(a.Y, b.Y)
	right := min(a.X+a.W, b.X+b.W)
	bottom := min(a.Y+a.H, b.Y+b.H)

	if right < left || bottom < top {
		return 0
	}

	intersection := (right - left) * (bottom - top)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
