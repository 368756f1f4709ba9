// Package geom holds the small rectangle type shared by the PDF reader,
// the vector-cluster detector, and the image materializer — all three
// reason about axis-aligned boxes in PDF page-space (points, origin
// bottom-left).
package geom

import "math"

// Rect is an axis-aligned rectangle in PDF page-space points.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect normalizes two corner points into a Rect with X0<=X1, Y0<=Y1.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Empty reports a degenerate or inverted rectangle.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Infinite reports a rectangle with a non-finite coordinate, which some
// producers emit for "draw everywhere" clip paths.
func (r Rect) Infinite() bool {
	return math.IsInf(r.X0, 0) || math.IsInf(r.Y0, 0) || math.IsInf(r.X1, 0) || math.IsInf(r.Y1, 0)
}

// Outset grows the rectangle by d on every side.
func (r Rect) Outset(d float64) Rect {
	return Rect{X0: r.X0 - d, Y0: r.Y0 - d, X1: r.X1 + d, Y1: r.Y1 + d}
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, other.X0),
		Y0: math.Min(r.Y0, other.Y0),
		X1: math.Max(r.X1, other.X1),
		Y1: math.Max(r.Y1, other.Y1),
	}
}

// Intersects reports whether r and other overlap (touching edges don't count).
func (r Rect) Intersects(other Rect) bool {
	return r.X0 < other.X1 && other.X0 < r.X1 && r.Y0 < other.Y1 && other.Y0 < r.Y1
}

// IntersectionArea returns the area of overlap between r and other, 0 if none.
func (r Rect) IntersectionArea(other Rect) float64 {
	x0 := math.Max(r.X0, other.X0)
	y0 := math.Max(r.Y0, other.Y0)
	x1 := math.Min(r.X1, other.X1)
	y1 := math.Min(r.Y1, other.Y1)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0)
}

// ClipTo clamps r to lie within bounds, returning the intersection.
func (r Rect) ClipTo(bounds Rect) Rect {
	return Rect{
		X0: math.Max(r.X0, bounds.X0),
		Y0: math.Max(r.Y0, bounds.Y0),
		X1: math.Min(r.X1, bounds.X1),
		Y1: math.Min(r.Y1, bounds.Y1),
	}
}

// Contains reports whether point (x,y) lies within r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}
