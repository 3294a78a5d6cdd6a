package mot

import "image"

// Rect is an axis-aligned bounding box in integer pixel coordinates.
// A valid box has X1 < X2 and Y1 < Y2.
type Rect struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

func NewRect(x1, y1, x2, y2 int) Rect {
	return Rect{
		X1: x1,
		Y1: y1,
		X2: x2,
		Y2: y2,
	}
}

func NewRectFrom(rect image.Rectangle) Rect {
	return Rect{
		X1: rect.Min.X,
		Y1: rect.Min.Y,
		X2: rect.Max.X,
		Y2: rect.Max.Y,
	}
}

// Valid reports whether the box has strictly positive width and height.
func (r Rect) Valid() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

func (r Rect) Width() int {
	return r.X2 - r.X1
}

func (r Rect) Height() int {
	return r.Y2 - r.Y1
}

func (r Rect) Area() int {
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Center returns the integer-truncated center of the box.
func (r Rect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
	}
}

// Point is a trajectory sample in integer pixel coordinates.
type Point struct {
	X int
	Y int
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: point.X,
		Y: point.Y,
	}
}

// IoU calculates Intersection over Union between two rectangles.
// Degenerate boxes (zero or negative width/height) have zero IoU against
// everything, so a malformed detection registers as a new track instead of
// stealing an existing identity.
func IoU(a, b Rect) float64 {
	if !a.Valid() || !b.Valid() {
		return 0.0
	}
	xLo := max(a.X1, b.X1)
	yLo := max(a.Y1, b.Y1)
	xHi := min(a.X2, b.X2)
	yHi := min(a.Y2, b.Y2)
	// An exact boundary touch still computes a zero-area intersection;
	// only a strictly negative overlap short-circuits.
	if xHi < xLo || yHi < yLo {
		return 0.0
	}
	intersection := (xHi - xLo) * (yHi - yLo)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
