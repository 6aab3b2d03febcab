// Package geom provides the planar primitives used by the page layout engine.
//
// Coordinates are in page pixels with the origin at the top-left corner and
// y growing downwards. Panel outlines are stored as closed rings: the first
// vertex is repeated as the last one, matching the serialized metadata form.
package geom

import "math"

// Eps is the tolerance used when comparing coordinates.
const Eps = 1e-6

// Point is a position on the page.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Round rounds both coordinates to the nearest integer.
func (p Point) Round() Point { return Point{math.Round(p.X), math.Round(p.Y)} }

// Near reports whether p and q are within eps on both axes.
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Lerp interpolates between a and b.
func Lerp(a, b Point, t float64) Point {
	return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// SegmentParam returns the parameter t of p along the segment a→b and whether
// p lies on that segment (within eps of the line and with t in [0, 1]).
func SegmentParam(a, b, p Point, eps float64) (float64, bool) {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return 0, p.Near(a, eps)
	}
	v := p.Sub(a)
	t := (v.X*d.X + v.Y*d.Y) / l2
	if t < -eps || t > 1+eps {
		return t, false
	}
	cross := v.X*d.Y - v.Y*d.X
	if math.Abs(cross)/math.Sqrt(l2) > eps {
		return t, false
	}
	return math.Min(math.Max(t, 0), 1), true
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// Overlaps reports whether r and o intersect. Rectangles that only touch
// along an edge or a corner count as overlapping.
func (r Rect) Overlaps(o Rect) bool {
	return r.X+r.W >= o.X && r.X <= o.X+o.W &&
		r.Y+r.H >= o.Y && r.Y <= o.Y+o.H
}

// Within reports whether r lies fully inside bounds. Rectangles with a
// negative or NaN size are never within anything.
func (r Rect) Within(bounds Rect) bool {
	return r.W >= 0 && r.H >= 0 &&
		r.X >= bounds.X && r.Y >= bounds.Y &&
		r.X+r.W <= bounds.X+bounds.W && r.Y+r.H <= bounds.Y+bounds.H
}
