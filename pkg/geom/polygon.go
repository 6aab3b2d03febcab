package geom

import "math"

// Polygon is an ordered list of vertices. It may or may not repeat its first
// vertex at the end; use Closed and Open to normalize.
type Polygon []Point

// Clone returns a copy of p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// IsClosed reports whether the last vertex repeats the first.
func (p Polygon) IsClosed() bool {
	return len(p) > 1 && p[0].Near(p[len(p)-1], Eps)
}

// Closed returns p as a ring with the first vertex repeated at the end.
func (p Polygon) Closed() Polygon {
	if len(p) == 0 || p.IsClosed() {
		return p.Clone()
	}
	out := make(Polygon, 0, len(p)+1)
	out = append(out, p...)
	return append(out, p[0])
}

// Open returns p without the repeated closing vertex.
func (p Polygon) Open() Polygon {
	if p.IsClosed() {
		return p[:len(p)-1].Clone()
	}
	return p.Clone()
}

// Bounds returns the axis-aligned bounding box.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range p {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// SignedArea returns the shoelace area. It is positive for rings that are
// counter-clockwise in a y-up frame (clockwise on screen).
func (p Polygon) SignedArea() float64 {
	ring := p.Open()
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// Rounded rounds every vertex to integer pixels and drops consecutive
// duplicates that the rounding creates. The ring closure is preserved.
func (p Polygon) Rounded() Polygon {
	ring := p.Open()
	out := make(Polygon, 0, len(ring)+1)
	for _, v := range ring {
		r := v.Round()
		if len(out) > 0 && out[len(out)-1] == r {
			continue
		}
		out = append(out, r)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if p.IsClosed() {
		return out.Closed()
	}
	return out
}

// MinXTop returns the top-most vertex among the left-most ones.
func (p Polygon) MinXTop() Point {
	if len(p) == 0 {
		return Point{}
	}
	best := p[0]
	for _, v := range p[1:] {
		if v.X < best.X || (v.X == best.X && v.Y < best.Y) {
			best = v
		}
	}
	return best
}

// Dedup drops consecutive vertices within eps of each other, including a
// trailing vertex that repeats the first. The result is an open ring.
func (p Polygon) Dedup(eps float64) Polygon {
	out := make(Polygon, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && out[len(out)-1].Near(v, eps) {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0].Near(out[len(out)-1], eps) {
		out = out[:len(out)-1]
	}
	return out
}

// IsSimple reports whether the ring encloses a positive area and no two
// non-adjacent edges touch or cross. Repeated vertices are ignored.
func (p Polygon) IsSimple() bool {
	ring := p.Dedup(Eps)
	n := len(ring)
	if n < 3 || ring.Area() < Eps {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsTouch(a, b, ring[j], ring[(j+1)%n]) {
				return false
			}
		}
	}
	return true
}

// Contains reports whether q lies inside the ring or within eps of its
// boundary.
func (p Polygon) Contains(q Point, eps float64) bool {
	ring := p.Open()
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, a := range ring {
		b := ring[(i+1)%n]
		if _, ok := SegmentParam(a, b, q, eps); ok {
			return true
		}
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// segmentsTouch reports whether segments ab and cd share a point.
func segmentsTouch(a, b, c, d Point) bool {
	d1, d2 := cross(c, d, a), cross(c, d, b)
	d3, d4 := cross(a, b, c), cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	for _, t := range []struct{ p, a, b Point }{{a, c, d}, {b, c, d}, {c, a, b}, {d, a, b}} {
		if _, ok := SegmentParam(t.a, t.b, t.p, Eps); ok {
			return true
		}
	}
	return false
}
