package geom

import (
	"math"

	"honnef.co/go/curve"
)

// offsetTolerance bounds the chord error when rounded joins are flattened.
const offsetTolerance = 0.25

// minOffsetArea is the smallest ring area accepted as an offset solution.
const minOffsetArea = 1.0

// Offset moves every edge of poly by |delta| pixels, inwards when delta is
// negative and outwards when it is positive. Convex corners of an outward
// offset are joined with circular arcs. The result is a closed ring.
//
// The boolean result is false when the offset has no solution, for example
// when shrinking collapses the polygon. A zero delta returns poly unchanged.
func Offset(poly Polygon, delta float64) (Polygon, bool) {
	ring := poly.Open()
	if len(ring) < 3 || poly.Area() < minOffsetArea {
		return nil, false
	}
	switch {
	case delta == 0:
		return ring.Closed(), true
	case delta < 0:
		return inset(ring, -delta)
	default:
		return outset(ring, delta)
	}
}

// inset intersects the inward-shifted half-planes of every edge. Inside
// corners of an inward offset carry no rounding, so for the convex outlines
// produced by the layout engine this equals the rounded-join offset.
func inset(ring Polygon, d float64) (Polygon, bool) {
	sign := 1.0
	if ring.SignedArea() < 0 {
		sign = -1.0
	}
	out := ring.Clone()
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		dir := b.Sub(a)
		l := math.Hypot(dir.X, dir.Y)
		if l == 0 {
			continue
		}
		// Interior lies to the left of a→b for positive signed area.
		n := Point{-dir.Y / l * sign, dir.X / l * sign}
		out = clipHalfPlane(out, a.Add(n.Scale(d)), n)
		if len(out) < 3 {
			return nil, false
		}
	}
	if out.Area() < minOffsetArea {
		return nil, false
	}
	return out.Closed(), true
}

// clipHalfPlane keeps the part of ring where dot(n, p-origin) >= 0.
func clipHalfPlane(ring Polygon, origin, n Point) Polygon {
	side := func(p Point) float64 {
		v := p.Sub(origin)
		return v.X*n.X + v.Y*n.Y
	}
	out := make(Polygon, 0, len(ring)+1)
	for i, cur := range ring {
		prev := ring[(i+len(ring)-1)%len(ring)]
		sc, sp := side(cur), side(prev)
		if sc >= 0 {
			if sp < 0 {
				out = append(out, Lerp(prev, cur, sp/(sp-sc)))
			}
			out = append(out, cur)
		} else if sp >= 0 {
			out = append(out, Lerp(prev, cur, sp/(sp-sc)))
		}
	}
	return out
}

// outset strokes the ring with a round-joined pen of width 2d and keeps the
// outer boundary of the stroke.
func outset(ring Polygon, d float64) (Polygon, bool) {
	var path curve.BezPath
	path.MoveTo(curve.Pt(ring[0].X, ring[0].Y))
	for _, v := range ring[1:] {
		path.LineTo(curve.Pt(v.X, v.Y))
	}
	path.ClosePath()

	style := curve.Stroke{
		Width:      2 * d,
		Join:       curve.RoundJoin,
		MiterLimit: 4,
		StartCap:   curve.ButtCap,
		EndCap:     curve.ButtCap,
	}
	stroked := curve.StrokePath(path.Elements(), style, curve.StrokeOpts{}, offsetTolerance)

	var best Polygon
	var cur Polygon
	keep := func() {
		if len(cur) >= 3 && cur.Area() > best.Area() {
			best = cur
		}
		cur = nil
	}
	for el := range curve.Flatten(stroked, offsetTolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			keep()
			cur = Polygon{{el.P0.X, el.P0.Y}}
		case curve.LineToKind:
			cur = append(cur, Point{el.P0.X, el.P0.Y})
		case curve.ClosePathKind:
			keep()
		}
	}
	keep()

	if len(best) < 3 {
		return nil, false
	}
	return best.Closed(), true
}
