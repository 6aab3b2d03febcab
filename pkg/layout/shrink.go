package layout

import (
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// Shrink offsets every leaf outline by an integer amount drawn from
// [minAmount, maxAmount). Negative amounts pull edges inwards. A leaf whose
// offset has no solution or folds onto itself, or whose amount is zero,
// keeps its outline.
//
// A four-corner panel that stays four-cornered keeps its corner order; any
// other result marks the panel NonRect so its full ring is rendered.
func Shrink(rng *rand.Rand, pg *panel.Page, minAmount, maxAmount int) int {
	shrunk := 0
	for _, leaf := range pg.LeafChildren() {
		amount := randint(rng, minAmount, maxAmount)
		if amount == 0 {
			continue
		}
		ring, ok := geom.Offset(leaf.Polygon(), float64(amount))
		if !ok || !ring.IsSimple() {
			continue
		}
		prev, nonRect := leaf.Coords, leaf.NonRect
		open := ring.Open()
		if !leaf.NonRect && len(open) == 4 {
			ring = alignCorners(open, leaf.Corner(panel.TopLeft)).Closed()
		} else {
			leaf.NonRect = true
		}
		leaf.Coords = ring
		if leaf.CheckGeometry() != nil {
			leaf.Coords, leaf.NonRect = prev, nonRect
			continue
		}
		shrunk++
	}
	return shrunk
}

// alignCorners rotates ring so its first vertex is the one nearest to tl and
// its winding matches the top-left, top-right, bottom-right, bottom-left
// order of a panel (clockwise on screen).
func alignCorners(ring geom.Polygon, tl geom.Point) geom.Polygon {
	if ring.SignedArea() < 0 {
		rev := make(geom.Polygon, len(ring))
		for i, v := range ring {
			rev[len(ring)-1-i] = v
		}
		ring = rev
	}
	best, bestD := 0, -1.0
	for i, v := range ring {
		d := v.Sub(tl)
		dist := d.X*d.X + d.Y*d.Y
		if bestD < 0 || dist < bestD {
			best, bestD = i, dist
		}
	}
	out := make(geom.Polygon, 0, len(ring))
	out = append(out, ring[best:]...)
	return append(out, ring[:best]...)
}
