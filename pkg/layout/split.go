package layout

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// GenerateShifts draws n proportions that sum to 1. Each slot draws an
// integer percentage from [round(50/n), max) where max starts at
// round(150/n) and grows by the slack the previous draws left; the total is
// then spread evenly so the proportions add up to exactly 100%.
func GenerateShifts(rng *rand.Rand, n int) []float64 {
	if n < 1 {
		return nil
	}
	even := 100 / float64(n)
	choiceMax := math.Round(even * 1.5)
	choiceMin := int(math.Round(even * 0.5))

	draws := make([]float64, n)
	total := 0.0
	for i := range draws {
		d := randint(rng, choiceMin, int(choiceMax))
		choiceMax += even - float64(d)
		draws[i] = float64(d)
		total += float64(d)
	}

	adjust := (100 - total) / float64(n)
	shifts := make([]float64, n)
	for i, d := range draws {
		shifts[i] = (d + adjust) / 100
	}
	return shifts
}

// SplitShifted divides p into len(shifts) children along axis o. Shifts are
// the fractions of the parent each child takes, in order. With no shifts,
// n children are sized by [GenerateShifts]. Splitting into one panel is a
// no-op.
//
// The outer edges of the first and last child are the parent's own edges,
// so rounding never leaves a gap at the parent's border.
func SplitShifted(rng *rand.Rand, p *panel.Panel, n int, o panel.Orientation, shifts []float64) {
	if n <= 1 {
		return
	}
	if len(shifts) != n {
		shifts = GenerateShifts(rng, n)
	}
	cuts := make([]float64, n+1)
	for i, s := range shifts {
		cuts[i+1] = cuts[i] + s
	}
	cuts[n] = 1
	splitAt(p, o, cuts)
}

// SplitEqual divides p into n children of equal size along axis o.
func SplitEqual(p *panel.Panel, n int, o panel.Orientation) {
	if n <= 1 {
		return
	}
	cuts := make([]float64, n+1)
	for i := range cuts {
		cuts[i] = float64(i) / float64(n)
	}
	splitAt(p, o, cuts)
}

// SplitTwo divides p in two along axis o. A shift in (0, 1) is the first
// child's fraction; otherwise the fraction is drawn from [0.25, 0.75).
func SplitTwo(rng *rand.Rand, p *panel.Panel, o panel.Orientation, shift float64) {
	if shift <= 0 || shift >= 1 {
		shift = float64(randint(rng, 25, 75)) / 100
	}
	splitAt(p, o, []float64{0, shift, 1})
}

// splitAt cuts p at the given levels, which run from 0 to 1 along the axis.
// Horizontal cuts interpolate along the left and right edges, vertical cuts
// along the top and bottom edges.
func splitAt(p *panel.Panel, o panel.Orientation, cuts []float64) {
	tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
	br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)

	// Each cut is a segment (a, b): left→right for horizontal splits,
	// top→bottom for vertical ones.
	cut := func(i int) (geom.Point, geom.Point) {
		switch {
		case i == 0 && o == panel.Horizontal:
			return tl, tr
		case i == 0:
			return tl, bl
		case i == len(cuts)-1 && o == panel.Horizontal:
			return bl, br
		case i == len(cuts)-1:
			return tr, br
		case o == panel.Horizontal:
			return geom.Lerp(tl, bl, cuts[i]), geom.Lerp(tr, br, cuts[i])
		default:
			return geom.Lerp(tl, tr, cuts[i]), geom.Lerp(bl, br, cuts[i])
		}
	}

	for i := 0; i < len(cuts)-1; i++ {
		a0, b0 := cut(i)
		a1, b1 := cut(i + 1)
		var ring geom.Polygon
		if o == panel.Horizontal {
			ring = geom.Polygon{a0, b0, b1, a1}
		} else {
			ring = geom.Polygon{a0, a1, b1, b0}
		}
		p.AddChild(ring, o)
	}
}

// ChildAxis returns the axis p's children were split along, or "" for a
// leaf.
func ChildAxis(p *panel.Panel) panel.Orientation {
	if p.IsLeaf() {
		return ""
	}
	return p.Children[0].Orientation
}
