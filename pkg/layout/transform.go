package layout

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// lineEps is how far (in pixels) a vertex may sit from a boundary and still
// move with it.
const lineEps = 1e-3

// Skew sides for center slices and corners for side slices.
const (
	SkewLeft  = "left"
	SkewRight = "right"
	SkewUp    = "up"
	SkewDown  = "down"

	CornerTopLeft     = "tl"
	CornerTopRight    = "tr"
	CornerBottomLeft  = "bl"
	CornerBottomRight = "br"
)

// Box transform kinds and patterns.
const (
	BoxTrapezoid = "trapezoid"
	BoxRhombus   = "rhombus"

	PatternA     = "A"
	PatternV     = "V"
	PatternLeft  = "left"
	PatternRight = "right"
)

// Zig-zag directions.
const (
	ZigRightUp = "rup"
	ZigLeftUp  = "lup"
)

// AddTransforms deforms the page: one slice pass, a second one with
// probability DoubleSliceChance, a box transform with probability
// BoxTransformChance and always a page-wide zig-zag.
func AddTransforms(rng *rand.Rand, pg *panel.Page, cfg Config) {
	Slice(rng, pg, cfg)
	if rng.Float64() < cfg.DoubleSliceChance {
		Slice(rng, pg, cfg)
	}
	if rng.Float64() < cfg.BoxTransformChance {
		BoxTransform(rng, pg, cfg, "", "")
	}
	ZigZag(rng, pg, cfg.PageMovementLimit, nil)
	pg.InvalidateLeaves()
}

// Slice runs one slice pass, center with probability CenterSideRatio and side
// otherwise. It returns the number of panels sliced.
func Slice(rng *rand.Rand, pg *panel.Page, cfg Config) int {
	if rng.Float64() < cfg.CenterSideRatio {
		return SliceCenter(rng, pg, cfg.SliceMinArea, "", "")
	}
	return SliceSide(rng, pg, cfg.SliceMinArea, "")
}

// sliceCandidates returns the rectangular leaves larger than minArea of the
// page, shuffled. A page without children is its own candidate.
func sliceCandidates(rng *rand.Rand, pg *panel.Page, minArea float64) []*panel.Panel {
	var out []*panel.Panel
	if pg.IsLeaf() {
		out = append(out, pg.Root())
	} else {
		for _, l := range pg.Root().Leaves() {
			if !l.NonRect && l.AreaProportion(pg.PageArea()) > minArea {
				out = append(out, l)
			}
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SliceCenter splits up to all-but-one large leaves in two and skews the new
// boundary. axis and side are drawn once per pass when empty; side is
// left/right for vertical cuts and up/down for horizontal ones.
func SliceCenter(rng *rand.Rand, pg *panel.Page, minArea float64, axis panel.Orientation, side string) int {
	cands := sliceCandidates(rng, pg, minArea)
	if len(cands) == 0 {
		return 0
	}
	count := 1
	if len(cands) > 1 {
		count = randint(rng, 1, len(cands))
	}

	for _, p := range cands[:count] {
		if axis == "" {
			axis = pickAxis(rng)
		}
		half := crossHalf(p, axis)
		SplitEqual(p, 2, axis)
		if side == "" {
			side = drawSkewSide(rng, axis)
		}
		skew := float64(randint(rng, 20, 100)) / 100 * half

		p.Child(0).Sliced, p.Child(1).Sliced = true, true
		skewCenter(p, axis, side, skew)
	}
	pg.NumPanels += count
	pg.InvalidateLeaves()
	return count
}

// crossHalf returns half the shorter of the two edges a new boundary along
// axis would connect, so a skewed boundary never leaves the panel.
func crossHalf(p *panel.Panel, axis panel.Orientation) float64 {
	tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
	br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)
	if axis == panel.Vertical {
		return math.Min(tr.X-tl.X, br.X-bl.X) / 2
	}
	return math.Min(bl.Y-tl.Y, br.Y-tr.Y) / 2
}

func drawSkewSide(rng *rand.Rand, axis panel.Orientation) string {
	if axis == panel.Vertical {
		return []string{SkewLeft, SkewRight}[rng.IntN(2)]
	}
	return []string{SkewDown, SkewUp}[rng.IntN(2)]
}

// skewCenter tilts the boundary shared by p's two children: one end moves by
// s, the other by -s. Both ends slide along p's own edges, so the boundary
// stays inside p when p is already skewed.
func skewCenter(p *panel.Panel, axis panel.Orientation, side string, s float64) {
	p1, p2 := p.Child(0), p.Child(1)
	tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
	br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)
	if axis == panel.Vertical {
		if side == SkewRight {
			s = -s
		}
		top := slideX(tl, tr, p1.Corner(panel.TopRight), -s)
		bottom := slideX(bl, br, p1.Corner(panel.BottomRight), s)
		p1.SetCorner(panel.TopRight, top)
		p2.SetCorner(panel.TopLeft, top)
		p1.SetCorner(panel.BottomRight, bottom)
		p2.SetCorner(panel.BottomLeft, bottom)
		return
	}
	if side == SkewUp {
		s = -s
	}
	left := slideY(tl, bl, p1.Corner(panel.BottomLeft), s)
	right := slideY(tr, br, p1.Corner(panel.BottomRight), -s)
	p1.SetCorner(panel.BottomLeft, left)
	p2.SetCorner(panel.TopLeft, left)
	p1.SetCorner(panel.BottomRight, right)
	p2.SetCorner(panel.TopRight, right)
}

// slideX moves v by dx along the line through e0 and e1.
func slideX(e0, e1, v geom.Point, dx float64) geom.Point {
	x := v.X + dx
	if e1.X == e0.X {
		return geom.Pt(x, v.Y)
	}
	return geom.Pt(x, e0.Y+(x-e0.X)*(e1.Y-e0.Y)/(e1.X-e0.X))
}

// slideY moves v by dy along the line through e0 and e1.
func slideY(e0, e1, v geom.Point, dy float64) geom.Point {
	y := v.Y + dy
	if e1.Y == e0.Y {
		return geom.Pt(v.X, y)
	}
	return geom.Pt(e0.X+(y-e0.Y)*(e1.X-e0.X)/(e1.Y-e0.Y), y)
}

// SliceSide cuts a triangular corner off one or three large leaves. corner
// is drawn once per pass when empty. The triangle and the remaining pentagon
// become the panel's two children.
func SliceSide(rng *rand.Rand, pg *panel.Page, minArea float64, corner string) int {
	cands := sliceCandidates(rng, pg, minArea)
	if len(cands) == 0 {
		return 0
	}
	count := 1
	if len(cands) > 1 {
		count = []int{1, 3}[rng.IntN(2)]
	}
	count = min(count, len(cands))

	for _, p := range cands[:count] {
		if corner == "" {
			corner = []string{CornerTopRight, CornerTopLeft, CornerBottomRight, CornerBottomLeft}[rng.IntN(4)]
		}
		tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
		br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)
		// Cut points are fractions of the two edges meeting at the corner.
		ty := float64(randint(rng, 25, 75)) / 100
		tx := float64(randint(rng, 25, 75)) / 100

		var tri, rest geom.Polygon
		switch corner {
		case CornerBottomLeft:
			a, b := geom.Lerp(bl, tl, ty), geom.Lerp(bl, br, tx)
			tri = geom.Polygon{a, b, bl}
			rest = geom.Polygon{tl, tr, br, b, a}
		case CornerBottomRight:
			a, b := geom.Lerp(br, tr, ty), geom.Lerp(br, bl, tx)
			tri = geom.Polygon{a, br, b}
			rest = geom.Polygon{tl, tr, a, b, bl}
		case CornerTopLeft:
			a, b := geom.Lerp(tl, tr, tx), geom.Lerp(tl, bl, ty)
			tri = geom.Polygon{tl, a, b}
			rest = geom.Polygon{a, tr, br, bl, b}
		default:
			a, b := geom.Lerp(tr, tl, tx), geom.Lerp(tr, br, ty)
			tri = geom.Polygon{a, tr, b}
			rest = geom.Polygon{tl, a, b, br, bl}
		}

		for _, ring := range []geom.Polygon{tri, rest} {
			c := p.AddChild(ring, panel.Horizontal)
			c.NonRect = true
			c.Sliced = true
		}
	}
	pg.NumPanels += count
	pg.InvalidateLeaves()
	return count
}

// BoxTransform tilts the two inner boundaries of three-way splits so the
// middle panel becomes a trapezoid (kind "trapezoid", patterns A and V) or a
// rhombus (kind "rhombus", patterns left and right). Empty kind and pattern
// are drawn. Trapezoids need more than two panels on the page, rhombi more
// than one. It returns the number of transformed parents.
func BoxTransform(rng *rand.Rand, pg *panel.Page, cfg Config, kind, pattern string) int {
	if kind == "" {
		kind = BoxRhombus
		if rng.Float64() < cfg.TrapezoidRatio {
			kind = BoxTrapezoid
		}
	}
	limit := cfg.RhombusMovementLimit
	if kind == BoxTrapezoid {
		if pg.NumPanels <= 2 {
			return 0
		}
		limit = cfg.TrapezoidMovementLimit
	} else if pg.NumPanels <= 1 {
		return 0
	}

	var parents []*panel.Panel
	pg.Walk(func(p *panel.Panel) bool {
		if len(p.Children) == 3 && !p.Children[0].NonRect {
			parents = append(parents, p)
		}
		return true
	})
	if len(parents) == 0 {
		return 0
	}
	count := 1
	if len(parents) > 1 {
		count = randint(rng, 1, len(parents))
	}

	for _, p := range parents[:count] {
		pat := pattern
		if pat == "" {
			if kind == BoxTrapezoid {
				pat = []string{PatternA, PatternV}[rng.IntN(2)]
			} else {
				pat = []string{PatternLeft, PatternRight}[rng.IntN(2)]
			}
		}
		mv := float64(randint(rng, 10, limit)) / 100
		boxMove(p, kind, pat, mv)
	}
	pg.InvalidateLeaves()
	return count
}

// boxMove moves the two boundaries between p's three children. frac scales
// the smallest span, across the boundaries, of the panels touching them.
// A move that would fold a panel is halved, then skipped.
func boxMove(p *panel.Panel, kind, pat string, frac float64) {
	c1, c2, c3 := p.Child(0), p.Child(1), p.Child(2)
	side := ChildAxis(p) == panel.Vertical

	span := math.Inf(1)
	for _, c := range []*panel.Panel{c1, c2, c3} {
		span = math.Min(span, extent(c, side))
	}

	// d1 and d2 are the displacements of the first end of each inner
	// boundary; the second end always moves the opposite way. Trapezoids
	// tilt the two boundaries against each other, rhombi tilt them alike.
	var d1, d2 float64
	switch {
	case kind == BoxTrapezoid && pat == PatternA:
		d1, d2 = 1, -1
	case kind == BoxTrapezoid:
		d1, d2 = -1, 1
	case pat == PatternLeft:
		d1, d2 = -1, -1
	default:
		d1, d2 = 1, 1
	}

	tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
	br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)
	for i, d := range []float64{d1, d2} {
		next := p.Child(i + 1)
		var a, b geom.Point
		if side {
			a, b = next.Corner(panel.TopLeft), next.Corner(panel.BottomLeft)
		} else {
			// The first end of a stacked boundary is its right end.
			a, b = next.Corner(panel.TopLeft), next.Corner(panel.TopRight)
		}
		mv := math.Min(span, boundarySpan(p.Children, a, b, side)) * frac
		if mv <= 0 {
			continue
		}
		for _, f := range []float64{1, 0.5} {
			m := d * mv * f
			var na, nb geom.Point
			if side {
				// Boundaries run top to bottom, ends slide along x.
				na, nb = slideX(tl, tr, a, m), slideX(bl, br, b, -m)
			} else {
				na, nb = slideY(tl, bl, a, -m), slideY(tr, br, b, m)
			}
			if moveLineChecked(p.Children, a, b, na, nb) {
				break
			}
		}
	}
}

// ZigZag tilts the boundary between every pair of adjacent top-level panels.
// One end of the boundary moves by span * randint(10, limit)/100, where span
// is the smallest extent across the boundary of any panel touching it: the
// left end of horizontal boundaries moves down for "rup" and up for "lup";
// the top end of vertical boundaries moves left for "rup" and right for
// "lup". directions, when given, fixes the direction per pair. Every vertex
// in either panel's subtree lying on the old boundary follows it. A move
// that would fold a panel is halved, then skipped.
func ZigZag(rng *rand.Rand, pg *panel.Page, limit int, directions []string) {
	for i := 0; i+1 < len(pg.Children); i++ {
		p1, p2 := pg.Child(i), pg.Child(i+1)
		frac := float64(randint(rng, 10, limit)) / 100
		dir := ZigRightUp
		if i < len(directions) {
			dir = directions[i]
		} else if rng.IntN(2) == 1 {
			dir = ZigLeftUp
		}
		if p1.NonRect || p2.NonRect {
			continue
		}

		sign := 1.0
		if dir == ZigLeftUp {
			sign = -1
		}
		pair := []*panel.Panel{p1, p2}
		horizontal := p1.Orientation == panel.Horizontal
		var a, b geom.Point
		if horizontal {
			a, b = p2.Corner(panel.TopLeft), p2.Corner(panel.TopRight)
		} else {
			a, b = p2.Corner(panel.TopLeft), p2.Corner(panel.BottomLeft)
		}
		span := math.Min(extent(p1, !horizontal), extent(p2, !horizontal))
		span = math.Min(span, boundarySpan(pair, a, b, !horizontal))
		if span <= 0 {
			continue
		}
		for _, f := range []float64{1, 0.5} {
			m := sign * span * frac * f
			na := a.Add(geom.Pt(0, m))
			if !horizontal {
				na = a.Add(geom.Pt(-m, 0))
			}
			if moveLineChecked(pair, a, b, na, b) {
				break
			}
		}
	}
	pg.InvalidateLeaves()
}

// extent returns the smaller of a panel's two edge spans along x when
// alongX is set and along y otherwise. Non-rectangular panels use their
// bounding box.
func extent(p *panel.Panel, alongX bool) float64 {
	if p.NonRect || len(p.Coords) < 5 {
		b := p.Coords.Bounds()
		if alongX {
			return b.W
		}
		return b.H
	}
	tl, tr := p.Corner(panel.TopLeft), p.Corner(panel.TopRight)
	br, bl := p.Corner(panel.BottomRight), p.Corner(panel.BottomLeft)
	if alongX {
		return math.Min(tr.X-tl.X, br.X-bl.X)
	}
	return math.Min(bl.Y-tl.Y, br.Y-tr.Y)
}

// boundarySpan returns the smallest extent of the panels under roots that
// have a vertex on the segment a→b.
func boundarySpan(roots []*panel.Panel, a, b geom.Point, alongX bool) float64 {
	span := math.Inf(1)
	for _, r := range roots {
		r.Walk(func(p *panel.Panel) bool {
			for _, v := range p.Coords {
				if _, ok := geom.SegmentParam(a, b, v, lineEps); ok {
					span = math.Min(span, extent(p, alongX))
					break
				}
			}
			return true
		})
	}
	return span
}

// moveLine remaps every vertex in the subtrees of roots that lies on the
// segment a→b to the matching point of na→nb. Points keep their parameter
// along the segment, so shared boundaries stay shared.
func moveLine(roots []*panel.Panel, a, b, na, nb geom.Point) {
	for _, r := range roots {
		r.Walk(func(p *panel.Panel) bool {
			for i, v := range p.Coords {
				t, ok := geom.SegmentParam(a, b, v, lineEps)
				switch {
				case !ok:
				case t == 0:
					p.Coords[i] = na
				case t == 1:
					p.Coords[i] = nb
				default:
					p.Coords[i] = geom.Lerp(na, nb, t)
				}
			}
			return true
		})
	}
}

// moveLineChecked runs moveLine and undoes it when a panel under roots no
// longer passes [panel.Panel.CheckGeometry]. It reports whether the move
// was kept.
func moveLineChecked(roots []*panel.Panel, a, b, na, nb geom.Point) bool {
	saved := make(map[*panel.Panel]geom.Polygon)
	for _, r := range roots {
		r.Walk(func(p *panel.Panel) bool {
			saved[p] = p.Coords.Clone()
			return true
		})
	}
	moveLine(roots, a, b, na, nb)
	for _, r := range roots {
		if r.CheckGeometry() == nil {
			continue
		}
		for p, coords := range saved {
			p.Coords = coords
		}
		return false
	}
	return true
}
