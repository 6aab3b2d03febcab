// Package panel holds the panel tree of a synthesized page.
//
// A [Page] is the root [Panel]. Each panel owns an ordered slice of children
// produced by splitting it along one axis and keeps a non-owning pointer to
// its parent. Only leaves carry images and are rasterized; inner panels exist
// to record how the page was divided.
//
// Coordinates are page pixels with the origin at the top-left. A rectangular
// panel's ring lists its corners as top-left, top-right, bottom-right,
// bottom-left and repeats the first corner at the end. Cut-corner panels
// carry as many vertices as their outline needs and set NonRect.
package panel

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/geom"
)

// Orientation is the axis of the split that produced a panel.
type Orientation string

const (
	// Horizontal cuts stack children top to bottom.
	Horizontal Orientation = "h"
	// Vertical cuts place children left to right.
	Vertical Orientation = "v"
)

// Corner indices into a rectangular ring.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Panel is one node of the page tree.
//
// The zero value is not usable: build panels with [New] or [Panel.AddChild]
// so the coordinate ring is closed and the parent pointer is set.
type Panel struct {
	Name        string
	Coords      geom.Polygon // closed ring, first vertex repeated last
	Orientation Orientation  // axis of the split that created this panel, empty for the page
	NonRect     bool
	Sliced      bool
	NoRender    bool
	Image       string

	SpeechBubbles []*bubble.SpeechBubble
	Children      []*Panel

	parent *Panel
}

// New creates a parentless panel from four corners (or any ring when the
// panel is not a rectangle). The ring is closed if it is not already.
func New(name string, coords geom.Polygon) *Panel {
	return &Panel{Name: name, Coords: coords.Closed()}
}

// Rect returns the closed ring of the axis-aligned rectangle at (x, y).
func Rect(x, y, w, h float64) geom.Polygon {
	return geom.Polygon{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
		{X: x, Y: y},
	}
}

// AddChild appends a child built from coords. Its name is the parent's name
// followed by "-" and the child's index.
func (p *Panel) AddChild(coords geom.Polygon, o Orientation) *Panel {
	c := &Panel{
		Name:        p.Name + "-" + strconv.Itoa(len(p.Children)),
		Coords:      coords.Closed(),
		Orientation: o,
		parent:      p,
	}
	p.Children = append(p.Children, c)
	return c
}

// Attach appends an already built panel as a child. Decoders use it to
// rebuild a tree while keeping the stored names.
func (p *Panel) Attach(c *Panel) {
	c.parent = p
	p.Children = append(p.Children, c)
}

// RemoveChildren detaches every child.
func (p *Panel) RemoveChildren() {
	for _, c := range p.Children {
		c.parent = nil
	}
	p.Children = nil
}

// Parent returns the parent panel, nil for the page.
func (p *Panel) Parent() *Panel { return p.parent }

// Child returns the i-th child or nil when out of range.
func (p *Panel) Child(i int) *Panel {
	if i < 0 || i >= len(p.Children) {
		return nil
	}
	return p.Children[i]
}

// IsLeaf reports whether the panel has no children.
func (p *Panel) IsLeaf() bool { return len(p.Children) == 0 }

// Corner returns vertex i of the ring.
func (p *Panel) Corner(i int) geom.Point { return p.Coords[i] }

// SetCorner moves vertex i. Moving the first vertex also moves the closing
// vertex so the ring stays closed.
func (p *Panel) SetCorner(i int, v geom.Point) {
	p.Coords[i] = v
	if i == 0 && len(p.Coords) > 1 {
		p.Coords[len(p.Coords)-1] = v
	}
}

// Width is the horizontal distance from the top-left to the top-right corner.
// It is exact for rectangles and an approximation once edges are skewed.
// Non-rectangular panels use the width of their bounding box.
func (p *Panel) Width() float64 {
	if p.NonRect {
		return p.Coords.Bounds().W
	}
	return p.Coords[TopRight].X - p.Coords[TopLeft].X
}

// Height is the vertical distance from the top-right to the bottom-right
// corner. Like Width it is approximate for skewed panels.
func (p *Panel) Height() float64 {
	if p.NonRect {
		return p.Coords.Bounds().H
	}
	return p.Coords[BottomRight].Y - p.Coords[TopRight].Y
}

// Area returns Width*Height.
func (p *Panel) Area() float64 { return p.Width() * p.Height() }

// AreaProportion returns the panel area relative to pageArea, rounded to two
// decimals.
func (p *Panel) AreaProportion(pageArea float64) float64 {
	if pageArea <= 0 {
		return 0
	}
	return math.Round(p.Area()/pageArea*100) / 100
}

// Polygon returns the contour to render: the full ring for non-rectangular
// panels and the four corners plus the closing vertex otherwise.
func (p *Panel) Polygon() geom.Polygon {
	if p.NonRect || len(p.Coords) < 5 {
		return p.Coords.Clone()
	}
	return geom.Polygon{p.Coords[0], p.Coords[1], p.Coords[2], p.Coords[3], p.Coords[0]}
}

// Region returns the geometry speech bubble placement works on.
func (p *Panel) Region() bubble.Region {
	return bubble.Region{
		Coords: p.Coords,
		Width:  p.Width(),
		Height: p.Height(),
		Area:   p.Area(),
	}
}

// Walk visits p and its descendants depth-first in child order. Returning
// false from fn skips the panel's subtree.
func (p *Panel) Walk(fn func(*Panel) bool) {
	if !fn(p) {
		return
	}
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// Leaves returns the leaf panels under p in depth-first order. A leaf
// returns itself.
func (p *Panel) Leaves() []*Panel {
	var out []*Panel
	p.Walk(func(n *Panel) bool {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Depth returns the number of ancestors of p.
func (p *Panel) Depth() int {
	d := 0
	for n := p.parent; n != nil; n = n.parent {
		d++
	}
	return d
}

// containEps is how far (in pixels) a vertex may sit outside its parent.
const containEps = 0.5

// ErrBadGeometry is returned by [Panel.CheckGeometry].
var ErrBadGeometry = errors.New("bad panel geometry")

// CheckGeometry walks p's subtree and reports the first panel whose ring is
// not simple, whose width or height is not positive, or which has a vertex
// outside its parent. p itself is checked against its parent too.
func (p *Panel) CheckGeometry() error {
	var err error
	p.Walk(func(n *Panel) bool {
		if err != nil {
			return false
		}
		switch {
		case !n.Coords.IsSimple():
			err = fmt.Errorf("%w: panel %q: ring is not simple", ErrBadGeometry, n.Name)
		case !(n.Width() > 0 && n.Height() > 0):
			err = fmt.Errorf("%w: panel %q: size %.1fx%.1f", ErrBadGeometry, n.Name, n.Width(), n.Height())
		case n.parent != nil:
			for _, v := range n.Coords {
				if !n.parent.Coords.Contains(v, containEps) {
					err = fmt.Errorf("%w: panel %q: vertex (%.1f, %.1f) outside %q", ErrBadGeometry, n.Name, v.X, v.Y, n.parent.Name)
					break
				}
			}
		}
		return err == nil
	})
	return err
}
