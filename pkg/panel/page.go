package panel

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/geom"
)

// PageType names the split recipe family a page was built with.
type PageType string

const (
	PageVertical   PageType = "v"
	PageHorizontal PageType = "h"
	PageMixed      PageType = "vh"
)

// ValidPageTypes lists the recognized page types.
var ValidPageTypes = map[PageType]bool{
	PageVertical:   true,
	PageHorizontal: true,
	PageMixed:      true,
}

// ErrDuplicateName is returned by [Page.Validate] when two panels share a name.
var ErrDuplicateName = errors.New("duplicate panel name")

// BubbleRef pairs a speech bubble with the panel it was placed on.
type BubbleRef struct {
	Panel  *Panel
	Bubble *bubble.SpeechBubble
}

// Page is the root of a panel tree plus page-wide attributes.
type Page struct {
	Panel

	NumPanels  int
	PageType   PageType
	PageWidth  float64
	PageHeight float64
	Background string

	leaves []*Panel
}

// NewPage creates a page covering (0, 0)-(width, height).
func NewPage(name string, width, height float64, numPanels int, pt PageType) *Page {
	return &Page{
		Panel:     Panel{Name: name, Coords: Rect(0, 0, width, height)},
		NumPanels:  numPanels,
		PageType:   pt,
		PageWidth:  width,
		PageHeight: height,
	}
}

// Root returns the page's root panel.
func (pg *Page) Root() *Panel { return &pg.Panel }

// PageArea returns width*height of the page.
func (pg *Page) PageArea() float64 { return pg.PageWidth * pg.PageHeight }

// Bounds returns the page rectangle.
func (pg *Page) Bounds() geom.Rect { return geom.Rect{W: pg.PageWidth, H: pg.PageHeight} }

// LeafChildren returns the cached list of leaf panels. A page without
// children is its own only leaf. The cache is rebuilt after
// [Page.InvalidateLeaves].
func (pg *Page) LeafChildren() []*Panel {
	if pg.leaves == nil {
		pg.leaves = pg.Panel.Leaves()
	}
	return pg.leaves
}

// InvalidateLeaves drops the cached leaf list. Call it after the tree shape
// changes.
func (pg *Page) InvalidateLeaves() { pg.leaves = nil }

// Find returns the panel named name, or nil.
func (pg *Page) Find(name string) *Panel {
	var found *Panel
	pg.Walk(func(p *Panel) bool {
		if found != nil {
			return false
		}
		if p.Name == name {
			found = p
			return false
		}
		return true
	})
	return found
}

// Count returns the number of panels in the tree, the page included.
func (pg *Page) Count() int {
	n := 0
	pg.Walk(func(*Panel) bool { n++; return true })
	return n
}

// Bubbles returns every speech bubble on the page in leaf order, followed by
// page-level bubbles.
func (pg *Page) Bubbles() []BubbleRef {
	var out []BubbleRef
	for _, leaf := range pg.LeafChildren() {
		if leaf == pg.Root() {
			continue
		}
		for _, b := range leaf.SpeechBubbles {
			out = append(out, BubbleRef{Panel: leaf, Bubble: b})
		}
	}
	for _, b := range pg.SpeechBubbles {
		out = append(out, BubbleRef{Panel: pg.Root(), Bubble: b})
	}
	return out
}

// Validate checks that panel names are unique and every ring has at least
// three distinct vertices.
func (pg *Page) Validate() error {
	seen := make(map[string]bool)
	var err error
	pg.Walk(func(p *Panel) bool {
		if err != nil {
			return false
		}
		if seen[p.Name] {
			err = fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
			return false
		}
		seen[p.Name] = true
		if len(p.Coords.Open()) < 3 {
			err = fmt.Errorf("panel %q: ring has %d vertices", p.Name, len(p.Coords))
			return false
		}
		return true
	})
	return err
}

// CheckGeometry reports the first panel whose outline is not a simple ring
// with positive width and height, or that has a vertex outside its parent.
// The whole tree is checked, so a page that passes lies inside its own
// bounds.
func (pg *Page) CheckGeometry() error { return pg.Panel.CheckGeometry() }
