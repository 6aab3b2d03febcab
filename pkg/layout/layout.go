// Package layout builds and deforms the panel tree of a page.
//
// A page starts as one rectangle. [BuildBase] divides it with one of the
// split recipes, [AddTransforms] cuts and skews panel boundaries, and
// [Shrink] pulls every leaf outline inwards so panels are separated by a
// gutter. All randomness comes from the *rand.Rand passed in, so a page is
// fully determined by its seed.
//
// # Usage
//
//	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
//	page := layout.NewGenerator(layout.DefaultConfig()).Generate(rng, "page-0")
//	for _, leaf := range page.LeafChildren() {
//		// assign images and bubbles
//	}
package layout

import (
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// Default generation parameters.
const (
	DefaultPageWidth  = 1600
	DefaultPageHeight = 2400

	DefaultTransformChance    = 0.96
	DefaultDoubleSliceChance  = 0.24
	DefaultSliceMinArea       = 0.24
	DefaultCenterSideRatio    = 0.72
	DefaultBoxTransformChance = 0.16
	DefaultTrapezoidRatio     = 0.48

	// Movement limits are percentages (exclusive upper bound of randint).
	DefaultTrapezoidMovementLimit = 48
	DefaultRhombusMovementLimit   = 48
	DefaultPageMovementLimit      = 24

	DefaultShrinkMin = -24
	DefaultShrinkMax = 0

	DefaultRemovalChance = 0.012
	DefaultRemovalMax    = 2
)

// MaxPanels is the largest panel count a recipe exists for.
const MaxPanels = 8

// Config holds the layout generation parameters.
type Config struct {
	PageWidth  float64 `toml:"page_width"`
	PageHeight float64 `toml:"page_height"`

	// PanelWeights[i] is the relative chance of a page with i+1 panels.
	PanelWeights []float64 `toml:"panel_weights"`

	VerticalWeight   float64 `toml:"vertical_weight"`
	HorizontalWeight float64 `toml:"horizontal_weight"`
	MixedWeight      float64 `toml:"mixed_weight"`

	TransformChance    float64 `toml:"transform_chance"`
	DoubleSliceChance  float64 `toml:"double_slice_chance"`
	SliceMinArea       float64 `toml:"slice_min_area"`
	CenterSideRatio    float64 `toml:"center_side_ratio"`
	BoxTransformChance float64 `toml:"box_transform_chance"`
	TrapezoidRatio     float64 `toml:"trapezoid_ratio"`

	TrapezoidMovementLimit int `toml:"trapezoid_movement_limit"`
	RhombusMovementLimit   int `toml:"rhombus_movement_limit"`
	PageMovementLimit      int `toml:"page_movement_limit"`

	ShrinkMin int `toml:"shrink_min"`
	ShrinkMax int `toml:"shrink_max"`

	RemovalChance float64 `toml:"removal_chance"`
	RemovalMax    int     `toml:"removal_max"`
}

// DefaultConfig returns the built-in generation parameters.
func DefaultConfig() Config {
	return Config{
		PageWidth:              DefaultPageWidth,
		PageHeight:             DefaultPageHeight,
		PanelWeights:           []float64{1, 1, 1, 1, 1, 1, 1, 1},
		VerticalWeight:         0.1,
		HorizontalWeight:       0.1,
		MixedWeight:            0.8,
		TransformChance:        DefaultTransformChance,
		DoubleSliceChance:      DefaultDoubleSliceChance,
		SliceMinArea:           DefaultSliceMinArea,
		CenterSideRatio:        DefaultCenterSideRatio,
		BoxTransformChance:     DefaultBoxTransformChance,
		TrapezoidRatio:         DefaultTrapezoidRatio,
		TrapezoidMovementLimit: DefaultTrapezoidMovementLimit,
		RhombusMovementLimit:   DefaultRhombusMovementLimit,
		PageMovementLimit:      DefaultPageMovementLimit,
		ShrinkMin:              DefaultShrinkMin,
		ShrinkMax:              DefaultShrinkMax,
		RemovalChance:          DefaultRemovalChance,
		RemovalMax:             DefaultRemovalMax,
	}
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	if err := errors.ValidatePositive("page_width", c.PageWidth); err != nil {
		return err
	}
	if err := errors.ValidatePositive("page_height", c.PageHeight); err != nil {
		return err
	}
	switch {
	case len(c.PanelWeights) == 0 || len(c.PanelWeights) > MaxPanels:
		return errors.New(errors.ErrCodeInvalidConfig, "panel_weights needs 1 to %d entries, got %d", MaxPanels, len(c.PanelWeights))
	case sum(c.PanelWeights) <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "panel_weights must not all be zero")
	case c.VerticalWeight < 0 || c.HorizontalWeight < 0 || c.MixedWeight < 0 ||
		c.VerticalWeight+c.HorizontalWeight+c.MixedWeight <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "page type weights must be non-negative and not all zero")
	case c.TrapezoidMovementLimit <= 10 || c.RhombusMovementLimit <= 10 || c.PageMovementLimit <= 10:
		return errors.New(errors.ErrCodeInvalidConfig, "movement limits must be above 10 percent")
	case c.RemovalMax < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "removal_max must be at least 1")
	}
	if err := errors.ValidateRange("shrink", c.ShrinkMin, c.ShrinkMax); err != nil {
		return err
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"transform_chance", c.TransformChance},
		{"double_slice_chance", c.DoubleSliceChance},
		{"slice_min_area", c.SliceMinArea},
		{"center_side_ratio", c.CenterSideRatio},
		{"box_transform_chance", c.BoxTransformChance},
		{"trapezoid_ratio", c.TrapezoidRatio},
		{"removal_chance", c.RemovalChance},
	} {
		if err := errors.ValidateProbability(p.name, p.v); err != nil {
			return err
		}
	}
	return nil
}

// Generator builds page geometry from a Config.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Config returns the generator's parameters.
func (g *Generator) Config() Config { return g.cfg }

// maxLayoutAttempts bounds how often a page is redrawn when its transforms
// leave a panel that fails [panel.Page.CheckGeometry].
const maxLayoutAttempts = 4

// Generate builds the geometry of one page: it draws a panel count and page
// type, splits the page, transforms boundaries and shrinks the leaves. Images
// and bubbles are left to the caller.
//
// A transformed layout with a folded or escaping panel is discarded and
// redrawn from rng. After maxLayoutAttempts failures the page keeps its
// untransformed split.
func (g *Generator) Generate(rng *rand.Rand, name string) *panel.Page {
	var pg *panel.Page
	for range maxLayoutAttempts {
		pg = g.layout(rng, name, true)
		if pg.CheckGeometry() == nil {
			break
		}
		pg = nil
	}
	if pg == nil {
		pg = g.layout(rng, name, false)
	}
	Shrink(rng, pg, g.cfg.ShrinkMin, g.cfg.ShrinkMax)
	return pg
}

func (g *Generator) layout(rng *rand.Rand, name string, transform bool) *panel.Page {
	n := 1 + weighted(rng, g.cfg.PanelWeights)
	pt := []panel.PageType{panel.PageVertical, panel.PageHorizontal, panel.PageMixed}[weighted(rng, []float64{
		g.cfg.VerticalWeight, g.cfg.HorizontalWeight, g.cfg.MixedWeight,
	})]

	pg := panel.NewPage(name, g.cfg.PageWidth, g.cfg.PageHeight, n, pt)
	BuildBase(rng, pg, "")
	if transform && rng.Float64() < g.cfg.TransformChance {
		AddTransforms(rng, pg, g.cfg)
	}
	return pg
}

// RemovePanels hides the last one or RemovalMax leaves from rendering with
// probability RemovalChance. Pages with RemovalMax+1 panels or fewer are
// left alone. It returns the number of hidden panels.
func (g *Generator) RemovePanels(rng *rand.Rand, pg *panel.Page) int {
	if rng.Float64() >= g.cfg.RemovalChance || pg.NumPanels <= g.cfg.RemovalMax+1 {
		return 0
	}
	n := 1
	if rng.IntN(2) == 1 {
		n = g.cfg.RemovalMax
	}
	leaves := pg.LeafChildren()
	if n > len(leaves) {
		n = len(leaves)
	}
	for _, l := range leaves[len(leaves)-n:] {
		l.NoRender = true
	}
	return n
}

// randint returns an integer in [lo, hi), or lo when the range is empty.
func randint(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo)
}

// weighted returns an index drawn with probability proportional to w.
func weighted(rng *rand.Rand, w []float64) int {
	total := sum(w)
	if total <= 0 {
		return 0
	}
	x := rng.Float64() * total
	for i, v := range w {
		if x < v {
			return i
		}
		x -= v
	}
	return len(w) - 1
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// invert returns the other split axis.
func invert(o panel.Orientation) panel.Orientation {
	if o == panel.Horizontal {
		return panel.Vertical
	}
	return panel.Horizontal
}

func pickAxis(rng *rand.Rand) panel.Orientation {
	if rng.IntN(2) == 0 {
		return panel.Horizontal
	}
	return panel.Vertical
}
