package dataset

import (
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/errors"
)

// Sampling defaults.
const (
	DefaultBubblesMin       = 1
	DefaultBubblesMax       = 1
	DefaultBackgroundChance = 0.012
)

// PoolConfig controls per-page sampling.
type PoolConfig struct {
	BubblesMin       int     // bubbles per panel, inclusive
	BubblesMax       int     // bubbles per panel, inclusive
	BackgroundChance float64 // chance a page gets a background image
}

// Pools samples page assignments from loaded inputs.
type Pools struct {
	in  *Inputs
	cfg PoolConfig
}

// NewPools wraps in for sampling. It fails when there are no images to put
// into panels.
func NewPools(in *Inputs, cfg PoolConfig) (*Pools, error) {
	if in == nil || len(in.Images) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "no panel images to sample from")
	}
	if cfg.BubblesMin < 0 {
		cfg.BubblesMin = 0
	}
	if cfg.BubblesMax < cfg.BubblesMin {
		cfg.BubblesMax = cfg.BubblesMin
	}
	return &Pools{in: in, cfg: cfg}, nil
}

// Inputs returns the underlying dataset.
func (p *Pools) Inputs() *Inputs { return p.in }

// CanBubble reports whether bubbles can be drawn at all.
func (p *Pools) CanBubble() bool {
	return len(p.in.Fonts) > 0 && len(p.in.Templates) > 0 && len(p.in.Texts) > 0
}

// BubbleDraw is a pre-sampled bubble as indices into the inputs.
type BubbleDraw struct {
	Font     int
	Template int
	Texts    []int // one per writing area of the template
}

// Draw is a pre-sampled page assignment. Background is -1 for none.
type Draw struct {
	Background int
	Images     []int
	Bubbles    [][]BubbleDraw
}

// Sample draws the assignment for a page with n leaf panels.
func (p *Pools) Sample(rng *rand.Rand, n int) Draw {
	d := Draw{
		Background: -1,
		Images:     make([]int, n),
		Bubbles:    make([][]BubbleDraw, n),
	}
	if bg := p.backgrounds(); len(bg) > 0 && rng.Float64() < p.cfg.BackgroundChance {
		d.Background = rng.IntN(len(bg))
	}
	for i := range n {
		d.Images[i] = rng.IntN(len(p.in.Images))
	}
	if !p.CanBubble() {
		return d
	}
	for i := range n {
		count := p.cfg.BubblesMin + rng.IntN(p.cfg.BubblesMax-p.cfg.BubblesMin+1)
		for range count {
			bd := BubbleDraw{
				Font:     rng.IntN(len(p.in.Fonts)),
				Template: rng.IntN(len(p.in.Templates)),
			}
			areas := p.in.Templates[bd.Template].Areas
			bd.Texts = make([]int, len(areas))
			for j := range areas {
				bd.Texts[j] = rng.IntN(len(p.in.Texts))
			}
			d.Bubbles[i] = append(d.Bubbles[i], bd)
		}
	}
	return d
}

// PanelAssets is what one leaf panel receives.
type PanelAssets struct {
	Image      string
	Candidates []bubble.Candidate
}

// Assignment is a resolved [Draw].
type Assignment struct {
	Background string
	Panels     []PanelAssets
}

// Resolve turns the indices of d into concrete paths and texts.
func (p *Pools) Resolve(d Draw) Assignment {
	var a Assignment
	if d.Background >= 0 {
		a.Background = p.backgrounds()[d.Background]
	}
	a.Panels = make([]PanelAssets, len(d.Images))
	for i, idx := range d.Images {
		a.Panels[i].Image = p.in.Images[idx]
		if i >= len(d.Bubbles) {
			continue
		}
		for _, bd := range d.Bubbles[i] {
			c := bubble.Candidate{
				Template:    p.in.Templates[bd.Template],
				Font:        p.in.Fonts[bd.Font],
				Language:    p.in.Language,
				TextIndices: append([]int(nil), bd.Texts...),
				Texts:       make([]bubble.Text, len(bd.Texts)),
			}
			for j, t := range bd.Texts {
				c.Texts[j] = p.in.Texts[t]
			}
			a.Panels[i].Candidates = append(a.Panels[i].Candidates, c)
		}
	}
	return a
}

func (p *Pools) backgrounds() []string {
	if len(p.in.Backgrounds) > 0 {
		return p.in.Backgrounds
	}
	return p.in.Images
}
