package bubble

import (
	"image"
	"math"
	"math/rand/v2"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matzehuels/mangaforge/pkg/geom"
)

// Placement defaults.
const (
	DefaultAreaRatio   = 0.48
	DefaultMaxAttempts = 8
	DefaultFontSizeMin = 24
	DefaultFontSizeMax = 48

	// locationInset keeps the sampled location away from the panel's centre lines.
	locationInset = 15
)

// Template is a bubble template image with its usable writing areas.
type Template struct {
	Path   string
	Width  int
	Height int
	Areas  []WritingArea
}

// Candidate is a pre-sampled bubble: a template, a font and one text per
// writing area.
type Candidate struct {
	Template    Template
	Font        string
	Language    string
	Texts       []Text
	TextIndices []int
}

// Region is the panel geometry a bubble is placed on.
type Region struct {
	Coords geom.Polygon
	Width  float64
	Height float64
	Area   float64
}

// valid reports whether the region has a positive width, height and area.
// The negated comparisons also reject NaN.
func (r Region) valid() bool {
	return r.Width > 0 && r.Height > 0 && r.Area > 0 && len(r.Coords) >= 3
}

// Config controls placement.
type Config struct {
	PageWidth   float64
	PageHeight  float64
	AreaRatio   float64
	MaxAttempts int
	FontSizeMin int
	FontSizeMax int
}

// Outcome reports a single placement. Bubble is nil when every attempt was
// rejected and the bubble was dropped.
type Outcome struct {
	Bubble   *SpeechBubble
	Attempts int
}

// Dropped reports whether the bubble could not be placed.
func (o Outcome) Dropped() bool { return o.Bubble == nil }

// Placer places bubbles on panels of one page size. It holds no mutable
// state and may be shared between goroutines.
type Placer struct {
	cfg Config
}

// PageState is the page-scoped list of accepted bubbles threaded through
// sequential placements.
type PageState struct {
	Placed  []*SpeechBubble
	Dropped int
}

// NewPlacer creates a Placer, filling zero config values with defaults.
func NewPlacer(cfg Config) *Placer {
	if cfg.AreaRatio <= 0 {
		cfg.AreaRatio = DefaultAreaRatio
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.FontSizeMin <= 0 {
		cfg.FontSizeMin = DefaultFontSizeMin
	}
	if cfg.FontSizeMax <= cfg.FontSizeMin {
		cfg.FontSizeMax = cfg.FontSizeMin + 1
	}
	return &Placer{cfg: cfg}
}

// Place tries up to MaxAttempts times to place c on region without leaving
// the page or overlapping any bubble in placed. Each attempt draws a fresh
// casing, location and transform set. Regions without a positive size get
// no bubble and draw nothing from rng.
func (p *Placer) Place(rng *rand.Rand, region Region, placed []*SpeechBubble, c Candidate) Outcome {
	if len(c.Template.Areas) == 0 || c.Template.Width <= 0 || c.Template.Height <= 0 {
		return Outcome{}
	}
	if !region.valid() {
		return Outcome{}
	}
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		b := p.attempt(rng, region, c)
		if p.accepts(b, placed) {
			return Outcome{Bubble: b, Attempts: attempt}
		}
	}
	return Outcome{Attempts: p.cfg.MaxAttempts}
}

// PlaceAll places candidates on region one after another and records them
// in st. It returns the bubbles accepted for this region in order.
func (p *Placer) PlaceAll(rng *rand.Rand, region Region, st *PageState, cs []Candidate) []*SpeechBubble {
	var accepted []*SpeechBubble
	for _, c := range cs {
		out := p.Place(rng, region, st.Placed, c)
		if out.Dropped() {
			st.Dropped++
			continue
		}
		st.Placed = append(st.Placed, out.Bubble)
		accepted = append(accepted, out.Bubble)
	}
	return accepted
}

func (p *Placer) attempt(rng *rand.Rand, region Region, c Candidate) *SpeechBubble {
	texts := make([]Text, len(c.Texts))
	for i, t := range c.Texts {
		texts[i] = recase(rng, t)
	}

	tw, th := float64(c.Template.Width), float64(c.Template.Height)
	scale := math.Sqrt(region.Area * p.cfg.AreaRatio / (tw * th))
	w := int(math.Round(tw * scale))
	h := int(math.Round(th * scale))

	origin := region.Coords.MinXTop()
	x := math.Round(origin.X + (math.Floor(region.Width/2)-locationInset)*rng.Float64())
	y := math.Round(origin.Y + (math.Floor(region.Height/2)-locationInset)*rng.Float64())

	b := &SpeechBubble{
		Texts:             texts,
		TextIndices:       append([]int(nil), c.TextIndices...),
		Language:          c.Language,
		Font:              c.Font,
		Template:          c.Template.Path,
		WritingAreas:      append([]WritingArea(nil), c.Template.Areas...),
		Location:          image.Pt(int(x), int(y)),
		Width:             w,
		Height:            h,
		TransformMetadata: map[string]float64{},
		TextOrientation:   TopToBottom,
	}
	p.sampleTransforms(rng, b)
	if rng.Float64() < 0.01 {
		b.TextOrientation = LeftToRight
	}
	b.FontSize = p.cfg.FontSizeMin + rng.IntN(p.cfg.FontSizeMax-p.cfg.FontSizeMin)
	return b
}

func (p *Placer) accepts(b *SpeechBubble, placed []*SpeechBubble) bool {
	if b.Width <= 0 || b.Height <= 0 {
		return false
	}
	page := geom.Rect{W: p.cfg.PageWidth, H: p.cfg.PageHeight}
	r := b.RenderedRect()
	if !r.Within(page) {
		return false
	}
	for _, other := range placed {
		if other.RenderedRect().Overlaps(r) {
			return false
		}
	}
	return true
}

// sampleTransforms picks two geometric transforms (with replacement) for 98%
// of bubbles and inverts 5% of those.
func (p *Placer) sampleTransforms(rng *rand.Rand, b *SpeechBubble) {
	if rng.Float64() >= 0.98 {
		return
	}
	for range 2 {
		b.Transforms = append(b.Transforms, geometricTransforms[rng.IntN(len(geometricTransforms))])
	}
	if rng.Float64() < 0.05 {
		b.Transforms = append(b.Transforms, Invert)
	}
	if b.Has(StretchX) {
		b.TransformMetadata[MetaStretchX] = rng.Float64() * 0.3
	}
	if b.Has(StretchY) {
		b.TransformMetadata[MetaStretchY] = rng.Float64() * 0.3
	}
	if b.Has(Rotate) {
		b.TransformMetadata[MetaRotation] = float64(10 + rng.IntN(20))
	}
}

// recase applies one casing to every language of t: upper for 2 in 5 draws,
// lower for 1 in 5, capitalized otherwise.
func recase(rng *rand.Rand, t Text) Text {
	out := t.Clone()
	mode := rng.IntN(5)
	for lang, s := range out {
		switch mode {
		case 1, 2:
			out[lang] = cases.Upper(language.Und).String(s)
		case 3:
			out[lang] = cases.Lower(language.Und).String(s)
		default:
			out[lang] = capitalize(s)
		}
	}
	return out
}

// capitalize lowercases s and uppercases its first rune.
func capitalize(s string) string {
	s = cases.Lower(language.Und).String(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
