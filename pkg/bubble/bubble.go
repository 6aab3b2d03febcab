// Package bubble models speech bubbles and places them on panels.
//
// A bubble is built from a template image that carries one or more writing
// areas (rectangles where text can be drawn without crossing the outline).
// Placement scales the template to a fraction of the panel area, picks a
// pseudo-random location in the panel's upper-left quadrant and accepts it
// only when it lies on the page and clears every bubble already placed on
// that page.
package bubble

import (
	"image"
	"math"
	"slices"

	"github.com/matzehuels/mangaforge/pkg/geom"
)

// Transform is a visual transform applied when the bubble is rendered.
type Transform string

// Supported transforms.
const (
	FlipHorizontal Transform = "flip horizontal"
	FlipVertical   Transform = "flip vertical"
	Rotate         Transform = "rotate"
	StretchX       Transform = "stretch x"
	StretchY       Transform = "stretch y"
	Invert         Transform = "invert"
)

// Geometric transforms sampled for every bubble. Invert is drawn separately.
var geometricTransforms = []Transform{FlipHorizontal, FlipVertical, Rotate, StretchX, StretchY}

// Transform metadata keys.
const (
	MetaRotation = "rotation_amount"
	MetaStretchX = "stretch_x_factor"
	MetaStretchY = "stretch_y_factor"
)

// TextOrientation is the reading direction of the rendered text.
type TextOrientation string

const (
	LeftToRight TextOrientation = "ltr"
	TopToBottom TextOrientation = "ttb"
)

// Supported corpus languages.
const (
	English  = "english"
	Japanese = "japanese"
)

// Text is one corpus record keyed by language.
type Text map[string]string

// Clone returns a copy of t.
func (t Text) Clone() Text {
	out := make(Text, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// WritingArea is a rectangle inside a template image, in template pixels.
type WritingArea struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// Inner returns the area shrunk by padding on its top-left side, the region
// where text is actually drawn. ok is false when nothing is left.
func (a WritingArea) Inner(padding int) (image.Rectangle, bool) {
	w, h := a.Width-padding, a.Height-padding
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	min := image.Pt(a.X+padding, a.Y+padding)
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))}, true
}

// SpeechBubble is a bubble placed on a panel.
type SpeechBubble struct {
	Texts             []Text
	TextIndices       []int
	Language          string
	Font              string
	FontSize          int
	Template          string
	WritingAreas      []WritingArea
	Location          image.Point
	Width             int
	Height            int
	Transforms        []Transform
	TransformMetadata map[string]float64
	TextOrientation   TextOrientation
}

// Rect returns the placed rectangle in page coordinates.
func (b *SpeechBubble) Rect() geom.Rect {
	return geom.Rect{
		X: float64(b.Location.X),
		Y: float64(b.Location.Y),
		W: float64(b.Width),
		H: float64(b.Height),
	}
}

// rotationEps absorbs float noise in sin/cos of right angles.
const rotationEps = 1e-9

// RenderedRect returns the rectangle the rendered bubble covers. A rotated
// bubble grows to hold its rotated outline; its top-left stays at Location.
func (b *SpeechBubble) RenderedRect() geom.Rect {
	r := b.Rect()
	if !b.Has(Rotate) {
		return r
	}
	rad := b.TransformMetadata[MetaRotation] * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	w, h := r.W, r.H
	r.W = math.Ceil(w*cos + h*sin - rotationEps)
	r.H = math.Ceil(w*sin + h*cos - rotationEps)
	return r
}

// Has reports whether t is among the bubble's transforms.
func (b *SpeechBubble) Has(t Transform) bool {
	return slices.Contains(b.Transforms, t)
}

// TextFor returns the text drawn in writing area i.
func (b *SpeechBubble) TextFor(i int) string {
	if i >= len(b.Texts) {
		if len(b.Texts) == 0 {
			return ""
		}
		i = 0
	}
	t := b.Texts[i]
	if s, ok := t[b.Language]; ok {
		return s
	}
	return t[English]
}
