package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/patrickmn/go-cache"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/fonts"
)

// Template cache lifetimes.
const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
)

// assetCache holds decoded bubble templates. Cached images are never
// modified; callers clone before drawing.
type assetCache struct {
	c *cache.Cache
}

func newAssetCache() *assetCache {
	return &assetCache{c: cache.New(defaultCacheExpiration, cacheCleanupInterval)}
}

func (a *assetCache) template(path string) (*image.NRGBA, error) {
	if v, ok := a.c.Get(path); ok {
		return v.(*image.NRGBA), nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	nrgba := imaging.Clone(img)
	a.c.Set(path, nrgba, cache.DefaultExpiration)
	return nrgba, nil
}

// renderBubble letters the bubble's template and applies its transforms.
// The result is Width x Height, larger when rotated.
func (c *Composer) renderBubble(b *bubble.SpeechBubble) (image.Image, error) {
	tmpl, err := c.assets.template(b.Template)
	if err != nil {
		return nil, fmt.Errorf("bubble template %s: %w", b.Template, err)
	}

	var base image.Image = tmpl
	textColor := color.Color(color.Black)
	if b.Has(bubble.Invert) {
		base = imaging.Invert(tmpl)
		textColor = color.White
	}

	dc := gg.NewContextForImage(base)
	if err := c.letter(dc, b, textColor); err != nil {
		return nil, err
	}

	return transformBubble(dc.Image(), b), nil
}

// BubbleShape returns the bubble's template without lettering, flipped,
// sized, stretched and rotated the way the page draws it at the bubble's
// location. Segmentation traces its outline.
func (c *Composer) BubbleShape(b *bubble.SpeechBubble) (image.Image, error) {
	tmpl, err := c.assets.template(b.Template)
	if err != nil {
		return nil, fmt.Errorf("bubble template %s: %w", b.Template, err)
	}
	return transformBubble(tmpl, b), nil
}

func transformBubble(img image.Image, b *bubble.SpeechBubble) image.Image {
	if b.Has(bubble.FlipHorizontal) {
		img = imaging.FlipH(img)
	}
	if b.Has(bubble.FlipVertical) {
		img = imaging.FlipV(img)
	}
	w, h := max(b.Width, 1), max(b.Height, 1)
	img = imaging.Resize(img, w, h, imaging.Lanczos)
	img = stretch(img, b)
	if b.Has(bubble.Rotate) {
		img = imaging.Rotate(img, b.TransformMetadata[bubble.MetaRotation], color.Transparent)
	}
	return img
}

// letter draws the text of every writing area, centered in the area's
// padded box.
func (c *Composer) letter(dc *gg.Context, b *bubble.SpeechBubble, textColor color.Color) error {
	f, err := c.fonts.Load(b.Font)
	if err != nil {
		return err
	}
	dc.SetColor(textColor)
	for i, area := range b.WritingAreas {
		box, ok := area.Inner(c.cfg.Padding)
		if !ok {
			continue
		}
		text := b.TextFor(i)
		if b.Language == bubble.Japanese {
			text = strings.Repeat(text, 4)
		}
		lines := wrapText(text, c.cfg.WrapWidth)
		if len(lines) == 0 {
			continue
		}
		text = strings.Join(lines, "\n")

		size, err := c.fitFontSize(dc, f, text, float64(box.Dx()))
		if err != nil {
			return err
		}
		face, err := fonts.Face(f, size)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		tw, th := dc.MeasureMultilineString(text, 1)
		x := float64(box.Min.X) + math.Max(math.Round((float64(box.Dx())-tw)/2), 0)
		y := float64(box.Min.Y) + math.Max(math.Round((float64(box.Dy())-th)/2), 0)

		dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
		dc.Clip()
		fh := dc.FontHeight()
		for j, line := range lines {
			dc.DrawStringAnchored(line, x+tw/2, y+float64(j)*fh, 0.5, 1)
		}
		dc.ResetClip()
		face.Close()
	}
	return nil
}

// fitFontSize scales the minimum font size by how much narrower the text
// is than the box, clamped to the configured range.
func (c *Composer) fitFontSize(dc *gg.Context, f *opentype.Font, text string, boxW float64) (float64, error) {
	minSize := float64(c.cfg.FontSizeMin)
	face, err := fonts.Face(f, minSize)
	if err != nil {
		return 0, err
	}
	defer face.Close()
	dc.SetFontFace(face)
	tw, _ := dc.MeasureMultilineString(text, 1)
	if tw <= 0 {
		return minSize, nil
	}
	size := math.Round(boxW / tw * minSize)
	return math.Max(math.Min(size, float64(c.cfg.FontSizeMax)), minSize), nil
}

// stretch squeezes the bubble along the other axis so it reads as
// stretched by the recorded factor while staying inside its rectangle.
func stretch(img image.Image, b *bubble.SpeechBubble) image.Image {
	fx, fy := 0.0, 0.0
	if b.Has(bubble.StretchX) {
		fx = b.TransformMetadata[bubble.MetaStretchX]
	}
	if b.Has(bubble.StretchY) {
		fy = b.TransformMetadata[bubble.MetaStretchY]
	}
	if fx == fy {
		return img
	}
	size := img.Bounds().Size()
	w, h := float64(size.X), float64(size.Y)
	if fx > fy {
		h = h * (1 + fy) / (1 + fx)
	} else {
		w = w * (1 + fx) / (1 + fy)
	}
	sw, sh := max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
	squeezed := imaging.Resize(img, sw, sh, imaging.Lanczos)
	canvas := imaging.New(size.X, size.Y, color.Transparent)
	return imaging.PasteCenter(canvas, squeezed)
}

// wrapText breaks s into lines of at most width runes, breaking at spaces
// where possible and splitting words longer than a line.
func wrapText(s string, width int) []string {
	width = max(width, 1)
	var lines []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, word := range strings.Fields(s) {
		for utf8.RuneCountInString(word) > width {
			flush()
			cut := byteOffset(word, width)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		n := utf8.RuneCountInString(word)
		if n == 0 {
			continue
		}
		if curLen > 0 && curLen+1+n > width {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()
	return lines
}

// byteOffset returns the byte offset of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
