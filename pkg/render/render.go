package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/fonts"
	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// FitMode selects how an illustration is sized before masking.
type FitMode string

const (
	FitPage  FitMode = "page"
	FitPanel FitMode = "panel"
)

// Format is a raster output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Formats lists the supported output formats.
var Formats = []string{string(FormatPNG), string(FormatJPEG)}

// Render defaults.
const (
	DefaultBoundaryWidth = 16
	DefaultPadding       = 24
	DefaultFontSizeMin   = 24
	DefaultFontSizeMax   = 48
	DefaultWrapWidth     = 16
	DefaultCropTolerance = 8
	DefaultJPEGQuality   = 90
)

// Config controls rendering.
type Config struct {
	BoundaryWidth float64 `toml:"boundary_width" json:"boundary_width"`
	Padding       int     `toml:"bubble_padding" json:"bubble_padding"`
	FontSizeMin   int     `toml:"font_size_min" json:"font_size_min"`
	FontSizeMax   int     `toml:"font_size_max" json:"font_size_max"`
	WrapWidth     int     `toml:"wrap_width" json:"wrap_width"`
	CropTolerance uint8   `toml:"crop_tolerance" json:"crop_tolerance"`
	Fit           FitMode `toml:"fit" json:"fit"`
	Format        Format  `toml:"format" json:"format"`
	JPEGQuality   int     `toml:"jpeg_quality" json:"jpeg_quality"`
}

// DefaultConfig returns the built-in render parameters.
func DefaultConfig() Config {
	return Config{
		BoundaryWidth: DefaultBoundaryWidth,
		Padding:       DefaultPadding,
		FontSizeMin:   DefaultFontSizeMin,
		FontSizeMax:   DefaultFontSizeMax,
		WrapWidth:     DefaultWrapWidth,
		CropTolerance: DefaultCropTolerance,
		Fit:           FitPage,
		Format:        FormatPNG,
		JPEGQuality:   DefaultJPEGQuality,
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if c.BoundaryWidth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "boundary_width must not be negative")
	}
	if c.Padding < 0 || c.WrapWidth < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "bubble_padding must be >= 0 and wrap_width >= 1")
	}
	if c.FontSizeMin < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "font_size_min must be positive")
	}
	if err := errors.ValidateRange("font size", c.FontSizeMin, c.FontSizeMax); err != nil {
		return err
	}
	if err := errors.ValidateFormat("fit mode", string(c.Fit), string(FitPage), string(FitPanel)); err != nil {
		return err
	}
	return errors.ValidateFormat("image format", string(c.Format), Formats...)
}

// Option configures a Composer.
type Option func(*Composer)

// WithFontLoader shares a font loader between composers.
func WithFontLoader(l *fonts.Loader) Option {
	return func(c *Composer) { c.fonts = l }
}

// WithColorDir sets the directory holding colored versions of the
// illustrations, matched by file name. It is required by
// [Composer.RenderColor].
func WithColorDir(dir string) Option {
	return func(c *Composer) { c.colorDir = dir }
}

// Composer renders pages. It is safe for concurrent use.
type Composer struct {
	cfg      Config
	fonts    *fonts.Loader
	assets   *assetCache
	colorDir string
}

// NewComposer creates a Composer.
func NewComposer(cfg Config, opts ...Option) *Composer {
	c := &Composer{cfg: cfg, assets: newAssetCache()}
	for _, opt := range opts {
		opt(c)
	}
	if c.fonts == nil {
		c.fonts = fonts.NewLoader()
	}
	return c
}

// Config returns the composer's parameters.
func (c *Composer) Config() Config { return c.cfg }

// Render draws pg and returns it as a grayscale image.
func (c *Composer) Render(ctx context.Context, pg *panel.Page) (image.Image, error) {
	img, err := c.compose(ctx, pg, false)
	if err != nil {
		return nil, err
	}
	return toGray(img), nil
}

// RenderColor draws pg keeping color. Illustrations come from the color
// directory, cropped with the box found on the grayscale originals so both
// renditions line up.
func (c *Composer) RenderColor(ctx context.Context, pg *panel.Page) (image.Image, error) {
	if c.colorDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "color rendering needs a color image directory")
	}
	return c.compose(ctx, pg, true)
}

func (c *Composer) compose(ctx context.Context, pg *panel.Page, colored bool) (image.Image, error) {
	w, h := int(pg.PageWidth), int(pg.PageHeight)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidMetadata, "page %s has no size", pg.Name)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	if pg.Background != "" {
		bg, err := c.background(pg.Background, w, h)
		if err != nil {
			return nil, &errors.AssetError{Page: pg.Name, Asset: pg.Background, Err: err}
		}
		dc.DrawImage(bg, 0, 0)
	}

	for _, leaf := range pg.LeafChildren() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if leaf.NoRender {
			continue
		}
		ring := leaf.Polygon()
		if leaf.Image != "" {
			if err := c.pasteIllustration(dc, leaf, ring, colored); err != nil {
				return nil, &errors.AssetError{Page: pg.Name, Asset: leaf.Image, Err: err}
			}
		}
		c.outline(dc, ring)
	}

	for _, ref := range pg.Bubbles() {
		if ref.Panel.NoRender {
			continue
		}
		img, err := c.renderBubble(ref.Bubble)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", pg.Name, err)
		}
		dc.DrawImage(img, ref.Bubble.Location.X, ref.Bubble.Location.Y)
	}
	return dc.Image(), nil
}

func (c *Composer) background(path string, w, h int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	gray := imaging.Grayscale(img)
	gray = imaging.Crop(gray, ContentBounds(gray, c.cfg.CropTolerance))
	return imaging.Resize(gray, w, h, imaging.Lanczos), nil
}

// pasteIllustration fits the leaf's illustration and draws it through a
// mask of the panel polygon.
func (c *Composer) pasteIllustration(dc *gg.Context, leaf *panel.Panel, ring geom.Polygon, colored bool) error {
	img, err := c.illustration(leaf.Image, colored)
	if err != nil {
		return err
	}

	var fitted image.Image
	var at image.Point
	switch c.cfg.Fit {
	case FitPanel:
		b := ring.Bounds()
		fw, fh := max(int(b.W), 1), max(int(b.H), 1)
		fitted = imaging.Fill(img, fw, fh, imaging.Center, imaging.Lanczos)
		at = image.Pt(int(b.X), int(b.Y))
	default:
		fitted = imaging.Fill(img, dc.Width(), dc.Height(), imaging.Center, imaging.Lanczos)
	}

	mc := gg.NewContext(dc.Width(), dc.Height())
	tracePolygon(mc, ring)
	mc.Fill()
	if err := dc.SetMask(mc.AsMask()); err != nil {
		return err
	}
	dc.DrawImage(fitted, at.X, at.Y)
	dc.ResetClip()
	return nil
}

// illustration opens an illustration and crops its uniform border. For
// colored output the crop box is measured on the grayscale original and
// applied to the colored copy.
func (c *Composer) illustration(path string, colored bool) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	box := ContentBounds(img, c.cfg.CropTolerance)
	if colored {
		cp := filepath.Join(c.colorDir, filepath.Base(path))
		if img, err = imaging.Open(cp); err != nil {
			return nil, err
		}
		box = box.Intersect(img.Bounds())
		if box.Empty() {
			return img, nil
		}
	}
	return imaging.Crop(img, box), nil
}

func (c *Composer) outline(dc *gg.Context, ring geom.Polygon) {
	if c.cfg.BoundaryWidth <= 0 {
		return
	}
	dc.SetColor(color.Black)
	dc.SetLineWidth(c.cfg.BoundaryWidth)
	dc.SetLineJoinRound()
	tracePolygon(dc, ring)
	dc.Stroke()
}

func tracePolygon(dc *gg.Context, ring geom.Polygon) {
	open := ring.Open()
	if len(open) == 0 {
		return
	}
	dc.MoveTo(open[0].X, open[0].Y)
	for _, v := range open[1:] {
		dc.LineTo(v.X, v.Y)
	}
	dc.ClosePath()
}

// ContentBounds returns the part of img inside its uniform border. The
// border color is taken from the top-left pixel; a pixel belongs to the
// content when its gray level differs from it by more than tol. An image
// with no content keeps its full bounds.
func ContentBounds(img image.Image, tol uint8) image.Rectangle {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	if b.Empty() {
		return img.Bounds()
	}
	ref := gray.Pix[0]
	minX, minY, maxX, maxY := b.Dx(), b.Dy(), -1, -1
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := row[x*4]
			d := int(v) - int(ref)
			if d < 0 {
				d = -d
			}
			if d <= int(tol) {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return img.Bounds()
	}
	return image.Rect(minX, minY, maxX+1, maxY+1).Add(img.Bounds().Min)
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// Encode writes img in format. quality applies to JPEG only; zero selects
// the default.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case FormatPNG, "":
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	return errors.ValidateFormat("image format", string(format), Formats...)
}

// Extension returns the file extension for format.
func Extension(format Format) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}
