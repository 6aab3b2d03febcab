// Package segment produces instance masks and an annotation document for
// generated pages.
//
// For a page named p the output directory holds:
//
//	p/panels/<i>.png           one binary mask per illustrated panel
//	p/speech_bubbles/<i>.png   one binary mask per speech bubble
//	p/panels_mask.png          union of the panel masks
//	p/speech_bubbles_mask.png  union of the bubble masks
//	p/preview.png              the page with every contour outlined
//	p/annotations.json         contours, areas and boxes
//
// Panels without an illustration and hidden panels are left out, as are
// the bubbles of hidden panels, so the annotations match what the renderer
// draws.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// Category names, also used as directory and JSON key names.
const (
	CategoryPanels        = "panels"
	CategorySpeechBubbles = "speech_bubbles"
)

// AnnotationsFile is the name of the annotation document in a page's
// segmentation directory.
const AnnotationsFile = "annotations.json"

// Preview outline style.
var (
	panelColor  = color.RGBA{0, 200, 0, 255}
	bubbleColor = color.RGBA{220, 0, 0, 255}
)

const previewLineWidth = 4

// Instance is one annotated object.
type Instance struct {
	// Segmentation lists the contour points, rounded to pixels, without
	// repeats.
	Segmentation [][2]int `json:"segmentation"`
	Area         float64  `json:"area"`
	// BBox is [x, y, x+w, y+h].
	BBox [4]int `json:"bbox"`
}

// Annotations is the per-page annotation document.
type Annotations struct {
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	FileName      string     `json:"file_name"`
	Panels        []Instance `json:"panels"`
	SpeechBubbles []Instance `json:"speech_bubbles"`
}

// Contours returns the page's panel and bubble outlines in page
// coordinates. Bubble outlines are traced from shapes; with a nil source
// each bubble is the rectangle it covers.
func Contours(pg *panel.Page, shapes ShapeSource) (panels, bubbles []geom.Polygon, err error) {
	pg.Walk(func(p *panel.Panel) bool {
		if err != nil || p.NoRender {
			return false
		}
		if p.Image != "" {
			panels = append(panels, p.Polygon())
		}
		for _, b := range p.SpeechBubbles {
			ring, berr := bubbleOutline(shapes, b)
			if berr != nil {
				err = fmt.Errorf("page %s: %w", pg.Name, berr)
				return false
			}
			bubbles = append(bubbles, ring)
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return panels, bubbles, nil
}

func rectRing(r geom.Rect) geom.Polygon {
	return panel.Rect(r.X, r.Y, r.W, r.H)
}

// Annotate builds the annotation document for pg. fileName names the
// rendered page image the annotations refer to.
func Annotate(pg *panel.Page, shapes ShapeSource, fileName string) (*Annotations, error) {
	panels, bubbles, err := Contours(pg, shapes)
	if err != nil {
		return nil, err
	}
	return annotate(pg, fileName, panels, bubbles), nil
}

func annotate(pg *panel.Page, fileName string, panels, bubbles []geom.Polygon) *Annotations {
	a := &Annotations{
		Width:         int(pg.PageWidth),
		Height:        int(pg.PageHeight),
		FileName:      fileName,
		Panels:        make([]Instance, 0, len(panels)),
		SpeechBubbles: make([]Instance, 0, len(bubbles)),
	}
	for _, c := range panels {
		a.Panels = append(a.Panels, NewInstance(c))
	}
	for _, c := range bubbles {
		a.SpeechBubbles = append(a.SpeechBubbles, NewInstance(c))
	}
	return a
}

// NewInstance annotates a single contour.
func NewInstance(ring geom.Polygon) Instance {
	pts := uniquePoints(ring)
	rounded := make(geom.Polygon, len(pts))
	for i, p := range pts {
		rounded[i] = geom.Pt(float64(p[0]), float64(p[1]))
	}
	b := rounded.Bounds()
	return Instance{
		Segmentation: pts,
		Area:         rounded.Closed().Area(),
		BBox: [4]int{
			int(b.X), int(b.Y),
			int(b.X + b.W), int(b.Y + b.H),
		},
	}
}

// uniquePoints rounds the ring's vertices and keeps the first occurrence
// of each.
func uniquePoints(ring geom.Polygon) [][2]int {
	seen := make(map[[2]int]bool, len(ring))
	out := make([][2]int, 0, len(ring))
	for _, v := range ring {
		p := [2]int{int(math.Round(v.X)), int(math.Round(v.Y))}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Mask rasterizes ring into a w x h binary mask: 255 inside, 0 outside.
func Mask(w, h int, rings ...geom.Polygon) *image.Gray {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	for _, ring := range rings {
		if !tracePolygon(dc, ring) {
			continue
		}
		dc.Fill()
	}
	return binarize(dc.Image())
}

func binarize(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a >= 0x8000 {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func tracePolygon(dc *gg.Context, ring geom.Polygon) bool {
	open := ring.Open()
	if len(open) < 3 {
		return false
	}
	dc.MoveTo(open[0].X, open[0].Y)
	for _, v := range open[1:] {
		dc.LineTo(v.X, v.Y)
	}
	dc.ClosePath()
	return true
}

// Writer writes segmentation output under a root directory. Shapes, when
// set, supplies the bubble templates their outlines are traced from.
type Writer struct {
	Root   string
	Shapes ShapeSource
}

// Write writes masks, preview and annotations for pg into Root/<name>.
// page is the rendered page used as preview background; when nil the
// preview is drawn on white. imageFile is recorded as the annotated file.
func (w Writer) Write(ctx context.Context, pg *panel.Page, page image.Image, imageFile string) (*Annotations, error) {
	if err := errors.ValidatePageName(pg.Name); err != nil {
		return nil, err
	}
	width, height := int(pg.PageWidth), int(pg.PageHeight)
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidMetadata, "page %s has no size", pg.Name)
	}

	dir := filepath.Join(w.Root, pg.Name)
	for _, sub := range []string{CategoryPanels, CategorySpeechBubbles} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create segmentation dir: %w", err)
		}
	}

	panels, bubbles, err := Contours(pg, w.Shapes)
	if err != nil {
		return nil, err
	}
	if err := writeMasks(ctx, filepath.Join(dir, CategoryPanels), width, height, panels); err != nil {
		return nil, err
	}
	if err := writeMasks(ctx, filepath.Join(dir, CategorySpeechBubbles), width, height, bubbles); err != nil {
		return nil, err
	}
	if err := save(Mask(width, height, panels...), filepath.Join(dir, CategoryPanels+"_mask.png")); err != nil {
		return nil, err
	}
	if err := save(Mask(width, height, bubbles...), filepath.Join(dir, CategorySpeechBubbles+"_mask.png")); err != nil {
		return nil, err
	}
	if err := save(Preview(page, width, height, panels, bubbles), filepath.Join(dir, "preview.png")); err != nil {
		return nil, err
	}

	a := annotate(pg, imageFile, panels, bubbles)
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal annotations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, AnnotationsFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write annotations: %w", err)
	}
	return a, nil
}

func writeMasks(ctx context.Context, dir string, w, h int, rings []geom.Polygon) error {
	for i, ring := range rings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := save(Mask(w, h, ring), filepath.Join(dir, strconv.Itoa(i)+".png")); err != nil {
			return err
		}
	}
	return nil
}

// Preview outlines panels in green and bubbles in red on top of page.
func Preview(page image.Image, w, h int, panels, bubbles []geom.Polygon) image.Image {
	var dc *gg.Context
	if page != nil {
		dc = gg.NewContextForImage(page)
	} else {
		dc = gg.NewContext(w, h)
		dc.SetColor(color.White)
		dc.Clear()
	}
	dc.SetLineWidth(previewLineWidth)
	for _, group := range []struct {
		rings []geom.Polygon
		c     color.Color
	}{
		{panels, panelColor},
		{bubbles, bubbleColor},
	} {
		dc.SetColor(group.c)
		for _, ring := range group.rings {
			if tracePolygon(dc, ring) {
				dc.Stroke()
			}
		}
	}
	return dc.Image()
}

func save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadAnnotations loads an annotation document.
func ReadAnnotations(path string) (*Annotations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "annotations not found: %s", path)
		}
		return nil, err
	}
	var a Annotations
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse annotations %s", path)
	}
	return &a, nil
}
