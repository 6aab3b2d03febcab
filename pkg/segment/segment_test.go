package segment

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

func testPage() *panel.Page {
	pg := panel.NewPage("seg", 200, 100, 3, panel.PageHorizontal)
	left := pg.AddChild(panel.Rect(0, 0, 100, 100), panel.Horizontal)
	right := pg.AddChild(panel.Rect(100, 0, 100, 100), panel.Horizontal)
	hidden := pg.AddChild(panel.Rect(150, 50, 50, 50), panel.Horizontal)
	left.Image = "a.png"
	right.Image = "b.png"
	hidden.Image = "c.png"
	hidden.NoRender = true
	left.SpeechBubbles = []*bubble.SpeechBubble{{
		Location: image.Pt(10, 10), Width: 20, Height: 30,
		TransformMetadata: map[string]float64{},
	}}
	hidden.SpeechBubbles = []*bubble.SpeechBubble{{
		Location: image.Pt(160, 60), Width: 10, Height: 10,
		TransformMetadata: map[string]float64{},
	}}
	pg.InvalidateLeaves()
	return pg
}

func TestContours(t *testing.T) {
	panels, bubbles, err := Contours(testPage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(panels) != 2 {
		t.Errorf("panels = %d, want 2", len(panels))
	}
	if len(bubbles) != 1 {
		t.Errorf("bubbles = %d, want 1", len(bubbles))
	}
}

func TestContoursRotatedBubble(t *testing.T) {
	pg := panel.NewPage("rot", 200, 200, 1, panel.PageVertical)
	pg.Image = "a.png"
	pg.SpeechBubbles = []*bubble.SpeechBubble{{
		Location:          image.Pt(0, 0),
		Width:             40,
		Height:            20,
		Transforms:        []bubble.Transform{bubble.Rotate},
		TransformMetadata: map[string]float64{bubble.MetaRotation: 90},
	}}
	_, bubbles, err := Contours(pg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(bubbles) != 1 {
		t.Fatalf("bubbles = %d, want 1", len(bubbles))
	}
	b := bubbles[0].Bounds()
	if b.W != 20 || b.H != 40 {
		t.Errorf("rotated contour = %vx%v, want 20x40", b.W, b.H)
	}
}

func TestNewInstance(t *testing.T) {
	ring := geom.Polygon{
		{X: 10.2, Y: 20.4}, {X: 30.4, Y: 20}, {X: 30, Y: 40.3}, {X: 10, Y: 40}, {X: 10.2, Y: 20.4},
	}
	got := NewInstance(ring)
	if len(got.Segmentation) != 4 {
		t.Errorf("points = %v, want 4 unique", got.Segmentation)
	}
	if got.Segmentation[0] != [2]int{10, 20} {
		t.Errorf("first point = %v", got.Segmentation[0])
	}
	if want := [4]int{10, 20, 30, 40}; got.BBox != want {
		t.Errorf("bbox = %v, want %v", got.BBox, want)
	}
	if got.Area != 400 {
		t.Errorf("area = %v, want 400", got.Area)
	}
}

func TestAnnotate(t *testing.T) {
	a, err := Annotate(testPage(), nil, "seg.png")
	if err != nil {
		t.Fatal(err)
	}
	if a.Width != 200 || a.Height != 100 || a.FileName != "seg.png" {
		t.Errorf("header = %d %d %s", a.Width, a.Height, a.FileName)
	}
	if len(a.Panels) != 2 || len(a.SpeechBubbles) != 1 {
		t.Fatalf("instances = %d panels, %d bubbles", len(a.Panels), len(a.SpeechBubbles))
	}
	if want := [4]int{100, 0, 200, 100}; a.Panels[1].BBox != want {
		t.Errorf("right bbox = %v, want %v", a.Panels[1].BBox, want)
	}
	if want := [4]int{10, 10, 30, 40}; a.SpeechBubbles[0].BBox != want {
		t.Errorf("bubble bbox = %v, want %v", a.SpeechBubbles[0].BBox, want)
	}
}

func TestMask(t *testing.T) {
	m := Mask(50, 50, panel.Rect(10, 10, 20, 20))
	tests := []struct {
		x, y int
		want uint8
	}{
		{20, 20, 255},
		{11, 28, 255},
		{5, 5, 0},
		{40, 20, 0},
	}
	for _, tt := range tests {
		if got := m.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("mask(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
	for _, v := range m.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("mask value %d is not binary", v)
		}
	}
}

func TestWrite(t *testing.T) {
	root := t.TempDir()
	pg := testPage()
	page := imaging.New(200, 100, image.White.C)

	a, err := Writer{Root: root}.Write(context.Background(), pg, page, "seg.png")
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(root, "seg")
	for _, name := range []string{
		"panels/0.png", "panels/1.png", "speech_bubbles/0.png",
		"panels_mask.png", "speech_bubbles_mask.png", "preview.png", AnnotationsFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "panels", "2.png")); err == nil {
		t.Error("hidden panel got a mask")
	}

	back, err := ReadAnnotations(filepath.Join(dir, AnnotationsFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Panels) != len(a.Panels) || back.Panels[0].BBox != a.Panels[0].BBox {
		t.Errorf("annotations did not round-trip: %+v", back)
	}

	union, err := imaging.Open(filepath.Join(dir, "panels_mask.png"))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := union.At(150, 50).RGBA(); r>>8 != 255 {
		t.Errorf("union mask misses the right panel")
	}
}

func TestWriteRejectsBadPages(t *testing.T) {
	w := Writer{Root: t.TempDir()}
	bad := panel.NewPage("../x", 10, 10, 1, panel.PageVertical)
	if _, err := w.Write(context.Background(), bad, nil, ""); errors.GetCode(err) != errors.ErrCodeInvalidMetadata {
		t.Errorf("bad name: code = %s", errors.GetCode(err))
	}
	empty := panel.NewPage("empty", 0, 10, 1, panel.PageVertical)
	if _, err := w.Write(context.Background(), empty, nil, ""); errors.GetCode(err) != errors.ErrCodeInvalidMetadata {
		t.Errorf("no size: code = %s", errors.GetCode(err))
	}
}

func TestReadAnnotationsMissing(t *testing.T) {
	_, err := ReadAnnotations(filepath.Join(t.TempDir(), "nope.json"))
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
