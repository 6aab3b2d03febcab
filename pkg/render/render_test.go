package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// writeImage writes a w x h PNG filled with fill and a border of the given
// color and width.
func writeImage(t *testing.T, path string, w, h int, fill, border color.Color, bw int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := fill
			if x < bw || y < bw || x >= w-bw || y >= h-bw {
				c = border
			}
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func grayAt(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func near(a, b uint8, tol int) bool {
	return math.Abs(float64(a)-float64(b)) <= float64(tol)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BoundaryWidth = 4
	return cfg
}

func singlePanelPage(t *testing.T, dir string) *panel.Page {
	t.Helper()
	pg := panel.NewPage("p", 200, 300, 1, panel.PageVertical)
	gray := color.Gray{Y: 128}
	pg.Image = writeImage(t, filepath.Join(dir, "illustration.png"), 200, 300, gray, color.Black, 10)
	return pg
}

func TestContentBounds(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want image.Rectangle
	}{
		{
			name: "black border",
			img: func() image.Image {
				img := image.NewGray(image.Rect(0, 0, 100, 80))
				for y := 20; y < 50; y++ {
					for x := 10; x < 30; x++ {
						img.SetGray(x, y, color.Gray{Y: 200})
					}
				}
				return img
			}(),
			want: image.Rect(10, 20, 30, 50),
		},
		{
			name: "uniform",
			img:  image.NewGray(image.Rect(0, 0, 40, 30)),
			want: image.Rect(0, 0, 40, 30),
		},
		{
			name: "noise below tolerance",
			img: func() image.Image {
				img := image.NewGray(image.Rect(0, 0, 40, 30))
				img.SetGray(5, 5, color.Gray{Y: 6})
				img.SetGray(20, 10, color.Gray{Y: 90})
				return img
			}(),
			want: image.Rect(20, 10, 21, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentBounds(tt.img, DefaultCropTolerance); got != tt.want {
				t.Errorf("ContentBounds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  []string
	}{
		{"hello world", 16, []string{"hello world"}},
		{"the quick brown fox jumps", 16, []string{"the quick brown", "fox jumps"}},
		{"abcdefghijklmnopqrstu", 16, []string{"abcdefghijklmnop", "qrstu"}},
		{"こんにちはこんにちは", 4, []string{"こんにち", "はこんに", "ちは"}},
		{"   ", 16, nil},
		{"a b", 0, []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := wrapText(tt.in, tt.width); !slices.Equal(got, tt.want) {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestRenderSinglePanel(t *testing.T) {
	dir := t.TempDir()
	pg := singlePanelPage(t, dir)

	img, err := NewComposer(testConfig()).Render(context.Background(), pg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Errorf("Render() returned %T, want *image.Gray", img)
	}
	if got := img.Bounds().Size(); got != image.Pt(200, 300) {
		t.Fatalf("size = %v, want 200x300", got)
	}
	if v := grayAt(img, 100, 150); !near(v, 128, 2) {
		t.Errorf("illustration pixel = %d, want ~128 (border cropped away)", v)
	}
	if v := grayAt(img, 0, 150); v > 8 {
		t.Errorf("outline pixel = %d, want black", v)
	}
}

func TestRenderSkipsHiddenPanels(t *testing.T) {
	dir := t.TempDir()
	pg := singlePanelPage(t, dir)
	pg.NoRender = true

	img, err := NewComposer(testConfig()).Render(context.Background(), pg)
	if err != nil {
		t.Fatal(err)
	}
	if v := grayAt(img, 100, 150); v != 255 {
		t.Errorf("hidden panel pixel = %d, want white", v)
	}
}

func TestRenderBubbles(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeImage(t, filepath.Join(dir, "bubble.png"), 100, 80, color.White, color.White, 0)

	tests := []struct {
		name       string
		transforms []bubble.Transform
		want       uint8
	}{
		{"plain", nil, 255},
		{"inverted", []bubble.Transform{bubble.Invert}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := singlePanelPage(t, dir)
			pg.SpeechBubbles = []*bubble.SpeechBubble{{
				Template:          tmpl,
				Location:          image.Pt(20, 20),
				Width:             50,
				Height:            40,
				Transforms:        tt.transforms,
				TransformMetadata: map[string]float64{},
			}}
			img, err := NewComposer(testConfig()).Render(context.Background(), pg)
			if err != nil {
				t.Fatal(err)
			}
			if v := grayAt(img, 45, 40); !near(v, tt.want, 2) {
				t.Errorf("bubble pixel = %d, want %d", v, tt.want)
			}
			if v := grayAt(img, 100, 150); !near(v, 128, 2) {
				t.Errorf("pixel outside the bubble = %d, want ~128", v)
			}
		})
	}
}

func TestRenderBubbleText(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeImage(t, filepath.Join(dir, "bubble.png"), 100, 80, color.White, color.White, 0)
	b := &bubble.SpeechBubble{
		Texts:             []bubble.Text{{bubble.English: "HELLO WORLD"}},
		Language:          bubble.English,
		Template:          tmpl,
		WritingAreas:      []bubble.WritingArea{{X: 0, Y: 0, Width: 100, Height: 80}},
		Width:             100,
		Height:            80,
		TransformMetadata: map[string]float64{},
	}

	img, err := NewComposer(testConfig()).renderBubble(b)
	if err != nil {
		t.Fatal(err)
	}
	dark := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if grayAt(img, x, y) < 128 {
				dark++
				if x < 24 || y < 24 {
					t.Fatalf("text drawn at (%d, %d), outside the padded box", x, y)
				}
			}
		}
	}
	if dark == 0 {
		t.Error("no text was drawn")
	}
}

func TestRenderBubbleTransforms(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeImage(t, filepath.Join(dir, "bubble.png"), 100, 80, color.White, color.Black, 2)
	c := NewComposer(testConfig())

	tests := []struct {
		name       string
		transforms []bubble.Transform
		meta       map[string]float64
	}{
		{"flips", []bubble.Transform{bubble.FlipHorizontal, bubble.FlipVertical}, nil},
		{"stretch x", []bubble.Transform{bubble.StretchX}, map[string]float64{bubble.MetaStretchX: 0.25}},
		{"stretch y", []bubble.Transform{bubble.StretchY}, map[string]float64{bubble.MetaStretchY: 0.1}},
		{"rotate", []bubble.Transform{bubble.Rotate}, map[string]float64{bubble.MetaRotation: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &bubble.SpeechBubble{
				Template:          tmpl,
				Width:             60,
				Height:            48,
				Transforms:        tt.transforms,
				TransformMetadata: tt.meta,
			}
			img, err := c.renderBubble(b)
			if err != nil {
				t.Fatal(err)
			}
			want := b.RenderedRect()
			got := img.Bounds().Size()
			if math.Abs(float64(got.X)-want.W) > 1 || math.Abs(float64(got.Y)-want.H) > 1 {
				t.Errorf("size = %v, want about %vx%v", got, want.W, want.H)
			}
		})
	}
}

func TestBubbleShape(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeImage(t, filepath.Join(dir, "bubble.png"), 100, 80, color.White, color.Black, 2)
	c := NewComposer(testConfig())
	b := &bubble.SpeechBubble{
		Template:          tmpl,
		Width:             60,
		Height:            48,
		Transforms:        []bubble.Transform{bubble.Rotate},
		TransformMetadata: map[string]float64{bubble.MetaRotation: 30},
	}

	shape, err := c.BubbleShape(b)
	if err != nil {
		t.Fatal(err)
	}
	drawn, err := c.renderBubble(b)
	if err != nil {
		t.Fatal(err)
	}
	if shape.Bounds() != drawn.Bounds() {
		t.Errorf("shape bounds = %v, drawn bounds = %v", shape.Bounds(), drawn.Bounds())
	}
	if _, _, _, a := shape.At(0, 0).RGBA(); a != 0 {
		t.Errorf("rotated corner alpha = %d, want transparent", a)
	}
	mid := shape.Bounds().Size().Div(2)
	if g := grayAt(shape, mid.X, mid.Y); g < 200 {
		t.Errorf("shape centre gray = %d, want the template fill", g)
	}

	b.Template = filepath.Join(dir, "missing.png")
	if _, err := c.BubbleShape(b); err == nil {
		t.Error("missing template gave a shape")
	}
}

func TestRenderMissingAsset(t *testing.T) {
	pg := panel.NewPage("p", 200, 300, 1, panel.PageVertical)
	pg.Image = filepath.Join(t.TempDir(), "missing.png")

	_, err := NewComposer(testConfig()).Render(context.Background(), pg)
	var ae *errors.AssetError
	if !stderrors.As(err, &ae) || ae.Asset != pg.Image {
		t.Errorf("Render() error = %v, want an asset error for %s", err, pg.Image)
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pg := singlePanelPage(t, t.TempDir())
	if _, err := NewComposer(testConfig()).Render(ctx, pg); err != context.Canceled {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRenderColor(t *testing.T) {
	dir := t.TempDir()
	pg := singlePanelPage(t, dir)
	colorDir := filepath.Join(dir, "color")
	if err := os.Mkdir(colorDir, 0o755); err != nil {
		t.Fatal(err)
	}
	red := color.NRGBA{R: 220, A: 255}
	writeImage(t, filepath.Join(colorDir, "illustration.png"), 200, 300, red, color.Black, 10)

	if _, err := NewComposer(testConfig()).RenderColor(context.Background(), pg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("RenderColor() without a color dir = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}

	img, err := NewComposer(testConfig(), WithColorDir(colorDir)).RenderColor(context.Background(), pg)
	if err != nil {
		t.Fatal(err)
	}
	r, g, _, _ := img.At(100, 150).RGBA()
	if r>>8 < 200 || g>>8 > 20 {
		t.Errorf("color pixel = %v, want red", img.At(100, 150))
	}
}

func TestEncode(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	for _, format := range []Format{FormatPNG, FormatJPEG} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, format, 0); err != nil {
			t.Fatalf("Encode(%s) = %v", format, err)
		}
		cfg, name, err := image.DecodeConfig(&buf)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		if name != string(format) || cfg.Width != 16 || cfg.Height != 8 {
			t.Errorf("%s: decoded %s %dx%d", format, name, cfg.Width, cfg.Height)
		}
	}
	if err := Encode(&bytes.Buffer{}, img, "gif", 0); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Encode(gif) = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative boundary", func(c *Config) { c.BoundaryWidth = -1 }},
		{"zero wrap width", func(c *Config) { c.WrapWidth = 0 }},
		{"font range", func(c *Config) { c.FontSizeMin, c.FontSizeMax = 50, 40 }},
		{"fit mode", func(c *Config) { c.Fit = "stretch" }},
		{"format", func(c *Config) { c.Format = "gif" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
