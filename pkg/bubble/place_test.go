package bubble

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/matzehuels/mangaforge/pkg/geom"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func squareRegion(x, y, size float64) Region {
	return Region{
		Coords: geom.Polygon{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}, {X: x, Y: y}},
		Width:  size,
		Height: size,
		Area:   size * size,
	}
}

func testCandidate() Candidate {
	return Candidate{
		Template: Template{
			Path:   "bubbles/round.png",
			Width:  400,
			Height: 300,
			Areas:  []WritingArea{{X: 50, Y: 40, Width: 300, Height: 200}},
		},
		Font:        "fonts/comic.ttf",
		Language:    English,
		Texts:       []Text{{English: "hello there general"}},
		TextIndices: []int{7},
	}
}

func testPlacer() *Placer {
	return NewPlacer(Config{PageWidth: 1600, PageHeight: 2400})
}

func TestPlaceFirstAttemptOnEmptyPanel(t *testing.T) {
	p := testPlacer()
	out := p.Place(newRNG(1), squareRegion(0, 0, 500), nil, testCandidate())
	if out.Dropped() {
		t.Fatal("bubble dropped on an empty panel")
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", out.Attempts)
	}

	b := out.Bubble
	area := float64(b.Width * b.Height)
	want := 0.48 * 500 * 500
	if math.Abs(area-want)/want > 0.01 {
		t.Errorf("bubble area = %v, want about %v", area, want)
	}
	// Aspect of the template is kept.
	if math.Abs(float64(b.Width)/float64(b.Height)-4.0/3.0) > 0.01 {
		t.Errorf("aspect = %d/%d, want 4/3", b.Width, b.Height)
	}
	if b.Location.X < 0 || b.Location.X > 250-15 || b.Location.Y < 0 || b.Location.Y > 250-15 {
		t.Errorf("location %v outside the sampled quadrant", b.Location)
	}
	if b.FontSize < DefaultFontSizeMin || b.FontSize >= DefaultFontSizeMax {
		t.Errorf("FontSize = %d, want in [%d, %d)", b.FontSize, DefaultFontSizeMin, DefaultFontSizeMax)
	}
	if b.Template != "bubbles/round.png" || b.Font != "fonts/comic.ttf" {
		t.Errorf("template/font not carried over: %+v", b)
	}
}

func TestPlaceRejectsIdenticalRect(t *testing.T) {
	p := NewPlacer(Config{PageWidth: 1600, PageHeight: 2400, MaxAttempts: 6})

	// A panel so small that the sampled location range collapses to its corner:
	// every attempt lands on the same rectangle.
	region := squareRegion(100, 100, 30)
	first := p.Place(newRNG(2), region, nil, testCandidate())
	if first.Dropped() {
		t.Fatal("first bubble should be accepted")
	}

	second := p.Place(newRNG(3), region, []*SpeechBubble{first.Bubble}, testCandidate())
	if !second.Dropped() {
		t.Fatalf("second bubble accepted at %v, want dropped", second.Bubble.Location)
	}
	if second.Attempts != 6 {
		t.Errorf("Attempts = %d, want the full budget of 6", second.Attempts)
	}
}

func TestPlaceRejectsOffPage(t *testing.T) {
	p := NewPlacer(Config{PageWidth: 600, PageHeight: 600})
	// Bubble area is 48% of a panel as large as the page, placed in its
	// lower-right corner: it can never fit.
	region := squareRegion(590, 590, 600)
	if out := p.Place(newRNG(4), region, nil, testCandidate()); !out.Dropped() {
		t.Errorf("bubble accepted at %v, want dropped", out.Bubble.Location)
	}
}

func TestPlaceNoWritingAreas(t *testing.T) {
	c := testCandidate()
	c.Template.Areas = nil
	out := testPlacer().Place(newRNG(5), squareRegion(0, 0, 500), nil, c)
	if !out.Dropped() || out.Attempts != 0 {
		t.Errorf("Place() = %+v, want an immediate drop", out)
	}
}

func TestPlaceDegenerateRegion(t *testing.T) {
	tests := []struct {
		name   string
		region Region
	}{
		{"zero area", Region{Coords: squareRegion(0, 0, 100).Coords, Width: 100, Height: 0, Area: 0}},
		{"negative width", Region{Coords: squareRegion(400, 2300, 100).Coords, Width: -36, Height: 2400, Area: -86400}},
		{"nan area", Region{Coords: squareRegion(0, 0, 100).Coords, Width: 100, Height: 100, Area: math.NaN()}},
		{"no coords", Region{Width: 100, Height: 100, Area: 10000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := testPlacer().Place(newRNG(9), tt.region, nil, testCandidate())
			if !out.Dropped() || out.Attempts != 0 {
				t.Errorf("Place() = %+v, want an immediate drop", out)
			}
		})
	}
}

func TestPlaceAllNoOverlap(t *testing.T) {
	p := testPlacer()
	rng := newRNG(6)
	st := &PageState{}
	page := geom.Rect{W: 1600, H: 2400}

	regions := []Region{
		squareRegion(0, 0, 800),
		squareRegion(800, 0, 800),
		squareRegion(0, 800, 800),
		squareRegion(800, 800, 800),
	}
	for _, r := range regions {
		p.PlaceAll(rng, r, st, []Candidate{testCandidate(), testCandidate()})
	}

	if len(st.Placed)+st.Dropped != 8 {
		t.Fatalf("placed %d + dropped %d, want 8 total", len(st.Placed), st.Dropped)
	}
	for i, a := range st.Placed {
		if a.Width <= 0 || a.Height <= 0 {
			t.Errorf("bubble %d has size %dx%d", i, a.Width, a.Height)
		}
		if !a.RenderedRect().Within(page) {
			t.Errorf("bubble %d at %+v leaves the page", i, a.RenderedRect())
		}
		for j, b := range st.Placed[i+1:] {
			if a.RenderedRect().Overlaps(b.RenderedRect()) {
				t.Errorf("bubbles %d and %d overlap", i, i+1+j)
			}
		}
	}
}

func TestTransformsSampling(t *testing.T) {
	p := testPlacer()
	rng := newRNG(7)
	for i := 0; i < 200; i++ {
		out := p.Place(rng, squareRegion(0, 0, 500), nil, testCandidate())
		b := out.Bubble
		if n := len(b.Transforms); n != 0 && n != 2 && n != 3 {
			t.Fatalf("got %d transforms: %v", n, b.Transforms)
		}
		if b.Has(Rotate) {
			r := b.TransformMetadata[MetaRotation]
			if r < 10 || r >= 30 {
				t.Errorf("rotation_amount = %v, want in [10, 30)", r)
			}
		}
		if b.Has(StretchX) && b.TransformMetadata[MetaStretchX] >= 0.3 {
			t.Errorf("stretch_x_factor = %v, want < 0.3", b.TransformMetadata[MetaStretchX])
		}
		if b.TextOrientation != TopToBottom && b.TextOrientation != LeftToRight {
			t.Errorf("TextOrientation = %q", b.TextOrientation)
		}
	}
}

func TestRecase(t *testing.T) {
	rng := newRNG(8)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := recase(rng, Text{English: "hELLO world"})[English]
		switch got {
		case "HELLO WORLD", "hello world", "Hello world":
			seen[got] = true
		default:
			t.Fatalf("unexpected casing %q", got)
		}
	}
	if len(seen) != 3 {
		t.Errorf("saw casings %v, want all three", seen)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"a":           "A",
		"ÉCOLE DAY":   "École day",
		"already Up":  "Already up",
		"こんにちは": "こんにちは",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextFor(t *testing.T) {
	b := &SpeechBubble{
		Language: Japanese,
		Texts:    []Text{{English: "hi", Japanese: "やあ"}, {English: "bye"}},
	}
	if got := b.TextFor(0); got != "やあ" {
		t.Errorf("TextFor(0) = %q", got)
	}
	if got := b.TextFor(1); got != "bye" {
		t.Errorf("TextFor(1) = %q, want english fallback", got)
	}
	if got := b.TextFor(5); !strings.Contains(got, "やあ") {
		t.Errorf("TextFor(5) = %q, want first text", got)
	}
}

func TestWritingAreaInner(t *testing.T) {
	r, ok := WritingArea{X: 10, Y: 20, Width: 100, Height: 50}.Inner(24)
	if !ok {
		t.Fatal("Inner() reported empty")
	}
	if r.Min.X != 34 || r.Min.Y != 44 || r.Dx() != 76 || r.Dy() != 26 {
		t.Errorf("Inner() = %v", r)
	}
	if _, ok := (WritingArea{Width: 20, Height: 100}).Inner(24); ok {
		t.Error("Inner() on a narrow area should be empty")
	}
}
