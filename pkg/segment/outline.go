package segment

import (
	"image"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/geom"
)

// ShapeThreshold is the gray level above which a template pixel belongs to
// the bubble.
const ShapeThreshold = 100

// ShapeSource supplies a speech bubble's template as drawn on the page:
// sized, flipped and rotated, with its top-left corner at the bubble's
// location. *render.Composer implements it.
type ShapeSource interface {
	BubbleShape(b *bubble.SpeechBubble) (image.Image, error)
}

// moore lists the 8-neighbourhood clockwise on screen, starting west.
var moore = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

// Outline traces the outer boundary of the largest 8-connected region of
// img whose gray level, composited over black, is above threshold. The
// ring passes through pixel centres, in img's coordinates, with the points
// inside straight runs dropped. ok is false when no region has an outline
// of at least three points.
func Outline(img image.Image, threshold uint8) (geom.Polygon, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, false
	}
	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000 >> 8
			fg[y*w+x] = lum > uint32(threshold)
		}
	}

	start, ok := largestRegion(fg, w, h)
	if !ok {
		return nil, false
	}
	ring := compress(traceBoundary(fg, w, h, start))
	if len(ring) < 3 {
		return nil, false
	}
	for i := range ring {
		ring[i] = ring[i].Add(geom.Pt(float64(b.Min.X), float64(b.Min.Y)))
	}
	return ring.Closed(), true
}

// largestRegion returns the first pixel, in raster order, of the largest
// 8-connected foreground region.
func largestRegion(fg []bool, w, h int) (int, bool) {
	seen := make([]bool, len(fg))
	best, bestSize := -1, 0
	var stack []int
	for i, on := range fg {
		if !on || seen[i] {
			continue
		}
		seen[i] = true
		stack = append(stack[:0], i)
		size := 0
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			px, py := p%w, p/w
			for _, d := range moore {
				nx, ny := px+d.X, py+d.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if n := ny*w + nx; fg[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		if size > bestSize {
			best, bestSize = i, size
		}
	}
	return best, best >= 0
}

// traceBoundary walks the region's outer boundary clockwise with Moore
// neighbour tracing. start must be the region's first pixel in raster
// order, so its west neighbour is background. The walk stops when it is
// about to repeat its first step.
func traceBoundary(fg []bool, w, h, start int) []image.Point {
	on := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h && fg[p.Y*w+p.X]
	}
	dirOf := func(from, to image.Point) int {
		d := to.Sub(from)
		for i, m := range moore {
			if m == d {
				return i
			}
		}
		return 0
	}

	s := image.Pt(start%w, start/w)
	out := []image.Point{s}
	c, back := s, 0
	var second image.Point
	for step := 0; step < 4*w*h+8; step++ {
		found := false
		var n, prev image.Point
		for i := 1; i <= 8; i++ {
			k := (back + i) % 8
			if cand := c.Add(moore[k]); on(cand) {
				n, prev = cand, c.Add(moore[(k+7)%8])
				found = true
				break
			}
		}
		if !found {
			break
		}
		if step == 0 {
			second = n
		} else if c == s && n == second {
			break
		}
		out = append(out, n)
		back = dirOf(n, prev)
		c = n
	}
	if len(out) > 1 && out[len(out)-1] == s {
		out = out[:len(out)-1]
	}
	return out
}

// compress drops every point that continues the step before it.
func compress(ring []image.Point) geom.Polygon {
	n := len(ring)
	out := make(geom.Polygon, 0, n)
	for i, p := range ring {
		prev, next := ring[(i+n-1)%n], ring[(i+1)%n]
		if n > 2 && p.Sub(prev) == next.Sub(p) {
			continue
		}
		out = append(out, geom.Pt(float64(p.X), float64(p.Y)))
	}
	return out
}

// bubbleOutline returns the outline of b in page coordinates. Without a
// shape source, or when the shape has no region, it is the rectangle the
// rendered bubble covers.
func bubbleOutline(shapes ShapeSource, b *bubble.SpeechBubble) (geom.Polygon, error) {
	if shapes != nil {
		img, err := shapes.BubbleShape(b)
		if err != nil {
			return nil, err
		}
		if ring, ok := Outline(img, ShapeThreshold); ok {
			off := geom.Pt(float64(b.Location.X), float64(b.Location.Y))
			for i := range ring {
				ring[i] = ring[i].Add(off)
			}
			return ring, nil
		}
	}
	return rectRing(b.RenderedRect()), nil
}
