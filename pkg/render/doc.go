// Package render rasterizes generated pages.
//
// # Overview
//
// A [Composer] turns a page tree into an image: it paints the background,
// pastes each leaf panel's illustration through a polygon mask, outlines
// every panel and finally letters and pastes the speech bubbles. Output is
// grayscale by default; [Composer.RenderColor] keeps color and takes the
// illustrations from a parallel directory of colored images.
//
//	c := render.NewComposer(render.DefaultConfig())
//	img, err := c.Render(ctx, page)
//	if err != nil {
//	    return err
//	}
//	err = render.Encode(w, img, render.FormatPNG, 0)
//
// # Illustrations
//
// Illustrations are auto-cropped (uniform borders removed) and then fitted
// either to the whole page ([FitPage], the default) so each panel shows its
// own part of one picture, or to the panel's bounding box ([FitPanel]).
//
// # Panel Tree Diagrams
//
// The [treeviz] subpackage renders the panel hierarchy itself as a Graphviz
// diagram for debugging layouts.
//
// [treeviz]: github.com/matzehuels/mangaforge/pkg/render/treeviz
package render
