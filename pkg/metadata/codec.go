package metadata

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/geom"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

// FromPage converts a page tree into its document.
func FromPage(pg *panel.Page) Page {
	return Page{
		SchemaVersion: SchemaVersion,
		Panel:         fromPanel(pg.Root()),
		NumPanels:     pg.NumPanels,
		PageType:      string(pg.PageType),
		PageSize:      []float64{pg.PageWidth, pg.PageHeight},
		Background:    optional(pg.Background),
	}
}

func fromPanel(p *panel.Panel) Panel {
	doc := Panel{
		Name:          p.Name,
		Coordinates:   make([][]float64, len(p.Coords)),
		Orientation:   string(p.Orientation),
		NonRect:       p.NonRect,
		Sliced:        p.Sliced,
		NoRender:      p.NoRender,
		Image:         optional(p.Image),
		Children:      make([]Panel, 0, len(p.Children)),
		SpeechBubbles: make([]Bubble, 0, len(p.SpeechBubbles)),
	}
	for i, v := range p.Coords {
		doc.Coordinates[i] = []float64{v.X, v.Y}
	}
	for _, c := range p.Children {
		doc.Children = append(doc.Children, fromPanel(c))
	}
	for _, b := range p.SpeechBubbles {
		doc.SpeechBubbles = append(doc.SpeechBubbles, fromBubble(b))
	}
	return doc
}

func fromBubble(b *bubble.SpeechBubble) Bubble {
	doc := Bubble{
		Texts:             make([]map[string]string, len(b.Texts)),
		TextIndices:       append([]int{}, b.TextIndices...),
		Language:          b.Language,
		Font:              b.Font,
		FontSize:          b.FontSize,
		SpeechBubble:      b.Template,
		WritingAreas:      append([]bubble.WritingArea{}, b.WritingAreas...),
		Location:          []int{b.Location.X, b.Location.Y},
		Width:             b.Width,
		Height:            b.Height,
		Transforms:        make([]string, len(b.Transforms)),
		TransformMetadata: make(map[string]float64, len(b.TransformMetadata)),
		TextOrientation:   string(b.TextOrientation),
	}
	for i, t := range b.Texts {
		doc.Texts[i] = t.Clone()
	}
	for i, t := range b.Transforms {
		doc.Transforms[i] = string(t)
	}
	for k, v := range b.TransformMetadata {
		doc.TransformMetadata[k] = v
	}
	return doc
}

// ToPage rebuilds the page tree described by doc. Call [Page.Validate]
// first for untrusted input.
func ToPage(doc Page) *panel.Page {
	var w, h float64
	if len(doc.PageSize) == 2 {
		w, h = doc.PageSize[0], doc.PageSize[1]
	}
	pg := panel.NewPage(doc.Name, w, h, doc.NumPanels, panel.PageType(doc.PageType))
	fillPanel(pg.Root(), doc.Panel)
	pg.Background = deref(doc.Background)
	pg.InvalidateLeaves()
	return pg
}

func fillPanel(p *panel.Panel, doc Panel) {
	p.Name = doc.Name
	p.Coords = make(geom.Polygon, len(doc.Coordinates))
	for i, c := range doc.Coordinates {
		if len(c) == 2 {
			p.Coords[i] = geom.Pt(c[0], c[1])
		}
	}
	p.Orientation = panel.Orientation(doc.Orientation)
	p.NonRect = doc.NonRect
	p.Sliced = doc.Sliced
	p.NoRender = doc.NoRender
	p.Image = deref(doc.Image)
	for _, b := range doc.SpeechBubbles {
		p.SpeechBubbles = append(p.SpeechBubbles, toBubble(b))
	}
	for _, cd := range doc.Children {
		c := &panel.Panel{}
		fillPanel(c, cd)
		p.Attach(c)
	}
}

func toBubble(doc Bubble) *bubble.SpeechBubble {
	b := &bubble.SpeechBubble{
		Texts:             make([]bubble.Text, len(doc.Texts)),
		TextIndices:       doc.TextIndices,
		Language:          doc.Language,
		Font:              doc.Font,
		FontSize:          doc.FontSize,
		Template:          doc.SpeechBubble,
		WritingAreas:      doc.WritingAreas,
		Width:             doc.Width,
		Height:            doc.Height,
		Transforms:        make([]bubble.Transform, len(doc.Transforms)),
		TransformMetadata: doc.TransformMetadata,
		TextOrientation:   bubble.TextOrientation(doc.TextOrientation),
	}
	if b.TransformMetadata == nil {
		b.TransformMetadata = map[string]float64{}
	}
	for i, t := range doc.Texts {
		b.Texts[i] = bubble.Text(t)
	}
	for i, t := range doc.Transforms {
		b.Transforms[i] = bubble.Transform(t)
	}
	if len(doc.Location) == 2 {
		b.Location = image.Pt(doc.Location[0], doc.Location[1])
	}
	return b
}

// Validate checks the schema version, names and coordinate rings.
func (d Page) Validate() error {
	if d.SchemaVersion != SchemaVersion {
		return errors.New(errors.ErrCodeInvalidMetadata, "unsupported schema version %d (want %d)", d.SchemaVersion, SchemaVersion)
	}
	if err := errors.ValidatePageName(d.Name); err != nil {
		return err
	}
	if len(d.PageSize) != 2 || d.PageSize[0] <= 0 || d.PageSize[1] <= 0 {
		return errors.New(errors.ErrCodeInvalidMetadata, "page %s: page_size must be two positive numbers", d.Name)
	}
	seen := make(map[string]bool)
	return validatePanel(d.Panel, seen)
}

func validatePanel(p Panel, seen map[string]bool) error {
	if p.Name == "" {
		return errors.New(errors.ErrCodeInvalidMetadata, "panel with empty name")
	}
	if seen[p.Name] {
		return errors.New(errors.ErrCodeInvalidMetadata, "duplicate panel name %q", p.Name)
	}
	seen[p.Name] = true
	if len(p.Coordinates) < 4 {
		return errors.New(errors.ErrCodeInvalidMetadata, "panel %s: ring has %d points, need at least 4", p.Name, len(p.Coordinates))
	}
	for i, c := range p.Coordinates {
		if len(c) != 2 {
			return errors.New(errors.ErrCodeInvalidMetadata, "panel %s: point %d has %d values", p.Name, i, len(c))
		}
	}
	for _, c := range p.Children {
		if err := validatePanel(c, seen); err != nil {
			return err
		}
	}
	return nil
}

// Marshal encodes doc. JSON output is indented.
func Marshal(doc Page, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(doc, "", "  ")
	case FormatBSON:
		return bson.Marshal(doc)
	}
	return nil, errors.ValidateFormat("metadata format", string(format), Formats...)
}

// Unmarshal decodes and validates a document.
func Unmarshal(data []byte, format Format) (Page, error) {
	var doc Page
	var err error
	switch format {
	case FormatJSON, "":
		err = json.Unmarshal(data, &doc)
	case FormatBSON:
		err = bson.Unmarshal(data, &doc)
	default:
		return Page{}, errors.ValidateFormat("metadata format", string(format), Formats...)
	}
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "unmarshal %s metadata", format)
	}
	if err := doc.Validate(); err != nil {
		return Page{}, err
	}
	return doc, nil
}

// FormatForPath picks the format from the file extension, defaulting to
// JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bson") {
		return FormatBSON
	}
	return FormatJSON
}

// FileName returns the metadata file name of a page.
func FileName(name string, format Format) string {
	if format == "" {
		format = FormatJSON
	}
	return name + "." + string(format)
}

// WriteFile encodes doc in the format given by the extension of path.
func WriteFile(doc Page, path string) error {
	data, err := Marshal(doc, FormatForPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile decodes the document at path.
func ReadFile(path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Page{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return Page{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Unmarshal(data, FormatForPath(path))
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadPage reads the document at path and rebuilds its page.
func ReadPage(path string) (*panel.Page, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ToPage(doc), nil
}

// ListFiles returns the metadata files directly inside dir, sorted.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".bson":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
