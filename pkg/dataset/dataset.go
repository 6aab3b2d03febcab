// Package dataset loads the input lists a batch of pages draws from.
//
// Inputs are plain files prepared ahead of time: image lists (or an image
// directory), a fonts CSV, a text corpus TSV, a bubble template list and a
// writing-areas CSV. [Load] reads them once into an [Inputs] value; [Pools]
// then pre-samples per-page assignments as indices so concurrent workers
// share nothing but read-only slices.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/mangaforge/pkg/bubble"
	"github.com/matzehuels/mangaforge/pkg/errors"
)

// ImageExtensions lists the file extensions collected by a directory walk.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}

// Font is one row of the fonts CSV.
type Font struct {
	Path     string
	English  bool
	Japanese bool
}

// Supports reports whether the font covers lang.
func (f Font) Supports(lang string) bool {
	switch lang {
	case bubble.English:
		return f.English
	case bubble.Japanese:
		return f.Japanese
	}
	return false
}

// Sources names the input files of a batch. Empty paths load nothing.
type Sources struct {
	Images       string `toml:"images" json:"images"`
	Backgrounds  string `toml:"backgrounds" json:"backgrounds"`
	Fonts        string `toml:"fonts" json:"fonts"`
	Texts        string `toml:"texts" json:"texts"`
	Bubbles      string `toml:"bubbles" json:"bubbles"`
	WritingAreas string `toml:"writing_areas" json:"writing_areas"`
}

// Inputs is the loaded, read-only dataset of a batch.
type Inputs struct {
	Images      []string
	Backgrounds []string
	Fonts       []string // fonts supporting Language
	Texts       []bubble.Text
	Templates   []bubble.Template
	Language    string

	// Skipped lists templates whose size could not be read.
	Skipped []string
}

// Load reads every source in src. Only fonts supporting lang are kept, and
// only templates with at least one writing area wider and taller than
// padding.
func Load(src Sources, lang string, padding int) (*Inputs, error) {
	in := &Inputs{Language: lang}
	var err error

	if src.Images != "" {
		if in.Images, err = LoadImages(src.Images); err != nil {
			return nil, fmt.Errorf("images: %w", err)
		}
	}
	if src.Backgrounds != "" {
		if in.Backgrounds, err = LoadImages(src.Backgrounds); err != nil {
			return nil, fmt.Errorf("backgrounds: %w", err)
		}
	}
	if src.Fonts != "" {
		fonts, err := LoadFonts(src.Fonts)
		if err != nil {
			return nil, fmt.Errorf("fonts: %w", err)
		}
		for _, f := range fonts {
			if f.Supports(lang) {
				in.Fonts = append(in.Fonts, f.Path)
			}
		}
	}
	if src.Texts != "" {
		if in.Texts, err = LoadTexts(src.Texts); err != nil {
			return nil, fmt.Errorf("texts: %w", err)
		}
	}
	if src.WritingAreas != "" {
		areas, err := LoadWritingAreas(src.WritingAreas, padding)
		if err != nil {
			return nil, fmt.Errorf("writing areas: %w", err)
		}
		var paths []string
		if src.Bubbles != "" {
			if paths, err = LoadList(src.Bubbles); err != nil {
				return nil, fmt.Errorf("bubbles: %w", err)
			}
		} else {
			for p := range areas {
				paths = append(paths, p)
			}
			slices.Sort(paths)
		}
		in.Templates, in.Skipped = buildTemplates(paths, areas)
	}
	return in, nil
}

func buildTemplates(paths []string, areas map[string][]bubble.WritingArea) ([]bubble.Template, []string) {
	var out []bubble.Template
	var skipped []string
	for _, p := range paths {
		as := areas[p]
		if len(as) == 0 {
			continue
		}
		w, h, err := TemplateSize(p)
		if err != nil {
			skipped = append(skipped, p)
			continue
		}
		out = append(out, bubble.Template{Path: p, Width: w, Height: h, Areas: as})
	}
	return out, skipped
}

// LoadImages returns the image paths named by path: the image files under
// it when it is a directory, otherwise the paths listed in the file.
func LoadImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	if !info.IsDir() {
		return LoadList(path)
	}
	var out []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImage(p) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return out, nil
}

// IsImage reports whether path has one of [ImageExtensions].
func IsImage(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// LoadList reads one path per line. Blank lines and lines starting with #
// are skipped.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer f.Close()
	return ReadList(f)
}

// ReadList is [LoadList] over a reader.
func ReadList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return out, nil
}

// LoadFonts reads a fonts CSV with columns path, english, japanese. The
// header row is optional.
func LoadFonts(path string) ([]Font, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer f.Close()
	return ReadFonts(f)
}

// ReadFonts is [LoadFonts] over a reader.
func ReadFonts(r io.Reader) ([]Font, error) {
	rows, err := readCSV(r, ',')
	if err != nil {
		return nil, err
	}
	var out []Font
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "path") {
			continue
		}
		if len(row) < 3 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "fonts row %d: want 3 columns, got %d", i+1, len(row))
		}
		en, err := parseBool(row[1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "fonts row %d", i+1)
		}
		ja, err := parseBool(row[2])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "fonts row %d", i+1)
		}
		out = append(out, Font{Path: row[0], English: en, Japanese: ja})
	}
	return out, nil
}

// LoadTexts reads a tab-separated corpus whose header names the language
// of each column.
func LoadTexts(path string) ([]bubble.Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer f.Close()
	return ReadTexts(f)
}

// ReadTexts is [LoadTexts] over a reader.
func ReadTexts(r io.Reader) ([]bubble.Text, error) {
	rows, err := readCSV(r, '\t')
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	out := make([]bubble.Text, 0, len(rows)-1)
	for _, row := range rows[1:] {
		t := make(bubble.Text, len(header))
		for i, lang := range header {
			if i < len(row) {
				t[lang] = row[i]
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadWritingAreas reads a CSV of path, x, y, width, height rows and groups
// the areas by template path. Areas not wider and taller than padding are
// dropped.
func LoadWritingAreas(path string, padding int) (map[string][]bubble.WritingArea, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer f.Close()
	return ReadWritingAreas(f, padding)
}

// ReadWritingAreas is [LoadWritingAreas] over a reader.
func ReadWritingAreas(r io.Reader, padding int) (map[string][]bubble.WritingArea, error) {
	rows, err := readCSV(r, ',')
	if err != nil {
		return nil, err
	}
	out := make(map[string][]bubble.WritingArea)
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "path") {
			continue
		}
		if len(row) < 5 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "writing areas row %d: want 5 columns, got %d", i+1, len(row))
		}
		var v [4]int
		for j := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "writing areas row %d", i+1)
			}
			v[j] = int(f)
		}
		a := bubble.WritingArea{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
		if a.Width <= padding || a.Height <= padding {
			continue
		}
		out[row[0]] = append(out[row[0]], a)
	}
	return out, nil
}

// TemplateSize reads the pixel size of an image without decoding it.
func TemplateSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, notFound(path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeAssetUnreadable, err, "decode %s", path)
	}
	return cfg.Width, cfg.Height, nil
}

func readCSV(r io.Reader, sep rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse")
	}
	return rows, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "", "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func notFound(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}
