// Package fonts loads the font faces used to letter speech bubbles.
//
// Parsed fonts are kept in an in-process cache keyed by path, so a batch
// that letters thousands of bubbles parses each font file once. Faces are
// created per use because an opentype face is not safe for concurrent use.
package fonts

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Cache lifetimes for parsed fonts.
const (
	defaultExpiration = 30 * time.Minute
	cleanupInterval   = 1 * time.Hour
)

var (
	defaultFont     *opentype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// Default returns the built-in Go Regular font, used when a bubble names no
// font or its font cannot be read.
func Default() (*opentype.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = opentype.Parse(goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

// Loader parses font files and caches the results.
type Loader struct {
	cache *cache.Cache
}

// NewLoader creates a Loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{cache: cache.New(defaultExpiration, cleanupInterval)}
}

// Load returns the parsed font at path. An empty path yields [Default].
func (l *Loader) Load(path string) (*opentype.Font, error) {
	if path == "" {
		return Default()
	}
	if f, ok := l.cache.Get(path); ok {
		return f.(*opentype.Font), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	l.cache.Set(path, f, cache.DefaultExpiration)
	return f, nil
}

// Face creates a face of f at size pixels.
func Face(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Len returns the number of cached fonts.
func (l *Loader) Len() int { return l.cache.ItemCount() }
