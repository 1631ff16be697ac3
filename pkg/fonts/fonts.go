// Package fonts provides the typefaces used by the compositor.
//
// The Go fonts are embedded in golang.org/x/image, so rendering needs no
// system fonts. Parsed fonts are shared; faces are not safe for concurrent
// use, so callers create their own through [Cache].
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Weight selects a typeface.
type Weight int

const (
	Regular Weight = iota
	Bold
	Italic
)

// FontFamily is the family name reported in document metadata.
const FontFamily = "Go"

var (
	parsed     [3]*truetype.Font
	parseErr   error
	parsedOnce sync.Once
)

func load() {
	for i, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF} {
		f, err := truetype.Parse(ttf)
		if err != nil {
			parseErr = fmt.Errorf("parse font %d: %w", i, err)
			return
		}
		parsed[i] = f
	}
}

// Font returns the parsed font for w.
func Font(w Weight) (*truetype.Font, error) {
	parsedOnce.Do(load)
	if parseErr != nil {
		return nil, parseErr
	}
	if w < Regular || w > Italic {
		w = Regular
	}
	return parsed[w], nil
}

// Cache hands out faces by weight and size. A Cache must not be shared
// between goroutines.
type Cache struct {
	faces map[faceKey]font.Face
}

type faceKey struct {
	w    Weight
	size float64
}

// NewCache returns an empty face cache.
func NewCache() *Cache {
	return &Cache{faces: map[faceKey]font.Face{}}
}

// Face returns a face for w at size points (72 DPI, so points are pixels).
func (c *Cache) Face(w Weight, size float64) (font.Face, error) {
	key := faceKey{w, size}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	ft, err := Font(w)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ft, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	c.faces[key] = face
	return face, nil
}

// Close releases every face.
func (c *Cache) Close() {
	for k, f := range c.faces {
		f.Close()
		delete(c.faces, k)
	}
}
