// Package glyph turns font glyphs into alpha-mask pixel images ready for
// atlas insertion. It is the pixel producer behind a glyph cache: the
// cache key identifies a glyph, and Rasterize supplies the pixels on a
// cache miss.
package glyph

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/opentype"
)

// Source is a parsed font. The same data is parsed twice: with
// go-text/typesetting for character-to-glyph mapping and identity, and
// with x/image opentype for rasterization.
type Source struct {
	meta *font.Font
	ot   *opentype.Font
}

// NewSource parses TTF/OTF font data.
func NewSource(data []byte) (*Source, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	return &Source{meta: face.Font, ot: otf}, nil
}

// GID returns the glyph index for a rune, or false if the font has no
// glyph for it.
func (s *Source) GID(r rune) (font.GID, bool) {
	return s.meta.NominalGlyph(r)
}

// Upem returns the font's units per em.
func (s *Source) Upem() uint16 {
	return uint16(s.meta.Upem())
}

// Key identifies a rasterized glyph for caching: the font, the glyph
// index, and the pixel size. Sources are compared by identity, so a Key
// is valid for as long as the caller keeps the Source alive.
type Key struct {
	Source *Source
	GID    font.GID
	PPEM   int16
}

// Key builds the cache key for rendering r at the given pixel size.
// Returns false if the font has no glyph for the rune. Keying on the
// glyph index rather than the rune lets characters that share a glyph
// share a cache entry. Sizes are quantized to the nearest whole pixel,
// so requests within half a pixel of each other share an entry.
func (s *Source) Key(r rune, size float64) (Key, bool) {
	gid, ok := s.GID(r)
	if !ok {
		return Key{}, false
	}
	return Key{Source: s, GID: gid, PPEM: int16(math.Round(size))}, true
}
