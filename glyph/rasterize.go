package glyph

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Mask is a rasterized glyph: an alpha coverage image plus the metrics
// needed to position it on a baseline.
type Mask struct {
	// Width and Height are the mask dimensions in pixels. Both are zero
	// for glyphs with no visible shape, such as spaces.
	Width, Height int

	// Pixels is the row-major alpha coverage, of length Width*Height.
	Pixels []uint8

	// BearingX and BearingY offset the mask's top-left corner from the
	// pen position on the baseline. BearingY is negative for glyphs
	// that rise above the baseline.
	BearingX, BearingY int

	// Advance is how far the pen moves after this glyph, in pixels.
	Advance float64
}

// Rasterize renders the glyph for r at the given pixel size into an alpha
// mask. Glyphs without a visible shape return a Mask with zero dimensions
// and a valid Advance; callers should not insert those into an atlas.
func (s *Source) Rasterize(r rune, size float64) (*Mask, error) {
	face, err := opentype.NewFace(s.ot, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("glyph: create face: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return nil, fmt.Errorf("glyph: no glyph for %q", r)
	}

	minX := bounds.Min.X.Floor()
	minY := bounds.Min.Y.Floor()
	maxX := bounds.Max.X.Ceil()
	maxY := bounds.Max.Y.Ceil()

	m := &Mask{
		BearingX: minX,
		BearingY: minY,
		Advance:  float64(advance) / 64,
	}
	if maxX <= minX || maxY <= minY {
		return m, nil
	}

	rect := image.Rect(0, 0, maxX-minX, maxY-minY)
	dst := image.NewAlpha(rect)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: -bounds.Min.X,
			Y: -bounds.Min.Y,
		},
	}
	d.DrawString(string(r))

	m.Width = rect.Dx()
	m.Height = rect.Dy()
	m.Pixels = make([]uint8, 0, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+m.Width]
		m.Pixels = append(m.Pixels, row...)
	}
	return m, nil
}
