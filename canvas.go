package atlas

import "fmt"

// canvas is the flat pixel store shared by the packers. It is row-major
// with the origin at the top-left, and always holds exactly width*height
// pixels. All mutation is synchronous and in place.
type canvas[P any] struct {
	width  int
	height int
	pixels []P
}

func newCanvas[P any](width, height int, background P) canvas[P] {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("atlas: invalid canvas dimensions %dx%d", width, height))
	}
	c := canvas[P]{
		width:  width,
		height: height,
		pixels: make([]P, width*height),
	}
	c.clear(background)
	return c
}

// blit copies srcHeight rows of srcWidth pixels from src into the canvas
// with the top-left corner at (dstX, dstY). The source length must match
// the stated dimensions exactly; a mismatch means the caller handed over a
// truncated or oversized upload and is a fatal contract violation, as is a
// destination that extends past the canvas.
func (c *canvas[P]) blit(src []P, srcWidth, srcHeight, dstX, dstY int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		panic(fmt.Sprintf("atlas: invalid blit dimensions %dx%d", srcWidth, srcHeight))
	}
	if len(src) != srcWidth*srcHeight {
		panic(fmt.Sprintf("atlas: blit of %dx%d pixels given %d, want %d",
			srcWidth, srcHeight, len(src), srcWidth*srcHeight))
	}
	if dstX < 0 || dstY < 0 || dstX+srcWidth > c.width || dstY+srcHeight > c.height {
		panic(fmt.Sprintf("atlas: blit of %dx%d at (%d,%d) exceeds %dx%d canvas",
			srcWidth, srcHeight, dstX, dstY, c.width, c.height))
	}

	for row := 0; row < srcHeight; row++ {
		dst := (dstY+row)*c.width + dstX
		copy(c.pixels[dst:dst+srcWidth], src[row*srcWidth:(row+1)*srcWidth])
	}
}

// clear overwrites every pixel with the background value.
func (c *canvas[P]) clear(background P) {
	for i := range c.pixels {
		c.pixels[i] = background
	}
}

// region returns a copy of the pixels inside r, row-major.
func (c *canvas[P]) region(r Region) []P {
	out := make([]P, 0, r.Area())
	for row := 0; row < r.Height; row++ {
		src := (r.Y+row)*c.width + r.X
		out = append(out, c.pixels[src:src+r.Width]...)
	}
	return out
}

// resize reallocates the buffer at the new dimensions, fills the new area
// with background, and re-blits the prior content at the origin. It does
// not repack; growth only ever extends width or height, so existing
// content keeps its coordinates.
func (c *canvas[P]) resize(background P, width, height int) {
	old := *c
	*c = newCanvas[P](width, height, background)

	copyW := min(old.width, c.width)
	copyH := min(old.height, c.height)
	for row := 0; row < copyH; row++ {
		copy(c.pixels[row*c.width:row*c.width+copyW], old.pixels[row*old.width:row*old.width+copyW])
	}
}
