package atlas

import "fmt"

// span is one segment of the skyline profile: the columns [x0, x1) are
// occupied up to, and excluding, row height. A height of zero means the
// whole column is free.
//
// The span list is totally ordered by x0, contiguous, and together covers
// exactly [0, width). Only insertion and growth mutate it.
type span struct {
	x0, x1 int
	height int
}

func (s span) width() int { return s.x1 - s.x0 }

// SkylineAtlas is an online rectangle packer that tracks occupied space as
// a height profile: for every column, the lowest row at which free space
// begins. Placement rests each new image on the profile at the position
// that keeps the packed region shortest.
//
// A SkylineAtlas is owned by a single caller; see the package
// documentation for the concurrency and failure model.
type SkylineAtlas[P any] struct {
	canvas     canvas[P]
	background P
	spans      []span

	maxUsedHeight int
	usedArea      int
	allocCount    int
}

// NewSkylineAtlas creates a skyline atlas over a width x height canvas
// filled with the background pixel. Panics if either dimension is not
// positive.
func NewSkylineAtlas[P any](width, height int, background P) *SkylineAtlas[P] {
	return &SkylineAtlas[P]{
		canvas:     newCanvas(width, height, background),
		background: background,
		spans:      []span{{x0: 0, x1: width, height: 0}},
	}
}

// Width returns the canvas width in pixels.
func (a *SkylineAtlas[P]) Width() int { return a.canvas.width }

// Height returns the canvas height in pixels.
func (a *SkylineAtlas[P]) Height() int { return a.canvas.height }

// Pixels returns the canvas pixels, row-major. The slice is a view into
// the atlas's buffer: read-only for the caller, and invalidated by the
// next mutating call.
func (a *SkylineAtlas[P]) Pixels() []P { return a.canvas.pixels }

// MaxUsedHeight returns the lowest row below which the canvas is entirely
// free, i.e. the height of the tallest skyline span.
func (a *SkylineAtlas[P]) MaxUsedHeight() int { return a.maxUsedHeight }

// UsedArea returns the total area of all placed images.
func (a *SkylineAtlas[P]) UsedArea() int { return a.usedArea }

// Utilization returns the fraction of canvas area covered by placed
// images, from 0 to 1.
func (a *SkylineAtlas[P]) Utilization() float64 {
	return float64(a.usedArea) / float64(a.canvas.width*a.canvas.height)
}

// AllocCount returns the number of successfully placed images.
func (a *SkylineAtlas[P]) AllocCount() int { return a.allocCount }

// placement is a chosen resting position for an image: the skyline spans
// it covers, the top-left corner, and the area trapped between the image's
// bottom edge and the profile beneath it.
type placement struct {
	first, last int // covered span indexes, inclusive
	x, y        int
	waste       int
}

// findPlacement scans every span start as a candidate position for a
// width x height image and returns the best one. Candidates are ranked by
// lowest resulting bottom edge (y + height), then lowest wasted area, then
// leftmost x; the scan order makes the result deterministic for identical
// insertion sequences.
func (a *SkylineAtlas[P]) findPlacement(width, height int) (placement, bool) {
	best := placement{}
	found := false

	for i, s := range a.spans {
		if s.x0+width > a.canvas.width {
			break
		}

		// Walk the spans the image would cover, accumulating the
		// resting height and the area lost beneath the image.
		y := 0
		covered := 0
		last := i
		for j := i; j < len(a.spans) && covered < width; j++ {
			if a.spans[j].height > y {
				y = a.spans[j].height
			}
			covered += a.spans[j].width()
			last = j
		}

		if y+height > a.canvas.height {
			continue
		}

		waste := 0
		remaining := width
		for j := i; j <= last; j++ {
			w := min(a.spans[j].width(), remaining)
			waste += w * (y - a.spans[j].height)
			remaining -= w
		}

		cand := placement{first: i, last: last, x: s.x0, y: y, waste: waste}
		if !found ||
			cand.y+height < best.y+height ||
			(cand.y+height == best.y+height && cand.waste < best.waste) {
			best = cand
			found = true
		}
	}

	return best, found
}

// commit replaces the covered spans with a single span at the image's
// bottom edge, splitting the last covered span if the image ends inside
// it, and merges equal-height neighbors afterwards.
func (a *SkylineAtlas[P]) commit(p placement, width, height int) {
	placed := span{x0: p.x, x1: p.x + width, height: p.y + height}

	tail := a.spans[p.last]
	repl := make([]span, 0, 2)
	repl = append(repl, placed)
	if tail.x1 > placed.x1 {
		repl = append(repl, span{x0: placed.x1, x1: tail.x1, height: tail.height})
	}

	a.spans = append(a.spans[:p.first], append(repl, a.spans[p.last+1:]...)...)
	a.mergeSpans()

	if placed.height > a.maxUsedHeight {
		a.maxUsedHeight = placed.height
	}
}

// mergeSpans coalesces adjacent spans of equal height.
func (a *SkylineAtlas[P]) mergeSpans() {
	out := a.spans[:1]
	for _, s := range a.spans[1:] {
		if last := &out[len(out)-1]; last.height == s.height {
			last.x1 = s.x1
		} else {
			out = append(out, s)
		}
	}
	a.spans = out
}

// AddImage places a width x height image and blits its pixels into the
// canvas. It returns the region the image occupies and true, or the zero
// Region and false if no position in the current canvas can hold the
// image; the caller then grows the canvas with SetDims or evicts and
// retries.
//
// len(pixels) must equal width*height and both dimensions must be
// positive; violating either panics.
func (a *SkylineAtlas[P]) AddImage(width, height int, pixels []P) (Region, bool) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("atlas: invalid image dimensions %dx%d", width, height))
	}
	if len(pixels) != width*height {
		panic(fmt.Sprintf("atlas: image of %dx%d given %d pixels, want %d",
			width, height, len(pixels), width*height))
	}

	p, ok := a.findPlacement(width, height)
	if !ok {
		return Region{}, false
	}

	a.canvas.blit(pixels, width, height, p.x, p.y)
	a.commit(p, width, height)
	a.usedArea += width * height
	a.allocCount++

	return Region{X: p.x, Y: p.y, Width: width, Height: height}, true
}

// occupiedWidth returns the rightmost column that holds placed content.
func (a *SkylineAtlas[P]) occupiedWidth() int {
	for i := len(a.spans) - 1; i >= 0; i-- {
		if a.spans[i].height > 0 {
			return a.spans[i].x1
		}
	}
	return 0
}

// SetDims resizes the canvas, filling newly exposed area with background.
// Growth extends width or height without moving existing content, so
// every previously returned Region stays valid. Shrinking is allowed only
// down to the occupied extent; cutting into placed content panics.
//
// SetDims never repacks. Use Compact to tighten the layout.
func (a *SkylineAtlas[P]) SetDims(background P, width, height int) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("atlas: invalid canvas dimensions %dx%d", width, height))
	}
	if width < a.occupiedWidth() || height < a.maxUsedHeight {
		panic(fmt.Sprintf("atlas: cannot shrink %dx%d canvas to %dx%d below occupied %dx%d",
			a.canvas.width, a.canvas.height, width, height, a.occupiedWidth(), a.maxUsedHeight))
	}

	oldWidth := a.canvas.width
	a.canvas.resize(background, width, height)
	a.background = background

	switch {
	case width > oldWidth:
		if last := &a.spans[len(a.spans)-1]; last.height == 0 {
			last.x1 = width
		} else {
			a.spans = append(a.spans, span{x0: oldWidth, x1: width, height: 0})
		}
	case width < oldWidth:
		// Only free columns can be trimmed; occupiedWidth was checked
		// above, so the trailing span is at height zero.
		last := &a.spans[len(a.spans)-1]
		last.x1 = width
		if last.x0 == last.x1 {
			a.spans = a.spans[:len(a.spans)-1]
		}
	}

	slogger().Debug("atlas: skyline resized",
		"width", width, "height", height, "spans", len(a.spans))
}

// Clear removes every placed image and overwrites the canvas with the
// background pixel. Previously returned regions become meaningless.
func (a *SkylineAtlas[P]) Clear(background P) {
	a.canvas.clear(background)
	a.background = background
	a.spans = a.spans[:0]
	a.spans = append(a.spans, span{x0: 0, x1: a.canvas.width, height: 0})
	a.maxUsedHeight = 0
	a.usedArea = 0
	a.allocCount = 0
}
