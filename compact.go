package atlas

import (
	"fmt"
	"sort"
)

// CompactItem pairs a live region handle with the source pixels of the
// image placed there. Compact needs the pixels because repacking re-blits
// every image at its new position.
type CompactItem[P any] struct {
	// Rect is the image's current region. Compact rewrites it in place
	// with the image's new position.
	Rect Region

	// Pixels is the image's row-major pixel data, of length
	// Rect.Width*Rect.Height.
	Pixels []P
}

// Compact repacks the complete working set of placed images into a denser
// layout. items must describe every image currently in the atlas; images
// left out are lost, since the canvas is rebuilt from the given pixels.
//
// Images are reinserted in decreasing area order (ties broken by
// decreasing height, then width), the standard heuristic for reusing an
// online packer offline. The heuristic is not guaranteed to beat the
// layout it replaces, so Compact keeps a snapshot of the original state
// and rolls back whenever the repack would raise the used height; the
// used height never grows across a Compact call. Each item's Rect is
// rewritten in place, in the order the items were given, so external
// references keyed to the slice stay valid after the call.
//
// An image that was placed once can always be re-placed in a canvas of the
// same size, so a placement failure here means the packing invariants are
// broken and Compact panics.
func (a *SkylineAtlas[P]) Compact(items []CompactItem[P]) {
	for i, it := range items {
		if !it.Rect.IsValid() {
			panic(fmt.Sprintf("atlas: compact item %d has invalid region %v", i, it.Rect))
		}
		if len(it.Pixels) != it.Rect.Area() {
			panic(fmt.Sprintf("atlas: compact item %d is %dx%d but has %d pixels",
				i, it.Rect.Width, it.Rect.Height, len(it.Pixels)))
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		ra, rb := items[order[x]].Rect, items[order[y]].Rect
		if ra.Area() != rb.Area() {
			return ra.Area() > rb.Area()
		}
		if ra.Height != rb.Height {
			return ra.Height > rb.Height
		}
		return ra.Width > rb.Width
	})

	prev := a.snapshot()
	prevRects := make([]Region, len(items))
	for i := range items {
		prevRects[i] = items[i].Rect
	}

	a.Clear(a.background)

	for _, i := range order {
		it := &items[i]
		rect, ok := a.AddImage(it.Rect.Width, it.Rect.Height, it.Pixels)
		if !ok {
			panic(fmt.Sprintf("atlas: compaction failed to re-place %dx%d image in %dx%d canvas",
				it.Rect.Width, it.Rect.Height, a.canvas.width, a.canvas.height))
		}
		it.Rect = rect
	}

	if a.maxUsedHeight > prev.maxUsedHeight {
		a.restore(prev)
		for i := range items {
			items[i].Rect = prevRects[i]
		}
		slogger().Debug("atlas: skyline compaction rolled back",
			"images", len(items), "usedHeight", a.maxUsedHeight)
		return
	}

	slogger().Debug("atlas: skyline compacted",
		"images", len(items), "usedHeight", a.maxUsedHeight)
}

// skylineState is a copy of everything Compact may mutate, taken before
// repacking so a worse layout can be discarded.
type skylineState[P any] struct {
	pixels        []P
	spans         []span
	maxUsedHeight int
	usedArea      int
	allocCount    int
}

func (a *SkylineAtlas[P]) snapshot() skylineState[P] {
	return skylineState[P]{
		pixels:        append([]P(nil), a.canvas.pixels...),
		spans:         append([]span(nil), a.spans...),
		maxUsedHeight: a.maxUsedHeight,
		usedArea:      a.usedArea,
		allocCount:    a.allocCount,
	}
}

func (a *SkylineAtlas[P]) restore(s skylineState[P]) {
	copy(a.canvas.pixels, s.pixels)
	a.spans = append(a.spans[:0], s.spans...)
	a.maxUsedHeight = s.maxUsedHeight
	a.usedArea = s.usedArea
	a.allocCount = s.allocCount
}
