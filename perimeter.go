package atlas

import (
	"errors"
	"fmt"
)

// edgeDir tells which axis the first edge of a corner pair runs along.
type edgeDir uint8

const (
	vertical edgeDir = iota
	horizontal
)

// PerimeterAtlas is an online rectangle packer that tracks the boundary
// between occupied and free space as a closed polyline. New images are
// inserted at corners of that boundary, preferring concave corners where
// two sides of the image touch occupied space with zero waste.
//
// The polyline is stored as alternating signed deltas: even indexes move
// horizontally, odd indexes move vertically, and the loop starts and ends
// at origin. Compared to the skyline profile this costs an explicit
// overlap test per candidate, but it can pack into enclosed pockets of
// free space a height profile cannot represent.
type PerimeterAtlas[P any] struct {
	canvas     canvas[P]
	background P

	edges   []int
	originX int
	originY int

	placed   []Region
	usedArea int
}

// NewPerimeterAtlas creates a perimeter atlas over a width x height canvas
// filled with the background pixel. Panics if either dimension is not
// positive.
func NewPerimeterAtlas[P any](width, height int, background P) *PerimeterAtlas[P] {
	return &PerimeterAtlas[P]{
		canvas:     newCanvas(width, height, background),
		background: background,
		edges:      []int{width, height, -width, -height},
	}
}

// Width returns the canvas width in pixels.
func (a *PerimeterAtlas[P]) Width() int { return a.canvas.width }

// Height returns the canvas height in pixels.
func (a *PerimeterAtlas[P]) Height() int { return a.canvas.height }

// Pixels returns the canvas pixels, row-major. The slice is a view into
// the atlas's buffer: read-only for the caller, and invalidated by the
// next mutating call.
func (a *PerimeterAtlas[P]) Pixels() []P { return a.canvas.pixels }

// UsedArea returns the total area of all placed images.
func (a *PerimeterAtlas[P]) UsedArea() int { return a.usedArea }

// Utilization returns the fraction of canvas area covered by placed
// images, from 0 to 1.
func (a *PerimeterAtlas[P]) Utilization() float64 {
	return float64(a.usedArea) / float64(a.canvas.width*a.canvas.height)
}

// AllocCount returns the number of successfully placed images.
func (a *PerimeterAtlas[P]) AllocCount() int { return len(a.placed) }

// Regions returns the regions of all placed images, in insertion order.
// The returned slice is a copy.
func (a *PerimeterAtlas[P]) Regions() []Region {
	out := make([]Region, len(a.placed))
	copy(out, a.placed)
	return out
}

// AddImage places a width x height image and blits its pixels into the
// canvas. It returns the region the image occupies and true, or the zero
// Region and false if no corner of the perimeter can hold the image.
//
// len(pixels) must equal width*height and both dimensions must be
// positive; violating either panics.
func (a *PerimeterAtlas[P]) AddImage(width, height int, pixels []P) (Region, bool) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("atlas: invalid image dimensions %dx%d", width, height))
	}
	if len(pixels) != width*height {
		panic(fmt.Sprintf("atlas: image of %dx%d given %d pixels, want %d",
			width, height, len(pixels), width*height))
	}

	rect, ok := a.placeAtBestCorner(width, height)
	if !ok {
		return Region{}, false
	}

	a.canvas.blit(pixels, width, height, rect.X, rect.Y)
	a.placed = append(a.placed, rect)
	a.usedArea += width * height
	return rect, true
}

// Clear removes every placed image, resets the perimeter to the canvas
// border, and overwrites the canvas with the background pixel.
func (a *PerimeterAtlas[P]) Clear(background P) {
	a.canvas.clear(background)
	a.background = background
	a.edges = a.edges[:0]
	a.edges = append(a.edges, a.canvas.width, a.canvas.height, -a.canvas.width, -a.canvas.height)
	a.originX, a.originY = 0, 0
	a.placed = a.placed[:0]
	a.usedArea = 0
}

// corner describes one vertex of the perimeter polyline: the junction
// between the incoming edge i-1 and the outgoing edge i.
type corner struct {
	index  int
	first  edgeDir // axis of the incoming edge
	v, h   int     // the vertical and horizontal edge deltas meeting here
	x, y   int     // vertex position
	conc   bool    // free space wraps occupied space on two sides
	rect   Region  // candidate placement anchored at this vertex
}

// cornerScore ranks candidate corners: primarily by how much boundary the
// placement would add (a concave fit removes boundary, a convex placement
// adds the full rectangle's worth), secondarily by how close the placement
// sits to the canvas edge.
type cornerScore struct {
	perimeterAdded int
	distanceToEdge int
}

func (s cornerScore) lessEq(o cornerScore) bool {
	if s.perimeterAdded != o.perimeterAdded {
		return s.perimeterAdded < o.perimeterAdded
	}
	return s.distanceToEdge <= o.distanceToEdge
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// edge reads the delta at index i, wrapping around the closed loop.
// i may range over [-len, 2*len).
func (a *PerimeterAtlas[P]) edge(i int) int {
	return a.edges[a.wrap(i)]
}

func (a *PerimeterAtlas[P]) addEdge(i, delta int) {
	a.edges[a.wrap(i)] += delta
}

func (a *PerimeterAtlas[P]) wrap(i int) int {
	n := len(a.edges)
	switch {
	case i < 0:
		return n + i
	case i >= n:
		return i - n
	}
	return i
}

// removeCorner deletes the two edges meeting at the given vertex.
func (a *PerimeterAtlas[P]) removeCorner(index int) {
	if index == 0 {
		a.edges = a.edges[:len(a.edges)-1]
		a.edges = append(a.edges[:0], a.edges[1:]...)
	} else {
		a.edges = append(a.edges[:index-1], a.edges[index+1:]...)
	}
}

// placeAtBestCorner searches every vertex of the perimeter for the best
// position for a width x height image, splices the polyline to absorb the
// placement, and returns the region. Candidates must stay inside the
// canvas and clear an intersection test against every placed rectangle.
func (a *PerimeterAtlas[P]) placeAtBestCorner(width, height int) (Region, bool) {
	var best corner
	var bestScore cornerScore
	found := false

	cursorX, cursorY := a.originX, a.originY
	for i := range a.edges {
		in := a.edge(i - 1) // incoming edge
		out := a.edges[i]   // outgoing edge

		var c corner
		c.index = i
		c.x, c.y = cursorX, cursorY
		if i%2 == 0 {
			// Incoming edge is vertical, outgoing horizontal.
			c.first = vertical
			c.v, c.h = in, out
			c.conc = sign(in) != sign(out)
		} else {
			c.first = horizontal
			c.v, c.h = out, in
			c.conc = sign(in) == sign(out)
		}

		vnorm := -sign(c.v)
		hnorm := sign(c.h)

		x1 := c.x + vnorm*width
		y1 := c.y + hnorm*height
		c.rect = Region{X: min(c.x, x1), Y: min(c.y, y1), Width: width, Height: height}

		distance := min(
			min(c.rect.X, c.rect.Y),
			min(a.canvas.width-(c.rect.X+width), a.canvas.height-(c.rect.Y+height)),
		)

		if distance >= 0 && !a.overlapsPlaced(c.rect) {
			score := cornerScore{distanceToEdge: distance}
			if c.conc {
				score.perimeterAdded = max(0, height-abs(c.v)) + max(0, width-abs(c.h))
			} else {
				score.perimeterAdded = 2 * width * height
			}
			if !found || score.lessEq(bestScore) {
				best = c
				bestScore = score
				found = true
			}
		}

		// Advance along the outgoing edge to the next vertex.
		if i%2 == 0 {
			cursorX += out
		} else {
			cursorY += out
		}
	}

	if !found {
		return Region{}, false
	}

	a.splice(best, width, height)

	slogger().Debug("atlas: perimeter placed",
		"corner", best.index, "concave", best.conc,
		"edges", len(a.edges), "x", best.rect.X, "y", best.rect.Y)

	return best.rect, true
}

func (a *PerimeterAtlas[P]) overlapsPlaced(r Region) bool {
	for _, p := range a.placed {
		if p.Intersects(r) {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// splice absorbs a placement at the chosen corner into the polyline. A
// placement consumes up to three boundary edges and exposes up to three
// new ones; when the image exactly matches an edge length the adjacent
// edges fuse instead, and when it fills the corner's pocket exactly the
// corner disappears entirely.
func (a *PerimeterAtlas[P]) splice(c corner, width, height int) {
	hIns := width * sign(c.h)
	vIns := height * sign(c.v)

	var pair, quad [4]int
	if c.first == vertical {
		pair = [4]int{hIns, vIns}
		quad = [4]int{-hIns, vIns, hIns, -vIns}
	} else {
		pair = [4]int{vIns, hIns}
		quad = [4]int{-vIns, hIns, vIns, -hIns}
	}

	hOrd := sign(width - abs(c.h))
	vOrd := sign(height - abs(c.v))

	insert := true
	if c.conc {
		switch {
		case hOrd != 0 && vOrd != 0:
			a.addEdge(c.index-1, -pair[1])
			a.addEdge(c.index, -pair[0])
		case hOrd == 0 && vOrd != 0:
			insert = false
			if c.first == vertical {
				a.addEdge(c.index-1, -pair[1])
				a.addEdge(c.index+1, pair[1])
			} else {
				a.addEdge(c.index-2, pair[0])
				a.addEdge(c.index, -pair[0])
			}
		case vOrd == 0 && hOrd != 0:
			insert = false
			if c.first == vertical {
				a.addEdge(c.index-2, pair[0])
				a.addEdge(c.index, -pair[0])
			} else {
				a.addEdge(c.index-1, -pair[1])
				a.addEdge(c.index+1, pair[1])
			}
		default: // exact fit on both axes: the pocket closes
			insert = false
			a.addEdge(c.index-2, pair[0])
			a.addEdge(c.index+1, pair[1])
			a.removeCorner(c.index)
		}
	}

	if insert {
		if c.index == 0 {
			if c.first == vertical {
				a.originY -= vIns
			} else {
				a.originX += hIns
			}
		}
		ins := quad[:4]
		if c.conc {
			ins = pair[:2]
		}
		a.edges = append(a.edges[:c.index], append(append([]int{}, ins...), a.edges[c.index:]...)...)
	}
}

// Verify checks the packer's invariants: the perimeter polyline is closed,
// stays inside the canvas, and contains no zero-length edges; and every
// pair of placed rectangles is disjoint, with each inside the canvas. It
// is O(n²) in the number of placed images and meant for tests and
// debugging, not hot paths. It returns nil on success.
func (a *PerimeterAtlas[P]) Verify() error {
	if len(a.edges)%2 != 0 {
		return fmt.Errorf("atlas: perimeter has odd edge count %d", len(a.edges))
	}

	// A completely full canvas collapses the free-space loop to nothing.
	if len(a.edges) == 2 && a.edges[0] == 0 && a.edges[1] == 0 {
		return nil
	}

	x, y := a.originX, a.originY
	for i := 0; i+1 < len(a.edges); i += 2 {
		h, v := a.edges[i], a.edges[i+1]
		if h == 0 || v == 0 {
			return fmt.Errorf("atlas: zero-length perimeter edge at %d", i)
		}
		x += h
		y += v
		if x < 0 || y < 0 || x > a.canvas.width || y > a.canvas.height {
			return fmt.Errorf("atlas: perimeter leaves canvas at (%d,%d)", x, y)
		}
	}
	if x != a.originX || y != a.originY {
		return errors.New("atlas: perimeter polyline is not closed")
	}

	for i, p := range a.placed {
		if !p.In(a.canvas.width, a.canvas.height) {
			return fmt.Errorf("atlas: placed %v outside %dx%d canvas", p, a.canvas.width, a.canvas.height)
		}
		for _, q := range a.placed[i+1:] {
			if p.Intersects(q) {
				return fmt.Errorf("atlas: placed regions overlap: %v and %v", p, q)
			}
		}
	}
	return nil
}

// EdgeImage rasterizes the current perimeter polyline into a fresh
// (width+1) x (height+1) pixel buffer for visual debugging. back fills the
// background and edge supplies the pixel for the i-th edge. The returned
// buffer is row-major; the extra row and column let edges on the far
// canvas border stay visible.
func (a *PerimeterAtlas[P]) EdgeImage(back P, edge func(i int) P) (width, height int, pixels []P) {
	width, height = a.canvas.width+1, a.canvas.height+1
	img := newCanvas(width, height, back)

	x, y := a.originX, a.originY
	for i, delta := range a.edges {
		nx, ny := x, y
		if i%2 == 0 {
			nx += delta
		} else {
			ny += delta
		}

		x0, y0 := min(x, nx), min(y, ny)
		x1, y1 := max(x, nx)+1, max(y, ny)+1
		x0, y0 = max(x0, 0), max(y0, 0)
		x1, y1 = min(x1, width), min(y1, height)
		if x0 < x1 && y0 < y1 {
			px := edge(i)
			for row := y0; row < y1; row++ {
				for col := x0; col < x1; col++ {
					img.pixels[row*width+col] = px
				}
			}
		}

		x, y = nx, ny
	}

	return width, height, img.pixels
}
