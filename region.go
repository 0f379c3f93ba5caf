package atlas

import "fmt"

// Region identifies a rectangular area of an atlas canvas, in pixel
// coordinates with the origin at the top-left. It is the handle returned
// for every placed image: the caller owns it, and the atlas holds no
// reference back to it.
type Region struct {
	// X is the left edge of the region.
	X int
	// Y is the top edge of the region.
	Y int
	// Width is the region width.
	Width int
	// Height is the region height.
	Height int
}

// IsValid reports whether the region has positive dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// Area returns the region's area in pixels.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Contains reports whether the point (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other share at least one pixel.
func (r Region) Intersects(other Region) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// In reports whether the region lies entirely within a canvas of the
// given dimensions.
func (r Region) In(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= width && r.Y+r.Height <= height
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
