// Package atlas packs arbitrarily-sized rectangular pixel images into
// fixed-size canvases, so a renderer can batch draw calls against a single
// texture.
//
// # Overview
//
// The package provides two online rectangle packers over the same pixel
// canvas: SkylineAtlas, which tracks the occupied region as a height
// profile, and PerimeterAtlas, which tracks the boundary between occupied
// and free space as a closed polyline. Both accept a stream of images of
// unknown future sizes, place each without overlap, and hand back an
// integer Region identifying where the image landed.
//
// # Quick Start
//
//	import "github.com/gogpu/atlas"
//
//	a := atlas.NewSkylineAtlas(512, 512, atlas.RGBA8{})
//
//	rect, ok := a.AddImage(w, h, pixels)
//	if !ok {
//		// Canvas is full: grow and retry, or evict.
//		a.SetDims(atlas.RGBA8{}, a.Width(), a.Height()*2)
//		rect, _ = a.AddImage(w, h, pixels)
//	}
//
// # Pixels and Handles
//
// The pixel type is generic: an atlas stores whatever fixed-size value the
// caller renders with (alpha bytes for glyph masks, RGBA8 for images).
// Regions are plain values owned by the caller; the atlas keeps no
// back-reference to them. The one exception is Compact, which takes the
// caller's live regions and rewrites them in place after repacking.
//
// # Failure Model
//
// "Does not fit" is a normal outcome, reported as ok == false from
// AddImage. Malformed input (a pixel count that does not match the stated
// dimensions, zero dimensions, shrinking a canvas below its occupied
// content) is a caller bug and panics.
//
// # Concurrency
//
// An atlas is owned by a single caller. All operations take exclusive
// access and run to completion; there is no internal locking. Pixels()
// returns a read-only view that may be shared while no mutating call is in
// flight.
//
// # Subpackages
//
//   - atlascache: key-to-region cache over an atlas, with lazy insertion,
//     growth on overflow, and frame-based eviction
//   - glyph: rasterizes font glyphs into pixel masks for atlas insertion
package atlas
