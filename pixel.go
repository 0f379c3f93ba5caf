package atlas

import "image"

// RGBA8 is a non-premultiplied 8-bit RGBA pixel. It is the pixel type the
// demo tooling and image caches use; the packers themselves accept any
// fixed-size pixel value.
type RGBA8 [4]uint8

// RGBA8Bytes serializes a pixel slice into a freshly allocated byte slice,
// four bytes per pixel in R, G, B, A order. This is the supported path for
// handing atlas pixels to a file encoder or GPU upload; it copies rather
// than reinterpreting memory, so it is safe regardless of pixel layout
// changes.
func RGBA8Bytes(pixels []RGBA8) []byte {
	out := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		out = append(out, p[0], p[1], p[2], p[3])
	}
	return out
}

// ImageRGBA copies a row-major RGBA8 pixel buffer of the given dimensions
// into a standard *image.RGBA, for use with the image encoders.
func ImageRGBA(pixels []RGBA8, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		img.Pix[i*4+0] = p[0]
		img.Pix[i*4+1] = p[1]
		img.Pix[i*4+2] = p[2]
		img.Pix[i*4+3] = p[3]
	}
	return img
}
