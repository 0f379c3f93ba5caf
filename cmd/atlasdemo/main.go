// Command atlasdemo exercises the atlas packers on random image sets and
// writes the packed canvases to image files for visual inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/atlas"
	"github.com/gogpu/atlas/atlascache"
	"github.com/gogpu/atlas/glyph"
)

func main() {
	var (
		mode    = flag.String("mode", "skyline", "packer to run: skyline, perimeter, compete, glyphs")
		size    = flag.Int("size", 512, "canvas width and height")
		count   = flag.Int("count", 200, "images to attempt")
		seed    = flag.Int64("seed", 1, "random seed")
		output  = flag.String("o", "atlas.png", "output file (.png or .bmp)")
		verbose = flag.Bool("v", false, "log placement decisions")
	)
	flag.Parse()

	if *verbose {
		atlas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var err error
	switch *mode {
	case "skyline":
		err = runSkyline(*size, *count, *seed, *output)
	case "perimeter":
		err = runPerimeter(*size, *count, *seed, *output)
	case "compete":
		err = runCompete(*size, *count, *seed)
	case "glyphs":
		err = runGlyphs(*size, *output)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// randomImage returns a solid-color image between 4x4 and 128x128.
func randomImage(rng *rand.Rand) (int, int, []atlas.RGBA8) {
	w := 4 + rng.Intn(125)
	h := 4 + rng.Intn(125)
	color := atlas.RGBA8{
		uint8(8 + rng.Intn(248)),
		uint8(8 + rng.Intn(248)),
		uint8(8 + rng.Intn(248)),
		255,
	}
	pixels := make([]atlas.RGBA8, w*h)
	for i := range pixels {
		pixels[i] = color
	}
	return w, h, pixels
}

func runSkyline(size, count int, seed int64, output string) error {
	rng := rand.New(rand.NewSource(seed))
	a := atlas.NewSkylineAtlas(size, size, atlas.RGBA8{})

	placed := 0
	for i := 0; i < count; i++ {
		w, h, pixels := randomImage(rng)
		if _, ok := a.AddImage(w, h, pixels); ok {
			placed++
		}
	}
	log.Printf("skyline: placed %d/%d images, %.1f%% utilization, used height %d",
		placed, count, a.Utilization()*100, a.MaxUsedHeight())

	return writeImage(output, atlas.ImageRGBA(a.Pixels(), a.Width(), a.Height()))
}

func runPerimeter(size, count int, seed int64, output string) error {
	rng := rand.New(rand.NewSource(seed))
	a := atlas.NewPerimeterAtlas(size, size, atlas.RGBA8{})

	placed := 0
	for i := 0; i < count; i++ {
		w, h, pixels := randomImage(rng)
		if _, ok := a.AddImage(w, h, pixels); ok {
			placed++
		}
		if err := a.Verify(); err != nil {
			return fmt.Errorf("perimeter invariant broken after insertion %d: %w", i, err)
		}
	}
	log.Printf("perimeter: placed %d/%d images, %.1f%% utilization",
		placed, count, a.Utilization()*100)

	if err := writeImage(output, atlas.ImageRGBA(a.Pixels(), a.Width(), a.Height())); err != nil {
		return err
	}

	// Dump the boundary polyline next to the atlas.
	ew, eh, edges := a.EdgeImage(atlas.RGBA8{32, 32, 32, 255}, func(i int) atlas.RGBA8 {
		return atlas.RGBA8{uint8(i), 255, 255, 255}
	})
	return writeImage(suffixed(output, "_edges"), atlas.ImageRGBA(edges, ew, eh))
}

func runCompete(size, count int, seed int64) error {
	sky := atlas.NewSkylineAtlas(size, size, atlas.RGBA8{})
	per := atlas.NewPerimeterAtlas(size, size, atlas.RGBA8{})

	rng := rand.New(rand.NewSource(seed))
	skyPlaced, perPlaced := 0, 0
	for i := 0; i < count; i++ {
		w, h, pixels := randomImage(rng)
		if _, ok := sky.AddImage(w, h, pixels); ok {
			skyPlaced++
		}
		if _, ok := per.AddImage(w, h, pixels); ok {
			perPlaced++
		}
	}

	log.Printf("skyline:   %d/%d images, %.1f%% utilization", skyPlaced, count, sky.Utilization()*100)
	log.Printf("perimeter: %d/%d images, %.1f%% utilization", perPlaced, count, per.Utilization()*100)
	return nil
}

func runGlyphs(size int, output string) error {
	source, err := glyph.NewSource(goregular.TTF)
	if err != nil {
		return err
	}

	cfg := atlascache.DefaultConfig[uint8]()
	cfg.Width, cfg.Height = size, size
	cache, err := atlascache.New[glyph.Key](cfg)
	if err != nil {
		return err
	}

	const ppem = 48.0
	for r := rune('!'); r <= '~'; r++ {
		key, ok := source.Key(r, ppem)
		if !ok {
			continue
		}
		mask, err := source.Rasterize(r, ppem)
		if err != nil {
			return err
		}
		if mask.Width == 0 {
			continue
		}
		_, err = cache.Get(key, func() (int, int, []uint8, error) {
			return mask.Width, mask.Height, mask.Pixels, nil
		})
		if err != nil {
			return fmt.Errorf("caching %q: %w", r, err)
		}
	}
	log.Printf("glyphs: cached %d masks in a %dx%d atlas", cache.Len(), cache.Width(), cache.Height())

	gray := &image.Gray{
		Pix:    cache.Pixels(),
		Stride: cache.Width(),
		Rect:   image.Rect(0, 0, cache.Width(), cache.Height()),
	}
	return writeImage(output, gray)
}

func suffixed(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
