package atlas

import (
	"math/rand"
	"testing"
)

// solid returns a w x h image filled with the given pixel.
func solid(w, h int, p RGBA8) []RGBA8 {
	img := make([]RGBA8, w*h)
	for i := range img {
		img[i] = p
	}
	return img
}

// pattern returns a w x h image whose pixels encode their own coordinates,
// so readback mismatches pinpoint the corrupted pixel.
func pattern(w, h int, tag uint8) []RGBA8 {
	img := make([]RGBA8, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img = append(img, RGBA8{uint8(x), uint8(y), tag, 255})
		}
	}
	return img
}

// readRegion copies the pixels inside r out of a row-major buffer.
func readRegion(pixels []RGBA8, stride int, r Region) []RGBA8 {
	out := make([]RGBA8, 0, r.Area())
	for y := 0; y < r.Height; y++ {
		row := (r.Y+y)*stride + r.X
		out = append(out, pixels[row:row+r.Width]...)
	}
	return out
}

func equalPixels(a, b []RGBA8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSkylineAtlas_FirstImageAtOrigin(t *testing.T) {
	a := NewSkylineAtlas(128, 128, RGBA8{})

	rect, ok := a.AddImage(32, 16, solid(32, 16, RGBA8{255, 0, 0, 255}))
	if !ok {
		t.Fatal("failed to place first image")
	}
	if rect.X != 0 || rect.Y != 0 {
		t.Errorf("expected placement at (0,0), got (%d,%d)", rect.X, rect.Y)
	}
	if rect.Width != 32 || rect.Height != 16 {
		t.Errorf("expected 32x16 region, got %dx%d", rect.Width, rect.Height)
	}
	if a.AllocCount() != 1 {
		t.Errorf("expected 1 allocation, got %d", a.AllocCount())
	}
	if a.MaxUsedHeight() != 16 {
		t.Errorf("expected max used height 16, got %d", a.MaxUsedHeight())
	}
}

func TestSkylineAtlas_RowPacking(t *testing.T) {
	// Four same-size images in a wide canvas must pack left to right on
	// the bottom row: equal-height placements coalesce into one span, so
	// each successive image rests beside, not on top of, the previous.
	a := NewSkylineAtlas(512, 512, RGBA8{})

	rects := make([]Region, 4)
	for i := range rects {
		rect, ok := a.AddImage(64, 64, solid(64, 64, RGBA8{uint8(i), 0, 0, 255}))
		if !ok {
			t.Fatalf("failed to place image %d", i)
		}
		rects[i] = rect
	}

	for i, r := range rects {
		want := Region{X: i * 64, Y: 0, Width: 64, Height: 64}
		if r != want {
			t.Errorf("image %d: expected %v, got %v", i, want, r)
		}
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersects(rects[j]) {
				t.Errorf("regions %v and %v overlap", rects[i], rects[j])
			}
		}
	}
	if len(a.spans) != 2 {
		t.Errorf("expected coalesced skyline with 2 spans, got %d", len(a.spans))
	}
}

func TestSkylineAtlas_RestsOnTallestCoveredSpan(t *testing.T) {
	a := NewSkylineAtlas(100, 100, RGBA8{})

	a.AddImage(40, 30, solid(40, 30, RGBA8{1, 0, 0, 255})) // (0,0)..(40,30)
	a.AddImage(40, 10, solid(40, 10, RGBA8{2, 0, 0, 255})) // (40,0)..(80,10)

	// 60 wide starting at x=40 covers the 10-high span and the free
	// columns beyond it, so it rests at y=10, the tallest covered span.
	// That bottom edge (30) beats stacking on the 30-high span (50).
	rect, ok := a.AddImage(60, 20, solid(60, 20, RGBA8{3, 0, 0, 255}))
	if !ok {
		t.Fatal("failed to place spanning image")
	}
	if rect.X != 40 || rect.Y != 10 {
		t.Errorf("expected placement at (40,10), got (%d,%d)", rect.X, rect.Y)
	}
}

func TestSkylineAtlas_PrefersLowestBottomEdge(t *testing.T) {
	a := NewSkylineAtlas(100, 100, RGBA8{})

	a.AddImage(50, 40, solid(50, 40, RGBA8{1, 0, 0, 255})) // left half, 40 high

	// A 30x30 image fits at (50,0) with bottom edge 30, beating the
	// position on top of the first image (bottom edge 70).
	rect, ok := a.AddImage(30, 30, solid(30, 30, RGBA8{2, 0, 0, 255}))
	if !ok {
		t.Fatal("failed to place image")
	}
	if rect.X != 50 || rect.Y != 0 {
		t.Errorf("expected placement at (50,0), got (%d,%d)", rect.X, rect.Y)
	}
}

func TestSkylineAtlas_ContentFidelity(t *testing.T) {
	a := NewSkylineAtlas(256, 256, RGBA8{})

	imgs := [][]RGBA8{
		pattern(31, 17, 1),
		pattern(64, 64, 2),
		pattern(5, 90, 3),
	}
	dims := [][2]int{{31, 17}, {64, 64}, {5, 90}}

	rects := make([]Region, len(imgs))
	for i, img := range imgs {
		rect, ok := a.AddImage(dims[i][0], dims[i][1], img)
		if !ok {
			t.Fatalf("failed to place image %d", i)
		}
		rects[i] = rect
	}

	for i, rect := range rects {
		got := readRegion(a.Pixels(), a.Width(), rect)
		if !equalPixels(got, imgs[i]) {
			t.Errorf("image %d: readback does not match source", i)
		}
	}

	// Growth must preserve both the handles and the pixel content.
	a.SetDims(RGBA8{}, 512, 512)
	for i, rect := range rects {
		got := readRegion(a.Pixels(), a.Width(), rect)
		if !equalPixels(got, imgs[i]) {
			t.Errorf("image %d: readback mismatch after growth", i)
		}
	}
}

func TestSkylineAtlas_FullIsRecoverable(t *testing.T) {
	a := NewSkylineAtlas(64, 64, RGBA8{})

	if _, ok := a.AddImage(65, 10, solid(65, 10, RGBA8{})); ok {
		t.Error("expected too-wide image to be rejected")
	}
	if _, ok := a.AddImage(10, 65, solid(10, 65, RGBA8{})); ok {
		t.Error("expected too-tall image to be rejected")
	}

	// Rejection must not corrupt state.
	if _, ok := a.AddImage(64, 64, solid(64, 64, RGBA8{9, 9, 9, 255})); !ok {
		t.Error("exact-fit image should still place after rejections")
	}
}

func TestSkylineAtlas_GrowthAfterFull(t *testing.T) {
	a := NewSkylineAtlas(128, 128, RGBA8{})

	var rects []Region
	var tags []uint8
	for i := 0; ; i++ {
		img := pattern(48, 48, uint8(i+1))
		rect, ok := a.AddImage(48, 48, img)
		if !ok {
			break
		}
		rects = append(rects, rect)
		tags = append(tags, uint8(i+1))
	}
	if len(rects) == 0 {
		t.Fatal("no images placed before overflow")
	}

	// Doubling the height makes room for the insertion that failed.
	a.SetDims(RGBA8{}, a.Width(), a.Height()*2)

	img := pattern(48, 48, 200)
	rect, ok := a.AddImage(48, 48, img)
	if !ok {
		t.Fatal("insertion still fails after doubling height")
	}
	if got := readRegion(a.Pixels(), a.Width(), rect); !equalPixels(got, img) {
		t.Error("new image readback mismatch after growth")
	}

	for i, r := range rects {
		want := pattern(48, 48, tags[i])
		if got := readRegion(a.Pixels(), a.Width(), r); !equalPixels(got, want) {
			t.Errorf("image %d corrupted by growth", i)
		}
	}
}

func TestSkylineAtlas_NoOverlapRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewSkylineAtlas(512, 512, RGBA8{})

	var rects []Region
	for i := 0; i < 200; i++ {
		w := 4 + rng.Intn(125)
		h := 4 + rng.Intn(125)
		rect, ok := a.AddImage(w, h, solid(w, h, RGBA8{uint8(i), 128, 0, 255}))
		if !ok {
			continue
		}
		rects = append(rects, rect)
	}
	if len(rects) < 10 {
		t.Fatalf("placed only %d images, packing is badly broken", len(rects))
	}

	for i := range rects {
		if !rects[i].In(a.Width(), a.Height()) {
			t.Errorf("region %v outside canvas", rects[i])
		}
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersects(rects[j]) {
				t.Errorf("regions %v and %v overlap", rects[i], rects[j])
			}
		}
	}
}

func TestSkylineAtlas_Deterministic(t *testing.T) {
	run := func() []Region {
		rng := rand.New(rand.NewSource(42))
		a := NewSkylineAtlas(512, 512, RGBA8{})
		var rects []Region
		for i := 0; i < 100; i++ {
			w := 4 + rng.Intn(125)
			h := 4 + rng.Intn(125)
			if rect, ok := a.AddImage(w, h, solid(w, h, RGBA8{})); ok {
				rects = append(rects, rect)
			}
		}
		return rects
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("runs placed %d and %d images", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("placement %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSkylineAtlas_ClearResets(t *testing.T) {
	a := NewSkylineAtlas(64, 64, RGBA8{})
	a.AddImage(32, 32, solid(32, 32, RGBA8{1, 2, 3, 4}))

	a.Clear(RGBA8{})
	if a.AllocCount() != 0 || a.UsedArea() != 0 || a.MaxUsedHeight() != 0 {
		t.Error("Clear did not reset statistics")
	}
	for i, p := range a.Pixels() {
		if p != (RGBA8{}) {
			t.Fatalf("pixel %d not cleared: %v", i, p)
		}
	}

	rect, ok := a.AddImage(64, 64, solid(64, 64, RGBA8{5, 5, 5, 255}))
	if !ok || rect.X != 0 || rect.Y != 0 {
		t.Errorf("expected full-canvas placement after Clear, got %v ok=%v", rect, ok)
	}
}

func TestSkylineAtlas_Utilization(t *testing.T) {
	a := NewSkylineAtlas(100, 100, RGBA8{})
	if a.Utilization() != 0 {
		t.Errorf("expected 0 utilization, got %f", a.Utilization())
	}
	a.AddImage(50, 50, solid(50, 50, RGBA8{}))
	if a.Utilization() != 0.25 {
		t.Errorf("expected 0.25 utilization, got %f", a.Utilization())
	}
}

func TestSkylineAtlas_PanicsOnPixelCountMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for pixel count mismatch")
		}
	}()
	a := NewSkylineAtlas(64, 64, RGBA8{})
	a.AddImage(8, 8, make([]RGBA8, 63))
}

func TestSkylineAtlas_PanicsOnZeroDims(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero image dimensions")
		}
	}()
	a := NewSkylineAtlas(64, 64, RGBA8{})
	a.AddImage(0, 8, nil)
}

func TestSkylineAtlas_PanicsOnShrinkBelowContent(t *testing.T) {
	a := NewSkylineAtlas(64, 64, RGBA8{})
	a.AddImage(32, 48, solid(32, 48, RGBA8{}))

	defer func() {
		if recover() == nil {
			t.Error("expected panic when shrinking below occupied content")
		}
	}()
	a.SetDims(RGBA8{}, 64, 32)
}

func TestSkylineAtlas_ShrinkToOccupiedExtent(t *testing.T) {
	a := NewSkylineAtlas(128, 128, RGBA8{})
	img := pattern(40, 48, 7)
	rect, _ := a.AddImage(40, 48, img)

	a.SetDims(RGBA8{}, 40, 48)
	if a.Width() != 40 || a.Height() != 48 {
		t.Fatalf("expected 40x48 canvas, got %dx%d", a.Width(), a.Height())
	}
	if got := readRegion(a.Pixels(), a.Width(), rect); !equalPixels(got, img) {
		t.Error("content lost when shrinking to occupied extent")
	}
}

func BenchmarkSkylineAddImage(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	sizes := make([][2]int, 512)
	for i := range sizes {
		sizes[i] = [2]int{4 + rng.Intn(60), 4 + rng.Intn(60)}
	}
	img := solid(64, 64, RGBA8{255, 255, 255, 255})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a := NewSkylineAtlas(2048, 2048, RGBA8{})
		for _, s := range sizes {
			a.AddImage(s[0], s[1], img[:s[0]*s[1]])
		}
	}
}
