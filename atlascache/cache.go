// Package atlascache maps application-level keys to regions of a texture
// atlas, inserting pixel data lazily on cache miss, growing the canvas on
// overflow, and reclaiming space with frame-based eviction.
//
// A Cache wraps a skyline atlas and follows its ownership model: one
// caller, synchronous operations, no internal locking. The intended use
// is a render loop that calls Get during drawing, NextFrame once per
// frame, and Maintain occasionally off the hot path.
package atlascache

import (
	"errors"
	"fmt"

	"github.com/gogpu/atlas"
)

// ErrAtlasFull is returned when an image cannot be placed even after
// growing the canvas to its configured maximum dimensions. The caller can
// Maintain to evict stale entries, or drop the image.
var ErrAtlasFull = errors.New("atlascache: atlas is full")

// Default configuration values.
const (
	DefaultSize          = 512
	DefaultMaxSize       = 4096
	DefaultFrameLifetime = 64
)

// Config holds cache configuration.
type Config[P any] struct {
	// Width and Height are the initial canvas dimensions.
	// Default: 512x512.
	Width, Height int

	// MaxWidth and MaxHeight cap canvas growth. Once reached, Get
	// returns ErrAtlasFull instead of growing. Default: 4096x4096.
	MaxWidth, MaxHeight int

	// Background is the fill pixel for empty canvas area.
	Background P

	// FrameLifetime is the number of frames an entry can go unused
	// before Maintain evicts it. Default: 64.
	FrameLifetime int
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig[P any]() Config[P] {
	return Config[P]{
		Width:         DefaultSize,
		Height:        DefaultSize,
		MaxWidth:      DefaultMaxSize,
		MaxHeight:     DefaultMaxSize,
		FrameLifetime: DefaultFrameLifetime,
	}
}

// Validate checks the configuration.
func (c *Config[P]) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return &ConfigError{Field: "Width/Height", Reason: "must be positive"}
	}
	if c.MaxWidth < c.Width || c.MaxHeight < c.Height {
		return &ConfigError{Field: "MaxWidth/MaxHeight", Reason: "must be at least the initial dimensions"}
	}
	if c.FrameLifetime < 1 {
		return &ConfigError{Field: "FrameLifetime", Reason: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlascache: invalid config." + e.Field + ": " + e.Reason
}

// LoadFunc produces the pixel data for a missing key. It returns the
// image dimensions and exactly width*height row-major pixels.
type LoadFunc[P any] func() (width, height int, pixels []P, err error)

// Stats holds cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Grows     uint64
}

// entry is a cached image. The source pixels are retained so Maintain can
// re-blit survivors when it compacts the atlas.
type entry[P any] struct {
	rect      atlas.Region
	pixels    []P
	lastFrame uint64
}

// Cache maps keys to atlas regions, loading and placing pixel data on
// first use.
type Cache[K comparable, P any] struct {
	atlas   *atlas.SkylineAtlas[P]
	config  Config[P]
	entries map[K]*entry[P]

	// order lists keys by insertion so Maintain compacts in a stable
	// order; map iteration would make repacked layouts vary run to run.
	order []K

	frame uint64
	stats Stats
}

// New creates a cache with the given configuration.
func New[K comparable, P any](config Config[P]) (*Cache[K, P], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Cache[K, P]{
		atlas:   atlas.NewSkylineAtlas(config.Width, config.Height, config.Background),
		config:  config,
		entries: make(map[K]*entry[P]),
	}, nil
}

// Get returns the region holding the image for key, loading and inserting
// it on first use. On overflow the canvas grows, doubling the dimension
// that blocked the insertion, up to the configured maximum; existing
// regions stay valid across growth. Returns ErrAtlasFull when the image
// cannot be placed within the maximum dimensions.
func (c *Cache[K, P]) Get(key K, load LoadFunc[P]) (atlas.Region, error) {
	if e, ok := c.entries[key]; ok {
		e.lastFrame = c.frame
		c.stats.Hits++
		return e.rect, nil
	}
	c.stats.Misses++

	width, height, pixels, err := load()
	if err != nil {
		return atlas.Region{}, fmt.Errorf("atlascache: load for %v: %w", key, err)
	}

	rect, err := c.insert(width, height, pixels)
	if err != nil {
		return atlas.Region{}, err
	}
	c.entries[key] = &entry[P]{rect: rect, pixels: pixels, lastFrame: c.frame}
	c.order = append(c.order, key)
	return rect, nil
}

// insert places an image, growing the canvas as needed.
func (c *Cache[K, P]) insert(width, height int, pixels []P) (atlas.Region, error) {
	for {
		if rect, ok := c.atlas.AddImage(width, height, pixels); ok {
			return rect, nil
		}

		newW, newH := c.atlas.Width(), c.atlas.Height()
		switch {
		case width > newW:
			newW *= 2
		case height > newH:
			newH *= 2
		default:
			// The image fits each axis on its own, so the packed
			// content is what blocks it: add rows.
			newH *= 2
		}
		if newW > c.config.MaxWidth || newH > c.config.MaxHeight {
			return atlas.Region{}, ErrAtlasFull
		}

		c.atlas.SetDims(c.config.Background, newW, newH)
		c.stats.Grows++
	}
}

// NextFrame advances the frame counter. Entries touched by Get during a
// frame are stamped with it; Maintain uses the stamps to find stale
// entries.
func (c *Cache[K, P]) NextFrame() {
	c.frame++
}

// Maintain evicts entries that have gone unused for longer than the
// configured frame lifetime, then compacts the surviving images into a
// denser layout. Regions returned by earlier Get calls for surviving keys
// remain correct: Maintain rewrites the cache's own records, and the next
// Get returns the updated region.
//
// Maintain is O(entries) plus a full repack and belongs off any
// latency-sensitive path.
func (c *Cache[K, P]) Maintain() {
	evicted := 0
	kept := c.order[:0]
	for _, key := range c.order {
		e := c.entries[key]
		if c.frame-e.lastFrame > uint64(c.config.FrameLifetime) {
			delete(c.entries, key)
			evicted++
		} else {
			kept = append(kept, key)
		}
	}
	c.order = kept
	c.stats.Evictions += uint64(evicted)
	if evicted == 0 {
		return
	}

	items := make([]atlas.CompactItem[P], 0, len(c.order))
	for _, key := range c.order {
		e := c.entries[key]
		items = append(items, atlas.CompactItem[P]{Rect: e.rect, Pixels: e.pixels})
	}
	c.atlas.Compact(items)
	for i, key := range c.order {
		c.entries[key].rect = items[i].Rect
	}

	atlas.Logger().Debug("atlascache: maintained",
		"evicted", evicted, "live", len(c.order), "frame", c.frame)
}

// Pixels returns the atlas canvas pixels, row-major. Read-only;
// invalidated by the next Get or Maintain.
func (c *Cache[K, P]) Pixels() []P { return c.atlas.Pixels() }

// Width returns the current canvas width in pixels.
func (c *Cache[K, P]) Width() int { return c.atlas.Width() }

// Height returns the current canvas height in pixels.
func (c *Cache[K, P]) Height() int { return c.atlas.Height() }

// Len returns the number of cached entries.
func (c *Cache[K, P]) Len() int { return len(c.entries) }

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, P]) Stats() Stats { return c.stats }
