package templates

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"
)

// Image returns the decoded glyph image, loading and caching it on
// first use. The returned image is shared; callers must not mutate it.
func (r *Registry) Image(name string) (*image.RGBA, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("template %q not registered", name)
	}
	return r.cache.get(def.Path)
}

// CacheStats reports how the image cache has been used
type CacheStats struct {
	Hits   int64
	Misses int64
}

// Stats returns a copy of the cache counters
func (r *Registry) Stats() CacheStats {
	return r.cache.stats()
}

// imageCache holds decoded glyph images keyed by file path. Glyphs are
// small and few, so nothing is ever evicted.
type imageCache struct {
	mu     sync.Mutex
	images map[string]*image.RGBA
	hits   int64
	misses int64
}

func newImageCache() *imageCache {
	return &imageCache{images: make(map[string]*image.RGBA)}
}

func (c *imageCache) get(path string) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[path]; ok {
		c.hits++
		return img, nil
	}
	c.misses++

	img, err := loadRGBA(path)
	if err != nil {
		return nil, err
	}
	c.images[path] = img
	return img, nil
}

func (c *imageCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses}
}

// loadRGBA decodes a PNG file into RGBA form
func loadRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template image %s: %w", path, err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template image %s: %w", path, err)
	}

	if rgba, ok := decoded.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(decoded.Bounds())
	draw.Draw(rgba, rgba.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	return rgba, nil
}
