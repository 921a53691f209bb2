package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
)

// ImageCache provides thread-safe caching of decoded images keyed by file path.
//
// The MCP server keeps one cache for its lifetime so a template that is matched
// against many screenshots is decoded once. Cached images stay in memory until
// Evict or Clear is called.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	tmpl, err := cache.Load("/path/to/template.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/template.png") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, and GIF. The cache key is the exact path
// string, so relative and absolute paths to one file are cached separately.
//
// # Errors
//
// A missing, unreadable or undecodable file returns a *errors.PipelineError
// with code IMAGE_LOAD_FAILED wrapping the underlying cause.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// LoadImage decodes the image at path without caching.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfterrors.NewImageLoadError(path, fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, pfterrors.NewImageLoadError(path, fmt.Errorf("failed to decode image: %w", err))
	}
	if img.Bounds().Empty() {
		return nil, pfterrors.NewImageLoadError(path, fmt.Errorf("image has no pixels"))
	}
	return img, nil
}
