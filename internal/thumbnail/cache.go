package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BlobStore persists resized thumbnails between runs
type BlobStore interface {
	GetThumbnail(key string) ([]byte, bool)
	SaveThumbnail(key string, data []byte) error
}

// Cache is a two-tier thumbnail cache: decoded images in an LRU, PNG bytes
// in the blob store.
type Cache struct {
	mem    *lru.Cache[string, image.Image]
	blobs  BlobStore
	logger *slog.Logger
}

// NewCache creates a cache holding up to maxItems decoded images
func NewCache(maxItems int, blobs BlobStore, logger *slog.Logger) (*Cache, error) {
	if maxItems <= 0 {
		maxItems = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	mem, err := lru.New[string, image.Image](maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Cache{mem: mem, blobs: blobs, logger: logger}, nil
}

// Get returns the image for key, promoting blob hits into memory
func (c *Cache) Get(key string) (image.Image, bool) {
	if img, ok := c.mem.Get(key); ok {
		return img, true
	}
	if c.blobs == nil {
		return nil, false
	}
	data, ok := c.blobs.GetThumbnail(key)
	if !ok {
		return nil, false
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		c.logger.Warn("dropping corrupt cached thumbnail", "key", key, "error", err)
		return nil, false
	}
	c.mem.Add(key, img)
	return img, true
}

// Put stores the image in both tiers
func (c *Cache) Put(key string, img image.Image) {
	c.mem.Add(key, img)
	if c.blobs == nil {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.logger.Error("failed to encode thumbnail", "key", key, "error", err)
		return
	}
	if err := c.blobs.SaveThumbnail(key, buf.Bytes()); err != nil {
		c.logger.Error("failed to persist thumbnail", "key", key, "error", err)
	}
}

// Len returns the number of images held in memory
func (c *Cache) Len() int {
	return c.mem.Len()
}

// Purge empties the memory tier
func (c *Cache) Purge() {
	c.mem.Purge()
}
