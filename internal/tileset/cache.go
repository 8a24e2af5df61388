// Package tileset merges external Tiled tilesets into engine tileset resources
// and resolves global tile IDs against them.
package tileset

import (
	"sync"

	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
)

// Cache keeps one engine tileset per tile size. It is safe for concurrent use.
type Cache struct {
	tilesets map[math.Vec2i]*scene.TileSet
	mu       sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		tilesets: make(map[math.Vec2i]*scene.TileSet),
	}
}

// Touch returns the tileset for the given tile size, creating it on first use.
func (c *Cache) Touch(tileWidth, tileHeight int) *scene.TileSet {
	key := math.Vec2i{X: tileWidth, Y: tileHeight}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.tilesets[key]; ok {
		c.hits++
		return ts
	}
	c.misses++
	ts := scene.NewTileSet(tileWidth, tileHeight)
	c.tilesets[key] = ts
	return ts
}

// Len returns the number of cached tilesets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tilesets)
}

// Clear drops all cached tilesets.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tilesets = make(map[math.Vec2i]*scene.TileSet)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
