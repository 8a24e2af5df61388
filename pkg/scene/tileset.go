package scene

import (
	"fmt"
	"sync"

	"github.com/Faultbox/mvkit/pkg/math"
)

// TileSet is the engine tileset resource shared by the tile layers of a map.
// Atlas sources are merged in lazily and may be added from several goroutines.
type TileSet struct {
	TileSize math.Vec2i

	sources []*AtlasSource
	byName  map[string]*AtlasSource
	mu      sync.RWMutex
}

// AtlasSource is one tileset image merged into a TileSet.
type AtlasSource struct {
	ID          int
	Name        string // short name, the merge key
	Path        string // tileset document the source came from
	Texture     string // project-relative image path
	TextureSize math.Vec2i
	TileSize    math.Vec2i
	Margin      int
	Spacing     int
	Columns     int
	TileCount   int
}

// NewTileSet creates an empty tileset for the given tile size in pixels.
func NewTileSet(tileWidth, tileHeight int) *TileSet {
	return &TileSet{
		TileSize: math.Vec2i{X: tileWidth, Y: tileHeight},
		byName:   make(map[string]*AtlasSource),
	}
}

// EnsureSource returns the source named name, calling create to build it if
// it does not exist yet. Lookup and insert happen under one lock, so concurrent
// callers never add the same name twice. The source ID is assigned here.
func (ts *TileSet) EnsureSource(name string, create func() (*AtlasSource, error)) (src *AtlasSource, created bool, err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if src, ok := ts.byName[name]; ok {
		return src, false, nil
	}

	src, err = create()
	if err != nil {
		return nil, false, err
	}
	if src == nil {
		return nil, false, fmt.Errorf("atlas source %q: create returned nil", name)
	}
	src.ID = len(ts.sources)
	src.Name = name
	ts.sources = append(ts.sources, src)
	ts.byName[name] = src
	return src, true, nil
}

// Source returns the source with the given short name.
func (ts *TileSet) Source(name string) (*AtlasSource, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	src, ok := ts.byName[name]
	return src, ok
}

// Sources returns a snapshot of all sources in ID order.
func (ts *TileSet) Sources() []*AtlasSource {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]*AtlasSource, len(ts.sources))
	copy(out, ts.sources)
	return out
}

// Len returns the number of merged sources.
func (ts *TileSet) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.sources)
}

// Region returns the pixel rectangle of the tile at atlas coordinates.
func (s *AtlasSource) Region(coords math.Vec2i) math.Rect2i {
	step := math.Vec2i{X: s.TileSize.X + s.Spacing, Y: s.TileSize.Y + s.Spacing}
	return math.Rect2i{
		Position: math.Vec2i{X: s.Margin, Y: s.Margin}.Add(coords.Mul(step)),
		Size:     s.TileSize,
	}
}

// AtlasCoords maps a local tile index to its column and row.
func (s *AtlasSource) AtlasCoords(local int) math.Vec2i {
	return math.GridCoords(local, s.Columns)
}
