package tileset

import (
	"errors"
	"fmt"

	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

// Resolver errors.
var (
	ErrMissingTileSetSource = tiled.ErrMissingTileSetSource
	ErrInvalidFirstGID      = errors.New("invalid first global tile id")
	ErrUnresolvedGID        = errors.New("global tile id matches no tileset")
	ErrUnknownTileSet       = errors.New("tileset not merged into atlas")
)

type firstGIDEntry struct {
	firstGID uint32
	name     string
}

// Resolver maps global tile IDs to a tileset short name and local tile index.
// It is built once per import and only read afterwards.
type Resolver struct {
	entries []firstGIDEntry
	tileSet *scene.TileSet
}

// Tile is a fully resolved tile reference.
type Tile struct {
	GID         tiled.GID
	Name        string
	Local       int
	Source      *scene.AtlasSource
	AtlasCoords math.Vec2i
}

// NewResolver indexes the tileset references of a map. The atlas sources they
// name are looked up in ts when tiles are resolved.
func NewResolver(refs []tiled.TileSetRef, ts *scene.TileSet) (*Resolver, error) {
	r := &Resolver{tileSet: ts}
	seen := make(map[uint32]string, len(refs))
	for _, ref := range refs {
		if ref.Source == "" {
			return nil, fmt.Errorf("%w for first-global-ID %s", ErrMissingTileSetSource, ref.FirstGID)
		}
		first, err := ref.ParseFirstGID()
		if err != nil {
			return nil, fmt.Errorf("tileset %s: %w: %v", ref.Source, ErrInvalidFirstGID, err)
		}
		if first == 0 {
			return nil, fmt.Errorf("tileset %s: %w: first-global-ID must be positive", ref.Source, ErrInvalidFirstGID)
		}
		if prev, ok := seen[first]; ok {
			return nil, fmt.Errorf("tileset %s: %w: first-global-ID %d already used by %s",
				ref.Source, ErrInvalidFirstGID, first, prev)
		}
		seen[first] = ref.Source
		r.entries = append(r.entries, firstGIDEntry{firstGID: first, name: ShortName(ref.Source)})
	}
	return r, nil
}

// Resolve returns the short name and local tile index for a global tile ID
// without flag bits. The owning tileset is the one with the greatest
// first-global-ID not above gid; declaration order does not matter.
func (r *Resolver) Resolve(gid uint32) (name string, local int, err error) {
	best := -1
	for i, e := range r.entries {
		if e.firstGID <= gid && (best < 0 || e.firstGID > r.entries[best].firstGID) {
			best = i
		}
	}
	if best < 0 {
		return "", 0, fmt.Errorf("%w: %d", ErrUnresolvedGID, gid)
	}
	e := r.entries[best]
	return e.name, int(gid - e.firstGID), nil
}

// Columns returns the atlas column count of a merged tileset.
func (r *Resolver) Columns(name string) (int, error) {
	src, err := r.source(name)
	if err != nil {
		return 0, err
	}
	return src.Columns, nil
}

// SourceID returns the atlas source ID of a merged tileset.
func (r *Resolver) SourceID(name string) (int, error) {
	src, err := r.source(name)
	if err != nil {
		return 0, err
	}
	return src.ID, nil
}

func (r *Resolver) source(name string) (*scene.AtlasSource, error) {
	if r.tileSet != nil {
		if src, ok := r.tileSet.Source(name); ok {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTileSet, name)
}

// TileSet returns the engine tileset the resolver reads from.
func (r *Resolver) TileSet() *scene.TileSet {
	return r.tileSet
}

// AtlasCoords converts a local tile index into a column and row, row-major.
func AtlasCoords(local, columns int) math.Vec2i {
	return math.GridCoords(local, columns)
}

// Lookup resolves a raw global tile ID, ignoring its flag bits.
func (r *Resolver) Lookup(gid tiled.GID) (Tile, error) {
	name, local, err := r.Resolve(gid.TileID())
	if err != nil {
		return Tile{}, err
	}
	src, err := r.source(name)
	if err != nil {
		return Tile{}, err
	}
	return Tile{
		GID:         gid,
		Name:        name,
		Local:       local,
		Source:      src,
		AtlasCoords: AtlasCoords(local, src.Columns),
	}, nil
}
