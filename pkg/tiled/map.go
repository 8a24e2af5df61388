package tiled

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Map is a decoded TMX document.
type Map struct {
	Version         string
	TiledVersion    string
	Class           string
	Orientation     Orientation
	RenderOrder     string
	Width           int // in tiles
	Height          int // in tiles
	TileWidth       int // in pixels
	TileHeight      int // in pixels
	Infinite        bool
	BackgroundColor string
	Properties      Properties
	TileSets        []TileSetRef
	Layers          []Layer
	Groups          []Group
	ObjectGroups    []ObjectGroup
}

// TileSetRef is a <tileset> entry in a map pointing at an external TSX file.
type TileSetRef struct {
	FirstGID string
	Source   string
}

// ParseFirstGID converts the first-global-ID attribute.
func (r TileSetRef) ParseFirstGID() (uint32, error) {
	n, err := strconv.ParseUint(r.FirstGID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: firstgid %q", ErrInvalidAttribute, r.FirstGID)
	}
	return uint32(n), nil
}

// ParseMap decodes a TMX document from raw bytes.
func ParseMap(data []byte) (*Map, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return DecodeMap(root)
}

// ParseMapFile decodes a TMX document from disk.
func ParseMapFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TMX file: %w", err)
	}
	return ParseMap(data)
}

// DecodeMap decodes a <map> element.
func DecodeMap(el *xmltree.Element) (*Map, error) {
	if err := expect(el, "map"); err != nil {
		return nil, err
	}

	r := attrs(el)
	m := &Map{
		Version:         r.str("version"),
		TiledVersion:    r.str("tiledversion"),
		Class:           r.str("class"),
		RenderOrder:     r.str("renderorder"),
		Width:           r.sizeOr("width", 0),
		Height:          r.sizeOr("height", 0),
		TileWidth:       r.sizeOr("tilewidth", 0),
		TileHeight:      r.sizeOr("tileheight", 0),
		Infinite:        r.boolOr("infinite", false),
		BackgroundColor: r.str("backgroundcolor"),
	}
	orientation := r.required("orientation")
	if r.err != nil {
		return nil, r.err
	}
	o, err := ParseOrientation(orientation)
	if err != nil {
		return nil, newDecodeError(el, "orientation", err)
	}
	m.Orientation = o

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return nil, err
			}
			m.Properties = append(m.Properties, props...)
		case "tileset":
			ref, err := DecodeTileSetRef(child)
			if err != nil {
				return nil, err
			}
			m.TileSets = append(m.TileSets, ref)
		case "layer":
			layer, err := DecodeLayer(child)
			if err != nil {
				return nil, err
			}
			m.Layers = append(m.Layers, layer)
		case "objectgroup":
			og, err := DecodeObjectGroup(child)
			if err != nil {
				return nil, err
			}
			m.ObjectGroups = append(m.ObjectGroups, og)
		case "group":
			g, err := DecodeGroup(child)
			if err != nil {
				return nil, err
			}
			m.Groups = append(m.Groups, g)
		}
		// imagelayer, editorsettings and anything newer are ignored
	}

	return m, nil
}

// DecodeTileSetRef decodes a <tileset> element inside a map.
// Both firstgid and source are required.
func DecodeTileSetRef(el *xmltree.Element) (TileSetRef, error) {
	if err := expect(el, "tileset"); err != nil {
		return TileSetRef{}, err
	}
	r := attrs(el)
	ref := TileSetRef{
		FirstGID: r.required("firstgid"),
	}
	if r.err != nil {
		return TileSetRef{}, r.err
	}
	if _, err := ref.ParseFirstGID(); err != nil {
		return TileSetRef{}, newDecodeError(el, "firstgid", err)
	}
	src, ok := el.Attr("source")
	if !ok || src == "" {
		return TileSetRef{}, newDecodeError(el, "source",
			fmt.Errorf("%w for first-global-ID %s", ErrMissingTileSetSource, ref.FirstGID))
	}
	ref.Source = src
	return ref, nil
}
