package tiled

import (
	"fmt"
	"os"

	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// TileSet is an external tileset document (TSX).
type TileSet struct {
	Name            string
	Class           string
	TileWidth       int
	TileHeight      int
	Spacing         int
	Margin          int
	TileCount       int
	Columns         int
	ObjectAlignment string // unspecified, topleft, top, ..., bottomright
	TileRenderSize  string // tile, grid
	FillMode        string // stretch, preserve-aspect-fit
	Properties      Properties
	Image           *Image
	TileOffset      TileOffset
	Grid            *Grid
	Tiles           []Tile
}

// Image references a picture on disk relative to the document that declares it.
type Image struct {
	Source string
	Format string
	Trans  string
	Width  int
	Height int
}

// TileOffset shifts tiles when drawn, in pixels.
type TileOffset struct {
	X, Y int
}

// Grid describes how tile overlays are drawn for isometric tilesets.
type Grid struct {
	Orientation Orientation
	Width       int
	Height      int
}

// Tile carries per-tile metadata inside a tileset.
type Tile struct {
	ID          int
	Type        string
	Probability float64
	Properties  Properties
	Image       *Image
	ObjectGroup *ObjectGroup // collision shapes drawn in the tile collision editor
}

// ParseTileSet decodes a TSX document from raw bytes.
func ParseTileSet(data []byte) (*TileSet, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return DecodeTileSet(root)
}

// ParseTileSetFile decodes a TSX document from disk.
func ParseTileSetFile(path string) (*TileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TSX file: %w", err)
	}
	return ParseTileSet(data)
}

// DecodeTileSet decodes a <tileset> root element of a TSX document.
func DecodeTileSet(el *xmltree.Element) (*TileSet, error) {
	if err := expect(el, "tileset"); err != nil {
		return nil, err
	}
	r := attrs(el)
	ts := &TileSet{
		Name:            r.str("name"),
		Class:           r.str("class"),
		TileWidth:       r.intOr("tilewidth", 0),
		TileHeight:      r.intOr("tileheight", 0),
		Spacing:         r.intOr("spacing", 0),
		Margin:          r.intOr("margin", 0),
		TileCount:       r.intOr("tilecount", 0),
		Columns:         r.intOr("columns", 0),
		ObjectAlignment: r.str("objectalignment"),
		TileRenderSize:  r.str("tilerendersize"),
		FillMode:        r.str("fillmode"),
	}
	if r.err != nil {
		return nil, r.err
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return nil, err
			}
			ts.Properties = append(ts.Properties, props...)
		case "image":
			img, err := DecodeImage(child)
			if err != nil {
				return nil, err
			}
			ts.Image = &img
		case "tileoffset":
			cr := attrs(child)
			ts.TileOffset = TileOffset{X: cr.intOr("x", 0), Y: cr.intOr("y", 0)}
			if cr.err != nil {
				return nil, cr.err
			}
		case "grid":
			grid, err := decodeGrid(child)
			if err != nil {
				return nil, err
			}
			ts.Grid = &grid
		case "tile":
			tile, err := DecodeTile(child)
			if err != nil {
				return nil, err
			}
			ts.Tiles = append(ts.Tiles, tile)
		}
		// terraintypes, wangsets and transformations are not used by the importer
	}
	return ts, nil
}

// DecodeImage decodes an <image> element.
func DecodeImage(el *xmltree.Element) (Image, error) {
	if err := expect(el, "image"); err != nil {
		return Image{}, err
	}
	r := attrs(el)
	img := Image{
		Source: r.required("source"),
		Format: r.str("format"),
		Trans:  r.str("trans"),
		Width:  r.intOr("width", 0),
		Height: r.intOr("height", 0),
	}
	if r.err != nil {
		return Image{}, r.err
	}
	return img, nil
}

// DecodeTile decodes a <tile> element of a tileset.
func DecodeTile(el *xmltree.Element) (Tile, error) {
	if err := expect(el, "tile"); err != nil {
		return Tile{}, err
	}
	r := attrs(el)
	tile := Tile{
		ID:          r.intOr("id", 0),
		Type:        r.str("type"),
		Probability: r.floatOr("probability", 0),
	}
	if tile.Type == "" {
		tile.Type = r.str("class")
	}
	if r.err != nil {
		return Tile{}, r.err
	}

	for _, child := range el.Children {
		switch child.Name {
		case "properties":
			props, err := decodeProperties(child)
			if err != nil {
				return Tile{}, err
			}
			tile.Properties = append(tile.Properties, props...)
		case "image":
			img, err := DecodeImage(child)
			if err != nil {
				return Tile{}, err
			}
			tile.Image = &img
		case "objectgroup":
			og, err := DecodeObjectGroup(child)
			if err != nil {
				return Tile{}, err
			}
			tile.ObjectGroup = &og
		}
	}
	return tile, nil
}

// decodeGrid falls back to orthogonal for unknown orientations.
func decodeGrid(el *xmltree.Element) (Grid, error) {
	r := attrs(el)
	grid := Grid{
		Width:  r.intOr("width", 0),
		Height: r.intOr("height", 0),
	}
	if r.err != nil {
		return Grid{}, r.err
	}
	if o, err := ParseOrientation(r.str("orientation")); err == nil {
		grid.Orientation = o
	}
	return grid, nil
}
