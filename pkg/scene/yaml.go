package scene

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLEncoder dumps the tree as a YAML document, meant for reviewing and
// diffing imports rather than loading them in the engine.
type YAMLEncoder struct {
	ResourcePrefix string
}

// Ext implements Encoder.
func (e *YAMLEncoder) Ext() string { return "yaml" }

type yamlDocument struct {
	TileSets []yamlTileSet `yaml:"tilesets,omitempty"`
	Root     *yamlNode     `yaml:"root"`
}

type yamlTileSet struct {
	TileSize [2]int       `yaml:"tile_size,flow"`
	Sources  []yamlSource `yaml:"sources"`
}

type yamlSource struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Texture  string `yaml:"texture"`
	TileSize [2]int `yaml:"tile_size,flow"`
	Margin   int    `yaml:"margin,omitempty"`
	Spacing  int    `yaml:"spacing,omitempty"`
	Columns  int    `yaml:"columns"`
	Tiles    int    `yaml:"tile_count,omitempty"`
}

type yamlNode struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type,omitempty"`
	Instance string            `yaml:"instance,omitempty"`
	Position *[2]float32       `yaml:"position,flow,omitempty"`
	Rotation float32           `yaml:"rotation,omitempty"`
	Visible  *bool             `yaml:"visible,omitempty"`
	TileSet  *int              `yaml:"tileset,omitempty"`
	Cells    [][6]int          `yaml:"cells,omitempty,flow"`
	Sprite   *yamlSprite       `yaml:"sprite,omitempty"`
	Polygon  [][2]float32      `yaml:"polygon,omitempty,flow"`
	Size     *[2]float32       `yaml:"size,flow,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Children []*yamlNode       `yaml:"children,omitempty"`
}

type yamlSprite struct {
	Texture string     `yaml:"texture"`
	Region  [4]int     `yaml:"region,flow"`
	Offset  [2]float32 `yaml:"offset,flow"`
	FlipH   bool       `yaml:"flip_h,omitempty"`
	FlipV   bool       `yaml:"flip_v,omitempty"`
	FlipD   bool       `yaml:"flip_d,omitempty"`
}

// Encode implements Encoder.
func (e *YAMLEncoder) Encode(w io.Writer, t *Tree) error {
	doc := yamlDocument{}
	tileSets := make(map[*TileSet]int)

	var build func(id NodeID) *yamlNode
	build = func(id NodeID) *yamlNode {
		n := t.Node(id)
		yn := &yamlNode{Name: n.Name, Rotation: n.Rotation}
		if n.Instance != "" {
			yn.Instance = resourcePath(e.ResourcePrefix, n.Instance)
		} else {
			yn.Type = n.Kind.String()
		}
		if !n.Position.IsZero() {
			yn.Position = &[2]float32{n.Position.X, n.Position.Y}
		}
		if n.Hidden {
			visible := false
			yn.Visible = &visible
		}
		if n.Layer != nil {
			if ts := n.Layer.TileSet; ts != nil {
				idx, ok := tileSets[ts]
				if !ok {
					idx = len(doc.TileSets)
					tileSets[ts] = idx
					doc.TileSets = append(doc.TileSets, e.tileSet(ts))
				}
				yn.TileSet = &idx
			}
			for _, c := range n.Layer.Cells {
				yn.Cells = append(yn.Cells, [6]int{c.Coords.X, c.Coords.Y, c.SourceID, c.AtlasCoords.X, c.AtlasCoords.Y, c.Alternative})
			}
		}
		if s := n.Sprite; s != nil {
			yn.Sprite = &yamlSprite{
				Texture: resourcePath(e.ResourcePrefix, s.Texture),
				Region:  [4]int{s.Region.Position.X, s.Region.Position.Y, s.Region.Size.X, s.Region.Size.Y},
				Offset:  [2]float32{s.Offset.X, s.Offset.Y},
				FlipH:   s.FlipH,
				FlipV:   s.FlipV,
				FlipD:   s.FlipD,
			}
		}
		for _, p := range n.Polygon {
			yn.Polygon = append(yn.Polygon, [2]float32{p.X, p.Y})
		}
		if n.Kind == KindCollisionShape2D {
			yn.Size = &[2]float32{n.RectSize.X, n.RectSize.Y}
		}
		if len(n.Metadata) > 0 {
			yn.Metadata = make(map[string]string, len(n.Metadata))
			for _, m := range n.Metadata {
				yn.Metadata[m.Key] = m.Value
			}
		}
		for _, c := range n.Children {
			if persisted(t, t.Root(), c) {
				yn.Children = append(yn.Children, build(c))
			}
		}
		return yn
	}
	doc.Root = build(t.Root())

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding yaml scene: %w", err)
	}
	return enc.Close()
}

func (e *YAMLEncoder) tileSet(ts *TileSet) yamlTileSet {
	out := yamlTileSet{TileSize: [2]int{ts.TileSize.X, ts.TileSize.Y}}
	for _, src := range ts.Sources() {
		out.Sources = append(out.Sources, yamlSource{
			ID:       src.ID,
			Name:     src.Name,
			Texture:  resourcePath(e.ResourcePrefix, src.Texture),
			TileSize: [2]int{src.TileSize.X, src.TileSize.Y},
			Margin:   src.Margin,
			Spacing:  src.Spacing,
			Columns:  src.Columns,
			Tiles:    src.TileCount,
		})
	}
	return out
}
