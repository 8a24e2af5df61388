// Package compiler turns a decoded Tiled map into an engine scene tree.
package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mvkit/internal/tileset"
	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

// TemplateLibrary finds pre-authored scenes for object types.
type TemplateLibrary interface {
	// Lookup returns the project-relative path of the template scene for
	// objectType, or false when there is none.
	Lookup(objectType string) (string, bool)
}

// NoTemplates is a TemplateLibrary without any templates.
type NoTemplates struct{}

// Lookup implements TemplateLibrary.
func (NoTemplates) Lookup(string) (string, bool) { return "", false }

// Compiler builds scene trees. A Compiler belongs to one import run and is
// not safe for concurrent use.
type Compiler struct {
	resolver  *tileset.Resolver
	templates TemplateLibrary
	log       *zap.Logger

	tileSize math.Vec2i
	warnings []string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for template resolution warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a compiler resolving tiles through resolver. A nil templates
// library means no object type has a template.
func New(resolver *tileset.Resolver, templates TemplateLibrary, opts ...Option) *Compiler {
	if templates == nil {
		templates = NoTemplates{}
	}
	c := &Compiler{
		resolver:  resolver,
		templates: templates,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warnings returns the non-fatal problems found by the last Compile call.
func (c *Compiler) Warnings() []string {
	return c.warnings
}

// Compile builds the scene tree for m under a root node named rootName.
// Tile layers come first, then groups, then object groups, each in document order.
// Every node below the root is owned by the root.
func (c *Compiler) Compile(m *tiled.Map, rootName string) (*scene.Tree, error) {
	c.warnings = nil
	c.tileSize = math.Vec2i{X: m.TileWidth, Y: m.TileHeight}

	tree := scene.NewTree(rootName, scene.KindNode2D)
	root := tree.Root()
	tree.Node(root).Metadata = metadata(m.Properties)

	for i := range m.Layers {
		if err := c.tileLayer(tree, root, &m.Layers[i]); err != nil {
			return nil, err
		}
	}
	for i := range m.Groups {
		if err := c.group(tree, root, &m.Groups[i]); err != nil {
			return nil, err
		}
	}
	for i := range m.ObjectGroups {
		if err := c.objectGroup(tree, root, &m.ObjectGroups[i]); err != nil {
			return nil, err
		}
	}

	tree.AssignOwner(root)
	return tree, nil
}

func (c *Compiler) tileLayer(tree *scene.Tree, parent scene.NodeID, l *tiled.Layer) error {
	gids, err := l.CellGIDs()
	if err != nil {
		return err
	}

	layer := &scene.TileLayer{TileSet: c.resolver.TileSet()}
	for i, gid := range gids {
		if gid.IsEmpty() {
			continue
		}
		tile, err := c.resolver.Lookup(gid)
		if err != nil {
			return fmt.Errorf("layer %q cell %d: %w", l.Name, i, err)
		}
		layer.Cells = append(layer.Cells, scene.Cell{
			Coords:      math.GridCoords(i, l.Width),
			SourceID:    tile.Source.ID,
			AtlasCoords: tile.AtlasCoords,
			Alternative: alternative(gid),
		})
	}

	tree.Add(parent, scene.Node{
		Name:     l.Name,
		Kind:     scene.KindTileMapLayer,
		Position: math.NewVec2(l.OffsetX, l.OffsetY),
		Hidden:   !l.Visible,
		Metadata: metadata(l.Properties),
		Layer:    layer,
	})
	return nil
}

// alternative maps flip bits onto the cell transform flags.
func alternative(gid tiled.GID) int {
	alt := 0
	if gid.FlippedHorizontally() {
		alt |= scene.TransformFlipH
	}
	if gid.FlippedVertically() {
		alt |= scene.TransformFlipV
	}
	if gid.FlippedDiagonally() {
		alt |= scene.TransformTranspose
	}
	return alt
}

func (c *Compiler) group(tree *scene.Tree, parent scene.NodeID, g *tiled.Group) error {
	id := tree.Add(parent, scene.Node{
		Name:     g.Name,
		Kind:     scene.KindNode2D,
		Position: math.NewVec2(g.OffsetX, g.OffsetY),
		Hidden:   !g.Visible,
		Metadata: metadata(g.Properties),
	})

	for i := range g.Layers {
		if err := c.tileLayer(tree, id, &g.Layers[i]); err != nil {
			return err
		}
	}
	for i := range g.ObjectGroups {
		if err := c.objectGroup(tree, id, &g.ObjectGroups[i]); err != nil {
			return err
		}
	}
	for i := range g.Groups {
		if err := c.group(tree, id, &g.Groups[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) objectGroup(tree *scene.Tree, parent scene.NodeID, og *tiled.ObjectGroup) error {
	id := tree.Add(parent, scene.Node{
		Name:     og.Name,
		Kind:     scene.KindNode2D,
		Position: math.NewVec2(og.OffsetX, og.OffsetY),
		Hidden:   !og.Visible,
		Metadata: metadata(og.Properties),
	})

	for i := range og.Objects {
		if err := c.object(tree, id, &og.Objects[i]); err != nil {
			return fmt.Errorf("object group %q: %w", og.Name, err)
		}
	}
	return nil
}
