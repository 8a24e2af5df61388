package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
	"github.com/Faultbox/mvkit/pkg/tiled"
)

// MetaFlipDiagonal marks sprites whose tile carried the anti-diagonal flip bit.
const MetaFlipDiagonal = "tiled_flip_diagonal"

// object emits one node per object. Typed objects use their template when one
// exists; everything else gets a shape synthesized from the object geometry.
func (c *Compiler) object(tree *scene.Tree, parent scene.NodeID, o *tiled.Object) error {
	name := o.Name
	if name == "" {
		name = o.Type
	}
	node := scene.Node{
		Name:     name,
		Kind:     scene.KindNode2D,
		Position: math.NewVec2(o.X, o.Y),
		Rotation: math.DegToRad(o.Rotation),
		Hidden:   !o.Visible,
		Metadata: metadata(o.Properties),
	}

	if o.Type != "" {
		if res, ok := c.templates.Lookup(o.Type); ok {
			node.Instance = res
			tree.Add(parent, node)
			return nil
		}
		c.templateMiss(o)
	}

	switch o.Shape() {
	case tiled.ShapeTile:
		return c.tileObject(tree, parent, node, o)
	case tiled.ShapePolygon:
		id := tree.Add(parent, node)
		body := tree.Add(id, scene.Node{Kind: bodyKind(o.Type)})
		points := make([]math.Vec2, len(o.Polygon.Points))
		for i, p := range o.Polygon.Points {
			points[i] = math.NewVec2(p.X, p.Y)
		}
		tree.Add(body, scene.Node{Kind: scene.KindCollisionPolygon2D, Polygon: points})
	case tiled.ShapePoint:
		tree.Add(parent, node)
	case tiled.ShapeRectangle:
		id := tree.Add(parent, node)
		body := tree.Add(id, scene.Node{Kind: bodyKind(o.Type)})
		size := math.NewVec2(o.Width, o.Height)
		tree.Add(body, scene.Node{
			Kind:     scene.KindCollisionShape2D,
			Position: size.Scale(0.5),
			RectSize: size,
		})
	default:
		return fmt.Errorf("object %d: unhandled shape %s", o.ID, o.Shape())
	}
	return nil
}

func (c *Compiler) tileObject(tree *scene.Tree, parent scene.NodeID, node scene.Node, o *tiled.Object) error {
	gid := *o.GID
	tile, err := c.resolver.Lookup(gid)
	if err != nil {
		return fmt.Errorf("object %d (%s): %w", o.ID, o.Name, err)
	}

	sprite := &scene.Sprite{
		Texture: tile.Source.Texture,
		Region:  tile.Source.Region(tile.AtlasCoords),
		Offset:  math.Vec2i{X: c.tileSize.X >> 1, Y: c.tileSize.Y >> 1}.Vec2(),
		FlipH:   gid.FlippedHorizontally(),
		FlipV:   gid.FlippedVertically(),
		FlipD:   gid.FlippedDiagonally(),
	}
	spriteNode := scene.Node{Kind: scene.KindSprite2D, Sprite: sprite}
	if sprite.FlipD {
		spriteNode.Metadata = append(spriteNode.Metadata, scene.Meta{Key: MetaFlipDiagonal, Type: "bool", Value: "true"})
	}

	id := tree.Add(parent, node)
	tree.Add(id, spriteNode)
	return nil
}

func (c *Compiler) templateMiss(o *tiled.Object) {
	c.log.Warn("no template for object type, synthesizing shape",
		zap.String("type", o.Type),
		zap.Int("object_id", o.ID),
		zap.String("name", o.Name),
	)
	c.warnings = append(c.warnings, fmt.Sprintf("object %d (%s): no template for type %q", o.ID, o.Name, o.Type))
}

// bodyKind picks an area for objects typed area or area2d, a static body otherwise.
func bodyKind(objectType string) scene.Kind {
	switch strings.ToLower(objectType) {
	case "area", "area2d":
		return scene.KindArea2D
	}
	return scene.KindStaticBody2D
}

func metadata(props tiled.Properties) []scene.Meta {
	if len(props) == 0 {
		return nil
	}
	out := make([]scene.Meta, len(props))
	for i, p := range props {
		out[i] = scene.Meta{Key: p.Name, Type: p.Type, Value: p.Value}
	}
	return out
}
