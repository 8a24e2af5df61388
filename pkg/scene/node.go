// Package scene holds the engine-side scene graph produced by the map compiler
// and encodes it as a persisted scene file.
package scene

import (
	"fmt"

	"github.com/Faultbox/mvkit/pkg/math"
)

// Kind is the engine node class of a scene node.
type Kind int

const (
	KindNode2D Kind = iota
	KindTileMapLayer
	KindSprite2D
	KindStaticBody2D
	KindArea2D
	KindCollisionPolygon2D
	KindCollisionShape2D
)

// String returns the engine class name.
func (k Kind) String() string {
	switch k {
	case KindNode2D:
		return "Node2D"
	case KindTileMapLayer:
		return "TileMapLayer"
	case KindSprite2D:
		return "Sprite2D"
	case KindStaticBody2D:
		return "StaticBody2D"
	case KindArea2D:
		return "Area2D"
	case KindCollisionPolygon2D:
		return "CollisionPolygon2D"
	case KindCollisionShape2D:
		return "CollisionShape2D"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsBody reports whether the kind is a physics body.
func (k Kind) IsBody() bool {
	return k == KindStaticBody2D || k == KindArea2D
}

// Alternative tile transform flags, stored in the alternative ID of a cell.
const (
	TransformFlipH     = 1 << 12
	TransformFlipV     = 1 << 13
	TransformTranspose = 1 << 14
)

// NodeID addresses a node inside its Tree.
type NodeID int

// NoNode is the parent of the root and the owner of unowned nodes.
const NoNode NodeID = -1

// Node is one entry of the scene arena. Kind-specific payloads are set only
// for the matching kind.
type Node struct {
	Name     string
	Kind     Kind
	Parent   NodeID
	Children []NodeID
	Owner    NodeID

	Position math.Vec2
	Rotation float32 // radians
	Hidden   bool

	// Instance is the resource path of a pre-authored template. An instanced
	// node carries no synthesized children.
	Instance string

	Metadata []Meta

	Sprite   *Sprite
	Layer    *TileLayer
	Polygon  []math.Vec2 // CollisionPolygon2D points, local
	RectSize math.Vec2   // CollisionShape2D rectangle size
}

// Meta is one custom property copied onto a node.
type Meta struct {
	Key   string
	Type  string
	Value string
}

// Sprite draws a region of a tileset atlas texture.
type Sprite struct {
	Texture string // project-relative image path
	Region  math.Rect2i
	Offset  math.Vec2
	FlipH   bool
	FlipV   bool
	FlipD   bool // anti-diagonal flip, surfaced but not applied
}

// TileLayer is the payload of a TileMapLayer node.
type TileLayer struct {
	TileSet *TileSet
	Cells   []Cell
}

// Cell is one painted grid cell.
type Cell struct {
	Coords      math.Vec2i
	SourceID    int
	AtlasCoords math.Vec2i
	Alternative int
}
