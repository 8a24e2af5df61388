// Package collision places the static colliders of a compiled scene into a
// resolv space and reports colliders that overlap each other. Overlapping
// static geometry is legal but usually a mapping mistake.
package collision

import (
	stdmath "math"
	"sort"

	"github.com/solarlune/resolv"

	"github.com/Faultbox/mvkit/pkg/math"
	"github.com/Faultbox/mvkit/pkg/scene"
)

const (
	tagStatic = "static"

	// DefaultCellSize is the broad-phase cell edge in pixels.
	DefaultCellSize = 16
)

// Collider is a rectangle collider in scene (root) coordinates.
type Collider struct {
	Node scene.NodeID
	Path string
	Rect math.Rect2
}

// Overlap is a pair of static colliders whose rectangles share area.
type Overlap struct {
	A, B Collider
}

// Space indexes the static rectangle colliders of one scene tree.
type Space struct {
	space     *resolv.Space
	colliders []Collider
	objects   map[*resolv.Object]int
}

// BuildSpace collects every CollisionShape2D whose parent is a StaticBody2D.
// Positions are summed up the tree; rotation is ignored. A cellSize of zero
// or less uses DefaultCellSize.
func BuildSpace(tree *scene.Tree, cellSize int) *Space {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	s := &Space{objects: make(map[*resolv.Object]int)}

	tree.Walk(func(id scene.NodeID, _ int) bool {
		n := tree.Node(id)
		if n.Kind != scene.KindCollisionShape2D || n.Parent == scene.NoNode {
			return true
		}
		if tree.Node(n.Parent).Kind != scene.KindStaticBody2D {
			return true
		}
		// Shapes are centered on their node position.
		center := tree.GlobalPosition(id)
		s.colliders = append(s.colliders, Collider{
			Node: id,
			Path: tree.Path(id),
			Rect: math.Rect2{Position: center.Sub(n.RectSize.Scale(0.5)), Size: n.RectSize},
		})
		return true
	})

	if len(s.colliders) == 0 {
		return s
	}

	// resolv cells start at zero, so shift everything into positive space.
	minX, minY := stdmath.Inf(1), stdmath.Inf(1)
	maxX, maxY := stdmath.Inf(-1), stdmath.Inf(-1)
	for _, c := range s.colliders {
		end := c.Rect.End()
		minX = stdmath.Min(minX, float64(c.Rect.Position.X))
		minY = stdmath.Min(minY, float64(c.Rect.Position.Y))
		maxX = stdmath.Max(maxX, float64(end.X))
		maxY = stdmath.Max(maxY, float64(end.Y))
	}
	width := int(stdmath.Ceil(maxX-minX)) + 2*cellSize
	height := int(stdmath.Ceil(maxY-minY)) + 2*cellSize
	s.space = resolv.NewSpace(width, height, cellSize, cellSize)

	for i, c := range s.colliders {
		x := float64(c.Rect.Position.X) - minX + float64(cellSize)
		y := float64(c.Rect.Position.Y) - minY + float64(cellSize)
		w, h := float64(c.Rect.Size.X), float64(c.Rect.Size.Y)
		obj := resolv.NewObject(x, y, w, h, tagStatic)
		obj.SetShape(resolv.NewRectangle(0, 0, w, h))
		s.space.Add(obj)
		s.objects[obj] = i
	}
	return s
}

// Colliders returns the indexed colliders in tree order.
func (s *Space) Colliders() []Collider {
	return s.colliders
}

// Overlaps returns every pair of colliders that overlap with positive area,
// each pair once, ordered by the tree position of the first collider.
// Colliders that only touch along an edge are not reported.
func (s *Space) Overlaps() []Overlap {
	var out []Overlap
	for obj, i := range s.objects {
		check := obj.Check(0, 0, tagStatic)
		if check == nil {
			continue
		}
		seen := make(map[int]bool)
		for _, other := range check.ObjectsByTags(tagStatic) {
			j, ok := s.objects[other]
			if !ok || j <= i || seen[j] {
				continue
			}
			seen[j] = true
			if s.colliders[i].Rect.Intersects(s.colliders[j].Rect) {
				out = append(out, Overlap{A: s.colliders[i], B: s.colliders[j]})
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].A.Node != out[b].A.Node {
			return out[a].A.Node < out[b].A.Node
		}
		return out[a].B.Node < out[b].B.Node
	})
	return out
}
