package scene

import (
	"strconv"
	"strings"

	"github.com/Faultbox/mvkit/pkg/math"
)

// Tree is an arena of nodes. Node 0 is the root.
type Tree struct {
	nodes []Node
	names map[NodeID]*siblingNames
}

// siblingNames indexes the child names of one parent. next holds the first
// suffix worth trying for a base name.
type siblingNames struct {
	taken map[string]bool
	next  map[string]int
}

// NewTree creates a tree holding only a root node.
func NewTree(rootName string, kind Kind) *Tree {
	t := &Tree{names: make(map[NodeID]*siblingNames)}
	t.nodes = append(t.nodes, Node{
		Name:   sanitizeName(rootName, kind),
		Kind:   kind,
		Parent: NoNode,
		Owner:  NoNode,
	})
	return t
}

// Root returns the root node ID.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID. The pointer stays valid until the next Add.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Add appends n as the last child of parent and returns its ID. Empty names
// fall back to the kind name; names already used by a sibling get a numeric suffix.
func (t *Tree) Add(parent NodeID, n Node) NodeID {
	id := NodeID(len(t.nodes))
	n.Name = t.uniqueName(parent, sanitizeName(n.Name, n.Kind))
	n.Parent = parent
	n.Owner = NoNode
	n.Children = nil
	t.nodes = append(t.nodes, n)
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

func (t *Tree) uniqueName(parent NodeID, name string) string {
	sn := t.names[parent]
	if sn == nil {
		sn = &siblingNames{taken: make(map[string]bool), next: make(map[string]int)}
		t.names[parent] = sn
	}
	if !sn.taken[name] {
		sn.taken[name] = true
		return name
	}
	i := sn.next[name]
	if i < 2 {
		i = 2
	}
	candidate := name + strconv.Itoa(i)
	for sn.taken[candidate] {
		i++
		candidate = name + strconv.Itoa(i)
	}
	sn.next[name] = i + 1
	sn.taken[candidate] = true
	return candidate
}

// sanitizeName strips characters that are not allowed in node names.
func sanitizeName(name string, kind Kind) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', '@', '/', '"', '%':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return kind.String()
	}
	return name
}

// Walk visits nodes depth-first in pre-order. Returning false from fn skips
// the node's subtree.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		if !fn(id, depth) {
			return
		}
		for _, c := range t.nodes[id].Children {
			visit(c, depth+1)
		}
	}
	visit(t.Root(), 0)
}

// PostOrder visits the subtree under id, children before their parent.
func (t *Tree) PostOrder(id NodeID, fn func(id NodeID)) {
	for _, c := range t.nodes[id].Children {
		t.PostOrder(c, fn)
	}
	fn(id)
}

// AssignOwner sets owner as the owner of every node below it. It must run
// after the tree is complete.
func (t *Tree) AssignOwner(owner NodeID) {
	t.PostOrder(owner, func(id NodeID) {
		if id != owner {
			t.nodes[id].Owner = owner
		}
	})
}

// Path returns the node path relative to the root: "." for the root,
// "A/B" for a grandchild.
func (t *Tree) Path(id NodeID) string {
	if id == t.Root() {
		return "."
	}
	var parts []string
	for cur := id; cur != t.Root(); cur = t.nodes[cur].Parent {
		parts = append(parts, t.nodes[cur].Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// GlobalPosition sums the positions of id and all of its ancestors.
// Rotation is ignored.
func (t *Tree) GlobalPosition(id NodeID) math.Vec2 {
	var pos math.Vec2
	for cur := id; cur != NoNode; cur = t.nodes[cur].Parent {
		pos = pos.Add(t.nodes[cur].Position)
	}
	return pos
}

// Find returns the node at a root-relative path.
func (t *Tree) Find(path string) (NodeID, bool) {
	if path == "." || path == "" {
		return t.Root(), true
	}
	cur := t.Root()
outer:
	for _, part := range strings.Split(path, "/") {
		for _, c := range t.nodes[cur].Children {
			if t.nodes[c].Name == part {
				cur = c
				continue outer
			}
		}
		return NoNode, false
	}
	return cur, true
}

// CountKind returns how many nodes have the given kind.
func (t *Tree) CountKind(kind Kind) int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].Kind == kind {
			n++
		}
	}
	return n
}
