package spawn

import (
	"slices"

	"github.com/zephyrtronium/voxe/geometry"
)

// Node is a minimal in-memory scene node. It implements [Object] and
// [Parent].
type Node struct {
	name     string
	active   bool
	parent   *Node
	children []Object
	body     *Rigidbody
}

var (
	_ Object = (*Node)(nil)
	_ Parent = (*Node)(nil)
)

// NewNode creates a node. If body is true, the node has a physics body.
func NewNode(name string, body bool) *Node {
	n := &Node{name: name}
	if body {
		n.body = new(Rigidbody)
	}
	return n
}

func (n *Node) Name() string          { return n.name }
func (n *Node) SetName(name string)   { n.name = name }
func (n *Node) Active() bool          { return n.active }
func (n *Node) SetActive(active bool) { n.active = active }

// Parent returns the node's parent, or nil if it is a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children as a view into its memory.
func (n *Node) Children() []Object {
	return n.children
}

// Body returns the node's body, or nil if it has none.
func (n *Node) Body() Body {
	if n.body == nil {
		// Avoid returning a typed nil.
		return nil
	}
	return n.body
}

// Rigidbody returns the node's concrete body, which may be nil.
func (n *Node) Rigidbody() *Rigidbody {
	return n.body
}

func (n *Node) Attach(child Object) {
	if c, ok := child.(*Node); ok {
		if c.parent == n {
			return
		}
		if c.parent != nil {
			c.parent.Detach(c)
		}
		c.parent = n
	}
	n.children = append(n.children, child)
}

func (n *Node) Detach(child Object) {
	k := slices.Index(n.children, child)
	if k < 0 {
		return
	}
	n.children = slices.Delete(n.children, k, k+1)
	if c, ok := child.(*Node); ok && c.parent == n {
		c.parent = nil
	}
}

// Clone copies the node without its parent or children.
func (n *Node) Clone() *Node {
	c := &Node{name: n.name, active: n.active}
	if n.body != nil {
		b := *n.body
		c.body = &b
	}
	return c
}

// Rigidbody is the physics state of a [Node].
type Rigidbody struct {
	Velocity geometry.Vector3
}

func (b *Rigidbody) SetVelocity(v geometry.Vector3) {
	b.Velocity = v
}

// Template is a [Prefab] that clones a node.
type Template struct {
	Node *Node
	// Instances counts calls to Instantiate.
	Instances int
}

var _ Prefab = (*Template)(nil)

func (t *Template) Name() string {
	return t.Node.Name()
}

func (t *Template) Instantiate() (Object, error) {
	t.Instances++
	return t.Node.Clone(), nil
}
