package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"album-cube/core"
)

// Node is an object in the scene graph. A node carries at most one drawable:
// a Mesh with one material per face group, or a Points cloud.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Visible   bool

	Mesh      *Mesh
	Materials []*Material
	Points    *Points
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: core.NewTransform(),
		Children:  make([]*Node, 0),
		Visible:   true,
	}
}

// NewMeshNode builds a node drawing mesh with materials indexed by the mesh's groups.
func NewMeshNode(name string, mesh *Mesh, materials []*Material) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	n.Materials = materials
	return n
}

func NewPointsNode(name string, points *Points) *Node {
	n := NewNode(name)
	n.Points = points
	return n
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// WorldMatrix composes the transforms from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	local := n.Transform.GetMatrix()
	if n.Parent == nil {
		return local
	}
	return n.Parent.WorldMatrix().Mul4(local)
}

// Rotate adds Euler angle deltas (radians) to the node's rotation.
func (n *Node) Rotate(dx, dy, dz float32) {
	n.Transform.Rotation = n.Transform.Rotation.Add(mgl32.Vec3{dx, dy, dz})
}

// SetGeometry swaps the node's mesh and returns the previous one. The caller
// owns disposal of the returned mesh.
func (n *Node) SetGeometry(mesh *Mesh) *Mesh {
	old := n.Mesh
	n.Mesh = mesh
	return old
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// IsVisible reports whether n and all its ancestors are visible.
func (n *Node) IsVisible() bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}
