package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"album-cube/core"
)

// Group is a contiguous index range drawn with one of the node's materials.
type Group struct {
	Start         int
	Count         int
	MaterialIndex int
}

// Mesh holds CPU-side vertex/index data. GPU upload is managed by the
// renderer backend, keyed by ID.
type Mesh struct {
	resource

	Name     string
	Vertices []core.Vertex
	Indices  []uint32
	Groups   []Group

	// Spec records what the geometry was built from; reconciliation compares
	// against it instead of inspecting the vertex data.
	Spec GeometrySpec
}

// CreateMeshFromData builds a Mesh. A nil groups slice draws everything with material 0.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32, groups []Group) *Mesh {
	if groups == nil {
		groups = []Group{{Start: 0, Count: len(indices), MaterialIndex: 0}}
	}
	return &Mesh{
		resource: newResource(),
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		Groups:   groups,
	}
}

// Bounds returns the local-space axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min = m.Vertices[0].Position
	max = min
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < min[i] {
				min[i] = v.Position[i]
			}
			if v.Position[i] > max[i] {
				max[i] = v.Position[i]
			}
		}
	}
	return
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
