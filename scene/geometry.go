package scene

import "fmt"

// GeometryKind tags how the cube geometry was built.
type GeometryKind int

const (
	KindBox GeometryKind = iota
	KindRoundedBox
)

func (k GeometryKind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindRoundedBox:
		return "rounded-box"
	default:
		return fmt.Sprintf("GeometryKind(%d)", int(k))
	}
}

// Edge styles understood by GeometryFor.
const (
	EdgeSharp = "sharp"
	EdgeBevel = "bevel"
	EdgeRound = "round"
)

const (
	// BevelSegments softens the bevel style through segment density.
	BevelSegments = 3
	// RoundSmoothness is the segment count across each rounded edge.
	RoundSmoothness = 10
	// MinRoundness is the radius below which a round edge falls back to a sharp box.
	MinRoundness = 0.01
	// MaxRoundness caps the edge radius.
	MaxRoundness = 0.5
)

// GeometrySpec is the descriptor the cube geometry is built from. Equal
// descriptors always build the same geometry, so reconciliation only rebuilds
// when the descriptor changes.
type GeometrySpec struct {
	Kind     GeometryKind
	Segments int
	Radius   float32
	Size     float32
}

func (s GeometrySpec) String() string {
	if s.Kind == KindRoundedBox {
		return fmt.Sprintf("%s(size=%.2f radius=%.3f)", s.Kind, s.Size, s.Radius)
	}
	return fmt.Sprintf("%s(size=%.2f segments=%d)", s.Kind, s.Size, s.Segments)
}

// GeometryFor maps an edge style and roundness to a geometry descriptor.
// Unknown edge styles are treated as sharp; roundness is clamped to [0, 0.5].
func GeometryFor(edge string, roundness, size float32) GeometrySpec {
	switch edge {
	case EdgeBevel:
		return GeometrySpec{Kind: KindBox, Segments: BevelSegments, Size: size}
	case EdgeRound:
		r := roundness
		if r < 0 || r != r {
			r = 0
		}
		if r > MaxRoundness {
			r = MaxRoundness
		}
		if r > MinRoundness {
			return GeometrySpec{Kind: KindRoundedBox, Segments: RoundSmoothness, Radius: r, Size: size}
		}
	}
	return GeometrySpec{Kind: KindBox, Segments: 1, Size: size}
}

// BuildGeometry constructs a new mesh for spec. It never disposes anything; the
// caller owns the mesh it replaces.
func BuildGeometry(spec GeometrySpec) *Mesh {
	var m *Mesh
	switch spec.Kind {
	case KindRoundedBox:
		m = CreateRoundedBox(spec.Size, spec.Size, spec.Size, spec.Radius, spec.Segments)
	default:
		m = CreateBox(spec.Size, spec.Size, spec.Size, spec.Segments)
	}
	m.Spec = spec
	return m
}
