package scene

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"album-cube/core"
)

// Box faces in group order: +X, -X, +Y, -Y, +Z, -Z. Group i is drawn with
// material i, so face i of the cube shows material i.
var boxFaces = [6]struct {
	normal, right, up mgl32.Vec3
}{
	{normal: mgl32.Vec3{1, 0, 0}, right: mgl32.Vec3{0, 0, -1}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, right: mgl32.Vec3{0, 0, 1}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, right: mgl32.Vec3{1, 0, 0}, up: mgl32.Vec3{0, 0, -1}},
	{normal: mgl32.Vec3{0, -1, 0}, right: mgl32.Vec3{1, 0, 0}, up: mgl32.Vec3{0, 0, 1}},
	{normal: mgl32.Vec3{0, 0, 1}, right: mgl32.Vec3{1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, -1}, right: mgl32.Vec3{-1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
}

// FaceCount is the number of face groups produced by the box builders.
const FaceCount = len(boxFaces)

// CreateBox generates a width x height x depth box centered on the origin with
// segments subdivisions per edge and one group per face.
func CreateBox(width, height, depth float32, segments int) *Mesh {
	if segments < 1 {
		segments = 1
	}
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	coords := func(e float32) []float32 {
		out := make([]float32, segments+1)
		for i := range out {
			out[i] = -e + 2*e*float32(i)/float32(segments)
		}
		return out
	}
	return buildBox("Box", half, coords, 0)
}

// CreateRoundedBox generates a box with the given outer dimensions whose edges
// and corners are rounded with radius. smoothness is the number of segments
// across each rounded edge.
//
// The rounding is cut into the box rather than extruded around it, so the
// outer size stays width x height x depth for every radius, and the mesh keeps
// the six face groups of CreateBox.
func CreateRoundedBox(width, height, depth, radius float32, smoothness int) *Mesh {
	if smoothness < 1 {
		smoothness = 1
	}
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	radius = mgl32.Clamp(radius, 0, minf(half.X(), minf(half.Y(), half.Z())))

	// Each axis: a quarter-circle ramp into the flat span, then the mirror ramp out.
	coords := func(e float32) []float32 {
		inner := e - radius
		out := make([]float32, 0, 2*(smoothness+1))
		for k := 0; k <= smoothness; k++ {
			theta := float64(k) / float64(smoothness) * stdmath.Pi / 2
			out = append(out, -inner-radius*float32(stdmath.Cos(theta)))
		}
		for k := smoothness; k >= 0; k-- {
			theta := float64(k) / float64(smoothness) * stdmath.Pi / 2
			out = append(out, inner+radius*float32(stdmath.Cos(theta)))
		}
		return out
	}
	return buildBox("RoundedBox", half, coords, radius)
}

// buildBox lays a grid on each face of the box with half extents half. With a
// positive radius every grid point is pushed onto the rounded surface: it is
// clamped to the inner box and re-extended by radius along the offset.
func buildBox(name string, half mgl32.Vec3, coords func(e float32) []float32, radius float32) *Mesh {
	inner := half.Sub(mgl32.Vec3{radius, radius, radius})

	var vertices []core.Vertex
	var indices []uint32
	groups := make([]Group, 0, FaceCount)

	for f, face := range boxFaces {
		start := len(indices)
		base := uint32(len(vertices))

		us := coords(absDot(face.right, half))
		vs := coords(absDot(face.up, half))
		depth := absDot(face.normal, half)
		uSpan := us[len(us)-1] - us[0]
		vSpan := vs[len(vs)-1] - vs[0]

		for _, v := range vs {
			for _, u := range us {
				p := face.normal.Mul(depth).Add(face.right.Mul(u)).Add(face.up.Mul(v))
				normal := face.normal
				if radius > 0 {
					clamped := clampVec(p, inner)
					offset := p.Sub(clamped)
					if offset.Len() > 1e-6 {
						normal = offset.Normalize()
					}
					p = clamped.Add(normal.Mul(radius))
				}
				vertices = append(vertices, core.Vertex{
					Position: p,
					Normal:   normal,
					// v runs top-to-bottom to match texture pixel rows.
					UV:    mgl32.Vec2{(u - us[0]) / uSpan, 1 - (v-vs[0])/vSpan},
					Color: core.ColorWhite,
				})
			}
		}

		row := uint32(len(us))
		for j := 0; j < len(vs)-1; j++ {
			for i := 0; i < len(us)-1; i++ {
				a := base + uint32(j)*row + uint32(i)
				b := a + 1
				c := a + row + 1
				d := a + row
				indices = append(indices, a, b, c, a, c, d)
			}
		}
		groups = append(groups, Group{Start: start, Count: len(indices) - start, MaterialIndex: f})
	}

	return CreateMeshFromData(name, vertices, indices, groups)
}

func absDot(axis, half mgl32.Vec3) float32 {
	return float32(stdmath.Abs(float64(axis.Dot(half))))
}

func clampVec(p, limit mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		mgl32.Clamp(p.X(), -limit.X(), limit.X()),
		mgl32.Clamp(p.Y(), -limit.Y(), limit.Y()),
		mgl32.Clamp(p.Z(), -limit.Z(), limit.Z()),
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
