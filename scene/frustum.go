package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo is positive on the inside.
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts normalized planes from a proj*view matrix
// (Gribb/Hartmann on the rows of the column-vector matrix).
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	var f Frustum
	f.Planes[0] = normalizePlane(r3.Add(r0))
	f.Planes[1] = normalizePlane(r3.Sub(r0))
	f.Planes[2] = normalizePlane(r3.Add(r1))
	f.Planes[3] = normalizePlane(r3.Sub(r1))
	f.Planes[4] = normalizePlane(r3.Add(r2))
	f.Planes[5] = normalizePlane(r3.Sub(r2))
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// IntersectsFrustum is false only when the box is entirely outside one plane
// (positive-vertex test).
func (box AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		pv := box.Max
		if p.Normal.X() < 0 {
			pv[0] = box.Min.X()
		}
		if p.Normal.Y() < 0 {
			pv[1] = box.Min.Y()
		}
		if p.Normal.Z() < 0 {
			pv[2] = box.Min.Z()
		}
		if p.DistanceTo(pv) < 0 {
			return false
		}
	}
	return true
}

// WorldAABB transforms the mesh's local bounds by world through their 8 corners.
func WorldAABB(mesh *Mesh, world mgl32.Mat4) AABB {
	mn, mx := mesh.Bounds()
	corners := [8]mgl32.Vec3{
		{mn.X(), mn.Y(), mn.Z()},
		{mx.X(), mn.Y(), mn.Z()},
		{mn.X(), mx.Y(), mn.Z()},
		{mx.X(), mx.Y(), mn.Z()},
		{mn.X(), mn.Y(), mx.Z()},
		{mx.X(), mn.Y(), mx.Z()},
		{mn.X(), mx.Y(), mx.Z()},
		{mx.X(), mx.Y(), mx.Z()},
	}
	first := mgl32.TransformCoordinate(corners[0], world)
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		wp := mgl32.TransformCoordinate(c, world)
		for i := 0; i < 3; i++ {
			out.Min[i] = min(out.Min[i], wp[i])
			out.Max[i] = max(out.Max[i], wp[i])
		}
	}
	return out
}
