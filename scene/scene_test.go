package scene

import (
	"image"
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album-cube/core"
)

func testRand() *rand.Rand { return rand.New(rand.NewSource(7)) }

func TestPointCloudExtent(t *testing.T) {
	p := NewPointCloud("snow", 1000, 100, testRand())
	assert.Equal(t, 1000, p.Count())
	for _, pos := range p.Positions {
		for i := 0; i < 3; i++ {
			assert.GreaterOrEqual(t, pos[i], float32(-50))
			assert.Less(t, pos[i], float32(50))
		}
	}
}

func TestPointCloudAssignPalette(t *testing.T) {
	palette := []core.Color{core.ColorRed, core.ColorGreen, core.ColorBlue}
	p := NewPointCloud("particles", 500, 50, testRand())
	before := p.Version
	p.AssignPalette(palette, testRand())

	assert.True(t, p.VertexColors)
	assert.Greater(t, p.Version, before)
	require.Len(t, p.Colors, 500)
	seen := map[core.Color]bool{}
	for _, c := range p.Colors {
		assert.Contains(t, palette, c)
		seen[c] = true
	}
	assert.Len(t, seen, 3)
}

func TestTextureRGBASharesPixels(t *testing.T) {
	tex := NewTexture("face", 2, 2)
	tex.RGBA().Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	assert.Equal(t, []byte{10, 20, 30, 255}, tex.Pixels[12:16])
}

func TestNewTextureFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.NRGBA{R: 255, A: 255})
	tex := NewTextureFromImage("img", src)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, []byte{255, 0, 0, 255}, tex.Pixels[:4])
}

func TestSceneVisibleNodes(t *testing.T) {
	s := NewScene()
	cube := NewMeshNode("cube", BuildGeometry(GeometryFor(EdgeSharp, 0, 1)), nil)
	snow := NewPointsNode("snow", NewPointCloud("snow", 1, 1, testRand()))
	snow.Visible = false
	s.AddNode(cube)
	s.AddNode(snow)
	s.AddNode(NewNode("empty"))

	assert.Equal(t, []*Node{cube}, s.GetVisibleNodes())
}

func TestAmbientColor(t *testing.T) {
	s := NewScene()
	s.AddLight(NewAmbientLight(core.ColorWhite, 1.5))
	s.AddLight(NewPointLight(core.ColorWhite, 2, mgl32.Vec3{5, 5, 5}, 100))
	c := s.AmbientColor()
	assert.InDelta(t, 1.5, c.R, 1e-6)
}

func TestCameraLooksDownNegativeZ(t *testing.T) {
	c := NewCamera(75, 1, 0.1, 1000)
	c.SetPosition(mgl32.Vec3{0, 0, 5})
	v := c.GetViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, v.Z(), 1e-5)
	assert.InDelta(t, 1, c.GetForward().Len(), 1e-6)
}

func TestExportGLB(t *testing.T) {
	mats := make([]*Material, FaceCount)
	for i := range mats {
		mats[i] = NewMaterial("face", core.ColorBlue)
	}
	mats[0].Map = NewTexture("face0", 4, 4)
	mats[1].Transparent = true
	mats[1].Opacity = 0.3

	root := NewNode("root")
	root.AddChild(NewMeshNode("cube", BuildGeometry(GeometryFor(EdgeRound, 0.2, 2.5)), mats))

	path := filepath.Join(t.TempDir(), "cube.glb")
	require.NoError(t, ExportGLB(path, root))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	assert.Len(t, doc.Meshes[0].Primitives, FaceCount)
	assert.Len(t, doc.Materials, FaceCount)
	assert.Len(t, doc.Textures, 1)
	assert.Equal(t, gltf.AlphaBlend, doc.Materials[1].AlphaMode)
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(75, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	cam.LookAt(mgl32.Vec3{})
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	cube := BuildGeometry(GeometryFor(EdgeSharp, 0, 2.5))
	assert.True(t, WorldAABB(cube, mgl32.Ident4()).IntersectsFrustum(&f))

	behind := WorldAABB(cube, mgl32.Translate3D(0, 0, 20))
	assert.False(t, behind.IntersectsFrustum(&f))

	far := WorldAABB(cube, mgl32.Translate3D(0, 0, -200))
	assert.False(t, far.IntersectsFrustum(&f))

	rotated := WorldAABB(cube, mgl32.HomogRotate3DY(0.7))
	assert.InDelta(t, -rotated.Max.X(), rotated.Min.X(), 1e-4)
	assert.Greater(t, rotated.Max.X(), float32(1.25))
}
