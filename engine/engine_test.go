package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album-cube/audio"
	"album-cube/core"
	"album-cube/customization"
	"album-cube/facetext"
	"album-cube/materials"
	"album-cube/scene"
)

type fakeHost struct {
	*core.FrameLoop
	width, height int
	next          int
	listeners     map[int]func(int, int)
}

func (h *fakeHost) Size() (int, int) { return h.width, h.height }

func (h *fakeHost) AddResizeListener(fn func(int, int)) int {
	h.next++
	h.listeners[h.next] = fn
	return h.next
}

func (h *fakeHost) RemoveResizeListener(id int) { delete(h.listeners, id) }

func (h *fakeHost) resize(w, hgt int) {
	h.width, h.height = w, hgt
	for _, fn := range h.listeners {
		fn(w, hgt)
	}
}

type fakeSurface struct {
	renders   int
	width     int
	height    int
	detached  bool
	destroyed bool
}

func (s *fakeSurface) SetSize(w, h int) { s.width, s.height = w, h }
func (s *fakeSurface) Render(*scene.Scene) {
	if !s.detached {
		s.renders++
	}
}
func (s *fakeSurface) Detach()        { s.detached = true }
func (s *fakeSurface) Destroy() error { s.destroyed = true; return nil }

type fakeLoader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	if f.fail[ref] {
		return nil, errors.New("not found")
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}

type harness struct {
	now      time.Time
	host     *fakeHost
	surface  *fakeSurface
	loader   *fakeLoader
	engine   *Engine
	deferred []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		now:     time.Unix(1000, 0),
		surface: &fakeSurface{},
		loader:  &fakeLoader{fail: map[string]bool{}},
	}
	h.host = &fakeHost{
		FrameLoop: core.NewFrameLoopWithClock(func() time.Time { return h.now }),
		width:     800,
		height:    600,
		listeners: map[int]func(int, int){},
	}
	h.engine = New(Options{
		NewSurface: func() (Surface, error) { return h.surface, nil },
		Loader:     h.loader,
		Compositor: facetext.Options{Size: 64, FontSize: 12},
		Spawn:      func(fn func()) { h.deferred = append(h.deferred, fn) },
		Rand:       rand.New(rand.NewSource(11)),
	})
	require.NoError(t, h.engine.Mount(h.host))
	return h
}

// runLoads completes every spawned load; results land on the next Tick.
func (h *harness) runLoads() {
	fns := h.deferred
	h.deferred = nil
	for _, fn := range fns {
		fn()
	}
}

func (h *harness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.host.Tick()
}

func base() customization.Customization {
	c := customization.Default()
	c.Material = materials.StyleSolid
	c.Edge = customization.EdgeSharp
	return c
}

func TestRenderRequiresMount(t *testing.T) {
	e := New(Options{NewSurface: func() (Surface, error) { return &fakeSurface{}, nil }})
	assert.ErrorIs(t, e.Render(base(), nil), ErrNotMounted)
	assert.ErrorIs(t, e.Unmount(), ErrNotMounted)

	h := newHarness(t)
	assert.ErrorIs(t, h.engine.Mount(h.host), ErrAlreadyMounted)
}

func TestMountBuildsScene(t *testing.T) {
	h := newHarness(t)
	s := h.engine.Scene()
	require.NotNil(t, s)

	assert.Equal(t, 800, h.surface.width)
	assert.InDelta(t, 800.0/600.0, s.Camera.AspectRatio, 1e-6)
	assert.Equal(t, float32(75), s.Camera.FOV)
	assert.Equal(t, float32(5), s.Camera.Position.Z())
	assert.Len(t, s.Lights, 2)

	cube := h.engine.Cube()
	require.NotNil(t, cube)
	assert.Len(t, cube.Materials, scene.FaceCount)
	assert.Equal(t, 1, h.host.Pending())
	// Both clouds exist from the start and stay hidden until chosen.
	assert.False(t, h.engine.Environment().Snow().Visible)
	assert.False(t, h.engine.Environment().Particles().Visible)
}

func TestFrameLoopRotatesAndSchedules(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Render(base(), nil))

	h.tick(16 * time.Millisecond)
	h.tick(16 * time.Millisecond)

	assert.Equal(t, 2, h.surface.renders)
	assert.Equal(t, 1, h.host.Pending())
	rot := h.engine.Cube().Transform.Rotation
	assert.InDelta(t, 2*RotationPerFrame, rot.X(), 1e-6)
	assert.InDelta(t, 2*RotationPerFrame, rot.Y(), 1e-6)
	assert.InDelta(t, 0, rot.Z(), 1e-6)
}

func TestPulseScale(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Render(base().WithAnimation(customization.AnimationPulse), nil))

	// sin(2t) peaks at t = pi/4.
	second := float64(time.Second)
	h.tick(time.Duration(math.Pi / 4 * second))
	assert.InDelta(t, 1+PulseAmplitude, h.engine.Cube().Transform.Scale.X(), 1e-4)

	require.NoError(t, h.engine.Render(base().WithAnimation(customization.AnimationNone), nil))
	h.tick(time.Second)
	assert.Equal(t, float32(1), h.engine.Cube().Transform.Scale.X())
}

func TestAudioReactiveScale(t *testing.T) {
	h := newHarness(t)
	c := base().WithAnimation(customization.AnimationAudioReactive)

	require.NoError(t, h.engine.Render(c, nil))
	h.tick(time.Second)
	assert.Equal(t, float32(1), h.engine.Cube().Transform.Scale.X(), "no analyser means static")

	el := audio.NewElement(tone(), beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	require.NoError(t, h.engine.Render(c, el))
	a := h.engine.Bridge().Analyser()
	require.NotNil(t, a)
	buf := make([][2]float64, audio.FFTSize)
	_, _ = el.Stream(buf)
	for i := 0; i < 20; i++ {
		a.AverageFrequency()
	}

	h.tick(16 * time.Millisecond)
	scale := h.engine.Cube().Transform.Scale.X()
	assert.Greater(t, scale, float32(1))
	assert.LessOrEqual(t, scale, float32(1+AudioGain))
}

func TestRenderSameElementTwice(t *testing.T) {
	h := newHarness(t)
	el := audio.NewElement(tone(), beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})

	require.NoError(t, h.engine.Render(base(), el))
	first := h.engine.Bridge().Analyser()
	require.NoError(t, h.engine.Render(base(), el))

	assert.Same(t, first, h.engine.Bridge().Analyser())
	assert.True(t, el.Connected())
}

func TestAudioBindingOutlivesUnmount(t *testing.T) {
	h := newHarness(t)
	el := audio.NewElement(tone(), beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	require.NoError(t, h.engine.Render(base(), el))
	first := h.engine.Bridge().Analyser()

	require.NoError(t, h.engine.Unmount())
	assert.True(t, el.Connected())

	require.NoError(t, h.engine.Mount(h.host))
	require.NoError(t, h.engine.Render(base(), el))
	assert.Same(t, first, h.engine.Bridge().Analyser())
}

func TestGeometryRebuiltOnlyOnKindChange(t *testing.T) {
	h := newHarness(t)
	c := base()
	require.NoError(t, h.engine.Render(c, nil))
	mesh := h.engine.Cube().Mesh

	c.FaceColors[0] = core.MustHex("#FF0000")
	c.Texts[2] = "NEW"
	c.Material = materials.StyleMetallic
	c.Roundness = 0.4 // ignored unless round
	require.NoError(t, h.engine.Render(c, nil))
	assert.Same(t, mesh, h.engine.Cube().Mesh)

	c.Edge = customization.EdgeRound
	require.NoError(t, h.engine.Render(c, nil))
	round := h.engine.Cube().Mesh
	assert.NotSame(t, mesh, round)
	assert.True(t, mesh.Disposed())
	assert.Equal(t, scene.KindRoundedBox, round.Spec.Kind)

	c.Roundness = 0.1
	require.NoError(t, h.engine.Render(c, nil))
	assert.NotSame(t, round, h.engine.Cube().Mesh)
	assert.True(t, round.Disposed())

	// sharp -> bevel -> sharp rebuilds each time
	c.Edge = customization.EdgeBevel
	require.NoError(t, h.engine.Render(c, nil))
	bevel := h.engine.Cube().Mesh
	assert.Equal(t, scene.BevelSegments, bevel.Spec.Segments)
	c.Edge = customization.EdgeSharp
	require.NoError(t, h.engine.Render(c, nil))
	assert.NotSame(t, bevel, h.engine.Cube().Mesh)
	assert.Equal(t, 1, h.engine.Cube().Mesh.Spec.Segments)
}

func TestRoundnessAtThresholdIsSharp(t *testing.T) {
	h := newHarness(t)
	c := base()
	require.NoError(t, h.engine.Render(c, nil))
	mesh := h.engine.Cube().Mesh

	c.Edge = customization.EdgeRound
	c.Roundness = 0.01
	require.NoError(t, h.engine.Render(c, nil))
	assert.Same(t, mesh, h.engine.Cube().Mesh)
}

func TestFacesFollowCustomization(t *testing.T) {
	h := newHarness(t)
	c := base()
	c.Material = materials.StyleGlass
	c.FaceColors[1] = core.MustHex("#FFFFFF")
	require.NoError(t, h.engine.Render(c, nil))

	for i, m := range h.engine.Cube().Materials {
		assert.Equal(t, c.FaceColors[i], m.Color)
		assert.Equal(t, materials.GlassParams(), materials.ParamsOf(m))
		require.NotNil(t, m.Map)
	}

	tex := h.engine.Cube().Materials[0].Map
	c.Material = materials.StyleSolid
	require.NoError(t, h.engine.Render(c, nil))
	for _, m := range h.engine.Cube().Materials {
		assert.False(t, m.Transparent)
		assert.Equal(t, float32(1), m.Opacity)
		assert.Equal(t, materials.SolidParams(), materials.ParamsOf(m))
	}
	assert.Same(t, tex, h.engine.Cube().Materials[0].Map, "face textures are redrawn in place")
}

func TestParticlePaletteEndToEnd(t *testing.T) {
	h := newHarness(t)
	palette := [3]core.Color{core.MustHex("#FF0000"), core.MustHex("#00FF00"), core.MustHex("#0000FF")}
	c := base()
	c.Background = customization.Particles{Colors: palette}
	require.NoError(t, h.engine.Render(c, nil))

	node := h.engine.Environment().Particles()
	assert.True(t, node.Visible)
	pts := node.Points
	require.True(t, pts.VertexColors)
	require.Len(t, pts.Colors, pts.Count())
	for _, col := range pts.Colors {
		assert.Contains(t, palette[:], col)
	}
}

func TestBackgroundPooling(t *testing.T) {
	h := newHarness(t)
	env := h.engine.Environment()
	particles, snow := env.Particles(), env.Snow()
	particlesPts := particles.Points

	c := base()
	for i := 0; i < 2; i++ {
		c.Background = customization.Particles{Colors: customization.DefaultParticleColors}
		require.NoError(t, h.engine.Render(c, nil))
		assert.True(t, particles.Visible)
		assert.False(t, snow.Visible)

		c.Background = customization.Snow{}
		require.NoError(t, h.engine.Render(c, nil))
		assert.False(t, particles.Visible)
		assert.True(t, snow.Visible)
	}
	assert.Same(t, particles, env.Particles())
	assert.Same(t, particlesPts, env.Particles().Points)
	assert.False(t, particlesPts.Disposed())
}

func TestUnmountDisposesEverything(t *testing.T) {
	h := newHarness(t)
	c := base()
	c.Background = customization.Image{URL: "sky.png"}
	require.NoError(t, h.engine.Render(c, nil))
	h.runLoads()
	h.tick(time.Millisecond)

	s := h.engine.Scene()
	sky := s.Background
	require.NotNil(t, sky)

	var tracked []scene.Disposable
	s.Root.Traverse(func(n *scene.Node) {
		if n.Mesh != nil {
			tracked = append(tracked, n.Mesh)
		}
		for _, m := range n.Materials {
			tracked = append(tracked, m, m.Map)
		}
		if n.Points != nil {
			tracked = append(tracked, n.Points)
		}
	})
	require.Len(t, tracked, 1+2*scene.FaceCount+2)

	renders := h.surface.renders
	require.NoError(t, h.engine.Unmount())

	for _, d := range tracked {
		assert.True(t, d.Disposed(), "%T not disposed", d)
	}
	assert.True(t, sky.Disposed())
	assert.True(t, h.surface.detached)
	assert.True(t, h.surface.destroyed)
	assert.Empty(t, h.host.listeners)
	assert.Nil(t, h.engine.Scene())

	h.tick(time.Second)
	h.tick(time.Second)
	assert.Equal(t, renders, h.surface.renders, "no frames after unmount")
	assert.Equal(t, 0, h.host.Pending())
}

func TestFaceImageLoads(t *testing.T) {
	h := newHarness(t)
	c := base()
	c.FaceImages[0] = "cover.png"
	require.NoError(t, h.engine.Render(c, nil))
	tex := h.engine.Cube().Materials[0].Map
	version := tex.Version

	h.runLoads()
	h.tick(time.Millisecond)

	assert.Equal(t, []string{"cover.png"}, h.loader.calls)
	assert.NotNil(t, h.engine.compositor.FaceImage(0))
	assert.Greater(t, tex.Version, version)

	// Same reference again does not reload.
	require.NoError(t, h.engine.Render(c, nil))
	assert.Empty(t, h.deferred)

	c.FaceImages[0] = ""
	require.NoError(t, h.engine.Render(c, nil))
	assert.Nil(t, h.engine.compositor.FaceImage(0))
}

func TestFaceImageFailureLeavesFaceBare(t *testing.T) {
	h := newHarness(t)
	h.loader.fail["missing.png"] = true
	c := base()
	c.FaceImages[3] = "missing.png"
	require.NoError(t, h.engine.Render(c, nil))
	h.runLoads()
	h.tick(time.Millisecond)
	assert.Nil(t, h.engine.compositor.FaceImage(3))
	assert.True(t, h.engine.Mounted())
}

func TestLateLoadsAfterUnmountAreDropped(t *testing.T) {
	h := newHarness(t)
	c := base()
	c.FaceImages[0] = "cover.png"
	c.Background = customization.Image{URL: "sky.png"}
	require.NoError(t, h.engine.Render(c, nil))
	s := h.engine.Scene()
	require.Len(t, h.deferred, 2)

	require.NoError(t, h.engine.Unmount())
	h.runLoads()
	assert.NotPanics(t, func() { h.tick(time.Millisecond) })

	assert.Nil(t, s.Background)
	assert.Equal(t, 0, h.surface.renders)
}

func TestStaleFaceImageIgnored(t *testing.T) {
	h := newHarness(t)
	c := base()
	c.FaceImages[0] = "old.png"
	require.NoError(t, h.engine.Render(c, nil))
	c.FaceImages[0] = ""
	require.NoError(t, h.engine.Render(c, nil))

	h.runLoads()
	h.tick(time.Millisecond)
	assert.Nil(t, h.engine.compositor.FaceImage(0))
}

func TestResizeFollowsHost(t *testing.T) {
	h := newHarness(t)
	h.host.resize(1920, 1080)
	assert.Equal(t, 1920, h.surface.width)
	assert.Equal(t, 1080, h.surface.height)
	assert.InDelta(t, 1920.0/1080.0, h.engine.Scene().Camera.AspectRatio, 1e-6)
}

func TestRemountStartsFresh(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Render(base(), nil))
	first := h.engine.Scene()
	require.NoError(t, h.engine.Unmount())

	h.surface = &fakeSurface{}
	require.NoError(t, h.engine.Mount(h.host))
	assert.NotSame(t, first, h.engine.Scene())
	require.NoError(t, h.engine.Render(base(), nil))
	h.tick(time.Millisecond)
	assert.Equal(t, 1, h.surface.renders)
}

func tone() beep.Streamer {
	var n int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.5 * math.Sin(2*math.Pi*1000*float64(n)/44100)
			samples[i] = [2]float64{v, v}
			n++
		}
		return len(samples), true
	})
}
