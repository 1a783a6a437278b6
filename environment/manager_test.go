package environment

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album-cube/core"
	"album-cube/customization"
	"album-cube/scene"
)

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
		return nil, errors.New("unreachable")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 2)), nil
}

type harness struct {
	scene  *scene.Scene
	loop   *core.FrameLoop
	loader *fakeLoader
	mgr    *Manager
	// deferred holds spawned loads until run() is called.
	deferred []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		scene:  scene.NewScene(),
		loop:   core.NewFrameLoop(),
		loader: &fakeLoader{fail: map[string]bool{}},
	}
	h.mgr = NewManager(Options{
		Scene:  h.scene,
		Loader: h.loader,
		Post:   h.loop.Post,
		Spawn:  func(fn func()) { h.deferred = append(h.deferred, fn) },
		Rand:   rand.New(rand.NewSource(3)),
	})
	return h
}

// run completes spawned loads and delivers their results on the UI thread.
func (h *harness) run() {
	for _, fn := range h.deferred {
		fn()
	}
	h.deferred = nil
	h.loop.Tick()
}

func TestCloudsArePreallocated(t *testing.T) {
	h := newHarness(t)
	snow, particles := h.mgr.Snow(), h.mgr.Particles()

	require.NotNil(t, snow.Points)
	require.NotNil(t, particles.Points)
	assert.Equal(t, SnowCount, snow.Points.Count())
	assert.Equal(t, ParticleCount, particles.Points.Count())
	assert.Equal(t, core.ColorWhite, snow.Points.Color)
	assert.True(t, snow.Points.Transparent)
	assert.Equal(t, float32(0.8), particles.Points.Opacity)
	assert.False(t, snow.Visible)
	assert.False(t, particles.Visible)
	assert.Len(t, h.scene.Root.Children, 2)
}

func TestPoolingAcrossToggles(t *testing.T) {
	h := newHarness(t)
	palette := customization.Particles{Colors: customization.DefaultParticleColors}
	snow, particles := h.mgr.Snow(), h.mgr.Particles()
	snowPts, particlePts := snow.Points, particles.Points

	for i := 0; i < 2; i++ {
		h.mgr.Apply(palette)
		assert.True(t, particles.Visible)
		assert.False(t, snow.Visible)

		h.mgr.Apply(customization.Snow{})
		assert.True(t, snow.Visible)
		assert.False(t, particles.Visible)
	}
	h.mgr.Apply(palette)

	assert.Same(t, snow, h.mgr.Snow())
	assert.Same(t, particles, h.mgr.Particles())
	assert.Same(t, snowPts, snow.Points)
	assert.Same(t, particlePts, particles.Points)
	assert.False(t, particlePts.Disposed())
	assert.Len(t, h.scene.Root.Children, 2)
}

func TestParticleColorsComeOnlyFromPalette(t *testing.T) {
	h := newHarness(t)
	palette := [3]core.Color{core.MustHex("#FF0000"), core.MustHex("#00FF00"), core.MustHex("#0000FF")}
	h.mgr.Apply(customization.Particles{Colors: palette})

	pts := h.mgr.Particles().Points
	require.True(t, pts.VertexColors)
	require.Len(t, pts.Colors, ParticleCount)
	for _, c := range pts.Colors {
		assert.Contains(t, palette[:], c)
	}
}

func TestParticleColorsRerollOnEveryApply(t *testing.T) {
	h := newHarness(t)
	pts := h.mgr.Particles().Points
	h.mgr.Apply(customization.Particles{Colors: customization.DefaultParticleColors})
	v := pts.Version
	h.mgr.Apply(customization.Particles{Colors: customization.DefaultParticleColors})
	assert.Greater(t, pts.Version, v)

	gray := core.MustHex("#808080")
	h.mgr.Apply(customization.Particles{Colors: [3]core.Color{gray, gray, gray}})
	for _, c := range pts.Colors {
		assert.Equal(t, gray, c)
	}
}

func TestTickDriftsVisibleCloudsOnly(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Snow{})
	h.mgr.Tick()
	h.mgr.Tick()
	assert.InDelta(t, 2*DriftPerFrame, h.mgr.Snow().Transform.Rotation.Y(), 1e-9)
	assert.Zero(t, h.mgr.Particles().Transform.Rotation.Y())

	h.mgr.Apply(customization.Particles{Colors: customization.DefaultParticleColors})
	h.mgr.Tick()
	assert.InDelta(t, -DriftPerFrame, h.mgr.Particles().Transform.Rotation.Y(), 1e-9)
}

func TestImageBackgroundLoadsAsync(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Image{URL: "sky-a.png"})
	assert.Nil(t, h.scene.Background)

	h.run()
	sky := h.scene.Background
	require.NotNil(t, sky)
	assert.Same(t, sky, h.scene.Environment)
	assert.Equal(t, scene.MappingEquirectangular, sky.Mapping)

	// Same URL again: nothing refetched.
	h.mgr.Apply(customization.Image{URL: "sky-a.png"})
	assert.Empty(t, h.deferred)

	// New URL: the old sky stays until the new one arrives.
	h.mgr.Apply(customization.Image{URL: "sky-b.png"})
	assert.Same(t, sky, h.scene.Background)
	h.run()
	assert.NotSame(t, sky, h.scene.Background)
	assert.True(t, sky.Disposed())
	assert.Equal(t, []string{"sky-a.png", "sky-b.png"}, h.loader.calls)
}

func TestImageFailureKeepsPrevious(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Image{URL: "good.png"})
	h.run()
	sky := h.scene.Background

	h.loader.fail["bad.png"] = true
	h.mgr.Apply(customization.Image{URL: "bad.png"})
	h.run()
	assert.Same(t, sky, h.scene.Background)
	assert.False(t, sky.Disposed())

	h.mgr.Apply(customization.Image{URL: "bad.png"})
	assert.Empty(t, h.deferred)

	h.mgr.Apply(customization.Image{URL: ""})
	assert.Same(t, sky, h.scene.Background)
}

func TestLeavingImageDropsPendingLoad(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Image{URL: "slow.png"})
	h.mgr.Apply(customization.Snow{})
	h.run()
	assert.Nil(t, h.scene.Background)
	assert.Nil(t, h.mgr.Sky())
}

func TestVideoClearsSky(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Image{URL: "sky.png"})
	h.run()
	sky := h.mgr.Sky()

	h.mgr.Apply(customization.Video{URL: "clip.mp4"})
	assert.Nil(t, h.scene.Background)
	assert.Nil(t, h.scene.Environment)
	assert.True(t, sky.Disposed())
	assert.False(t, h.mgr.Snow().Visible)
	assert.False(t, h.mgr.Particles().Visible)
	assert.Equal(t, customization.ModeVideo, h.mgr.Mode())
}

func TestLoadAfterDisposeIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.mgr.Apply(customization.Image{URL: "late.png"})
	require.NoError(t, h.mgr.Dispose())
	h.run()
	assert.Nil(t, h.scene.Background)
	assert.Nil(t, h.mgr.Sky())

	h.mgr.Apply(customization.Snow{})
	assert.False(t, h.mgr.Snow().Visible)
}
