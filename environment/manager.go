// Package environment owns what surrounds the cube: the snow and particle
// clouds and the equirectangular sky loaded from an image.
package environment

import (
	"context"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"album-cube/core"
	"album-cube/customization"
	"album-cube/scene"
)

const (
	SnowCount      = 10000
	SnowExtent     = 100
	ParticleCount  = 5000
	ParticleExtent = 50
	PointSize      = 0.1
	// ParticleOpacity is the slight transparency of colored particles.
	ParticleOpacity = 0.8
	// DriftPerFrame is the Y rotation per frame of a visible cloud; snow turns
	// one way, particles the other.
	DriftPerFrame = 0.0005
	// LoadTimeout bounds a single sky image fetch.
	LoadTimeout = 30 * time.Second
)

// ImageLoader fetches an image by reference.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

type Options struct {
	Scene  *scene.Scene
	Loader ImageLoader
	// Post runs fn on the UI thread. Load results are delivered through it.
	Post func(fn func())
	// Spawn starts background work; defaults to a goroutine.
	Spawn  func(fn func())
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Manager switches between the background modes. Both clouds are created up
// front and only ever shown or hidden; a sky image stays up until its
// replacement has loaded.
type Manager struct {
	scene  *scene.Scene
	loader ImageLoader
	post   func(fn func())
	spawn  func(fn func())
	rng    *rand.Rand
	logger *slog.Logger

	snow      *scene.Node
	particles *scene.Node

	mode customization.BackgroundMode
	sky  *scene.Texture

	// generation invalidates in-flight loads whenever the wanted sky changes.
	generation uint64
	skyURL     string
	pendingURL string
	failedURL  string

	ctx    context.Context
	cancel context.CancelFunc
	alive  bool
}

func NewManager(opts Options) *Manager {
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		scene:  opts.Scene,
		loader: opts.Loader,
		post:   opts.Post,
		spawn:  opts.Spawn,
		rng:    opts.Rand,
		logger: opts.Logger,
		ctx:    ctx,
		cancel: cancel,
		alive:  true,
	}

	snow := scene.NewPointCloud("snow", SnowCount, SnowExtent, m.rng)
	snow.Color = core.ColorWhite
	snow.Size = PointSize
	snow.Transparent = true
	m.snow = scene.NewPointsNode("snow", snow)
	m.snow.Visible = false

	particles := scene.NewPointCloud("particles", ParticleCount, ParticleExtent, m.rng)
	particles.Size = PointSize
	particles.Transparent = true
	particles.Opacity = ParticleOpacity
	particles.AssignPalette(customization.DefaultParticleColors[:], m.rng)
	m.particles = scene.NewPointsNode("particles", particles)
	m.particles.Visible = false

	m.scene.AddNode(m.snow)
	m.scene.AddNode(m.particles)
	return m
}

func (m *Manager) Snow() *scene.Node      { return m.snow }
func (m *Manager) Particles() *scene.Node { return m.particles }

func (m *Manager) Mode() customization.BackgroundMode { return m.mode }

// Sky returns the texture currently shown as background, or nil.
func (m *Manager) Sky() *scene.Texture { return m.sky }

// Apply moves to bg's mode. Particle colors are re-rolled from the palette on
// every call in particles mode.
func (m *Manager) Apply(bg customization.Background) {
	if !m.alive || bg == nil {
		return
	}
	if mode := bg.Mode(); mode != m.mode {
		m.logger.Debug("background mode", "from", m.mode, "to", mode)
		m.mode = mode
	}

	m.snow.Visible = false
	m.particles.Visible = false

	switch bg := bg.(type) {
	case customization.Snow:
		m.clearSky()
		m.snow.Visible = true
	case customization.Particles:
		m.clearSky()
		m.particles.Points.AssignPalette(bg.Colors[:], m.rng)
		m.particles.Visible = true
	case customization.Image:
		m.requestSky(bg.URL)
	case customization.Video:
		// The host draws the video behind the surface.
		m.clearSky()
	}
}

// Tick advances the ambient drift of the visible clouds by one frame.
func (m *Manager) Tick() {
	if m.snow.Visible {
		m.snow.Rotate(0, DriftPerFrame, 0)
	}
	if m.particles.Visible {
		m.particles.Rotate(0, -DriftPerFrame, 0)
	}
}

func (m *Manager) requestSky(url string) {
	if url == "" {
		m.logger.Warn("image background without url; keeping previous background")
		return
	}
	if url == m.skyURL || url == m.pendingURL || url == m.failedURL {
		return
	}
	if m.loader == nil || m.post == nil {
		m.logger.Warn("image background requested without a loader", "url", url)
		return
	}

	m.generation++
	gen := m.generation
	m.pendingURL = url
	m.failedURL = ""
	m.logger.Debug("loading sky", "url", url, "generation", gen)

	ctx := m.ctx
	m.spawn(func() {
		ctx, cancel := context.WithTimeout(ctx, LoadTimeout)
		img, err := m.loader.Load(ctx, url)
		cancel()
		m.post(func() { m.finishSky(gen, url, img, err) })
	})
}

// finishSky runs on the UI thread. Results from a superseded request or a
// disposed manager are dropped.
func (m *Manager) finishSky(gen uint64, url string, img image.Image, err error) {
	if !m.alive || gen != m.generation {
		m.logger.Debug("dropping stale sky load", "url", url)
		return
	}
	m.pendingURL = ""
	if err != nil {
		m.failedURL = url
		m.logger.Warn("sky image failed; keeping previous background", "url", url, "err", err)
		return
	}

	tex := scene.NewTextureFromImage("sky", img)
	tex.Mapping = scene.MappingEquirectangular
	old := m.sky
	m.sky = tex
	m.skyURL = url
	m.scene.SetSky(tex)
	if old != nil {
		if err := old.Dispose(); err != nil {
			m.logger.Warn("dispose previous sky", "err", err)
		}
	}
}

func (m *Manager) clearSky() {
	m.generation++
	m.pendingURL = ""
	m.failedURL = ""
	m.skyURL = ""
	m.scene.SetSky(nil)
	if m.sky != nil {
		if err := m.sky.Dispose(); err != nil {
			m.logger.Warn("dispose sky", "err", err)
		}
		m.sky = nil
	}
}

// Dispose stops accepting load results and releases the sky texture. The
// clouds live in the scene graph and are released with it.
func (m *Manager) Dispose() error {
	if !m.alive {
		return nil
	}
	m.alive = false
	m.cancel()
	m.generation++
	m.scene.SetSky(nil)
	var err error
	if m.sky != nil {
		err = m.sky.Dispose()
		m.sky = nil
	}
	return err
}
