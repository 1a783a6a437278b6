// Package engine is the cube's scene engine. It owns the scene graph, the
// frame loop and the GPU-facing resources, and reconciles each incoming
// customization snapshot against what is already on screen.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"album-cube/audio"
	"album-cube/core"
	"album-cube/customization"
	"album-cube/environment"
	"album-cube/facetext"
	"album-cube/materials"
	"album-cube/scene"
)

var (
	ErrNotMounted     = errors.New("engine not mounted")
	ErrAlreadyMounted = errors.New("engine already mounted")
)

const (
	DefaultCubeSize = 2.5
	// RotationPerFrame is added to the cube's X and Y rotation every frame.
	RotationPerFrame = 0.005
	PulseRate        = 2
	PulseAmplitude   = 0.05
	// AudioGain is the extra scale at full frequency energy.
	AudioGain = 0.2
)

// Host is the view the engine mounts into. host.Window implements it.
type Host interface {
	Size() (width, height int)
	AddResizeListener(fn func(width, height int)) int
	RemoveResizeListener(id int)
	RequestFrame(fn core.FrameFunc) core.FrameID
	CancelFrame(id core.FrameID)
	// Post runs fn on the UI thread; safe from any goroutine.
	Post(fn func())
}

// Surface draws the scene into the host. renderer.RenderEngine implements it.
type Surface interface {
	SetSize(width, height int)
	Render(s *scene.Scene)
	Detach()
	Destroy() error
}

type CameraOptions struct {
	FOV  float32
	Near float32
	Far  float32
	Z    float32
}

type Options struct {
	// NewSurface is called on Mount, on the UI thread.
	NewSurface func() (Surface, error)
	// Loader fetches environment and face images. Nil disables image loads.
	Loader     environment.ImageLoader
	Compositor facetext.Options
	Camera     CameraOptions
	CubeSize   float32
	// Bridge is shared across mounts; the audio binding outlives the view.
	Bridge *audio.Bridge
	// Spawn starts background work; defaults to a goroutine.
	Spawn  func(fn func())
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Engine is driven from a single UI thread. Only image loads run elsewhere,
// and their results come back through Host.Post.
type Engine struct {
	opts   Options
	logger *slog.Logger
	bridge *audio.Bridge

	mounted bool
	// mountGen changes on every unmount so callbacks from a previous mount
	// recognise themselves as stale.
	mountGen uint64
	host     Host
	surface  Surface
	frameID  core.FrameID
	resizeID int
	ctx      context.Context
	cancel   context.CancelFunc

	scene      *scene.Scene
	camera     *scene.Camera
	cube       *scene.Node
	faces      [scene.FaceCount]*scene.Material
	compositor *facetext.Compositor
	env        *environment.Manager

	current    customization.Customization
	hasCurrent bool
	faceRefs   [scene.FaceCount]string
	faceGen    [scene.FaceCount]uint64
}

func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Bridge == nil {
		opts.Bridge = audio.NewBridge(opts.Logger)
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.CubeSize <= 0 {
		opts.CubeSize = DefaultCubeSize
	}
	if opts.Camera.FOV <= 0 {
		opts.Camera.FOV = 75
	}
	if opts.Camera.Near <= 0 {
		opts.Camera.Near = 0.1
	}
	if opts.Camera.Far <= opts.Camera.Near {
		opts.Camera.Far = 1000
	}
	if opts.Camera.Z == 0 {
		opts.Camera.Z = 5
	}
	return &Engine{opts: opts, logger: opts.Logger, bridge: opts.Bridge}
}

// Mount builds the scene and starts the frame loop on host.
func (e *Engine) Mount(host Host) error {
	if e.mounted {
		return ErrAlreadyMounted
	}
	if e.opts.NewSurface == nil {
		return errors.New("engine: no surface factory")
	}

	compositor, err := facetext.NewCompositor(e.opts.Compositor)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	surface, err := e.opts.NewSurface()
	if err != nil {
		_ = compositor.Close()
		return fmt.Errorf("mount: create surface: %w", err)
	}

	width, height := host.Size()
	s := scene.NewScene()
	cam := scene.NewCamera(e.opts.Camera.FOV, aspect(width, height), e.opts.Camera.Near, e.opts.Camera.Far)
	cam.SetPosition(mgl32.Vec3{0, 0, e.opts.Camera.Z})
	cam.LookAt(mgl32.Vec3{})
	s.SetCamera(cam)
	s.AddLight(scene.NewAmbientLight(core.ColorWhite, 1.5))
	s.AddLight(scene.NewPointLight(core.ColorWhite, 2, mgl32.Vec3{5, 5, 5}, 100))

	mats := make([]*scene.Material, scene.FaceCount)
	for i := range e.faces {
		m := scene.NewMaterial(fmt.Sprintf("face-%d", i+1), core.ColorWhite)
		m.Map = compositor.Texture(i)
		e.faces[i] = m
		mats[i] = m
	}
	mesh := scene.BuildGeometry(scene.GeometryFor(scene.EdgeSharp, 0, e.opts.CubeSize))
	e.cube = scene.NewMeshNode("cube", mesh, mats)
	s.AddNode(e.cube)

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.host = host
	e.surface = surface
	e.scene = s
	e.camera = cam
	e.compositor = compositor
	e.hasCurrent = false
	e.faceRefs = [scene.FaceCount]string{}
	e.env = environment.NewManager(environment.Options{
		Scene:  s,
		Loader: e.opts.Loader,
		Post:   host.Post,
		Spawn:  e.opts.Spawn,
		Rand:   e.opts.Rand,
		Logger: e.logger,
	})

	surface.SetSize(width, height)
	e.resizeID = host.AddResizeListener(e.resize)
	e.mounted = true
	e.frameID = host.RequestFrame(e.frame)
	e.logger.Info("scene engine mounted", "width", width, "height", height)
	return nil
}

func (e *Engine) resize(width, height int) {
	if !e.mounted {
		return
	}
	e.camera.UpdateAspectRatio(float32(width), float32(height))
	e.surface.SetSize(width, height)
}

// frame schedules the next frame before drawing this one.
func (e *Engine) frame(now time.Duration) {
	if !e.mounted {
		return
	}
	e.frameID = e.host.RequestFrame(e.frame)

	e.cube.Rotate(RotationPerFrame, RotationPerFrame, 0)
	e.cube.Transform.SetUniformScale(e.scale(now))
	e.env.Tick()
	e.surface.Render(e.scene)
}

func (e *Engine) scale(now time.Duration) float32 {
	if !e.hasCurrent {
		return 1
	}
	switch e.current.Animation {
	case customization.AnimationPulse:
		return 1 + float32(math.Sin(now.Seconds()*PulseRate))*PulseAmplitude
	case customization.AnimationAudioReactive:
		if avg, ok := e.bridge.AverageFrequency(); ok {
			return 1 + avg/255*AudioGain
		}
	}
	return 1
}

// Render reconciles the scene with c and binds el as the audio source. It is
// safe to call repeatedly with the same element.
func (e *Engine) Render(c customization.Customization, el *audio.Element) error {
	if !e.mounted {
		return ErrNotMounted
	}
	e.bridge.Bind(el)
	e.reconcile(c)
	return nil
}

func (e *Engine) reconcile(c customization.Customization) {
	e.current = c
	e.hasCurrent = true

	e.env.Apply(c.Background)

	params := materials.Resolve(c.Material)
	for i, m := range e.faces {
		m.Color = c.FaceColors[i]
		materials.Apply(m, params)
		e.syncFaceImage(i, c.FaceImages[i])
		m.Map = e.compositor.Compose(i, c.FaceColors[i], c.Texts[i], c.Material)
	}

	spec := scene.GeometryFor(string(c.Edge), c.Roundness, e.opts.CubeSize)
	if e.cube.Mesh != nil && e.cube.Mesh.Spec == spec {
		return
	}
	e.logger.Debug("rebuilding cube geometry", "spec", spec)
	old := e.cube.SetGeometry(scene.BuildGeometry(spec))
	if old != nil {
		if err := old.Dispose(); err != nil {
			e.logger.Warn("dispose previous geometry", "err", err)
		}
	}
}

// syncFaceImage starts a load when face i's image reference changed. The old
// image stays until the new one arrives; a failed load leaves the face bare.
func (e *Engine) syncFaceImage(i int, ref string) {
	if ref == e.faceRefs[i] {
		return
	}
	e.faceRefs[i] = ref
	e.faceGen[i]++
	if ref == "" {
		e.compositor.SetFaceImage(i, nil)
		return
	}
	if e.opts.Loader == nil {
		e.logger.Warn("face image without a loader", "face", i+1)
		e.compositor.SetFaceImage(i, nil)
		return
	}

	mountGen, gen := e.mountGen, e.faceGen[i]
	ctx, post, loader := e.ctx, e.host.Post, e.opts.Loader
	e.opts.Spawn(func() {
		ctx, cancel := context.WithTimeout(ctx, environment.LoadTimeout)
		img, err := loader.Load(ctx, ref)
		cancel()
		post(func() { e.finishFaceImage(mountGen, i, gen, ref, img, err) })
	})
}

func (e *Engine) finishFaceImage(mountGen uint64, i int, gen uint64, ref string, img image.Image, err error) {
	if !e.mounted || mountGen != e.mountGen || gen != e.faceGen[i] {
		e.logger.Debug("dropping stale face image", "face", i+1, "ref", ref)
		return
	}
	if err != nil {
		e.logger.Warn("face image failed", "face", i+1, "ref", ref, "err", err)
		img = nil
	}
	e.compositor.SetFaceImage(i, img)
	c := e.current
	e.compositor.Compose(i, c.FaceColors[i], c.Texts[i], c.Material)
}

// Unmount stops the frame loop and releases everything Mount created. Image
// loads that complete afterwards are dropped.
func (e *Engine) Unmount() error {
	if !e.mounted {
		return ErrNotMounted
	}
	e.mounted = false
	e.mountGen++
	e.cancel()
	e.host.CancelFrame(e.frameID)
	e.host.RemoveResizeListener(e.resizeID)
	e.surface.Detach()

	var errs []error
	if err := e.env.Dispose(); err != nil {
		errs = append(errs, fmt.Errorf("environment: %w", err))
	}
	if err := scene.DisposeGraph(e.scene.Root); err != nil {
		errs = append(errs, err)
	}
	if err := e.compositor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("compositor: %w", err))
	}
	if err := e.surface.Destroy(); err != nil {
		errs = append(errs, fmt.Errorf("surface: %w", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn("scene engine unmounted with errors", "err", err)
	} else {
		e.logger.Info("scene engine unmounted")
	}

	e.host, e.surface, e.scene, e.camera, e.cube, e.env, e.compositor = nil, nil, nil, nil, nil, nil, nil
	e.faces = [scene.FaceCount]*scene.Material{}
	return err
}

func (e *Engine) Mounted() bool { return e.mounted }

// Scene returns the retained scene while mounted, nil otherwise.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Cube returns the cube node while mounted, nil otherwise.
func (e *Engine) Cube() *scene.Node { return e.cube }

func (e *Engine) Environment() *environment.Manager { return e.env }

func (e *Engine) Bridge() *audio.Bridge { return e.bridge }

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
