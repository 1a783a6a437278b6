// Package renderer is the drawing surface the engine mounts: it hands a
// scene.Scene to the OpenGL backend each frame and follows viewport resizes.
package renderer

import (
	"fmt"
	"log/slog"

	"album-cube/internal/opengl"
	"album-cube/scene"
)

// RenderEngine draws into the window's default framebuffer.
type RenderEngine struct {
	gl       *opengl.Renderer
	logger   *slog.Logger
	detached bool

	width, height int

	// Per-frame stats (populated during Render)
	lastObjects   int
	lastTriangles int
	lastPoints    int
}

// NewRenderEngine must run on the thread that owns the current GL context.
func NewRenderEngine(logger *slog.Logger) (*RenderEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	glRenderer, err := opengl.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}
	return &RenderEngine{gl: glRenderer, logger: logger}, nil
}

func (re *RenderEngine) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	re.width, re.height = width, height
	re.gl.SetViewport(width, height)
}

// Render draws s unless the surface has been detached.
func (re *RenderEngine) Render(s *scene.Scene) {
	if re.detached || s == nil {
		return
	}
	re.lastObjects, re.lastTriangles, re.lastPoints = 0, 0, 0
	for _, n := range s.GetVisibleNodes() {
		re.lastObjects++
		if n.Mesh != nil {
			re.lastTriangles += n.Mesh.TriangleCount()
		}
		if n.Points != nil {
			re.lastPoints += n.Points.Count()
		}
	}
	re.gl.Draw(s)
}

// Detach stops drawing; the window keeps whatever was presented last.
func (re *RenderEngine) Detach() {
	re.detached = true
}

func (re *RenderEngine) Destroy() error {
	re.detached = true
	re.gl.Destroy()
	re.logger.Debug("render engine destroyed")
	return nil
}

// DrawStats reports what the last Render submitted.
func (re *RenderEngine) DrawStats() (objects, triangles, points int) {
	return re.lastObjects, re.lastTriangles, re.lastPoints
}
