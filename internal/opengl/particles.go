package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"album-cube/scene"
)

const pointVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPos;
layout(location = 1) in vec4 inColor;

uniform mat4  proj;
uniform mat4  modelView;
uniform float pointSize;
uniform float viewportHeight;

out vec4 fragColor;

void main() {
    vec4 eye = modelView * vec4(inPos, 1.0);
    gl_Position  = proj * eye;
    // World-space size with perspective attenuation.
    gl_PointSize = max(pointSize * viewportHeight * proj[1][1] * 0.5 / max(-eye.z, 0.001), 1.0);
    fragColor    = inColor;
}
` + "\x00"

const pointFragSrc = `
#version 410 core
in vec4 fragColor;
out vec4 outColor;

void main() {
    float d = length(gl_PointCoord - vec2(0.5)) * 2.0;
    if (d > 1.0) discard;
    outColor = vec4(fragColor.rgb, fragColor.a * clamp(1.0 - d * d, 0.0, 1.0));
}
` + "\x00"

type gpuPoints struct {
	vao, vbo uint32
	capacity int
	count    int
	version  uint64
}

// pointPass renders scene.Points as round sprites. Positions and colors are
// interleaved on the CPU and streamed whenever the cloud's Version moves.
type pointPass struct {
	prog         uint32
	projLoc      int32
	modelViewLoc int32
	sizeLoc      int32
	heightLoc    int32

	clouds  map[uuid.UUID]*gpuPoints
	scratch []float32
}

func newPointPass() (*pointPass, error) {
	prog, err := newProgram(pointVertSrc, pointFragSrc)
	if err != nil {
		return nil, fmt.Errorf("point shader: %w", err)
	}
	return &pointPass{
		prog:         prog,
		projLoc:      uniform(prog, "proj"),
		modelViewLoc: uniform(prog, "modelView"),
		sizeLoc:      uniform(prog, "pointSize"),
		heightLoc:    uniform(prog, "viewportHeight"),
		clouds:       make(map[uuid.UUID]*gpuPoints),
	}, nil
}

func (pp *pointPass) draw(r *Renderer, p *scene.Points, proj, modelView mgl32.Mat4, viewportHeight float32) {
	if p.Disposed() || p.Count() == 0 {
		return
	}
	gpu := pp.upload(r, p)

	if p.Additive {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	gl.UseProgram(pp.prog)
	gl.UniformMatrix4fv(pp.projLoc, 1, false, &proj[0])
	gl.UniformMatrix4fv(pp.modelViewLoc, 1, false, &modelView[0])
	gl.Uniform1f(pp.sizeLoc, p.Size)
	gl.Uniform1f(pp.heightLoc, viewportHeight)

	gl.BindVertexArray(gpu.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(gpu.count))
	gl.BindVertexArray(0)
}

func (pp *pointPass) upload(r *Renderer, p *scene.Points) *gpuPoints {
	id := p.ID()
	gpu, ok := pp.clouds[id]
	if !ok {
		gpu = &gpuPoints{version: p.Version - 1}
		gl.GenVertexArrays(1, &gpu.vao)
		gl.GenBuffers(1, &gpu.vbo)
		gl.BindVertexArray(gpu.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, gpu.vbo)
		const stride = int32(7 * 4)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(12))
		gl.BindVertexArray(0)
		pp.clouds[id] = gpu
		p.OnDispose(func() error {
			r.release(func() { pp.delete(id) })
			return nil
		})
	}
	if gpu.version == p.Version {
		return gpu
	}

	n := p.Count()
	buf := pp.scratch[:0]
	for i, pos := range p.Positions {
		c := p.Color
		if p.VertexColors && i < len(p.Colors) {
			c = p.Colors[i]
		}
		buf = append(buf, pos.X(), pos.Y(), pos.Z(), c.R, c.G, c.B, p.Opacity)
	}
	pp.scratch = buf

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.vbo)
	if n > gpu.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, len(buf)*4, gl.Ptr(buf), gl.DYNAMIC_DRAW)
		gpu.capacity = n
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(buf)*4, gl.Ptr(buf))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gpu.count = n
	gpu.version = p.Version
	return gpu
}

func (pp *pointPass) delete(id uuid.UUID) {
	gpu, ok := pp.clouds[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.vao)
	gl.DeleteBuffers(1, &gpu.vbo)
	delete(pp.clouds, id)
}

func (pp *pointPass) destroy() {
	for id := range pp.clouds {
		pp.delete(id)
	}
	gl.DeleteProgram(pp.prog)
}
