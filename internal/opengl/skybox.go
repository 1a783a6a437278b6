package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// skyPass draws an equirectangular texture behind the scene with a single
// full-screen triangle at the far plane; each pixel's view ray is recovered
// from the inverse view-projection.
type skyPass struct {
	prog   uint32
	vao    uint32
	invLoc int32
	texLoc int32
}

const skyVertSrc = `
#version 410 core
out vec2 ndc;
void main() {
    vec2 p = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2)) * 2.0 - 1.0;
    ndc = p;
    gl_Position = vec4(p, 1.0, 1.0);
}
` + "\x00"

const skyFragSrc = `
#version 410 core
in vec2 ndc;
out vec4 outColor;

uniform mat4 invViewProj;
uniform sampler2D skyTex;

const float PI = 3.14159265359;

void main() {
    vec4 near = invViewProj * vec4(ndc, -1.0, 1.0);
    vec4 far  = invViewProj * vec4(ndc,  1.0, 1.0);
    vec3 d = normalize(far.xyz / far.w - near.xyz / near.w);
    vec2 uv = vec2(atan(d.z, d.x) / (2.0 * PI) + 0.5, acos(clamp(d.y, -1.0, 1.0)) / PI);
    outColor = vec4(texture(skyTex, uv).rgb, 1.0);
}
` + "\x00"

func newSkyPass() (*skyPass, error) {
	prog, err := newProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("sky shader: %w", err)
	}
	sp := &skyPass{
		prog:   prog,
		invLoc: uniform(prog, "invViewProj"),
		texLoc: uniform(prog, "skyTex"),
	}
	gl.GenVertexArrays(1, &sp.vao)
	return sp, nil
}

// draw expects the sky texture already bound on unitSky.
func (sp *skyPass) draw(invViewProj mgl32.Mat4) {
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)

	gl.UseProgram(sp.prog)
	gl.UniformMatrix4fv(sp.invLoc, 1, false, &invViewProj[0])
	gl.Uniform1i(sp.texLoc, unitSky)
	gl.BindVertexArray(sp.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

func (sp *skyPass) destroy() {
	gl.DeleteVertexArrays(1, &sp.vao)
	gl.DeleteProgram(sp.prog)
}
