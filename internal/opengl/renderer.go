package opengl

import (
	"fmt"
	"log/slog"
	"sort"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"album-cube/core"
	"album-cube/scene"
)

const maxPointLights = 4

// Texture units.
const (
	unitMap = 0
	unitEnv = 1
	unitSky = 2
)

type gpuMesh struct {
	vao, vbo, ebo uint32
}

// Renderer is the OpenGL 4.1 backend. It keeps GPU copies of scene resources
// keyed by resource ID and frees them when the resource is disposed.
type Renderer struct {
	logger *slog.Logger

	program uint32

	mvpLoc      int32
	modelLoc    int32
	cameraLoc   int32
	ambientLoc  int32
	lightCount  int32
	lightPos    [maxPointLights]int32
	lightColor  [maxPointLights]int32
	lightRange  [maxPointLights]int32
	colorLoc    int32
	opacityLoc  int32
	metalLoc    int32
	roughLoc    int32
	flatLoc     int32
	hasMapLoc   int32
	hasEnvLoc   int32
	mapLoc      int32
	envLoc      int32

	sky    *skyPass
	points *pointPass

	meshes   map[uuid.UUID]*gpuMesh
	textures map[uuid.UUID]*gpuTexture

	// Dispose hooks only queue work; GL calls happen on the next Draw.
	releases []func()
	closed   bool

	width, height int32
}

const meshVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 mvp;
uniform mat4 model;

out vec3 fragWorldPos;
out vec3 fragNormal;
out vec2 fragUV;
out vec4 fragColor;

void main() {
    vec4 world   = model * vec4(inPosition, 1.0);
    fragWorldPos = world.xyz;
    fragNormal   = mat3(model) * inNormal;
    fragUV       = inUV;
    fragColor    = inColor;
    gl_Position  = mvp * vec4(inPosition, 1.0);
}
` + "\x00"

const meshFragSrc = `
#version 410 core
in vec3 fragWorldPos;
in vec3 fragNormal;
in vec2 fragUV;
in vec4 fragColor;

out vec4 outColor;

#define MAX_POINT_LIGHTS 4
uniform int   pointLightCount;
uniform vec3  pointLightPos[MAX_POINT_LIGHTS];
uniform vec3  pointLightColor[MAX_POINT_LIGHTS];
uniform float pointLightRange[MAX_POINT_LIGHTS];
uniform vec3  ambientColor;
uniform vec3  cameraPos;

uniform vec3  matColor;
uniform float matOpacity;
uniform float matMetalness;
uniform float matRoughness;
uniform bool  flatShading;

uniform sampler2D mapTex;
uniform bool      hasMap;
uniform sampler2D envTex;
uniform bool      hasEnv;

const float PI = 3.14159265359;

vec2 equirect(vec3 d) {
    return vec2(atan(d.z, d.x) / (2.0 * PI) + 0.5, acos(clamp(d.y, -1.0, 1.0)) / PI);
}

void main() {
    vec3 N = flatShading
        ? normalize(cross(dFdx(fragWorldPos), dFdy(fragWorldPos)))
        : normalize(fragNormal);
    vec3 V = normalize(cameraPos - fragWorldPos);

    // The map is a decal: its alpha selects between the face color and the art.
    vec3 base = matColor * fragColor.rgb;
    if (hasMap) {
        vec4 m = texture(mapTex, fragUV);
        base = mix(base, m.rgb, m.a);
    }

    float rough = clamp(matRoughness, 0.04, 1.0);
    float shininess = mix(256.0, 4.0, rough);
    vec3 F0 = mix(vec3(0.04), base, matMetalness);

    vec3 color = ambientColor * base * (1.0 - 0.5 * matMetalness);
    for (int i = 0; i < pointLightCount && i < MAX_POINT_LIGHTS; i++) {
        vec3  toLight = pointLightPos[i] - fragWorldPos;
        float dist    = length(toLight);
        float range   = pointLightRange[i];
        float atten   = range > 0.0 ? clamp(1.0 - (dist * dist) / (range * range), 0.0, 1.0) : 1.0;
        vec3  L   = normalize(toLight);
        vec3  H   = normalize(L + V);
        float NdL = max(dot(N, L), 0.0);
        vec3 diffuse  = base * (1.0 - matMetalness) * NdL;
        vec3 specular = F0 * pow(max(dot(N, H), 0.0), shininess) * (NdL > 0.0 ? 1.0 : 0.0);
        color += pointLightColor[i] * atten * (diffuse + specular);
    }

    if (hasEnv) {
        vec3 R = reflect(-V, N);
        vec3 env = texture(envTex, equirect(normalize(R))).rgb;
        float fres = pow(1.0 - max(dot(N, V), 0.0), 5.0);
        color += env * mix(F0, vec3(1.0), fres) * (1.0 - rough);
    }

    outColor = vec4(color, matOpacity);
}
` + "\x00"

// NewRenderer initialises OpenGL. The window's context must be current.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := newProgram(meshVertSrc, meshFragSrc)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	sky, err := newSkyPass()
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, err
	}
	points, err := newPointPass()
	if err != nil {
		gl.DeleteProgram(prog)
		sky.destroy()
		return nil, err
	}

	r := &Renderer{
		logger:  logger,
		program: prog,
		sky:     sky,
		points:  points,

		mvpLoc:     uniform(prog, "mvp"),
		modelLoc:   uniform(prog, "model"),
		cameraLoc:  uniform(prog, "cameraPos"),
		ambientLoc: uniform(prog, "ambientColor"),
		lightCount: uniform(prog, "pointLightCount"),
		colorLoc:   uniform(prog, "matColor"),
		opacityLoc: uniform(prog, "matOpacity"),
		metalLoc:   uniform(prog, "matMetalness"),
		roughLoc:   uniform(prog, "matRoughness"),
		flatLoc:    uniform(prog, "flatShading"),
		hasMapLoc:  uniform(prog, "hasMap"),
		hasEnvLoc:  uniform(prog, "hasEnv"),
		mapLoc:     uniform(prog, "mapTex"),
		envLoc:     uniform(prog, "envTex"),

		meshes:   make(map[uuid.UUID]*gpuMesh),
		textures: make(map[uuid.UUID]*gpuTexture),
	}
	for i := 0; i < maxPointLights; i++ {
		r.lightPos[i] = uniform(prog, fmt.Sprintf("pointLightPos[%d]", i))
		r.lightColor[i] = uniform(prog, fmt.Sprintf("pointLightColor[%d]", i))
		r.lightRange[i] = uniform(prog, fmt.Sprintf("pointLightRange[%d]", i))
	}

	gl.UseProgram(prog)
	gl.Uniform1i(r.mapLoc, unitMap)
	gl.Uniform1i(r.envLoc, unitEnv)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	return r, nil
}

// SetViewport resizes the GL viewport.
func (r *Renderer) SetViewport(width, height int) {
	r.width, r.height = int32(width), int32(height)
	gl.Viewport(0, 0, r.width, r.height)
}

type drawItem struct {
	node  *scene.Node
	model mgl32.Mat4
	depth float32
}

// Draw renders s from its camera: background first, then opaque meshes, then
// transparent meshes and point clouds back to front.
func (r *Renderer) Draw(s *scene.Scene) {
	if r.closed {
		return
	}
	r.flushReleases()

	cc := s.ClearColor
	gl.ClearColor(cc.R, cc.G, cc.B, cc.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	cam := s.Camera
	if cam == nil {
		return
	}
	view := cam.GetViewMatrix()
	proj := cam.GetProjectionMatrix()
	vp := proj.Mul4(view)

	if s.Background != nil && r.bindTexture(s.Background, unitSky) {
		r.sky.draw(vp.Inv())
	}

	frustum := scene.FrustumFromVP(vp)
	var opaque, blended []drawItem
	for _, node := range s.GetVisibleNodes() {
		model := node.WorldMatrix()
		if node.Mesh != nil && !scene.WorldAABB(node.Mesh, model).IntersectsFrustum(&frustum) {
			continue
		}
		item := drawItem{node: node, model: model}
		if node.Points != nil || isTransparent(node) {
			item.depth = view.Mul4(model).Col(3).Z()
			blended = append(blended, item)
			continue
		}
		opaque = append(opaque, item)
	}
	// View-space z is negative in front of the camera; most negative is farthest.
	sort.SliceStable(blended, func(i, j int) bool { return blended[i].depth < blended[j].depth })

	gl.Disable(gl.BLEND)
	for _, it := range opaque {
		r.drawMesh(s, it, vp, view)
	}

	gl.Enable(gl.BLEND)
	gl.DepthMask(false)
	for _, it := range blended {
		if it.node.Points != nil {
			r.points.draw(r, it.node.Points, proj, view.Mul4(it.model), float32(r.height))
			continue
		}
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		r.drawMesh(s, it, vp, view)
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func isTransparent(n *scene.Node) bool {
	for _, m := range n.Materials {
		if m != nil && (m.Transparent || m.Opacity < 1) {
			return true
		}
	}
	return false
}

func (r *Renderer) drawMesh(s *scene.Scene, it drawItem, vp, view mgl32.Mat4) {
	mesh := it.node.Mesh
	if mesh == nil {
		return
	}
	gpu := r.ensureMesh(mesh)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	mvp := vp.Mul4(it.model)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, &mvp[0])
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &it.model[0])
	cam := s.Camera.Position
	gl.Uniform3f(r.cameraLoc, cam.X(), cam.Y(), cam.Z())
	amb := s.AmbientColor()
	gl.Uniform3f(r.ambientLoc, amb.R, amb.G, amb.B)
	r.applyLights(s.Lights)

	hasEnv := s.Environment != nil && r.bindTexture(s.Environment, unitEnv)
	gl.Uniform1i(r.hasEnvLoc, boolToInt(hasEnv))

	gl.BindVertexArray(gpu.vao)
	for _, g := range mesh.Groups {
		if g.MaterialIndex >= len(it.node.Materials) || g.Count == 0 {
			continue
		}
		mat := it.node.Materials[g.MaterialIndex]
		if mat == nil || mat.Disposed() {
			continue
		}
		r.applyMaterial(mat)
		gl.DrawElements(gl.TRIANGLES, int32(g.Count), gl.UNSIGNED_INT, gl.PtrOffset(g.Start*4))
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.BindVertexArray(0)
}

func (r *Renderer) applyLights(lights []*scene.Light) {
	n := 0
	for _, l := range lights {
		if l.Type != scene.LightTypePoint || n == maxPointLights {
			continue
		}
		gl.Uniform3f(r.lightPos[n], l.Position.X(), l.Position.Y(), l.Position.Z())
		gl.Uniform3f(r.lightColor[n], l.Color.R*l.Intensity, l.Color.G*l.Intensity, l.Color.B*l.Intensity)
		gl.Uniform1f(r.lightRange[n], l.Range)
		n++
	}
	gl.Uniform1i(r.lightCount, int32(n))
}

func (r *Renderer) applyMaterial(mat *scene.Material) {
	gl.Uniform3f(r.colorLoc, mat.Color.R, mat.Color.G, mat.Color.B)
	opacity := mat.Opacity
	if !mat.Transparent && opacity >= 1 {
		opacity = 1
	}
	gl.Uniform1f(r.opacityLoc, opacity)
	gl.Uniform1f(r.metalLoc, mat.Metalness)
	gl.Uniform1f(r.roughLoc, mat.Roughness)
	gl.Uniform1i(r.flatLoc, boolToInt(mat.FlatShading))
	gl.Uniform1i(r.hasMapLoc, boolToInt(r.bindTexture(mat.Map, unitMap)))
	if mat.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (r *Renderer) ensureMesh(mesh *scene.Mesh) *gpuMesh {
	if mesh.Disposed() || len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return nil
	}
	if gpu, ok := r.meshes[mesh.ID()]; ok {
		return gpu
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	gpu := &gpuMesh{}
	gl.GenVertexArrays(1, &gpu.vao)
	gl.GenBuffers(1, &gpu.vbo)
	gl.GenBuffers(1, &gpu.ebo)
	gl.BindVertexArray(gpu.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Position))))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Normal))))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.UV))))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(int(unsafe.Offsetof(v.Color))))

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	id := mesh.ID()
	r.meshes[id] = gpu
	mesh.OnDispose(func() error {
		r.release(func() { r.deleteMesh(id) })
		return nil
	})
	return gpu
}

func (r *Renderer) release(fn func()) {
	if r.closed {
		return
	}
	r.releases = append(r.releases, fn)
}

func (r *Renderer) flushReleases() {
	fns := r.releases
	r.releases = nil
	for _, fn := range fns {
		fn()
	}
}

func (r *Renderer) deleteMesh(id uuid.UUID) {
	gpu, ok := r.meshes[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.vao)
	gl.DeleteBuffers(1, &gpu.vbo)
	gl.DeleteBuffers(1, &gpu.ebo)
	delete(r.meshes, id)
}

func (r *Renderer) deleteTexture(id uuid.UUID) {
	gpu, ok := r.textures[id]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &gpu.id)
	delete(r.textures, id)
}

// Destroy frees every GPU object the renderer still holds.
func (r *Renderer) Destroy() {
	if r.closed {
		return
	}
	r.flushReleases()
	for id := range r.meshes {
		r.deleteMesh(id)
	}
	for id := range r.textures {
		r.deleteTexture(id)
	}
	r.points.destroy()
	r.sky.destroy()
	gl.DeleteProgram(r.program)
	r.closed = true
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
