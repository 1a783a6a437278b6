package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"album-cube/scene"
)

type gpuTexture struct {
	id      uint32
	width   int
	height  int
	version uint64
}

// bindTexture makes tex current on unit, uploading or refreshing it when its
// Version moved. Content edits of the same size reuse the GL texture.
func (r *Renderer) bindTexture(tex *scene.Texture, unit uint32) bool {
	if tex == nil || tex.Disposed() || len(tex.Pixels) < tex.Width*tex.Height*4 || tex.Width == 0 {
		return false
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)

	gpu, ok := r.textures[tex.ID()]
	if !ok {
		gpu = &gpuTexture{width: tex.Width, height: tex.Height, version: tex.Version}
		gl.GenTextures(1, &gpu.id)
		gl.BindTexture(gl.TEXTURE_2D, gpu.id)
		wrapS := int32(gl.CLAMP_TO_EDGE)
		if tex.Mapping == scene.MappingEquirectangular {
			wrapS = gl.REPEAT
		}
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapS)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(tex.Width), int32(tex.Height), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Pixels))
		gl.GenerateMipmap(gl.TEXTURE_2D)

		r.textures[tex.ID()] = gpu
		id := tex.ID()
		tex.OnDispose(func() error {
			r.release(func() { r.deleteTexture(id) })
			return nil
		})
		return true
	}

	gl.BindTexture(gl.TEXTURE_2D, gpu.id)
	if gpu.version == tex.Version {
		return true
	}
	if gpu.width == tex.Width && gpu.height == tex.Height {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(tex.Width), int32(tex.Height),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(tex.Width), int32(tex.Height), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Pixels))
		gpu.width, gpu.height = tex.Width, tex.Height
	}
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gpu.version = tex.Version
	return true
}
