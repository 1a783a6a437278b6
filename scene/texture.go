package scene

import (
	"image"

	"golang.org/x/image/draw"
)

// Mapping tells the backend how to sample a texture.
type Mapping int

const (
	MappingUV Mapping = iota
	// MappingEquirectangular wraps the image around the view sphere.
	MappingEquirectangular
)

// Texture holds CPU-side pixel data for a 2D texture. Pixels are RGBA8,
// row-major, top-to-bottom. Content edits bump Version via MarkDirty and keep
// the same object, so the backend re-uploads into the same GL texture.
type Texture struct {
	resource

	Name    string
	Width   int
	Height  int
	Pixels  []byte
	Mapping Mapping

	Version uint64
}

// NewTexture allocates a transparent width x height texture.
func NewTexture(name string, width, height int) *Texture {
	return &Texture{
		resource: newResource(),
		Name:     name,
		Width:    width,
		Height:   height,
		Pixels:   make([]byte, width*height*4),
	}
}

// NewTextureFromImage converts img to RGBA8.
func NewTextureFromImage(name string, img image.Image) *Texture {
	b := img.Bounds()
	t := NewTexture(name, b.Dx(), b.Dy())
	draw.Draw(t.RGBA(), t.RGBA().Bounds(), img, b.Min, draw.Src)
	return t
}

// RGBA returns an image view sharing the texture's pixel buffer. Drawing into
// it edits the texture in place; call MarkDirty afterwards.
func (t *Texture) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    t.Pixels,
		Stride: t.Width * 4,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
}

func (t *Texture) MarkDirty() {
	t.Version++
}
