// Package facetext rasterizes the per-face decal textures of the cube: an
// optional face image with the face text centered on top.
package facetext

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"album-cube/core"
	"album-cube/materials"
	"album-cube/scene"
)

const (
	DefaultSize     = 256
	DefaultFontSize = 40
)

// LuminanceThreshold splits face colors into light (black ink) and dark (white ink).
const LuminanceThreshold = 0.5

type Options struct {
	// Size is the edge length in pixels of each face surface.
	Size int
	// FontSize is in pixels at 72 DPI.
	FontSize float64
	// TTF overrides the built-in bold face.
	TTF []byte
}

// Compositor owns one surface per cube face. Surfaces are allocated once and
// redrawn in place; Compose always returns the same *scene.Texture for a face.
type Compositor struct {
	size     int
	face     font.Face
	textures [scene.FaceCount]*scene.Texture
	images   [scene.FaceCount]image.Image
}

func NewCompositor(opts Options) (*Compositor, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	if opts.TTF == nil {
		opts.TTF = gobold.TTF
	}

	f, err := opentype.Parse(opts.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse face font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	c := &Compositor{size: opts.Size, face: face}
	for i := range c.textures {
		c.textures[i] = scene.NewTexture(fmt.Sprintf("face-%d", i+1), opts.Size, opts.Size)
	}
	return c, nil
}

// Texture returns the surface of face i (0-based).
func (c *Compositor) Texture(i int) *scene.Texture {
	return c.textures[i]
}

// SetFaceImage sets the backdrop drawn beneath face i's text; nil removes it.
// It takes effect on the next Compose of that face.
func (c *Compositor) SetFaceImage(i int, img image.Image) {
	c.images[i] = img
}

func (c *Compositor) FaceImage(i int) image.Image {
	return c.images[i]
}

// Compose clears face i's surface and redraws it: the face image scaled to
// fill, then text centered in an ink chosen against bg. Text is skipped for
// the glass style, where it shows through from behind.
func (c *Compositor) Compose(i int, bg core.Color, text string, style materials.Style) *scene.Texture {
	tex := c.textures[i]
	dst := tex.RGBA()
	bounds := dst.Bounds()

	draw.Draw(dst, bounds, image.Transparent, image.Point{}, draw.Src)
	if img := c.images[i]; img != nil {
		draw.CatmullRom.Scale(dst, bounds, img, img.Bounds(), draw.Over, nil)
	}
	if style != materials.StyleGlass && text != "" {
		c.drawCentered(dst, text, InkFor(bg))
	}

	tex.MarkDirty()
	return tex
}

func (c *Compositor) drawCentered(dst draw.Image, text string, ink core.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink.NRGBA()),
		Face: c.face,
	}
	m := c.face.Metrics()
	advance := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(c.size) - advance) / 2,
		Y: (fixed.I(c.size) + m.Ascent - m.Descent) / 2,
	}
	d.DrawString(text)
}

// InkFor picks black text on light faces and white text on dark ones.
func InkFor(bg core.Color) core.Color {
	if bg.Luminance() > LuminanceThreshold {
		return core.ColorBlack
	}
	return core.ColorWhite
}

// Close releases the font face.
func (c *Compositor) Close() error {
	return c.face.Close()
}
