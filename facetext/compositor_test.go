package facetext

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album-cube/core"
	"album-cube/materials"
)

func TestInkForBoundaries(t *testing.T) {
	assert.Equal(t, core.ColorBlack, InkFor(core.MustHex("#FFFFFF")))
	assert.Equal(t, core.ColorWhite, InkFor(core.MustHex("#000000")))
	// 127/255 ≈ 0.498
	assert.Equal(t, core.ColorWhite, InkFor(core.MustHex("#7F7F7F")))
	assert.Equal(t, core.ColorBlack, InkFor(core.MustHex("#808080")))
	// pure green is bright, pure blue is dark
	assert.Equal(t, core.ColorBlack, InkFor(core.MustHex("#00FF00")))
	assert.Equal(t, core.ColorWhite, InkFor(core.MustHex("#0000FF")))
}

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := NewCompositor(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestComposeKeepsTextureIdentity(t *testing.T) {
	c := newTestCompositor(t)
	first := c.Compose(0, core.MustHex("#0a0a1a"), "RUDYBTZ", materials.StyleSolid)
	v := first.Version
	second := c.Compose(0, core.MustHex("#ffffff"), "THE ALBUM", materials.StyleSolid)

	assert.Same(t, first, second)
	assert.Same(t, c.Texture(0), second)
	assert.Greater(t, second.Version, v)
	assert.Equal(t, DefaultSize, second.Width)
}

func TestComposeInkColor(t *testing.T) {
	c := newTestCompositor(t)

	tex := c.Compose(1, core.MustHex("#000000"), "A", materials.StyleSolid)
	r, g, b, a := firstOpaque(tex.RGBA())
	require.NotZero(t, a)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})

	tex = c.Compose(1, core.MustHex("#ffffff"), "A", materials.StyleSolid)
	assert.True(t, hasOpaque(tex.RGBA()))
	r, g, b, _ = firstOpaque(tex.RGBA())
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestComposeClearsPreviousContent(t *testing.T) {
	c := newTestCompositor(t)
	c.Compose(2, core.ColorBlack, "WIDE TEXT", materials.StyleSolid)
	require.True(t, hasOpaque(c.Texture(2).RGBA()))

	c.Compose(2, core.ColorBlack, "", materials.StyleSolid)
	assert.False(t, hasOpaque(c.Texture(2).RGBA()))
}

func TestComposeGlassSkipsText(t *testing.T) {
	c := newTestCompositor(t)
	tex := c.Compose(3, core.ColorBlack, "RUDYBTZ", materials.StyleGlass)
	assert.False(t, hasOpaque(tex.RGBA()))
}

func TestComposeTextIsCentered(t *testing.T) {
	c := newTestCompositor(t)
	img := c.Compose(0, core.ColorBlack, "O", materials.StyleSolid).RGBA()

	minX, minY, maxX, maxY := DefaultSize, DefaultSize, 0, 0
	for y := 0; y < DefaultSize; y++ {
		for x := 0; x < DefaultSize; x++ {
			if img.RGBAAt(x, y).A > 128 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	require.Less(t, minX, maxX)
	assert.InDelta(t, DefaultSize/2, (minX+maxX)/2, 10)
	assert.InDelta(t, DefaultSize/2, (minY+maxY)/2, 10)
}

func TestComposeDrawsFaceImageBeneathText(t *testing.T) {
	c := newTestCompositor(t)
	src := image.NewUniform(color.RGBA{R: 200, A: 255})
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, src.C)
		}
	}
	c.SetFaceImage(4, img)
	tex := c.Compose(4, core.ColorBlack, "", materials.StyleGlass).RGBA()
	px := tex.RGBAAt(3, 250)
	assert.InDelta(t, 200, int(px.R), 2)
	assert.InDelta(t, 255, int(px.A), 2)

	c.SetFaceImage(4, nil)
	tex = c.Compose(4, core.ColorBlack, "", materials.StyleSolid).RGBA()
	assert.Equal(t, color.RGBA{}, tex.RGBAAt(3, 250))
}

func hasOpaque(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 255 {
			return true
		}
	}
	return false
}

// firstOpaque returns the color of the first fully opaque pixel.
func firstOpaque(img *image.RGBA) (r, g, b, a uint8) {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i+3] == 255 {
			return img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
		}
	}
	return 0, 0, 0, 0
}
