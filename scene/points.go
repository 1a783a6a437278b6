package scene

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"album-cube/core"
)

// Points is a cloud of independent round sprites. When VertexColors is set each
// point uses Colors[i], otherwise every point uses Color.
type Points struct {
	resource

	Name      string
	Positions []mgl32.Vec3
	Colors    []core.Color

	Color        core.Color
	VertexColors bool
	Size         float32
	Opacity      float32
	Transparent  bool
	// Additive blends the sprites with ONE, ONE instead of alpha blending.
	Additive bool

	Version uint64
}

// NewPointCloud scatters count points uniformly in an axis-aligned cube of
// side extent centered on the origin.
func NewPointCloud(name string, count int, extent float32, rng *rand.Rand) *Points {
	positions := make([]mgl32.Vec3, count)
	for i := range positions {
		positions[i] = mgl32.Vec3{
			(rng.Float32() - 0.5) * extent,
			(rng.Float32() - 0.5) * extent,
			(rng.Float32() - 0.5) * extent,
		}
	}
	return &Points{
		resource:  newResource(),
		Name:      name,
		Positions: positions,
		Color:     core.ColorWhite,
		Size:      0.1,
		Opacity:   1,
	}
}

func (p *Points) Count() int { return len(p.Positions) }

// AssignPalette gives every point a color drawn uniformly from palette.
func (p *Points) AssignPalette(palette []core.Color, rng *rand.Rand) {
	if len(palette) == 0 {
		return
	}
	if len(p.Colors) != len(p.Positions) {
		p.Colors = make([]core.Color, len(p.Positions))
	}
	for i := range p.Colors {
		p.Colors[i] = palette[rng.Intn(len(palette))]
	}
	p.VertexColors = true
	p.MarkDirty()
}

func (p *Points) MarkDirty() {
	p.Version++
}
