// Package customization is the cube's input snapshot: what every face, the
// edges, the material, the background and the animation should look like.
package customization

import (
	"errors"
	"fmt"

	"album-cube/core"
	"album-cube/materials"
	"album-cube/scene"
)

const FaceCount = scene.FaceCount

var (
	ErrInvalidColor = errors.New("invalid color")
	ErrMissingURL   = errors.New("missing url")
	ErrInvalidValue = errors.New("invalid value")
)

type EdgeStyle string

const (
	EdgeSharp EdgeStyle = scene.EdgeSharp
	EdgeRound EdgeStyle = scene.EdgeRound
	EdgeBevel EdgeStyle = scene.EdgeBevel
)

type Animation string

const (
	AnimationPulse         Animation = "pulse"
	AnimationAudioReactive Animation = "audio-reactive"
	AnimationNone          Animation = "none"
)

type LyricDisplay string

const (
	LyricsUnderneath LyricDisplay = "underneath"
	LyricsCube       LyricDisplay = "cube"
	LyricsOff        LyricDisplay = "off"
)

type BackgroundMode string

const (
	ModeSnow      BackgroundMode = "snow"
	ModeParticles BackgroundMode = "particles"
	ModeImage     BackgroundMode = "image"
	ModeVideo     BackgroundMode = "video"
)

// Background is one of Snow, Particles, Image or Video. Each variant carries
// exactly the fields its mode needs.
type Background interface {
	Mode() BackgroundMode
	isBackground()
}

type Snow struct{}

// Particles colors each particle with one of three colors.
type Particles struct {
	Colors [3]core.Color
}

// Image is an equirectangular sky loaded from URL.
type Image struct {
	URL string
}

// Video is drawn by the host behind the scene; the engine only clears its own sky.
type Video struct {
	URL string
}

func (Snow) Mode() BackgroundMode      { return ModeSnow }
func (Particles) Mode() BackgroundMode { return ModeParticles }
func (Image) Mode() BackgroundMode     { return ModeImage }
func (Video) Mode() BackgroundMode     { return ModeVideo }

func (Snow) isBackground()      {}
func (Particles) isBackground() {}
func (Image) isBackground()     {}
func (Video) isBackground()     {}

// Customization is a complete, immutable snapshot. Consumers read it and never
// modify it; helpers that derive a new snapshot return a copy.
type Customization struct {
	FaceColors [FaceCount]core.Color
	Texts      [FaceCount]string
	// FaceImages holds optional image references, "" for none.
	FaceImages [FaceCount]string

	Edge      EdgeStyle
	Roundness float32
	Material  materials.Style

	Background   Background
	Animation    Animation
	LyricDisplay LyricDisplay
}

// DefaultTexts are the landing texts shown while nothing plays.
var DefaultTexts = [FaceCount]string{"RUDYBTZ", "THE ALBUM"}

// DefaultParticleColors is the palette used when particles are chosen without colors.
var DefaultParticleColors = [3]core.Color{
	core.MustHex("#7DF9FF"),
	core.MustHex("#9400D3"),
	core.MustHex("#FFFFFF"),
}

// Default is the landing look of the album cube.
func Default() Customization {
	c := Customization{
		Texts:        DefaultTexts,
		Edge:         EdgeRound,
		Roundness:    0.2,
		Material:     materials.StyleWireframe,
		Background:   Snow{},
		Animation:    AnimationPulse,
		LyricDisplay: LyricsUnderneath,
	}
	for i := range c.FaceColors {
		c.FaceColors[i] = core.MustHex("#0a0a1a")
	}
	return c
}

// Validate checks the invariants a snapshot must hold before it is rendered.
func (c Customization) Validate() error {
	switch c.Edge {
	case EdgeSharp, EdgeRound, EdgeBevel:
	default:
		return fmt.Errorf("%w: edge style %q", ErrInvalidValue, c.Edge)
	}
	switch c.Animation {
	case AnimationPulse, AnimationAudioReactive, AnimationNone:
	default:
		return fmt.Errorf("%w: animation %q", ErrInvalidValue, c.Animation)
	}
	switch c.LyricDisplay {
	case LyricsUnderneath, LyricsCube, LyricsOff:
	default:
		return fmt.Errorf("%w: lyric display %q", ErrInvalidValue, c.LyricDisplay)
	}
	switch bg := c.Background.(type) {
	case Snow, Particles:
	case Image:
		if bg.URL == "" {
			return fmt.Errorf("%w: environment image", ErrMissingURL)
		}
	case Video:
		if bg.URL == "" {
			return fmt.Errorf("%w: environment video", ErrMissingURL)
		}
	case nil:
		return fmt.Errorf("%w: no background", ErrInvalidValue)
	default:
		return fmt.Errorf("%w: background %T", ErrInvalidValue, bg)
	}
	return nil
}

// WithTexts returns a copy of c with its face texts replaced.
func (c Customization) WithTexts(texts [FaceCount]string) Customization {
	c.Texts = texts
	return c
}

// WithAnimation returns a copy of c with a different animation.
func (c Customization) WithAnimation(a Animation) Customization {
	c.Animation = a
	return c
}
