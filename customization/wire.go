package customization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"album-cube/core"
	"album-cube/materials"
)

// Wire is the flat preset format shared by preset files, the handoff channel
// and generated presets. Missing fields take their values from Default, except
// the six texts, which are taken as given.
type Wire struct {
	FaceColor1 string `json:"faceColor1,omitempty" yaml:"faceColor1,omitempty"`
	FaceColor2 string `json:"faceColor2,omitempty" yaml:"faceColor2,omitempty"`
	FaceColor3 string `json:"faceColor3,omitempty" yaml:"faceColor3,omitempty"`
	FaceColor4 string `json:"faceColor4,omitempty" yaml:"faceColor4,omitempty"`
	FaceColor5 string `json:"faceColor5,omitempty" yaml:"faceColor5,omitempty"`
	FaceColor6 string `json:"faceColor6,omitempty" yaml:"faceColor6,omitempty"`

	Text1 string `json:"text1" yaml:"text1"`
	Text2 string `json:"text2" yaml:"text2"`
	Text3 string `json:"text3" yaml:"text3"`
	Text4 string `json:"text4" yaml:"text4"`
	Text5 string `json:"text5" yaml:"text5"`
	Text6 string `json:"text6" yaml:"text6"`

	FaceImage1 string `json:"faceImage1,omitempty" yaml:"faceImage1,omitempty"`
	FaceImage2 string `json:"faceImage2,omitempty" yaml:"faceImage2,omitempty"`
	FaceImage3 string `json:"faceImage3,omitempty" yaml:"faceImage3,omitempty"`
	FaceImage4 string `json:"faceImage4,omitempty" yaml:"faceImage4,omitempty"`
	FaceImage5 string `json:"faceImage5,omitempty" yaml:"faceImage5,omitempty"`
	FaceImage6 string `json:"faceImage6,omitempty" yaml:"faceImage6,omitempty"`

	EdgeStyle     string   `json:"edgeStyle,omitempty" yaml:"edgeStyle,omitempty"`
	Roundness     *float32 `json:"roundness,omitempty" yaml:"roundness,omitempty"`
	MaterialStyle string   `json:"materialStyle,omitempty" yaml:"materialStyle,omitempty"`
	// Wireframe is the older switch for the wireframe material style. When it
	// is present without materialStyle, false means solid.
	Wireframe *bool `json:"wireframe,omitempty" yaml:"wireframe,omitempty"`

	Background       string `json:"background,omitempty" yaml:"background,omitempty"`
	ParticleColor1   string `json:"particleColor1,omitempty" yaml:"particleColor1,omitempty"`
	ParticleColor2   string `json:"particleColor2,omitempty" yaml:"particleColor2,omitempty"`
	ParticleColor3   string `json:"particleColor3,omitempty" yaml:"particleColor3,omitempty"`
	EnvironmentImage string `json:"environmentImage,omitempty" yaml:"environmentImage,omitempty"`
	EnvironmentVideo string `json:"environmentVideo,omitempty" yaml:"environmentVideo,omitempty"`

	Animation    string `json:"animation,omitempty" yaml:"animation,omitempty"`
	LyricDisplay string `json:"lyricDisplay,omitempty" yaml:"lyricDisplay,omitempty"`
}

// Decode validates w into a complete Customization. Absent fields fall back to
// Default; malformed ones are errors.
func Decode(w Wire) (Customization, error) {
	c := Default()

	faceColors := [FaceCount]string{w.FaceColor1, w.FaceColor2, w.FaceColor3, w.FaceColor4, w.FaceColor5, w.FaceColor6}
	for i, s := range faceColors {
		if s == "" {
			continue
		}
		col, err := core.ParseHexColor(s)
		if err != nil {
			return Customization{}, fmt.Errorf("%w: faceColor%d: %v", ErrInvalidColor, i+1, err)
		}
		c.FaceColors[i] = col
	}
	c.Texts = [FaceCount]string{w.Text1, w.Text2, w.Text3, w.Text4, w.Text5, w.Text6}
	c.FaceImages = [FaceCount]string{w.FaceImage1, w.FaceImage2, w.FaceImage3, w.FaceImage4, w.FaceImage5, w.FaceImage6}

	if w.EdgeStyle != "" {
		c.Edge = EdgeStyle(strings.ToLower(w.EdgeStyle))
	}
	if w.Roundness != nil {
		c.Roundness = *w.Roundness
	}

	if w.MaterialStyle != "" {
		c.Material = materials.ParseStyle(w.MaterialStyle)
	} else if w.Wireframe != nil {
		c.Material = materials.StyleSolid
	}
	if w.Wireframe != nil && *w.Wireframe && c.Material == materials.StyleSolid {
		c.Material = materials.StyleWireframe
	}

	switch BackgroundMode(strings.ToLower(w.Background)) {
	case "", ModeSnow:
		c.Background = Snow{}
	case ModeParticles:
		p := Particles{Colors: DefaultParticleColors}
		for i, s := range [3]string{w.ParticleColor1, w.ParticleColor2, w.ParticleColor3} {
			if s == "" {
				continue
			}
			col, err := core.ParseHexColor(s)
			if err != nil {
				return Customization{}, fmt.Errorf("%w: particleColor%d: %v", ErrInvalidColor, i+1, err)
			}
			p.Colors[i] = col
		}
		c.Background = p
	case ModeImage:
		c.Background = Image{URL: w.EnvironmentImage}
	case ModeVideo:
		c.Background = Video{URL: w.EnvironmentVideo}
	default:
		return Customization{}, fmt.Errorf("%w: background %q", ErrInvalidValue, w.Background)
	}

	if w.Animation != "" {
		c.Animation = Animation(strings.ToLower(w.Animation))
		if c.Animation == "static" {
			c.Animation = AnimationNone
		}
	}
	if w.LyricDisplay != "" {
		c.LyricDisplay = LyricDisplay(strings.ToLower(w.LyricDisplay))
	}

	if err := c.Validate(); err != nil {
		return Customization{}, err
	}
	return c, nil
}

// Encode flattens c back into the wire format.
func Encode(c Customization) Wire {
	r := c.Roundness
	w := Wire{
		FaceColor1: c.FaceColors[0].Hex(), FaceColor2: c.FaceColors[1].Hex(), FaceColor3: c.FaceColors[2].Hex(),
		FaceColor4: c.FaceColors[3].Hex(), FaceColor5: c.FaceColors[4].Hex(), FaceColor6: c.FaceColors[5].Hex(),
		Text1: c.Texts[0], Text2: c.Texts[1], Text3: c.Texts[2],
		Text4: c.Texts[3], Text5: c.Texts[4], Text6: c.Texts[5],
		FaceImage1: c.FaceImages[0], FaceImage2: c.FaceImages[1], FaceImage3: c.FaceImages[2],
		FaceImage4: c.FaceImages[3], FaceImage5: c.FaceImages[4], FaceImage6: c.FaceImages[5],
		EdgeStyle:     string(c.Edge),
		Roundness:     &r,
		MaterialStyle: string(c.Material),
		Animation:     string(c.Animation),
		LyricDisplay:  string(c.LyricDisplay),
	}
	if c.Material == materials.StyleWireframe {
		wireframe := true
		w.Wireframe = &wireframe
	}
	if c.Background != nil {
		w.Background = string(c.Background.Mode())
	}
	switch bg := c.Background.(type) {
	case Particles:
		w.ParticleColor1, w.ParticleColor2, w.ParticleColor3 = bg.Colors[0].Hex(), bg.Colors[1].Hex(), bg.Colors[2].Hex()
	case Image:
		w.EnvironmentImage = bg.URL
	case Video:
		w.EnvironmentVideo = bg.URL
	}
	return w
}

// Parse reads a preset in JSON or YAML. JSON is detected by a leading '{'.
func Parse(data []byte) (Customization, error) {
	var w Wire
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return Customization{}, fmt.Errorf("parse preset json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &w); err != nil {
		return Customization{}, fmt.Errorf("parse preset yaml: %w", err)
	}
	return Decode(w)
}

// LoadFile reads a preset file (.json, .yaml or .yml).
func LoadFile(path string) (Customization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Customization{}, fmt.Errorf("read preset %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Customization{}, fmt.Errorf("preset %q: %w", filepath.Base(path), err)
	}
	return c, nil
}

// SaveFile writes c as YAML, or JSON when path ends in .json.
func SaveFile(path string, c Customization) error {
	w := Encode(c)
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(w, "", "  ")
	} else {
		data, err = yaml.Marshal(w)
	}
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
