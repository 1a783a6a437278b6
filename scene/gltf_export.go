package scene

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLB writes the meshes under root as a binary glTF file. Each face group
// becomes one primitive carrying its material's color, metal/rough factors and,
// when present, its texture map as an embedded PNG.
func ExportGLB(path string, root *Node) error {
	doc, err := BuildGLTF(root)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("gltf save %q: %w", path, err)
	}
	return nil
}

// BuildGLTF converts the mesh nodes under root into a glTF document.
func BuildGLTF(root *Node) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	texCache := make(map[*Texture]int)
	matCache := make(map[*Material]int)

	var walkErr error
	root.Traverse(func(n *Node) {
		if walkErr != nil || n.Mesh == nil {
			return
		}
		mesh := n.Mesh

		positions := make([][3]float32, len(mesh.Vertices))
		normals := make([][3]float32, len(mesh.Vertices))
		uvs := make([][2]float32, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			positions[i] = [3]float32{v.Position.X(), v.Position.Y(), v.Position.Z()}
			normals[i] = [3]float32{v.Normal.X(), v.Normal.Y(), v.Normal.Z()}
			uvs[i] = [2]float32{v.UV.X(), v.UV.Y()}
		}
		attrs := map[string]int{
			"POSITION":   modeler.WritePosition(doc, positions),
			"NORMAL":     modeler.WriteNormal(doc, normals),
			"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
		}

		gm := &gltf.Mesh{Name: mesh.Name}
		for _, g := range mesh.Groups {
			prim := &gltf.Primitive{
				Attributes: attrs,
				Indices:    gltf.Index(modeler.WriteIndices(doc, mesh.Indices[g.Start:g.Start+g.Count])),
			}
			if g.MaterialIndex < len(n.Materials) && n.Materials[g.MaterialIndex] != nil {
				idx, err := exportMaterial(doc, n.Materials[g.MaterialIndex], matCache, texCache)
				if err != nil {
					walkErr = err
					return
				}
				prim.Material = gltf.Index(idx)
			}
			gm.Primitives = append(gm.Primitives, prim)
		}
		doc.Meshes = append(doc.Meshes, gm)

		t := n.Transform
		q := quatFromEuler(t.Rotation)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        n.Name,
			Mesh:        gltf.Index(len(doc.Meshes) - 1),
			Translation: [3]float64{float64(t.Position.X()), float64(t.Position.Y()), float64(t.Position.Z())},
			Rotation:    q,
			Scale:       [3]float64{float64(t.Scale.X()), float64(t.Scale.Y()), float64(t.Scale.Z())},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return doc, nil
}

func exportMaterial(doc *gltf.Document, m *Material, matCache map[*Material]int, texCache map[*Texture]int) (int, error) {
	if idx, ok := matCache[m]; ok {
		return idx, nil
	}
	alpha := float64(m.Opacity)
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{float64(m.Color.R), float64(m.Color.G), float64(m.Color.B), alpha},
		MetallicFactor:  gltf.Float(float64(m.Metalness)),
		RoughnessFactor: gltf.Float(float64(m.Roughness)),
	}
	if m.Map != nil {
		tex, err := exportTexture(doc, m.Map, texCache)
		if err != nil {
			return 0, err
		}
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}
	gm := &gltf.Material{
		Name:                 m.Name,
		PBRMetallicRoughness: pbr,
		AlphaMode:            gltf.AlphaOpaque,
	}
	if m.Transparent {
		gm.AlphaMode = gltf.AlphaBlend
		gm.DoubleSided = true
	}
	doc.Materials = append(doc.Materials, gm)
	idx := len(doc.Materials) - 1
	matCache[m] = idx
	return idx, nil
}

func exportTexture(doc *gltf.Document, t *Texture, texCache map[*Texture]int) (int, error) {
	if idx, ok := texCache[t]; ok {
		return idx, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.RGBA()); err != nil {
		return 0, fmt.Errorf("encode texture %q: %w", t.Name, err)
	}
	img, err := modeler.WriteImage(doc, t.Name, "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("write texture %q: %w", t.Name, err)
	}
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
	idx := len(doc.Textures) - 1
	texCache[t] = idx
	return idx, nil
}

// quatFromEuler converts XYZ Euler angles to a glTF [x, y, z, w] quaternion.
func quatFromEuler(r mgl32.Vec3) [4]float64 {
	q := mgl32.AnglesToQuat(r.X(), r.Y(), r.Z(), mgl32.XYZ)
	return [4]float64{float64(q.V.X()), float64(q.V.Y()), float64(q.V.Z()), float64(q.W)}
}
