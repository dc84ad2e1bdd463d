package mtlxgltf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"
)

var quadPositions = [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

var quadTexcoords = [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// quadPrimitive writes a two triangle unit quad in the z=0 plane.
func quadPrimitive(doc *gltf.Document, indexed bool) *gltf.Primitive {
	pos := modeler.WritePosition(doc, quadPositions)
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, quadTexcoords)
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION:   uint32(pos),
			gltf.NORMAL:     uint32(nrm),
			gltf.TEXCOORD_0: uint32(uv),
		},
	}
	if indexed {
		idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
		prim.Indices = gltf.Index(uint32(idx))
	}
	return prim
}

// quadDocument holds one material "brick", one mesh "quad" and one node
// "root" placing it at x=10.
func quadDocument() *gltf.Document {
	doc := gltf.NewDocument()
	prim := quadPrimitive(doc, true)
	prim.Material = gltf.Index(0)
	doc.Materials = []*gltf.Material{{
		Name: "brick",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 0, 0, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(0.5),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{Name: "quad", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0), Translation: [3]float32{10, 0, 0}}}
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

// addImage registers an external image and a texture reading it, returning
// the texture index.
func addImage(doc *gltf.Document, name, uri string) uint32 {
	doc.Images = append(doc.Images, &gltf.Image{Name: name, URI: uri})
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(uint32(len(doc.Images) - 1))})
	return uint32(len(doc.Textures) - 1)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func saveGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asset.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}
