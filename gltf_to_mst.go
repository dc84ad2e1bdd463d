package mtlxgltf

import (
	"fmt"
	"math"
	"path/filepath"

	mst "github.com/flywave/go-mst"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// GltfToMst packs the flattened meshes of a glTF asset into one mst mesh:
// a node per mesh instance, a triangle group per partition and a PBR
// material per glTF material.
type GltfToMst struct {
	FlipTexcoordV bool
	SkipTangents  bool
	Logger        *zap.Logger

	doc     *gltf.Document
	baseDir string
	mtlIdx  map[string]int32
}

func (g *GltfToMst) Convert(path string) (*mst.Mesh, *[6]float64, error) {
	if err := checkFormat(path, GLTF, GLB); err != nil {
		return nil, nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mtlxgltf: open %s: %w", path, err)
	}
	g.baseDir = filepath.Dir(path)
	return g.ConvertFromDoc(doc, path)
}

func (g *GltfToMst) ConvertFromDoc(doc *gltf.Document, sourceURI string) (*mst.Mesh, *[6]float64, error) {
	loader := &MeshLoader{FlipTexcoordV: g.FlipTexcoordV, SkipTangents: g.SkipTangents, Logger: g.Logger}
	meshes, err := loader.LoadDocument(doc, sourceURI)
	if err != nil {
		return nil, nil, err
	}

	g.doc = doc
	g.mtlIdx = make(map[string]int32)
	mesh := mst.NewMesh()
	for i, mt := range doc.Materials {
		if mt == nil {
			continue
		}
		name, _ := materialNames(mt)
		if _, ok := g.mtlIdx[name]; ok {
			continue
		}
		g.mtlIdx[name] = int32(len(mesh.Materials))
		mesh.Materials = append(mesh.Materials, g.transMaterial(mt, i))
	}

	bbx := &[6]float64{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64}
	for _, m := range meshes {
		nd := g.transMesh(mesh, m)
		if nd == nil {
			continue
		}
		mesh.Nodes = append(mesh.Nodes, nd)
		addPoint(bbx, &m.BoxMin)
		addPoint(bbx, &m.BoxMax)
	}
	if len(mesh.Nodes) == 0 {
		*bbx = [6]float64{}
	}
	return mesh, bbx, nil
}

func (g *GltfToMst) transMesh(mesh *mst.Mesh, m *Mesh) *mst.MeshNode {
	if m.VertexCount == 0 {
		return nil
	}
	nd := &mst.MeshNode{}
	if s := m.StreamBySemantic(SemanticPosition); s != nil {
		for i := 0; i < s.Len(); i++ {
			nd.Vertices = append(nd.Vertices, vec3.T{s.Data[i*3], s.Data[i*3+1], s.Data[i*3+2]})
		}
	}
	if s := m.StreamBySemantic(SemanticNormal); s != nil {
		for i := 0; i < s.Len(); i++ {
			nd.Normals = append(nd.Normals, vec3.T{s.Data[i*3], s.Data[i*3+1], s.Data[i*3+2]})
		}
	}
	if s := m.StreamBySemantic(SemanticTexcoord); s != nil {
		for i := 0; i < s.Len(); i++ {
			nd.TexCoords = append(nd.TexCoords, vec2.T{s.Data[i*s.Stride], s.Data[i*s.Stride+1]})
		}
	}
	if s := m.StreamBySemantic(SemanticColor); s != nil {
		for i := 0; i < s.Len(); i++ {
			c := s.Data[i*s.Stride:]
			nd.Colors = append(nd.Colors, [3]byte{colorByte(c[0]), colorByte(c[1]), colorByte(c[2])})
		}
	}

	for _, p := range m.Partitions {
		tg := &mst.MeshTriangle{Batchid: g.batchID(mesh, p.Material)}
		for i := 0; i+2 < len(p.Indices); i += 3 {
			tg.Faces = append(tg.Faces, &mst.Face{Vertex: [3]uint32{p.Indices[i], p.Indices[i+1], p.Indices[i+2]}})
		}
		nd.FaceGroup = append(nd.FaceGroup, tg)
	}
	return nd
}

// batchID maps a partition material onto its mst material, adding a plain
// white material for partitions without one.
func (g *GltfToMst) batchID(mesh *mst.Mesh, name string) int32 {
	if id, ok := g.mtlIdx[name]; ok {
		return id
	}
	id := int32(len(mesh.Materials))
	mesh.Materials = append(mesh.Materials, &mst.PbrMaterial{
		TextureMaterial: mst.TextureMaterial{BaseMaterial: mst.BaseMaterial{Color: [3]byte{255, 255, 255}}},
		Metallic:        1,
		Roughness:       1,
	})
	g.mtlIdx[name] = id
	return id
}

func (g *GltfToMst) transMaterial(mt *gltf.Material, idx int) *mst.PbrMaterial {
	mtl := &mst.PbrMaterial{Metallic: 1, Roughness: 1, AmbientOcclusion: 1}
	mtl.Color = [3]byte{255, 255, 255}
	if pbr := mt.PBRMetallicRoughness; pbr != nil {
		bc := pbr.BaseColorFactorOrDefault()
		mtl.Color = [3]byte{colorByte(bc[0]), colorByte(bc[1]), colorByte(bc[2])}
		mtl.Transparency = 1 - bc[3]
		mtl.Metallic = pbr.MetallicFactorOrDefault()
		mtl.Roughness = pbr.RoughnessFactorOrDefault()
		if pbr.BaseColorTexture != nil {
			mtl.Texture = g.loadTexture(pbr.BaseColorTexture.Index)
		}
	}
	if mt.NormalTexture != nil && mt.NormalTexture.Index != nil {
		mtl.Normal = g.loadTexture(*mt.NormalTexture.Index)
	}
	mtl.Emissive = [3]byte{colorByte(mt.EmissiveFactor[0]), colorByte(mt.EmissiveFactor[1]), colorByte(mt.EmissiveFactor[2])}

	var cc clearcoatExt
	if decodeExtension(mt.Extensions, extClearcoat, &cc) {
		mtl.ClearCoat = cc.factor()
		mtl.ClearCoatRoughness = cc.roughness()
	}
	var sh sheenExt
	if decodeExtension(mt.Extensions, extSheen, &sh) {
		c := sh.color()
		mtl.SheenColor = [3]byte{colorByte(c[0]), colorByte(c[1]), colorByte(c[2])}
	}
	g.logger().Debug("material", zap.Int("index", idx), zap.String("name", mt.Name))
	return mtl
}

func (g *GltfToMst) loadTexture(texIdx uint32) *mst.Texture {
	if int(texIdx) >= len(g.doc.Textures) || g.doc.Textures[texIdx].Source == nil {
		return nil
	}
	src := *g.doc.Textures[texIdx].Source
	if int(src) >= len(g.doc.Images) {
		return nil
	}
	data, err := loadImageData(g.doc, g.doc.Images[src], g.baseDir)
	if err != nil {
		g.logger().Debug("texture skipped", zap.Uint32("texture", texIdx), zap.Error(err))
		return nil
	}
	tex, err := convertTex(data, int(texIdx))
	if err != nil {
		g.logger().Debug("texture skipped", zap.Uint32("texture", texIdx), zap.Error(err))
		return nil
	}
	return tex
}

func (g *GltfToMst) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func colorByte(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}

func addPoint(bx *[6]float64, p *[3]float64) {
	bx[0] = math.Min(bx[0], p[0])
	bx[1] = math.Min(bx[1], p[1])
	bx[2] = math.Min(bx[2], p[2])

	bx[3] = math.Max(bx[3], p[0])
	bx[4] = math.Max(bx[4], p[1])
	bx[5] = math.Max(bx[5], p[2])
}
