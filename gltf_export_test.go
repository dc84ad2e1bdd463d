package mtlxgltf

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywave/go-mtlxgltf/mtlx"
)

func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Save(nil, filepath.Join(dir, "out.gltf")), ErrNoDocument)

	doc := mtlx.NewDocument()
	assert.ErrorIs(t, Save(doc, filepath.Join(dir, "out.fbx")), ErrUnsupportedFormat)
	assert.ErrorIs(t, Save(doc, filepath.Join(dir, "out.gltf")), ErrNoPBRShaders)

	shd := doc.AddNode(categoryUnlit, "SHD_flat", mtlx.TypeSurfaceShader)
	mat := doc.AddNode(categoryMaterial, "MAT_flat", mtlx.TypeMaterial)
	mat.AddInput("surfaceshader", mtlx.TypeSurfaceShader).Connect(shd, "", "")
	assert.ErrorIs(t, Save(doc, filepath.Join(dir, "out.glb")), ErrNoPBRShaders)
}

func TestSaveConstantRoundTrip(t *testing.T) {
	src := gltf.NewDocument()
	src.Materials = []*gltf.Material{{
		Name: "paint",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{0.5, 0.25, 1, 0.8},
			MetallicFactor:  gltf.Float(0.3),
			RoughnessFactor: gltf.Float(0.7),
		},
		EmissiveFactor: [3]float32{0.1, 0.2, 0.3},
		AlphaMode:      gltf.AlphaMask,
		AlphaCutoff:    gltf.Float(0.25),
	}}
	l := &MaterialLoader{}
	mdoc, err := l.LoadDocument(src)
	require.NoError(t, err)

	for _, name := range []string{"out.gltf", "out.glb"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, l.Save(mdoc, path))

		out, err := gltf.Open(path)
		require.NoError(t, err)
		require.Len(t, out.Materials, 1)
		mt := out.Materials[0]
		assert.Equal(t, "SHD_paint", mt.Name)
		require.NotNil(t, mt.PBRMetallicRoughness)
		bc := mt.PBRMetallicRoughness.BaseColorFactorOrDefault()
		assert.InDeltaSlice(t, []float32{0.5, 0.25, 1, 0.8}, bc[:], 1e-6)
		assert.InDelta(t, 0.3, mt.PBRMetallicRoughness.MetallicFactorOrDefault(), 1e-6)
		assert.InDelta(t, 0.7, mt.PBRMetallicRoughness.RoughnessFactorOrDefault(), 1e-6)
		assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, mt.EmissiveFactor[:], 1e-6)
		assert.Equal(t, gltf.AlphaMask, mt.AlphaMode)
		assert.InDelta(t, 0.25, mt.AlphaCutoffOrDefault(), 1e-6)
		assert.Empty(t, out.Images)
	}
}

func TestExportTextures(t *testing.T) {
	src := gltf.NewDocument()
	base := addImage(src, "albedo", "albedo.png")
	orm := addImage(src, "", "orm.png")
	nrm := addImage(src, "", "normal.png")
	emi := addImage(src, "", "glow.png")
	src.Materials = []*gltf.Material{
		{
			Name: "a",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor:          &[4]float32{1, 0.5, 0.5, 0.9},
				BaseColorTexture:         &gltf.TextureInfo{Index: base},
				MetallicRoughnessTexture: &gltf.TextureInfo{Index: orm},
			},
			OcclusionTexture: &gltf.OcclusionTexture{Index: gltf.Index(orm)},
			NormalTexture:    &gltf.NormalTexture{Index: gltf.Index(nrm)},
			EmissiveTexture:  &gltf.TextureInfo{Index: emi},
		},
		{
			Name: "b",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: base},
			},
		},
	}
	l := &MaterialLoader{}
	mdoc, err := l.LoadDocument(src)
	require.NoError(t, err)

	out, err := l.Export(mdoc)
	require.NoError(t, err)
	require.Len(t, out.Materials, 2)
	assert.Len(t, out.Images, 4)
	assert.Len(t, out.Textures, 4)

	uri := func(ti uint32) string {
		return out.Images[*out.Textures[ti].Source].URI
	}

	a := out.Materials[0]
	pbr := a.PBRMetallicRoughness
	require.NotNil(t, pbr.BaseColorTexture)
	assert.Equal(t, "albedo.png", uri(pbr.BaseColorTexture.Index))
	assert.Equal(t, [4]float32{1, 0.5, 0.5, 0.9}, *pbr.BaseColorFactor)
	require.NotNil(t, pbr.MetallicRoughnessTexture)
	assert.Equal(t, "orm.png", uri(pbr.MetallicRoughnessTexture.Index))
	assert.Equal(t, float32(1), *pbr.MetallicFactor)
	assert.Equal(t, float32(1), *pbr.RoughnessFactor)
	assert.Nil(t, a.OcclusionTexture, "occlusion packed in the metallic-roughness file")
	require.NotNil(t, a.NormalTexture)
	assert.Equal(t, "normal.png", uri(*a.NormalTexture.Index))
	require.NotNil(t, a.EmissiveTexture)
	assert.Equal(t, "glow.png", uri(a.EmissiveTexture.Index))
	assert.Equal(t, [3]float32{1, 1, 1}, a.EmissiveFactor)

	b := out.Materials[1]
	require.NotNil(t, b.PBRMetallicRoughness.BaseColorTexture)
	assert.Equal(t, pbr.BaseColorTexture.Index, b.PBRMetallicRoughness.BaseColorTexture.Index)
}

func TestExportSeparateOcclusion(t *testing.T) {
	src := gltf.NewDocument()
	mr := addImage(src, "", "metal_rough.png")
	ao := addImage(src, "", "ao.png")
	src.Materials = []*gltf.Material{{
		Name: "rust",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicRoughnessTexture: &gltf.TextureInfo{Index: mr},
		},
		OcclusionTexture: &gltf.OcclusionTexture{Index: gltf.Index(ao)},
	}}
	l := &MaterialLoader{}
	mdoc, err := l.LoadDocument(src)
	require.NoError(t, err)

	out, err := l.Export(mdoc)
	require.NoError(t, err)
	mt := out.Materials[0]
	require.NotNil(t, mt.PBRMetallicRoughness.MetallicRoughnessTexture)
	require.NotNil(t, mt.OcclusionTexture)
	assert.NotEqual(t, mt.PBRMetallicRoughness.MetallicRoughnessTexture.Index, *mt.OcclusionTexture.Index)
	assert.Equal(t, "metal_rough.png", out.Images[*out.Textures[mt.PBRMetallicRoughness.MetallicRoughnessTexture.Index].Source].URI)
	assert.Equal(t, "ao.png", out.Images[*out.Textures[*mt.OcclusionTexture.Index].Source].URI)
}

func TestExportExtensions(t *testing.T) {
	src := gltf.NewDocument()
	src.Materials = []*gltf.Material{{
		Name: "car",
		Extensions: gltf.Extensions{
			extClearcoat:        json.RawMessage(`{"clearcoatFactor":0.5,"clearcoatRoughnessFactor":0.2}`),
			extSheen:            json.RawMessage(`{"sheenColorFactor":[0.1,0.2,0.3],"sheenRoughnessFactor":0.4}`),
			extTransmission:     json.RawMessage(`{"transmissionFactor":0.6}`),
			extIOR:              json.RawMessage(`{"ior":1.33}`),
			extEmissiveStrength: json.RawMessage(`{"emissiveStrength":4}`),
		},
	}}
	l := &MaterialLoader{}
	mdoc, err := l.LoadDocument(src)
	require.NoError(t, err)
	out, err := l.Export(mdoc)
	require.NoError(t, err)

	mt := out.Materials[0]
	var cc clearcoatExt
	require.True(t, decodeExtension(mt.Extensions, extClearcoat, &cc))
	assert.Equal(t, float32(0.5), cc.factor())
	assert.Equal(t, float32(0.2), cc.roughness())

	var sh sheenExt
	require.True(t, decodeExtension(mt.Extensions, extSheen, &sh))
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, sh.color())
	assert.Equal(t, float32(0.4), sh.roughness())

	var tr transmissionExt
	require.True(t, decodeExtension(mt.Extensions, extTransmission, &tr))
	assert.Equal(t, float32(0.6), tr.factor())

	var ior iorExt
	require.True(t, decodeExtension(mt.Extensions, extIOR, &ior))
	assert.Equal(t, float32(1.33), ior.value())

	var es emissiveStrengthExt
	require.True(t, decodeExtension(mt.Extensions, extEmissiveStrength, &es))
	assert.Equal(t, float32(4), es.value())

	assert.NotContains(t, mt.Extensions, extSpecular)
	assert.NotContains(t, mt.Extensions, extVolume)
	assert.ElementsMatch(t, []string{extClearcoat, extSheen, extTransmission, extIOR, extEmissiveStrength}, out.ExtensionsUsed)
}

func TestExportFromMaterialXFile(t *testing.T) {
	doc := mtlx.NewDocument()
	shd := doc.AddNode(categoryPBR, "SHD_gold", mtlx.TypeSurfaceShader)
	shd.AddInput("base_color", mtlx.TypeColor3).SetValue(mtlx.Color3Value(mtlx.Color3{1, 0.8, 0.2}))
	shd.AddInput("metallic", mtlx.TypeFloat).SetValue(mtlx.FloatValue(1))
	shd.AddInput("roughness", mtlx.TypeFloat).SetValue(mtlx.FloatValue(0.2))
	img := doc.AddNode("tiledimage", "image_orm", mtlx.TypeVector3)
	img.AddInput("file", mtlx.TypeFilename).SetValue(mtlx.FilenameValue("gold_orm.png"))
	ext := doc.AddNode("extract", "extract_roughness", mtlx.TypeFloat)
	ext.AddInput("in", mtlx.TypeVector3).Connect(img, "", "")
	ext.AddInput("index", mtlx.TypeInteger).SetValue(mtlx.IntValue(1))
	shd.Input("roughness").Connect(ext, "", "")
	mat := doc.AddNode(categoryMaterial, "MAT_gold", mtlx.TypeMaterial)
	mat.AddInput("surfaceshader", mtlx.TypeSurfaceShader).Connect(shd, "", "")

	dir := t.TempDir()
	mtlxPath := filepath.Join(dir, "gold.mtlx")
	require.NoError(t, doc.WriteFile(mtlxPath))
	read, err := mtlx.ReadFile(mtlxPath)
	require.NoError(t, err)

	out, err := (&MaterialLoader{}).Export(read)
	require.NoError(t, err)
	require.Len(t, out.Materials, 1)
	pbr := out.Materials[0].PBRMetallicRoughness
	assert.Equal(t, [4]float32{1, 0.8, 0.2, 1}, *pbr.BaseColorFactor)
	assert.Equal(t, float32(1), *pbr.MetallicFactor)
	assert.Equal(t, float32(1), *pbr.RoughnessFactor)
	require.NotNil(t, pbr.MetallicRoughnessTexture)
	assert.Equal(t, "gold_orm.png", out.Images[0].URI)
	assert.Nil(t, out.Materials[0].OcclusionTexture)
}
