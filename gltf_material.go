package mtlxgltf

import (
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
	"github.com/qmuntal/gltf/ext/unlit"
	"go.uber.org/zap"

	"github.com/flywave/go-mtlxgltf/mtlx"
)

const (
	defaultMaterialName = "MATERIAL_0"
	defaultShaderName   = "SHADER_0"

	categoryPBR      = "gltf_pbr"
	categoryUnlit    = "surface_unlit"
	categoryMaterial = "surfacematerial"
)

// MaterialLoader converts glTF materials into a MaterialX document with one
// shader node and one surfacematerial node per material.
type MaterialLoader struct {
	// GenerateAssignments adds a look binding each material to the mesh paths
	// that use it.
	GenerateAssignments bool
	// GenerateFullDefinitions adds every input of a node definition instead of
	// only the mapped ones.
	GenerateFullDefinitions bool
	// ImageDir receives images embedded in the asset. When empty such images
	// are referenced by a blank file name.
	ImageDir string
	Logger   *zap.Logger
}

func (l *MaterialLoader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *MaterialLoader) Load(path string) (*mtlx.Document, error) {
	if err := checkFormat(path, GLTF, GLB); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mtlxgltf: open %s: %w", path, err)
	}
	return l.LoadDocument(doc)
}

// LoadDocument converts the materials of a parsed asset. An asset without
// materials yields an empty document.
func (l *MaterialLoader) LoadDocument(doc *gltf.Document) (*mtlx.Document, error) {
	b := &materialBuilder{
		loader: l,
		gdoc:   doc,
		doc:    mtlx.NewDocument(),
		log:    l.logger(),
		uris:   make(map[uint32]string),
	}
	if len(doc.Materials) == 0 {
		return b.doc, nil
	}

	names := make(map[uint32]string, len(doc.Materials))
	for i, mt := range doc.Materials {
		if mt == nil {
			continue
		}
		names[uint32(i)] = b.addMaterial(mt).Name
	}

	if l.GenerateAssignments {
		buildAssignments(doc, b.doc, names, b.log)
	}
	return b.doc, nil
}

// materialNames derives the material and shader node names of a glTF material
// before they are made unique in a document.
func materialNames(mt *gltf.Material) (string, string) {
	if mt.Name == "" {
		return defaultMaterialName, defaultShaderName
	}
	name := strings.ReplaceAll(mt.Name, "__", "_")
	return "MAT_" + name, "SHD_" + name
}

// materialBuilder holds the state of one LoadDocument call.
type materialBuilder struct {
	loader *MaterialLoader
	gdoc   *gltf.Document
	doc    *mtlx.Document
	log    *zap.Logger

	uris map[uint32]string
}

func (b *materialBuilder) addMaterial(mt *gltf.Material) *mtlx.Node {
	matName, shdName := materialNames(mt)
	matName = b.doc.CreateValidChildName(matName)
	shdName = b.doc.CreateValidChildName(shdName)

	_, useUnlit := mt.Extensions[unlit.ExtensionName]
	category := categoryPBR
	if useUnlit {
		category = categoryUnlit
	}
	shader := b.doc.AddNode(category, shdName, mtlx.TypeSurfaceShader)
	if b.loader.GenerateFullDefinitions {
		shader.AddInputsFromNodeDef()
	}
	matNode := b.doc.AddNode(categoryMaterial, matName, mtlx.TypeMaterial)
	matNode.AddInput("surfaceshader", mtlx.TypeSurfaceShader).Connect(shader, "", "")
	b.log.Debug("material", zap.String("source", mt.Name), zap.String("material", matNode.Name),
		zap.String("shader", shader.Name), zap.Bool("unlit", useUnlit))

	pbr := mt.PBRMetallicRoughness

	separateOcclusion := false
	if !useUnlit && pbr != nil && mt.OcclusionTexture != nil && mt.OcclusionTexture.Index != nil {
		oURI, ok := b.textureURI(*mt.OcclusionTexture.Index)
		mrURI := ""
		if pbr.MetallicRoughnessTexture != nil {
			mrURI, _ = b.textureURI(pbr.MetallicRoughnessTexture.Index)
		}
		if ok && oURI != mrURI {
			separateOcclusion = true
			b.setFloatInput(shader, "occlusion", 1, mt.OcclusionTexture.Index, "image_occlusion")
		}
	}

	if pbr != nil {
		colorInput, alphaInput := "base_color", "alpha"
		if useUnlit {
			colorInput, alphaInput = "emission_color", "opacity"
		}
		bc := pbr.BaseColorFactorOrDefault()
		b.setColorInput(shader, colorInput, mtlx.Color3{bc[0], bc[1], bc[2]}, bc[3], alphaInput,
			textureIndex(pbr.BaseColorTexture), "image_basecolor")
		if useUnlit {
			return matNode
		}
		b.setMetallicRoughness(shader, pbr, separateOcclusion)
	} else if sg, ok := specGlossExt(mt.Extensions); ok && !useUnlit {
		b.setSpecularGlossiness(shader, sg)
	}
	if useUnlit {
		return matNode
	}

	if in := shader.AddInputFromNodeDef("alpha_mode"); in != nil {
		in.SetValue(mtlx.IntValue(int(mt.AlphaMode)))
	}
	if in := shader.AddInputFromNodeDef("alpha_cutoff"); in != nil {
		in.SetValue(mtlx.FloatValue(mt.AlphaCutoffOrDefault()))
	}

	if mt.NormalTexture != nil {
		b.setNormalMapInput(shader, "normal", mt.NormalTexture, "image_normal")
	}

	var sheen sheenExt
	if decodeExtension(mt.Extensions, extSheen, &sheen) {
		c := sheen.color()
		b.setColorInput(shader, "sheen_color", mtlx.Color3{c[0], c[1], c[2]}, 1, "",
			textureIndex(sheen.SheenColorTexture), "image_sheen")
		b.setFloatInput(shader, "sheen_roughness", sheen.roughness(),
			textureIndex(sheen.SheenRoughnessTexture), "image_sheen_roughness")
	}

	var cc clearcoatExt
	if decodeExtension(mt.Extensions, extClearcoat, &cc) {
		b.setFloatInput(shader, "clearcoat", cc.factor(), textureIndex(cc.ClearcoatTexture), "image_clearcoat")
		b.setFloatInput(shader, "clearcoat_roughness", cc.roughness(),
			textureIndex(cc.ClearcoatRoughnessTexture), "image_clearcoat_roughness")
		if cc.ClearcoatNormalTexture != nil {
			b.setNormalMapInput(shader, "clearcoat_normal", cc.ClearcoatNormalTexture, "image_clearcoat_normal")
		}
	}

	var tr transmissionExt
	if decodeExtension(mt.Extensions, extTransmission, &tr) {
		b.setFloatInput(shader, "transmission", tr.factor(), textureIndex(tr.TransmissionTexture), "image_transmission")
	}

	var sp specularExt
	if decodeExtension(mt.Extensions, extSpecular, &sp) {
		c := sp.color()
		b.setColorInput(shader, "specular_color", mtlx.Color3{c[0], c[1], c[2]}, 1, "",
			textureIndex(sp.SpecularColorTexture), "image_specularcolor")
		b.setFloatInput(shader, "specular", sp.factor(), textureIndex(sp.SpecularTexture), "image_specular")
	}

	var ior iorExt
	if decodeExtension(mt.Extensions, extIOR, &ior) {
		if in := shader.AddInputFromNodeDef("ior"); in != nil {
			in.SetValue(mtlx.FloatValue(ior.value()))
		}
	}

	ef := mt.EmissiveFactor
	b.setColorInput(shader, "emissive", mtlx.Color3{ef[0], ef[1], ef[2]}, 1, "",
		textureIndex(mt.EmissiveTexture), "image_emission")

	var es emissiveStrengthExt
	if decodeExtension(mt.Extensions, extEmissiveStrength, &es) {
		if in := shader.AddInputFromNodeDef("emissive_strength"); in != nil {
			in.SetValue(mtlx.FloatValue(es.value()))
		}
	}

	var vol volumeExt
	if decodeExtension(mt.Extensions, extVolume, &vol) {
		b.setFloatInput(shader, "thickness", vol.thickness(), textureIndex(vol.ThicknessTexture), "image_thickness")
		c := vol.color()
		b.setColorInput(shader, "attenuation_color", mtlx.Color3{c[0], c[1], c[2]}, 1, "", nil, "")
		b.setFloatInput(shader, "attenuation_distance", vol.distance(), nil, "")
	}
	return matNode
}

// setMetallicRoughness maps metallic, roughness and occlusion. A
// metallic-roughness texture feeds occlusion, roughness and metallic from its
// x, y and z channels; occlusion is left alone when it has its own texture.
func (b *materialBuilder) setMetallicRoughness(shader *mtlx.Node, pbr *gltf.PBRMetallicRoughness, separateOcclusion bool) {
	metallic := shader.AddInputFromNodeDef("metallic")
	roughness := shader.AddInputFromNodeDef("roughness")
	var occlusion *mtlx.Input
	if !separateOcclusion {
		occlusion = shader.AddInputFromNodeDef("occlusion")
	}

	if pbr.MetallicRoughnessTexture != nil {
		if uri, name, ok := b.textureImage(pbr.MetallicRoughnessTexture.Index); ok {
			if name == "" {
				name = "image_orm"
			}
			orm := b.createTexture(name, uri, mtlx.TypeVector3, "")
			channels := []string{"x", "y", "z"}
			for i, in := range []*mtlx.Input{occlusion, roughness, metallic} {
				if in == nil {
					continue
				}
				in.Type = mtlx.TypeFloat
				in.Connect(orm, "", channels[i])
			}
			return
		}
	}
	metallic.SetValue(mtlx.FloatValue(pbr.MetallicFactorOrDefault()))
	roughness.SetValue(mtlx.FloatValue(pbr.RoughnessFactorOrDefault()))
}

// setSpecularGlossiness maps KHR_materials_pbrSpecularGlossiness. Diffuse
// becomes the base colour; a specular-glossiness texture feeds
// specular_color from its rgb channels and roughness from alpha.
func (b *materialBuilder) setSpecularGlossiness(shader *mtlx.Node, sg *specular.PBRSpecularGlossiness) {
	df := diffuseFactor(sg)
	var diffuseTex *uint32
	if sg.DiffuseTexture != nil {
		diffuseTex = &sg.DiffuseTexture.Index
	}
	b.setColorInput(shader, "base_color", mtlx.Color3{df[0], df[1], df[2]}, df[3], "alpha", diffuseTex, "image_diffusecolor")

	sf := specularFactor(sg)
	specColor := shader.AddInputFromNodeDef("specular_color")
	roughness := shader.AddInputFromNodeDef("roughness")

	textured := false
	if sg.SpecularGlossinessTexture != nil {
		if uri, _, ok := b.textureImage(sg.SpecularGlossinessTexture.Index); ok {
			img := b.createTexture("image_specGlossiness", uri, mtlx.TypeColor4, colorSpaceSRGB)
			specColor.Type = mtlx.TypeColor3
			specColor.Connect(img, "", "rgb")
			roughness.Type = mtlx.TypeFloat
			roughness.Connect(img, "", "a")
			textured = true
		}
	}
	if !textured {
		specColor.SetValue(mtlx.Color3Value(mtlx.Color3{sf[0], sf[1], sf[2]}))
		roughness.SetValue(mtlx.FloatValue(1 - glossinessFactor(sg)))
	}
	if in := shader.AddInputFromNodeDef("specular"); in != nil {
		in.SetValue(mtlx.FloatValue((sf[0] + sf[1] + sf[2]) / 3))
	}
}

const colorSpaceSRGB = "srgb_texture"

// setColorInput binds a colour input, and optionally its alpha input, to a
// texture when one resolves, otherwise to the factor values. With an alpha
// input the texture is a gltf_coloredimage carrying the factor.
func (b *materialBuilder) setColorInput(shader *mtlx.Node, colorInput string, color mtlx.Color3, alpha float32,
	alphaInput string, tex *uint32, defaultName string) {
	in := shader.AddInputFromNodeDef(colorInput)
	if in == nil {
		return
	}
	if tex != nil {
		if uri, name, ok := b.textureImage(*tex); ok {
			if name == "" {
				name = defaultName
			}
			if alphaInput == "" {
				img := b.createTexture(name, uri, mtlx.TypeColor3, colorSpaceSRGB)
				in.Connect(img, "", "")
				return
			}
			img := b.createColoredTexture(name, uri, mtlx.Color4{color[0], color[1], color[2], alpha})
			in.Connect(img, "outcolor", "")
			if ain := shader.AddInputFromNodeDef(alphaInput); ain != nil {
				ain.Connect(img, "outa", "")
			}
			return
		}
	}
	in.SetValue(mtlx.Color3Value(color))
	if alphaInput != "" {
		if ain := shader.AddInputFromNodeDef(alphaInput); ain != nil {
			ain.SetValue(mtlx.FloatValue(alpha))
		}
	}
}

func (b *materialBuilder) setFloatInput(shader *mtlx.Node, name string, value float32, tex *uint32, defaultName string) {
	in := shader.AddInputFromNodeDef(name)
	if in == nil {
		return
	}
	if tex != nil {
		if uri, _, ok := b.textureImage(*tex); ok {
			img := b.createTexture(defaultName, uri, mtlx.TypeFloat, "")
			in.Connect(img, "", "")
			return
		}
	}
	in.SetValue(mtlx.FloatValue(value))
}

// setNormalMapInput routes a normal texture through a normalmap node.
func (b *materialBuilder) setNormalMapInput(shader *mtlx.Node, name string, nt *gltf.NormalTexture, defaultName string) {
	if nt.Index == nil {
		return
	}
	uri, imgName, ok := b.textureImage(*nt.Index)
	if !ok {
		return
	}
	in := shader.AddInputFromNodeDef(name)
	if in == nil {
		return
	}
	if imgName == "" {
		imgName = defaultName
	}
	img := b.createTexture(imgName, uri, mtlx.TypeVector3, "")
	nm := b.doc.AddNode("normalmap", b.doc.CreateValidChildName("pbr_normalmap"), mtlx.TypeVector3)
	nm.NodeDef = "ND_normalmap"
	if b.loader.GenerateFullDefinitions {
		nm.AddInputsFromNodeDef()
	}
	nm.AddInput("in", mtlx.TypeVector3).Connect(img, "", "")
	if nt.Scale != nil && *nt.Scale != 1 {
		nm.AddInput("scale", mtlx.TypeFloat).SetValue(mtlx.FloatValue(*nt.Scale))
	}
	in.Connect(nm, "", "")
}

// createTexture adds a tiledimage node of the given type reading uri.
func (b *materialBuilder) createTexture(name, uri, typ, colorSpace string) *mtlx.Node {
	n := b.doc.AddNode("tiledimage", b.doc.CreateValidChildName(name), typ)
	n.NodeDef = "ND_image_" + typ
	if b.loader.GenerateFullDefinitions {
		n.AddInputsFromNodeDef()
	}
	b.setFile(n, uri, colorSpace)
	return n
}

func (b *materialBuilder) createColoredTexture(name, uri string, factor mtlx.Color4) *mtlx.Node {
	n := b.doc.AddNode("gltf_coloredimage", b.doc.CreateValidChildName(name), mtlx.TypeMultiOutput)
	n.NodeDef = "ND_gltf_colortiledimage"
	if b.loader.GenerateFullDefinitions {
		n.AddInputsFromNodeDef()
	}
	n.AddInput("color", mtlx.TypeColor4).SetValue(mtlx.Color4Value(factor))
	b.setFile(n, uri, colorSpaceSRGB)
	return n
}

func (b *materialBuilder) setFile(n *mtlx.Node, uri, colorSpace string) {
	file := n.AddInput("file", mtlx.TypeFilename)
	file.SetValue(mtlx.FilenameValue(uri))
	if colorSpace != "" {
		file.SetAttribute("colorspace", colorSpace)
	}
}

// textureImage resolves a texture index to the file name of its image and the
// image's node name. ok is false when the texture or its image is missing.
func (b *materialBuilder) textureImage(texIdx uint32) (uri, name string, ok bool) {
	if int(texIdx) >= len(b.gdoc.Textures) || b.gdoc.Textures[texIdx] == nil {
		return "", "", false
	}
	src := b.gdoc.Textures[texIdx].Source
	if src == nil || int(*src) >= len(b.gdoc.Images) || b.gdoc.Images[*src] == nil {
		return "", "", false
	}
	uri = b.imageURI(*src)
	if img := b.gdoc.Images[*src]; img.Name != "" {
		name = mtlx.CreateValidName(img.Name)
	}
	return uri, name, true
}

func (b *materialBuilder) textureURI(texIdx uint32) (string, bool) {
	uri, _, ok := b.textureImage(texIdx)
	return uri, ok
}

// imageURI returns the file name an image is referenced by. Images stored in
// the asset are written to ImageDir once; without ImageDir they get a single
// space.
func (b *materialBuilder) imageURI(idx uint32) string {
	if uri, ok := b.uris[idx]; ok {
		return uri
	}
	img := b.gdoc.Images[idx]
	uri := " "
	switch {
	case img.URI != "" && !img.IsEmbeddedResource():
		uri = img.URI
	case b.loader.ImageDir != "":
		p, err := extractImage(b.gdoc, idx, b.loader.ImageDir)
		if err != nil {
			b.log.Warn("image extraction failed", zap.Uint32("image", idx), zap.Error(err))
		} else {
			uri = p
		}
	}
	b.uris[idx] = uri
	return uri
}

func textureIndex(ti *gltf.TextureInfo) *uint32 {
	if ti == nil {
		return nil
	}
	idx := ti.Index
	return &idx
}
