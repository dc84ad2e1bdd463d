package mtlxgltf

import (
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/flywave/go-mtlxgltf/mtlx"
)

const exportGenerator = "go-mtlxgltf"

// Save writes the gltf_pbr shaders bound to the material nodes of doc as glTF
// materials. The container is chosen by the extension of path.
func Save(doc *mtlx.Document, path string) error {
	return (&MaterialLoader{}).Save(doc, path)
}

func (l *MaterialLoader) Save(doc *mtlx.Document, path string) error {
	if doc == nil {
		return ErrNoDocument
	}
	if err := checkFormat(path, GLTF, GLB); err != nil {
		return err
	}
	gdoc, err := l.Export(doc)
	if err != nil {
		return err
	}
	if FileFormat(path) == GLB {
		err = gltf.SaveBinary(gdoc, path)
	} else {
		err = gltf.Save(gdoc, path)
	}
	if err != nil {
		return fmt.Errorf("mtlxgltf: save %s: %w", path, err)
	}
	return nil
}

// Export builds an in-memory glTF document holding one material per gltf_pbr
// shader. Images are shared between materials by file name.
func (l *MaterialLoader) Export(doc *mtlx.Document) (*gltf.Document, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	e := &materialExporter{
		doc: doc,
		gdoc: &gltf.Document{
			Asset: gltf.Asset{Version: "2.0", Generator: exportGenerator},
		},
		textures: make(map[string]uint32),
		log:      l.logger(),
	}
	seen := make(map[*mtlx.Node]bool)
	for _, matNode := range doc.MaterialNodes() {
		for _, shader := range doc.ShaderNodes(matNode) {
			if shader.Category != categoryPBR || seen[shader] {
				continue
			}
			seen[shader] = true
			e.gdoc.Materials = append(e.gdoc.Materials, e.material(shader))
		}
	}
	if len(e.gdoc.Materials) == 0 {
		return nil, ErrNoPBRShaders
	}
	e.log.Debug("exported materials", zap.Int("materials", len(e.gdoc.Materials)),
		zap.Int("images", len(e.gdoc.Images)))
	return e.gdoc, nil
}

type materialExporter struct {
	doc      *mtlx.Document
	gdoc     *gltf.Document
	textures map[string]uint32
	log      *zap.Logger
}

func (e *materialExporter) material(shader *mtlx.Node) *gltf.Material {
	mt := &gltf.Material{Name: shader.NamePath()}
	pbr := &gltf.PBRMetallicRoughness{}
	mt.PBRMetallicRoughness = pbr

	e.baseColor(shader, pbr)
	e.metallicRoughness(shader, mt)

	if ti, scale := e.normalTexture(shader, "normal"); ti != nil {
		mt.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(ti.Index), Scale: scale}
	}

	if ti := e.inputTexture(shader, "emissive"); ti != nil {
		mt.EmissiveTexture = ti
		mt.EmissiveFactor = [3]float32{1, 1, 1}
	} else if c, ok := e.color3(shader, "emissive"); ok {
		mt.EmissiveFactor = [3]float32{c[0], c[1], c[2]}
	}
	if customized(shader, "emissive_strength") {
		s := e.float(shader, "emissive_strength", 1)
		e.addExtension(mt, extEmissiveStrength, &emissiveStrengthExt{EmissiveStrength: gltf.Float(s)})
	}

	if mode, ok := e.int(shader, "alpha_mode"); ok {
		mt.AlphaMode = gltf.AlphaMode(mode)
	}
	if mt.AlphaMode == gltf.AlphaMask && customized(shader, "alpha_cutoff") {
		mt.AlphaCutoff = gltf.Float(e.float(shader, "alpha_cutoff", 0.5))
	}

	e.sheen(shader, mt)
	e.clearcoat(shader, mt)
	e.transmission(shader, mt)
	e.specular(shader, mt)
	e.volume(shader, mt)
	if customized(shader, "ior") {
		e.addExtension(mt, extIOR, &iorExt{IOR: gltf.Float(e.float(shader, "ior", 1.5))})
	}
	return mt
}

// baseColor reads base_color and alpha. A textured base colour takes its
// factor from the colour input of the gltf_coloredimage node.
func (e *materialExporter) baseColor(shader *mtlx.Node, pbr *gltf.PBRMetallicRoughness) {
	if img := shader.ConnectedNode("base_color"); img != nil {
		if ti := e.imageTexture(img); ti != nil {
			pbr.BaseColorTexture = ti
			factor := [4]float32{1, 1, 1, 1}
			if v, ok := img.InputValue("color"); ok {
				if c, ok := v.Color4(); ok {
					factor = c
				}
			} else if a, ok := e.literalFloat(shader, "alpha"); ok {
				factor[3] = a
			}
			pbr.BaseColorFactor = &factor
			return
		}
	}
	factor := [4]float32{1, 1, 1, 1}
	if c, ok := e.color3(shader, "base_color"); ok {
		factor[0], factor[1], factor[2] = c[0], c[1], c[2]
	}
	factor[3] = e.float(shader, "alpha", 1)
	pbr.BaseColorFactor = &factor
}

// metallicRoughness reads metallic, roughness and occlusion, either as
// literals or through extract nodes and channel connections to an image. The
// first image met becomes the metallic-roughness texture. Occlusion gets its
// own texture only when it reads a different file.
func (e *materialExporter) metallicRoughness(shader *mtlx.Node, mt *gltf.Material) {
	pbr := mt.PBRMetallicRoughness
	metallic := e.float(shader, "metallic", 1)
	roughness := e.float(shader, "roughness", 1)

	for _, name := range []string{"metallic", "roughness"} {
		img := channelImage(shader, name)
		if img == nil {
			continue
		}
		ti := e.imageTexture(img)
		if ti == nil {
			continue
		}
		if pbr.MetallicRoughnessTexture == nil {
			pbr.MetallicRoughnessTexture = ti
		}
		if name == "metallic" {
			metallic = 1
		} else {
			roughness = 1
		}
	}
	pbr.MetallicFactor = gltf.Float(metallic)
	pbr.RoughnessFactor = gltf.Float(roughness)

	if img := channelImage(shader, "occlusion"); img != nil {
		ti := e.imageTexture(img)
		if ti == nil {
			return
		}
		// Textures are shared per file, so a matching index means the
		// occlusion lives in the metallic-roughness image.
		if pbr.MetallicRoughnessTexture != nil && pbr.MetallicRoughnessTexture.Index == ti.Index {
			return
		}
		mt.OcclusionTexture = &gltf.OcclusionTexture{Index: gltf.Index(ti.Index)}
	}
}

// channelImage follows an input to the image node feeding it, looking through
// an extract node.
func channelImage(shader *mtlx.Node, name string) *mtlx.Node {
	n := shader.ConnectedNode(name)
	if n != nil && n.Category == "extract" {
		n = n.ConnectedNode("in")
	}
	if n == nil || !isImageNode(n) {
		return nil
	}
	return n
}

func isImageNode(n *mtlx.Node) bool {
	switch n.Category {
	case "tiledimage", "image", "gltf_image", "gltf_coloredimage":
		return true
	}
	return false
}

// normalTexture follows an input through its normalmap node to the image.
func (e *materialExporter) normalTexture(shader *mtlx.Node, name string) (*gltf.TextureInfo, *float32) {
	n := shader.ConnectedNode(name)
	if n == nil {
		return nil, nil
	}
	var scale *float32
	if n.Category == "normalmap" {
		if s, ok := e.literalFloat(n, "scale"); ok && s != 1 {
			scale = gltf.Float(s)
		}
		n = n.ConnectedNode("in")
	}
	if n == nil || !isImageNode(n) {
		return nil, nil
	}
	return e.imageTexture(n), scale
}

func (e *materialExporter) sheen(shader *mtlx.Node, mt *gltf.Material) {
	if !customized(shader, "sheen_color") && !customized(shader, "sheen_roughness") {
		return
	}
	ext := &sheenExt{}
	if ti := e.inputTexture(shader, "sheen_color"); ti != nil {
		ext.SheenColorTexture = ti
		ext.SheenColorFactor = &[3]float32{1, 1, 1}
	} else if c, ok := e.color3(shader, "sheen_color"); ok {
		ext.SheenColorFactor = &[3]float32{c[0], c[1], c[2]}
	}
	if ti := e.inputTexture(shader, "sheen_roughness"); ti != nil {
		ext.SheenRoughnessTexture = ti
		ext.SheenRoughnessFactor = gltf.Float(1)
	} else {
		ext.SheenRoughnessFactor = gltf.Float(e.float(shader, "sheen_roughness", 0))
	}
	e.addExtension(mt, extSheen, ext)
}

func (e *materialExporter) clearcoat(shader *mtlx.Node, mt *gltf.Material) {
	if !customized(shader, "clearcoat") && !customized(shader, "clearcoat_roughness") &&
		!customized(shader, "clearcoat_normal") {
		return
	}
	ext := &clearcoatExt{}
	ext.ClearcoatTexture, ext.ClearcoatFactor = e.floatParam(shader, "clearcoat", 0)
	ext.ClearcoatRoughnessTexture, ext.ClearcoatRoughnessFactor = e.floatParam(shader, "clearcoat_roughness", 0)
	if ti, scale := e.normalTexture(shader, "clearcoat_normal"); ti != nil {
		ext.ClearcoatNormalTexture = &gltf.NormalTexture{Index: gltf.Index(ti.Index), Scale: scale}
	}
	e.addExtension(mt, extClearcoat, ext)
}

func (e *materialExporter) transmission(shader *mtlx.Node, mt *gltf.Material) {
	if !customized(shader, "transmission") {
		return
	}
	ext := &transmissionExt{}
	ext.TransmissionTexture, ext.TransmissionFactor = e.floatParam(shader, "transmission", 0)
	e.addExtension(mt, extTransmission, ext)
}

func (e *materialExporter) specular(shader *mtlx.Node, mt *gltf.Material) {
	if !customized(shader, "specular") && !customized(shader, "specular_color") {
		return
	}
	ext := &specularExt{}
	ext.SpecularTexture, ext.SpecularFactor = e.floatParam(shader, "specular", 1)
	if ti := e.inputTexture(shader, "specular_color"); ti != nil {
		ext.SpecularColorTexture = ti
		ext.SpecularColorFactor = &[3]float32{1, 1, 1}
	} else if c, ok := e.color3(shader, "specular_color"); ok {
		ext.SpecularColorFactor = &[3]float32{c[0], c[1], c[2]}
	}
	e.addExtension(mt, extSpecular, ext)
}

func (e *materialExporter) volume(shader *mtlx.Node, mt *gltf.Material) {
	if !customized(shader, "thickness") && !customized(shader, "attenuation_color") &&
		!customized(shader, "attenuation_distance") {
		return
	}
	ext := &volumeExt{}
	ext.ThicknessTexture, ext.ThicknessFactor = e.floatParam(shader, "thickness", 0)
	ext.AttenuationDistance = gltf.Float(e.float(shader, "attenuation_distance", 100000))
	if c, ok := e.color3(shader, "attenuation_color"); ok {
		ext.AttenuationColor = &[3]float32{c[0], c[1], c[2]}
	}
	e.addExtension(mt, extVolume, ext)
}

// floatParam returns the texture feeding a float input with a unit factor, or
// the input's value with no texture.
func (e *materialExporter) floatParam(shader *mtlx.Node, name string, def float32) (*gltf.TextureInfo, *float32) {
	if ti := e.inputTexture(shader, name); ti != nil {
		return ti, gltf.Float(1)
	}
	return nil, gltf.Float(e.float(shader, name, def))
}

// inputTexture returns the texture of the image node directly bound to an input.
func (e *materialExporter) inputTexture(shader *mtlx.Node, name string) *gltf.TextureInfo {
	n := shader.ConnectedNode(name)
	if n == nil || !isImageNode(n) {
		return nil
	}
	return e.imageTexture(n)
}

// imageTexture returns a texture reading the file of an image node, adding one
// image and texture per distinct file name.
func (e *materialExporter) imageTexture(img *mtlx.Node) *gltf.TextureInfo {
	v, ok := img.InputValue("file")
	if !ok {
		return nil
	}
	uri, ok := v.Text()
	if !ok || strings.TrimSpace(uri) == "" {
		e.log.Debug("image without file", zap.String("node", img.Name))
		return nil
	}
	if idx, ok := e.textures[uri]; ok {
		return &gltf.TextureInfo{Index: idx}
	}
	e.gdoc.Images = append(e.gdoc.Images, &gltf.Image{Name: img.Name, URI: uri})
	e.gdoc.Textures = append(e.gdoc.Textures, &gltf.Texture{Source: gltf.Index(uint32(len(e.gdoc.Images) - 1))})
	idx := uint32(len(e.gdoc.Textures) - 1)
	e.textures[uri] = idx
	return &gltf.TextureInfo{Index: idx}
}

func (e *materialExporter) addExtension(mt *gltf.Material, name string, ext any) {
	if mt.Extensions == nil {
		mt.Extensions = make(gltf.Extensions)
	}
	mt.Extensions[name] = ext
	for _, used := range e.gdoc.ExtensionsUsed {
		if used == name {
			return
		}
	}
	e.gdoc.ExtensionsUsed = append(e.gdoc.ExtensionsUsed, name)
}

func (e *materialExporter) literalFloat(shader *mtlx.Node, name string) (float32, bool) {
	in := shader.Input(name)
	if in == nil {
		return 0, false
	}
	v, ok := in.Value()
	if !ok {
		return 0, false
	}
	return v.Float()
}

// float returns the literal or definition default of an input, or def.
func (e *materialExporter) float(shader *mtlx.Node, name string, def float32) float32 {
	if v, ok := shader.InputValue(name); ok {
		if f, ok := v.Float(); ok {
			return f
		}
	}
	return def
}

func (e *materialExporter) int(shader *mtlx.Node, name string) (int, bool) {
	v, ok := shader.InputValue(name)
	if !ok {
		return 0, false
	}
	return v.Int()
}

func (e *materialExporter) color3(shader *mtlx.Node, name string) (mtlx.Color3, bool) {
	v, ok := shader.InputValue(name)
	if !ok {
		return mtlx.Color3{}, false
	}
	return v.Color3()
}

// customized reports whether an input is present on the node and either
// connected or set to something other than its definition default.
func customized(n *mtlx.Node, name string) bool {
	in := n.Input(name)
	if in == nil {
		return false
	}
	if in.IsConnected() {
		return true
	}
	v, ok := in.Value()
	if !ok {
		return false
	}
	def := n.Definition()
	if def == nil {
		return true
	}
	idef := def.Input(name)
	if idef == nil || idef.Default.IsZero() {
		return true
	}
	return v.Type() != idef.Default.Type() || v.String() != idef.Default.String()
}
