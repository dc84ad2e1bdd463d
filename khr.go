package mtlxgltf

import (
	"encoding/json"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
)

const (
	extClearcoat          = "KHR_materials_clearcoat"
	extSheen              = "KHR_materials_sheen"
	extTransmission       = "KHR_materials_transmission"
	extVolume             = "KHR_materials_volume"
	extSpecular           = "KHR_materials_specular"
	extIOR                = "KHR_materials_ior"
	extEmissiveStrength   = "KHR_materials_emissive_strength"
	extSpecularGlossiness = specular.ExtensionName
)

// decodeExtension decodes the named extension into v. The parser hands over
// registered extensions as typed values and the rest as raw JSON, so both go
// through one JSON round trip.
func decodeExtension(exts gltf.Extensions, name string, v any) bool {
	raw, ok := exts[name]
	if !ok || raw == nil {
		return false
	}
	var data []byte
	switch r := raw.(type) {
	case json.RawMessage:
		data = r
	case []byte:
		data = r
	default:
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return false
		}
	}
	return json.Unmarshal(data, v) == nil
}

type clearcoatExt struct {
	ClearcoatFactor           *float32            `json:"clearcoatFactor,omitempty"`
	ClearcoatTexture          *gltf.TextureInfo   `json:"clearcoatTexture,omitempty"`
	ClearcoatRoughnessFactor  *float32            `json:"clearcoatRoughnessFactor,omitempty"`
	ClearcoatRoughnessTexture *gltf.TextureInfo   `json:"clearcoatRoughnessTexture,omitempty"`
	ClearcoatNormalTexture    *gltf.NormalTexture `json:"clearcoatNormalTexture,omitempty"`
}

func (c *clearcoatExt) factor() float32    { return orDefault(c.ClearcoatFactor, 0) }
func (c *clearcoatExt) roughness() float32 { return orDefault(c.ClearcoatRoughnessFactor, 0) }

type sheenExt struct {
	SheenColorFactor      *[3]float32       `json:"sheenColorFactor,omitempty"`
	SheenColorTexture     *gltf.TextureInfo `json:"sheenColorTexture,omitempty"`
	SheenRoughnessFactor  *float32          `json:"sheenRoughnessFactor,omitempty"`
	SheenRoughnessTexture *gltf.TextureInfo `json:"sheenRoughnessTexture,omitempty"`
}

func (s *sheenExt) color() [3]float32 {
	if s.SheenColorFactor == nil {
		return [3]float32{}
	}
	return *s.SheenColorFactor
}

func (s *sheenExt) roughness() float32 { return orDefault(s.SheenRoughnessFactor, 0) }

type transmissionExt struct {
	TransmissionFactor  *float32          `json:"transmissionFactor,omitempty"`
	TransmissionTexture *gltf.TextureInfo `json:"transmissionTexture,omitempty"`
}

func (t *transmissionExt) factor() float32 { return orDefault(t.TransmissionFactor, 0) }

type volumeExt struct {
	ThicknessFactor     *float32          `json:"thicknessFactor,omitempty"`
	ThicknessTexture    *gltf.TextureInfo `json:"thicknessTexture,omitempty"`
	AttenuationDistance *float32          `json:"attenuationDistance,omitempty"`
	AttenuationColor    *[3]float32       `json:"attenuationColor,omitempty"`
}

func (v *volumeExt) thickness() float32 { return orDefault(v.ThicknessFactor, 0) }

// distance defaults to a large finite value standing in for infinity.
func (v *volumeExt) distance() float32 { return orDefault(v.AttenuationDistance, 100000) }

func (v *volumeExt) color() [3]float32 {
	if v.AttenuationColor == nil {
		return [3]float32{1, 1, 1}
	}
	return *v.AttenuationColor
}

type specularExt struct {
	SpecularFactor       *float32          `json:"specularFactor,omitempty"`
	SpecularTexture      *gltf.TextureInfo `json:"specularTexture,omitempty"`
	SpecularColorFactor  *[3]float32       `json:"specularColorFactor,omitempty"`
	SpecularColorTexture *gltf.TextureInfo `json:"specularColorTexture,omitempty"`
}

func (s *specularExt) factor() float32 { return orDefault(s.SpecularFactor, 1) }

func (s *specularExt) color() [3]float32 {
	if s.SpecularColorFactor == nil {
		return [3]float32{1, 1, 1}
	}
	return *s.SpecularColorFactor
}

type iorExt struct {
	IOR *float32 `json:"ior,omitempty"`
}

func (i *iorExt) value() float32 { return orDefault(i.IOR, 1.5) }

type emissiveStrengthExt struct {
	EmissiveStrength *float32 `json:"emissiveStrength,omitempty"`
}

func (e *emissiveStrengthExt) value() float32 { return orDefault(e.EmissiveStrength, 1) }

// specGlossExt reads KHR_materials_pbrSpecularGlossiness, using the parser's
// own type when the extension was decoded by it.
func specGlossExt(exts gltf.Extensions) (*specular.PBRSpecularGlossiness, bool) {
	if sg, ok := exts[extSpecularGlossiness].(*specular.PBRSpecularGlossiness); ok && sg != nil {
		return sg, true
	}
	sg := new(specular.PBRSpecularGlossiness)
	if !decodeExtension(exts, extSpecularGlossiness, sg) {
		return nil, false
	}
	return sg, true
}

func specularFactor(sg *specular.PBRSpecularGlossiness) [3]float32 {
	if sg.SpecularFactor == nil {
		return [3]float32{1, 1, 1}
	}
	return *sg.SpecularFactor
}

func glossinessFactor(sg *specular.PBRSpecularGlossiness) float32 {
	return orDefault(sg.GlossinessFactor, 1)
}

func diffuseFactor(sg *specular.PBRSpecularGlossiness) [4]float32 {
	if sg.DiffuseFactor == nil {
		return [4]float32{1, 1, 1, 1}
	}
	return *sg.DiffuseFactor
}

func orDefault(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}
