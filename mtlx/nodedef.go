package mtlx

// NodeDef describes the interface of a node category for one output type.
type NodeDef struct {
	Name    string
	Node    string
	Type    string
	Inputs  []InputDef
	Outputs []OutputDef
}

type InputDef struct {
	Name    string
	Type    string
	Default Value
}

type OutputDef struct {
	Name string
	Type string
}

func (d *NodeDef) Input(name string) *InputDef {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return &d.Inputs[i]
		}
	}
	return nil
}

func (d *NodeDef) Output(name string) *OutputDef {
	for i := range d.Outputs {
		if d.Outputs[i].Name == name {
			return &d.Outputs[i]
		}
	}
	return nil
}

func defFloat(v float32) Value { return FloatValue(v) }

func defColor3(r, g, b float32) Value { return Color3Value(Color3{r, g, b}) }

func imageDef(typ string, def Value) *NodeDef {
	return &NodeDef{
		Name: "ND_image_" + typ,
		Node: "tiledimage",
		Type: typ,
		Inputs: []InputDef{
			{Name: "file", Type: TypeFilename},
			{Name: "default", Type: typ, Default: def},
			{Name: "texcoord", Type: TypeVector2},
			{Name: "uvtiling", Type: TypeVector2},
			{Name: "uvoffset", Type: TypeVector2},
		},
		Outputs: []OutputDef{{Name: "out", Type: typ}},
	}
}

var nodeDefs = []*NodeDef{
	{
		Name: "ND_gltf_pbr_surfaceshader",
		Node: "gltf_pbr",
		Type: TypeSurfaceShader,
		Inputs: []InputDef{
			{Name: "base_color", Type: TypeColor3, Default: defColor3(1, 1, 1)},
			{Name: "metallic", Type: TypeFloat, Default: defFloat(1)},
			{Name: "roughness", Type: TypeFloat, Default: defFloat(1)},
			{Name: "normal", Type: TypeVector3},
			{Name: "occlusion", Type: TypeFloat, Default: defFloat(1)},
			{Name: "transmission", Type: TypeFloat, Default: defFloat(0)},
			{Name: "specular", Type: TypeFloat, Default: defFloat(1)},
			{Name: "specular_color", Type: TypeColor3, Default: defColor3(1, 1, 1)},
			{Name: "ior", Type: TypeFloat, Default: defFloat(1.5)},
			{Name: "alpha", Type: TypeFloat, Default: defFloat(1)},
			{Name: "alpha_mode", Type: TypeInteger, Default: IntValue(0)},
			{Name: "alpha_cutoff", Type: TypeFloat, Default: defFloat(0.5)},
			{Name: "sheen_color", Type: TypeColor3, Default: defColor3(0, 0, 0)},
			{Name: "sheen_roughness", Type: TypeFloat, Default: defFloat(0)},
			{Name: "clearcoat", Type: TypeFloat, Default: defFloat(0)},
			{Name: "clearcoat_roughness", Type: TypeFloat, Default: defFloat(0)},
			{Name: "clearcoat_normal", Type: TypeVector3},
			{Name: "emissive", Type: TypeColor3, Default: defColor3(0, 0, 0)},
			{Name: "emissive_strength", Type: TypeFloat, Default: defFloat(1)},
			{Name: "thickness", Type: TypeFloat, Default: defFloat(0)},
			{Name: "attenuation_distance", Type: TypeFloat, Default: defFloat(100000)},
			{Name: "attenuation_color", Type: TypeColor3, Default: defColor3(1, 1, 1)},
		},
		Outputs: []OutputDef{{Name: "out", Type: TypeSurfaceShader}},
	},
	{
		Name: "ND_surface_unlit",
		Node: "surface_unlit",
		Type: TypeSurfaceShader,
		Inputs: []InputDef{
			{Name: "emission", Type: TypeFloat, Default: defFloat(1)},
			{Name: "emission_color", Type: TypeColor3, Default: defColor3(1, 1, 1)},
			{Name: "transmission", Type: TypeFloat, Default: defFloat(0)},
			{Name: "transmission_color", Type: TypeColor3, Default: defColor3(1, 1, 1)},
			{Name: "opacity", Type: TypeFloat, Default: defFloat(1)},
		},
		Outputs: []OutputDef{{Name: "out", Type: TypeSurfaceShader}},
	},
	{
		Name:    "ND_surfacematerial",
		Node:    "surfacematerial",
		Type:    TypeMaterial,
		Inputs:  []InputDef{{Name: "surfaceshader", Type: TypeSurfaceShader}},
		Outputs: []OutputDef{{Name: "out", Type: TypeMaterial}},
	},
	imageDef(TypeFloat, defFloat(0)),
	imageDef(TypeColor3, defColor3(0, 0, 0)),
	imageDef(TypeColor4, Color4Value(Color4{0, 0, 0, 0})),
	imageDef(TypeVector3, Vector3Value(Vector3{0, 0, 0})),
	{
		Name: "ND_gltf_colortiledimage",
		Node: "gltf_coloredimage",
		Type: TypeMultiOutput,
		Inputs: []InputDef{
			{Name: "file", Type: TypeFilename},
			{Name: "color", Type: TypeColor4, Default: Color4Value(Color4{1, 1, 1, 1})},
			{Name: "geomcolor", Type: TypeColor4, Default: Color4Value(Color4{1, 1, 1, 1})},
			{Name: "default", Type: TypeColor4, Default: Color4Value(Color4{0, 0, 0, 0})},
			{Name: "uvindex", Type: TypeInteger, Default: IntValue(0)},
			{Name: "pivot", Type: TypeVector2},
			{Name: "scale", Type: TypeVector2},
			{Name: "rotate", Type: TypeFloat, Default: defFloat(0)},
			{Name: "offset", Type: TypeVector2},
		},
		Outputs: []OutputDef{
			{Name: "outcolor", Type: TypeColor3},
			{Name: "outa", Type: TypeFloat},
		},
	},
	{
		Name: "ND_normalmap",
		Node: "normalmap",
		Type: TypeVector3,
		Inputs: []InputDef{
			{Name: "in", Type: TypeVector3, Default: Vector3Value(Vector3{0.5, 0.5, 1})},
			{Name: "scale", Type: TypeFloat, Default: defFloat(1)},
			{Name: "normal", Type: TypeVector3},
			{Name: "tangent", Type: TypeVector3},
		},
		Outputs: []OutputDef{{Name: "out", Type: TypeVector3}},
	},
	{
		Name: "ND_extract_vector3",
		Node: "extract",
		Type: TypeFloat,
		Inputs: []InputDef{
			{Name: "in", Type: TypeVector3, Default: Vector3Value(Vector3{0, 0, 0})},
			{Name: "index", Type: TypeInteger, Default: IntValue(0)},
		},
		Outputs: []OutputDef{{Name: "out", Type: TypeFloat}},
	},
}

var (
	nodeDefsByName = map[string]*NodeDef{}
	nodeDefsByNode = map[string][]*NodeDef{}
)

func init() {
	for _, d := range nodeDefs {
		nodeDefsByName[d.Name] = d
		nodeDefsByNode[d.Node] = append(nodeDefsByNode[d.Node], d)
	}
}

func LookupNodeDef(name string) *NodeDef {
	return nodeDefsByName[name]
}

// MatchNodeDef finds the definition of a category for the given output type,
// or the first definition of the category when no type matches.
func MatchNodeDef(category, typ string) *NodeDef {
	defs := nodeDefsByNode[category]
	for _, d := range defs {
		if d.Type == typ {
			return d
		}
	}
	if len(defs) > 0 {
		return defs[0]
	}
	return nil
}
