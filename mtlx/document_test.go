package mtlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateValidName(t *testing.T) {
	assert.Equal(t, "MAT_wood_floor", CreateValidName("MAT_wood floor"))
	assert.Equal(t, "a_b_c", CreateValidName("a.b-c"))
	assert.Equal(t, "plain_1", CreateValidName("plain_1"))
}

func TestCreateValidChildName(t *testing.T) {
	doc := NewDocument()
	doc.AddNode("gltf_pbr", "SHD_brick", TypeSurfaceShader)

	assert.Equal(t, "SHD_brick2", doc.CreateValidChildName("SHD_brick"))
	assert.Equal(t, "SHD_stone", doc.CreateValidChildName("SHD_stone"))

	doc.AddNode("gltf_pbr", "SHD_brick", TypeSurfaceShader)
	doc.AddNode("gltf_pbr", "SHD_brick", TypeSurfaceShader)
	names := []string{}
	for _, n := range doc.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"SHD_brick", "SHD_brick2", "SHD_brick3"}, names)
}

func TestAddNodeSanitisesName(t *testing.T) {
	doc := NewDocument()
	n := doc.AddNode("tiledimage", "image base/color", TypeColor3)
	assert.Equal(t, "image_base_color", n.Name)
	assert.Same(t, n, doc.Node("image_base_color"))

	doc.RemoveNode("image_base_color")
	assert.Nil(t, doc.Node("image_base_color"))
	assert.Nil(t, n.Document())
}

func TestInputBindingIsExclusive(t *testing.T) {
	doc := NewDocument()
	img := doc.AddNode("tiledimage", "image_basecolor", TypeColor3)
	shader := doc.AddNode("gltf_pbr", "SHD_0", TypeSurfaceShader)

	in := shader.AddInputFromNodeDef("base_color")
	require.NotNil(t, in)
	v, ok := in.Value()
	require.True(t, ok)
	c, _ := v.Color3()
	assert.Equal(t, Color3{1, 1, 1}, c)

	in.Connect(img, "", "")
	assert.True(t, in.IsConnected())
	_, ok = in.Value()
	assert.False(t, ok)
	assert.Same(t, img, shader.ConnectedNode("base_color"))

	in.SetValue(Color3Value(Color3{0.5, 0.5, 0.5}))
	assert.False(t, in.IsConnected())
	assert.Nil(t, shader.ConnectedNode("base_color"))
}

func TestAddInputFromNodeDef(t *testing.T) {
	doc := NewDocument()
	shader := doc.AddNode("gltf_pbr", "SHD_0", TypeSurfaceShader)

	assert.Nil(t, shader.AddInputFromNodeDef("no_such_input"))

	in := shader.AddInputFromNodeDef("alpha_mode")
	require.NotNil(t, in)
	assert.Equal(t, TypeInteger, in.Type)
	assert.Same(t, in, shader.AddInputFromNodeDef("alpha_mode"))

	shader.AddInputsFromNodeDef()
	assert.Len(t, shader.Inputs(), len(LookupNodeDef("ND_gltf_pbr_surfaceshader").Inputs))

	// absent inputs fall back to the definition default
	unlit := doc.AddNode("surface_unlit", "SHD_1", TypeSurfaceShader)
	v, ok := unlit.InputValue("opacity")
	require.True(t, ok)
	f, _ := v.Float()
	assert.Equal(t, float32(1), f)
}

func TestMatchNodeDef(t *testing.T) {
	def := MatchNodeDef("tiledimage", TypeVector3)
	require.NotNil(t, def)
	assert.Equal(t, "ND_image_vector3", def.Name)

	def = MatchNodeDef("gltf_coloredimage", TypeMultiOutput)
	require.NotNil(t, def)
	assert.NotNil(t, def.Output("outa"))

	assert.Nil(t, MatchNodeDef("no_such_category", TypeFloat))
}

func TestMaterialAndShaderNodes(t *testing.T) {
	doc := NewDocument()
	shader := doc.AddNode("gltf_pbr", "SHD_0", TypeSurfaceShader)
	mat := doc.AddNode("surfacematerial", "MAT_0", TypeMaterial)
	mat.AddInput("surfaceshader", TypeSurfaceShader).Connect(shader, "", "")
	doc.AddNode("surfacematerial", "MAT_dangling", TypeMaterial)

	mats := doc.MaterialNodes()
	require.Len(t, mats, 2)
	assert.Equal(t, []*Node{shader}, doc.ShaderNodes(mats[0]))
	assert.Empty(t, doc.ShaderNodes(mats[1]))
}

func TestLookAssigns(t *testing.T) {
	doc := NewDocument()
	look := doc.AddLook("")
	assert.Equal(t, "look1", look.Name)

	a := look.AddMaterialAssign("", "MAT_0")
	b := look.AddMaterialAssign("", "MAT_1")
	assert.Equal(t, "materialassign1", a.Name)
	assert.Equal(t, "materialassign2", b.Name)
	assert.Len(t, look.MaterialAssigns(), 2)
}
