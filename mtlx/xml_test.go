package mtlx

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	doc := NewDocument()
	img := doc.AddNode("tiledimage", "image_orm", TypeVector3)
	img.NodeDef = "ND_image_vector3"
	img.AddInput("file", TypeFilename).SetValue(FilenameValue("orm.png"))

	shader := doc.AddNode("gltf_pbr", "SHD_metal", TypeSurfaceShader)
	shader.NodeDef = "ND_gltf_pbr_surfaceshader"
	shader.AddInput("base_color", TypeColor3).SetValue(Color3Value(Color3{0.8, 0.1, 0.1}))
	shader.AddInput("roughness", TypeFloat).Connect(img, "", "y")
	shader.AddInput("alpha_mode", TypeInteger).SetValue(IntValue(2))

	bc := img.AddInput("default", TypeVector3)
	bc.SetValue(Vector3Value(Vector3{0, 0, 0}))
	bc.SetAttribute("colorspace", "lin_rec709")

	mat := doc.AddNode("surfacematerial", "MAT_metal", TypeMaterial)
	mat.AddInput("surfaceshader", TypeSurfaceShader).Connect(shader, "", "")

	look := doc.AddLook("look")
	ma := look.AddMaterialAssign("", "MAT_metal")
	ma.Geom = "/root/MESH_0, /other/MESH_0"
	return doc
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleDocument().Write(&buf))

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `<materialx version="1.38">`)
	assert.Contains(t, text, `nodename="image_orm"`)
	assert.Contains(t, text, `channels="y"`)
	assert.Contains(t, text, `colorspace="lin_rec709"`)

	doc, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Nodes(), 3)

	shader := doc.Node("SHD_metal")
	require.NotNil(t, shader)
	assert.Equal(t, "gltf_pbr", shader.Category)
	assert.Equal(t, "ND_gltf_pbr_surfaceshader", shader.NodeDef)

	v, ok := shader.Input("base_color").Value()
	require.True(t, ok)
	c, _ := v.Color3()
	assert.InDeltaSlice(t, []float32{0.8, 0.1, 0.1}, c[:], 1e-6)

	conn, ok := shader.Input("roughness").Connection()
	require.True(t, ok)
	assert.Equal(t, Connection{NodeName: "image_orm", Channels: "y"}, conn)

	mode, _ := shader.Input("alpha_mode").Value()
	i, _ := mode.Int()
	assert.Equal(t, 2, i)

	assert.Equal(t, "lin_rec709", doc.Node("image_orm").Input("default").Attribute("colorspace"))

	require.Len(t, doc.Looks(), 1)
	assigns := doc.Looks()[0].MaterialAssigns()
	require.Len(t, assigns, 1)
	assert.Equal(t, "MAT_metal", assigns[0].Material)
	assert.Equal(t, "/root/MESH_0, /other/MESH_0", assigns[0].Geom)

	mats := doc.MaterialNodes()
	require.Len(t, mats, 1)
	assert.Equal(t, []*Node{shader}, doc.ShaderNodes(mats[0]))
}

func TestReadSkipsLibraryElements(t *testing.T) {
	src := `<?xml version="1.0"?>
<materialx version="1.39">
  <nodedef name="ND_custom" node="custom">
    <input name="in" type="float" value="1" />
  </nodedef>
  <nodegraph name="NG_x">
    <constant name="c" type="float" />
  </nodegraph>
  <gltf_pbr name="SHD_0" type="surfaceshader">
    <input name="metallic" type="float" value="0.25" nodename="img" />
    <input name="uv" type="matrix33" value="1,0,0,0,1,0,0,0,1" />
  </gltf_pbr>
</materialx>`
	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "1.39", doc.Version)
	require.Len(t, doc.Nodes(), 1)

	n := doc.Nodes()[0]
	assert.True(t, n.Input("metallic").IsConnected())

	v, ok := n.Input("uv").Value()
	require.True(t, ok)
	assert.Equal(t, "1,0,0,0,1,0,0,0,1", v.String())
}

func TestReadRejectsOtherRoots(t *testing.T) {
	_, err := Read(strings.NewReader(`<svg></svg>`))
	assert.ErrorIs(t, err, errNotMaterialX)

	_, err = Read(strings.NewReader(``))
	assert.ErrorIs(t, err, errNotMaterialX)
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mtlx")
	require.NoError(t, sampleDocument().WriteFile(path))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes(), 3)
	assert.Len(t, doc.Looks(), 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.mtlx"))
	assert.Error(t, err)
}
