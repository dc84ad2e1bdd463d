package mtlxgltf

import (
	"errors"
	"fmt"
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

const (
	StreamPosition = "i_position"
	StreamNormal   = "i_normal"
	StreamTangent  = "i_tangent"
	StreamColor    = "i_color_0"
	StreamTexcoord = "i_texcoord_0"
)

const (
	SemanticPosition = "position"
	SemanticNormal   = "normal"
	SemanticTangent  = "tangent"
	SemanticColor    = "color"
	SemanticTexcoord = "texcoord"
)

// MeshStream is one vertex attribute stored as a flat float sequence of
// Stride components per vertex.
type MeshStream struct {
	Name     string
	Semantic string
	Index    int
	Stride   int
	Data     []float32
}

func newMeshStream(name, semantic string, stride int) *MeshStream {
	return &MeshStream{Name: name, Semantic: semantic, Stride: stride}
}

// Len is the number of elements (vertices) in the stream.
func (s *MeshStream) Len() int {
	if s.Stride == 0 {
		return 0
	}
	return len(s.Data) / s.Stride
}

// MeshPartition is a triangle list over the vertices of its mesh.
type MeshPartition struct {
	Name      string
	Material  string
	Indices   []uint32
	FaceCount int
}

// Mesh is one flattened instance of a glTF mesh primitive with its streams
// in world space.
type Mesh struct {
	Name        string
	SourceURI   string
	Streams     []*MeshStream
	Partitions  []*MeshPartition
	VertexCount int

	BoxMin       [3]float64
	BoxMax       [3]float64
	SphereCenter [3]float64
	SphereRadius float64
}

func newMesh(name, source string) *Mesh {
	m := &Mesh{Name: name, SourceURI: source}
	for i := 0; i < 3; i++ {
		m.BoxMin[i] = math.MaxFloat64
		m.BoxMax[i] = -math.MaxFloat64
	}
	return m
}

func (m *Mesh) Stream(name string) *MeshStream {
	for _, s := range m.Streams {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StreamBySemantic returns the first stream with the given semantic.
func (m *Mesh) StreamBySemantic(semantic string) *MeshStream {
	for _, s := range m.Streams {
		if s.Semantic == semantic {
			return s
		}
	}
	return nil
}

func (m *Mesh) AddStream(s *MeshStream) {
	m.Streams = append(m.Streams, s)
}

func (m *Mesh) AddPartition(p *MeshPartition) {
	m.Partitions = append(m.Partitions, p)
}

func (m *Mesh) extendBounds(p [3]float64) {
	for i := 0; i < 3; i++ {
		m.BoxMin[i] = math.Min(m.BoxMin[i], p[i])
		m.BoxMax[i] = math.Max(m.BoxMax[i], p[i])
	}
}

// updateSphere derives the bounding sphere from the box: centered on the box
// midpoint with the distance to the minimum corner as radius.
func (m *Mesh) updateSphere() {
	var d2 float64
	for i := 0; i < 3; i++ {
		m.SphereCenter[i] = (m.BoxMin[i] + m.BoxMax[i]) * 0.5
		d := m.SphereCenter[i] - m.BoxMin[i]
		d2 += d * d
	}
	m.SphereRadius = math.Sqrt(d2)
}

// Bounds returns the box as min x,y,z followed by max x,y,z.
func (m *Mesh) Bounds() [6]float64 {
	return [6]float64{m.BoxMin[0], m.BoxMin[1], m.BoxMin[2], m.BoxMax[0], m.BoxMax[1], m.BoxMax[2]}
}

var errInvalidMesh = errors.New("mtlxgltf: invalid mesh")

// Validate checks that every stream holds VertexCount elements and that all
// partition indices address an existing vertex.
func (m *Mesh) Validate() error {
	for _, s := range m.Streams {
		if s.Stride < 1 || len(s.Data) != m.VertexCount*s.Stride {
			return fmt.Errorf("%w: stream %s has %d floats, want %d x %d", errInvalidMesh, s.Name, len(s.Data), m.VertexCount, s.Stride)
		}
	}
	for _, p := range m.Partitions {
		for _, i := range p.Indices {
			if int(i) >= m.VertexCount {
				return fmt.Errorf("%w: partition %s index %d out of range [0,%d)", errInvalidMesh, p.Name, i, m.VertexCount)
			}
		}
	}
	return nil
}

// generateTangents builds a per-vertex tangent stream from positions, normals
// and texture coordinates. It returns nil when one of the inputs is missing
// or does not cover every vertex.
func (m *Mesh) generateTangents() *MeshStream {
	pos := m.Stream(StreamPosition)
	nrm := m.Stream(StreamNormal)
	uv := m.Stream(StreamTexcoord)
	n := m.VertexCount
	if pos == nil || nrm == nil || uv == nil || n == 0 {
		return nil
	}
	if pos.Len() != n || nrm.Len() != n || uv.Len() != n || nrm.Stride < 3 || uv.Stride < 2 {
		return nil
	}

	vec := func(s *MeshStream, i uint32) dvec3.T {
		o := int(i) * s.Stride
		return dvec3.T{float64(s.Data[o]), float64(s.Data[o+1]), float64(s.Data[o+2])}
	}
	texcoord := func(i uint32) (float64, float64) {
		o := int(i) * uv.Stride
		return float64(uv.Data[o]), float64(uv.Data[o+1])
	}

	tan := make([]dvec3.T, n)
	for _, p := range m.Partitions {
		for i := 0; i+2 < len(p.Indices); i += 3 {
			i0, i1, i2 := p.Indices[i], p.Indices[i+1], p.Indices[i+2]
			if int(i0) >= n || int(i1) >= n || int(i2) >= n {
				continue
			}
			p0, p1, p2 := vec(pos, i0), vec(pos, i1), vec(pos, i2)
			e1 := dvec3.Sub(&p1, &p0)
			e2 := dvec3.Sub(&p2, &p0)

			u0, v0 := texcoord(i0)
			u1, v1 := texcoord(i1)
			u2, v2 := texcoord(i2)
			du1, dv1 := u1-u0, v1-v0
			du2, dv2 := u2-u0, v2-v0

			det := du1*dv2 - dv1*du2
			if det == 0 {
				continue
			}
			a := e1.Scaled(dv2 / det)
			b := e2.Scaled(dv1 / det)
			t := dvec3.Sub(&a, &b)
			tan[i0].Add(&t)
			tan[i1].Add(&t)
			tan[i2].Add(&t)
		}
	}

	out := newMeshStream(StreamTangent, SemanticTangent, 3)
	out.Data = make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		nv := vec(nrm, uint32(i))
		proj := nv.Scaled(dvec3.Dot(&nv, &tan[i]))
		ortho := dvec3.Sub(&tan[i], &proj)
		if ortho.LengthSqr() < 1e-12 {
			ortho = perpendicular(&nv)
		}
		ortho = ortho.Normalized()
		out.Data = append(out.Data, float32(ortho[0]), float32(ortho[1]), float32(ortho[2]))
	}
	return out
}

// perpendicular returns some unit vector orthogonal to n, or the x axis for a
// zero n.
func perpendicular(n *dvec3.T) dvec3.T {
	axis := dvec3.UnitX
	if math.Abs(n[0]) > 0.9 {
		axis = dvec3.UnitY
	}
	c := dvec3.Cross(n, &axis)
	if c.LengthSqr() == 0 {
		return dvec3.UnitX
	}
	return c.Normalized()
}
