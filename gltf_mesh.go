package mtlxgltf

import (
	"fmt"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// MeshLoader flattens the meshes of a glTF asset into world space triangle
// meshes, one per mesh instance and triangle primitive.
type MeshLoader struct {
	// FlipTexcoordV keeps glTF texture coordinates as stored. When false the
	// V coordinate is flipped to 1-v.
	FlipTexcoordV bool
	// SkipTangents turns off tangent synthesis for primitives that carry no
	// tangent stream.
	SkipTangents bool
	Logger       *zap.Logger
}

func (l *MeshLoader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Load reads a .gltf or .glb file. On a decode failure the meshes built so far
// are returned with the error.
func (l *MeshLoader) Load(path string) ([]*Mesh, error) {
	if err := checkFormat(path, GLTF, GLB); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mtlxgltf: open %s: %w", path, err)
	}
	return l.LoadDocument(doc, path)
}

type streamSpec struct {
	attribute string
	name      string
	semantic  string
	stride    int
}

var meshStreamSpecs = []streamSpec{
	{gltf.POSITION, StreamPosition, SemanticPosition, 3},
	{gltf.NORMAL, StreamNormal, SemanticNormal, 3},
	{gltf.TANGENT, StreamTangent, SemanticTangent, 3},
	{gltf.COLOR_0, StreamColor, SemanticColor, 3},
	{gltf.TEXCOORD_0, StreamTexcoord, SemanticTexcoord, 2},
}

func (l *MeshLoader) LoadDocument(doc *gltf.Document, sourceURI string) ([]*Mesh, error) {
	log := l.logger()
	scene := flattenScene(doc, log)

	var meshes []*Mesh
	for mi, gm := range doc.Meshes {
		if gm == nil {
			continue
		}
		for _, inst := range scene.meshInstances(doc, uint32(mi)) {
			for pi, prim := range gm.Primitives {
				if prim == nil {
					continue
				}
				if prim.Mode != gltf.PrimitiveTriangles {
					log.Debug("skipping non-triangle primitive",
						zap.String("mesh", inst.Path), zap.Int("primitive", pi), zap.Int("mode", int(prim.Mode)))
					continue
				}
				name := inst.Path
				if len(gm.Primitives) > 1 {
					name = fmt.Sprintf("%s_%d", inst.Path, pi)
				}
				m, err := l.loadPrimitive(doc, prim, &inst, name, sourceURI)
				if err != nil {
					return meshes, err
				}
				if m != nil {
					meshes = append(meshes, m)
				}
			}
		}
	}
	log.Debug("loaded meshes", zap.String("source", sourceURI), zap.Int("count", len(meshes)))
	return meshes, nil
}

func (l *MeshLoader) loadPrimitive(doc *gltf.Document, prim *gltf.Primitive, inst *InstanceRecord, name, sourceURI string) (*Mesh, error) {
	log := l.logger()
	m := newMesh(name, sourceURI)
	nm := normalMatrix(&inst.Matrix)

	for attr := range prim.Attributes {
		if !knownAttribute(attr) {
			log.Debug("dropping vertex stream", zap.String("mesh", name), zap.String("attribute", attr))
		}
	}

	for _, spec := range meshStreamSpecs {
		ai, ok := prim.Attributes[spec.attribute]
		if !ok || int(ai) >= len(doc.Accessors) {
			continue
		}
		acc := doc.Accessors[ai]
		src, err := unpackFloats(doc, acc)
		if err != nil {
			return nil, fmt.Errorf("mtlxgltf: read %s of %s: %w", spec.attribute, name, err)
		}
		srcStride := acc.Type.Components()
		stride := spec.stride
		switch spec.semantic {
		case SemanticColor:
			if srcStride == 4 {
				stride = 4
			}
		case SemanticTexcoord:
			if srcStride == 3 {
				stride = 3
			}
		}
		s := newMeshStream(spec.name, spec.semantic, stride)
		l.fillStream(m, s, src, int(srcStride), inst, &nm)
		m.AddStream(s)
		log.Debug("read stream", zap.String("mesh", name), zap.String("stream", s.Name), zap.Int("count", s.Len()))
	}

	if pos := m.Stream(StreamPosition); pos != nil {
		m.VertexCount = len(pos.Data) / 3
	}

	part := &MeshPartition{Name: name}
	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		part.Material, _ = materialNames(doc.Materials[*prim.Material])
	}
	if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
		idx, err := readIndices(doc, doc.Accessors[*prim.Indices])
		if err != nil {
			return nil, fmt.Errorf("mtlxgltf: read indices of %s: %w", name, err)
		}
		part.Indices = idx
	} else {
		part.Indices = make([]uint32, m.VertexCount)
		for i := range part.Indices {
			part.Indices[i] = uint32(i)
		}
	}
	part.FaceCount = len(part.Indices) / 3
	for _, i := range part.Indices {
		if int(i) >= m.VertexCount {
			log.Warn("index out of range", zap.String("mesh", name), zap.Uint32("index", i), zap.Int("vertices", m.VertexCount))
			break
		}
	}
	m.AddPartition(part)
	log.Debug("read indices", zap.String("mesh", name), zap.Int("count", len(part.Indices)))

	if m.VertexCount > 0 {
		m.updateSphere()
	} else {
		m.BoxMin, m.BoxMax = [3]float64{}, [3]float64{}
	}

	if !l.SkipTangents && m.Stream(StreamTangent) == nil && m.Stream(StreamPosition) != nil {
		if t := m.generateTangents(); t != nil {
			m.AddStream(t)
		} else {
			log.Debug("tangent generation skipped", zap.String("mesh", name))
		}
	}
	return m, nil
}

// fillStream copies src elements into s, transforming positions and normals
// by the instance and flipping texture V. Missing components are zero.
func (l *MeshLoader) fillStream(m *Mesh, s *MeshStream, src []float32, srcStride int, inst *InstanceRecord, nm *dmat.T) {
	count := 0
	if srcStride > 0 {
		count = len(src) / srcStride
	}
	s.Data = make([]float32, 0, count*s.Stride)
	elem := make([]float64, 4)
	for i := 0; i < count; i++ {
		for c := range elem {
			elem[c] = 0
			if c < srcStride {
				elem[c] = float64(src[i*srcStride+c])
			}
		}
		switch s.Semantic {
		case SemanticPosition:
			p := transformPoint(&inst.Matrix, [3]float64{elem[0], elem[1], elem[2]})
			m.extendBounds(p)
			copy(elem, p[:])
		case SemanticNormal:
			n := transformNormal(nm, [3]float64{elem[0], elem[1], elem[2]})
			copy(elem, n[:])
		case SemanticTexcoord:
			if !l.FlipTexcoordV {
				elem[1] = 1 - elem[1]
			}
		}
		for c := 0; c < s.Stride; c++ {
			s.Data = append(s.Data, float32(elem[c]))
		}
	}
}

func knownAttribute(attr string) bool {
	for _, spec := range meshStreamSpecs {
		if spec.attribute == attr {
			return true
		}
	}
	return false
}
