package mtlxgltf

import (
	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/quaternion"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/qmuntal/gltf"
)

// localMatrix is the node's own transform: the explicit matrix when set,
// otherwise translation * rotation * scale.
func localMatrix(nd *gltf.Node) dmat.T {
	if m := nd.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var mt dmat.T
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				mt[c][r] = float64(m[c*4+r])
			}
		}
		return mt
	}
	trans := nd.TranslationOrDefault()
	rots := nd.RotationOrDefault()
	scl := nd.ScaleOrDefault()

	sc := dvec3.T{float64(scl[0]), float64(scl[1]), float64(scl[2])}
	tra := dvec3.T{float64(trans[0]), float64(trans[1]), float64(trans[2])}
	rot := quaternion.T{float64(rots[0]), float64(rots[1]), float64(rots[2]), float64(rots[3])}
	return *dmat.Compose(&tra, &rot, &sc)
}

func mulMatrix(parent, local *dmat.T) dmat.T {
	mt := dmat.Ident
	mt.AssignMul(parent, local)
	return mt
}

func transformPoint(m *dmat.T, p [3]float64) [3]float64 {
	v := dvec3.T{p[0], p[1], p[2]}
	v = m.MulVec3(&v)
	return [3]float64{v[0], v[1], v[2]}
}

// normalMatrix is the inverse transpose of m, used to carry normals through
// non-uniform scale. A singular m yields the identity.
func normalMatrix(m *dmat.T) dmat.T {
	if m.Determinant() == 0 {
		return dmat.Ident
	}
	nm := m.Inverted()
	nm.Transpose()
	return nm
}

// transformNormal applies the upper 3x3 of a normal matrix and renormalises.
func transformNormal(nm *dmat.T, n [3]float64) [3]float64 {
	v := dvec3.T{n[0], n[1], n[2]}
	v = nm.MulVec3W(&v, 0)
	v = v.Normalized()
	return [3]float64{v[0], v[1], v[2]}
}
