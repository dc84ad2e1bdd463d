package mtlxgltf

import (
	"math"
	"testing"

	dmat "github.com/flywave/go3d/float64/mat4"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/stretchr/testify/assert"
)

func TestNormalMatrixSingular(t *testing.T) {
	var zero dmat.T
	assert.Equal(t, dmat.Ident, normalMatrix(&zero))
}

func TestTransformNormalNonUniformScale(t *testing.T) {
	m := dmat.Ident
	m[0][0] = 2
	m[3][0] = 5
	nm := normalMatrix(&m)

	n := transformNormal(&nm, [3]float64{math.Sqrt2 / 2, math.Sqrt2 / 2, 0})
	assert.InDelta(t, 1/math.Sqrt(5), n[0], 1e-9)
	assert.InDelta(t, 2/math.Sqrt(5), n[1], 1e-9)
	assert.InDelta(t, 0, n[2], 1e-9)
}

func TestPerpendicular(t *testing.T) {
	for _, n := range []dvec3.T{{0, 0, 1}, {1, 0, 0}, {0.6, 0.8, 0}} {
		p := perpendicular(&n)
		assert.InDelta(t, 0, dvec3.Dot(&n, &p), 1e-9)
		assert.InDelta(t, 1, p.Length(), 1e-9)
	}
	var zero dvec3.T
	assert.Equal(t, dvec3.UnitX, perpendicular(&zero))
}
