package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FallbackNormal is assigned to vertices whose accumulated normal has zero length,
// e.g. vertices referenced only by degenerate triangles or by no triangle at all.
var FallbackNormal = mgl32.Vec3{0, 1, 0}

// EstimateNormals recomputes every vertex normal from the triangle list. Each
// triangle adds its unnormalized face normal (b-a)x(c-a) to its three vertices, so
// larger triangles weigh more; the sums are normalized at the end.
func EstimateNormals(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Normal = mgl32.Vec3{}
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		ia, ib, ic := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		a := m.Vertices[ia].Pos
		b := m.Vertices[ib].Pos
		c := m.Vertices[ic].Pos

		n := b.Sub(a).Cross(c.Sub(a))

		m.Vertices[ia].Normal = m.Vertices[ia].Normal.Add(n)
		m.Vertices[ib].Normal = m.Vertices[ib].Normal.Add(n)
		m.Vertices[ic].Normal = m.Vertices[ic].Normal.Add(n)
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = NormalizeOr(m.Vertices[i].Normal, FallbackNormal)
	}
}

// NormalizeOr returns v scaled to unit length, or fallback when v has no usable length.
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return fallback
	}
	return v.Mul(1 / l)
}
