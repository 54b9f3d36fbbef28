package mesher

import (
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
)

func sphere16() field.Sphere {
	return field.Sphere{Center: [3]int{8, 8, 8}, Radius: 6}
}

func single(x, y, z int) field.Field {
	return field.Func(func(px, py, pz int) bool { return px == x && py == y && pz == z })
}

// checkMesh asserts what every mesher output must satisfy.
func checkMesh(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	require.NoError(t, m.Validate())
	for i, v := range m.Vertices {
		assert.InDeltaf(t, 1, v.Normal.Len(), 1e-4, "vertex %d normal %v", i, v.Normal)
	}
}

type triangle [3]mgl32.Vec3

func less(a, b mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// triangles returns the triangles as position triples, each rotated to start at
// its smallest corner (winding preserved), sorted. Two meshes with the same
// result are the same surface regardless of vertex order.
func triangles(m *mesh.Mesh) []triangle {
	out := make([]triangle, m.TriangleCount())
	for i := range out {
		a, b, c := m.Triangle(i)
		tri := triangle{a, b, c}
		for k := 0; k < 2; k++ {
			if less(tri[1], tri[0]) || less(tri[2], tri[0]) {
				tri = triangle{tri[1], tri[2], tri[0]}
			}
		}
		out[i] = tri
	}
	sort.Slice(out, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if out[i][k] != out[j][k] {
				return less(out[i][k], out[j][k])
			}
		}
		return false
	})
	return out
}

// signedVolume is positive for a closed mesh wound counter-clockwise from outside.
func signedVolume(m *mesh.Mesh) float32 {
	var vol float32
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		vol += a.Dot(b.Cross(c)) / 6
	}
	return vol
}

// closedManifold reports whether every directed edge is matched by exactly one
// edge running the other way.
func closedManifold(m *mesh.Mesh) bool {
	edges := make(map[[2]uint32]int)
	for t := 0; t < len(m.Indices); t += 3 {
		for k := 0; k < 3; k++ {
			edges[[2]uint32{m.Indices[t+k], m.Indices[t+(k+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]uint32{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}
