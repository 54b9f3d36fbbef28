package main

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxmesh/mesh"
)

func toVec(p mgl32.Vec3) v3.Vec {
	return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// stlTriangles converts an indexed mesh to the triangle soup sdfx writes.
func stlTriangles(m *mesh.Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, m.TriangleCount())
	for i := range tris {
		a, b, c := m.Triangle(i)
		tris[i] = &sdf.Triangle3{toVec(a), toVec(b), toVec(c)}
	}
	return tris
}

func writeSTL(path string, m *mesh.Mesh) error {
	if err := render.SaveSTL(path, stlTriangles(m)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
