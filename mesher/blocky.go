package mesher

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
)

// Blocky emits one quad for every face of an occupied voxel whose neighbour is
// empty. Voxel (x,y,z) spans the unit cube [x,x+1]×[y,y+1]×[z,z+1]. Faces never
// share vertices and carry their exact outward axis normal.
type Blocky struct {
	Size int
}

func (b Blocky) String() string {
	return fmt.Sprintf("blocky(size=%d)", b.Size)
}

// faceCorners lists the quad corners for faces perpendicular to each axis.
var faceCorners = [3][4][3]int{
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1}},
	{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {1, 0, 1}},
	{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
}

var (
	forwardOrder = [6]uint32{0, 1, 2, 2, 1, 3}
	reverseOrder = [6]uint32{2, 1, 0, 3, 1, 2}
)

func (b Blocky) Mesh(f field.Field) *mesh.Mesh {
	out := mesh.New()
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			for z := 0; z < b.Size; z++ {
				cube(out, f, x, y, z)
			}
		}
	}
	return out
}

func cube(out *mesh.Mesh, f field.Field, x, y, z int) {
	if !f.Occupied(x, y, z) {
		return
	}
	mat := field.MaterialOf(f, x, y, z)

	if !f.Occupied(x+1, y, z) {
		face(out, x+1, y, z, 0, true, mgl32.Vec3{1, 0, 0}, mat)
	}
	if !f.Occupied(x-1, y, z) {
		face(out, x, y, z, 0, false, mgl32.Vec3{-1, 0, 0}, mat)
	}
	if !f.Occupied(x, y+1, z) {
		face(out, x, y+1, z, 1, false, mgl32.Vec3{0, 1, 0}, mat)
	}
	if !f.Occupied(x, y-1, z) {
		face(out, x, y, z, 1, true, mgl32.Vec3{0, -1, 0}, mat)
	}
	if !f.Occupied(x, y, z+1) {
		face(out, x, y, z+1, 2, false, mgl32.Vec3{0, 0, 1}, mat)
	}
	if !f.Occupied(x, y, z-1) {
		face(out, x, y, z, 2, true, mgl32.Vec3{0, 0, -1}, mat)
	}
}

// face appends the quad whose lowest corner is (x,y,z). reverse flips the
// winding so the quad faces along normal.
func face(out *mesh.Mesh, x, y, z, axis int, reverse bool, normal mgl32.Vec3, mat uint8) {
	base := uint32(out.VertexCount())
	for _, off := range faceCorners[axis] {
		out.AddVertex(mesh.Vertex{
			Pos:      mgl32.Vec3{float32(x + off[0]), float32(y + off[1]), float32(z + off[2])},
			Normal:   normal,
			Material: mat,
		})
	}

	order := forwardOrder
	if reverse {
		order = reverseOrder
	}
	out.AddTriangle(base+order[0], base+order[1], base+order[2])
	out.AddTriangle(base+order[3], base+order[4], base+order[5])
}
