// Package mesher turns voxel fields into triangle meshes.
//
// Three algorithms are provided: Blocky (face culled cubes), MarchingCubes and
// SurfaceNets. A mesher value holds only immutable configuration; every Mesh call
// allocates its own working buffers, so one value may be used from several
// goroutines at once as long as the field is safe for concurrent reads.
package mesher

import (
	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
)

// Mesher samples a field over the cube [0,size)³ and builds a mesh of its surface.
type Mesher interface {
	Mesh(f field.Field) *mesh.Mesh
}

// Sized is implemented by meshers that cover a fixed cube edge.
type Sized interface {
	CubeSize() int
}

func (b Blocky) CubeSize() int         { return b.Size }
func (mc MarchingCubes) CubeSize() int { return mc.Size }
func (sn SurfaceNets) CubeSize() int   { return sn.Size }

var (
	_ Sized = Blocky{}
	_ Sized = MarchingCubes{}
	_ Sized = SurfaceNets{}

	_ Mesher = Blocky{}
	_ Mesher = MarchingCubes{}
	_ Mesher = SurfaceNets{}
)
