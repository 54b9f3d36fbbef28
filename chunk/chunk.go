// Package chunk tiles an unbounded voxel field into fixed-size cubes and keeps
// a mesh per cube up to date.
package chunk

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/voxmesh/mesh"
)

// MeshID changes every time a chunk is remeshed, so renderers can tell a stale
// upload from a current one.
type MeshID string

func makeMeshID() MeshID {
	return MeshID(uuid.NewString())
}

// Coord addresses a chunk on the chunk lattice.
type Coord [3]int

func (c Coord) less(o Coord) bool {
	if c[0] != o[0] {
		return c[0] < o[0]
	}
	if c[1] != o[1] {
		return c[1] < o[1]
	}
	return c[2] < o[2]
}

// Chunk is a snapshot of one chunk. Mesh is nil until the first Update and is
// never modified once published; a rebuild replaces it.
type Chunk struct {
	Coord  Coord
	MeshID MeshID
	Mesh   *mesh.Mesh
	Dirty  bool
	// Origin is the world position of the chunk's lattice point 0.
	Origin mgl32.Vec3
}

type state struct {
	id    MeshID
	mesh  *mesh.Mesh
	dirty bool
	// version is bumped whenever the chunk is marked dirty. A rebuild that
	// started on an older version leaves the chunk dirty.
	version uint64
}

func (s *state) markDirty() {
	s.dirty = true
	s.version++
}

// floorDiv rounds towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
