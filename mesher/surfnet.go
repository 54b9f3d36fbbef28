package mesher

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
)

// SurfaceNets places one vertex on every lattice point whose 2×2×2 voxel
// neighbourhood is mixed, relaxes the vertices with Iterations rounds of
// Laplacian smoothing and joins them into quads across sign changes. Normals
// are always estimated from the triangles. Six or seven iterations give the
// best looking results; zero keeps the raw lattice positions.
type SurfaceNets struct {
	Size       int
	Iterations uint16
}

func (sn SurfaceNets) String() string {
	return fmt.Sprintf("surface-nets(size=%d, iterations=%d)", sn.Size, sn.Iterations)
}

var neighbourOffsets = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// quadOffsets lists, for the three axis-aligned faces around a lattice point,
// the four vertices forming the quad. The last entry is opposite the first.
var quadOffsets = [3][4][3]int{
	{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 1}},
	{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {1, 0, 1}},
	{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
}

func (sn SurfaceNets) Mesh(f field.Field) *mesh.Mesh {
	if sn.Size <= 0 {
		return mesh.New()
	}

	b := &netBuilder{
		size:     sn.Size,
		field:    f,
		indexMap: make([]int32, sn.Size*sn.Size*sn.Size),
		out:      mesh.New(),
	}
	for i := range b.indexMap {
		b.indexMap[i] = -1
	}

	b.placeVertices()
	b.relax(int(sn.Iterations))
	b.connectFaces()

	b.out.Vertices = make([]mesh.Vertex, len(b.current))
	for i, p := range b.current {
		b.out.Vertices[i] = mesh.Vertex{Pos: p, Material: b.materials[i]}
	}
	mesh.EstimateNormals(b.out)
	return b.out
}

type netBuilder struct {
	size  int
	field field.Field

	// indexMap holds the vertex index of every lattice point, -1 for none.
	indexMap  []int32
	lattice   [][3]int
	materials []uint8

	previous, current []mgl32.Vec3

	out *mesh.Mesh
}

func (b *netBuilder) indexAt(x, y, z int) int32 {
	s := b.size
	if x < 0 || y < 0 || z < 0 || x >= s || y >= s || z >= s {
		return -1
	}
	return b.indexMap[x+y*s+z*s*s]
}

func (b *netBuilder) placeVertices() {
	s := b.size
	for z := 0; z < s; z++ {
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				count := 0
				var mat uint8
				for _, o := range cornerOffsets {
					cx, cy, cz := x+o[0], y+o[1], z+o[2]
					if !b.field.Occupied(cx, cy, cz) {
						continue
					}
					if count == 0 {
						mat = field.MaterialOf(b.field, cx, cy, cz)
					}
					count++
				}
				if count == 0 || count == 8 {
					continue
				}

				b.indexMap[x+y*s+z*s*s] = int32(len(b.lattice))
				b.lattice = append(b.lattice, [3]int{x, y, z})
				b.materials = append(b.materials, mat)
				b.current = append(b.current, mgl32.Vec3{float32(x), float32(y), float32(z)})
			}
		}
	}
	b.previous = make([]mgl32.Vec3, len(b.current))
}

// relax moves every vertex to the mean of itself and its existing axis
// neighbours. Each round swaps the buffers first, so all reads see the previous
// round and writes only go to current.
func (b *netBuilder) relax(iterations int) {
	for it := 0; it < iterations; it++ {
		b.previous, b.current = b.current, b.previous

		for i, p := range b.lattice {
			sum := b.previous[i]
			n := 1
			for _, o := range neighbourOffsets {
				j := b.indexAt(p[0]+o[0], p[1]+o[1], p[2]+o[2])
				if j < 0 {
					continue
				}
				sum = sum.Add(b.previous[j])
				n++
			}
			b.current[i] = sum.Mul(1 / float32(n))
		}
	}
}

// connectFaces emits two triangles for every quad of existing vertices that
// straddles a solid/empty boundary, wound to face the empty side.
func (b *netBuilder) connectFaces() {
	s := b.size
	for z := 0; z < s-1; z++ {
		for y := 0; y < s-1; y++ {
			for x := 0; x < s-1; x++ {
				for q := range quadOffsets {
					b.connectQuad(x, y, z, &quadOffsets[q])
				}
			}
		}
	}
}

func (b *netBuilder) connectQuad(x, y, z int, offs *[4][3]int) {
	var ids [4]uint32
	for i, o := range offs {
		idx := b.indexAt(x+o[0], y+o[1], z+o[2])
		if idx < 0 {
			return
		}
		ids[i] = uint32(idx)
	}

	far := offs[3]
	pos := b.field.Occupied(x+1, y+1, z+1)
	neg := b.field.Occupied(x+far[0], y+far[1], z+far[2])
	if pos == neg {
		return
	}

	order := reverseOrder
	if neg {
		order = forwardOrder
	}
	b.out.AddTriangle(ids[order[0]], ids[order[1]], ids[order[2]])
	b.out.AddTriangle(ids[order[3]], ids[order[4]], ids[order[5]])
}
