package mesher

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
)

const (
	// isoLevel is the density at which the surface is extracted.
	isoLevel float32 = 0

	// margin is the number of padding samples kept below and above the meshed
	// cube: two for the blur kernel plus one for the gradient.
	margin = 3

	blurRadius = 2
)

// MarchingCubes extracts the zero isosurface of the field's density. Occupied
// voxels read as +1 and empty ones as -1 unless the field provides its own
// density.
//
// With Smooth set, the density is box blurred along each axis before
// polygonizing and vertex normals come from the blurred gradient. Otherwise
// normals are estimated from the triangles.
//
// Edge vertices are shared between neighbouring cells through a sliding
// per-layer cache. DisableVertexCache emits a separate vertex for every
// triangle corner instead; the surface is the same.
type MarchingCubes struct {
	Size               int
	Smooth             bool
	DisableVertexCache bool
}

func (mc MarchingCubes) String() string {
	return fmt.Sprintf("marching-cubes(size=%d, smooth=%t)", mc.Size, mc.Smooth)
}

func (mc MarchingCubes) Mesh(f field.Field) *mesh.Mesh {
	if mc.Size <= 0 {
		return mesh.New()
	}

	b := newMarchBuilder(f, mc.Size)
	b.fill()
	if mc.Smooth {
		b.blur()
		b.computeGradients()
	}

	if mc.DisableVertexCache {
		b.polygonizeUncached()
	} else {
		b.polygonize()
	}

	if b.gradients != nil {
		b.interpolateNormals()
	} else {
		mesh.EstimateNormals(b.out)
	}
	return b.out
}

type marchBuilder struct {
	size    int
	field   field.Field
	density *grid[float32]
	scratch *grid[float32]

	gradients *grid[mgl32.Vec3]

	out *mesh.Mesh
}

func newMarchBuilder(f field.Field, size int) *marchBuilder {
	n := size + 1 + 2*margin
	return &marchBuilder{
		size:    size,
		field:   f,
		density: newGrid[float32](n),
		out:     mesh.New(),
	}
}

// sample reads the density at a field coordinate.
func (b *marchBuilder) sample(x, y, z int) float32 {
	return b.density.at(x+margin, y+margin, z+margin)
}

func (b *marchBuilder) fill() {
	n := b.density.n
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				b.density.set(x, y, z, field.DensityOf(b.field, x-margin, y-margin, z-margin))
			}
		}
	}
}

// blur runs three separable box filters of width 5, along X, then Y, then Z.
// Each pass reads the previous pass's output; samples closer than the kernel
// radius to the grid border are carried over unfiltered.
func (b *marchBuilder) blur() {
	n := b.density.n
	if b.scratch == nil {
		b.scratch = newGrid[float32](n)
	}

	for axis := 0; axis < 3; axis++ {
		src, dst := b.density, b.scratch
		for z := 0; z < n; z++ {
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					p := [3]int{x, y, z}
					if p[axis] < blurRadius || p[axis] >= n-blurRadius {
						dst.set(x, y, z, src.at(x, y, z))
						continue
					}
					var sum float32
					for k := -blurRadius; k <= blurRadius; k++ {
						q := p
						q[axis] += k
						sum += src.at(q[0], q[1], q[2])
					}
					dst.set(x, y, z, sum/(2*blurRadius+1))
				}
			}
		}
		b.density, b.scratch = b.scratch, b.density
	}
}

// computeGradients stores, for every sample with a full neighbourhood, the
// negated normalized central difference of the density. It points from solid
// towards empty space.
func (b *marchBuilder) computeGradients() {
	n := b.density.n
	b.gradients = newGrid[mgl32.Vec3](n)
	d := b.density

	for z := 1; z < n-1; z++ {
		for y := 1; y < n-1; y++ {
			for x := 1; x < n-1; x++ {
				g := mgl32.Vec3{
					d.at(x+1, y, z) - d.at(x-1, y, z),
					d.at(x, y+1, z) - d.at(x, y-1, z),
					d.at(x, y, z+1) - d.at(x, y, z-1),
				}
				b.gradients.set(x, y, z, mesh.NormalizeOr(g, mgl32.Vec3{}).Mul(-1))
			}
		}
	}
}

// edgeOffset is the fraction along an edge from v1 to v2 where the density
// crosses isoLevel. Equal endpoints yield the midpoint.
func edgeOffset(v1, v2 float32) float32 {
	delta := v2 - v1
	if delta == 0 {
		return 0.5
	}
	return (isoLevel - v1) / delta
}

// cellCase returns the 8-bit corner case of the cell at (x,y,z): bit i is set
// when corner i is outside the solid.
func (b *marchBuilder) cellCase(x, y, z int) int {
	c := 0
	for i, o := range cornerOffsets {
		if b.sample(x+o[0], y+o[1], z+o[2]) <= isoLevel {
			c |= 1 << i
		}
	}
	return c
}

// edgeVertex builds the crossing vertex on edge e of cell (x,y,z). It always
// interpolates from the lower lattice endpoint, so every cell sharing the edge
// computes the same position bit for bit.
func (b *marchBuilder) edgeVertex(x, y, z, e int) mesh.Vertex {
	lo := [3]int{x + edgeLow[e][0], y + edgeLow[e][1], z + edgeLow[e][2]}
	hi := lo
	hi[edgeAxis[e]]++

	v1 := b.sample(lo[0], lo[1], lo[2])
	v2 := b.sample(hi[0], hi[1], hi[2])

	pos := mgl32.Vec3{float32(lo[0]), float32(lo[1]), float32(lo[2])}
	pos[edgeAxis[e]] += edgeOffset(v1, v2)

	inside, outside := lo, hi
	if v1 <= isoLevel {
		inside, outside = hi, lo
	}
	mat := field.MaterialOf(b.field, inside[0], inside[1], inside[2])
	if mat == 0 {
		mat = field.MaterialOf(b.field, outside[0], outside[1], outside[2])
	}

	return mesh.Vertex{Pos: pos, Material: mat}
}

// polygonizeUncached is the reference sweep: every triangle corner gets its own
// vertex and no edge is looked up twice.
func (b *marchBuilder) polygonizeUncached() {
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			for z := 0; z < b.size; z++ {
				c := b.cellCase(x, y, z)
				if edgeFlags[c] == 0 {
					continue
				}
				tris := &triangleTable[c]
				for i := 0; tris[i] >= 0; i += 3 {
					ia := b.out.AddVertex(b.edgeVertex(x, y, z, int(tris[i])))
					ib := b.out.AddVertex(b.edgeVertex(x, y, z, int(tris[i+1])))
					ic := b.out.AddVertex(b.edgeVertex(x, y, z, int(tris[i+2])))
					b.out.AddTriangle(ia, ib, ic)
				}
			}
		}
	}
}

// polygonize sweeps cells in horizontal layers, bottom to top (y outer, z, x
// inner), sharing edge vertices through a vertexCache.
func (b *marchBuilder) polygonize() {
	cache := newVertexCache(b.size + 1)

	for y := 0; y < b.size; y++ {
		if y > 0 {
			cache.advance()
		}
		for z := 0; z < b.size; z++ {
			for x := 0; x < b.size; x++ {
				c := b.cellCase(x, y, z)
				flags := edgeFlags[c]
				if flags == 0 {
					continue
				}

				var local [12]uint32
				for e := 0; e < 12; e++ {
					if flags&(1<<e) == 0 {
						continue
					}
					slot := cache.slot(x, z, e)
					if *slot == 0 {
						*slot = b.out.AddVertex(b.edgeVertex(x, y, z, e)) + 1
					}
					local[e] = *slot - 1
				}

				tris := &triangleTable[c]
				for i := 0; tris[i] >= 0; i += 3 {
					b.out.AddTriangle(local[tris[i]], local[tris[i+1]], local[tris[i+2]])
				}
			}
		}
	}
}

// interpolateNormals trilinearly samples the gradient grid at every vertex.
func (b *marchBuilder) interpolateNormals() {
	for i := range b.out.Vertices {
		b.out.Vertices[i].Normal = b.normalAt(b.out.Vertices[i].Pos)
	}
}

func (b *marchBuilder) normalAt(p mgl32.Vec3) mgl32.Vec3 {
	var base [3]int
	var frac [3]float32
	for a := 0; a < 3; a++ {
		g := p[a] + margin
		fl := float32(math.Floor(float64(g)))
		base[a] = int(fl)
		frac[a] = g - fl
	}

	n := b.gradients
	x, y, z := base[0], base[1], base[2]
	fx, fy, fz := frac[0], frac[1], frac[2]

	x0 := n.at(x, y, z).Mul(1 - fx).Add(n.at(x+1, y, z).Mul(fx))
	x1 := n.at(x, y, z+1).Mul(1 - fx).Add(n.at(x+1, y, z+1).Mul(fx))
	x2 := n.at(x, y+1, z).Mul(1 - fx).Add(n.at(x+1, y+1, z).Mul(fx))
	x3 := n.at(x, y+1, z+1).Mul(1 - fx).Add(n.at(x+1, y+1, z+1).Mul(fx))

	z0 := x0.Mul(1 - fz).Add(x1.Mul(fz))
	z1 := x2.Mul(1 - fz).Add(x3.Mul(fz))

	return mesh.NormalizeOr(z0.Mul(1-fy).Add(z1.Mul(fy)), mesh.FallbackNormal)
}
