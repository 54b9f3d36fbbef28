package field

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxmesh/volume"
	"github.com/gekko3d/voxmesh/voxfile"
)

func TestSphere(t *testing.T) {
	s := Sphere{Center: [3]int{8, 8, 8}, Radius: 3, Tag: 4}
	assert.True(t, s.Occupied(8, 8, 8))
	assert.True(t, s.Occupied(10, 8, 8))
	assert.False(t, s.Occupied(11, 8, 8), "boundary is exclusive")
	assert.False(t, s.Occupied(-1000, 5, 1<<20), "sphere is total")
	assert.Equal(t, uint8(4), s.Material(8, 9, 8))
	assert.Equal(t, uint8(0), s.Material(0, 0, 0))

	var tagged Materials = s
	assert.Equal(t, uint8(4), tagged.Material(8, 8, 8))
	assert.Equal(t, uint8(4), MaterialOf(s, 9, 8, 8))

	empty := Sphere{Center: [3]int{8, 8, 8}}
	assert.False(t, empty.Occupied(8, 8, 8))
}

func TestSineTerrain(t *testing.T) {
	s := SineTerrain{Base: 10, Amplitude: 4, Wavelength: 8}
	assert.True(t, s.Occupied(0, 9, 0))
	assert.False(t, s.Occupied(0, 10, 0))
	assert.InDelta(t, 1.0, s.Density(0, 9, 0), 1e-6)

	// sin peaks at x = wavelength*pi/2
	x := int(math.Round(8 * math.Pi / 2))
	assert.True(t, s.Occupied(x, 13, 0))
	assert.InDelta(t, -1.0, DensityOf(s, 0, 50, 0), 1e-6, "density is clamped")

	flat := SineTerrain{Base: 2}
	assert.True(t, flat.Occupied(123, 1, -9))
	assert.False(t, flat.Occupied(123, 2, -9))
}

func TestDensityOf(t *testing.T) {
	assert.Equal(t, float32(1), DensityOf(Constant(true), 0, 0, 0))
	assert.Equal(t, float32(-1), DensityOf(Constant(false), 0, 0, 0))
	assert.Equal(t, uint8(0), MaterialOf(Constant(true), 0, 0, 0))
}

func TestWindow(t *testing.T) {
	var seen [][3]int
	src := Func(func(x, y, z int) bool {
		seen = append(seen, [3]int{x, y, z})
		return x >= 100
	})

	w := Window{Source: src, Origin: [3]int{96, -4, 8}, Scale: 2}
	assert.False(t, w.Occupied(1, 0, 0))
	assert.True(t, w.Occupied(2, 1, 3))
	assert.Equal(t, [][3]int{{98, -4, 8}, {100, -2, 14}}, seen)

	unit := Window{Source: Sphere{Center: [3]int{10, 10, 10}, Radius: 2, Tag: 9}, Origin: [3]int{10, 10, 10}}
	assert.True(t, unit.Occupied(0, 0, 0))
	assert.Equal(t, uint8(9), unit.Material(0, 1, 0))
	assert.Equal(t, float32(1), unit.Density(0, 0, 0))
	assert.Equal(t, float32(-1), unit.Density(5, 0, 0))
}

func TestSDF(t *testing.T) {
	ball, err := sdf.Sphere3D(2)
	require.NoError(t, err)

	f, extent := NewSDF(ball, 0.5)
	// 4 units wide at 0.5 per lattice step, plus padding.
	assert.Equal(t, 11, extent)

	// The lattice starts one step outside the bounding box at -2.5, so lattice
	// point 5 is the centre.
	assert.True(t, f.Occupied(5, 5, 5))
	assert.False(t, f.Occupied(0, 0, 0))
	assert.Greater(t, f.Density(6, 6, 6), float32(0))
	assert.Less(t, f.Density(0, 6, 6), float32(0))

	// The centre is 2 units deep, which is 4 lattice steps.
	assert.InDelta(t, 4.0, f.Density(5, 5, 5), 1e-6)
	assert.Equal(t, float32(1), DensityOf(f, 5, 5, 5))
}

func TestBrickMapField(t *testing.T) {
	m := volume.NewBrickMap()
	volume.Sphere(m, mgl32.Vec3{0, 0, 0}, 3, 6)

	f := BrickMap{Map: m}
	assert.True(t, f.Occupied(0, 0, 0))
	assert.True(t, f.Occupied(-1, -1, -1))
	assert.False(t, f.Occupied(40, 0, 0))
	assert.Equal(t, uint8(6), f.Material(0, 1, 0))
	assert.Equal(t, uint8(6), MaterialOf(f, 0, 1, 0))
}

func TestModelField(t *testing.T) {
	f := NewModel(voxfile.Model{
		SizeX: 2, SizeY: 3, SizeZ: 4,
		Voxels: []voxfile.Voxel{{X: 1, Y: 2, Z: 3, ColorIndex: 5}, {X: 9, Y: 0, Z: 0, ColorIndex: 1}},
	})

	sx, sy, sz := f.Size()
	assert.Equal(t, [3]int{2, 4, 3}, [3]int{sx, sy, sz})

	// Z-up (1,2,3) becomes Y-up (1,3,0): model Y runs along -Z.
	assert.True(t, f.Occupied(1, 3, 0))
	assert.Equal(t, uint8(5), f.Material(1, 3, 0))
	assert.False(t, f.Occupied(1, 3, 2))
	assert.False(t, f.Occupied(1, 2, 3))
	assert.False(t, f.Occupied(-1, 0, 0))
	assert.False(t, f.Occupied(100, 100, 100))
}
