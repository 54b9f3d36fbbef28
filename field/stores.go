package field

import (
	"github.com/gekko3d/voxmesh/volume"
	"github.com/gekko3d/voxmesh/voxfile"
)

// BrickMap exposes a sparse voxel store; voxel palette indices become materials.
type BrickMap struct {
	Map *volume.BrickMap
}

func (b BrickMap) Occupied(x, y, z int) bool {
	found, _ := b.Map.Voxel(x, y, z)
	return found
}

func (b BrickMap) Material(x, y, z int) uint8 {
	_, val := b.Map.Voxel(x, y, z)
	return val
}

// Model is a bounded field over a .vox model. MagicaVoxel is Z-up; the model is
// rotated a quarter turn about X so its Z axis becomes the lattice Y axis and
// its Y axis runs along -Z. Handedness is kept, so winding and normals stay
// outward. Everything outside the model is empty.
type Model struct {
	sx, sy, sz int
	grid       []uint8
}

func NewModel(m voxfile.Model) *Model {
	f := &Model{sx: int(m.SizeX), sy: int(m.SizeZ), sz: int(m.SizeY)}
	f.grid = make([]uint8, f.sx*f.sy*f.sz)
	for _, v := range m.Voxels {
		x, y, z := int(v.X), int(v.Z), f.sz-1-int(v.Y)
		if x >= f.sx || y >= f.sy || z < 0 {
			continue
		}
		f.grid[x+y*f.sx+z*f.sx*f.sy] = v.ColorIndex
	}
	return f
}

// Size returns the lattice extent of the model, Y-up.
func (f *Model) Size() (int, int, int) {
	return f.sx, f.sy, f.sz
}

func (f *Model) Material(x, y, z int) uint8 {
	if x < 0 || y < 0 || z < 0 || x >= f.sx || y >= f.sy || z >= f.sz {
		return 0
	}
	return f.grid[x+y*f.sx+z*f.sx*f.sy]
}

func (f *Model) Occupied(x, y, z int) bool {
	return f.Material(x, y, z) != 0
}
