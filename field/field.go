// Package field defines the voxel field capability sampled by the meshers, plus
// generators, wrappers and adapters over concrete voxel stores.
package field

import "math"

// Field answers occupancy queries on the integer lattice. Implementations must be
// total over all coordinates (meshers sample a margin beyond the region they mesh),
// free of side effects, and safe for concurrent use.
type Field interface {
	Occupied(x, y, z int) bool
}

// Density is implemented by fields that also carry a signed density, positive
// inside the solid. Values are expected in [-1, 1]; callers clamp.
type Density interface {
	Field
	Density(x, y, z int) float32
}

// Materials is implemented by fields that tag voxels with a palette index.
// 0 means no material.
type Materials interface {
	Material(x, y, z int) uint8
}

// Func adapts a plain function to Field.
type Func func(x, y, z int) bool

func (f Func) Occupied(x, y, z int) bool { return f(x, y, z) }

// Constant is a field that is everywhere solid or everywhere empty.
type Constant bool

func (c Constant) Occupied(x, y, z int) bool { return bool(c) }

// MaterialOf returns f's material at a point, or 0 when f has no materials.
func MaterialOf(f Field, x, y, z int) uint8 {
	if m, ok := f.(Materials); ok {
		return m.Material(x, y, z)
	}
	return 0
}

// DensityOf samples f as a signed density clamped to [-1, 1]. Fields without a
// Density implementation map occupied to +1 and empty to -1.
func DensityOf(f Field, x, y, z int) float32 {
	if d, ok := f.(Density); ok {
		return clamp(d.Density(x, y, z))
	}
	if f.Occupied(x, y, z) {
		return 1
	}
	return -1
}

func clamp(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)), v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
