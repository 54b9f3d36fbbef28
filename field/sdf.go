package field

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SDF samples an sdfx solid on a regular lattice. Lattice point (x,y,z) maps to
// Origin + (x,y,z)*Step in solid space. The solid is negative inside; Density
// flips the sign and expresses it in lattice units.
type SDF struct {
	Shape  sdf.SDF3
	Origin v3.Vec
	Step   float64
}

// NewSDF places the lattice so the shape's bounding box, padded by one step,
// starts at lattice point 0, and returns the field together with the lattice
// edge length needed to cover the whole box.
func NewSDF(shape sdf.SDF3, step float64) (*SDF, int) {
	bb := shape.BoundingBox()
	origin := bb.Min.Sub(v3.Vec{X: step, Y: step, Z: step})
	size := bb.Max.Sub(bb.Min)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	extent := int(math.Ceil(longest/step)) + 3
	return &SDF{Shape: shape, Origin: origin, Step: step}, extent
}

func (s *SDF) point(x, y, z int) v3.Vec {
	return v3.Vec{
		X: s.Origin.X + float64(x)*s.Step,
		Y: s.Origin.Y + float64(y)*s.Step,
		Z: s.Origin.Z + float64(z)*s.Step,
	}
}

func (s *SDF) Occupied(x, y, z int) bool {
	return s.Shape.Evaluate(s.point(x, y, z)) < 0
}

func (s *SDF) Density(x, y, z int) float32 {
	return float32(-s.Shape.Evaluate(s.point(x, y, z)) / s.Step)
}
