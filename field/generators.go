package field

import "math"

// Sphere is solid where the squared distance to Center is strictly less than Radius².
// Occupied voxels carry the palette index Tag as their material.
type Sphere struct {
	Center [3]int
	Radius int
	Tag    uint8
}

func (s Sphere) Occupied(x, y, z int) bool {
	dx, dy, dz := x-s.Center[0], y-s.Center[1], z-s.Center[2]
	return dx*dx+dy*dy+dz*dz < s.Radius*s.Radius
}

func (s Sphere) Material(x, y, z int) uint8 {
	if s.Occupied(x, y, z) {
		return s.Tag
	}
	return 0
}

// SineTerrain is a height field: solid below Base + Amplitude*sin(x/Wavelength)*cos(z/Wavelength).
type SineTerrain struct {
	Base       float64
	Amplitude  float64
	Wavelength float64
}

func (s SineTerrain) surface(x, z int) float64 {
	if s.Wavelength == 0 {
		return s.Base
	}
	return s.Base + s.Amplitude*math.Sin(float64(x)/s.Wavelength)*math.Cos(float64(z)/s.Wavelength)
}

func (s SineTerrain) Occupied(x, y, z int) bool {
	return float64(y) < s.surface(x, z)
}

// Density ramps linearly across the surface, one lattice unit each way.
func (s SineTerrain) Density(x, y, z int) float32 {
	return float32(s.surface(x, z) - float64(y))
}
