package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func floorInt(v float32) int { return int(math.Floor(float64(v))) }
func ceilInt(v float32) int  { return int(math.Ceil(float64(v))) }

// Sphere sets every voxel whose centre lies within radius of center.
func Sphere(m *BrickMap, center mgl32.Vec3, radius float32, paletteIdx uint8) {
	r2 := radius * radius

	m.mu.Lock()
	defer m.mu.Unlock()
	for x := floorInt(center.X() - radius); x <= ceilInt(center.X()+radius); x++ {
		for y := floorInt(center.Y() - radius); y <= ceilInt(center.Y()+radius); y++ {
			for z := floorInt(center.Z() - radius); z <= ceilInt(center.Z()+radius); z++ {
				p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
				if p.Sub(center).LenSqr() <= r2 {
					m.setVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}

// Cube sets every voxel in [minB, maxB], both ends inclusive after flooring.
func Cube(m *BrickMap, minB, maxB mgl32.Vec3, paletteIdx uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for x := floorInt(minB.X()); x <= floorInt(maxB.X()); x++ {
		for y := floorInt(minB.Y()); y <= floorInt(maxB.Y()); y++ {
			for z := floorInt(minB.Z()); z <= floorInt(maxB.Z()); z++ {
				m.setVoxel(x, y, z, paletteIdx)
			}
		}
	}
}

// Cone sets a solid cone. base is the centre of the base disc, tip the apex.
func Cone(m *BrickMap, base, tip mgl32.Vec3, radius float32, paletteIdx uint8) {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	if height < 1e-5 {
		return
	}
	axis := heightVec.Normalize()

	maxDim := max(radius, height)
	center := base.Add(tip).Mul(0.5)

	m.mu.Lock()
	defer m.mu.Unlock()
	for x := floorInt(center.X() - maxDim); x <= ceilInt(center.X()+maxDim); x++ {
		for y := floorInt(center.Y() - maxDim); y <= ceilInt(center.Y()+maxDim); y++ {
			for z := floorInt(center.Z() - maxDim); z <= ceilInt(center.Z()+maxDim); z++ {
				v := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}.Sub(base)
				distOnAxis := v.Dot(axis)
				if distOnAxis < 0 || distOnAxis > height {
					continue
				}
				radiusAtDist := radius * (1 - distOnAxis/height)
				if v.LenSqr()-distOnAxis*distOnAxis <= radiusAtDist*radiusAtDist {
					m.setVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}
