package volume

import (
	"math/bits"
	"sort"
	"sync"
)

const (
	BrickSize    = 8
	MicroSize    = 2
	SectorBricks = 4
	SectorSize   = SectorBricks * BrickSize // 32
)

// Brick is a dense 8³ block of palette indices. OccupancyMask64 has one bit per
// 2³ micro block and lets empty regions be skipped without touching the payload.
type Brick struct {
	OccupancyMask64 uint64
	Payload         [BrickSize][BrickSize][BrickSize]uint8
}

func (b *Brick) microBit(bx, by, bz int) uint {
	mx, my, mz := bx/MicroSize, by/MicroSize, bz/MicroSize
	return uint(mx + my*4 + mz*16)
}

func (b *Brick) SetVoxel(bx, by, bz int, val uint8) {
	b.Payload[bx][by][bz] = val
	bit := b.microBit(bx, by, bz)

	if val != 0 {
		b.OccupancyMask64 |= 1 << bit
		return
	}

	sx, sy, sz := bx/MicroSize*MicroSize, by/MicroSize*MicroSize, bz/MicroSize*MicroSize
	for x := 0; x < MicroSize; x++ {
		for y := 0; y < MicroSize; y++ {
			for z := 0; z < MicroSize; z++ {
				if b.Payload[sx+x][sy+y][sz+z] != 0 {
					return
				}
			}
		}
	}
	b.OccupancyMask64 &^= 1 << bit
}

func (b *Brick) IsEmpty() bool {
	return b.OccupancyMask64 == 0
}

func (b *Brick) count() int {
	n := 0
	for m := 0; m < 64; m++ {
		if b.OccupancyMask64&(1<<m) == 0 {
			continue
		}
		mx, my, mz := m%4*MicroSize, (m/4)%4*MicroSize, m/16*MicroSize
		for x := 0; x < MicroSize; x++ {
			for y := 0; y < MicroSize; y++ {
				for z := 0; z < MicroSize; z++ {
					if b.Payload[mx+x][my+y][mz+z] != 0 {
						n++
					}
				}
			}
		}
	}
	return n
}

// Sector holds up to 4³ bricks. Only allocated bricks are stored, packed in mask order.
type Sector struct {
	Coords       [3]int
	BrickMask64  uint64
	PackedBricks []*Brick
}

func NewSector(sx, sy, sz int) *Sector {
	return &Sector{Coords: [3]int{sx, sy, sz}}
}

func (s *Sector) packedIndex(flatIdx int) int {
	return bits.OnesCount64(s.BrickMask64 & ((uint64(1) << flatIdx) - 1))
}

func (s *Sector) Brick(bx, by, bz int) *Brick {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return nil
	}
	return s.PackedBricks[s.packedIndex(flatIdx)]
}

func (s *Sector) brickOrCreate(bx, by, bz int) *Brick {
	flatIdx := bx + by*4 + bz*16
	packedIdx := s.packedIndex(flatIdx)
	if s.BrickMask64&(1<<flatIdx) != 0 {
		return s.PackedBricks[packedIdx]
	}

	brick := &Brick{}
	s.PackedBricks = append(s.PackedBricks, nil)
	copy(s.PackedBricks[packedIdx+1:], s.PackedBricks[packedIdx:])
	s.PackedBricks[packedIdx] = brick
	s.BrickMask64 |= 1 << flatIdx
	return brick
}

func (s *Sector) removeBrickIfEmpty(bx, by, bz int) {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return
	}
	packedIdx := s.packedIndex(flatIdx)
	if !s.PackedBricks[packedIdx].IsEmpty() {
		return
	}
	s.PackedBricks = append(s.PackedBricks[:packedIdx], s.PackedBricks[packedIdx+1:]...)
	s.BrickMask64 &^= 1 << flatIdx
}

func (s *Sector) IsEmpty() bool {
	return s.BrickMask64 == 0
}

// BrickMap is a sparse, unbounded voxel store keyed by integer coordinates.
// Reads may run concurrently with each other; writes take an exclusive lock.
type BrickMap struct {
	mu           sync.RWMutex
	sectors      map[[3]int]*Sector
	dirtySectors map[[3]int]bool
}

func NewBrickMap() *BrickMap {
	return &BrickMap{
		sectors:      make(map[[3]int]*Sector),
		dirtySectors: make(map[[3]int]bool),
	}
}

func split(g int) (sector, local int) {
	sector, local = g/SectorSize, g%SectorSize
	if local < 0 {
		local += SectorSize
		sector--
	}
	return sector, local
}

func locate(gx, gy, gz int) (sKey [3]int, bx, by, bz, vx, vy, vz int) {
	sx, lx := split(gx)
	sy, ly := split(gy)
	sz, lz := split(gz)
	return [3]int{sx, sy, sz},
		lx / BrickSize, ly / BrickSize, lz / BrickSize,
		lx % BrickSize, ly % BrickSize, lz % BrickSize
}

// SetVoxel stores a palette index at a global coordinate; 0 clears the voxel.
func (m *BrickMap) SetVoxel(gx, gy, gz int, val uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setVoxel(gx, gy, gz, val)
}

func (m *BrickMap) setVoxel(gx, gy, gz int, val uint8) {
	sKey, bx, by, bz, vx, vy, vz := locate(gx, gy, gz)

	if val == 0 {
		sector, ok := m.sectors[sKey]
		if !ok {
			return
		}
		brick := sector.Brick(bx, by, bz)
		if brick == nil || brick.Payload[vx][vy][vz] == 0 {
			return
		}
		brick.SetVoxel(vx, vy, vz, 0)
		m.dirtySectors[sKey] = true

		sector.removeBrickIfEmpty(bx, by, bz)
		if sector.IsEmpty() {
			delete(m.sectors, sKey)
		}
		return
	}

	sector, ok := m.sectors[sKey]
	if !ok {
		sector = NewSector(sKey[0], sKey[1], sKey[2])
		m.sectors[sKey] = sector
	}
	brick := sector.brickOrCreate(bx, by, bz)
	if brick.Payload[vx][vy][vz] == val {
		return
	}
	brick.SetVoxel(vx, vy, vz, val)
	m.dirtySectors[sKey] = true
}

// Voxel returns (found, value) for the voxel at a global coordinate. Every
// coordinate is valid; unallocated space reads as empty.
func (m *BrickMap) Voxel(gx, gy, gz int) (bool, uint8) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sKey, bx, by, bz, vx, vy, vz := locate(gx, gy, gz)
	sector, ok := m.sectors[sKey]
	if !ok {
		return false, 0
	}
	brick := sector.Brick(bx, by, bz)
	if brick == nil {
		return false, 0
	}
	val := brick.Payload[vx][vy][vz]
	return val != 0, val
}

// SectorCount returns the number of allocated sectors.
func (m *BrickMap) SectorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sectors)
}

func (m *BrickMap) VoxelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sector := range m.sectors {
		for _, brick := range sector.PackedBricks {
			count += brick.count()
		}
	}
	return count
}

// Bounds returns the voxel-space AABB of all set voxels, max exclusive.
// ok is false for an empty map.
func (m *BrickMap) Bounds() (minB, maxB [3]int, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for sKey, sector := range m.sectors {
		for i := 0; i < 64; i++ {
			if sector.BrickMask64&(1<<i) == 0 {
				continue
			}
			bx, by, bz := i%4, (i/4)%4, i/16
			brick := sector.Brick(bx, by, bz)
			for x := 0; x < BrickSize; x++ {
				for y := 0; y < BrickSize; y++ {
					for z := 0; z < BrickSize; z++ {
						if brick.Payload[x][y][z] == 0 {
							continue
						}
						g := [3]int{
							sKey[0]*SectorSize + bx*BrickSize + x,
							sKey[1]*SectorSize + by*BrickSize + y,
							sKey[2]*SectorSize + bz*BrickSize + z,
						}
						if !ok {
							minB, maxB, ok = g, [3]int{g[0] + 1, g[1] + 1, g[2] + 1}, true
							continue
						}
						for a := 0; a < 3; a++ {
							minB[a] = min(minB[a], g[a])
							maxB[a] = max(maxB[a], g[a]+1)
						}
					}
				}
			}
		}
	}
	return minB, maxB, ok
}

// Box is an integer voxel-space box, Min inclusive and Max exclusive.
type Box struct {
	Min, Max [3]int
}

// TakeDirty returns the boxes of every sector modified since the last call, in
// sorted order, and clears the set.
func (m *BrickMap) TakeDirty() []Box {
	m.mu.Lock()
	keys := make([][3]int, 0, len(m.dirtySectors))
	for k := range m.dirtySectors {
		keys = append(keys, k)
	}
	clear(m.dirtySectors)
	m.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})

	boxes := make([]Box, len(keys))
	for i, k := range keys {
		lo := [3]int{k[0] * SectorSize, k[1] * SectorSize, k[2] * SectorSize}
		boxes[i] = Box{Min: lo, Max: [3]int{lo[0] + SectorSize, lo[1] + SectorSize, lo[2] + SectorSize}}
	}
	return boxes
}
