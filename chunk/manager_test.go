package chunk

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxmesh"
	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesher"
	"github.com/gekko3d/voxmesh/volume"
)

func testOptions() Options {
	return Options{Size: 16, Resolution: 1, VoxelSize: 0.5, Workers: 2}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, floorDiv(0, 16))
	assert.Equal(t, 0, floorDiv(15, 16))
	assert.Equal(t, 1, floorDiv(16, 16))
	assert.Equal(t, -1, floorDiv(-1, 16))
	assert.Equal(t, -1, floorDiv(-16, 16))
	assert.Equal(t, -2, floorDiv(-17, 16))
}

func TestOptions_Defaults(t *testing.T) {
	m := NewManager(field.Constant(false), mesher.Blocky{Size: 64}, Options{})
	opts := m.Options()
	assert.Equal(t, 64, opts.Size)
	assert.Equal(t, 1, opts.Resolution)
	assert.Equal(t, float32(0.5), opts.VoxelSize)
	assert.Positive(t, opts.Workers)
	assert.NotNil(t, opts.Logger)
}

func TestManager_GenerateIgnoresDuplicates(t *testing.T) {
	m := NewManager(field.Constant(false), mesher.Blocky{Size: 16}, testOptions())
	assert.True(t, m.Generate(0, 0, 0))
	assert.False(t, m.Generate(0, 0, 0))
	assert.True(t, m.Generate(-1, 0, 2))
	assert.Equal(t, 2, m.Len())

	c, ok := m.Chunk(Coord{-1, 0, 2})
	require.True(t, ok)
	assert.True(t, c.Dirty)
	assert.Nil(t, c.Mesh)
	assert.Equal(t, mgl32.Vec3{-8, 0, 16}, c.Origin)

	assert.True(t, m.Remove(Coord{-1, 0, 2}))
	assert.False(t, m.Remove(Coord{-1, 0, 2}))
	_, ok = m.Chunk(Coord{-1, 0, 2})
	assert.False(t, ok)
}

func TestManager_UpdatePlacesMeshes(t *testing.T) {
	ball := field.Sphere{Center: [3]int{24, 8, 8}, Radius: 6}
	mc := mesher.MarchingCubes{Size: 16}
	m := NewManager(ball, mc, testOptions())
	m.Generate(0, 0, 0)
	m.Generate(1, 0, 0)

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	empty, ok := m.Chunk(Coord{0, 0, 0})
	require.True(t, ok)
	assert.False(t, empty.Dirty)
	require.NotNil(t, empty.Mesh)
	assert.True(t, empty.Mesh.IsEmpty())

	got, ok := m.Chunk(Coord{1, 0, 0})
	require.True(t, ok)
	assert.False(t, got.Dirty)
	assert.NotEmpty(t, got.MeshID)

	// Same sphere meshed locally, then moved into place by hand.
	want := mc.Mesh(field.Sphere{Center: [3]int{8, 8, 8}, Radius: 6})
	want.Scale(0.5)
	want.Translate(mgl32.Vec3{8, 0, 0})
	assert.Equal(t, want.Vertices, got.Mesh.Vertices)
	assert.Equal(t, want.Indices, got.Mesh.Indices)

	// Nothing dirty, nothing rebuilt.
	n, err = m.Update(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	again, _ := m.Chunk(Coord{1, 0, 0})
	assert.Equal(t, got.MeshID, again.MeshID)
}

func TestManager_ResolutionWidensChunks(t *testing.T) {
	opts := testOptions()
	opts.Resolution = 2
	m := NewManager(field.Func(func(x, y, z int) bool { return y < 4 }), mesher.Blocky{Size: 16}, opts)
	m.Generate(1, 0, 0)
	_, err := m.Update(context.Background())
	require.NoError(t, err)

	c, _ := m.Chunk(Coord{1, 0, 0})
	assert.Equal(t, mgl32.Vec3{16, 0, 0}, c.Origin)
	minB, maxB := c.Mesh.Bounds()
	// A lattice step is 2 voxels of 0.5 each, and the slab top sits two steps up.
	assert.Equal(t, mgl32.Vec3{16, 2, 0}, minB)
	assert.Equal(t, mgl32.Vec3{32, 2, 16}, maxB)
}

func TestManager_SetMesherRebuildsEverything(t *testing.T) {
	ball := field.Sphere{Center: [3]int{8, 8, 8}, Radius: 6}
	m := NewManager(ball, mesher.Blocky{Size: 16}, testOptions())
	m.Generate(0, 0, 0)
	m.Generate(0, 1, 0)
	_, err := m.Update(context.Background())
	require.NoError(t, err)
	before, _ := m.Chunk(Coord{0, 0, 0})

	m.SetMesher(mesher.SurfaceNets{Size: 16, Iterations: 7})
	for _, c := range m.Chunks() {
		assert.True(t, c.Dirty, "%v", c.Coord)
	}

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	after, _ := m.Chunk(Coord{0, 0, 0})
	assert.NotEqual(t, before.MeshID, after.MeshID)
	assert.NotEqual(t, before.Mesh.VertexCount(), after.Mesh.VertexCount())
}

func TestManager_Invalidate(t *testing.T) {
	m := NewManager(field.Constant(false), mesher.Blocky{Size: 16}, testOptions())
	m.Generate(0, 0, 0)
	m.Generate(1, 0, 0)
	m.Generate(3, 0, 0)

	clean := func() {
		_, err := m.Update(context.Background())
		require.NoError(t, err)
	}
	dirty := func() []Coord {
		var out []Coord
		for _, c := range m.Chunks() {
			if c.Dirty {
				out = append(out, c.Coord)
			}
		}
		return out
	}

	clean()
	assert.Equal(t, 1, m.Invalidate([3]int{0, 0, 0}, [3]int{1, 1, 1}))
	assert.Equal(t, []Coord{{0, 0, 0}}, dirty())

	clean()
	// An edit on the shared face is sampled by both neighbours.
	assert.Equal(t, 2, m.Invalidate([3]int{15, 0, 0}, [3]int{16, 1, 1}))
	assert.Equal(t, []Coord{{0, 0, 0}, {1, 0, 0}}, dirty())

	clean()
	// Smoothed marching cubes reads three steps past the far face, Size+3.
	assert.Equal(t, 2, m.Invalidate([3]int{19, 0, 0}, [3]int{20, 1, 1}))
	assert.Equal(t, []Coord{{0, 0, 0}, {1, 0, 0}}, dirty())

	clean()
	assert.Equal(t, 1, m.Invalidate([3]int{20, 0, 0}, [3]int{21, 1, 1}))
	assert.Equal(t, []Coord{{1, 0, 0}}, dirty())

	clean()
	assert.Zero(t, m.Invalidate([3]int{100, 0, 0}, [3]int{101, 1, 1}))
	assert.Zero(t, m.Invalidate([3]int{5, 5, 5}, [3]int{5, 9, 9}))
	assert.Empty(t, dirty())
}

func TestManager_EditPastFarFaceRebuildsSmoothedChunk(t *testing.T) {
	var edited atomic.Bool
	world := field.Func(func(x, y, z int) bool {
		return y < 8 || (edited.Load() && x == 19 && y == 8 && z == 8)
	})
	m := NewManager(world, mesher.MarchingCubes{Size: 16, Smooth: true}, testOptions())
	m.Generate(0, 0, 0)
	_, err := m.Update(context.Background())
	require.NoError(t, err)
	before, _ := m.Chunk(Coord{0, 0, 0})

	edited.Store(true)
	assert.Equal(t, 1, m.Invalidate([3]int{19, 8, 8}, [3]int{20, 9, 9}))

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	after, _ := m.Chunk(Coord{0, 0, 0})
	assert.NotEqual(t, before.Mesh.Vertices, after.Mesh.Vertices, "the blur carries the edit into the chunk")
}

func TestManager_SizeFromMesher(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := voxmesh.NewLoggerTo("chunks", false, &out, &errOut)

	m := NewManager(field.Constant(false), mesher.SurfaceNets{Size: 24}, Options{Logger: logger})
	assert.Equal(t, 24, m.Options().Size)
	assert.Empty(t, errOut.String())

	m.SetMesher(mesher.Blocky{Size: 24})
	assert.Empty(t, errOut.String())

	m.SetMesher(mesher.Blocky{Size: 8})
	assert.Contains(t, errOut.String(), "WARN: mesher blocky(size=8) covers a cube edge of 8 but chunks are 24 wide")
}

func TestManager_SizeMismatchWarns(t *testing.T) {
	var out, errOut bytes.Buffer
	opts := testOptions()
	opts.Logger = voxmesh.NewLoggerTo("chunks", false, &out, &errOut)

	m := NewManager(field.Constant(false), mesher.MarchingCubes{Size: 32}, opts)
	assert.Equal(t, 16, m.Options().Size)
	assert.Contains(t, errOut.String(), "cube edge of 32 but chunks are 16 wide")
}

func TestManager_BrickMapEdits(t *testing.T) {
	bm := volume.NewBrickMap()
	m := NewManager(field.BrickMap{Map: bm}, mesher.Blocky{Size: 16}, testOptions())
	m.Generate(0, 0, 0)
	m.Generate(1, 0, 0)
	m.Generate(3, 0, 0)
	_, err := m.Update(context.Background())
	require.NoError(t, err)
	bm.TakeDirty()

	bm.SetVoxel(5, 5, 5, 3)
	assert.Equal(t, 2, m.InvalidateBoxes(bm.TakeDirty()))

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, _ := m.Chunk(Coord{0, 0, 0})
	assert.Equal(t, 24, c.Mesh.VertexCount())
	for _, v := range c.Mesh.Vertices {
		assert.Equal(t, uint8(3), v.Material)
	}
}

func TestManager_UpdateCancelled(t *testing.T) {
	m := NewManager(field.Constant(false), mesher.Blocky{Size: 16}, testOptions())
	m.Generate(0, 0, 0)
	m.Generate(1, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := m.Update(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	for _, c := range m.Chunks() {
		assert.True(t, c.Dirty)
	}
}

func TestManager_UpdateWithoutMesher(t *testing.T) {
	m := NewManager(field.Constant(false), nil, testOptions())
	n, err := m.Update(context.Background())
	require.NoError(t, err, "nothing to do yet")
	assert.Zero(t, n)

	m.Generate(0, 0, 0)
	_, err = m.Update(context.Background())
	assert.ErrorIs(t, err, ErrNoMesher)
}

func TestManager_EditDuringRebuildKeepsChunkDirty(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := field.Func(func(x, y, z int) bool {
		once.Do(func() {
			close(started)
			<-release
		})
		return y < 2
	})

	m := NewManager(f, mesher.Blocky{Size: 16}, testOptions())
	m.Generate(0, 0, 0)

	done := make(chan error)
	go func() {
		_, err := m.Update(context.Background())
		done <- err
	}()

	<-started
	m.Invalidate([3]int{0, 0, 0}, [3]int{1, 1, 1})
	close(release)
	require.NoError(t, <-done)

	c, _ := m.Chunk(Coord{0, 0, 0})
	assert.NotNil(t, c.Mesh)
	assert.True(t, c.Dirty)

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	c, _ = m.Chunk(Coord{0, 0, 0})
	assert.False(t, c.Dirty)
}

func TestManager_ManyChunksConcurrently(t *testing.T) {
	terrain := field.SineTerrain{Base: 4, Amplitude: 3, Wavelength: 5}
	opts := testOptions()
	opts.Workers = 4
	m := NewManager(terrain, mesher.MarchingCubes{Size: 16, Smooth: true}, opts)
	for x := -2; x < 2; x++ {
		for z := -2; z < 2; z++ {
			m.Generate(x, 0, z)
		}
	}

	n, err := m.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	chunks := m.Chunks()
	require.Len(t, chunks, 16)
	ids := map[MeshID]bool{}
	for i, c := range chunks {
		if i > 0 {
			assert.True(t, chunks[i-1].Coord.less(c.Coord))
		}
		assert.False(t, c.Dirty)
		assert.False(t, c.Mesh.IsEmpty())
		assert.NoError(t, c.Mesh.Validate())
		ids[c.MeshID] = true
	}
	assert.Len(t, ids, 16)
}

func TestManager_Logging(t *testing.T) {
	var out, errOut bytes.Buffer
	opts := testOptions()
	opts.Size = 24
	opts.Logger = voxmesh.NewLoggerTo("chunks", true, &out, &errOut)

	checker := field.Func(func(x, y, z int) bool { return (x+y+z)%2 == 0 })
	m := NewManager(checker, mesher.Blocky{Size: 24}, opts)
	m.Generate(0, 0, 0)
	_, err := m.Update(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[chunks] DEBUG: chunk (0,0,0) meshed: 165888 vertices")
	assert.Contains(t, errOut.String(), "[chunks] WARN: chunk (0,0,0) has 165888 vertices")
}
