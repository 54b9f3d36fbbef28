package chunk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/gekko3d/voxmesh"
	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
	"github.com/gekko3d/voxmesh/mesher"
	"github.com/gekko3d/voxmesh/volume"
)

var ErrNoMesher = errors.New("chunk: no mesher set")

// sampleMargin is how many lattice steps any mesher reads outside its cube
// [0,Size). Smoothed marching cubes reads from -3 up to Size+3 inclusive, so the
// upper reach is one step further than the margin past the last cell.
const sampleMargin = 3

// Options configures a Manager. Zero fields take the defaults.
type Options struct {
	// Size is the chunk edge in lattice steps. Zero takes the mesher's cube edge;
	// a mesher of another edge leaves gaps or overlaps and is logged as a warning.
	Size int
	// Resolution is the number of world voxels per lattice step.
	Resolution int
	// VoxelSize is the world-space edge of one world voxel.
	VoxelSize float32
	// Workers bounds how many chunks Update meshes at once.
	Workers int
	Logger  voxmesh.Logger
}

func DefaultOptions() Options {
	return Options{
		Size:       64,
		Resolution: 1,
		VoxelSize:  0.5,
		Workers:    runtime.GOMAXPROCS(0),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.Resolution <= 0 {
		o.Resolution = d.Resolution
	}
	if o.VoxelSize <= 0 {
		o.VoxelSize = d.VoxelSize
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	o.Logger = voxmesh.LoggerOrNop(o.Logger)
	return o
}

// Manager owns a set of chunks over one world field. All methods are safe for
// concurrent use; Update calls are serialized.
type Manager struct {
	opts  Options
	world field.Field

	update sync.Mutex

	mu     sync.Mutex
	mesher mesher.Mesher
	chunks map[Coord]*state
}

func NewManager(world field.Field, m mesher.Mesher, opts Options) *Manager {
	if sized, ok := m.(mesher.Sized); ok && opts.Size <= 0 {
		opts.Size = sized.CubeSize()
	}
	mgr := &Manager{
		opts:   opts.withDefaults(),
		world:  world,
		mesher: m,
		chunks: make(map[Coord]*state),
	}
	mgr.checkSize(m)
	return mgr
}

// checkSize warns when ms meshes a cube of a different edge than the chunks.
func (m *Manager) checkSize(ms mesher.Mesher) {
	sized, ok := ms.(mesher.Sized)
	if !ok || sized.CubeSize() == m.opts.Size {
		return
	}
	m.opts.Logger.Warnf("mesher %v covers a cube edge of %d but chunks are %d wide",
		ms, sized.CubeSize(), m.opts.Size)
}

func (m *Manager) Options() Options {
	return m.opts
}

// span is the chunk edge in world voxels.
func (m *Manager) span() int {
	return m.opts.Size * m.opts.Resolution
}

// Origin returns the world-space position of chunk c's first lattice point.
func (m *Manager) Origin(c Coord) mgl32.Vec3 {
	s := float32(m.span()) * m.opts.VoxelSize
	return mgl32.Vec3{float32(c[0]) * s, float32(c[1]) * s, float32(c[2]) * s}
}

// Generate registers the chunk at c and marks it dirty. It returns false when
// the chunk already exists.
func (m *Manager) Generate(x, y, z int) bool {
	c := Coord{x, y, z}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[c]; ok {
		return false
	}
	s := &state{}
	s.markDirty()
	m.chunks[c] = s
	return true
}

// SetMesher switches the algorithm and marks every chunk dirty.
func (m *Manager) SetMesher(ms mesher.Mesher) {
	m.checkSize(ms)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mesher = ms
	for _, s := range m.chunks {
		s.markDirty()
	}
}

// Invalidate marks every existing chunk whose sampled region overlaps the world
// voxel box [minB, maxB) dirty and returns how many it marked. The region
// includes the margin meshers read past the chunk.
func (m *Manager) Invalidate(minB, maxB [3]int) int {
	span := m.span()
	pad := sampleMargin * m.opts.Resolution

	var lo, hi Coord
	for a := 0; a < 3; a++ {
		if maxB[a] <= minB[a] {
			return 0
		}
		lo[a] = floorDiv(minB[a]-pad-1, span)
		hi[a] = floorDiv(maxB[a]-1+pad, span)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for c, s := range m.chunks {
		if c[0] < lo[0] || c[0] > hi[0] || c[1] < lo[1] || c[1] > hi[1] || c[2] < lo[2] || c[2] > hi[2] {
			continue
		}
		s.markDirty()
		n++
	}
	return n
}

// InvalidateBoxes marks the chunks touched by a batch of edited regions, as
// returned by volume.BrickMap.TakeDirty.
func (m *Manager) InvalidateBoxes(boxes []volume.Box) int {
	n := 0
	for _, b := range boxes {
		n += m.Invalidate(b.Min, b.Max)
	}
	return n
}

func (m *Manager) window(c Coord) field.Window {
	span := m.span()
	return field.Window{
		Source: m.world,
		Origin: [3]int{c[0] * span, c[1] * span, c[2] * span},
		Scale:  m.opts.Resolution,
	}
}

type job struct {
	coord   Coord
	version uint64
}

// Update remeshes every dirty chunk with at most Options.Workers goroutines.
// Cancellation is checked before each chunk starts; chunks already being meshed
// finish and are published. It returns the number of chunks rebuilt.
func (m *Manager) Update(ctx context.Context) (int, error) {
	m.update.Lock()
	defer m.update.Unlock()

	m.mu.Lock()
	ms := m.mesher
	var jobs []job
	for c, s := range m.chunks {
		if s.dirty {
			jobs = append(jobs, job{coord: c, version: s.version})
		}
	}
	m.mu.Unlock()

	if len(jobs) == 0 {
		return 0, nil
	}
	if ms == nil {
		return 0, ErrNoMesher
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].coord.less(jobs[j].coord) })

	log := m.opts.Logger
	var (
		built   int
		builtMu sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m.build(ms, j)
			builtMu.Lock()
			built++
			builtMu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Debugf("chunk update stopped after %d of %d chunks: %v", built, len(jobs), err)
		return built, fmt.Errorf("chunk update: %w", err)
	}
	return built, nil
}

func (m *Manager) build(ms mesher.Mesher, j job) {
	log := m.opts.Logger
	start := time.Now()

	out := ms.Mesh(m.window(j.coord))
	out.Scale(float32(m.opts.Resolution) * m.opts.VoxelSize)
	out.Translate(m.Origin(j.coord))

	c := j.coord
	log.Debugf("chunk (%d,%d,%d) meshed: %d vertices, %d triangles in %s",
		c[0], c[1], c[2], out.VertexCount(), out.TriangleCount(), time.Since(start))
	if out.VertexCount() > mesh.MaxVertices16 {
		log.Warnf("chunk (%d,%d,%d) has %d vertices and needs 32-bit indices",
			c[0], c[1], c[2], out.VertexCount())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.chunks[c]
	if !ok {
		return
	}
	s.mesh = out
	s.id = makeMeshID()
	if s.version == j.version {
		s.dirty = false
	}
}

// Chunk returns a snapshot of the chunk at c.
func (m *Manager) Chunk(c Coord) (Chunk, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.chunks[c]
	if !ok {
		return Chunk{}, false
	}
	return m.snapshot(c, s), true
}

// Chunks returns snapshots of all chunks ordered by coordinate.
func (m *Manager) Chunks() []Chunk {
	m.mu.Lock()
	out := make([]Chunk, 0, len(m.chunks))
	for c, s := range m.chunks {
		out = append(out, m.snapshot(c, s))
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Coord.less(out[j].Coord) })
	return out
}

func (m *Manager) snapshot(c Coord, s *state) Chunk {
	return Chunk{Coord: c, MeshID: s.id, Mesh: s.mesh, Dirty: s.dirty, Origin: m.Origin(c)}
}

// Remove drops the chunk at c.
func (m *Manager) Remove(c Coord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[c]; !ok {
		return false
	}
	delete(m.chunks, c)
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}
