package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxVertices16 is the largest vertex count addressable by a 16-bit index buffer.
const MaxVertices16 = math.MaxUint16 + 1

var (
	ErrIndexOverflow = errors.New("mesh: vertex count exceeds 16-bit index range")
	ErrInvalidIndex  = errors.New("mesh: invalid index buffer")
)

// Vertex is a single mesh vertex. Material is a palette index, 0 means untagged.
type Vertex struct {
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
	Material uint8
}

// Mesh is an indexed triangle list. Vertex order is stable: a vertex's index is its
// insertion position. Indices come in triples.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func New() *Mesh {
	return &Mesh{}
}

// AddVertex appends v and returns its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	return uint32(len(m.Vertices) - 1)
}

func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Triangle returns the three vertex positions of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	t := i * 3
	return m.Vertices[m.Indices[t]].Pos, m.Vertices[m.Indices[t+1]].Pos, m.Vertices[m.Indices[t+2]].Pos
}

// Validate checks that the index buffer is a whole number of triangles and that
// every index addresses an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidIndex, len(m.Indices))
	}
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at position %d out of range (%d vertices)", ErrInvalidIndex, idx, i, n)
		}
	}
	return nil
}

// Indices16 converts the index buffer for renderers that upload 16-bit indices.
func (m *Mesh) Indices16() ([]uint16, error) {
	if len(m.Vertices) > MaxVertices16 {
		return nil, fmt.Errorf("%w: %d vertices", ErrIndexOverflow, len(m.Vertices))
	}
	out := make([]uint16, len(m.Indices))
	for i, idx := range m.Indices {
		out[i] = uint16(idx)
	}
	return out, nil
}

func (m *Mesh) Translate(offset mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Pos = m.Vertices[i].Pos.Add(offset)
	}
}

// Scale multiplies every position by s. Normals are direction-only and are left as is
// for positive s; a negative s also flips them and the triangle winding.
func (m *Mesh) Scale(s float32) {
	for i := range m.Vertices {
		m.Vertices[i].Pos = m.Vertices[i].Pos.Mul(s)
	}
	if s < 0 {
		for i := range m.Vertices {
			m.Vertices[i].Normal = m.Vertices[i].Normal.Mul(-1)
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			m.Indices[t+1], m.Indices[t+2] = m.Indices[t+2], m.Indices[t+1]
		}
	}
}

// Bounds returns the axis-aligned bounding box of all vertex positions.
// An empty mesh yields two zero vectors.
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	minB := m.Vertices[0].Pos
	maxB := m.Vertices[0].Pos
	for _, v := range m.Vertices[1:] {
		for a := 0; a < 3; a++ {
			if v.Pos[a] < minB[a] {
				minB[a] = v.Pos[a]
			}
			if v.Pos[a] > maxB[a] {
				maxB[a] = v.Pos[a]
			}
		}
	}
	return minB, maxB
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Indices, m.Indices)
	return out
}

// Append adds o's vertices and triangles to m, rebasing o's indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, i+base)
	}
}
