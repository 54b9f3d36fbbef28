package mesher

import "fmt"

// grid is a flattened cube of n³ cells indexed x + y*n + z*n².
type grid[T any] struct {
	n     int
	cells []T
}

func newGrid[T any](n int) *grid[T] {
	return &grid[T]{n: n, cells: make([]T, n*n*n)}
}

// index panics on coordinates outside the cube. Reading outside the padded
// extent means the margin is too small, which is a bug.
func (g *grid[T]) index(x, y, z int) int {
	if x < 0 || y < 0 || z < 0 || x >= g.n || y >= g.n || z >= g.n {
		panic(fmt.Sprintf("mesher: grid read (%d,%d,%d) outside extent %d", x, y, z, g.n))
	}
	return x + y*g.n + z*g.n*g.n
}

func (g *grid[T]) at(x, y, z int) T {
	return g.cells[g.index(x, y, z)]
}

func (g *grid[T]) set(x, y, z int, v T) {
	g.cells[g.index(x, y, z)] = v
}
