package mesher

// vertexCache maps the edges touched by the current sweep layer to vertex
// indices, keyed by the edge's lower endpoint projected onto the layer
// (x + z*stride). Entries hold index+1 so that zero means "no vertex yet".
//
// Horizontal edges on the layer's bottom plane live in x/z, those on its top
// plane in nextX/nextZ. Vertical edges are only shared within a layer and live
// in y. When the sweep moves up, the top plane becomes the new bottom plane by
// swapping slices; nothing is copied.
type vertexCache struct {
	stride       int
	x, z         []uint32
	nextX, nextZ []uint32
	y            []uint32
}

func newVertexCache(stride int) *vertexCache {
	n := stride * stride
	return &vertexCache{
		stride: stride,
		x:      make([]uint32, n),
		z:      make([]uint32, n),
		nextX:  make([]uint32, n),
		nextZ:  make([]uint32, n),
		y:      make([]uint32, n),
	}
}

func (c *vertexCache) advance() {
	c.x, c.nextX = c.nextX, c.x
	c.z, c.nextZ = c.nextZ, c.z
	clear(c.nextX)
	clear(c.nextZ)
	clear(c.y)
}

// slot returns the cache entry for edge e of the cell at (x, z) in the current layer.
func (c *vertexCache) slot(x, z, e int) *uint32 {
	lo := edgeLow[e]
	key := x + lo[0] + (z+lo[2])*c.stride

	switch {
	case edgeAxis[e] == 1:
		return &c.y[key]
	case lo[1] == 0 && edgeAxis[e] == 0:
		return &c.x[key]
	case lo[1] == 0:
		return &c.z[key]
	case edgeAxis[e] == 0:
		return &c.nextX[key]
	default:
		return &c.nextZ[key]
	}
}
