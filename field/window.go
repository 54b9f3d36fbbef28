package field

// Window exposes a scaled, translated view of another field. Lattice point
// (x,y,z) of the window samples Source at (x*Scale+Origin[0], ...). A Scale of 0
// is treated as 1. Density and materials are forwarded when Source has them.
type Window struct {
	Source Field
	Origin [3]int
	Scale  int
}

func (w Window) at(x, y, z int) (int, int, int) {
	s := w.Scale
	if s == 0 {
		s = 1
	}
	return x*s + w.Origin[0], y*s + w.Origin[1], z*s + w.Origin[2]
}

func (w Window) Occupied(x, y, z int) bool {
	return w.Source.Occupied(w.at(x, y, z))
}

func (w Window) Density(x, y, z int) float32 {
	sx, sy, sz := w.at(x, y, z)
	return DensityOf(w.Source, sx, sy, sz)
}

func (w Window) Material(x, y, z int) uint8 {
	sx, sy, sz := w.at(x, y, z)
	return MaterialOf(w.Source, sx, sy, sz)
}
