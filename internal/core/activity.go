package core

// ActiveSet is a bitmap approximating the cells a tick can change: every
// cell where some written grid is non-zero, dilated by the pipeline's
// largest kernel radius so newly reachable neighbors are scanned too. It is
// a performance optimization only; the full-scan strategy is the default.
type ActiveSet struct {
	w, h int
	bits []bool
	occ  []bool
}

func newActiveSet(w, h int) *ActiveSet {
	return &ActiveSet{w: w, h: h, bits: make([]bool, w*h), occ: make([]bool, w*h)}
}

// Has reports whether the cell at the linear index may change this tick.
func (a *ActiveSet) Has(idx int) bool { return a.bits[idx] }

// Count reports the number of active cells.
func (a *ActiveSet) Count() int {
	n := 0
	for _, b := range a.bits {
		if b {
			n++
		}
	}
	return n
}

// activate marks one cell and its dilated neighborhood active for the
// remainder of the current tick. Rules that move mass beyond their scanned
// neighborhood use it so later rules in the same tick visit the arrivals.
func (a *ActiveSet) activate(idx, radius int) {
	x, y := idx%a.w, idx/a.w
	y0, y1 := y-radius, y+radius
	if y0 < 0 {
		y0 = 0
	}
	if y1 >= a.h {
		y1 = a.h - 1
	}
	x0, x1 := x-radius, x+radius
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= a.w {
		x1 = a.w - 1
	}
	for ny := y0; ny <= y1; ny++ {
		nRow := ny * a.w
		for nx := x0; nx <= x1; nx++ {
			a.bits[nRow+nx] = true
		}
	}
}

// rebuild recomputes the bitmap from the committed state: occupancy of the
// written grids dilated by radius (Chebyshev dilation covers the Euclidean
// kernel reach).
func (a *ActiveSet) rebuild(s *GridSet, written []string, radius int) {
	for i := range a.occ {
		a.occ[i] = false
		a.bits[i] = false
	}
	for _, name := range written {
		for i, v := range s.Grid(name).Values() {
			if v != 0 {
				a.occ[i] = true
			}
		}
	}
	for y := 0; y < a.h; y++ {
		row := y * a.w
		for x := 0; x < a.w; x++ {
			if !a.occ[row+x] {
				continue
			}
			y0, y1 := y-radius, y+radius
			if y0 < 0 {
				y0 = 0
			}
			if y1 >= a.h {
				y1 = a.h - 1
			}
			x0, x1 := x-radius, x+radius
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= a.w {
				x1 = a.w - 1
			}
			for ny := y0; ny <= y1; ny++ {
				nRow := ny * a.w
				for nx := x0; nx <= x1; nx++ {
					a.bits[nRow+nx] = true
				}
			}
		}
	}
}
