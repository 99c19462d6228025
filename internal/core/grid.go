package core

import "fmt"

// Grid stores a 2D field of float64 cell values in row-major order.
type Grid struct {
	W, H int
	data []float64
}

// NewGrid allocates a zeroed grid with the given dimensions.
func NewGrid(w, h int) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Grid{W: w, H: h, data: make([]float64, w*h)}
}

// NewGridFrom copies the provided values into a fresh grid. The slice length
// must equal w*h.
func NewGridFrom(w, h int, values []float64) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrConfiguration, w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("%w: %d values for a %dx%d grid", ErrConfiguration, len(values), w, h)
	}
	g := &Grid{W: w, H: h, data: make([]float64, w*h)}
	copy(g.data, values)
	return g, nil
}

// Values exposes the backing slice so rules can read/write cells directly.
func (g *Grid) Values() []float64 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Contains reports whether (x, y) addresses a cell inside the grid.
func (g *Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// At reads the value at (x, y).
func (g *Grid) At(x, y int) float64 { return g.data[y*g.W+x] }

// Set writes the value at (x, y).
func (g *Grid) Set(x, y int, v float64) { g.data[y*g.W+x] = v }

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns an independent deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{W: g.W, H: g.H, data: make([]float64, len(g.data))}
	copy(c.data, g.data)
	return c
}

// BoolGrid stores a 2D grid of flags, used for the validity mask.
type BoolGrid struct {
	W, H int
	data []bool
}

// NewBoolGrid allocates a grid of false flags with the given dimensions.
func NewBoolGrid(w, h int) *BoolGrid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &BoolGrid{W: w, H: h, data: make([]bool, w*h)}
}

// NewBoolGridFrom copies the provided flags into a fresh grid.
func NewBoolGridFrom(w, h int, values []bool) (*BoolGrid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: mask dimensions %dx%d", ErrConfiguration, w, h)
	}
	if len(values) != w*h {
		return nil, fmt.Errorf("%w: %d flags for a %dx%d mask", ErrConfiguration, len(values), w, h)
	}
	g := &BoolGrid{W: w, H: h, data: make([]bool, w*h)}
	copy(g.data, values)
	return g, nil
}

// Values exposes the backing slice.
func (g *BoolGrid) Values() []bool { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *BoolGrid) Index(x, y int) int { return y*g.W + x }

// At reads the flag at (x, y).
func (g *BoolGrid) At(x, y int) bool { return g.data[y*g.W+x] }

// Fill sets every flag to v.
func (g *BoolGrid) Fill(v bool) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns an independent deep copy.
func (g *BoolGrid) Clone() *BoolGrid {
	c := &BoolGrid{W: g.W, H: g.H, data: make([]bool, len(g.data))}
	copy(c.data, g.data)
	return c
}
