package core

import (
	"fmt"
	"math"
	"sort"
)

// GridSet is a named collection of equal-shaped, co-registered grids plus a
// shared validity mask. It is the unit of state the engine reads and writes.
type GridSet struct {
	w, h  int
	names []string
	grids map[string]*Grid
	mask  *BoolGrid
}

// NewGridSet validates that every grid and the mask share one shape and
// returns the assembled set. Grid names iterate in sorted order so runs are
// reproducible.
func NewGridSet(grids map[string]*Grid, mask *BoolGrid) (*GridSet, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: grid set needs at least one grid", ErrConfiguration)
	}
	if mask == nil {
		return nil, fmt.Errorf("%w: grid set needs a mask", ErrConfiguration)
	}
	s := &GridSet{
		w:     mask.W,
		h:     mask.H,
		grids: make(map[string]*Grid, len(grids)),
		mask:  mask,
	}
	for name, g := range grids {
		if name == "" {
			return nil, fmt.Errorf("%w: empty grid name", ErrConfiguration)
		}
		if g == nil {
			return nil, fmt.Errorf("%w: grid %q is nil", ErrConfiguration, name)
		}
		if g.W != s.w || g.H != s.h {
			return nil, fmt.Errorf("%w: grid %q is %dx%d, mask is %dx%d",
				ErrConfiguration, name, g.W, g.H, s.w, s.h)
		}
		s.grids[name] = g
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// W reports the shared width.
func (s *GridSet) W() int { return s.w }

// H reports the shared height.
func (s *GridSet) H() int { return s.h }

// Names lists the grid names in sorted order.
func (s *GridSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Has reports whether a grid with the given name exists.
func (s *GridSet) Has(name string) bool {
	_, ok := s.grids[name]
	return ok
}

// Grid returns the named grid, or nil if absent.
func (s *GridSet) Grid(name string) *Grid { return s.grids[name] }

// Mask returns the shared validity mask.
func (s *GridSet) Mask() *BoolGrid { return s.mask }

// Clone deep-copies every grid. The mask is shared: it is never written during
// a run.
func (s *GridSet) Clone() *GridSet {
	c := &GridSet{
		w:     s.w,
		h:     s.h,
		names: append([]string(nil), s.names...),
		grids: make(map[string]*Grid, len(s.grids)),
		mask:  s.mask,
	}
	for name, g := range s.grids {
		c.grids[name] = g.Clone()
	}
	return c
}

// CheckDomain scans every grid for NaN, infinite, or negative cell values and
// reports the first offender. All engine grids hold non-negative quantities;
// a loader must replace any missing-value sentinel before handoff.
func (s *GridSet) CheckDomain(step int) error {
	for _, name := range s.names {
		g := s.grids[name]
		for i, v := range g.data {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return &DomainError{Grid: name, X: i % s.w, Y: i / s.w, Step: step, Value: v}
			}
		}
	}
	return nil
}

// Snapshot deep-copies the current grid values into an emitted record.
func (s *GridSet) Snapshot(step int, time float64) Snapshot {
	grids := make(map[string][]float64, len(s.grids))
	for name, g := range s.grids {
		grids[name] = append([]float64(nil), g.data...)
	}
	return Snapshot{Step: step, Time: time, W: s.w, H: s.h, Grids: grids}
}
