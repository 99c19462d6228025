package core

import (
	"fmt"
	"math"
)

// KernelCell is one weighted offset inside a kernel window.
type KernelCell struct {
	DX, DY int
	Weight float64
}

// Kernel is an immutable radial weight table computed once at ruleset build
// time and reused unchanged across every timestep of a run. Offsets lie
// within Euclidean distance Radius of the center. At grid or mask boundaries
// the window truncates; mass aimed at frozen or off-grid cells is lost.
type Kernel struct {
	Radius int
	Cells  []KernelCell
}

// NewDispersalKernel builds a distance-decay dispersal kernel. The center
// cell keeps the retained fraction of the source mass and the off-center
// weights, exp(-d/meanDist), are normalized so they sum to 1-retain. The
// whole table therefore sums to the source mass for interior cells.
func NewDispersalKernel(radius int, retain, meanDist float64) (*Kernel, error) {
	if radius < 1 {
		return nil, fmt.Errorf("%w: dispersal kernel radius %d", ErrConfiguration, radius)
	}
	if retain < 0 || retain > 1 {
		return nil, fmt.Errorf("%w: retained fraction %g outside [0,1]", ErrConfiguration, retain)
	}
	if meanDist <= 0 {
		return nil, fmt.Errorf("%w: kernel mean distance %g", ErrConfiguration, meanDist)
	}
	k := &Kernel{Radius: radius}
	var sum float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d > float64(radius) {
				continue
			}
			w := math.Exp(-d / meanDist)
			k.Cells = append(k.Cells, KernelCell{DX: dx, DY: dy, Weight: w})
			sum += w
		}
	}
	if sum > 0 {
		scale := (1 - retain) / sum
		for i := range k.Cells {
			k.Cells[i].Weight *= scale
		}
	}
	k.Cells = append(k.Cells, KernelCell{Weight: retain})
	return k, nil
}

// NewPlacementKernel builds a distance-decay table, center included,
// normalized to sum to one. It spreads a radial deposit such as a batch of
// traps around a focal cell.
func NewPlacementKernel(radius int, meanDist float64) (*Kernel, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: placement kernel radius %d", ErrConfiguration, radius)
	}
	if meanDist <= 0 {
		return nil, fmt.Errorf("%w: kernel mean distance %g", ErrConfiguration, meanDist)
	}
	k := &Kernel{Radius: radius}
	var sum float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d > float64(radius) {
				continue
			}
			w := math.Exp(-d / meanDist)
			k.Cells = append(k.Cells, KernelCell{DX: dx, DY: dy, Weight: w})
			sum += w
		}
	}
	for i := range k.Cells {
		k.Cells[i].Weight /= sum
	}
	return k, nil
}

// Sum reports the total kernel weight.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, c := range k.Cells {
		s += c.Weight
	}
	return s
}
