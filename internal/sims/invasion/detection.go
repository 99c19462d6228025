package invasion

import (
	"math"

	"spreadsim/internal/core"
)

// newThresholdDetection latches the detected flag once population reaches
// the reporting threshold. Detection never clears for the rest of the run.
func newThresholdDetection(threshold float64) core.Rule {
	return core.NewCellRule("threshold-detection",
		[]string{GridPopulation, GridDetected},
		[]string{GridDetected},
		func(_ *core.Tick, in, out []float64) {
			out[0] = in[1]
			if in[0] >= threshold {
				out[0] = 1
			}
		})
}

// newTrapDetection draws probabilistic trap captures. Where population and
// traps are both present, the per-cell detection probability is
// coverage * (1 - (1-rate)^traps); a Bernoulli draw from the run RNG latches
// the detected flag on success.
func newTrapDetection(rate, coverage float64) core.Rule {
	return core.NewCellRule("trap-detection",
		[]string{GridPopulation, GridTraps, GridDetected},
		[]string{GridDetected},
		func(t *core.Tick, in, out []float64) {
			out[0] = in[2]
			if in[2] > 0 || in[0] <= 0 || in[1] <= 0 {
				return
			}
			p := coverage * (1 - math.Pow(1-rate, in[1]))
			if t.RNG.Bernoulli(p) {
				out[0] = 1
			}
		})
}

// trapPlacement seeds traps around newly detected cells. The trap count per
// event is Poisson with mean density*area, spread over the placement kernel;
// counts are additive and traps are never removed. The surveyed layer
// latches so each detection triggers exactly one placement.
type trapPlacement struct {
	kernel *core.Kernel
	mean   float64
}

func newTrapPlacement(p Params) (*trapPlacement, error) {
	k, err := core.NewPlacementKernel(p.TrapRadius, p.DispersalMeanDist)
	if err != nil {
		return nil, err
	}
	return &trapPlacement{kernel: k, mean: p.TrapDensity * p.CellArea}, nil
}

func (r *trapPlacement) Name() string { return "trap-placement" }

func (r *trapPlacement) Reads() []string { return []string{GridDetected, GridSurveyed} }

func (r *trapPlacement) Writes() []string { return []string{GridTraps, GridSurveyed} }

// Radius reports the placement reach, used to size sparse-activity dilation.
func (r *trapPlacement) Radius() int { return r.kernel.Radius }

func (r *trapPlacement) Apply(t *core.Tick) error {
	det := t.In(GridDetected).Values()
	sur := t.In(GridSurveyed).Values()
	outTraps := t.Out(GridTraps)
	outSur := t.Out(GridSurveyed).Values()
	mask := t.Mask().Values()
	w, h := t.W(), t.H()
	traps := outTraps.Values()

	t.ForEach(func(x, y, idx int) {
		if det[idx] <= 0 || sur[idx] > 0 {
			return
		}
		outSur[idx] = 1
		count := t.RNG.Poisson(r.mean)
		if count == 0 {
			return
		}
		for _, kc := range r.kernel.Cells {
			nx, ny := x+kc.DX, y+kc.DY
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nIdx := ny*w + nx
			if !mask[nIdx] {
				continue
			}
			traps[nIdx] += kc.Weight * float64(count)
		}
	})
	return nil
}
