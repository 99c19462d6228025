package invasion

import (
	"math"

	"spreadsim/internal/core"
)

// newGrowthRule returns the exact logistic update
// N' = K*N*e^(r*dt) / (K + N*(e^(r*dt)-1)) with a per-cell intrinsic rate
// layer and per-cell carrying capacity. A cell sitting at capacity stays
// there exactly.
func newGrowthRule() core.Rule {
	return core.NewCellRule("growth",
		[]string{GridPopulation, GridRate, GridCapacity},
		[]string{GridPopulation},
		func(t *core.Tick, in, out []float64) {
			n, r, k := in[0], in[1], in[2]
			if n <= 0 || k <= 0 || n == k {
				out[0] = n
				return
			}
			g := math.Exp(r * t.Dt)
			out[0] = k * n * g / (k + n*(g-1))
		})
}

// newAlleeRule clamps populations below the founder threshold to exact zero.
// Cells at or above the threshold pass through unchanged.
func newAlleeRule(minFounders float64) core.Rule {
	return core.NewCellRule("allee",
		[]string{GridPopulation},
		[]string{GridPopulation},
		func(_ *core.Tick, in, out []float64) {
			if in[0] < minFounders {
				out[0] = 0
				return
			}
			out[0] = in[0]
		})
}

// newEradicationCap caps a detected and trapped cell at (1-effect)*K. It is
// a cap, not a multiplicative reduction, and never increases population.
func newEradicationCap(effect float64) core.Rule {
	return core.NewCellRule("eradication-cap",
		[]string{GridPopulation, GridDetected, GridTraps, GridCapacity},
		[]string{GridPopulation},
		func(_ *core.Tick, in, out []float64) {
			out[0] = in[0]
			if in[1] <= 0 || in[2] <= 0 {
				return
			}
			if limit := (1 - effect) * in[3]; out[0] > limit {
				out[0] = limit
			}
		})
}
