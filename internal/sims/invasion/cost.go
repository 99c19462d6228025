package invasion

import "spreadsim/internal/core"

// newCostLedger fuses the four additive cost contributions into one chained
// pass over the cost grid. Every term is an annualized rate scaled by the
// calendar timestep, and nothing ever subtracts: the ledger is monotonically
// non-decreasing per cell.
func newCostLedger(p Params) core.Rule {
	trapOperating := core.NewCellRule("cost-trap-operating",
		[]string{GridTraps},
		[]string{GridCost},
		func(t *core.Tick, in, out []float64) {
			if in[0] > 0 {
				out[0] += in[0] * p.TrapCost * t.Dt
			}
		})

	eradication := core.NewCellRule("cost-eradication",
		[]string{GridDetected},
		[]string{GridCost},
		func(t *core.Tick, in, out []float64) {
			if in[0] > 0 {
				out[0] += p.CellArea * p.EradicationCost * p.EradicationEffect * t.Dt
			}
		})

	quarantine := core.NewCellRule("cost-local-quarantine",
		[]string{GridDetected},
		[]string{GridCost},
		func(t *core.Tick, in, out []float64) {
			if in[0] > 0 {
				out[0] += p.LocalCropValue * p.LocalEffect * t.Dt
			}
		})

	cropLoss := core.NewCellRule("cost-crop-loss",
		[]string{GridPopulation},
		[]string{GridCost},
		func(t *core.Tick, in, out []float64) {
			if in[0] > 0 && in[0] >= p.DamageThreshold {
				out[0] += p.CropValue * p.CroplossFraction * t.Dt
			}
		})

	return core.NewChain("cost-ledger", trapOperating, eradication, quarantine, cropLoss)
}
