package invasion

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"spreadsim/internal/core"
)

// runPipeline drives the given rules over hand-built grids for a number of
// ticks and returns the final state.
func runPipeline(t *testing.T, w, h int, dt float64, seed int64, grids map[string][]float64, ticks int, rules ...core.Rule) *core.GridSet {
	t.Helper()
	gm := make(map[string]*core.Grid, len(grids))
	for name, values := range grids {
		g, err := core.NewGridFrom(w, h, values)
		require.NoError(t, err)
		gm[name] = g
	}
	mask := core.NewBoolGrid(w, h)
	mask.Fill(true)
	gs, err := core.NewGridSet(gm, mask)
	require.NoError(t, err)
	rs, err := core.NewRuleset(gs, dt, rules)
	require.NoError(t, err)
	sched, err := core.NewScheduler(rs, seed, nil)
	require.NoError(t, err)
	for i := 0; i < ticks; i++ {
		require.NoError(t, sched.Tick())
	}
	return sched.Current()
}

func uniform(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestGrowthFixedPointAtCapacity(t *testing.T) {
	grids := map[string][]float64{
		GridPopulation: uniform(9, 100),
		GridRate:       uniform(9, 1.5),
		GridCapacity:   uniform(9, 100),
	}
	gs := runPipeline(t, 3, 3, 1.0/12, 1, grids, 10, newGrowthRule())
	for _, v := range gs.Grid(GridPopulation).Values() {
		require.Equal(t, 100.0, v)
	}
}

func TestGrowthMatchesLogisticSolution(t *testing.T) {
	dt := 1.0 / 12
	grids := map[string][]float64{
		GridPopulation: {10},
		GridRate:       {1.0},
		GridCapacity:   {100},
	}
	gs := runPipeline(t, 1, 1, dt, 1, grids, 1, newGrowthRule())

	g := math.Exp(1.0 * dt)
	want := 100 * 10 * g / (100 + 10*(g-1))
	require.InDelta(t, want, gs.Grid(GridPopulation).Values()[0], 1e-12)
	require.Greater(t, gs.Grid(GridPopulation).Values()[0], 10.0)
	require.Less(t, gs.Grid(GridPopulation).Values()[0], 100.0)
}

func TestAlleeClampsBelowThreshold(t *testing.T) {
	grids := map[string][]float64{
		GridPopulation: {4.9, 5.0, 0, 80},
	}
	gs := runPipeline(t, 4, 1, 1.0/12, 1, grids, 1, newAlleeRule(5))
	require.Equal(t, []float64{0, 5, 0, 80}, gs.Grid(GridPopulation).Values())
}

func TestEradicationCapNeverIncreases(t *testing.T) {
	grids := map[string][]float64{
		GridPopulation: {100, 100, 5},
		GridDetected:   {1, 0, 1},
		GridTraps:      {2, 2, 2},
		GridCapacity:   {100, 100, 100},
	}
	gs := runPipeline(t, 3, 1, 1.0/12, 1, grids, 1, newEradicationCap(0.9))
	pop := gs.Grid(GridPopulation).Values()
	require.InDelta(t, 10.0, pop[0], 1e-12) // capped at (1-effect)*K
	require.Equal(t, 100.0, pop[1])         // undetected, untouched
	require.Equal(t, 5.0, pop[2])           // already below the cap
}

func TestTrapDetectionCertainAndImpossible(t *testing.T) {
	grids := map[string][]float64{
		GridPopulation: {10, 10, 0},
		GridTraps:      {3, 0, 3},
		GridDetected:   {0, 0, 0},
	}
	gs := runPipeline(t, 3, 1, 1.0/12, 1, grids, 1, newTrapDetection(1, 1))
	det := gs.Grid(GridDetected).Values()
	require.Equal(t, 1.0, det[0]) // traps present, p = 1
	require.Zero(t, det[1])       // no traps
	require.Zero(t, det[2])       // no population

	grids[GridDetected] = []float64{0, 0, 0}
	gs = runPipeline(t, 3, 1, 1.0/12, 1, grids, 5, newTrapDetection(0, 1))
	for _, v := range gs.Grid(GridDetected).Values() {
		require.Zero(t, v)
	}
}

func TestTrapPlacementFiresOncePerDetection(t *testing.T) {
	p := DefaultConfig().Params
	p.TrapRadius = 1
	p.TrapDensity = 4
	p.CellArea = 1
	placement, err := newTrapPlacement(p)
	require.NoError(t, err)

	n := 7 * 7
	det := make([]float64, n)
	det[3*7+3] = 1
	grids := map[string][]float64{
		GridDetected: det,
		GridSurveyed: make([]float64, n),
		GridTraps:    make([]float64, n),
	}
	gs := runPipeline(t, 7, 7, 1.0/12, 42, grids, 1, placement)

	require.Equal(t, 1.0, gs.Grid(GridSurveyed).Values()[3*7+3])
	first := floats.Sum(gs.Grid(GridTraps).Values())
	// The kernel is normalized and fully interior, so the total is the
	// whole Poisson draw.
	require.InDelta(t, math.Round(first), first, 1e-9)

	// Identical seeds give identical placement.
	placement2, err := newTrapPlacement(p)
	require.NoError(t, err)
	gs2 := runPipeline(t, 7, 7, 1.0/12, 42, grids, 1, placement2)
	require.Equal(t, gs.Grid(GridTraps).Values(), gs2.Grid(GridTraps).Values())

	// The surveyed latch blocks re-placement on later ticks.
	placement3, err := newTrapPlacement(p)
	require.NoError(t, err)
	gs3 := runPipeline(t, 7, 7, 1.0/12, 42, grids, 3, placement3)
	require.Equal(t, first, floats.Sum(gs3.Grid(GridTraps).Values()))
}

func TestJumpDispersalConservesMass(t *testing.T) {
	w, h := 10, 10
	n := w * h
	humans := make([]float64, n)
	humans[1*w+1] = 500
	humans[8*w+8] = 800

	p := DefaultConfig().Params
	p.JumpPerCapita = 0.5
	p.JumpMax = 10
	p.JumpShortlist = 3
	p.JumpMeanDist = 20

	humansGrid, err := core.NewGridFrom(w, h, humans)
	require.NoError(t, err)
	mask := core.NewBoolGrid(w, h)
	mask.Fill(true)
	jump := newJumpDispersal(p, humansGrid, mask)
	require.NotNil(t, jump)

	pop := make([]float64, n)
	pop[5*w+5] = 40
	grids := map[string][]float64{
		GridPopulation: pop,
		GridDetected:   make([]float64, n),
	}
	gs := runPipeline(t, w, h, 1.0/12, 7, grids, 4, jump)

	final := gs.Grid(GridPopulation).Values()
	require.InDelta(t, 40.0, floats.Sum(final), 1e-9)
	require.Less(t, final[5*w+5], 40.0) // dispersers actually left
	for _, v := range final {
		require.GreaterOrEqual(t, v, 0.0)
	}
}

func TestJumpDispersalQuarantine(t *testing.T) {
	w, h := 10, 10
	n := w * h
	humans := make([]float64, n)
	town := 1*w + 1
	humans[town] = 600

	base := DefaultConfig().Params
	base.JumpPerCapita = 0.5
	base.JumpMax = 100
	base.JumpShortlist = 3
	base.JumpMeanDist = 20
	base.QuarantineLocal = 0
	base.QuarantineRegional = 0

	humansGrid, err := core.NewGridFrom(w, h, humans)
	require.NoError(t, err)
	mask := core.NewBoolGrid(w, h)
	mask.Fill(true)

	src := 8*w + 8
	pop := make([]float64, n)
	pop[src] = 40

	run := func(p Params, detected []float64) []float64 {
		jump := newJumpDispersal(p, humansGrid, mask)
		require.NotNil(t, jump)
		grids := map[string][]float64{
			GridPopulation: pop,
			GridDetected:   detected,
		}
		gs := runPipeline(t, w, h, 1.0/12, 7, grids, 1, jump)
		return gs.Grid(GridPopulation).Values()
	}

	// Unquarantined, the full per-capita outflow reaches the only town.
	open := run(base, make([]float64, n))
	require.Equal(t, 20.0, open[src])
	require.Equal(t, 20.0, open[town])
	require.InDelta(t, 40.0, floats.Sum(open), 1e-9)

	// Local quarantine halves the outflow from a detected source.
	local := base
	local.QuarantineLocal = 0.5
	det := make([]float64, n)
	det[src] = 1
	half := run(local, det)
	require.Equal(t, 30.0, half[src])
	require.Equal(t, 10.0, half[town])
	require.InDelta(t, 40.0, floats.Sum(half), 1e-9)

	// Regional quarantine turns every unit back at a detected destination;
	// turned-back units stay at the source.
	regional := base
	regional.QuarantineRegional = 1
	det = make([]float64, n)
	det[town] = 1
	back := run(regional, det)
	require.Equal(t, 40.0, back[src])
	require.Zero(t, back[town])
}

func TestJumpDispersalNeedsTowns(t *testing.T) {
	humans := core.NewGrid(6, 6)
	mask := core.NewBoolGrid(6, 6)
	mask.Fill(true)
	require.Nil(t, newJumpDispersal(DefaultConfig().Params, humans, mask))
}

func TestCostLedgerAccumulates(t *testing.T) {
	p := DefaultConfig().Params
	dt := 0.5
	grids := map[string][]float64{
		GridPopulation: {20, 5},
		GridDetected:   {1, 0},
		GridTraps:      {2, 0},
		GridCost:       {0, 0},
	}
	gs := runPipeline(t, 2, 1, dt, 1, grids, 1, newCostLedger(p))

	perTick := 2*p.TrapCost*dt +
		p.CellArea*p.EradicationCost*p.EradicationEffect*dt +
		p.LocalCropValue*p.LocalEffect*dt +
		p.CropValue*p.CroplossFraction*dt
	cost := gs.Grid(GridCost).Values()
	require.InDelta(t, perTick, cost[0], 1e-9)
	// Population 5 is below the damage threshold and carries no management.
	require.Zero(t, cost[1])

	gs = runPipeline(t, 2, 1, dt, 1, grids, 3, newCostLedger(p))
	require.InDelta(t, 3*perTick, gs.Grid(GridCost).Values()[0], 1e-9)
}

func TestCostLedgerMonotonicOverFullRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 32
	cfg.Height = 32
	cfg.Seed = 11

	sink := core.NewMemorySink()
	err := RunReplicate(context.Background(), cfg, Layers{}, 11, 24, sink)
	require.NoError(t, err)

	snaps := sink.Snapshots()
	require.Len(t, snaps, 25)
	for i := 1; i < len(snaps); i++ {
		prevCost := snaps[i-1].Grids[GridCost]
		cost := snaps[i].Grids[GridCost]
		prevDet := snaps[i-1].Grids[GridDetected]
		det := snaps[i].Grids[GridDetected]
		prevTraps := snaps[i-1].Grids[GridTraps]
		traps := snaps[i].Grids[GridTraps]
		for c := range cost {
			require.GreaterOrEqual(t, cost[c], prevCost[c], "step %d cell %d", i, c)
			require.GreaterOrEqual(t, det[c], prevDet[c], "step %d cell %d", i, c)
			require.GreaterOrEqual(t, traps[c], prevTraps[c], "step %d cell %d", i, c)
		}
	}
}
