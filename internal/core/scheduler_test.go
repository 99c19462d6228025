package core

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func populationSet(t *testing.T, w, h int, seed func(g *Grid)) *GridSet {
	t.Helper()
	g := NewGrid(w, h)
	if seed != nil {
		seed(g)
	}
	mask := NewBoolGrid(w, h)
	mask.Fill(true)
	s, err := NewGridSet(map[string]*Grid{"population": g}, mask)
	require.NoError(t, err)
	return s
}

func TestConvolutionConservesInteriorMass(t *testing.T) {
	init := populationSet(t, 10, 10, func(g *Grid) { g.Set(5, 5, 100) })
	k, err := NewDispersalKernel(1, 0.8, 1.0)
	require.NoError(t, err)
	rs, err := NewRuleset(init, 1.0/12, []Rule{NewConvolution("dispersal", "population", "population", k)})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background(), 1))

	pop := sched.Current().Grid("population")
	require.InDelta(t, 80.0, pop.At(5, 5), 1e-9)
	require.InDelta(t, 5.0, pop.At(4, 5), 1e-9)
	require.InDelta(t, 5.0, pop.At(6, 5), 1e-9)
	require.InDelta(t, 5.0, pop.At(5, 4), 1e-9)
	require.InDelta(t, 5.0, pop.At(5, 6), 1e-9)
	require.InDelta(t, 100.0, floats.Sum(pop.Values()), 1e-9)
}

func TestConvolutionTruncatesAtBoundary(t *testing.T) {
	init := populationSet(t, 5, 5, func(g *Grid) { g.Set(0, 0, 100) })
	k, err := NewDispersalKernel(1, 0.8, 1.0)
	require.NoError(t, err)
	rs, err := NewRuleset(init, 1.0/12, []Rule{NewConvolution("dispersal", "population", "population", k)})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background(), 1))

	// Two of the four outgoing fractions aim off-grid and are lost.
	total := floats.Sum(sched.Current().Grid("population").Values())
	require.InDelta(t, 90.0, total, 1e-9)
}

func TestRulesComposeSequentially(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Fill(3) })
	double := NewCellRule("double", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] * 2 })
	addOne := NewCellRule("add-one", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] + 1 })
	rs, err := NewRuleset(init, 1.0/12, []Rule{double, addOne})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background(), 1))

	// The second rule must see the committed output of the first.
	require.Equal(t, 7.0, sched.Current().Grid("population").At(2, 2))
}

func TestMaskFreezesCells(t *testing.T) {
	g := NewGrid(4, 4)
	g.Fill(10)
	mask := NewBoolGrid(4, 4)
	mask.Fill(true)
	mask.Values()[mask.Index(1, 1)] = false
	init, err := NewGridSet(map[string]*Grid{"population": g}, mask)
	require.NoError(t, err)

	double := NewCellRule("double", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] * 2 })
	rs, err := NewRuleset(init, 1.0/12, []Rule{double})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background(), 1))

	pop := sched.Current().Grid("population")
	require.Equal(t, 10.0, pop.At(1, 1))
	require.Equal(t, 20.0, pop.At(2, 2))
}

func TestRulesetValidation(t *testing.T) {
	init := populationSet(t, 4, 4, nil)
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })

	_, err := NewRuleset(init, 0, []Rule{noop})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuleset(init, 1.0/12, nil)
	require.ErrorIs(t, err, ErrConfiguration)

	bad := NewCellRule("bad", []string{"traps"}, []string{"population"},
		func(_ *Tick, in, out []float64) {})
	_, err = NewRuleset(init, 1.0/12, []Rule{bad})
	require.ErrorIs(t, err, ErrConfiguration)

	k, err := NewDispersalKernel(3, 0.8, 1.0)
	require.NoError(t, err)
	conv := NewConvolution("dispersal", "population", "population", k)
	_, err = NewRuleset(init, 1.0/12, []Rule{conv}, WithSparseActivity(2))
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuleset(init, 1.0/12, []Rule{conv}, WithSparseActivity(3))
	require.NoError(t, err)
}

func TestSchedulerLifecycle(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Set(1, 1, 5) })
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })
	rs, err := NewRuleset(init, 1.0/12, []Rule{noop})
	require.NoError(t, err)

	sink := NewMemorySink()
	sched, err := NewScheduler(rs, 1, sink)
	require.NoError(t, err)
	require.Equal(t, StateUninitialized, sched.State())

	require.NoError(t, sched.Run(context.Background(), 6))
	require.Equal(t, StateCompleted, sched.State())
	require.Equal(t, 6, sched.Step())
	// One initial snapshot plus one per tick.
	require.Len(t, sink.Snapshots(), 7)

	err = sched.Run(context.Background(), 1)
	require.ErrorIs(t, err, ErrState)
}

func TestSchedulerCancellation(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Set(1, 1, 5) })
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })
	rs, err := NewRuleset(init, 1.0/12, []Rule{noop})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sink := NewMemorySink()
	var cancelled bool
	sched, err := NewScheduler(rs, 1, FuncSink(func(s Snapshot) {
		sink.Emit(s)
		if s.Step == 1 && !cancelled {
			cancelled = true
			cancel()
		}
	}))
	require.NoError(t, err)

	err = sched.Run(ctx, 100)
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, StateCancelled, sched.State())
	// The tick in flight completed; emitted snapshots survive the stop.
	require.Len(t, sink.Snapshots(), 2)
}

func TestSchedulerDomainErrorAbortsRun(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Fill(1) })
	poison := NewCellRule("poison", []string{"population"}, []string{"population"},
		func(t *Tick, in, out []float64) {
			out[0] = in[0]
			if t.Step == 2 {
				out[0] = math.NaN()
			}
		})
	rs, err := NewRuleset(init, 1.0/12, []Rule{poison})
	require.NoError(t, err)

	sink := NewMemorySink()
	sched, err := NewScheduler(rs, 1, sink)
	require.NoError(t, err)

	err = sched.Run(context.Background(), 10)
	require.ErrorIs(t, err, ErrDomain)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "population", de.Grid)
	require.Equal(t, 2, de.Step)
	require.Equal(t, StateFailed, sched.State())
	// Initial snapshot plus the two clean ticks.
	require.Len(t, sink.Snapshots(), 3)
}

func TestSparseScanMatchesFullScan(t *testing.T) {
	seed := func(g *Grid) {
		g.Set(3, 3, 40)
		g.Set(12, 9, 25)
		g.Set(7, 14, 60)
	}
	k, err := NewDispersalKernel(2, 0.7, 1.0)
	require.NoError(t, err)

	run := func(opts ...RulesetOption) *GridSet {
		init := populationSet(t, 16, 16, seed)
		rs, err := NewRuleset(init, 1.0/12,
			[]Rule{NewConvolution("dispersal", "population", "population", k)}, opts...)
		require.NoError(t, err)
		sched, err := NewScheduler(rs, 1, nil)
		require.NoError(t, err)
		require.NoError(t, sched.Run(context.Background(), 5))
		return sched.Current()
	}

	full := run()
	sparse := run(WithSparseActivity(2))
	require.Equal(t, full.Grid("population").Values(), sparse.Grid("population").Values())
}

func TestSchedulerActiveCells(t *testing.T) {
	init := populationSet(t, 8, 8, func(g *Grid) { g.Set(4, 4, 10) })
	k, err := NewDispersalKernel(1, 0.8, 1.0)
	require.NoError(t, err)
	rs, err := NewRuleset(init, 1.0/12,
		[]Rule{NewConvolution("dispersal", "population", "population", k)},
		WithSparseActivity(1))
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)
	// One occupied cell dilated by radius 1.
	require.Equal(t, 9, sched.ActiveCells())
}

func TestPauseResume(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Set(1, 1, 5) })
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })
	rs, err := NewRuleset(init, 1.0/12, []Rule{noop})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)

	sched.Pause()
	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background(), 3) }()

	require.Eventually(t, func() bool { return sched.State() == StatePaused },
		time.Second, time.Millisecond)
	require.Equal(t, 0, sched.Step())

	sched.Resume()
	require.NoError(t, <-done)
	require.Equal(t, StateCompleted, sched.State())
	require.Equal(t, 3, sched.Step())
}

func TestCancelWhilePaused(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Set(1, 1, 5) })
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })
	rs, err := NewRuleset(init, 1.0/12, []Rule{noop})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)

	sched.Pause()
	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background(), 3) }()

	require.Eventually(t, func() bool { return sched.State() == StatePaused },
		time.Second, time.Millisecond)

	// Cancelling a paused run must end it, not resume it.
	sched.Cancel()
	require.ErrorIs(t, <-done, ErrCancelled)
	require.Equal(t, StateCancelled, sched.State())
	require.Equal(t, 0, sched.Step())
}

func TestTickDrivesRunManually(t *testing.T) {
	init := populationSet(t, 4, 4, func(g *Grid) { g.Set(1, 1, 5) })
	noop := NewCellRule("noop", []string{"population"}, []string{"population"},
		func(_ *Tick, in, out []float64) { out[0] = in[0] })
	rs, err := NewRuleset(init, 1.0/12, []Rule{noop})
	require.NoError(t, err)
	sched, err := NewScheduler(rs, 1, nil)
	require.NoError(t, err)

	require.NoError(t, sched.Tick())
	require.NoError(t, sched.Tick())
	require.Equal(t, 2, sched.Step())
	require.Equal(t, StateRunning, sched.State())

	sched.Cancel()
	require.Equal(t, StateCancelled, sched.State())
	require.ErrorIs(t, sched.Tick(), ErrState)
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(Snapshot{Step: 0})
	sink.Emit(Snapshot{Step: 1})
	sink.Emit(Snapshot{Step: 2})
	require.Equal(t, int64(2), sink.Dropped())
	got := <-sink.C()
	require.Equal(t, 0, got.Step)
}

func TestRNGDeterminism(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
	require.Equal(t, a.Poisson(3.5), b.Poisson(3.5))
	require.False(t, NewRNG(1).Bernoulli(0))
	require.True(t, NewRNG(1).Bernoulli(1))
	require.Zero(t, NewRNG(1).Poisson(0))
}

func TestPoissonMean(t *testing.T) {
	r := NewRNG(7)
	const n = 5000
	sum := 0
	for i := 0; i < n; i++ {
		sum += r.Poisson(4.0)
	}
	require.InDelta(t, 4.0, float64(sum)/n, 0.15)
}
