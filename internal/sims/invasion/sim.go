package invasion

import (
	"context"
	"fmt"

	"spreadsim/internal/core"
)

// Grid names of the invasion state. Population, detected, traps, and cost
// evolve; rate, capacity, humans, and surveyed are support layers.
const (
	GridPopulation = "population"
	GridDetected   = "detected"
	GridTraps      = "traps"
	GridCost       = "cost"
	GridRate       = "rate"
	GridCapacity   = "capacity"
	GridHumans     = "humans"
	GridSurveyed   = "surveyed"
)

// Layers carries loader-provided initial state. Any nil grid falls back to
// the procedural default; the mask defaults to all-simulated. Coordinate
// resolution happens entirely in the loader; the engine sees indices only.
type Layers struct {
	Population []float64
	Rate       []float64
	Capacity   []float64
	Humans     []float64
	Mask       []bool
}

// Build assembles the initial grid set and rule pipeline for one run.
// Missing layers are seeded procedurally from the given RNG.
func Build(cfg Config, layers Layers, rng *core.RNG) (*core.GridSet, *core.Ruleset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	w, h := cfg.Width, cfg.Height
	p := cfg.Params

	var mask *core.BoolGrid
	if layers.Mask != nil {
		m, err := core.NewBoolGridFrom(w, h, layers.Mask)
		if err != nil {
			return nil, nil, err
		}
		mask = m
	} else {
		mask = core.NewBoolGrid(w, h)
		mask.Fill(true)
	}

	layer := func(values []float64, fill func(*core.Grid)) (*core.Grid, error) {
		if values != nil {
			return core.NewGridFrom(w, h, values)
		}
		g := core.NewGrid(w, h)
		if fill != nil {
			fill(g)
		}
		return g, nil
	}

	pop, err := layer(layers.Population, func(g *core.Grid) {
		seedPopulation(g, mask, p, rng)
	})
	if err != nil {
		return nil, nil, err
	}
	rate, err := layer(layers.Rate, func(g *core.Grid) { g.Fill(p.GrowthRate) })
	if err != nil {
		return nil, nil, err
	}
	capacity, err := layer(layers.Capacity, func(g *core.Grid) { g.Fill(p.CarryingCapacity) })
	if err != nil {
		return nil, nil, err
	}
	humans, err := layer(layers.Humans, func(g *core.Grid) {
		seedTowns(g, mask, p, rng)
	})
	if err != nil {
		return nil, nil, err
	}

	grids := map[string]*core.Grid{
		GridPopulation: pop,
		GridDetected:   core.NewGrid(w, h),
		GridTraps:      core.NewGrid(w, h),
		GridCost:       core.NewGrid(w, h),
		GridRate:       rate,
		GridCapacity:   capacity,
		GridHumans:     humans,
		GridSurveyed:   core.NewGrid(w, h),
	}
	gs, err := core.NewGridSet(grids, mask)
	if err != nil {
		return nil, nil, err
	}

	rules, maxRadius, err := buildPipeline(cfg, gs)
	if err != nil {
		return nil, nil, err
	}
	var opts []core.RulesetOption
	if cfg.Sparse {
		opts = append(opts, core.WithSparseActivity(maxRadius))
	}
	rs, err := core.NewRuleset(gs, cfg.Dt(), rules, opts...)
	if err != nil {
		return nil, nil, err
	}
	return gs, rs, nil
}

// buildPipeline assembles the rules in application order: growth, local and
// jump dispersal, the Allee clamp, detection, trap placement, the
// eradication cap, and the cost ledger.
func buildPipeline(cfg Config, gs *core.GridSet) ([]core.Rule, int, error) {
	p := cfg.Params
	var rules []core.Rule
	maxRadius := 0

	rules = append(rules, newGrowthRule())

	if p.DispersalRadius > 0 {
		k, err := core.NewDispersalKernel(p.DispersalRadius, p.RetainedFraction, p.DispersalMeanDist)
		if err != nil {
			return nil, 0, err
		}
		rules = append(rules, core.NewConvolution("local-dispersal", GridPopulation, GridPopulation, k))
		if p.DispersalRadius > maxRadius {
			maxRadius = p.DispersalRadius
		}
	}

	if p.JumpPerCapita > 0 && p.JumpShortlist > 0 {
		jump := newJumpDispersal(p, gs.Grid(GridHumans), gs.Mask())
		if jump != nil {
			rules = append(rules, jump)
		}
	}

	if p.MinFounders > 0 {
		rules = append(rules, newAlleeRule(p.MinFounders))
	}

	rules = append(rules, newThresholdDetection(p.ReportingThreshold))
	if p.DetectionRate > 0 && p.TrapCoverage > 0 {
		rules = append(rules, newTrapDetection(p.DetectionRate, p.TrapCoverage))
	}
	if p.TrapDensity > 0 {
		placement, err := newTrapPlacement(p)
		if err != nil {
			return nil, 0, err
		}
		rules = append(rules, placement)
		if p.TrapRadius > maxRadius {
			maxRadius = p.TrapRadius
		}
	}

	rules = append(rules, newEradicationCap(p.EradicationEffect))
	rules = append(rules, newCostLedger(p))
	return rules, maxRadius, nil
}

func seedPopulation(g *core.Grid, mask *core.BoolGrid, p Params, rng *core.RNG) {
	if p.SeedCount <= 0 || p.SeedPopulation <= 0 {
		return
	}
	flags := mask.Values()
	for placed := 0; placed < p.SeedCount; {
		idx := rng.IntN(g.W * g.H)
		if !flags[idx] {
			continue
		}
		g.Values()[idx] = p.SeedPopulation
		placed++
	}
}

func seedTowns(g *core.Grid, mask *core.BoolGrid, p Params, rng *core.RNG) {
	if p.TownCount <= 0 || p.TownWeightMax <= 0 {
		return
	}
	flags := mask.Values()
	for placed := 0; placed < p.TownCount; {
		idx := rng.IntN(g.W * g.H)
		if !flags[idx] {
			continue
		}
		g.Values()[idx] = (0.1 + 0.9*rng.Float64()) * p.TownWeightMax
		placed++
	}
}

// RunReplicate drives one seeded replicate for the given number of steps,
// emitting snapshots to the sink. A domain violation aborts only this
// replicate.
func RunReplicate(ctx context.Context, cfg Config, layers Layers, seed int64, steps int, sink core.Sink) error {
	rng := core.NewRNG(seed)
	_, rs, err := Build(cfg, layers, rng)
	if err != nil {
		return err
	}
	sched, err := core.NewScheduler(rs, seed, sink)
	if err != nil {
		return err
	}
	return sched.Run(ctx, steps)
}

// Sim adapts a managed invasion run to the front-end Sim contract.
type Sim struct {
	cfg     Config
	layers  Layers
	sched   *core.Scheduler
	display []uint8
	err     error
}

// New returns an invasion simulation with the provided dimensions using
// defaults.
func New(w, h int) *Sim {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns an invasion simulation with the provided options.
// State is built on the first Reset.
func NewWithConfig(cfg Config) *Sim {
	return &Sim{cfg: cfg, display: make([]uint8, cfg.Width*cfg.Height)}
}

// NewFromLayers returns a simulation over loader-provided initial layers.
func NewFromLayers(cfg Config, layers Layers) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := NewWithConfig(cfg)
	s.layers = layers
	return s, nil
}

// Name returns the simulation identifier.
func (s *Sim) Name() string { return "invasion" }

// Size reports the grid dimensions.
func (s *Sim) Size() core.Size { return core.Size{W: s.cfg.Width, H: s.cfg.Height} }

// Cells exposes the current display buffer of palette indices.
func (s *Sim) Cells() []uint8 { return s.display }

// Config returns the bound configuration.
func (s *Sim) Config() Config { return s.cfg }

// Scheduler exposes the underlying run, nil before the first Reset.
func (s *Sim) Scheduler() *core.Scheduler { return s.sched }

// Err reports the failure that stopped the run, if any.
func (s *Sim) Err() error { return s.err }

// Reset rebuilds the initial state and pipeline deterministically. A zero
// seed falls back to the configured one.
func (s *Sim) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = s.cfg.Seed
	}
	rng := core.NewRNG(effective)
	_, rs, err := Build(s.cfg, s.layers, rng)
	if err != nil {
		s.err = fmt.Errorf("reset: %w", err)
		s.sched = nil
		return
	}
	sched, err := core.NewScheduler(rs, effective, nil)
	if err != nil {
		s.err = fmt.Errorf("reset: %w", err)
		s.sched = nil
		return
	}
	s.sched = sched
	s.err = nil
	s.refreshDisplay()
}

// Step advances the run by one tick. After a failure the sim holds its last
// valid state and Err reports the cause.
func (s *Sim) Step() {
	if s.sched == nil || s.err != nil {
		return
	}
	if err := s.sched.Tick(); err != nil {
		s.err = err
		return
	}
	s.refreshDisplay()
}

// Stats summarizes the live run for display overlays.
func (s *Sim) Stats() []string {
	if s.sched == nil {
		return nil
	}
	step := s.sched.Step()
	row := RowFor(s.sched.Current().Snapshot(step, float64(step)*s.cfg.Dt()), s.cfg.Params, s.cfg.Dt(), 0)
	return []string{
		fmt.Sprintf("step %d (%.1f y)", row.Step, row.Time),
		fmt.Sprintf("population %.0f", row.TotalPopulation),
		fmt.Sprintf("occupied %.0f", row.AreaOccupied),
		fmt.Sprintf("detected %d", row.DetectedCells),
		fmt.Sprintf("traps %.0f", row.TotalTraps),
		fmt.Sprintf("cost %.0f", row.CostTotal),
	}
}

// State exposes the named grid of the live run, nil before the first Reset.
func (s *Sim) State(name string) *core.Grid {
	if s.sched == nil {
		return nil
	}
	return s.sched.Current().Grid(name)
}

func init() {
	core.Register("invasion", func(cfg map[string]string) core.Sim {
		return NewWithConfig(FromMap(cfg))
	})
}
