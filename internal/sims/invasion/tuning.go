package invasion

import (
	"fmt"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/floats"

	"spreadsim/internal/core"
)

// ContainmentResult captures telemetry from one deterministic management
// run, used by the tuner and the strategy sweep.
type ContainmentResult struct {
	// FinalCost is the summed cost ledger at the end of the run.
	FinalCost float64
	// AreaOccupied is the occupied area at the end of the run.
	AreaOccupied float64
	// PeakPopulation is the largest total population seen at any tick.
	PeakPopulation float64
	// DetectedCells counts cells under detection at the end of the run.
	DetectedCells int
	// TotalTraps is the final deployed trap count.
	TotalTraps float64
	// StepsSimulated reports how many ticks executed.
	StepsSimulated int
}

// Score folds the telemetry into the scalar the tuner minimizes: realized
// cost plus the exposure of whatever infestation remains.
func (r ContainmentResult) Score(p Params) float64 {
	return r.FinalCost + r.AreaOccupied*p.CropValue*p.CroplossFraction
}

// SweepRecord documents a single improvement encountered while exploring
// the management parameter space.
type SweepRecord struct {
	Pass      int
	Parameter string
	Value     string
	Result    ContainmentResult
	Params    Params
}

// Containment runs one deterministic replicate of cfg and reports its
// telemetry.
func Containment(cfg Config, steps int) (ContainmentResult, error) {
	res := ContainmentResult{}
	if steps <= 0 {
		return res, fmt.Errorf("%w: containment steps %d", core.ErrConfiguration, steps)
	}
	rng := core.NewRNG(cfg.Seed)
	_, rs, err := Build(cfg, Layers{}, rng)
	if err != nil {
		return res, err
	}
	sched, err := core.NewScheduler(rs, cfg.Seed, nil)
	if err != nil {
		return res, err
	}
	// The initial state counts; a pure decline peaks at step zero.
	res.PeakPopulation = floats.Sum(sched.Current().Grid(GridPopulation).Values())
	for i := 0; i < steps; i++ {
		if err := sched.Tick(); err != nil {
			return res, err
		}
		if total := floats.Sum(sched.Current().Grid(GridPopulation).Values()); total > res.PeakPopulation {
			res.PeakPopulation = total
		}
	}
	cur := sched.Current()
	occupied := 0
	for _, v := range cur.Grid(GridPopulation).Values() {
		if v > 0 {
			occupied++
		}
	}
	for _, v := range cur.Grid(GridDetected).Values() {
		if v > 0 {
			res.DetectedCells++
		}
	}
	res.AreaOccupied = float64(occupied) * cfg.Params.CellArea
	res.FinalCost = floats.Sum(cur.Grid(GridCost).Values())
	res.TotalTraps = floats.Sum(cur.Grid(GridTraps).Values())
	res.StepsSimulated = steps
	return res, nil
}

// ParameterSweep explores the management descriptors by coordinate descent:
// one lever at a time, candidates enumerated from the declared bounds and
// step, evaluated concurrently, keeping any candidate that lowers the
// score. The descriptor set is consumed generically; adding a control
// extends the search without touching this code.
func ParameterSweep(cfg Config, steps, passes, workers int) (Params, ContainmentResult, []SweepRecord, error) {
	if workers < 1 {
		workers = 1
	}
	best := cfg.Params
	result, err := Containment(cfg, steps)
	if err != nil {
		return best, result, nil, err
	}
	bestScore := result.Score(best)
	trace := []SweepRecord{{Pass: 0, Parameter: "baseline", Result: result, Params: best}}

	type candidate struct {
		value  float64
		result ContainmentResult
		err    error
	}

	for pass := 1; pass <= passes; pass++ {
		improved := false
		for _, ctl := range managementControls {
			values := candidateValues(ctl)
			results := make([]candidate, len(values))

			jobs := make(chan int)
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range jobs {
						trial := cfg
						trial.Params = best
						trial.Params.Apply(ctl.Key, values[i])
						res, err := Containment(trial, steps)
						results[i] = candidate{value: values[i], result: res, err: err}
					}
				}()
			}
			for i := range values {
				jobs <- i
			}
			close(jobs)
			wg.Wait()

			for _, c := range results {
				if c.err != nil {
					return best, result, trace, c.err
				}
				trialParams := best
				trialParams.Apply(ctl.Key, c.value)
				if score := c.result.Score(trialParams); score < bestScore {
					bestScore = score
					best = trialParams
					result = c.result
					improved = true
					trace = append(trace, SweepRecord{
						Pass:      pass,
						Parameter: ctl.Key,
						Value:     strconv.FormatFloat(c.value, 'f', -1, 64),
						Result:    c.result,
						Params:    best,
					})
				}
			}
		}
		if !improved {
			break
		}
	}
	return best, result, trace, nil
}

// candidateValues enumerates a control's search grid from its bounds and
// step.
func candidateValues(ctl core.ParameterControl) []float64 {
	step := ctl.Step
	if step <= 0 {
		step = 1
	}
	lo, hi := ctl.Min, ctl.Max
	if !ctl.HasMin || !ctl.HasMax || hi < lo {
		return nil
	}
	var values []float64
	for v := lo; v <= hi+step/2; v += step {
		values = append(values, v)
	}
	return values
}
