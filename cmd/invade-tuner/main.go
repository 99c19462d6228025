package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"strings"

	"spreadsim/internal/sims/invasion"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	steps := flag.Int("steps", 120, "number of ticks to simulate per candidate")
	passes := flag.Int("passes", 3, "coordinate-descent passes to execute")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel candidate evaluations")
	width := flag.Int("width", 96, "map width for tuning runs")
	height := flag.Int("height", 96, "map height for tuning runs")
	seed := flag.Int64("seed", 1337, "seed used for deterministic simulations")
	manualOnly := flag.Bool("manual", false, "skip sweeping and only evaluate provided overrides")
	var overrides kvList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	cfg := invasion.DefaultConfig()
	cfg.Width = *width
	cfg.Height = *height
	cfg.Seed = *seed

	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			if !cfg.Params.Apply(parts[0], v) {
				log.Fatalf("override %q: unknown parameter", kv)
			}
		}
	}

	baseline, err := invasion.Containment(cfg, *steps)
	if err != nil {
		log.Fatalf("baseline: %v", err)
	}
	fmt.Printf("Baseline: score %.0f, cost %.0f, area %.0f, peak population %.0f, detected cells %d, traps %.0f (%d steps)\n",
		baseline.Score(cfg.Params), baseline.FinalCost, baseline.AreaOccupied,
		baseline.PeakPopulation, baseline.DetectedCells, baseline.TotalTraps, baseline.StepsSimulated)

	if *manualOnly {
		fmt.Println("Manual evaluation requested; skipping sweep.")
		printParams(cfg.Params)
		return
	}

	params, result, trace, err := invasion.ParameterSweep(cfg, *steps, *passes, *workers)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}

	fmt.Printf("\nBest found: score %.0f, cost %.0f, area %.0f, peak population %.0f, detected cells %d, traps %.0f\n",
		result.Score(params), result.FinalCost, result.AreaOccupied,
		result.PeakPopulation, result.DetectedCells, result.TotalTraps)
	printParams(params)

	if len(trace) > 1 {
		fmt.Println("\nImprovements:")
		for _, rec := range trace[1:] {
			fmt.Printf("  pass %d: %s=%s -> score=%.0f cost=%.0f area=%.0f\n",
				rec.Pass, rec.Parameter, rec.Value,
				rec.Result.Score(rec.Params), rec.Result.FinalCost, rec.Result.AreaOccupied)
		}
	}
}

func printParams(params invasion.Params) {
	fmt.Println("Parameters:")
	fmt.Printf("  reporting_threshold=%.1f\n", params.ReportingThreshold)
	fmt.Printf("  detection_rate=%.3f\n", params.DetectionRate)
	fmt.Printf("  trap_coverage=%.3f\n", params.TrapCoverage)
	fmt.Printf("  trap_density=%.2f\n", params.TrapDensity)
	fmt.Printf("  trap_radius=%d\n", params.TrapRadius)
	fmt.Printf("  eradication_effect=%.3f\n", params.EradicationEffect)
	fmt.Printf("  quarantine_local=%.3f\n", params.QuarantineLocal)
	fmt.Printf("  quarantine_regional=%.3f\n", params.QuarantineRegional)
}
