package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"spreadsim/internal/sims/invasion"
)

type strategy struct {
	trapDensity       float64
	detectionRate     float64
	eradicationEffect float64
	quarantineLocal   float64
}

func (s strategy) String() string {
	return fmt.Sprintf("traps=%.1f detect=%.2f eradicate=%.2f quarantine=%.2f",
		s.trapDensity, s.detectionRate, s.eradicationEffect, s.quarantineLocal)
}

type strategyResult struct {
	params strategy
	result invasion.ContainmentResult
	score  float64
}

func main() {
	steps := flag.Int("steps", 120, "ticks to simulate per strategy")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	width := flag.Int("width", 96, "map width for sweep runs")
	height := flag.Int("height", 96, "map height for sweep runs")
	seed := flag.Int64("seed", 1337, "seed used for deterministic runs")
	flag.Parse()

	baseCfg := invasion.DefaultConfig()
	baseCfg.Width = *width
	baseCfg.Height = *height
	baseCfg.Seed = *seed

	densityOptions := []float64{0, 1, 2, 4}
	detectOptions := []float64{0.1, 0.2, 0.4}
	eradicateOptions := []float64{0.5, 0.75, 0.9}
	quarantineOptions := []float64{0, 0.4, 0.8}

	var sets []strategy
	for _, density := range densityOptions {
		for _, detect := range detectOptions {
			for _, eradicate := range eradicateOptions {
				for _, quarantine := range quarantineOptions {
					sets = append(sets, strategy{
						trapDensity:       density,
						detectionRate:     detect,
						eradicationEffect: eradicate,
						quarantineLocal:   quarantine,
					})
				}
			}
		}
	}

	fmt.Printf("Sweeping %d management strategies (%d workers, %d steps)\n", len(sets), *workers, *steps)

	jobs := make(chan strategy)
	results := make(chan strategyResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				cfg := baseCfg
				cfg.Params.TrapDensity = params.trapDensity
				cfg.Params.DetectionRate = params.detectionRate
				cfg.Params.EradicationEffect = params.eradicationEffect
				cfg.Params.QuarantineLocal = params.quarantineLocal

				res, err := invasion.Containment(cfg, *steps)
				if err != nil {
					log.Fatalf("strategy %s: %v", params, err)
				}
				results <- strategyResult{
					params: params,
					result: res,
					score:  res.Score(cfg.Params),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []strategyResult
	for res := range results {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score < all[j].score })
	elapsed := time.Since(start)

	fmt.Printf("\nTop 5 strategies (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for i := 0; i < len(all) && i < 5; i++ {
		res := all[i]
		fmt.Printf("%2d) score=%.0f cost=%.0f area=%.0f peak=%.0f detected=%d traps=%.0f %s\n",
			i+1, res.score, res.result.FinalCost, res.result.AreaOccupied,
			res.result.PeakPopulation, res.result.DetectedCells, res.result.TotalTraps, res.params)
	}

	if len(all) > 0 {
		best := all[0]
		fmt.Printf("\nBest overall: score=%.0f cost=%.0f area=%.0f with %s\n",
			best.score, best.result.FinalCost, best.result.AreaOccupied, best.params)
	}
}
