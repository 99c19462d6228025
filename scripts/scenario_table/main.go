package main

import (
	"fmt"
	"log"

	"spreadsim/internal/sims/invasion"
)

type scenario struct {
	name               string
	trapDensity        float64
	trapRadius         int
	detectionRate      float64
	reportingThreshold float64
	eradicationEffect  float64
	quarantineLocal    float64
	quarantineRegional float64
}

func main() {
	scenarios := []scenario{
		{
			name:               "no-management",
			trapDensity:        0,
			trapRadius:         0,
			detectionRate:      0,
			reportingThreshold: 1e12,
			eradicationEffect:  0,
			quarantineLocal:    0,
			quarantineRegional: 0,
		},
		{
			name:               "surveillance-only",
			trapDensity:        2,
			trapRadius:         2,
			detectionRate:      0.2,
			reportingThreshold: 50,
			eradicationEffect:  0,
			quarantineLocal:    0,
			quarantineRegional: 0,
		},
		{
			name:               "eradication-program",
			trapDensity:        2,
			trapRadius:         2,
			detectionRate:      0.2,
			reportingThreshold: 50,
			eradicationEffect:  0.9,
			quarantineLocal:    0,
			quarantineRegional: 0,
		},
		{
			name:               "quarantine-heavy",
			trapDensity:        2,
			trapRadius:         2,
			detectionRate:      0.2,
			reportingThreshold: 50,
			eradicationEffect:  0.5,
			quarantineLocal:    0.9,
			quarantineRegional: 0.7,
		},
		{
			name:               "full-program",
			trapDensity:        4,
			trapRadius:         3,
			detectionRate:      0.4,
			reportingThreshold: 30,
			eradicationEffect:  0.9,
			quarantineLocal:    0.7,
			quarantineRegional: 0.3,
		},
	}

	const steps = 120

	base := invasion.DefaultConfig()
	base.Width = 96
	base.Height = 96

	fmt.Printf("%-20s %10s %10s %10s %8s %10s %10s\n",
		"scenario", "score", "cost", "area", "detected", "traps", "peak")
	for _, sc := range scenarios {
		cfg := base
		cfg.Params.TrapDensity = sc.trapDensity
		cfg.Params.TrapRadius = sc.trapRadius
		cfg.Params.DetectionRate = sc.detectionRate
		cfg.Params.ReportingThreshold = sc.reportingThreshold
		cfg.Params.EradicationEffect = sc.eradicationEffect
		cfg.Params.QuarantineLocal = sc.quarantineLocal
		cfg.Params.QuarantineRegional = sc.quarantineRegional

		res, err := invasion.Containment(cfg, steps)
		if err != nil {
			log.Fatalf("%s: %v", sc.name, err)
		}
		fmt.Printf("%-20s %10.0f %10.0f %10.0f %8d %10.0f %10.0f\n",
			sc.name, res.Score(cfg.Params), res.FinalCost, res.AreaOccupied,
			res.DetectedCells, res.TotalTraps, res.PeakPopulation)
	}
}
