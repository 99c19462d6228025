package invasion

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"spreadsim/internal/core"
)

// Row is one tabular aggregation record derived from a snapshot: the shape
// downstream scenario tables and CSV exports consume. Cost components are
// the per-step increments recomputed from the same state the ledger saw.
type Row struct {
	Replicate int
	Step      int
	Time      float64

	AreaOccupied    float64
	TotalPopulation float64
	DetectedCells   int
	TotalTraps      float64

	CostTotal           float64
	CostTrapStep        float64
	CostEradicationStep float64
	CostQuarantineStep  float64
	CostCropStep        float64
}

// RowFor derives the scalar metrics of one snapshot.
func RowFor(snap core.Snapshot, p Params, dt float64, replicate int) Row {
	pop := snap.Grids[GridPopulation]
	det := snap.Grids[GridDetected]
	traps := snap.Grids[GridTraps]
	cost := snap.Grids[GridCost]

	row := Row{
		Replicate: replicate,
		Step:      snap.Step,
		Time:      snap.Time,
	}
	occupied := 0
	damaged := 0
	for _, v := range pop {
		if v > 0 {
			occupied++
			if v >= p.DamageThreshold {
				damaged++
			}
		}
	}
	detected := 0
	for _, v := range det {
		if v > 0 {
			detected++
		}
	}
	row.AreaOccupied = float64(occupied) * p.CellArea
	row.TotalPopulation = floats.Sum(pop)
	row.DetectedCells = detected
	row.TotalTraps = floats.Sum(traps)
	row.CostTotal = floats.Sum(cost)

	row.CostTrapStep = row.TotalTraps * p.TrapCost * dt
	row.CostEradicationStep = float64(detected) * p.CellArea * p.EradicationCost * p.EradicationEffect * dt
	row.CostQuarantineStep = float64(detected) * p.LocalCropValue * p.LocalEffect * dt
	row.CostCropStep = float64(damaged) * p.CropValue * p.CroplossFraction * dt
	return row
}

// RowsFor derives metrics for a whole emitted run.
func RowsFor(snaps []core.Snapshot, p Params, dt float64, replicate int) []Row {
	rows := make([]Row, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, RowFor(s, p, dt, replicate))
	}
	return rows
}

// CSVHeader names the Row columns.
func CSVHeader() string {
	return strings.Join([]string{
		"replicate", "step", "time",
		"area_occupied", "total_population", "detected_cells", "total_traps",
		"cost_total", "cost_trap_step", "cost_eradication_step",
		"cost_quarantine_step", "cost_crop_step",
	}, ",")
}

// CSV renders the row as one comma-separated line.
func (r Row) CSV() string {
	return fmt.Sprintf("%d,%d,%.4f,%.4f,%.4f,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%.4f",
		r.Replicate, r.Step, r.Time,
		r.AreaOccupied, r.TotalPopulation, r.DetectedCells, r.TotalTraps,
		r.CostTotal, r.CostTrapStep, r.CostEradicationStep,
		r.CostQuarantineStep, r.CostCropStep)
}
