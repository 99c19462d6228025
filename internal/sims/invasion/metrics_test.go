package invasion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spreadsim/internal/core"
)

func TestRowForKnownSnapshot(t *testing.T) {
	p := DefaultConfig().Params
	dt := 1.0 / 12
	snap := core.Snapshot{
		Step: 4,
		Time: 4 * dt,
		W:    2, H: 2,
		Grids: map[string][]float64{
			GridPopulation: {20, 5, 0, 0}, // one damaged, one merely occupied
			GridDetected:   {1, 0, 0, 0},
			GridTraps:      {3, 0, 0, 0},
			GridCost:       {12.5, 0, 1.5, 0},
		},
	}

	row := RowFor(snap, p, dt, 2)
	require.Equal(t, 2, row.Replicate)
	require.Equal(t, 4, row.Step)
	require.InDelta(t, 4*dt, row.Time, 1e-12)
	require.Equal(t, 2*p.CellArea, row.AreaOccupied)
	require.Equal(t, 25.0, row.TotalPopulation)
	require.Equal(t, 1, row.DetectedCells)
	require.Equal(t, 3.0, row.TotalTraps)
	require.InDelta(t, 14.0, row.CostTotal, 1e-12)

	require.InDelta(t, 3*p.TrapCost*dt, row.CostTrapStep, 1e-12)
	require.InDelta(t, p.CellArea*p.EradicationCost*p.EradicationEffect*dt, row.CostEradicationStep, 1e-12)
	require.InDelta(t, p.LocalCropValue*p.LocalEffect*dt, row.CostQuarantineStep, 1e-12)
	require.InDelta(t, p.CropValue*p.CroplossFraction*dt, row.CostCropStep, 1e-12)
}

func TestCSVRowMatchesHeader(t *testing.T) {
	header := strings.Split(CSVHeader(), ",")
	row := Row{Replicate: 1, Step: 2, Time: 0.25}
	require.Len(t, strings.Split(row.CSV(), ","), len(header))
}

func TestRowsForWholeRun(t *testing.T) {
	cfg := quietConfig(8, 8)
	sink := core.NewMemorySink()
	err := RunReplicate(context.Background(), cfg, singleSeedLayers(8, 8, 4, 4, 30), 1, 3, sink)
	require.NoError(t, err)

	rows := RowsFor(sink.Snapshots(), cfg.Params, cfg.Dt(), 0)
	require.Len(t, rows, 4)
	for i, r := range rows {
		require.Equal(t, i, r.Step)
		require.Equal(t, 30.0, r.TotalPopulation)
		require.Equal(t, cfg.Params.CellArea, r.AreaOccupied)
	}
}
