package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"spreadsim/internal/core"
	"spreadsim/internal/sims/invasion"
)

func batchConfig() invasion.Config {
	cfg := invasion.DefaultConfig()
	cfg.Width = 16
	cfg.Height = 16
	cfg.Seed = 100
	cfg.Params.SeedCount = 2
	cfg.Params.TownCount = 3
	return cfg
}

func TestRunCollectsOrderedReplicates(t *testing.T) {
	cfg := batchConfig()
	results, err := Run(context.Background(), cfg, invasion.Layers{}, 4, 3, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		require.Equal(t, i, r.Replicate)
		require.Equal(t, cfg.Seed+int64(i), r.Seed)
		require.NoError(t, r.Err)
		require.Len(t, r.Rows, 4) // initial snapshot plus 3 steps
		for _, row := range r.Rows {
			require.Equal(t, i, row.Replicate)
		}
	}
	require.Empty(t, Failed(results))
	require.Len(t, Rows(results), 16)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := batchConfig()
	a, err := Run(context.Background(), cfg, invasion.Layers{}, 3, 4, 1)
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg, invasion.Layers{}, 3, 4, 3)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRunRejectsBadArguments(t *testing.T) {
	cfg := batchConfig()
	_, err := Run(context.Background(), cfg, invasion.Layers{}, 0, 3, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)
	_, err = Run(context.Background(), cfg, invasion.Layers{}, 3, 0, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)

	cfg.Params.EradicationEffect = 2
	_, err = Run(context.Background(), cfg, invasion.Layers{}, 3, 3, 1)
	require.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRunAbortsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, batchConfig(), invasion.Layers{}, 4, 50, 2)
	require.ErrorIs(t, err, core.ErrCancelled)
}

func TestRunRecordsPerReplicateFailures(t *testing.T) {
	cfg := batchConfig()
	bad := make([]float64, cfg.Width*cfg.Height)
	bad[0] = -1 // negative population trips the domain check at build time
	results, err := Run(context.Background(), cfg, invasion.Layers{Population: bad}, 2, 3, 1)
	require.NoError(t, err)
	require.Len(t, Failed(results), 2)
	for _, r := range results {
		require.ErrorIs(t, r.Err, core.ErrDomain)
		require.Empty(t, r.Rows)
	}
	require.Empty(t, Rows(results))
}
