package invasion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"spreadsim/internal/core"
)

func tuningConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 12
	cfg.Height = 12
	cfg.Seed = 5
	cfg.Params.SeedCount = 2
	cfg.Params.TownCount = 4
	return cfg
}

func TestContainmentDeterministic(t *testing.T) {
	cfg := tuningConfig()
	a, err := Containment(cfg, 6)
	require.NoError(t, err)
	b, err := Containment(cfg, 6)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, 6, a.StepsSimulated)
	require.GreaterOrEqual(t, a.PeakPopulation, 0.0)
	require.GreaterOrEqual(t, a.FinalCost, 0.0)
}

func TestContainmentPeakCountsInitialState(t *testing.T) {
	cfg := quietConfig(8, 8)
	cfg.Params.SeedCount = 2
	cfg.Params.SeedPopulation = 10
	// Founder colonies sit below the Allee threshold and die on the first
	// tick, so the run peaks at step zero.
	cfg.Params.MinFounders = 20

	res, err := Containment(cfg, 3)
	require.NoError(t, err)
	require.Zero(t, res.AreaOccupied)
	require.GreaterOrEqual(t, res.PeakPopulation, 10.0)
}

func TestContainmentRejectsZeroSteps(t *testing.T) {
	_, err := Containment(tuningConfig(), 0)
	require.ErrorIs(t, err, core.ErrConfiguration)
}

func TestParameterSweepNeverWorsens(t *testing.T) {
	cfg := tuningConfig()
	steps := 4

	baseline, err := Containment(cfg, steps)
	require.NoError(t, err)

	best, result, trace, err := ParameterSweep(cfg, steps, 1, 4)
	require.NoError(t, err)
	require.NotEmpty(t, trace)
	require.Equal(t, "baseline", trace[0].Parameter)
	require.LessOrEqual(t, result.Score(best), baseline.Score(cfg.Params))
}

func TestCandidateValues(t *testing.T) {
	values := candidateValues(core.ParameterControl{
		Step: 0.5, Min: 0, Max: 2, HasMin: true, HasMax: true,
	})
	require.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, values)

	require.Nil(t, candidateValues(core.ParameterControl{Step: 1, Min: 0, Max: 2}))
}
