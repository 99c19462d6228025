package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispersalKernelRadiusOne(t *testing.T) {
	k, err := NewDispersalKernel(1, 0.8, 1.0)
	require.NoError(t, err)
	require.Len(t, k.Cells, 5)
	require.InDelta(t, 1.0, k.Sum(), 1e-12)

	for _, c := range k.Cells {
		if c.DX == 0 && c.DY == 0 {
			require.InDelta(t, 0.8, c.Weight, 1e-12)
			continue
		}
		// Four orthogonal neighbors share the dispersed fraction equally.
		require.InDelta(t, 0.05, c.Weight, 1e-12)
	}
}

func TestDispersalKernelValidation(t *testing.T) {
	_, err := NewDispersalKernel(0, 0.8, 1.0)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewDispersalKernel(2, 1.5, 1.0)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewDispersalKernel(2, 0.5, 0)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPlacementKernelNormalizes(t *testing.T) {
	k, err := NewPlacementKernel(2, 1.5)
	require.NoError(t, err)
	require.InDelta(t, 1.0, k.Sum(), 1e-12)

	// Radius zero collapses to the focal cell.
	k, err = NewPlacementKernel(0, 1.0)
	require.NoError(t, err)
	require.Len(t, k.Cells, 1)
	require.InDelta(t, 1.0, k.Cells[0].Weight, 1e-12)
}

func TestDispersalKernelDecaysWithDistance(t *testing.T) {
	k, err := NewDispersalKernel(3, 0.5, 1.0)
	require.NoError(t, err)
	var near, far float64
	for _, c := range k.Cells {
		switch {
		case c.DX == 1 && c.DY == 0:
			near = c.Weight
		case c.DX == 3 && c.DY == 0:
			far = c.Weight
		}
	}
	require.Greater(t, near, far)
	require.Greater(t, far, 0.0)
}
