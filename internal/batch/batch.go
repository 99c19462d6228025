// Package batch fans replicate runs out over a bounded worker group and
// collects per-replicate metric rows for offline analysis.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"spreadsim/internal/core"
	"spreadsim/internal/sims/invasion"
)

// Result is the outcome of one replicate. A replicate that tripped a domain
// violation carries its error here; the rest of the batch is unaffected.
type Result struct {
	Replicate int
	Seed      int64
	Rows      []invasion.Row
	Err       error
}

// Run executes replicates seeds cfg.Seed..cfg.Seed+n-1 concurrently, at most
// workers at a time (0 means GOMAXPROCS). Results come back ordered by
// replicate. Cancellation aborts the whole batch; a per-replicate failure
// does not.
func Run(ctx context.Context, cfg invasion.Config, layers invasion.Layers, replicates, steps, workers int) ([]Result, error) {
	if replicates < 1 {
		return nil, fmt.Errorf("%w: %d replicates", core.ErrConfiguration, replicates)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: %d steps", core.ErrConfiguration, steps)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, replicates)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < replicates; i++ {
		i := i
		g.Go(func() error {
			seed := cfg.Seed + int64(i)
			sink := core.NewMemorySink()
			err := invasion.RunReplicate(ctx, cfg, layers, seed, steps, sink)
			if errors.Is(err, core.ErrCancelled) {
				return err
			}
			res := Result{Replicate: i, Seed: seed, Err: err}
			if err == nil {
				res.Rows = invasion.RowsFor(sink.Snapshots(), cfg.Params, cfg.Dt(), i)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Rows flattens the successful replicates into one row stream, preserving
// replicate order.
func Rows(results []Result) []invasion.Row {
	var rows []invasion.Row
	for _, r := range results {
		if r.Err == nil {
			rows = append(rows, r.Rows...)
		}
	}
	return rows
}

// Failed returns the replicates that did not finish.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
