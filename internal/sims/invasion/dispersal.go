package invasion

import (
	"math"

	"spreadsim/internal/core"
)

// jumpTarget is one precomputed destination for a source cell.
type jumpTarget struct {
	idx    int
	weight float64
}

// jumpDispersal models human-mediated long-distance spread. At build time
// every source cell gets a fixed shortlist of the highest-scoring
// destinations, score = humans[d] * exp(-dist/meanDist). Each tick an
// integer number of dispersers leaves occupied sources and scatters across
// the shortlist by weighted draw; quarantine attenuates outflow from
// detected sources and delivery into detected destinations, turned-back
// units staying at the source. Destinations accumulate in a scatter buffer
// merged after the scan, so concurrent sources never race.
type jumpDispersal struct {
	p       Params
	targets [][]jumpTarget
	totals  []float64
	scatter []float64
}

// newJumpDispersal precomputes shortlists against the human-population
// layer. It returns nil when no destination carries weight.
func newJumpDispersal(p Params, humans *core.Grid, mask *core.BoolGrid) *jumpDispersal {
	w, h := humans.W, humans.H
	flags := mask.Values()
	weights := humans.Values()

	var towns []int
	for i, v := range weights {
		if v > 0 && flags[i] {
			towns = append(towns, i)
		}
	}
	if len(towns) == 0 {
		return nil
	}

	r := &jumpDispersal{
		p:       p,
		targets: make([][]jumpTarget, w*h),
		totals:  make([]float64, w*h),
		scatter: make([]float64, w*h),
	}
	short := p.JumpShortlist
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !flags[idx] {
				continue
			}
			list := make([]jumpTarget, 0, short)
			for _, town := range towns {
				if town == idx {
					continue
				}
				tx, ty := town%w, town/w
				dist := math.Hypot(float64(tx-x), float64(ty-y))
				score := weights[town] * math.Exp(-dist/p.JumpMeanDist)
				if score <= 0 {
					continue
				}
				list = insertTarget(list, jumpTarget{idx: town, weight: score}, short)
			}
			if len(list) == 0 {
				continue
			}
			r.targets[idx] = list
			for _, tgt := range list {
				r.totals[idx] += tgt.weight
			}
		}
	}
	return r
}

// insertTarget keeps list sorted by descending weight, capped at size.
func insertTarget(list []jumpTarget, t jumpTarget, size int) []jumpTarget {
	pos := len(list)
	for pos > 0 && list[pos-1].weight < t.weight {
		pos--
	}
	if pos >= size {
		return list
	}
	if len(list) < size {
		list = append(list, jumpTarget{})
	}
	copy(list[pos+1:], list[pos:])
	list[pos] = t
	return list
}

func (r *jumpDispersal) Name() string { return "jump-dispersal" }

func (r *jumpDispersal) Reads() []string { return []string{GridPopulation, GridDetected} }

func (r *jumpDispersal) Writes() []string { return []string{GridPopulation} }

// Apply moves whole dispersers from occupied sources to shortlist
// destinations.
func (r *jumpDispersal) Apply(t *core.Tick) error {
	pop := t.In(GridPopulation).Values()
	det := t.In(GridDetected).Values()
	out := t.Out(GridPopulation).Values()
	mask := t.Mask().Values()
	p := r.p

	for i := range r.scatter {
		r.scatter[i] = 0
	}

	t.ForEach(func(x, y, idx int) {
		n := pop[idx]
		list := r.targets[idx]
		if n <= 0 || len(list) == 0 {
			return
		}
		d := p.JumpPerCapita * n
		if d > p.JumpMax {
			d = p.JumpMax
		}
		if det[idx] > 0 {
			d *= 1 - p.QuarantineLocal
		}
		units := int(d)
		if frac := d - float64(units); frac > 0 && t.RNG.Bernoulli(frac) {
			units++
		}
		if avail := int(n); units > avail {
			units = avail
		}
		if units <= 0 {
			return
		}
		moved := 0
		total := r.totals[idx]
		for u := 0; u < units; u++ {
			pick := t.RNG.Float64() * total
			dest := list[len(list)-1].idx
			for _, tgt := range list {
				pick -= tgt.weight
				if pick <= 0 {
					dest = tgt.idx
					break
				}
			}
			// Regional quarantine turns the unit back at a detected
			// destination.
			if det[dest] > 0 && t.RNG.Bernoulli(p.QuarantineRegional) {
				continue
			}
			r.scatter[dest]++
			moved++
		}
		if moved > 0 {
			out[idx] -= float64(moved)
		}
	})

	// Scatter-then-reduce: merge arrivals after the source scan. Arrivals
	// can land outside the active set, so each one is activated for the
	// remainder of the tick; later rules must not skip a freshly seeded
	// cell.
	for idx, v := range r.scatter {
		if v > 0 && mask[idx] {
			out[idx] += v
			t.Activate(idx)
		}
	}
	return nil
}
