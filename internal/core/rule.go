package core

import "fmt"

// Rule is one per-timestep transformation over declared input and output
// grids. A rule reads only the committed "current" snapshot through Tick.In
// and writes only the "next" buffer through Tick.Out; it never observes
// another rule's in-progress writes within the same pass. Declared names are
// validated against the grid set when the ruleset is built.
type Rule interface {
	Name() string
	Reads() []string
	Writes() []string
	Apply(t *Tick) error
}

// Tick is the per-step view the scheduler hands to each rule.
type Tick struct {
	// Step is the zero-based tick index.
	Step int
	// Dt is the calendar length of one tick in years. Annualized rates are
	// scaled by it (one month: 1/12).
	Dt float64
	// RNG is the run-scoped random source for stochastic rules.
	RNG *RNG

	curr   *GridSet
	next   *GridSet
	mask   *BoolGrid
	active *ActiveSet
	radius int
}

// W reports the grid width.
func (t *Tick) W() int { return t.curr.W() }

// H reports the grid height.
func (t *Tick) H() int { return t.curr.H() }

// In returns the named grid in the committed current snapshot.
func (t *Tick) In(name string) *Grid { return t.curr.Grid(name) }

// Out returns the named grid in the next buffer. Output grids start each
// pass as a copy of the current snapshot, so read-modify-write accumulation
// is well defined.
func (t *Tick) Out(name string) *Grid { return t.next.Grid(name) }

// Mask returns the shared validity mask. Cells where the mask is false are
// frozen: rules never write them and read them as inert zero.
func (t *Tick) Mask() *BoolGrid { return t.mask }

// Activate marks the cell at the linear index, dilated by the pipeline's
// kernel radius, active for the remainder of the tick. Rules that deliver
// mass beyond their scanned neighborhood call it per arrival cell so later
// rules in the same tick do not skip it. A no-op under the full-scan
// strategy.
func (t *Tick) Activate(idx int) {
	if t.active != nil {
		t.active.activate(idx, t.radius)
	}
}

// ForEach visits every simulated cell in row-major order, honoring the mask
// and, when the sparse strategy is enabled, the active set.
func (t *Tick) ForEach(fn func(x, y, idx int)) {
	w, h := t.W(), t.H()
	mask := t.mask.Values()
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			idx := row + x
			if !mask[idx] {
				continue
			}
			if t.active != nil && !t.active.Has(idx) {
				continue
			}
			fn(x, y, idx)
		}
	}
}

// CellFunc computes one cell's declared outputs from its declared inputs.
// Slots follow the declaration order. Output slots arrive seeded with the
// cell's pending next value, so additive contributions compose.
type CellFunc func(t *Tick, in, out []float64)

// CellRule applies an independent per-cell function with no neighbor access.
type CellRule struct {
	name string
	in   []string
	out  []string
	fn   CellFunc
}

// NewCellRule binds a per-cell function to its declared grids.
func NewCellRule(name string, in, out []string, fn CellFunc) *CellRule {
	return &CellRule{name: name, in: in, out: out, fn: fn}
}

func (r *CellRule) Name() string { return r.name }

func (r *CellRule) Reads() []string { return append([]string(nil), r.in...) }

func (r *CellRule) Writes() []string { return append([]string(nil), r.out...) }

// Apply runs the cell function over every simulated cell.
func (r *CellRule) Apply(t *Tick) error {
	ins := make([][]float64, len(r.in))
	for i, name := range r.in {
		ins[i] = t.In(name).Values()
	}
	outs := make([][]float64, len(r.out))
	for i, name := range r.out {
		outs[i] = t.Out(name).Values()
	}
	inVals := make([]float64, len(ins))
	outVals := make([]float64, len(outs))
	t.ForEach(func(x, y, idx int) {
		for i, g := range ins {
			inVals[i] = g[idx]
		}
		for i, g := range outs {
			outVals[i] = g[idx]
		}
		r.fn(t, inVals, outVals)
		for i, g := range outs {
			g[idx] = outVals[i]
		}
	})
	return nil
}

// Chain fuses an ordered list of rules into one pipeline stage. The members
// share a single next buffer, so additive writers compose in declaration
// order; semantics match applying the members in order against the same
// current snapshot.
type Chain struct {
	name  string
	rules []Rule
}

// NewChain builds a fused stage from the given rules.
func NewChain(name string, rules ...Rule) *Chain {
	return &Chain{name: name, rules: rules}
}

func (c *Chain) Name() string { return c.name }

func (c *Chain) Reads() []string { return c.union(Rule.Reads) }

func (c *Chain) Writes() []string { return c.union(Rule.Writes) }

func (c *Chain) union(pick func(Rule) []string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range c.rules {
		for _, n := range pick(r) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// Apply runs each member in order against the shared buffers.
func (c *Chain) Apply(t *Tick) error {
	for _, r := range c.rules {
		if err := r.Apply(t); err != nil {
			return fmt.Errorf("chain %q: rule %q: %w", c.name, r.Name(), err)
		}
	}
	return nil
}
