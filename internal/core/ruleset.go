package core

import "fmt"

// Ruleset is the immutable pipeline for one run: ordered rules, the initial
// grid set, the calendar timestep, and the scan strategy. One instance drives
// exactly one run; parallel replicates each build their own from the same
// read-only configuration.
type Ruleset struct {
	rules  []Rule
	init   *GridSet
	dt     float64
	sparse bool
	radius int
}

// RulesetOption adjusts ruleset construction.
type RulesetOption func(*Ruleset)

// WithSparseActivity enables the active-set scan strategy. The tracked
// radius must cover the largest kernel radius in the pipeline or newly
// reachable cells would be silently missed; NewRuleset enforces this.
func WithSparseActivity(radius int) RulesetOption {
	return func(rs *Ruleset) {
		rs.sparse = true
		rs.radius = radius
	}
}

// radiused is implemented by rules whose writes reach beyond their cell.
type radiused interface {
	Radius() int
}

// NewRuleset validates the pipeline against the initial grid set and returns
// an immutable ruleset. Every declared grid name must exist, the timestep
// must be positive, and a sparse activity radius must cover every kernel.
func NewRuleset(init *GridSet, dt float64, rules []Rule, opts ...RulesetOption) (*Ruleset, error) {
	if init == nil {
		return nil, fmt.Errorf("%w: ruleset needs an initial grid set", ErrConfiguration)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: timestep %g", ErrConfiguration, dt)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: ruleset needs at least one rule", ErrConfiguration)
	}
	rs := &Ruleset{
		rules: append([]Rule(nil), rules...),
		init:  init,
		dt:    dt,
	}
	for _, opt := range opts {
		opt(rs)
	}
	maxRadius := 0
	for _, r := range rs.rules {
		for _, name := range r.Reads() {
			if !init.Has(name) {
				return nil, fmt.Errorf("%w: rule %q reads unknown grid %q", ErrConfiguration, r.Name(), name)
			}
		}
		for _, name := range r.Writes() {
			if !init.Has(name) {
				return nil, fmt.Errorf("%w: rule %q writes unknown grid %q", ErrConfiguration, r.Name(), name)
			}
		}
		if rr, ok := r.(radiused); ok && rr.Radius() > maxRadius {
			maxRadius = rr.Radius()
		}
	}
	if rs.sparse && rs.radius < maxRadius {
		return nil, fmt.Errorf("%w: activity radius %d below largest kernel radius %d",
			ErrConfiguration, rs.radius, maxRadius)
	}
	if !rs.sparse {
		rs.radius = maxRadius
	}
	return rs, nil
}

// Rules returns the pipeline in application order.
func (rs *Ruleset) Rules() []Rule { return rs.rules }

// Init returns the initial grid set.
func (rs *Ruleset) Init() *GridSet { return rs.init }

// Dt reports the calendar timestep in years.
func (rs *Ruleset) Dt() float64 { return rs.dt }

// Sparse reports whether the active-set scan strategy is enabled.
func (rs *Ruleset) Sparse() bool { return rs.sparse }

// Radius reports the activity dilation radius.
func (rs *Ruleset) Radius() int { return rs.radius }
