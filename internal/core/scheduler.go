package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State enumerates the scheduler lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Scheduler owns one run: it advances simulated time by applying the ruleset
// in order over the simulated cells, double-buffering every write, and emits
// one snapshot per tick. It is a sequential state machine; rules never see
// another rule's in-progress writes because each output grid is staged in
// the next buffer and swapped only after its rule completes.
type Scheduler struct {
	rs      *Ruleset
	sink    Sink
	rng     *RNG
	curr    *GridSet
	next    *GridSet
	written []string
	active  *ActiveSet

	mu     sync.Mutex
	cond   *sync.Cond
	state  State
	paused bool
	step   int
}

// NewScheduler validates the ruleset, initializes the double buffers from
// the initial grid set, and returns an Uninitialized scheduler. The sink may
// be nil when no consumer wants the snapshot stream.
func NewScheduler(rs *Ruleset, seed int64, sink Sink) (*Scheduler, error) {
	if rs == nil {
		return nil, fmt.Errorf("%w: scheduler needs a ruleset", ErrConfiguration)
	}
	curr := rs.Init().Clone()
	if err := curr.CheckDomain(0); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	s := &Scheduler{
		rs:   rs,
		sink: sink,
		rng:  NewRNG(seed),
		curr: curr,
		next: rs.Init().Clone(),
	}
	s.cond = sync.NewCond(&s.mu)
	seen := make(map[string]bool)
	for _, r := range rs.Rules() {
		for _, name := range r.Writes() {
			if !seen[name] {
				seen[name] = true
				s.written = append(s.written, name)
			}
		}
	}
	if rs.Sparse() {
		s.active = newActiveSet(curr.W(), curr.H())
		s.active.rebuild(curr, s.written, rs.Radius())
	}
	return s, nil
}

// Run advances the clock by the given number of ticks, emitting one snapshot
// each, then completes. Cancellation is cooperative: the context is checked
// only at tick boundaries, so every tick finishes atomically. A domain
// violation aborts the run and preserves the snapshots already emitted.
func (s *Scheduler) Run(ctx context.Context, steps int) error {
	return s.run(ctx, steps, nil)
}

// RunPaced behaves like Run but holds the loop to the given ticks-per-second
// rate, for live headless runs.
func (s *Scheduler) RunPaced(ctx context.Context, steps, tps int) error {
	return s.run(ctx, steps, NewFixedStep(tps))
}

func (s *Scheduler) run(ctx context.Context, steps int, pace *FixedStep) error {
	if steps < 0 {
		return fmt.Errorf("%w: negative step count %d", ErrConfiguration, steps)
	}
	s.mu.Lock()
	if s.state != StateUninitialized {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start a run from %s", ErrState, st)
	}
	s.state = StateRunning
	s.mu.Unlock()
	s.emit()
	for i := 0; i < steps; i++ {
		if err := s.waitWhilePaused(ctx); err != nil {
			return err
		}
		if ctx != nil && ctx.Err() != nil {
			s.setState(StateCancelled)
			return ErrCancelled
		}
		if pace != nil {
			for !pace.ShouldStep() {
				time.Sleep(time.Millisecond)
			}
		}
		if err := s.tickOnce(); err != nil {
			s.setState(StateFailed)
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCancelled {
		return ErrCancelled
	}
	s.state = StateCompleted
	return nil
}

// Tick advances a single step. Frame-paced front-ends drive the run with it
// instead of Run; the first call transitions out of Uninitialized.
func (s *Scheduler) Tick() error {
	s.mu.Lock()
	switch s.state {
	case StateUninitialized:
		s.state = StateRunning
		s.mu.Unlock()
		s.emit()
	case StateRunning, StatePaused:
		s.mu.Unlock()
	default:
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot tick from %s", ErrState, st)
	}
	if err := s.tickOnce(); err != nil {
		s.setState(StateFailed)
		return err
	}
	return nil
}

// Pause suspends ticking at the next tick boundary without touching the
// buffers.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.state == StateUninitialized || s.state == StateRunning || s.state == StatePaused {
		s.paused = true
	}
	s.mu.Unlock()
}

// Resume releases a paused run.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Cancel stops the run cleanly. Snapshots already emitted stay valid.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	if s.state == StateUninitialized || s.state == StateRunning || s.state == StatePaused {
		s.state = StateCancelled
		s.paused = false
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Step reports the number of completed ticks.
func (s *Scheduler) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Current exposes the live committed buffers. They are owned by the
// scheduler for the duration of the run; callers read them only between
// ticks.
func (s *Scheduler) Current() *GridSet { return s.curr }

// ActiveCells reports the size of the sparse active set, or -1 when the
// full-scan strategy is in use.
func (s *Scheduler) ActiveCells() int {
	if s.active == nil {
		return -1
	}
	return s.active.Count()
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) waitWhilePaused(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused {
		if ctx != nil && ctx.Err() != nil {
			s.paused = false
			s.state = StateCancelled
			return ErrCancelled
		}
		s.state = StatePaused
		s.cond.Wait()
	}
	if s.state == StateCancelled {
		return ErrCancelled
	}
	if s.state == StatePaused {
		s.state = StateRunning
	}
	return nil
}

func (s *Scheduler) emit() {
	if s.sink == nil {
		return
	}
	s.sink.Emit(s.curr.Snapshot(s.step, float64(s.step)*s.rs.Dt()))
}

// tickOnce applies every rule in declared order. For each rule the written
// grids are staged as copies of the committed state, the rule applies, and
// the staged grids swap in; later rules therefore see the fully committed
// output of earlier ones.
func (s *Scheduler) tickOnce() error {
	t := Tick{
		Step:   s.step,
		Dt:     s.rs.Dt(),
		RNG:    s.rng,
		curr:   s.curr,
		next:   s.next,
		mask:   s.curr.Mask(),
		active: s.active,
		radius: s.rs.Radius(),
	}
	for _, r := range s.rs.Rules() {
		writes := r.Writes()
		for _, name := range writes {
			copy(s.next.Grid(name).data, s.curr.Grid(name).data)
		}
		if err := r.Apply(&t); err != nil {
			return fmt.Errorf("step %d: rule %q: %w", s.step, r.Name(), err)
		}
		for _, name := range writes {
			a, b := s.curr.Grid(name), s.next.Grid(name)
			a.data, b.data = b.data, a.data
		}
	}
	if err := s.curr.CheckDomain(s.step); err != nil {
		return err
	}
	s.mu.Lock()
	s.step++
	s.mu.Unlock()
	if s.rs.Sparse() {
		s.active.rebuild(s.curr, s.written, s.rs.Radius())
	}
	s.emit()
	return nil
}
