package core

import (
	"sync"
	"sync/atomic"
)

// Snapshot is one emitted timestep: a deep copy of every grid, independently
// owned by the consumer once emitted.
type Snapshot struct {
	Step  int
	Time  float64 // years since the run started
	W, H  int
	Grids map[string][]float64
}

// Sink receives one snapshot per tick. Implementations must not block the
// scheduler; slow consumers buffer or drop.
type Sink interface {
	Emit(Snapshot)
}

// FuncSink adapts a function to the Sink interface.
type FuncSink func(Snapshot)

// Emit calls the wrapped function.
func (f FuncSink) Emit(s Snapshot) { f(s) }

// MemorySink retains every snapshot in order for in-memory batch analysis.
type MemorySink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Emit appends the snapshot.
func (m *MemorySink) Emit(s Snapshot) {
	m.mu.Lock()
	m.snaps = append(m.snaps, s)
	m.mu.Unlock()
}

// Snapshots returns the collected run in emission order.
func (m *MemorySink) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.snaps...)
}

// ChannelSink forwards snapshots over a buffered channel for streaming
// consumers such as a live viewer. When the buffer is full the snapshot is
// dropped and counted, keeping the per-tick critical path bounded.
type ChannelSink struct {
	ch      chan Snapshot
	dropped atomic.Int64
}

// NewChannelSink allocates a sink with the given buffer depth.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Snapshot, buffer)}
}

// Emit enqueues the snapshot, dropping it if the consumer lags.
func (c *ChannelSink) Emit(s Snapshot) {
	select {
	case c.ch <- s:
	default:
		c.dropped.Add(1)
	}
}

// C exposes the snapshot stream.
func (c *ChannelSink) C() <-chan Snapshot { return c.ch }

// Dropped reports how many snapshots were discarded.
func (c *ChannelSink) Dropped() int64 { return c.dropped.Load() }

// Close closes the stream once the run is over.
func (c *ChannelSink) Close() { close(c.ch) }
