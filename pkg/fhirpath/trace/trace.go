// Package trace defines the TraceProvider interface consumed by the
// `trace()` built-in (spec.md §6.3) plus two default sinks: a no-op
// sink and a buffering sink for tests/tooling to inspect after
// evaluation. Grounded on the teacher's funcs/utility.go TraceLogger,
// generalised from a single global logger to an injectable per-engine
// collaborator so concurrent evaluations don't share mutable state.
package trace

import (
	"sync"
	"time"
)

// Entry is one trace() call record.
type Entry struct {
	Timestamp  time.Time
	Name       string
	Input      []string // String() of each item in the traced collection
	Projection []string // String() of each item in the optional selector projection
}

// Provider receives trace records. The engine never blocks evaluation
// on Provider behavior beyond the call itself — trace() always returns
// its input unchanged regardless of what the sink does with it.
type Provider interface {
	Trace(Entry)
}

// NoopProvider discards every trace record. This is the default sink
// (spec.md §9 favors silence in production absent explicit opt-in).
type NoopProvider struct{}

// Trace implements Provider by doing nothing.
func (NoopProvider) Trace(Entry) {}

// BufferingProvider accumulates trace records in memory for later
// inspection (tests, REPLs, debugging tools).
type BufferingProvider struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBufferingProvider creates an empty buffering sink.
func NewBufferingProvider() *BufferingProvider {
	return &BufferingProvider{}
}

// Trace appends entry to the buffer.
func (p *BufferingProvider) Trace(entry Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

// Entries returns a snapshot of all buffered trace records in order.
func (p *BufferingProvider) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Reset clears the buffer.
func (p *BufferingProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
}
