package analytics

import (
	"context"
	"sync"
)

// Recorder keeps every event in memory. Useful for tests and local demos.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a Sink backed by an in-memory Recorder.
func NewRecorder() (*Recorder, *EmitterSink) {
	r := &Recorder{}
	return r, FromEmitter(r, nil)
}

// Emit stores e.
func (r *Recorder) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named returns the recorded events with the given name.
func (r *Recorder) Named(name EventName) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
