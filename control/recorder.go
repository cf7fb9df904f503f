// control/recorder.go
// Author: momentics <momentics@gmail.com>
//
// Bounded recent-activity ring (Context.Signal records each raised
// signal in it), surfaced
// through DebugProbes.DumpState for tests and operators without
// instrumenting production code paths (SPEC_FULL.md §2 ambient stack).

package control

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Event is one recorded activity entry.
type Event struct {
	At   time.Time
	Kind string
	Note string
}

// Recorder keeps the last Capacity events in FIFO order, backed by
// github.com/eapache/queue's ring buffer rather than a hand-rolled slice.
type Recorder struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int
}

// NewRecorder constructs a Recorder retaining at most capacity events.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{q: queue.New(), capacity: capacity}
}

// Push records an event, evicting the oldest entry once capacity is
// exceeded.
func (r *Recorder) Push(kind, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.q.Add(Event{At: time.Now(), Kind: kind, Note: note})
	for r.q.Length() > r.capacity {
		r.q.Remove()
	}
}

// Snapshot returns a copy of the recorded events, oldest first.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, r.q.Length())
	for i := range out {
		out[i] = r.q.Get(i).(Event)
	}
	return out
}

// Probe adapts Snapshot to the api.Control/Debug probe function shape.
func (r *Recorder) Probe() any {
	return r.Snapshot()
}
