// File: timers/wheel.go
// Author: momentics <momentics@gmail.com>
//
// Package timers implements the timer wheel of spec.md §4.1: an ordered
// min-heap of expiries with id reuse, arm/disarm flags, and periodic
// rescheduling. Grounded on the original implementation's
// net::timers::timers<Interrupt> (timers_impl.hpp) — lock released across
// handler invocation, armed-checks both before dispatch and after
// reschedule, LIFO free-id reuse deferred to the next Resolve sweep.
package timers

import (
	"container/heap"
	"sync"
	"time"
	"unsafe"
)

// ID identifies a timer. InvalidID is returned by Remove after it disarms
// an in-range id; an out-of-range id is returned unchanged.
type ID int

// InvalidID is the sentinel timer id, per spec.md §4.1.
const InvalidID ID = -1

// HandlerFunc is invoked with the firing timer's id.
type HandlerFunc func(id ID)

// event is the timer wheel's per-id record.
type event struct {
	handler HandlerFunc
	period  time.Duration // 0 => one-shot
	armed   bool
}

// eventRef is a queue entry; ordering is by expiresAt ascending.
type eventRef struct {
	expiresAt time.Time
	id        ID
}

// refHeap is a container/heap.Interface over eventRef ordered by expiresAt.
type refHeap []eventRef

func (h refHeap) Len() int           { return len(h) }
func (h refHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h refHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *refHeap) Push(x any)        { *h = append(*h, x.(eventRef)) }
func (h *refHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Wheel is a mutex-protected timer wheel. The zero value is not usable;
// construct with New.
type Wheel struct {
	mu      sync.Mutex
	events  []event
	queue   refHeap
	freeIDs []ID // LIFO stack

	// interrupt, if set, is poked whenever a new timer is armed, so a
	// blocked multiplexer wakes up to recompute its wait deadline.
	interrupt func()

	now func() time.Time // overridable for tests
}

// New constructs an empty Wheel. interrupt may be nil if the caller does
// not need wakeups on Add (e.g. in isolated unit tests).
func New(interrupt func()) *Wheel {
	return &Wheel{interrupt: interrupt, now: time.Now}
}

func (w *Wheel) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// Add arms a new timer firing at when, invoking handler, and — if period
// is non-zero — rearming every period thereafter. Never fails: an
// allocation failure is a fatal condition for the process, not a
// recoverable error, per spec.md §4.1.
func (w *Wheel) Add(when time.Time, handler HandlerFunc, period time.Duration) ID {
	w.mu.Lock()
	var id ID
	if n := len(w.freeIDs); n > 0 {
		id = w.freeIDs[n-1]
		w.freeIDs = w.freeIDs[:n-1]
	} else {
		id = ID(len(w.events))
		w.events = append(w.events, event{})
	}

	w.events[id] = event{
		handler: handler,
		period:  period,
		armed:   true,
	}
	heap.Push(&w.queue, eventRef{expiresAt: when, id: id})
	w.mu.Unlock()

	if w.interrupt != nil {
		w.interrupt()
	}
	return id
}

// AddAfter is a convenience wrapper converting a relative delay into an
// absolute deadline using the wheel's clock.
func (w *Wheel) AddAfter(delay time.Duration, handler HandlerFunc, period time.Duration) ID {
	return w.Add(w.clock().Add(delay), handler, period)
}

// Remove disarms the timer with the given id. If id is out of range, it
// is returned unchanged — "invalid id is a no-op whose return value tells
// the caller still invalid" (spec.md §4.1, P2). Otherwise InvalidID is
// returned, supporting the idiomatic `t = wheel.Remove(t)` self-erasing
// pattern.
func (w *Wheel) Remove(id ID) ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id < 0 || int(id) >= len(w.events) {
		return id
	}
	w.events[id].armed = false
	return InvalidID
}

// Resolve pops all heads whose expiry has passed, dispatches their
// handlers with the wheel's lock released, then reschedules periodic
// timers still armed and frees the ids of timers that will not fire
// again. Returns the duration until the new head's expiry, or -1 if the
// queue is left empty.
func (w *Wheel) Resolve() time.Duration {
	w.mu.Lock()
	due := w.dequeueDueLocked(w.clock())
	w.mu.Unlock()

	var rearm, free []eventRef
	for _, ref := range due {
		w.mu.Lock()
		armed := w.events[ref.id].armed
		handler := w.events[ref.id].handler
		w.mu.Unlock()

		if armed {
			handler(ref.id)
		}

		w.mu.Lock()
		if w.events[ref.id].period == 0 {
			w.events[ref.id].armed = false
		}
		if w.events[ref.id].armed {
			rearm = append(rearm, ref)
		} else {
			free = append(free, ref)
		}
		w.mu.Unlock()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ref := range rearm {
		next := eventRef{expiresAt: ref.expiresAt.Add(w.events[ref.id].period), id: ref.id}
		heap.Push(&w.queue, next)
	}
	for _, ref := range free {
		w.freeEventLocked(ref.id)
	}

	if w.queue.Len() == 0 {
		return -1
	}
	d := w.queue[0].expiresAt.Sub(w.clock())
	if d < 0 {
		d = 0
	}
	return d
}

// dequeueDueLocked pops all heap entries whose event is unarmed (freeing
// their id immediately) or whose expiry has passed (collecting them for
// dispatch), stopping at the first still-future, still-armed entry.
// Caller holds w.mu.
func (w *Wheel) dequeueDueLocked(now time.Time) []eventRef {
	var due []eventRef
	for w.queue.Len() > 0 {
		next := w.queue[0]
		if !w.events[next.id].armed {
			heap.Pop(&w.queue)
			w.freeEventLocked(next.id)
			continue
		}
		if now.Before(next.expiresAt) {
			break
		}
		due = append(due, next)
		heap.Pop(&w.queue)
	}
	return due
}

// freeEventLocked clears an event's handler and returns its id to the
// free list. Caller holds w.mu.
func (w *Wheel) freeEventLocked(id ID) {
	w.events[id].handler = nil
	w.freeIDs = append(w.freeIDs, id)
}

// Swap exchanges the state of two wheels, locking both mutexes in address
// order to avoid deadlock. A self-swap is a no-op, per spec.md §4.1.
func Swap(a, b *Wheel) {
	if a == b {
		return
	}
	first, second := a, b
	if uintptr(unsafe.Pointer(a)) > uintptr(unsafe.Pointer(b)) {
		first, second = b, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	a.events, b.events = b.events, a.events
	a.queue, b.queue = b.queue, a.queue
	a.freeIDs, b.freeIDs = b.freeIDs, a.freeIDs
	a.interrupt, b.interrupt = b.interrupt, a.interrupt
}
