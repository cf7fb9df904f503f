// File: timers/wheel_test.go
// Author: momentics <momentics@gmail.com>

package timers

import (
	"testing"
	"time"
)

// TestAddRemoveResolveReusesID exercises P1: after remove + resolve, a
// subsequent Add with the same deadline returns the same id.
func TestAddRemoveResolveReusesID(t *testing.T) {
	w := New(nil)
	base := time.Now()
	w.now = func() time.Time { return base }

	t0 := w.Add(base.Add(100*time.Millisecond), func(ID) {}, 0)
	if w.Remove(t0) != InvalidID {
		t.Fatalf("Remove on a live id must return InvalidID")
	}

	// advance the clock past t0's deadline and resolve, so the id
	// propagates onto the free list.
	w.now = func() time.Time { return base.Add(200 * time.Millisecond) }
	w.Resolve()

	t1 := w.Add(base.Add(100*time.Millisecond), func(ID) {}, 0)
	if t1 != t0 {
		t.Fatalf("expected reused id %d, got %d", t0, t1)
	}
}

// TestRemoveInvalidIDIsNoop exercises P2.
func TestRemoveInvalidIDIsNoop(t *testing.T) {
	w := New(nil)
	if got := w.Remove(42); got != 42 {
		t.Fatalf("Remove of never-issued id must return the id unchanged, got %d", got)
	}
}

// TestResolveOrdersByExpiry exercises P3.
func TestResolveOrdersByExpiry(t *testing.T) {
	w := New(nil)
	base := time.Now()
	w.now = func() time.Time { return base }

	var order []ID
	late := w.Add(base.Add(200*time.Millisecond), func(id ID) { order = append(order, id) }, 0)
	early := w.Add(base.Add(50*time.Millisecond), func(id ID) { order = append(order, id) }, 0)

	w.now = func() time.Time { return base.Add(300 * time.Millisecond) }
	w.Resolve()

	if len(order) != 2 || order[0] != early || order[1] != late {
		t.Fatalf("expected [%d %d], got %v", early, late, order)
	}
}

// TestPeriodicFiresRelativeToStart exercises P4: periodic expiries land at
// start + k*period without drifting off the schedule.
func TestPeriodicFiresRelativeToStart(t *testing.T) {
	w := New(nil)
	base := time.Now()
	w.now = func() time.Time { return base }

	var fires int
	w.Add(base.Add(10*time.Millisecond), func(ID) { fires++ }, 10*time.Millisecond)

	for k := 1; k <= 3; k++ {
		w.now = func() time.Time { return base.Add(time.Duration(k) * 10 * time.Millisecond) }
		w.Resolve()
	}
	if fires != 3 {
		t.Fatalf("expected 3 fires, got %d", fires)
	}
}

func TestResolveReturnsMinusOneWhenEmpty(t *testing.T) {
	w := New(nil)
	if d := w.Resolve(); d != -1 {
		t.Fatalf("expected -1 for empty wheel, got %v", d)
	}
}

func TestResolveFloorsAtZero(t *testing.T) {
	w := New(nil)
	base := time.Now()
	w.now = func() time.Time { return base }
	// the periodic timer's next expiry (base+6ms) is already behind the
	// clock after it fires, so the raw duration to the head is negative.
	w.Add(base.Add(5*time.Millisecond), func(ID) {}, time.Millisecond)
	w.Add(base.Add(1*time.Second), func(ID) {}, 0)

	w.now = func() time.Time { return base.Add(20 * time.Millisecond) }
	d := w.Resolve()
	if d != 0 {
		t.Fatalf("resolve must floor an overdue head at zero, got %v", d)
	}
}

// TestRemoveFromWithinHandlerSuppressesLaterEntry exercises the
// remove-races-resolve guarantee of spec.md §4.1: an id removed by an
// earlier handler in the same Resolve pass never has its own handler
// entered, since resolve rechecks armed immediately before dispatch.
func TestRemoveFromWithinHandlerSuppressesLaterEntry(t *testing.T) {
	w := New(nil)
	base := time.Now()
	w.now = func() time.Time { return base }

	var second ID
	var fires int
	w.Add(base.Add(10*time.Millisecond), func(ID) {
		fires++
		w.Remove(second)
	}, 0)
	second = w.Add(base.Add(10*time.Millisecond), func(ID) { fires++ }, 0)

	w.now = func() time.Time { return base.Add(20 * time.Millisecond) }
	w.Resolve()

	if fires != 1 {
		t.Fatalf("expected only the first handler to fire, got %d", fires)
	}
}

func TestAddPokesInterrupt(t *testing.T) {
	var pokes int
	w := New(func() { pokes++ })
	w.AddAfter(time.Second, func(ID) {}, 0)
	if pokes != 1 {
		t.Fatalf("expected Add to poke interrupt once, got %d", pokes)
	}
}

func TestSwapExchangesState(t *testing.T) {
	a := New(nil)
	b := New(nil)
	base := time.Now()
	a.now = func() time.Time { return base }

	id := a.Add(base.Add(time.Second), func(ID) {}, 0)
	Swap(a, b)

	if len(b.events) == 0 || !b.events[id].armed {
		t.Fatalf("expected timer to have moved to b")
	}
	if len(a.events) != 0 {
		t.Fatalf("expected a to be empty after swap")
	}

	// self-swap is a no-op
	Swap(b, b)
	if len(b.events) == 0 {
		t.Fatalf("self-swap must not clear state")
	}
}
