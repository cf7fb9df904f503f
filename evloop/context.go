// File: evloop/context.go
// Author: momentics <momentics@gmail.com>
//
// Context is the Async Context of spec.md §4.3: it owns the multiplexer,
// timer wheel, async scope and signal mailbox, and exposes signal,
// interrupt, isr and run. Grounded on the teacher's server/facade run-loop
// shape, generalized from a websocket event pump to the mailbox+timer+
// multiplexer composite named by the spec.
package evloop

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/evcore/api"
	"github.com/momentics/evcore/control"
	"github.com/momentics/evcore/netsys"
	"github.com/momentics/evcore/reactor"
	"github.com/momentics/evcore/timers"
	"github.com/momentics/evcore/wakeup"
)

// Signal mailbox bit positions, per spec.md §3.
const (
	BitTerminate uint = 0
	BitUser1     uint = 1
)

func maskFor(bit uint) uint32 { return 1 << bit }

// Context owns the multiplexer, timer wheel, async scope and signal
// mailbox for one Service Host's loop thread.
type Context struct {
	Mux    api.Multiplexer
	Timers *timers.Wheel
	Scope  *Scope

	wake *wakeup.Channel

	sigMask atomic.Uint32

	log      zerolog.Logger
	recorder *control.Recorder
}

// NewContext wires a fresh multiplexer, wakeup channel and timer wheel
// into a Context. The timer wheel's interrupt callback pokes the wakeup
// channel so an armed timer always wakes a blocked multiplexer.
func NewContext(mux api.Multiplexer, wake *wakeup.Channel, log zerolog.Logger, rec *control.Recorder) *Context {
	c := &Context{
		Mux:      mux,
		Scope:    NewScope(),
		wake:     wake,
		log:      log,
		recorder: rec,
	}
	c.Timers = timers.New(func() { _ = c.Interrupt() })
	return c
}

// Signal ORs bit into the mailbox, then interrupts the multiplexer. One
// of the three cross-thread-safe entry points named in spec.md §5.
func (c *Context) Signal(bit uint) {
	c.sigMask.Or(maskFor(bit))
	if c.recorder != nil {
		c.recorder.Push("signal", bitName(bit))
	}
	_ = c.Interrupt()
}

// Interrupt pokes the wakeup channel. Cross-thread-safe.
func (c *Context) Interrupt() error {
	return c.wake.Interrupt()
}

// drainMailbox atomically exchanges the signal mailbox to zero, returning
// the bits that were set. Used by the canonical ISR body installed by
// Host (spec.md §4.4).
func (c *Context) drainMailbox() uint32 {
	return c.sigMask.Swap(0)
}

func bitName(bit uint) string {
	switch bit {
	case BitTerminate:
		return "terminate"
	case BitUser1:
		return "user1"
	default:
		return "unknown"
	}
}

// ISR installs a persistent readiness consumer on fd, per spec.md §4.3:
// emplace fd with the multiplexer, and on every readiness event call
// routine(); if it returns false, stop (let the dialog lapse unarmed);
// otherwise rearm for another event. Each iteration reinvokes the same
// routine — the Go realization of "the routine is moved into the
// continuation; each iteration owns its own copy" is simply a closure
// that captures routine once and calls it repeatedly.
func (c *Context) ISR(fd netsys.Handle, routine func() bool) (*reactor.Dialog, error) {
	c.Scope.Spawn()
	var dialog *reactor.Dialog
	cb := func(reactor.EventMask) {
		if !routine() {
			c.Scope.Done()
			return
		}
		if err := dialog.Rearm(api.EventRead); err != nil {
			c.log.Debug().Err(err).Msg("isr rearm failed")
			c.Scope.Done()
		}
	}
	d, err := c.Mux.Emplace(fd, api.EventRead, cb)
	if err != nil {
		c.Scope.Done()
		return nil, err
	}
	dialog = d
	return dialog, nil
}

// Run is the event loop of spec.md §4.3: arrange the scope's one-shot
// empty notification before entering the loop (per SPEC_FULL.md §10),
// then repeatedly resolve due timers, block the multiplexer until the
// next deadline or readiness, and exit once a wait reports no events and
// the scope has drained.
func (c *Context) Run() {
	empty := c.Scope.OnEmpty()
	for {
		d := c.Timers.Resolve()
		n, err := c.Mux.WaitFor(toMillis(d))
		if err != nil {
			c.log.Warn().Err(err).Msg("multiplexer wait error")
		}
		if n == 0 {
			select {
			case <-empty:
				return
			default:
			}
		}
	}
}

// toMillis converts a Resolve duration into the multiplexer's wait_for
// convention: -1 means block indefinitely, 0 means poll.
func toMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	return int(d / time.Millisecond)
}
