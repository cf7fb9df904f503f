// File: evloop/host.go
// Author: momentics <momentics@gmail.com>
//
// Host is the Service Host of spec.md §4.4: the thread-binding wrapper
// that constructs a user service on a dedicated, locked OS thread,
// performs the synchronous startup handshake, and guarantees drain-then-
// stop on teardown. Grounded on the teacher's server facade lifecycle
// (single goroutine owning a reactor, blocking Start/Stop), generalized
// from the websocket facade's start/stop pair to the spec's PENDING ->
// STARTED -> STOPPED state machine with an explicit startup error path.
package evloop

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/evcore/api"
	"github.com/momentics/evcore/control"
	"github.com/momentics/evcore/reactor"
	"github.com/momentics/evcore/timers"
	"github.com/momentics/evcore/wakeup"
)

// State is the Context state machine of spec.md §3: a one-way
// progression PENDING -> STARTED -> STOPPED.
type State int32

const (
	Pending State = iota
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Host owns the loop thread and the user service constructed on it.
type Host struct {
	log      zerolog.Logger
	recorder *control.Recorder
	ctrl     *control.Aggregator

	claimed atomic.Bool
	state   atomic.Int32

	ctxPtr atomic.Pointer[Context]
	done   chan struct{}
}

// NewHost constructs a Host ready for a single Start call. A nil recorder
// gets a small internal one so Control() always has an activity log to
// report, even when the caller doesn't care about it directly.
func NewHost(log zerolog.Logger, recorder *control.Recorder) *Host {
	if recorder == nil {
		recorder = control.NewRecorder(64)
	}
	return &Host{log: log, recorder: recorder, ctrl: control.NewAggregatorWithRecorder(recorder)}
}

// State reports the current lifecycle state.
func (h *Host) State() State {
	return State(h.state.Load())
}

// setState records the new state both in the atomic used by State() and
// in the Control-facing metrics registry, so Stats() reflects the same
// lifecycle Stop/State observe.
func (h *Host) setState(s State) {
	h.state.Store(int32(s))
	h.ctrl.Metrics.Set("state", s.String())
}

// Context returns the running Context, or nil before Start succeeds.
func (h *Host) Context() *Context {
	return h.ctxPtr.Load()
}

// Control returns the operator-facing config/metrics/debug surface for
// this Host, satisfying api.Control and api.Debug.
func (h *Host) Control() *control.Aggregator {
	return h.ctrl
}

// Start performs the synchronous handshake of spec.md §4.4: it must be
// called exactly once; a second call fails with ErrAlreadyStarted. It
// blocks until the loop thread has either bound/listening its service
// (success) or recorded a startup error.
func (h *Host) Start(newService func(ctx *Context) (Service, error)) error {
	if !h.claimed.CompareAndSwap(false, true) {
		return api.ErrAlreadyStarted
	}

	wake, err := wakeup.New()
	if err != nil {
		h.setState(Stopped)
		return api.WrapErrno("create wakeup channel", err)
	}

	h.done = make(chan struct{})
	ready := make(chan error, 1)
	go h.runLoopThread(newService, wake, ready)

	return <-ready
}

// Stop raises terminate and blocks until the loop thread has drained and
// joined, per spec.md §4.4's shutdown protocol. A Host that was never
// started, or failed to start, returns immediately.
func (h *Host) Stop() {
	ctx := h.ctxPtr.Load()
	if ctx == nil {
		return
	}
	ctx.Signal(BitTerminate)
	<-h.done
}

func (h *Host) runLoopThread(newService func(ctx *Context) (Service, error), wake *wakeup.Channel, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	mux, err := reactor.NewMultiplexer()
	if err != nil {
		_ = wake.CloseWrite()
		_ = wake.CloseRead()
		h.setState(Stopped)
		ready <- api.WrapErrno("create multiplexer", err)
		return
	}

	ctx := NewContext(mux, wake, h.log, h.recorder)
	h.ctxPtr.Store(ctx)

	svc, err := newService(ctx)
	if err != nil {
		_ = wake.CloseWrite()
		_ = mux.Close()
		h.setState(Stopped)
		ready <- api.NewError(api.ErrCodeServiceInitFailed, err.Error())
		return
	}

	if _, err := ctx.ISR(wake.ReadFD(), h.mailboxRoutine(ctx, svc)); err != nil {
		_ = wake.CloseWrite()
		_ = mux.Close()
		h.setState(Stopped)
		ready <- api.WrapErrno("install mailbox isr", err)
		return
	}

	if err := svc.Start(ctx); err != nil {
		// raise terminate and drain fully before telling the caller:
		// Start must not return until the outcome, including the
		// drain to Stopped, has actually happened, per spec.md §4.4.
		ctx.Signal(BitTerminate)
		ctx.Run()
		_ = wake.CloseWrite()
		_ = mux.Close()
		h.setState(Stopped)
		// keep the service's errno category (e.g. invalid-argument);
		// errors without one are reported as service-init-failed.
		startErr := api.WrapErrno("service start", err)
		if startErr.Code == api.ErrCodeInternal {
			startErr.Code = api.ErrCodeServiceInitFailed
		}
		ready <- startErr
		return
	}

	h.setState(Started)
	ready <- nil

	ctx.Run()

	if stopper, ok := any(svc).(api.Stopper); ok {
		stopper.Stop()
	}
	_ = wake.CloseWrite()
	_ = mux.Close()
	h.setState(Stopped)
}

// defaultNudgePeriod is the terminate-nudge period used unless the
// Host's Control().SetConfig overrides "terminate_nudge_period" with a
// positive time.Duration.
const defaultNudgePeriod = time.Second

// nudgePeriod reads the configured terminate-nudge period from the
// Control aggregator, so an operator can tighten or loosen how often
// the loop re-checks scope drain during shutdown.
func (h *Host) nudgePeriod() time.Duration {
	if v, ok := h.ctrl.GetConfig()["terminate_nudge_period"]; ok {
		if d, ok := v.(time.Duration); ok && d > 0 {
			return d
		}
	}
	return defaultNudgePeriod
}

// mailboxRoutine is the canonical ISR body of spec.md §4.4: drain the
// mailbox, dispatch signal_handler for each set bit, and on terminate
// request scope stop and arm a once-only periodic self-signal (see
// nudgePeriod) that keeps nudging the service until it drains.
func (h *Host) mailboxRoutine(ctx *Context, svc Service) func() bool {
	var nudgeArmed sync.Once
	return func() bool {
		if err := ctx.wake.Drain(); err != nil {
			h.log.Debug().Err(err).Msg("wakeup drain")
		}
		mask := ctx.drainMailbox()
		for _, bit := range [...]uint{BitTerminate, BitUser1} {
			if mask&maskFor(bit) == 0 {
				continue
			}
			h.ctrl.Metrics.Set("last_signal", bitName(bit))
			if sh, ok := any(svc).(api.SignalHandler); ok {
				sh.HandleSignal(bit)
			}
			if bit == BitTerminate {
				ctx.Scope.RequestStop()
				nudgeArmed.Do(func() {
					period := h.nudgePeriod()
					ctx.Timers.Add(time.Now().Add(period), func(timers.ID) {
						ctx.Signal(BitTerminate)
					}, period)
				})
			}
		}
		return !ctx.Scope.StopRequested()
	}
}
