// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor implements the Multiplexer external interface named in
// spec.md §6: platform-neutral readiness-based I/O multiplexing consumed
// by the evloop package. Grounded on the teacher's reactor.EventReactor /
// epoll_reactor.go shape, generalized from a raw callback-per-fd map to
// one-shot-armed Dialogs matching spec.md's "socket_dialog ... scoped to
// the dialog's lifetime" registration model.
package reactor

import (
	"errors"
	"sync/atomic"

	"github.com/momentics/evcore/netsys"
)

// EventMask names the readiness conditions a Dialog can be armed for.
type EventMask uint8

const (
	EventRead EventMask = 1 << iota
	EventWrite
)

// Callback is invoked with the readiness mask observed for a Dialog. A
// Dialog is one-shot armed: after Callback fires, the caller must call
// Dialog.Rearm to receive further notifications, mirroring the "persistent
// ISR as self-spawning chain" / "self-reposting handler" pattern of
// spec.md §9.
type Callback func(mask EventMask)

// ErrClosed is returned by operations on a Multiplexer or Dialog after
// Close has been called.
var ErrClosed = errors.New("reactor: closed")

// backend is the platform-specific half of Dialog's lifecycle, kept
// separate from the exported Multiplexer interface so Dialog can be a
// single concrete type shared by every backend.
type backend interface {
	rearm(fd netsys.Handle, interest EventMask) error
	remove(fd netsys.Handle) error
}

// Multiplexer is the external collaborator named in spec.md §6: the
// readiness engine (poll/epoll/kqueue abstraction).
type Multiplexer interface {
	// Emplace registers an already-open descriptor for the given
	// interest, returning a Dialog scoped to that registration.
	Emplace(fd netsys.Handle, interest EventMask, cb Callback) (*Dialog, error)

	// WaitFor blocks up to millis milliseconds (-1 = indefinite, 0 =
	// poll) and dispatches ready callbacks, returning the event count.
	WaitFor(millis int) (int, error)

	// OnEmpty returns a channel closed the first time the multiplexer
	// has no registered live dialogs.
	OnEmpty() <-chan struct{}

	// Close releases the underlying poller resource.
	Close() error
}

// Dialog is a borrowed, multiplexer-registered handle to a descriptor.
// It deregisters on Close, per the GLOSSARY's "Dialog" definition.
type Dialog struct {
	mux    backend
	fd     netsys.Handle
	closed atomic.Bool
}

// FD returns the underlying descriptor.
func (d *Dialog) FD() netsys.Handle { return d.fd }

// Rearm re-arms the dialog for another one-shot readiness notification.
func (d *Dialog) Rearm(interest EventMask) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.mux.rearm(d.fd, interest)
}

// Close deregisters the dialog. Idempotent.
func (d *Dialog) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.mux.remove(d.fd)
}
