// Package api
// Author: momentics <momentics@gmail.com>
//
// Capability-set interfaces for user services plugged into tcpsvc/udpsvc,
// per the "explicit capability set consumed by generic code" redesign
// flag in spec.md §9: a user handler type opts into Initializer/Stopper
// by implementing the matching method; the skeleton probes for each via a
// type assertion rather than requiring a fat interface. SignalHandler is
// implemented by the skeletons themselves and probed by evloop.Host on the
// service it drives; a user handler's own HandleSignal is not called.

package api

import "github.com/momentics/evcore/netsys"

// Initializer is an optional capability. A handler implementing it is
// given the chance to configure the freshly created socket (e.g. socket
// options) after SO_REUSEADDR is set and before it is bound.
type Initializer interface {
	Initialize(h netsys.Handle) error
}

// Stopper is an optional capability. A handler implementing it is
// notified once when the owning skeleton stops.
type Stopper interface {
	Stop()
}

// SignalHandler is an optional capability of an evloop.Service (the
// tcpsvc and udpsvc skeletons implement it). A service implementing it
// observes mailbox bits (Terminate, User1) delivered to the loop, per
// spec.md §4.3.
type SignalHandler interface {
	HandleSignal(bit uint)
}
