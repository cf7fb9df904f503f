// Package api
// Author: momentics <momentics@gmail.com>
//
// External interfaces named in spec.md §6. The concrete backends live in
// package reactor (per SPEC_FULL.md §2's component table); api re-exports
// the contract so evloop/tcpsvc/udpsvc can depend on the abstraction
// without importing a specific backend.

package api

import "github.com/momentics/evcore/reactor"

// Multiplexer is the readiness-based I/O engine contract.
type Multiplexer = reactor.Multiplexer

// Dialog is a borrowed, multiplexer-registered handle to a descriptor.
type Dialog = reactor.Dialog

// EventMask names the readiness conditions a Dialog can be armed for.
type EventMask = reactor.EventMask

// Callback is invoked with the readiness mask observed for a Dialog.
type Callback = reactor.Callback

const (
	EventRead  = reactor.EventRead
	EventWrite = reactor.EventWrite
)
