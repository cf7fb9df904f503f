// File: netsys/handle.go
// Author: momentics <momentics@gmail.com>
//
// Owned and borrowed socket descriptor primitives.

package netsys

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Handle is a raw OS socket descriptor. InvalidHandle denotes "no
// descriptor", mirroring spec.md's INVALID_SOCKET sentinel.
type Handle int32

// InvalidHandle is the sentinel value for "no descriptor".
const InvalidHandle Handle = -1

// Valid reports whether h refers to a real descriptor.
func (h Handle) Valid() bool { return h >= 0 }

// OwnedHandle wraps a Handle with idempotent, concurrency-safe Close.
// Any goroutine may call Close; the descriptor is held in an atomic.
type OwnedHandle struct {
	fd atomic.Int32
}

// NewOwnedHandle takes ownership of h.
func NewOwnedHandle(h Handle) *OwnedHandle {
	o := &OwnedHandle{}
	o.fd.Store(int32(h))
	return o
}

// Load returns the current descriptor without transferring ownership.
func (o *OwnedHandle) Load() Handle {
	return Handle(o.fd.Load())
}

// Take atomically transfers ownership out of o, leaving it InvalidHandle
// without closing the descriptor. Mirrors "moving transfers ownership".
func (o *OwnedHandle) Take() Handle {
	return Handle(o.fd.Swap(int32(InvalidHandle)))
}

// Close idempotently closes the underlying descriptor. A second call is a
// harmless no-op, per spec.md's "closing is idempotent".
func (o *OwnedHandle) Close() error {
	h := Handle(o.fd.Swap(int32(InvalidHandle)))
	if !h.Valid() {
		return nil
	}
	return unix.Close(int(h))
}

// ShutdownRead half-shuts the descriptor for reads without closing it, the
// mechanism by which a blocked accept()/recvmsg() is unblocked with an
// error while leaving the fd itself owned until Close is called.
func (o *OwnedHandle) ShutdownRead() error {
	h := o.Load()
	if !h.Valid() {
		return nil
	}
	return unix.Shutdown(int(h), unix.SHUT_RD)
}
