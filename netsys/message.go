// File: netsys/message.go
// Author: momentics <momentics@gmail.com>
//
// Read context: the fixed-size buffer + address slot shared by an
// in-flight receive chain and any continuation the user service spawns
// from it, per spec.md §3.

package netsys

// DefaultBufferSize is the default read-context buffer size (64 KiB),
// per spec.md §3.
const DefaultBufferSize = 64 * 1024

// Message is the mutable receive target: a span into a ReadContext's
// buffer plus the peer address filled in by RecvMsg for datagram sockets.
type Message struct {
	Buf  []byte
	From Address
}

// ReadContext owns a fixed-size byte buffer and the Message that reads
// into it. Ownership is a single reference handed down the continuation
// chain (accept/recv -> user Service -> resubmit); it is released when no
// chain references it, per spec.md §3 and §9's "single owner" guidance.
type ReadContext struct {
	buffer [DefaultBufferSize]byte
	Msg    Message
}

// NewReadContext allocates a fresh read context with its Message primed
// to read into the full buffer.
func NewReadContext() *ReadContext {
	rc := &ReadContext{}
	rc.Msg.Buf = rc.buffer[:]
	return rc
}

// Bytes returns the portion of the buffer holding the last n bytes read.
func (rc *ReadContext) Bytes(n int) []byte {
	return rc.buffer[:n]
}

// Reset rearms the Message to read into the full buffer again, clearing
// the previous sender address.
func (rc *ReadContext) Reset() {
	rc.Msg.Buf = rc.buffer[:]
	rc.Msg.From = Address{}
}
