// File: netsys/socket.go
// Author: momentics <momentics@gmail.com>
//
// Thin wrappers over the socket syscalls named in spec.md §6 ("Socket
// primitives"). Every call here surfaces a raw error suitable for
// api.WrapErrno at the caller's boundary.

//go:build !windows

package netsys

import (
	"golang.org/x/sys/unix"
)

// The four syscalls package fake injects failures into, per spec.md §2's
// "Test/Mocks surface" component (accept, listen, setsockopt,
// socketpair). Held as package variables — the Go analogue of the
// original's link-time syscall override — rather than a mock interface
// threaded through every call site.
var (
	sysAccept4       = unix.Accept4
	sysListen        = unix.Listen
	sysSetsockoptInt = unix.SetsockoptInt
	sysSocketpair    = unix.Socketpair
)

// NewSocket creates a non-blocking, close-on-exec socket of the given
// family/type/protocol.
func NewSocket(family, sotype, proto int) (Handle, error) {
	fd, err := unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return InvalidHandle, err
	}
	return Handle(fd), nil
}

// SetReuseAddr sets SO_REUSEADDR, per spec.md §4.5 step 2.
func SetReuseAddr(h Handle) error {
	return sysSetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

// Bind binds the socket to addr.
func Bind(h Handle, addr Address) error {
	return unix.Bind(int(h), addr.Sockaddr)
}

// Listen marks the socket as a listening socket with the given backlog.
func Listen(h Handle, backlog int) error {
	return sysListen(int(h), backlog)
}

// GetSockname returns the address actually bound to h, supporting
// ephemeral-port binds per spec.md §4.5 step 4.
func GetSockname(h Handle) (Address, error) {
	sa, err := unix.Getsockname(int(h))
	if err != nil {
		return Address{}, err
	}
	return SockaddrToAddress(sa), nil
}

// Shutdown shuts down part of a full-duplex connection. how is one of
// unix.SHUT_RD, unix.SHUT_WR, unix.SHUT_RDWR.
func Shutdown(h Handle, how int) error {
	return unix.Shutdown(int(h), how)
}

// Close closes a raw descriptor. Prefer OwnedHandle.Close for descriptors
// with a single owner; this is for descriptors managed elsewhere (e.g. a
// freshly accepted connection not yet wrapped).
func Close(h Handle) error {
	return unix.Close(int(h))
}

// Accept accepts a pending connection, returning a non-blocking,
// close-on-exec handle for the peer plus its address.
func Accept(h Handle) (Handle, Address, error) {
	fd, sa, err := sysAccept4(int(h), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return InvalidHandle, Address{}, err
	}
	return Handle(fd), SockaddrToAddress(sa), nil
}

// Connect initiates a connection to addr. On a non-blocking socket this
// commonly returns EINPROGRESS, which callers should treat as
// "in flight" and wait for writability.
func Connect(h Handle, addr Address) error {
	return unix.Connect(int(h), addr.Sockaddr)
}

// Socketpair creates a connected pair of unix-domain stream sockets, used
// by wakeup.Channel as the interrupt self-pipe (spec.md §4.2).
func Socketpair(family, sotype, proto int) (Handle, Handle, error) {
	fds, err := sysSocketpair(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return InvalidHandle, InvalidHandle, err
	}
	return Handle(fds[0]), Handle(fds[1]), nil
}

// RecvMsg reads into msg.Buf, returning the byte count and, for datagram
// sockets, the sender's address. A zero-length read on a stream socket
// signals peer EOF per spec.md §4.5.
func RecvMsg(h Handle, msg *Message) (int, error) {
	n, from, err := unix.Recvfrom(int(h), msg.Buf, 0)
	if from != nil {
		msg.From = SockaddrToAddress(from)
	}
	return n, err
}

// SendMsg writes buf to h. If to is non-nil the write is a sendto (UDP);
// otherwise it is a plain, connection-oriented send. Uses no-SIGPIPE
// semantics (platform-specific, see nosigpipe_*.go) matching spec.md
// §4.2's "writes use no SIGPIPE semantics" for the wakeup channel and
// steady-state sends alike.
func SendMsg(h Handle, buf []byte, to *Address) (int, error) {
	var dest unix.Sockaddr
	if to != nil {
		dest = to.Sockaddr
	}
	if err := unix.Sendto(int(h), buf, sendFlags, dest); err != nil {
		return 0, err
	}
	return len(buf), nil
}
