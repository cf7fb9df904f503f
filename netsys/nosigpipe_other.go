// File: netsys/nosigpipe_other.go
// Author: momentics <momentics@gmail.com>
//
// BSD/Darwin lack MSG_NOSIGNAL; SIGPIPE suppression is a socket option
// applied once at socket creation instead.

//go:build !linux && !windows

package netsys

import "golang.org/x/sys/unix"

const sendFlags = 0

// SetNoSigPipe sets SO_NOSIGPIPE so writes to a peer-closed socket return
// EPIPE instead of raising SIGPIPE.
func SetNoSigPipe(h Handle) error {
	return unix.SetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1)
}
