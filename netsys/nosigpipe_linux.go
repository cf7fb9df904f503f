// File: netsys/nosigpipe_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux surfaces "no SIGPIPE" as a per-call send flag.

//go:build linux

package netsys

import "golang.org/x/sys/unix"

const sendFlags = unix.MSG_NOSIGNAL

// SetNoSigPipe is a no-op on Linux; MSG_NOSIGNAL is applied per send.
func SetNoSigPipe(h Handle) error { return nil }
