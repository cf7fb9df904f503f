// File: wakeup/channel.go
// Author: momentics <momentics@gmail.com>
//
// Package wakeup implements the interrupt channel of spec.md §4.2: a
// connected pair of unix-domain stream sockets used to poke a blocked
// multiplexer. Grounded on the original implementation's
// socketpair(AF_UNIX, SOCK_STREAM, 0, …) and the pack's self-pipe
// variants (github.com/joeycumines/go-utilpkg/eventloop's
// wakeup_linux.go/wakeup_darwin.go family).
package wakeup

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/netsys"
)

// Channel is a one-byte self-pipe: writing to the write end makes the
// read end readable. It has exactly one writer role (anyone signaling)
// and one reader role (the loop's ISR), per spec.md §4.2.
type Channel struct {
	readFD  netsys.Handle
	writeMu sync.Mutex
	writeFD *netsys.OwnedHandle
}

// New creates a connected socket pair and wraps it as a Channel.
func New() (*Channel, error) {
	r, w, err := netsys.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := netsys.SetNoSigPipe(w); err != nil {
		netsys.Close(r)
		netsys.Close(w)
		return nil, err
	}
	return &Channel{
		readFD:  r,
		writeFD: netsys.NewOwnedHandle(w),
	}, nil
}

// ReadFD returns the descriptor the caller should register with the
// multiplexer for readability.
func (c *Channel) ReadFD() netsys.Handle {
	return c.readFD
}

// Interrupt writes a single byte to the write end, unblocking the
// multiplexer. Safe to call concurrently and from any goroutine — this is
// one of the three cross-thread-safe operations named in spec.md §5.
func (c *Channel) Interrupt() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	fd := c.writeFD.Load()
	if !fd.Valid() {
		return nil
	}
	buf := [1]byte{1}
	_, err := netsys.SendMsg(fd, buf[:], nil)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		// the pipe is already "full" of pending wakeups; the reader
		// will still observe readiness, so this is not an error.
		return nil
	}
	return err
}

// Drain reads and discards any pending bytes on the read end. Called by
// the loop's ISR on every wakeup.
func (c *Channel) Drain() error {
	var buf [64]byte
	for {
		n, err := unix.Read(int(c.readFD), buf[:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
		if n < len(buf) {
			return nil
		}
	}
}

// CloseWrite closes the write end. This is the explicit teardown signal
// to the ISR that no further interrupts are coming, per spec.md §4.2 —
// the read end subsequently observes EOF.
func (c *Channel) CloseWrite() error {
	return c.writeFD.Close()
}

// CloseRead closes the read end. Called once the multiplexer has
// deregistered the dialog wrapping it.
func (c *Channel) CloseRead() error {
	return netsys.Close(c.readFD)
}
