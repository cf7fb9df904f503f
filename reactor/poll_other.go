//go:build !linux && !windows

// File: reactor/poll_other.go
// Author: momentics <momentics@gmail.com>
//
// Grounded on the teacher's reactor/reactor_stub.go: the portable
// poll(2)-based fallback multiplexer used on platforms without a
// dedicated backend, with the same EPOLLONESHOT-equivalent one-shot
// arming as epoll_linux.go simulated by clearing interest after dispatch.
package reactor

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/netsys"
)

type pollEntry struct {
	interest EventMask
	cb       Callback
}

type pollMultiplexer struct {
	mu      sync.Mutex
	entries map[netsys.Handle]*pollEntry

	live        atomic.Int64
	onEmptyCh   chan struct{}
	onEmptyOnce sync.Once
	closed      atomic.Bool
}

// NewMultiplexer constructs the platform multiplexer for this build.
func NewMultiplexer() (Multiplexer, error) {
	return &pollMultiplexer{
		entries:   make(map[netsys.Handle]*pollEntry),
		onEmptyCh: make(chan struct{}),
	}, nil
}

func toPollEvents(interest EventMask) int16 {
	var e int16
	if interest&EventRead != 0 {
		e |= unix.POLLIN
	}
	if interest&EventWrite != 0 {
		e |= unix.POLLOUT
	}
	return e
}

func (m *pollMultiplexer) Emplace(fd netsys.Handle, interest EventMask, cb Callback) (*Dialog, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	m.mu.Lock()
	m.entries[fd] = &pollEntry{interest: interest, cb: cb}
	m.mu.Unlock()
	m.live.Add(1)
	return &Dialog{mux: m, fd: fd}, nil
}

func (m *pollMultiplexer) rearm(fd netsys.Handle, interest EventMask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[fd]
	if !ok {
		return ErrClosed
	}
	e.interest = interest
	return nil
}

func (m *pollMultiplexer) remove(fd netsys.Handle) error {
	m.mu.Lock()
	_, existed := m.entries[fd]
	delete(m.entries, fd)
	m.mu.Unlock()
	if !existed {
		return nil
	}
	if n := m.live.Add(-1); n == 0 {
		m.onEmptyOnce.Do(func() { close(m.onEmptyCh) })
	}
	return nil
}

func (m *pollMultiplexer) WaitFor(millis int) (int, error) {
	m.mu.Lock()
	fds := make([]unix.PollFd, 0, len(m.entries))
	order := make([]netsys.Handle, 0, len(m.entries))
	for fd, e := range m.entries {
		if e.interest == 0 {
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(e.interest)})
		order = append(order, fd)
	}
	m.mu.Unlock()

	if len(fds) == 0 {
		// nothing armed; still honor the wait so callers retain timer
		// cadence even with no active descriptors.
		if millis > 0 {
			unix.Poll(nil, millis)
		}
		return 0, nil
	}

	_, err := unix.Poll(fds, millis)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	fired := 0
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		fd := order[i]
		var mask EventMask
		if pfd.Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 {
			mask |= EventRead
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			mask |= EventWrite
		}

		m.mu.Lock()
		e, ok := m.entries[fd]
		if ok {
			e.interest = 0 // one-shot: consumed until Rearm
		}
		m.mu.Unlock()

		if ok && e.cb != nil {
			e.cb(mask)
			fired++
		}
	}
	return fired, nil
}

func (m *pollMultiplexer) OnEmpty() <-chan struct{} { return m.onEmptyCh }

func (m *pollMultiplexer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	return nil
}
