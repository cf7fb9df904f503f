//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Grounded on the teacher's reactor/epoll_reactor.go and
// reactor/reactor_linux.go: an epoll(7) multiplexer, generalized from a
// persistent callback-per-fd map to EPOLLONESHOT-armed Dialogs.
package reactor

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/netsys"
)

type epollMultiplexer struct {
	epfd int

	mu        sync.Mutex
	callbacks map[netsys.Handle]Callback

	live        atomic.Int64
	onEmptyCh   chan struct{}
	onEmptyOnce sync.Once
	closed      atomic.Bool
}

// NewMultiplexer constructs the platform multiplexer for this build.
func NewMultiplexer() (Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMultiplexer{
		epfd:      epfd,
		callbacks: make(map[netsys.Handle]Callback),
		onEmptyCh: make(chan struct{}),
	}, nil
}

func toEpollEvents(interest EventMask) uint32 {
	e := uint32(unix.EPOLLONESHOT)
	if interest&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if interest&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func (m *epollMultiplexer) Emplace(fd netsys.Handle, interest EventMask, cb Callback) (*Dialog, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	m.mu.Lock()
	m.callbacks[fd] = cb
	m.mu.Unlock()

	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		m.mu.Lock()
		delete(m.callbacks, fd)
		m.mu.Unlock()
		return nil, err
	}
	m.live.Add(1)
	return &Dialog{mux: m, fd: fd}, nil
}

func (m *epollMultiplexer) rearm(fd netsys.Handle, interest EventMask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev)
}

func (m *epollMultiplexer) remove(fd netsys.Handle) error {
	err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	m.mu.Lock()
	delete(m.callbacks, fd)
	m.mu.Unlock()
	if n := m.live.Add(-1); n == 0 {
		m.onEmptyOnce.Do(func() { close(m.onEmptyCh) })
	}
	return err
}

func (m *epollMultiplexer) WaitFor(millis int) (int, error) {
	var events [128]unix.EpollEvent
	n, err := unix.EpollWait(m.epfd, events[:], millis)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := netsys.Handle(events[i].Fd)
		var mask EventMask
		if events[i].Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			mask |= EventRead
		}
		if events[i].Events&unix.EPOLLOUT != 0 {
			mask |= EventWrite
		}
		m.mu.Lock()
		cb := m.callbacks[fd]
		m.mu.Unlock()
		if cb != nil {
			cb(mask)
		}
	}
	return n, nil
}

func (m *epollMultiplexer) OnEmpty() <-chan struct{} { return m.onEmptyCh }

func (m *epollMultiplexer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(m.epfd)
}
