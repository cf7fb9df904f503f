// File: netsys/inject.go
// Author: momentics <momentics@gmail.com>
//
// Fault-injection seam for the four syscalls named in spec.md §2's
// "Test/Mocks surface" component (accept, listen, setsockopt,
// socketpair) — grounded on original_source/tests/test_mock_*.cpp, which
// override the syscall at link time; the Go equivalent swaps a package
// variable, restorable by the caller. Package fake is the only intended
// caller outside tests in this package itself.

package netsys

import "golang.org/x/sys/unix"

// SetAcceptFunc replaces the accept4(2) implementation used by Accept,
// returning a function that restores the previous one.
func SetAcceptFunc(f func(fd, flags int) (int, unix.Sockaddr, error)) (restore func()) {
	prev := sysAccept4
	sysAccept4 = f
	return func() { sysAccept4 = prev }
}

// SetListenFunc replaces the listen(2) implementation used by Listen.
func SetListenFunc(f func(fd, backlog int) error) (restore func()) {
	prev := sysListen
	sysListen = f
	return func() { sysListen = prev }
}

// SetSetsockoptIntFunc replaces the setsockopt(2) implementation used by
// SetReuseAddr.
func SetSetsockoptIntFunc(f func(fd, level, opt, value int) error) (restore func()) {
	prev := sysSetsockoptInt
	sysSetsockoptInt = f
	return func() { sysSetsockoptInt = prev }
}

// SetSocketpairFunc replaces the socketpair(2) implementation used by
// Socketpair.
func SetSocketpairFunc(f func(domain, typ, proto int) ([2]int, error)) (restore func()) {
	prev := sysSocketpair
	sysSocketpair = f
	return func() { sysSocketpair = prev }
}
