// File: fake/syscalls.go
// Author: momentics <momentics@gmail.com>
//
// Package fake is the "Test/Mocks surface" of spec.md §2: injection
// points for failing syscalls (accept, listen, setsockopt, socketpair),
// grounded on original_source/tests/test_mock_accept.cpp,
// test_mock_listen.cpp, test_mock_setsockopt.cpp and
// test_mock_socketpair.cpp — each of which overrides one libc entry
// point to return a fixed errno. Here each failure is a scoped
// netsys.Set*Func call whose restore is left to the caller (typically via
// t.Cleanup).
package fake

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/netsys"
)

// FailAccept makes every subsequent Accept call fail with errno, per
// test_mock_accept.cpp's AcceptError scenario.
func FailAccept(errno unix.Errno) (restore func()) {
	return netsys.SetAcceptFunc(func(int, int) (int, unix.Sockaddr, error) {
		return -1, nil, errno
	})
}

// FailListen makes every subsequent Listen call fail with errno, per
// test_mock_listen.cpp.
func FailListen(errno unix.Errno) (restore func()) {
	return netsys.SetListenFunc(func(int, int) error {
		return errno
	})
}

// FailSetsockopt makes every subsequent SetReuseAddr call fail with
// errno, per test_mock_setsockopt.cpp's SetSockOptError scenario.
func FailSetsockopt(errno unix.Errno) (restore func()) {
	return netsys.SetSetsockoptIntFunc(func(int, int, int, int) error {
		return errno
	})
}

// FailSocketpair makes every subsequent Socketpair call fail with errno,
// per test_mock_socketpair.cpp.
func FailSocketpair(errno unix.Errno) (restore func()) {
	return netsys.SetSocketpairFunc(func(int, int, int) ([2]int, error) {
		return [2]int{-1, -1}, errno
	})
}
