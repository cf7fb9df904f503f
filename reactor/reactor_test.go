// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>
//
// Exercises the Multiplexer contract directly (Emplace, WaitFor, Rearm,
// OnEmpty, Close) over a real AF_UNIX socketpair, independent of any
// evloop/tcpsvc/udpsvc wiring. Grounded on the teacher's
// reactor/reactor_linux.go tests for epoll registration lifecycle.

package reactor_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/netsys"
	"github.com/momentics/evcore/reactor"
)

func TestEmplaceFiresOnWriteThenRearm(t *testing.T) {
	a, b, err := netsys.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer netsys.Close(a)
	defer netsys.Close(b)

	mux, err := reactor.NewMultiplexer()
	if err != nil {
		t.Fatalf("NewMultiplexer: %v", err)
	}
	defer mux.Close()

	fired := make(chan reactor.EventMask, 4)
	var dialog *reactor.Dialog
	dialog, err = mux.Emplace(a, reactor.EventRead, func(mask reactor.EventMask) {
		fired <- mask
	})
	if err != nil {
		t.Fatalf("Emplace: %v", err)
	}

	if _, err := netsys.SendMsg(b, []byte("x"), nil); err != nil {
		t.Fatalf("SendMsg: %v", err)
	}

	if n, err := mux.WaitFor(1000); err != nil || n == 0 {
		t.Fatalf("WaitFor: n=%d err=%v", n, err)
	}
	select {
	case mask := <-fired:
		if mask&reactor.EventRead == 0 {
			t.Fatalf("expected EventRead, got %v", mask)
		}
	default:
		t.Fatal("callback did not fire")
	}

	// The dialog is one-shot: without Rearm, a second write must not
	// produce another callback invocation.
	if _, err := netsys.SendMsg(b, []byte("y"), nil); err != nil {
		t.Fatalf("SendMsg: %v", err)
	}
	if n, _ := mux.WaitFor(50); n != 0 {
		select {
		case <-fired:
			t.Fatal("dialog fired again without Rearm")
		default:
		}
	}

	if err := dialog.Rearm(reactor.EventRead); err != nil {
		t.Fatalf("Rearm: %v", err)
	}
	if n, err := mux.WaitFor(1000); err != nil || n == 0 {
		t.Fatalf("WaitFor after rearm: n=%d err=%v", n, err)
	}
	select {
	case <-fired:
	default:
		t.Fatal("callback did not fire after rearm")
	}
}

func TestOnEmptyFiresAfterClose(t *testing.T) {
	a, b, err := netsys.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer netsys.Close(b)

	mux, err := reactor.NewMultiplexer()
	if err != nil {
		t.Fatalf("NewMultiplexer: %v", err)
	}
	defer mux.Close()

	dialog, err := mux.Emplace(a, reactor.EventRead, func(reactor.EventMask) {})
	if err != nil {
		t.Fatalf("Emplace: %v", err)
	}

	empty := mux.OnEmpty()
	select {
	case <-empty:
		t.Fatal("OnEmpty fired before any dialog was removed")
	default:
	}

	if err := dialog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_ = netsys.Close(a)

	select {
	case <-empty:
	case <-time.After(time.Second):
		t.Fatal("OnEmpty did not fire after the only dialog closed")
	}
}

func TestDialogRearmAfterCloseFails(t *testing.T) {
	a, b, err := netsys.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer netsys.Close(a)
	defer netsys.Close(b)

	mux, err := reactor.NewMultiplexer()
	if err != nil {
		t.Fatalf("NewMultiplexer: %v", err)
	}
	defer mux.Close()

	dialog, err := mux.Emplace(a, reactor.EventRead, func(reactor.EventMask) {})
	if err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	if err := dialog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := dialog.Rearm(reactor.EventRead); err != reactor.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
