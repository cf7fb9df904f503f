// File: tcpsvc/fault_test.go
// Author: momentics <momentics@gmail.com>
//
// Grounded on spec.md §8 end-to-end scenarios 3 and 4 (failing
// setsockopt, failing accept), exercised through package fake's syscall
// injection rather than a link-time override.

package tcpsvc_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/control"
	"github.com/momentics/evcore/evloop"
	"github.com/momentics/evcore/fake"
	"github.com/momentics/evcore/tcpsvc"
)

// TestFailingSetsockoptRejectsStart exercises scenario 3: with setsockopt
// returning EINTR, Host.Start observes a startup error and no loop is
// left running.
func TestFailingSetsockoptRejectsStart(t *testing.T) {
	restore := fake.FailSetsockopt(unix.EINTR)
	defer restore()

	svc, err := tcpsvc.New("tcp4", "127.0.0.1:0", echoHandler{}, control.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := evloop.NewHost(control.NopLogger(), nil)
	err = h.Start(func(ctx *evloop.Context) (evloop.Service, error) { return svc, nil })
	if err == nil {
		t.Fatal("expected Start to fail")
	}
	if h.State() != evloop.Stopped {
		t.Fatalf("expected Stopped after a startup failure, got %v", h.State())
	}
}

// TestFailingAcceptDrainsQuickly exercises scenario 4: with accept
// returning EBADF, the accept chain drops silently and terminate drains
// within a handful of multiplexer wakes.
func TestFailingAcceptDrainsQuickly(t *testing.T) {
	restore := fake.FailAccept(unix.EBADF)
	defer restore()

	svc, err := tcpsvc.New("tcp4", "127.0.0.1:0", echoHandler{}, control.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := evloop.NewHost(control.NopLogger(), nil)
	if err := h.Start(func(ctx *evloop.Context) (evloop.Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		h.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for drain after accept failure")
	}
}
