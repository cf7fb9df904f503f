// File: udpsvc/service_test.go
// Author: momentics <momentics@gmail.com>
//
// Grounded on spec.md §8 P9 and end-to-end scenario 2 (UDP echo v4+v6).

package udpsvc_test

import (
	"net"
	"testing"
	"time"

	"github.com/momentics/evcore/control"
	"github.com/momentics/evcore/evloop"
	"github.com/momentics/evcore/netsys"
	"github.com/momentics/evcore/reactor"
	"github.com/momentics/evcore/udpsvc"
)

type echoHandler struct{}

func (echoHandler) Service(ctx *evloop.Context, dialog *reactor.Dialog, rc *netsys.ReadContext, data []byte) {
	if len(data) == 0 {
		_ = udpsvc.SubmitRecv(dialog)
		return
	}
	_, _ = netsys.SendMsg(dialog.FD(), data, &rc.Msg.From)
	_ = udpsvc.SubmitRecv(dialog)
}

func startEcho(t *testing.T, network, bindAddr string) (*evloop.Host, netsys.Address) {
	t.Helper()
	svc, err := udpsvc.New(network, bindAddr, echoHandler{}, control.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := evloop.NewHost(control.NopLogger(), nil)
	if err := h.Start(func(ctx *evloop.Context) (evloop.Service, error) { return svc, nil }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.Stop)
	return h, svc.Address()
}

func TestUDPEchoRoundTripV4(t *testing.T) {
	_, addr := startEcho(t, "udp4", "127.0.0.1:0")

	conn, err := net.DialTimeout("udp4", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for c := byte('a'); c <= 'z'; c++ {
		if _, err := conn.Write([]byte{c}); err != nil {
			t.Fatalf("write %c: %v", c, err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 1)
		if _, err := conn.Read(buf); err != nil {
			t.Fatalf("read %c: %v", c, err)
		}
		if buf[0] != c {
			t.Fatalf("expected echo of %c, got %c", c, buf[0])
		}
	}
}

func TestUDPEchoRoundTripV6(t *testing.T) {
	_, addr := startEcho(t, "udp6", "[::1]:0")

	conn, err := net.DialTimeout("udp6", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for c := byte('a'); c <= 'z'; c++ {
		if _, err := conn.Write([]byte{c}); err != nil {
			t.Fatalf("write %c: %v", c, err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 1)
		if _, err := conn.Read(buf); err != nil {
			t.Fatalf("read %c: %v", c, err)
		}
		if buf[0] != c {
			t.Fatalf("expected echo of %c, got %c", c, buf[0])
		}
	}
}
