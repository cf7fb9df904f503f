// File: udpsvc/service.go
// Author: momentics <momentics@gmail.com>
//
// Package udpsvc implements the UDP Receiver Handler skeleton of
// spec.md §4.6: "Same pattern [as TCP], simpler" — one bound datagram
// socket, one persistent receive loop, no accept/connection fan-out.
// Grounded on tcpsvc/service.go, trimmed to the single-socket case.
package udpsvc

import (
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/api"
	"github.com/momentics/evcore/evloop"
	"github.com/momentics/evcore/netsys"
	"github.com/momentics/evcore/reactor"
)

// Handler is the required capability of spec.md §4.6: called for each
// successful receive with len(data) > 0 (rc.Msg.From holds the sender),
// or with nil data on a receive error. The handler resubmits via
// SubmitRecv to keep receiving. Once terminate has requested scope stop, a
// receive error closes the dialog after the nil-data call and ends the
// receive loop.
type Handler interface {
	Service(ctx *evloop.Context, dialog *reactor.Dialog, rc *netsys.ReadContext, data []byte)
}

// Service is the UDP datagram skeleton, parameterized over H.
type Service[H Handler] struct {
	addr    netsys.Address
	handler H
	log     zerolog.Logger

	sockFD *netsys.OwnedHandle
	dialog *reactor.Dialog
	rc     *netsys.ReadContext
}

// New constructs a Service bound to network ("udp4"/"udp6") and address.
func New[H Handler](network, address string, handler H, log zerolog.Logger) (*Service[H], error) {
	addr, err := netsys.ResolveAddress(network, address)
	if err != nil {
		return nil, err
	}
	return &Service[H]{addr: addr, handler: handler, log: log}, nil
}

// Address returns the bound address, valid only after Start returns nil.
func (s *Service[H]) Address() netsys.Address {
	return s.addr
}

// Start implements evloop.Service, per spec.md §4.6's startup sequence.
func (s *Service[H]) Start(ctx *evloop.Context) error {
	fd, err := netsys.NewSocket(s.addr.Family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return api.WrapErrno("create datagram socket", err)
	}
	owned := netsys.NewOwnedHandle(fd)

	if err := netsys.SetReuseAddr(fd); err != nil {
		owned.Close()
		return api.WrapErrno("setsockopt SO_REUSEADDR", err)
	}
	if init, ok := any(s.handler).(api.Initializer); ok {
		if err := init.Initialize(fd); err != nil {
			owned.Close()
			return err
		}
	}
	if err := netsys.Bind(fd, s.addr); err != nil {
		owned.Close()
		return api.WrapErrno("bind", err)
	}
	actual, err := netsys.GetSockname(fd)
	if err != nil {
		owned.Close()
		return api.WrapErrno("getsockname", err)
	}
	s.addr = actual
	s.sockFD = owned
	s.rc = netsys.NewReadContext()

	cb := s.recvCallback(ctx)
	dialog, err := ctx.Mux.Emplace(fd, api.EventRead, cb)
	if err != nil {
		owned.Close()
		return api.WrapErrno("emplace datagram socket", err)
	}
	s.dialog = dialog
	ctx.Scope.Spawn()
	return nil
}

// HandleSignal implements api.SignalHandler: on terminate, half-shut the
// socket for reads, unblocking the pending receive, per spec.md §4.6.
func (s *Service[H]) HandleSignal(bit uint) {
	if bit != evloop.BitTerminate {
		return
	}
	if s.sockFD != nil {
		if err := s.sockFD.ShutdownRead(); err != nil {
			s.log.Debug().Err(err).Msg("udpsvc: shutdown datagram socket")
		}
	}
}

// Stop implements api.Stopper: invoke the user's optional Stop, then
// close the bound socket.
func (s *Service[H]) Stop() {
	if stopper, ok := any(s.handler).(api.Stopper); ok {
		stopper.Stop()
	}
	if s.sockFD != nil {
		s.sockFD.Close()
	}
}

func (s *Service[H]) recvCallback(ctx *evloop.Context) reactor.Callback {
	return func(reactor.EventMask) {
		s.rc.Reset()
		n, err := netsys.RecvMsg(s.sockFD.Load(), &s.rc.Msg)
		if err != nil {
			s.handler.Service(ctx, s.dialog, s.rc, nil)
			if ctx.Scope.StopRequested() {
				// terminate half-shut the socket: end the receive loop
				// and release its scope count so Run can drain.
				s.dialog.Close()
				ctx.Scope.Done()
			}
			return
		}
		s.handler.Service(ctx, s.dialog, s.rc, s.rc.Bytes(n))
	}
}

// SubmitRecv re-arms the datagram dialog for another receive, the Go
// realization of spec.md §4.6's "the user's handler eventually resubmits".
func SubmitRecv(dialog *reactor.Dialog) error {
	return dialog.Rearm(api.EventRead)
}
