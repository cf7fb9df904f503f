// File: tcpsvc/service.go
// Author: momentics <momentics@gmail.com>
//
// Package tcpsvc implements the TCP Acceptor/Stream Handler skeleton of
// spec.md §4.5: the listening socket lifecycle, accept loop, and
// per-connection read loop, generic over a user-supplied stream handler.
// Grounded on the teacher's server facade accept/read-loop pair,
// generalized from websocket framing to the spec's bytes-in/bytes-out
// contract, and on the capability-set redesign flag of spec.md §9
// (expressed here as Go generics over a constraint interface rather than
// inheritance, matching the original's template-parameterized mixin).
package tcpsvc

import (
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/momentics/evcore/api"
	"github.com/momentics/evcore/evloop"
	"github.com/momentics/evcore/netsys"
	"github.com/momentics/evcore/reactor"
)

// Handler is the required capability of spec.md §4.5: called once with
// nil data right after a connection is accepted (its dialog is already
// armed for the first read), then for each successful read with
// len(data) > 0, and with nil data once more when the connection closes
// (peer EOF or a steady-state I/O error). The handler is responsible for
// eventually calling SubmitRecv to keep the connection alive, or letting
// it lapse to close it.
type Handler interface {
	Service(ctx *evloop.Context, dialog *reactor.Dialog, rc *netsys.ReadContext, data []byte)
}

// Service is the TCP acceptor/stream skeleton, parameterized over H the
// same way the original's async_tcp_service<StreamHandler, Size> template
// is parameterized over its mixin.
type Service[H Handler] struct {
	network string
	addr    netsys.Address
	handler H
	log     zerolog.Logger

	listenFD *netsys.OwnedHandle
}

// New constructs a Service bound to network ("tcp4"/"tcp6") and address
// ("host:port"; port 0 for an ephemeral bind), driven by handler.
func New[H Handler](network, address string, handler H, log zerolog.Logger) (*Service[H], error) {
	addr, err := netsys.ResolveAddress(network, address)
	if err != nil {
		return nil, err
	}
	return &Service[H]{network: network, addr: addr, handler: handler, log: log}, nil
}

// Address returns the bound address, valid only after Start returns nil
// (it reflects the actual ephemeral port per spec.md §4.5 step 4).
func (s *Service[H]) Address() netsys.Address {
	return s.addr
}

// Start implements evloop.Service, per spec.md §4.5's startup sequence.
func (s *Service[H]) Start(ctx *evloop.Context) error {
	fd, err := netsys.NewSocket(s.addr.Family, unix.SOCK_STREAM, 0)
	if err != nil {
		return api.WrapErrno("create listening socket", err)
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
	if err := netsys.Listen(fd, unix.SOMAXCONN); err != nil {
		owned.Close()
		return api.WrapErrno("listen", err)
	}

	s.listenFD = owned
	return s.spawnAccept(ctx)
}

// HandleSignal implements api.SignalHandler: on terminate, half-shut the
// listening descriptor for reads, unblocking the pending accept with an
// error so the accept chain drains, per spec.md §4.5's termination rule.
func (s *Service[H]) HandleSignal(bit uint) {
	if bit != evloop.BitTerminate {
		return
	}
	if s.listenFD != nil {
		if err := s.listenFD.ShutdownRead(); err != nil {
			s.log.Debug().Err(err).Msg("tcpsvc: shutdown listening socket")
		}
	}
}

// Stop implements api.Stopper: invoke the user's optional Stop, then
// close the listening descriptor.
func (s *Service[H]) Stop() {
	if stopper, ok := any(s.handler).(api.Stopper); ok {
		stopper.Stop()
	}
	if s.listenFD != nil {
		s.listenFD.Close()
	}
}

// spawnAccept installs the self-reposting accept chain of spec.md §4.5:
// on success, stage a read context and let the user service arrange its
// first read; on error, drop the chain silently and let the scope drain.
func (s *Service[H]) spawnAccept(ctx *evloop.Context) error {
	routine := func() bool {
		connFD, peer, err := netsys.Accept(s.listenFD.Load())
		if err != nil {
			s.log.Debug().Err(err).Msg("tcpsvc: accept")
			return false
		}
		rc := netsys.NewReadContext()
		rc.Msg.From = peer
		s.spawnConnection(ctx, connFD, rc)
		return true
	}
	_, err := ctx.ISR(s.listenFD.Load(), routine)
	if err != nil {
		return api.WrapErrno("emplace listening socket", err)
	}
	return nil
}

// spawnConnection registers the accepted descriptor once for read
// readiness; the callback is stable for the connection's lifetime, so
// "submit_recv" (spec.md §4.5) is simply re-arming the same dialog.
func (s *Service[H]) spawnConnection(ctx *evloop.Context, fd netsys.Handle, rc *netsys.ReadContext) {
	owned := netsys.NewOwnedHandle(fd)
	var dialog *reactor.Dialog

	cb := func(reactor.EventMask) {
		rc.Reset()
		n, err := netsys.RecvMsg(owned.Load(), &rc.Msg)
		switch {
		case err != nil:
			s.handler.Service(ctx, dialog, rc, nil)
			dialog.Close()
			owned.Close()
			ctx.Scope.Done()
		case n == 0:
			s.handler.Service(ctx, dialog, rc, nil)
			dialog.Close()
			owned.Close()
			ctx.Scope.Done()
		default:
			s.handler.Service(ctx, dialog, rc, rc.Bytes(n))
			// the handler resubmits via SubmitRecv; if it chose
			// not to, the dialog simply stays unarmed and the scope
			// count for this connection is released when SubmitRecv is
			// never called again and the connection is abandoned by the
			// handler closing it directly.
		}
	}

	d, err := ctx.Mux.Emplace(fd, api.EventRead, cb)
	if err != nil {
		owned.Close()
		return
	}
	dialog = d
	ctx.Scope.Spawn()
	s.handler.Service(ctx, dialog, rc, nil)
}

// SubmitRecv re-arms dialog for another read, the Go realization of
// spec.md §4.5's "by convention the user calls back into submit_recv".
func SubmitRecv(dialog *reactor.Dialog) error {
	return dialog.Rearm(api.EventRead)
}
