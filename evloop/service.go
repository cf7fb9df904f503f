// File: evloop/service.go
// Author: momentics <momentics@gmail.com>

package evloop

// Service is the capability set a Host drives, per spec.md §9's "explicit
// capability set {initialize?, service, signal_handler, stop?}" redesign
// flag: Start is required. Host probes the Service via type assertion for
// api.SignalHandler and api.Stopper; the tcpsvc/udpsvc skeletons
// implement both and in turn probe the user's handler for
// api.Initializer and api.Stopper.
type Service interface {
	// Start runs on the loop thread, after the mailbox ISR has been
	// installed. It must bind/listen (or otherwise reach a ready state)
	// before returning nil; a non-nil error aborts startup.
	Start(ctx *Context) error
}
