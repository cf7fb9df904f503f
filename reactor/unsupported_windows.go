//go:build windows

// File: reactor/unsupported_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows is out of scope: the interrupt channel (wakeup.Channel) is
// built on an AF_UNIX socketpair, which Windows only exposes in a form
// not wired here. See DESIGN.md for the scoping decision.
package reactor

import "errors"

// NewMultiplexer always fails on windows builds of this module.
func NewMultiplexer() (Multiplexer, error) {
	return nil, errors.New("reactor: windows is not supported")
}
