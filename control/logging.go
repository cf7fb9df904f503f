// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logging bootstrap shared by Host/Context/tcpsvc/udpsvc,
// grounded in the pack's logiface-zerolog usage
// (github.com/joeycumines/go-utilpkg/logiface/zerolog): a plain
// zerolog.Logger, no abstraction layer on top of it.

package control

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog.Logger writing to w (os.Stderr if nil). In
// console mode output is human-readable; otherwise it is newline-delimited
// JSON, suited to log aggregation.
func NewLogger(w io.Writer, console bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// NopLogger discards all output, used by tests that don't assert on logs.
func NopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}
