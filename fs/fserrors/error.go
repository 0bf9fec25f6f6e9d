// Package fserrors provides errors and error handling
package fserrors

import (
	"context"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// closedConnErrors is a list of errors which mean the peer has gone
// away while we were talking to it
var closedConnErrors = []error{
	syscall.EPIPE,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	net.ErrClosed,
	io.ErrClosedPipe,
	context.Canceled,
}

// closedConnMessages are error strings from net/http and
// golang.org/x/net/http2 for closed connections which aren't
// exported as values
var closedConnMessages = []string{
	"use of closed network connection",
	"broken pipe",
	"connection reset by peer",
	"http2: stream closed",
	"client disconnected",
}

// Cause is a souped up errors.Cause which can unwrap some standard
// library errors too.  It returns the innermost error found.
func Cause(cause error) error {
	for cause != nil {
		var next error
		switch x := cause.(type) {
		case interface{ Cause() error }:
			next = x.Cause()
		case interface{ Unwrap() error }:
			next = x.Unwrap()
		}
		if next == nil {
			break
		}
		cause = next
	}
	return cause
}

// IsClosedConnError reports whether err, or anything it wraps, is an
// error from writing to a connection the peer has closed.
//
// Streams which fail like this were abandoned by the client which
// isn't an error on our side.
func IsClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	for _, closedErr := range closedConnErrors {
		if errors.Is(err, closedErr) {
			return true
		}
	}
	str := err.Error()
	for _, msg := range closedConnMessages {
		if strings.Contains(str, msg) {
			return true
		}
	}
	return isClosedConnErrorPlatform(Cause(err))
}

// ContextError checks to see if ctx is in error.
//
// If it is in error then it overwrites *perr with the context error
// if *perr was nil and returns true.
//
// Otherwise it returns false.
func ContextError(ctx context.Context, perr *error) bool {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if *perr == nil {
			*perr = ctxErr
		}
		return true
	}
	return false
}
