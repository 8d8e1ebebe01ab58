// Copyright (c) 2024 Jerzy Dąbrowski
// Based on original work by Thomas Jager, 2009. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//   - Redistributions of source code must retain the above copyright notice, this list of conditions,
//     and the following disclaimer.
//   - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//     and the following disclaimer in the documentation and/or other materials provided with the distribution.
//   - Neither the name of the original authors nor the names of its contributors may be used to endorse
//     or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package ircengine

import "errors"

// Status is the result of one engine tick. Zero means "continue";
// negative values signal conditions the enclosing run loop must act on,
// most of them fatal.
type Status int

const (
	// StatusContinue means the tick made progress (or did nothing) and
	// the caller should call Tick again.
	StatusContinue Status = 0
	// StatusRemoteClosed means the remote end closed the connection.
	StatusRemoteClosed Status = -2
	// StatusIOError means the transport reported a read/write error.
	StatusIOError Status = -3
	// StatusFatal means an unrecoverable condition occurred (e.g.
	// nickname-collision exhaustion). The engine must not be ticked again.
	StatusFatal Status = -1
	// StatusCommandError means a registered command handler returned an
	// error. It is negative and propagated as the tick's result so
	// callers can observe it, but it is NOT terminal: the engine may be
	// ticked again.
	StatusCommandError Status = -4
)

// Continue reports whether a status permits ticking the engine again.
// StatusCommandError is negative but non-terminal, so it's listed
// alongside StatusContinue rather than falling out of a sign check.
func (s Status) Continue() bool {
	switch s {
	case StatusRemoteClosed, StatusIOError, StatusFatal:
		return false
	default:
		return true
	}
}

var (
	// ErrNickAttemptsExhausted is returned when every configured candidate
	// nickname has been rejected by the server.
	ErrNickAttemptsExhausted = errors.New("ircengine: exhausted all candidate nicknames")
	// ErrRemoteClosed is returned when the transport reports a zero-byte read.
	ErrRemoteClosed = errors.New("ircengine: remote closed connection")
	// ErrNotConnected is returned by operations that require a live transport.
	ErrNotConnected = errors.New("ircengine: not connected")
)
