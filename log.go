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

import "go.uber.org/zap"

// Logger is the sink every log line in the engine goes through. zap's
// SugaredLogger keeps Printf-style call sites (Debugf/Infof/Warnf)
// while callers get structured, leveled output if they configure one.
type Logger = zap.SugaredLogger

// NewNopLogger returns a Logger that discards everything, the default
// for an Engine whose caller never supplies one.
func NewNopLogger() *Logger {
	return zap.NewNop().Sugar()
}

// NewDevelopmentLogger returns a Logger suitable for interactive use
// while developing or debugging a bot against a live server.
func NewDevelopmentLogger() *Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NewNopLogger()
	}
	return l.Sugar()
}
