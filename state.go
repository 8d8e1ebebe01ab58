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

import "fmt"

// sourceToken extracts the prefix token of an inbound line (the part
// between ':' and the first space), without requiring it to be a
// nick!host pair.
func sourceToken(line string) (string, bool) {
	if len(line) == 0 || line[0] != ':' {
		return "", false
	}
	tok, _, ok := splitToken(line[1:], ' ')
	if !ok {
		return tok, tok != ""
	}
	return tok, tok != ""
}

// isServerOrigin reports whether line is prefixed with the engine's
// tracked server name rather than a user's nick!host prefix.
func (e *Engine) isServerOrigin(line string) bool {
	if e.ServerName == "" {
		return false
	}
	prefix := ":" + e.ServerName
	return len(line) >= len(prefix) && line[:len(prefix)] == prefix
}

// handleServerReply handles the built-in server-reply numerics every
// connection needs regardless of what else is registered; any other
// server reply goes to the server-code callback. It reports every
// server-origin line as consumed, and returns a non-nil error only when
// nick registration has been fatally exhausted.
func (e *Engine) handleServerReply(line string) (consumed bool, err error) {
	msg := parseServer(line)

	switch msg.Action {
	case RegErrCode:
		if e.NickAttempt < NickAttempts {
			e.NickAttempt++
			e.State = StateConnected
			e.Log.Debugf("nick collision, retrying with attempt %d", e.NickAttempt)
		} else {
			e.Log.Warnf("nick attempts exhausted")
			return true, ErrNickAttemptsExhausted
		}
		return true, nil

	case RegSuccessCode:
		e.State = StateRegistered
		return true, nil

	case NameReplyCode:
		if len(msg.Tokens) >= 2 {
			channel := lastField(msg.Tokens[0])
			e.Nicks.RegisterFromNames(channel, msg.Tokens[1])
		}
		return true, nil

	case NoticeAction:
		if len(msg.Tokens) > 0 && containsFold(msg.Tokens[0], ThrottleNeedle) {
			e.throttleCount++
			e.Outbound.SetThrottleAll()
			return true, nil
		}
	}

	e.fireCallback(CallbackServerCode, msg)
	return true, nil
}

// lastField returns the final whitespace-separated field of s, e.g. the
// channel name out of a 353 reply's "<symbol> <channel> " lead parameter
// (tokenizeParameters leaves the space before the ':' attached, so
// trailing spaces are trimmed before the field is located).
func lastField(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	s = s[:end]
	start := end
	for start > 0 && s[start-1] != ' ' {
		start--
	}
	return s[start:]
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// processLine is the per-tick, per-line entry point: a PING check, then
// the server-reply pre-hook, then the connection state table. Exactly
// one line is processed per call.
func (e *Engine) processLine(line string) (Status, error) {
	if len(line) >= 4 && line[:4] == "PING" {
		token := line[4:]
		if len(token) > 0 && token[0] == ' ' {
			token = token[1:]
		}
		_ = e.SendRaw("PONG " + token)
		return StatusContinue, nil
	}

	consumed := false
	if e.isServerOrigin(line) {
		var err error
		consumed, err = e.handleServerReply(line)
		if err != nil {
			return StatusFatal, err
		}
	}

	return e.applyStateTable(line, consumed), nil
}

// applyStateTable runs the current connection state's proactive action,
// falling through to the dispatcher only once the connection has
// reached LISTENING and the line was not already consumed as a server
// reply.
func (e *Engine) applyStateTable(line string, consumed bool) Status {
	switch e.State {
	case StateNone:
		if src, ok := sourceToken(line); ok {
			e.ServerName = src
		}
		e.fireCallback(CallbackConnect, IrcMessage{})
		e.State = StateConnected

	case StateConnected:
		nick := e.currentNick()
		_ = e.SendRaw("NICK " + nick)
		_ = e.SendRaw(fmt.Sprintf("USER %s %s test: %s", e.Config.Ident, e.Config.Host, e.Config.RealName))
		e.StartTime = e.nowMs()
		e.State = StateListening

	case StateRegistered:
		for _, ch := range e.Config.Channels {
			_ = e.SendRaw("JOIN " + ch)
		}
		e.State = StateJoined

	case StateJoined:
		e.Joined = true
		e.fireCallback(CallbackJoin, IrcMessage{})
		e.State = StateListening

	case StateListening:
		if consumed {
			return StatusContinue
		}
		return e.dispatch(line)
	}

	return StatusContinue
}
