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

import "strings"

// dispatch routes a user line once the connection has reached LISTENING
// and the line wasn't already consumed as a server reply: self-echo
// suppression, command matching, built-in IRC verb bookkeeping, and the
// fallback message callback.
func (e *Engine) dispatch(line string) Status {
	if src, ok := sourceToken(line); ok {
		nick := src
		if i := strings.IndexByte(nick, '!'); i >= 0 {
			nick = nick[:i]
		}
		if nick == e.currentNick() {
			return StatusContinue
		}
	}

	msg, cmd := parseUser(line, e.Commands)
	if msg.Action == "" {
		return StatusContinue
	}

	if cmd != nil {
		if cmd.Flags&CmdFlagMaster != 0 && msg.Nick != e.Config.Master {
			e.Log.Debugf("command %q rejected: %s is not the master", cmd.Name, msg.Nick)
			return StatusContinue
		}
		if err := cmd.Fn(CmdData{Engine: e, Message: msg}, msg.Tokens); err != nil {
			e.Log.Warnf("command %q failed: %v", cmd.Name, err)
			return StatusCommandError
		}
		return StatusContinue
	}

	if _, ok := ircVerbTable[msg.Action]; ok {
		e.dispatchVerb(msg)
		return StatusContinue
	}

	e.fireCallback(CallbackMsg, msg)
	return StatusContinue
}

// dispatchVerb performs nick-list bookkeeping for the
// membership-affecting verbs, each followed by its matching callback.
func (e *Engine) dispatchVerb(msg IrcMessage) {
	switch msg.Action {
	case "JOIN":
		e.Nicks.Register(msg.Target, msg.Nick)
		e.fireCallback(CallbackUserJoin, msg)

	case "PART":
		e.Nicks.Remove(msg.Target, msg.Nick)
		e.fireCallback(CallbackUserPart, msg)

	case "QUIT":
		e.Nicks.RemoveEverywhere(msg.Nick)
		e.fireCallback(CallbackUserPart, msg)

	case "NICK":
		// The fixed target/body split leaves the new nick wherever the
		// line happened to place it; prefer Body (the last slot) and
		// fall back to Target for lines with nothing past it.
		newNick := msg.Body
		if newNick == "" {
			newNick = msg.Target
		}
		e.Nicks.Rename(msg.Nick, newNick)
		e.fireCallback(CallbackUserNickChange, msg)

	default:
		// KICK, MODE, TOPIC: recognized verbs with no nick-list bookkeeping
		// of their own; still routed through the general message callback.
		e.fireCallback(CallbackMsg, msg)
	}
}
