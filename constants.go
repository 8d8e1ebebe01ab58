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

// Build-time constants governing wire limits, pacing, and retry policy.
const (
	// NickMax is the maximum length of a nickname.
	NickMax = 30
	// CmdMax is the maximum length of an action verb or numeric code.
	CmdMax = 16
	// ChanMax is the maximum length of a channel or target name.
	ChanMax = 64
	// MsgMax is the maximum length of a single wire line, including framing.
	MsgMax = 512

	// NickAttempts is the number of candidate nicknames tried on collision.
	NickAttempts = 3

	// MaxParameters bounds how many ParamDelim-delimited parameter slots a
	// server reply is tokenized into.
	MaxParameters = 15
	// MaxCommandArgs is the default arity ceiling for a user command whose
	// arity is not known to the command registry.
	MaxCommandArgs = 8

	// MaxMsgSplits bounds how many wire chunks a single oversized logical
	// message is split into.
	MaxMsgSplits = 4

	// MsgPerSecondLim is the outbound rate limit, in messages per second.
	MsgPerSecondLim = 2
	// ThrottleWaitSec is the backoff applied after a throttle signal.
	ThrottleWaitSec = 5
	// RegisterTimeoutSec is how long the engine waits after CONNECTED
	// before forcing a retry of the JOIN sequence.
	RegisterTimeoutSec = 30

	// CmdChar prefixes a PRIVMSG body that should be parsed as a bot command.
	CmdChar = '!'
	// BotArgDelim separates bot-command argument slots.
	BotArgDelim = ' '
	// ParamDelim separates server-reply parameter slots.
	ParamDelim = ':'

	// CTCPMarker frames a CTCP payload inside a PRIVMSG body.
	CTCPMarker = "\x01"
	// MsgFooter terminates every outbound wire line.
	MsgFooter = "\r\n"

	// ActionEmpty is the empty action/target value; FrameMessage leaves out
	// the " :" separator when either one equals it.
	ActionEmpty = ""

	// RegSuccessCode is the numeric reply signalling registration success (RPL_WELCOME).
	RegSuccessCode = "001"
	// RegErrCode is the numeric reply signalling a nickname collision (ERR_NICKNAMEINUSE).
	RegErrCode = "433"
	// NameReplyCode is the numeric reply carrying a channel's nick list (RPL_NAMREPLY).
	NameReplyCode = "353"
	// NoticeAction is the verb used for server notices.
	NoticeAction = "NOTICE"
	// ThrottleNeedle is the substring a NOTICE body is scanned for to
	// detect server-signalled throttling.
	ThrottleNeedle = "throttl"

	// ServerPrefix marks the source token of a server-origin line. NewEngine
	// trims it from the configured host to seed Engine.ServerName, and
	// isServerOrigin prepends it when matching lines.
	ServerPrefix = ":"

	// illegalNickPrefixChars are NAMES-reply decoration characters (op/voice
	// markers) stripped from the front of a nickname before registering it.
	illegalNickPrefixChars = "@+%~&"
)

// ircVerbTable is the fixed table of IRC verbs the dispatcher recognizes
// for built-in nick-list bookkeeping. Immutable after init and shared
// read-only.
var ircVerbTable = map[string]struct{}{
	"JOIN":  {},
	"PART":  {},
	"QUIT":  {},
	"NICK":  {},
	"KICK":  {},
	"MODE":  {},
	"TOPIC": {},
}
