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

// IrcMessage is a parsed inbound line. For user messages Tokens holds
// the body split into argument slots; for server replies it holds the
// parameter fields. All string fields are truncated to their wire
// limits, never overflowed.
type IrcMessage struct {
	IsServer bool
	Nick     string
	Action   string
	Target   string
	Body     string
	Tokens   []string
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// splitToken returns the token up to the first occurrence of sep in s,
// and the remainder after it. If sep is not found, ok is false and rest
// is empty.
func splitToken(s string, sep byte) (tok string, rest string, ok bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// parseUser parses a user or channel message of the form
//
//	:<nick>!<host> <action> <target> :<body>
//
// A malformed line yields an entirely empty IrcMessage rather than an
// error; the dispatcher treats a zero-value message as a no-op.
func parseUser(line string, registry CommandRegistry) (IrcMessage, *BotCommand) {
	if len(line) == 0 || line[0] != ':' {
		return IrcMessage{}, nil
	}
	rest := line[1:]

	nickHost, rest, ok := splitToken(rest, '!')
	if !ok {
		return IrcMessage{}, nil
	}

	// skip host token
	_, rest, ok = splitToken(rest, ' ')
	if !ok {
		return IrcMessage{}, nil
	}

	action, rest, ok := splitToken(rest, ' ')
	if !ok {
		return IrcMessage{}, nil
	}

	target, rest, ok := splitToken(rest, ' ')
	if !ok {
		return IrcMessage{}, nil
	}

	body := rest
	if len(body) > 0 && body[0] == ':' {
		body = body[1:]
	}

	msg := IrcMessage{
		Nick:   truncate(nickHost, NickMax),
		Action: truncate(action, CmdMax),
		Target: truncate(target, ChanMax),
		Body:   truncate(body, MsgMax),
	}

	var cmd *BotCommand
	if len(msg.Body) > 0 && msg.Body[0] == CmdChar && registry != nil {
		msg.Tokens, cmd = tokenizeCommand(msg.Body[1:], registry)
	}

	return msg, cmd
}

// tokenizeCommand splits a command body into argument slots.
// The first slot is the verb; if the registry knows it, the total number
// of slots (verb included) is capped at its declared arity, otherwise
// the global default is used. The final slot retains the untokenized
// remainder; with an arity of 1 only the verb slot is produced and any
// text after it is dropped.
func tokenizeCommand(body string, registry CommandRegistry) ([]string, *BotCommand) {
	limit := MaxCommandArgs
	var tokens []string
	var cmd *BotCommand

	rest := body
	for i := 0; i < limit; i++ {
		if i == limit-1 {
			tokens = append(tokens, rest)
			break
		}
		tok, next, ok := splitToken(rest, BotArgDelim)
		if i == 0 {
			if c, found := registry.Lookup(tok); found {
				cmd = c
				if c.Arity > 0 {
					limit = c.Arity
				}
			}
		}
		tokens = append(tokens, tok)
		if !ok {
			break
		}
		rest = next
	}
	return tokens, cmd
}

// parseServer parses a numeric or server-originated reply of the form
//
//	:<server> <action> <nick-echo> [:<body>]
func parseServer(line string) IrcMessage {
	empty := IrcMessage{IsServer: true}

	if len(line) == 0 || line[0] != ':' {
		return empty
	}
	rest := line[1:]

	// skip source (server name) token
	_, rest, ok := splitToken(rest, ' ')
	if !ok {
		return empty
	}

	action, rest, ok := splitToken(rest, ' ')
	if !ok {
		return empty
	}

	// skip the nick-echo token
	_, rest, ok = splitToken(rest, ' ')
	if !ok {
		return empty
	}

	body := rest
	return IrcMessage{
		IsServer: true,
		Action:   truncate(action, CmdMax),
		Body:     truncate(body, MsgMax),
		Tokens:   tokenizeParameters(body),
	}
}

// tokenizeParameters splits a server reply's parameter block on
// ParamDelim (':'), up to MaxParameters slots, with the final slot
// retaining the untokenized remainder.
func tokenizeParameters(body string) []string {
	rest := body
	if len(rest) > 0 && rest[0] == ParamDelim {
		rest = rest[1:]
	}

	var tokens []string
	for i := 0; i < MaxParameters; i++ {
		if i == MaxParameters-1 {
			tokens = append(tokens, rest)
			break
		}
		tok, next, ok := splitToken(rest, ParamDelim)
		tokens = append(tokens, tok)
		if !ok {
			break
		}
		rest = next
	}
	return tokens
}

// FrameMessage renders a wire line "<ACTION> <TARGET> :<BODY>\r\n",
// omitting the separator/colon when action or target is empty.
func FrameMessage(action, target, body string) string {
	if action == ActionEmpty || target == ActionEmpty {
		head := action + target
		if head == "" {
			return body + MsgFooter
		}
		return head + " " + body + MsgFooter
	}
	var b strings.Builder
	b.WriteString(action)
	b.WriteByte(' ')
	b.WriteString(target)
	b.WriteString(" :")
	b.WriteString(body)
	b.WriteString(MsgFooter)
	return b.String()
}

// FrameCTCP renders a CTCP-framed wire line:
//
//	<ACTION> <TARGET> :\x01<CTCP_VERB> <CTCP_BODY>\x01\r\n
func FrameCTCP(action, target, verb, body string) string {
	var b strings.Builder
	b.WriteString(action)
	b.WriteByte(' ')
	b.WriteString(target)
	b.WriteString(" :")
	b.WriteString(CTCPMarker)
	b.WriteString(verb)
	b.WriteByte(' ')
	b.WriteString(body)
	b.WriteString(CTCPMarker)
	b.WriteString(MsgFooter)
	return b.String()
}
