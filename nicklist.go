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

// NickSet is the per-channel nick-list bookkeeping collaborator.
// BasicNickSet below is a minimal in-memory implementation; it strips a
// single op/voice decoration character from the front of a nickname
// before registering it.
type NickSet interface {
	Register(channel, nick string)
	Remove(channel, nick string)
	RemoveEverywhere(nick string)
	RegisterFromNames(channel, namesParam string)
	Rename(oldNick, newNick string)
}

// BasicNickSet tracks, per channel, the set of nicknames currently seen
// in it.
type BasicNickSet struct {
	channels map[string]map[string]struct{}
}

// NewBasicNickSet returns an empty BasicNickSet.
func NewBasicNickSet() *BasicNickSet {
	return &BasicNickSet{channels: make(map[string]map[string]struct{})}
}

func stripIllegalPrefix(nick string) string {
	if len(nick) > 0 && strings.IndexByte(illegalNickPrefixChars, nick[0]) >= 0 {
		return nick[1:]
	}
	return nick
}

// Register adds nick to channel's set.
func (n *BasicNickSet) Register(channel, nick string) {
	nick = stripIllegalPrefix(nick)
	if nick == "" {
		return
	}
	set, ok := n.channels[channel]
	if !ok {
		set = make(map[string]struct{})
		n.channels[channel] = set
	}
	set[nick] = struct{}{}
}

// Remove deletes nick from channel's set.
func (n *BasicNickSet) Remove(channel, nick string) {
	if set, ok := n.channels[channel]; ok {
		delete(set, nick)
	}
}

// RemoveEverywhere deletes nick from every channel's set, used on QUIT.
func (n *BasicNickSet) RemoveEverywhere(nick string) {
	for _, set := range n.channels {
		delete(set, nick)
	}
}

// Rename moves oldNick to newNick in every channel where oldNick is
// currently tracked, used on NICK.
func (n *BasicNickSet) Rename(oldNick, newNick string) {
	newNick = stripIllegalPrefix(newNick)
	if newNick == "" {
		return
	}
	for _, set := range n.channels {
		if _, ok := set[oldNick]; ok {
			delete(set, oldNick)
			set[newNick] = struct{}{}
		}
	}
}

// RegisterFromNames tokenizes a NAMES (353) reply's trailing parameter
// on a single space and registers each nickname.
func (n *BasicNickSet) RegisterFromNames(channel, namesParam string) {
	for _, nick := range strings.Split(namesParam, " ") {
		if nick == "" {
			continue
		}
		n.Register(channel, nick)
	}
}

// Has reports whether nick is currently tracked in channel.
func (n *BasicNickSet) Has(channel, nick string) bool {
	set, ok := n.channels[channel]
	if !ok {
		return false
	}
	_, ok = set[nick]
	return ok
}
