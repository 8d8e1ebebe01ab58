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

// CommandFlag marks a BotCommand with access-control or parsing behavior.
type CommandFlag int

const (
	// CmdFlagNone is the zero value: open to any user.
	CmdFlagNone CommandFlag = 0
	// CmdFlagMaster restricts a command to the configured master nickname.
	CmdFlagMaster CommandFlag = 1 << iota
)

// CmdData is the argument bundle a command function receives: the
// engine it runs against and the message that invoked it.
type CmdData struct {
	Engine  *Engine
	Message IrcMessage
}

// CommandFn is a registered command's handler. An error return is
// logged and propagated out of the tick as the tick's status.
type CommandFn func(data CmdData, args []string) error

// BotCommand is one entry in a CommandRegistry.
type BotCommand struct {
	Name  string
	Flags CommandFlag
	Arity int
	Fn    CommandFn
}

// CommandRegistry is the engine's view of the command table: look a
// verb up and get back its declared arity and handler.
// BasicCommandRegistry below is a minimal, in-memory implementation
// sufficient for tests and small bots; a real deployment is free to
// supply its own (backed by a database, a plugin system, whatever it
// needs).
type CommandRegistry interface {
	Lookup(name string) (*BotCommand, bool)
	Add(cmd BotCommand)
}

// BasicCommandRegistry is a case-insensitive, map-backed CommandRegistry.
type BasicCommandRegistry struct {
	cmds map[string]*BotCommand
}

// NewBasicCommandRegistry returns an empty BasicCommandRegistry.
func NewBasicCommandRegistry() *BasicCommandRegistry {
	return &BasicCommandRegistry{cmds: make(map[string]*BotCommand)}
}

// Lookup satisfies CommandRegistry.
func (r *BasicCommandRegistry) Lookup(name string) (*BotCommand, bool) {
	cmd, ok := r.cmds[strings.ToLower(name)]
	return cmd, ok
}

// Add satisfies CommandRegistry.
func (r *BasicCommandRegistry) Add(cmd BotCommand) {
	r.cmds[strings.ToLower(cmd.Name)] = &cmd
}
