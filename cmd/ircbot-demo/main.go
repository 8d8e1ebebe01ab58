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

// Command ircbot-demo is a minimal wiring of the engine's public API
// against a real server: it shows how a caller assembles a BotConfig,
// registers a couple of callbacks and a command, and drives the tick
// loop.
package main

import (
	"crypto/tls"
	"fmt"
	"time"

	ircengine "github.com/kofany/ircbotcore"
)

const channel = "#go-ircengine-test"
const server = "irc.libera.chat"
const port = "6697"

func main() {
	cfg := ircengine.BotConfig{
		Host:      server,
		Port:      port,
		UseTLS:    true,
		TLSConfig: &tls.Config{InsecureSkipVerify: false},
		Ident:     "ircenginedemo",
		RealName:  "ircengine demo bot",
		Master:    "youradminnick",
		Nicks:     []string{"ircenginebot", "ircenginebot_", "ircenginebot__"},
		Channels:  []string{channel},
		Timeout:   10 * time.Second,
	}

	e, err := ircengine.NewEngine(cfg, ircengine.WithLogger(ircengine.NewDevelopmentLogger()))
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return
	}

	e.SetCallback(ircengine.CallbackJoin, func(e *ircengine.Engine, msg ircengine.IrcMessage) {
		e.Send(channel, "PRIVMSG", "", "hello, I'm alive")
	})
	e.SetCallback(ircengine.CallbackUserJoin, func(e *ircengine.Engine, msg ircengine.IrcMessage) {
		e.Log.Debugf("%s joined %s", msg.Nick, msg.Target)
	})

	e.AddCommand("ping", ircengine.CmdFlagNone, 1, func(data ircengine.CmdData, args []string) error {
		return data.Engine.Send(data.Message.Target, "PRIVMSG", "", "pong")
	})

	if err := e.Connect(); err != nil {
		fmt.Printf("connect error: %v\n", err)
		return
	}
	defer e.Shutdown()

	for {
		status, err := e.Tick()
		if !status.Continue() {
			fmt.Printf("engine stopped: status=%v err=%v\n", status, err)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
