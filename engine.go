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

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

// ConnectionState is the connection/registration lifecycle.
type ConnectionState int

const (
	StateNone ConnectionState = iota
	StateConnected
	StateRegistered
	StateJoined
	StateListening
)

func (s ConnectionState) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateConnected:
		return "CONNECTED"
	case StateRegistered:
		return "REGISTERED"
	case StateJoined:
		return "JOINED"
	case StateListening:
		return "LISTENING"
	default:
		return "UNKNOWN"
	}
}

// CallbackKind identifies one of the fixed event kinds a caller may
// register a handler for.
type CallbackKind int

const (
	CallbackConnect CallbackKind = iota
	CallbackJoin
	CallbackUserJoin
	CallbackUserPart
	CallbackUserNickChange
	CallbackServerCode
	CallbackMsg
)

// CallbackFn handles one fired event.
type CallbackFn func(e *Engine, msg IrcMessage)

// BotConfig holds the bot's connection settings. It is immutable after
// Engine construction.
type BotConfig struct {
	Host      string
	Port      string
	UseTLS    bool
	TLSConfig *tls.Config

	Ident    string
	RealName string
	Master   string

	// Nicks is the ordered list of candidate nicknames, up to NickAttempts.
	Nicks []string
	// Channels is the ordered list of channels to join on registration.
	Channels []string

	Proxy    *ProxyConfig
	LocalIP  string
	Timeout  time.Duration
	Encoding encoding.Encoding
}

// Validate checks BotConfig's required fields before any dial is
// attempted.
func (c BotConfig) Validate() error {
	if c.Host == "" {
		return errors.New("ircengine: empty host")
	}
	if c.Port == "" {
		return errors.New("ircengine: empty port")
	}
	if c.Ident == "" {
		return errors.New("ircengine: empty ident")
	}
	if len(c.Nicks) == 0 {
		return errors.New("ircengine: at least one candidate nickname is required")
	}
	if len(c.Nicks) > NickAttempts {
		return fmt.Errorf("ircengine: at most %d candidate nicknames are supported", NickAttempts)
	}
	return nil
}

// Engine maintains a single connection to an IRC server: a cooperative
// driver that advances registration, ingests and dispatches server
// traffic, and drains outbound traffic, one Tick() at a time.
type Engine struct {
	Config BotConfig

	State       ConnectionState
	NickAttempt int
	ServerName  string
	StartTime   int64
	Joined      bool

	Transport Transport
	Outbound  *OutboundIndex
	Processes *ProcessQueue
	Commands  CommandRegistry
	Nicks     NickSet
	Log       *Logger

	callbacks map[CallbackKind]CallbackFn

	recvBuf      []byte
	pendingLines []string
	lineCursor   int

	throttleCount     int
	lastThrottleCount int
	isThrottled       bool

	nowFn func() int64
}

// EngineOption customizes Engine construction.
type EngineOption func(*Engine)

// WithLogger overrides the default no-op logger.
func WithLogger(log *Logger) EngineOption {
	return func(e *Engine) { e.Log = log }
}

// WithCommandRegistry overrides the default BasicCommandRegistry.
func WithCommandRegistry(r CommandRegistry) EngineOption {
	return func(e *Engine) { e.Commands = r }
}

// WithNickSet overrides the default BasicNickSet.
func WithNickSet(n NickSet) EngineOption {
	return func(e *Engine) { e.Nicks = n }
}

// WithClock overrides the millisecond clock Tick uses, for deterministic
// tests.
func WithClock(fn func() int64) EngineOption {
	return func(e *Engine) { e.nowFn = fn }
}

// WithTransport injects a Transport directly, bypassing Connect's dial.
// Used by tests to drive the engine against an in-memory fake transport.
func WithTransport(t Transport) EngineOption {
	return func(e *Engine) { e.Transport = t }
}

// NewEngine validates cfg and returns a fresh, unconnected Engine.
func NewEngine(cfg BotConfig, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		Config:     cfg,
		State:      StateNone,
		ServerName: strings.TrimPrefix(cfg.Host, ServerPrefix),
		Log:        NewNopLogger(),
		recvBuf:    make([]byte, MsgMax),
		nowFn:      func() int64 { return time.Now().UnixMilli() },
	}
	e.callbacks = make(map[CallbackKind]CallbackFn)

	for _, opt := range opts {
		opt(e)
	}

	if e.Commands == nil {
		e.Commands = NewBasicCommandRegistry()
	}
	if e.Nicks == nil {
		e.Nicks = NewBasicNickSet()
	}
	e.Outbound = NewOutboundIndex(e.Log)
	e.Processes = NewProcessQueue(e.Log)

	return e, nil
}

func (e *Engine) nowMs() int64 {
	return e.nowFn()
}

// Connect dials the transport (unless one was already injected via
// WithTransport) and resets lifecycle state. The configured host serves
// as the initial guess for matching server-origin lines until the first
// line from the server reports the authoritative name.
func (e *Engine) Connect() error {
	e.State = StateNone
	e.NickAttempt = 0
	e.Joined = false
	e.StartTime = 0
	e.pendingLines = nil
	e.lineCursor = 0

	if e.Transport != nil {
		return nil
	}

	addr := e.Config.Host + ":" + e.Config.Port
	t, err := DialTCP(addr, e.Config.UseTLS, e.Config.TLSConfig, e.Config.Proxy, e.Config.LocalIP, e.Config.Timeout, e.Config.Encoding)
	if err != nil {
		return err
	}
	e.Transport = t
	return nil
}

// Shutdown drains the outbound index and closes the transport.
func (e *Engine) Shutdown() {
	e.Outbound.DrainAll()
	if e.Transport != nil {
		_ = e.Transport.Close()
	}
}

// SetCallback registers fn as the handler for the given event kind,
// replacing any previous handler.
func (e *Engine) SetCallback(kind CallbackKind, fn CallbackFn) {
	e.callbacks[kind] = fn
}

func (e *Engine) fireCallback(kind CallbackKind, msg IrcMessage) {
	if fn, ok := e.callbacks[kind]; ok && fn != nil {
		fn(e, msg)
	}
}

// AddCommand registers a user-invocable command with the engine's
// command registry.
func (e *Engine) AddCommand(name string, flags CommandFlag, arity int, fn CommandFn) {
	e.Commands.Add(BotCommand{Name: name, Flags: flags, Arity: arity, Fn: fn})
}

// EnqueueProcess queues a long-running bot task on the scheduler and
// returns its pid.
func (e *Engine) EnqueueProcess(fn ProcessFn, arg interface{}, free ProcessFreeFn, cmd, caller string) uint32 {
	return e.Processes.Enqueue(fn, arg, free, cmd, caller, e.nowMs())
}

// currentNick returns the candidate nickname for the current attempt
// index, clamped defensively to the configured candidate list's bounds.
func (e *Engine) currentNick() string {
	idx := e.NickAttempt
	if idx >= len(e.Config.Nicks) {
		idx = len(e.Config.Nicks) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return e.Config.Nicks[idx]
}

// SendRaw writes a single line directly to the transport, bypassing the
// outbound queue. Used for PING replies and the NICK/USER/JOIN
// handshake lines.
func (e *Engine) SendRaw(line string) error {
	if e.Transport == nil {
		return ErrNotConnected
	}
	if !e.Transport.PollWrite() {
		e.Log.Debugf("sendraw: socket not writable, dropping: %s", line)
		return nil
	}
	wire := line + MsgFooter
	_, err := e.Transport.Write([]byte(wire))
	return err
}

func overheadLen(action, target, ctcp string) int {
	n := len(action) + 1 + len(target) + 2 + len(MsgFooter)
	if ctcp != "" {
		n += len(ctcp) + 2*len(CTCPMarker) + 1
	}
	return n
}

// splitBody splits body into up to MaxMsgSplits chunks of at most
// maxChunk bytes on whitespace boundaries. Split points fall back to a
// hard character boundary only when no whitespace exists within the
// chunk window; leading spaces of continuation chunks are trimmed. The
// last of the MaxMsgSplits chunks holds whatever remains, so a body
// longer than MaxMsgSplits windows yields a final chunk over maxChunk.
func splitBody(body string, maxChunk int) []string {
	if maxChunk <= 0 || len(body) <= maxChunk {
		return []string{body}
	}

	var chunks []string
	remaining := body
	for i := 0; i < MaxMsgSplits && len(remaining) > 0; i++ {
		if len(remaining) <= maxChunk || i == MaxMsgSplits-1 {
			chunks = append(chunks, remaining)
			remaining = ""
			break
		}

		window := remaining[:maxChunk]
		cut := strings.LastIndexByte(window, ' ')
		if cut <= 0 {
			cut = maxChunk
		}

		chunks = append(chunks, remaining[:cut])
		remaining = remaining[cut:]
		remaining = strings.TrimLeft(remaining, " ")
	}
	return chunks
}

// Send frames body for target and enqueues it on the outbound queue.
// Formatting happens in the caller; an oversized body is split into up
// to MaxMsgSplits wire chunks, each enqueued independently. When ctcp
// is non-empty the body is CTCP-framed under that verb.
func (e *Engine) Send(target, action, ctcp, body string) error {
	overhead := overheadLen(action, target, ctcp)
	maxChunk := MsgMax - overhead
	for _, chunk := range splitBody(body, maxChunk) {
		var wire string
		if ctcp != "" {
			wire = FrameCTCP(action, target, ctcp, chunk)
		} else {
			wire = FrameMessage(action, target, chunk)
		}
		e.Outbound.Enqueue(target, []byte(wire), e.nowMs())
	}
	return nil
}

// SendCTCP sends a PRIVMSG whose body is CTCP-framed under command.
func (e *Engine) SendCTCP(target, command, body string) error {
	return e.Send(target, "PRIVMSG", command, body)
}

func (e *Engine) writeWire(target string, wire []byte) (int, error) {
	return e.Transport.Write(wire)
}

func splitLines(buf string) []string {
	parts := strings.Split(buf, "\r\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Tick advances the engine by one unit of cooperative progress. It
// performs exactly one of: the fast path (advance one already-buffered
// line) or the slow path (run housekeeping, then poll for and consume
// one freshly read line).
func (e *Engine) Tick() (Status, error) {
	now := e.nowMs()

	if e.lineCursor < len(e.pendingLines) {
		line := e.pendingLines[e.lineCursor]
		e.lineCursor++
		return e.processLine(line)
	}

	e.isThrottled = e.throttleCount != e.lastThrottleCount
	e.lastThrottleCount = e.throttleCount

	e.runRegisterTimeoutWatchdog(now)
	e.Processes.Tick(e, now)
	e.Outbound.Tick(e.Transport.PollWrite(), now, e.writeWire)

	if !e.Transport.PollRead() {
		return StatusContinue, nil
	}

	n, err := e.Transport.Read(e.recvBuf)
	if n == 0 {
		return StatusRemoteClosed, ErrRemoteClosed
	}
	if err != nil {
		e.Log.Warnf("transport read error: %v", err)
		return StatusIOError, err
	}

	lines := splitLines(string(e.recvBuf[:n]))
	e.pendingLines = lines
	e.lineCursor = 0
	if len(lines) == 0 {
		return StatusContinue, nil
	}

	line := lines[0]
	e.lineCursor = 1
	return e.processLine(line)
}

func (e *Engine) runRegisterTimeoutWatchdog(now int64) {
	if !e.Joined && e.StartTime != 0 && now-e.StartTime >= RegisterTimeoutSec*1000 {
		e.State = StateRegistered
		e.StartTime = 0
	}
}
