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
	"time"

	"golang.org/x/time/rate"
)

type msgState int

const (
	msgStateInit msgState = iota
	msgStateSent
)

// OutboundMessage is one pending wire line on a TargetQueue.
type OutboundMessage struct {
	Wire   []byte
	Target string
	Length int
	state  msgState
}

// TargetQueue is a per-target FIFO with a rate limiter and a
// throttle-aware retry policy. Backed by a plain slice so popping the
// last element naturally empties the queue and head, tail, and count
// can never disagree.
type TargetQueue struct {
	messages          []*OutboundMessage
	nextSendAtMs      int64
	throttleCount     int
	lastThrottleCount int
	isThrottled       bool
	limiter           *rate.Limiter
}

func newTargetQueue(nowMs int64) *TargetQueue {
	return &TargetQueue{
		nextSendAtMs: nowMs,
		limiter:      rate.NewLimiter(rate.Every(time.Second/MsgPerSecondLim), 1),
	}
}

// scheduleNext reserves the next pump slot from the rate limiter. With
// a burst of 1, consecutive reservations are serialized at exactly
// 1/MsgPerSecondLim apart. Both sending a message and popping it take a
// reservation, so consecutive sends to one target are at least one slot
// apart, and two slots apart once the limiter's initial token is spent.
func (q *TargetQueue) scheduleNext(nowMs int64) {
	now := time.UnixMilli(nowMs)
	r := q.limiter.ReserveN(now, 1)
	q.nextSendAtMs = nowMs + r.DelayFrom(now).Milliseconds()
}

func (q *TargetQueue) scheduleThrottled(nowMs int64) {
	q.nextSendAtMs = nowMs + ThrottleWaitSec*1000
}

func (q *TargetQueue) peek() *OutboundMessage {
	if len(q.messages) == 0 {
		return nil
	}
	return q.messages[0]
}

func (q *TargetQueue) pop() *OutboundMessage {
	if len(q.messages) == 0 {
		return nil
	}
	m := q.messages[0]
	q.messages = q.messages[1:]
	return m
}

func (q *TargetQueue) push(m *OutboundMessage) {
	q.messages = append(q.messages, m)
}

// count reports the number of queued messages, for tests/diagnostics.
func (q *TargetQueue) count() int {
	return len(q.messages)
}

// OutboundIndex maps target strings to their TargetQueue. The engine
// exclusively owns the index and every queue in it.
type OutboundIndex struct {
	queues map[string]*TargetQueue
	log    *Logger
}

// NewOutboundIndex returns an empty OutboundIndex.
func NewOutboundIndex(log *Logger) *OutboundIndex {
	if log == nil {
		log = NewNopLogger()
	}
	return &OutboundIndex{queues: make(map[string]*TargetQueue), log: log}
}

func (idx *OutboundIndex) queueFor(target string, nowMs int64) *TargetQueue {
	q, ok := idx.queues[target]
	if !ok {
		q = newTargetQueue(nowMs)
		idx.queues[target] = q
	}
	return q
}

// Enqueue appends a new message to target's queue, creating the queue
// lazily on first use.
func (idx *OutboundIndex) Enqueue(target string, wire []byte, nowMs int64) {
	q := idx.queueFor(target, nowMs)
	q.push(&OutboundMessage{Wire: wire, Target: target, Length: len(wire), state: msgStateInit})
}

// SetThrottle signals that the server rejected or rate-limited output to
// target.
func (idx *OutboundIndex) SetThrottle(target string) {
	q, ok := idx.queues[target]
	if !ok {
		return
	}
	q.throttleCount++
}

// SetThrottleAll fans a connection-level throttle signal (a server
// NOTICE matching ThrottleNeedle) out to every existing target queue.
func (idx *OutboundIndex) SetThrottleAll() {
	for _, q := range idx.queues {
		q.throttleCount++
	}
}

// Tick pumps every target queue once. writer sends wire bytes for a
// target and reports how many bytes were accepted, or an error.
func (idx *OutboundIndex) Tick(socketWritable bool, nowMs int64, writer func(target string, wire []byte) (int, error)) {
	for target, q := range idx.queues {
		idx.pumpOne(target, q, socketWritable, nowMs, writer)
	}
}

func (idx *OutboundIndex) pumpOne(target string, q *TargetQueue, socketWritable bool, nowMs int64, writer func(string, []byte) (int, error)) {
	if nowMs < q.nextSendAtMs {
		return
	}

	// The throttle edge is recomputed and snapshotted unconditionally
	// once per tick, before the writability/head checks below, whether
	// or not there is anything to send.
	q.isThrottled = q.throttleCount != q.lastThrottleCount
	q.lastThrottleCount = q.throttleCount

	if !socketWritable {
		return
	}

	msg := q.peek()
	if msg == nil {
		return
	}

	switch msg.state {
	case msgStateInit:
		msg.state = msgStateSent
		if _, err := writer(target, msg.Wire); err != nil {
			idx.log.Warnf("outbound: write to %s failed: %v", target, err)
		}
		q.scheduleNext(nowMs)
	case msgStateSent:
		if q.isThrottled {
			idx.log.Debugf("outbound: %s throttled, retrying", target)
			msg.state = msgStateInit
			q.scheduleThrottled(nowMs)
		} else {
			q.pop()
			q.scheduleNext(nowMs)
		}
	}
}

// DrainAll releases every queue at shutdown.
func (idx *OutboundIndex) DrainAll() {
	idx.queues = make(map[string]*TargetQueue)
}
