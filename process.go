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

// ProcessFn performs one bounded unit of work for a queued process and
// reports its status: a non-negative return means "continue", a
// negative return means "done".
type ProcessFn func(e *Engine, arg interface{}) int

// ProcessFreeFn releases a process's arg bundle.
type ProcessFreeFn func(arg interface{})

// Process is one long-running bot task in the scheduler's queue.
type Process struct {
	PID         uint32
	fn          ProcessFn
	arg         interface{}
	free        ProcessFreeFn
	busy        int
	Details     string
	updatedAtMs int64
}

// ProcessQueue is the cooperative round-robin executor of Processes: an
// owned slice with an explicit cursor index. The pid is the stable
// identifier queries and cancellation use.
type ProcessQueue struct {
	processes []*Process
	current   int // index into processes; -1 when empty/uninitialized
	pidTicker uint32
	log       *Logger
}

// NewProcessQueue returns an empty ProcessQueue.
func NewProcessQueue(log *Logger) *ProcessQueue {
	if log == nil {
		log = NewNopLogger()
	}
	return &ProcessQueue{current: -1, log: log}
}

// Enqueue assigns a fresh monotonically increasing pid, appends fn/arg
// to the tail, and records a "PID: <pid>: <cmd> - <caller>" details
// string.
func (pq *ProcessQueue) Enqueue(fn ProcessFn, arg interface{}, free ProcessFreeFn, cmd, caller string, nowMs int64) uint32 {
	pq.pidTicker++
	p := &Process{
		PID:         pq.pidTicker,
		fn:          fn,
		arg:         arg,
		free:        free,
		updatedAtMs: nowMs,
		Details:     fmt.Sprintf("PID: %d: %s - %s", pq.pidTicker, cmd, caller),
	}
	pq.processes = append(pq.processes, p)
	if pq.current < 0 {
		pq.current = 0
	}
	pq.log.Debugf("process: queued %s", p.Details)
	return p.PID
}

func (pq *ProcessQueue) nextIndex(i int) int {
	if len(pq.processes) == 0 {
		return -1
	}
	return (i + 1) % len(pq.processes)
}

// removeAt deletes the process at index i, frees its arg, and repairs
// the current cursor so round-robin fairness is preserved regardless of
// whether the removed process was ahead of, behind, or at the cursor.
func (pq *ProcessQueue) removeAt(i int) {
	proc := pq.processes[i]
	if proc.free != nil {
		proc.free(proc.arg)
	}
	pq.processes = append(pq.processes[:i], pq.processes[i+1:]...)

	switch {
	case len(pq.processes) == 0:
		pq.current = -1
	case i < pq.current:
		pq.current--
	case i == pq.current:
		if pq.current >= len(pq.processes) {
			pq.current = 0
		}
	}
}

func (pq *ProcessQueue) indexOfPID(pid uint32) int {
	for i, p := range pq.processes {
		if p.PID == pid {
			return i
		}
	}
	return -1
}

// FindByPid returns the process with the given pid, or nil.
func (pq *ProcessQueue) FindByPid(pid uint32) *Process {
	i := pq.indexOfPID(pid)
	if i < 0 {
		return nil
	}
	return pq.processes[i]
}

// DequeueByPid cancels and frees the process with the given pid. A
// process dequeued while running has its arg freed immediately.
func (pq *ProcessQueue) DequeueByPid(pid uint32) bool {
	i := pq.indexOfPID(pid)
	if i < 0 {
		return false
	}
	pq.removeAt(i)
	return true
}

// workSlotMs is one work slot: a process may be stepped at most once
// per this interval.
const workSlotMs = int64(1000 / MsgPerSecondLim)

// Tick advances the scheduler by one slot.
func (pq *ProcessQueue) Tick(e *Engine, nowMs int64) {
	if len(pq.processes) == 0 {
		pq.current = -1
		return
	}
	if pq.current < 0 || pq.current >= len(pq.processes) {
		pq.current = 0
	}

	proc := pq.processes[pq.current]
	if nowMs-proc.updatedAtMs <= workSlotMs {
		pq.current = pq.nextIndex(pq.current)
		return
	}

	proc.updatedAtMs = nowMs
	status := proc.fn(e, proc.arg)
	proc.busy = status
	if status < 0 {
		pq.removeAt(pq.current)
	} else {
		pq.current = pq.nextIndex(pq.current)
	}
}

// Count returns the number of queued processes.
func (pq *ProcessQueue) Count() int {
	return len(pq.processes)
}
