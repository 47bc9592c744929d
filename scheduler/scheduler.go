// Copyright (c) 2026, The baseApp Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package scheduler keeps the time-ordered one-shot callbacks of the server. It is driven by the
// server loop through Notify and is not safe for concurrent use.
package scheduler

import (
	"container/heap"
	"math"

	"github.com/itetris/baseapp/logger"
)

// EventId identifies a scheduled callback; 0 means "not scheduled".
type EventId = uint64

const InvalidEventId EventId = 0

// Never is returned by NextTime when no event is pending.
const Never int64 = math.MaxInt64

type event struct {
	Id   EventId
	Time int64
	cb   func()

	index int
}

type eventQueue []*event

func (eq eventQueue) Len() int {
	return len(eq)
}

// Less orders by time; equal times keep insertion order since ids increase monotonically.
func (eq eventQueue) Less(i, j int) bool {
	if eq[i].Time != eq[j].Time {
		return eq[i].Time < eq[j].Time
	}
	return eq[i].Id < eq[j].Id
}

func (eq eventQueue) Swap(i, j int) {
	eq[i], eq[j] = eq[j], eq[i]
	eq[i].index, eq[j].index = i, j
}

func (eq *eventQueue) Push(x interface{}) {
	e := x.(*event)
	e.index = len(*eq)
	*eq = append(*eq, e)
}

func (eq *eventQueue) Pop() (elem interface{}) {
	n := len(*eq)
	e := (*eq)[n-1]
	(*eq)[n-1] = nil
	*eq = (*eq)[:n-1]
	e.index = -1
	return e
}

type Scheduler struct {
	q        eventQueue
	events   map[EventId]*event
	lastId   EventId
	curTime  int64
	invoking EventId

	Counters struct {
		Scheduled uint64
		Fired     uint64
		Canceled  uint64
	}
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		q:      eventQueue{},
		events: map[EventId]*event{},
	}
	heap.Init(&s.q)
	return s
}

// Now returns the current time cursor of the scheduler.
func (s *Scheduler) Now() int64 {
	return s.curTime
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int {
	return len(s.q)
}

// NextTime returns the fire time of the earliest pending event, or Never.
func (s *Scheduler) NextTime() int64 {
	if len(s.q) == 0 {
		return Never
	}
	return s.q[0].Time
}

// Schedule registers cb to fire delay time units after the current time (or after 0 if the current
// time is not positive yet) and returns its id.
func (s *Scheduler) Schedule(delay int64, cb func()) EventId {
	logger.AssertNotNil(cb)

	base := s.curTime
	if base < 0 {
		base = 0
	}
	s.lastId++
	e := &event{
		Id:   s.lastId,
		Time: base + delay,
		cb:   cb,
	}
	heap.Push(&s.q, e)
	s.events[e.Id] = e
	s.Counters.Scheduled++
	return e.Id
}

// Cancel removes the event *id if it is pending and not the one currently firing, and always sets
// *id to InvalidEventId.
func (s *Scheduler) Cancel(id *EventId) {
	if id == nil || *id == InvalidEventId {
		return
	}
	defer func() { *id = InvalidEventId }()

	if *id == s.invoking {
		return
	}
	e, ok := s.events[*id]
	if !ok {
		return
	}
	heap.Remove(&s.q, e.index)
	delete(s.events, e.Id)
	s.Counters.Canceled++
}

// IsRunning reports whether id is still pending.
func (s *Scheduler) IsRunning(id EventId) bool {
	if id == InvalidEventId {
		return false
	}
	_, ok := s.events[id]
	return ok
}

// Notify fires, in time order, every event due at or before now and then moves the time cursor to
// now. Callbacks may schedule and cancel events; an event scheduled with a non-positive delay from
// inside a callback fires within the same Notify call.
func (s *Scheduler) Notify(now int64) int {
	fired := 0
	for len(s.q) > 0 && s.q[0].Time <= now {
		e := heap.Pop(&s.q).(*event)
		delete(s.events, e.Id)

		if e.Time > s.curTime {
			s.curTime = e.Time
		}
		s.invoking = e.Id
		e.cb()
		s.invoking = InvalidEventId

		fired++
		s.Counters.Fired++
	}
	if now > s.curTime {
		s.curTime = now
	}
	return fired
}
