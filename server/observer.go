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

package server

import (
	"time"

	"github.com/itetris/baseapp/protocol"
	. "github.com/itetris/baseapp/types"
)

// Observer is told about the work done by the server. All calls happen on the server goroutine.
type Observer interface {
	CommandHandled(cmd protocol.CommandId, status protocol.Status, elapsed time.Duration)
	MessageHandled(frames int, replyBytes int)
	StepStarted(ts TimeStep)
	Snapshot(s Snapshot)
}

// Snapshot is the size of the server state after a message was handled.
type Snapshot struct {
	MobileNodes     int
	FixedNodes      int
	Payloads        int
	PendingEvents   int
	StepIndex       uint64
	PayloadsExpired uint64
	NodesReaped     uint64
}

// StatusListener is told when the control connection is up or down.
type StatusListener interface {
	SetServing(serving bool)
}

// MessageRecorder sees every transport message exchanged with iCS, without its length prefix. ts is the
// current time step once the message was dispatched.
type MessageRecorder interface {
	RecordMessage(ts TimeStep, incoming bool, content []byte)
}

type noopObserver struct{}

func (noopObserver) CommandHandled(protocol.CommandId, protocol.Status, time.Duration) {}
func (noopObserver) MessageHandled(int, int)                                          {}
func (noopObserver) StepStarted(TimeStep)                                             {}
func (noopObserver) Snapshot(Snapshot)                                                {}

type noopStatusListener struct{}

func (noopStatusListener) SetServing(bool) {}

type noopRecorder struct{}

func (noopRecorder) RecordMessage(TimeStep, bool, []byte) {}

// Observers fans every call out to each observer in order.
type Observers []Observer

func (obs Observers) CommandHandled(cmd protocol.CommandId, status protocol.Status, elapsed time.Duration) {
	for _, o := range obs {
		o.CommandHandled(cmd, status, elapsed)
	}
}

func (obs Observers) MessageHandled(frames int, replyBytes int) {
	for _, o := range obs {
		o.MessageHandled(frames, replyBytes)
	}
}

func (obs Observers) StepStarted(ts TimeStep) {
	for _, o := range obs {
		o.StepStarted(ts)
	}
}

func (obs Observers) Snapshot(s Snapshot) {
	for _, o := range obs {
		o.Snapshot(s)
	}
}
