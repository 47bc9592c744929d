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

package node

import (
	"github.com/itetris/baseapp/behaviour"
	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/scheduler"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

var _ behaviour.NodeInterface = (*Node)(nil)

func (n *Node) Id() NodeId {
	return n.id
}

func (n *Node) Kind() StationKind {
	return n.kind
}

func (n *Node) Mobility() (MobilityInfo, bool) {
	if n.mobility == nil {
		return MobilityInfo{}, false
	}
	return *n.mobility, true
}

func (n *Node) CurrentTimeStep() TimeStep {
	return n.env.TimeStep
}

// SendMessage stores p in the payload storage and queues it for the next step report. Broadcasts may
// be read by every receiver; a unicast payload is consumed by its single read.
func (n *Node) SendMessage(commType CommType, dest NodeId, p *payload.Payload) string {
	n.seq++
	p.Back = &payload.SequenceTrailer{SequenceNumber: n.seq}
	policy := payload.MultipleRead
	if commType == CommUnicast {
		policy = payload.DeleteOnRead
	}
	key := n.env.Payloads.Insert(p, policy)
	msgId := n.env.nextMessageId()
	if commType == CommUnicast {
		n.unicastKeys[msgId] = key
	}
	size := int32(p.Size())
	if size < n.env.Behaviours.MessageSize {
		size = n.env.Behaviours.MessageSize
	}
	n.outbox = append(n.outbox, OutgoingMessage{
		CommType:    commType,
		Destination: dest,
		ProtocolId:  p.ProtocolId(),
		MessageId:   msgId,
		PayloadKey:  key,
		Size:        size,
	})
	n.log.Tracef("queued message %d %s to %d", msgId, key, dest)
	return key
}

func (n *Node) Schedule(delay int64, cb func()) scheduler.EventId {
	return n.env.Scheduler.Schedule(delay, cb)
}

func (n *Node) Cancel(id *scheduler.EventId) {
	n.env.Scheduler.Cancel(id)
}

func (n *Node) Jitter(max int) int {
	return n.env.Rand.Jitter(n.id, max)
}

func (n *Node) Traffic() trafficsim.Communicator {
	return n.env.Traffic
}

func (n *Node) Logger() *logger.NodeLogger {
	return n.log
}
