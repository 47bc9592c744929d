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

package behaviour

import (
	"github.com/pkg/errors"

	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

const (
	DenmEventCongestion uint8 = 1
)

// CamMessage is the body of a cooperative awareness message.
type CamMessage struct {
	Position Position
	Speed    float32
	Heading  float32
	Lane     string
}

func (m *CamMessage) Encode() []byte {
	s := storage.New()
	s.WriteFloat(m.Position.X)
	s.WriteFloat(m.Position.Y)
	s.WriteFloat(m.Speed)
	s.WriteFloat(m.Heading)
	s.WriteString(m.Lane)
	return s.Bytes()
}

func DecodeCam(body []byte) (CamMessage, error) {
	s := storage.FromBytes(body)
	m := CamMessage{
		Position: Position{X: s.ReadFloat(), Y: s.ReadFloat()},
		Speed:    s.ReadFloat(),
		Heading:  s.ReadFloat(),
		Lane:     s.ReadString(),
	}
	return m, errors.Wrap(s.Err(), "decode CAM")
}

// DenmMessage is the body of a decentralized environmental notification.
type DenmMessage struct {
	EventType uint8
	Position  Position
	Direction string
	ValidTill TimeStep
}

func (m *DenmMessage) Encode() []byte {
	s := storage.New()
	s.WriteUint8(m.EventType)
	s.WriteFloat(m.Position.X)
	s.WriteFloat(m.Position.Y)
	s.WriteString(m.Direction)
	s.WriteUint32(m.ValidTill)
	return s.Bytes()
}

func DecodeDenm(body []byte) (DenmMessage, error) {
	s := storage.FromBytes(body)
	m := DenmMessage{
		EventType: s.ReadUint8(),
		Position:  Position{X: s.ReadFloat(), Y: s.ReadFloat()},
		Direction: s.ReadString(),
		ValidTill: s.ReadUint32(),
	}
	return m, errors.Wrap(s.Err(), "decode DENM")
}

// AdviceMessage is a speed advice of the traffic management centre for one approach direction.
type AdviceMessage struct {
	Direction  string
	SpeedLimit float32
}

func (m *AdviceMessage) Encode() []byte {
	s := storage.New()
	s.WriteString(m.Direction)
	s.WriteFloat(m.SpeedLimit)
	return s.Bytes()
}

func DecodeAdvice(body []byte) (AdviceMessage, error) {
	s := storage.FromBytes(body)
	m := AdviceMessage{
		Direction:  s.ReadString(),
		SpeedLimit: s.ReadFloat(),
	}
	return m, errors.Wrap(s.Err(), "decode advice")
}

// newMessage builds a payload of protocol pid originating from node.
func newMessage(node NodeInterface, pid ProtocolId, dest NodeId, body []byte) *payload.Payload {
	ts := node.CurrentTimeStep()
	return payload.NewPayload(ts, &payload.AppHeader{
		ProtocolId:     pid,
		Source:         node.Id(),
		Destination:    dest,
		GenerationTime: ts,
	}, body)
}

// broadcast sends a geo-broadcast message of protocol pid from node.
func broadcast(node NodeInterface, pid ProtocolId, body []byte) string {
	return node.SendMessage(CommGeoBroadcast, BroadcastNodeId, newMessage(node, pid, BroadcastNodeId, body))
}
