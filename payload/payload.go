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

package payload

import (
	"fmt"

	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

// Header is one protocol frame wrapped around a payload body.
type Header interface {
	Serialize(s *storage.Storage)
	Size() int
	String() string
}

// AppHeader is the front header of every application message.
type AppHeader struct {
	ProtocolId     ProtocolId
	MessageType    uint8
	Source         NodeId
	Destination    NodeId
	GenerationTime TimeStep
}

const appHeaderLen = 1 + 1 + 4 + 4 + 4

func (h *AppHeader) Serialize(s *storage.Storage) {
	s.WriteUint8(h.ProtocolId)
	s.WriteUint8(h.MessageType)
	s.WriteInt(int32(h.Source))
	s.WriteInt(int32(h.Destination))
	s.WriteUint32(h.GenerationTime)
}

func (h *AppHeader) Size() int {
	return appHeaderLen
}

func (h *AppHeader) String() string {
	return fmt.Sprintf("AppHeader{proto=%d,type=%d,src=%d,dst=%d,gen=%d}", h.ProtocolId, h.MessageType,
		h.Source, h.Destination, h.GenerationTime)
}

// DeserializeAppHeader reads an AppHeader written by Serialize.
func DeserializeAppHeader(s *storage.Storage) *AppHeader {
	return &AppHeader{
		ProtocolId:     s.ReadUint8(),
		MessageType:    s.ReadUint8(),
		Source:         NodeId(s.ReadInt()),
		Destination:    NodeId(s.ReadInt()),
		GenerationTime: s.ReadUint32(),
	}
}

// SequenceTrailer is the back header carrying the per-sender sequence number.
type SequenceTrailer struct {
	SequenceNumber uint32
}

func (t *SequenceTrailer) Serialize(s *storage.Storage) {
	s.WriteUint32(t.SequenceNumber)
}

func (t *SequenceTrailer) Size() int {
	return 4
}

func (t *SequenceTrailer) String() string {
	return fmt.Sprintf("Trailer{seq=%d}", t.SequenceNumber)
}

// Payload is an application message body with at most one front and one back header.
type Payload struct {
	Id       uint64
	TimeStep TimeStep
	Front    Header
	Back     Header
	Body     []byte

	released bool
}

// NewPayload creates a payload created at time step ts.
func NewPayload(ts TimeStep, front Header, body []byte) *Payload {
	return &Payload{
		TimeStep: ts,
		Front:    front,
		Body:     body,
	}
}

// Size returns the number of bytes the payload occupies on the air.
func (p *Payload) Size() int {
	n := len(p.Body)
	if p.Front != nil {
		n += p.Front.Size()
	}
	if p.Back != nil {
		n += p.Back.Size()
	}
	return n
}

// AppHeader returns the front header if it is an AppHeader.
func (p *Payload) AppHeader() (*AppHeader, bool) {
	h, ok := p.Front.(*AppHeader)
	return h, ok
}

// ProtocolId returns the protocol of the front AppHeader, or 0.
func (p *Payload) ProtocolId() ProtocolId {
	if h, ok := p.AppHeader(); ok {
		return h.ProtocolId
	}
	return 0
}

// Release drops body and headers; a released payload must not be used again.
func (p *Payload) Release() {
	p.Front = nil
	p.Back = nil
	p.Body = nil
	p.released = true
}

func (p *Payload) IsReleased() bool {
	return p.released
}

func (p *Payload) String() string {
	return fmt.Sprintf("Payload{id=%d,ts=%d,front=%v,back=%v,body=%dB}", p.Id, p.TimeStep, p.Front, p.Back,
		len(p.Body))
}
