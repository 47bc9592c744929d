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
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/scheduler"
	. "github.com/itetris/baseapp/types"
)

// MobileBehaviour sends periodic CAMs, tracks neighbours and follows DENMs and speed advice.
type MobileBehaviour struct {
	cfg  *Config
	node NodeInterface

	camEvent   scheduler.EventId
	neighbours map[NodeId]TimeStep // last time each neighbour was heard
	advice     map[string]float32
	denm       *DenmMessage

	CamsSent    int
	SendFailed  int
	SendSucceed int
}

func NewMobileBehaviour(cfg *Config, node NodeInterface) *MobileBehaviour {
	return &MobileBehaviour{
		cfg:        cfg,
		node:       node,
		neighbours: map[NodeId]TimeStep{},
		advice:     map[string]float32{},
	}
}

func (mb *MobileBehaviour) Name() string {
	return NameMobile
}

func (mb *MobileBehaviour) Start() {
	if mb.cfg.CamInterval > 0 {
		mb.scheduleCam()
	}
}

func (mb *MobileBehaviour) Stop() {
	mb.node.Cancel(&mb.camEvent)
}

func (mb *MobileBehaviour) scheduleCam() {
	delay := mb.cfg.CamInterval + int64(mb.node.Jitter(mb.cfg.CamJitter))
	mb.camEvent = mb.node.Schedule(delay, mb.sendCam)
}

func (mb *MobileBehaviour) sendCam() {
	mb.camEvent = scheduler.InvalidEventId
	if mi, ok := mb.node.Mobility(); ok {
		cam := CamMessage{Position: mi.Position, Speed: mi.Speed, Heading: mi.Heading, Lane: mi.Lane}
		broadcast(mb.node, ProtocolCAM, cam.Encode())
		mb.CamsSent++
	}
	mb.scheduleCam()
}

func (mb *MobileBehaviour) IsSubscribedTo(pid ProtocolId) bool {
	return pid == ProtocolCAM || pid == ProtocolDENM || pid == ProtocolTMCAdvice
}

func (mb *MobileBehaviour) Receive(p *payload.Payload, snr float64) {
	hdr, ok := p.AppHeader()
	if !ok {
		return
	}
	log := mb.node.Logger()
	switch hdr.ProtocolId {
	case ProtocolCAM:
		if hdr.Source != mb.node.Id() {
			mb.neighbours[hdr.Source] = mb.node.CurrentTimeStep()
		}
	case ProtocolDENM:
		denm, err := DecodeDenm(p.Body)
		if err != nil {
			log.Warnf("dropping DENM: %v", err)
			return
		}
		mb.denm = &denm
		log.Debugf("DENM event %d on approach %s from %d", denm.EventType, denm.Direction, hdr.Source)
	case ProtocolTMCAdvice:
		adv, err := DecodeAdvice(p.Body)
		if err != nil {
			log.Warnf("dropping advice: %v", err)
			return
		}
		mb.advice[adv.Direction] = adv.SpeedLimit
	}
}

// Neighbours returns the number of stations heard within the neighbour timeout.
func (mb *MobileBehaviour) Neighbours() int {
	now := mb.node.CurrentTimeStep()
	for id, seen := range mb.neighbours {
		if now >= seen && now-seen > mb.cfg.NeighbourTimeout {
			delete(mb.neighbours, id)
		}
	}
	return len(mb.neighbours)
}

// Execute reports the neighbour count, an active DENM and the speed advice for the own heading.
func (mb *MobileBehaviour) Execute(data DirectionValueMap) bool {
	produced := false
	if n := mb.Neighbours(); n > 0 {
		data["neighbours"] = float64(n)
		produced = true
	}
	if mb.denm != nil {
		if mb.node.CurrentTimeStep() <= mb.denm.ValidTill {
			data["denm"] = float64(mb.denm.EventType)
			produced = true
		} else {
			mb.denm = nil
		}
	}
	if mi, ok := mb.node.Mobility(); ok {
		if limit, ok := mb.advice[HeadingToDirection(mi.Heading)]; ok {
			data["speedAdvice"] = float64(limit)
			produced = true
		}
	}
	return produced
}

func (mb *MobileBehaviour) ConfirmSend(messageId int32, ok bool) {
	if ok {
		mb.SendSucceed++
	} else {
		mb.SendFailed++
		mb.node.Logger().Debugf("message %d was not sent", messageId)
	}
}
