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
	"golang.org/x/exp/slices"

	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/scheduler"
	. "github.com/itetris/baseapp/types"
)

var directions = []string{DirectionNorth, DirectionEast, DirectionSouth, DirectionWest}

// RsuBehaviour counts the CAMs heard per approach direction and warns vehicles with a DENM when an
// approach gets congested.
type RsuBehaviour struct {
	cfg  *Config
	node NodeInterface

	stepCounts   map[string]int // CAMs since the last Execute
	windowCounts map[string]int // CAMs since the last congestion check
	denmEvent    scheduler.EventId
	DenmsSent    int

	// CongestedLanes are the signalised lanes at the time of the last congestion warning.
	CongestedLanes []string
}

func NewRsuBehaviour(cfg *Config, node NodeInterface) *RsuBehaviour {
	return &RsuBehaviour{
		cfg:          cfg,
		node:         node,
		stepCounts:   map[string]int{},
		windowCounts: map[string]int{},
	}
}

func (rb *RsuBehaviour) Name() string {
	return NameRsu
}

func (rb *RsuBehaviour) Start() {
	if rb.cfg.DenmInterval > 0 {
		rb.denmEvent = rb.node.Schedule(rb.cfg.DenmInterval, rb.checkCongestion)
	}
}

func (rb *RsuBehaviour) Stop() {
	rb.node.Cancel(&rb.denmEvent)
}

func (rb *RsuBehaviour) IsSubscribedTo(pid ProtocolId) bool {
	return pid == ProtocolCAM
}

func (rb *RsuBehaviour) Receive(p *payload.Payload, snr float64) {
	cam, err := DecodeCam(p.Body)
	if err != nil {
		rb.node.Logger().Warnf("dropping CAM: %v", err)
		return
	}
	dir := HeadingToDirection(cam.Heading)
	rb.stepCounts[dir]++
	rb.windowCounts[dir]++
}

func (rb *RsuBehaviour) Execute(data DirectionValueMap) bool {
	produced := false
	for dir, n := range rb.stepCounts {
		if n > 0 {
			data[dir] += float64(n)
			produced = true
		}
	}
	clear(rb.stepCounts)
	return produced
}

// checkCongestion runs every DenmInterval and broadcasts one DENM per congested direction.
func (rb *RsuBehaviour) checkCongestion() {
	rb.denmEvent = scheduler.InvalidEventId
	var congested []string
	for dir, n := range rb.windowCounts {
		if n >= rb.cfg.CongestionThreshold {
			congested = append(congested, dir)
		}
	}
	slices.Sort(congested)
	clear(rb.windowCounts)

	if len(congested) > 0 {
		var pos Position
		if mi, ok := rb.node.Mobility(); ok {
			pos = mi.Position
		}
		validTill := rb.node.CurrentTimeStep() + rb.cfg.DenmValidity
		rb.CongestedLanes = rb.controlledLanes()
		for _, dir := range congested {
			denm := DenmMessage{EventType: DenmEventCongestion, Position: pos, Direction: dir, ValidTill: validTill}
			key := broadcast(rb.node, ProtocolDENM, denm.Encode())
			rb.DenmsSent++
			rb.node.Logger().Infof("congestion on approach %s, DENM %s, lanes %v", dir, key, rb.CongestedLanes)
		}
	}
	rb.denmEvent = rb.node.Schedule(rb.cfg.DenmInterval, rb.checkCongestion)
}

// controlledLanes returns the incoming lanes of every traffic light known to the traffic simulator.
func (rb *RsuBehaviour) controlledLanes() []string {
	lights, err := rb.node.Traffic().GetTrafficLights()
	if err != nil {
		rb.node.Logger().Debugf("no controlled lanes: %v", err)
		return nil
	}
	var lanes []string
	for _, tl := range lights {
		for _, l := range tl.Links {
			if !slices.Contains(lanes, l.From) {
				lanes = append(lanes, l.From)
			}
		}
	}
	slices.Sort(lanes)
	return lanes
}
