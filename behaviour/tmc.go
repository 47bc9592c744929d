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
	"gonum.org/v1/gonum/stat"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/payload"
	. "github.com/itetris/baseapp/types"
)

type rsuObservation struct {
	rsu    NodeInterface
	speeds map[string][]float64
}

// TmcBehaviour is the traffic management centre. It observes every message received by any RSU,
// runs once per step after all RSUs executed and sends speed advice through the observing RSU.
type TmcBehaviour struct {
	cfg          *Config
	observations map[NodeId]*rsuObservation
	lastMeans    map[NodeId]DirectionValueMap

	Executions        int
	SubscriptionSteps int
	AdvicesSent       int
}

func NewTmcBehaviour(cfg *Config) *TmcBehaviour {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &TmcBehaviour{
		cfg:          cfg,
		observations: map[NodeId]*rsuObservation{},
		lastMeans:    map[NodeId]DirectionValueMap{},
	}
}

// OnAddSubscriptions is called once per step, before the first subscription of the step is created.
func (tb *TmcBehaviour) OnAddSubscriptions() {
	tb.SubscriptionSteps++
}

// OnMessage records CAM speeds heard by receiver.
func (tb *TmcBehaviour) OnMessage(receiver NodeInterface, p *payload.Payload, snr float64) {
	if p.ProtocolId() != ProtocolCAM {
		return
	}
	cam, err := DecodeCam(p.Body)
	if err != nil {
		return
	}
	obs, ok := tb.observations[receiver.Id()]
	if !ok {
		obs = &rsuObservation{rsu: receiver, speeds: map[string][]float64{}}
		tb.observations[receiver.Id()] = obs
	}
	dir := HeadingToDirection(cam.Heading)
	obs.speeds[dir] = append(obs.speeds[dir], float64(cam.Speed))
}

// Execute computes the mean speed per RSU and approach and advises a speed limit on every approach
// slower than the advice threshold. Observations are consumed.
func (tb *TmcBehaviour) Execute() {
	tb.Executions++
	ids := make([]NodeId, 0, len(tb.observations))
	for id := range tb.observations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	clear(tb.lastMeans)
	for _, id := range ids {
		obs := tb.observations[id]
		means := DirectionValueMap{}
		for _, dir := range directions {
			speeds := obs.speeds[dir]
			if len(speeds) == 0 {
				continue
			}
			mean := stat.Mean(speeds, nil)
			means[dir] = mean
			if mean < tb.cfg.AdviceSpeedThreshold {
				tb.advise(obs.rsu, dir)
			}
		}
		tb.lastMeans[id] = means
	}
	clear(tb.observations)
	logger.Debugf("TMC executed, %d RSUs observed", len(ids))
}

func (tb *TmcBehaviour) advise(rsu NodeInterface, dir string) {
	adv := AdviceMessage{Direction: dir, SpeedLimit: float32(tb.cfg.AdviceSpeedLimit)}
	broadcast(rsu, ProtocolTMCAdvice, adv.Encode())
	tb.AdvicesSent++
}

// LastMeans returns the mean speeds per approach computed for rsu in the last execution.
func (tb *TmcBehaviour) LastMeans(rsu NodeId) DirectionValueMap {
	return tb.lastMeans[rsu]
}
