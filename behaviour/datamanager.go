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
	"gonum.org/v1/gonum/stat"

	"github.com/itetris/baseapp/payload"
	. "github.com/itetris/baseapp/types"
)

// DataManagerBehaviour aggregates the speeds reported in received CAMs into per-step statistics.
type DataManagerBehaviour struct {
	node   NodeInterface
	speeds []float64
}

func NewDataManagerBehaviour(node NodeInterface) *DataManagerBehaviour {
	return &DataManagerBehaviour{node: node}
}

func (db *DataManagerBehaviour) Name() string {
	return NameDataManager
}

func (db *DataManagerBehaviour) Start() {}

func (db *DataManagerBehaviour) Stop() {}

func (db *DataManagerBehaviour) IsSubscribedTo(pid ProtocolId) bool {
	return pid == ProtocolCAM
}

func (db *DataManagerBehaviour) Receive(p *payload.Payload, snr float64) {
	cam, err := DecodeCam(p.Body)
	if err != nil {
		return
	}
	db.speeds = append(db.speeds, float64(cam.Speed))
}

func (db *DataManagerBehaviour) Execute(data DirectionValueMap) bool {
	if len(db.speeds) == 0 {
		return false
	}
	data["meanSpeed"] = stat.Mean(db.speeds, nil)
	if len(db.speeds) > 1 {
		data["stdSpeed"] = stat.StdDev(db.speeds, nil)
	}
	data["samples"] = float64(len(db.speeds))
	db.speeds = db.speeds[:0]
	return true
}
