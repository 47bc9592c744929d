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

package facilities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/itetris/baseapp/types"
)

func info(id NodeId, ts TimeStep, x, y float32) MobilityInfo {
	return MobilityInfo{NodeId: id, Position: Position{X: x, Y: y}, TimeStep: ts}
}

func TestMobilityHistory_DepthAndAt(t *testing.T) {
	mh := NewMobilityHistory(3)
	for ts := TimeStep(100); ts <= 500; ts += 100 {
		mh.Update(StationMobile, info(1, ts, float32(ts), 0))
	}
	hist := mh.History(1)
	assert.Len(t, hist, 3)
	assert.Equal(t, TimeStep(300), hist[0].TimeStep)

	latest, ok := mh.Latest(1)
	assert.True(t, ok)
	assert.Equal(t, TimeStep(500), latest.TimeStep)

	at, ok := mh.At(1, 450)
	assert.True(t, ok)
	assert.Equal(t, TimeStep(400), at.TimeStep)

	_, ok = mh.At(1, 200)
	assert.False(t, ok)
	_, ok = mh.At(2, 500)
	assert.False(t, ok)
}

func TestMobilityHistory_SameStepReplaces(t *testing.T) {
	mh := NewMobilityHistory(0)
	mh.Update(StationMobile, info(1, 100, 1, 1))
	mh.Update(StationMobile, info(1, 100, 2, 2))
	assert.Len(t, mh.History(1), 1)
	latest, _ := mh.Latest(1)
	assert.Equal(t, float32(2), latest.Position.X)
}

func TestMobilityHistory_Lookups(t *testing.T) {
	mh := NewMobilityHistory(0)
	mh.AddStation(9, StationFixed)
	mh.Update(StationMobile, info(3, 100, 0, 0))
	mh.Update(StationMobile, info(1, 100, 10, 0))
	mh.Update(StationMobile, info(2, 100, 100, 100))

	assert.Equal(t, []NodeId{1, 2, 3, 9}, mh.Ids())
	assert.Len(t, mh.All(), 3)

	area := mh.InArea(Position{}, 10)
	assert.Len(t, area, 2)
	assert.Equal(t, 1, area[0].NodeId)
	assert.Equal(t, 3, area[1].NodeId)

	byIds := mh.ByIds([]NodeId{2, 9, 7})
	assert.Len(t, byIds, 1)
	assert.Equal(t, 2, byIds[0].NodeId)

	kind, ok := mh.Kind(9)
	assert.True(t, ok)
	assert.Equal(t, StationFixed, kind)

	mh.RemoveStation(9)
	assert.False(t, mh.Has(9))
	assert.Equal(t, 3, mh.Len())
}
