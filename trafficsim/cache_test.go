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

package trafficsim

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/itetris/baseapp/storage"
)

func testLights() []TrafficLight {
	return []TrafficLight{
		{Id: "tl2", State: "GrGr", Links: []Link{{From: "a_0", To: "b_0"}, {From: "a_0", To: "c_0"}}},
		{Id: "tl1", State: "rGrG", Links: []Link{{From: "d_0", To: "b_0"}}},
	}
}

func TestCache_TrafficLights(t *testing.T) {
	c := NewCache()
	var comm Communicator = c
	c.UpdateTrafficLights(false, "", testLights())

	lights, err := comm.GetTrafficLights()
	assert.NoError(t, err)
	assert.Len(t, lights, 2)
	assert.Equal(t, "tl1", lights[0].Id)

	links, err := comm.GetTrafficLightControlledLinks("tl2")
	assert.NoError(t, err)
	assert.Len(t, links, 2)

	_, err = comm.GetTrafficLightControlledLinks("tl9")
	assert.Equal(t, ErrUnknownTrafficLight, errors.Cause(err))

	next, err := comm.GetLaneLinksConsecutiveLane("a_0")
	assert.NoError(t, err)
	assert.Equal(t, []string{"b_0", "c_0"}, next)

	_, err = comm.GetLaneLinksConsecutiveLane("z_0")
	assert.Equal(t, ErrUnknownLane, errors.Cause(err))
}

func TestCache_FailedReport(t *testing.T) {
	c := NewCache()
	c.UpdateTrafficLights(false, "", testLights())
	c.UpdateTrafficLights(true, "sumo not reachable", nil)

	_, err := c.GetTrafficLights()
	assert.EqualError(t, err, "sumo not reachable")

	c.UpdateTrafficLights(false, "", nil)
	lights, err := c.GetTrafficLights()
	assert.NoError(t, err)
	assert.Len(t, lights, 2)
}

func TestCache_TraciCommands(t *testing.T) {
	c := NewCache()
	e1 := c.TraciCommand(1, storage.New())
	e2 := c.TraciCommand(2, storage.New())
	assert.NotEqual(t, e1, e2)
	assert.Equal(t, 2, c.PendingCount())

	pc, ok := c.Pending(e2)
	assert.True(t, ok)
	assert.Equal(t, 2, pc.Owner)

	res := storage.New()
	res.WriteInt(5)
	assert.True(t, c.DeliverResult(e2, res))
	assert.False(t, c.DeliverResult(e2, res))
	assert.False(t, c.DeliverResult(99, res))

	got, ok := c.TakeResult(e2)
	assert.True(t, ok)
	assert.Same(t, res, got)
	_, ok = c.TakeResult(e2)
	assert.False(t, ok)

	c.Forget(1)
	assert.Equal(t, 0, c.PendingCount())
	assert.False(t, c.DeliverResult(e1, res))
}

func TestCache_DropAndForgetResults(t *testing.T) {
	c := NewCache()
	e1 := c.TraciCommand(1, storage.New())
	e2 := c.TraciCommand(1, storage.New())
	e3 := c.TraciCommand(2, storage.New())

	c.Drop(e1)
	assert.False(t, c.DeliverResult(e1, storage.New()))

	assert.True(t, c.DeliverResult(e2, storage.New()))
	assert.True(t, c.DeliverResult(e3, storage.New()))
	assert.Equal(t, 2, c.ResultCount())

	c.Forget(1)
	assert.Equal(t, 1, c.ResultCount())
	_, ok := c.TakeResult(e2)
	assert.False(t, ok)

	c.Drop(e3)
	assert.Equal(t, 0, c.ResultCount())
	assert.Equal(t, 0, c.PendingCount())
}
