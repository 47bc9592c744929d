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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/scheduler"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

type sentMessage struct {
	commType CommType
	dest     NodeId
	p        *payload.Payload
}

type fakeNode struct {
	id       NodeId
	kind     StationKind
	mobility *MobilityInfo
	ts       TimeStep
	sched    *scheduler.Scheduler
	traffic  *trafficsim.Cache
	sent     []sentMessage
}

func newFakeNode(id NodeId, kind StationKind) *fakeNode {
	return &fakeNode{id: id, kind: kind, sched: scheduler.NewScheduler(), traffic: trafficsim.NewCache()}
}

func (n *fakeNode) Id() NodeId                       { return n.id }
func (n *fakeNode) Kind() StationKind                { return n.kind }
func (n *fakeNode) CurrentTimeStep() TimeStep        { return n.ts }
func (n *fakeNode) Jitter(max int) int               { return 0 }
func (n *fakeNode) Traffic() trafficsim.Communicator { return n.traffic }
func (n *fakeNode) Logger() *logger.NodeLogger       { return logger.GetNodeLogger(n.id) }

func (n *fakeNode) Mobility() (MobilityInfo, bool) {
	if n.mobility == nil {
		return MobilityInfo{}, false
	}
	return *n.mobility, true
}

func (n *fakeNode) SendMessage(commType CommType, dest NodeId, p *payload.Payload) string {
	n.sent = append(n.sent, sentMessage{commType, dest, p})
	return "m1"
}

func (n *fakeNode) Schedule(delay int64, cb func()) scheduler.EventId {
	return n.sched.Schedule(delay, cb)
}

func (n *fakeNode) Cancel(id *scheduler.EventId) {
	n.sched.Cancel(id)
}

func (n *fakeNode) advance(ts TimeStep) {
	n.ts = ts
	n.sched.Notify(int64(ts))
}

func camFrom(src NodeId, speed, heading float32) *payload.Payload {
	cam := CamMessage{Speed: speed, Heading: heading}
	return payload.NewPayload(0, &payload.AppHeader{ProtocolId: ProtocolCAM, Source: src,
		Destination: BroadcastNodeId}, cam.Encode())
}

func TestNew(t *testing.T) {
	n := newFakeNode(1, StationMobile)
	for _, name := range []string{NameRsu, NameMobile, NameDataManager} {
		b, err := New(name, nil, n)
		require.NoError(t, err)
		assert.Equal(t, name, b.Name())
	}
	_, err := New("bogus", nil, n)
	assert.Error(t, err)
}

func TestMessages_RoundTrip(t *testing.T) {
	cam := CamMessage{Position: Position{X: 1, Y: 2}, Speed: 3, Heading: 4, Lane: "l_0"}
	gotCam, err := DecodeCam(cam.Encode())
	assert.NoError(t, err)
	assert.Equal(t, cam, gotCam)

	denm := DenmMessage{EventType: DenmEventCongestion, Direction: DirectionSouth, ValidTill: 9}
	gotDenm, err := DecodeDenm(denm.Encode())
	assert.NoError(t, err)
	assert.Equal(t, denm, gotDenm)

	_, err = DecodeAdvice([]byte{0, 0})
	assert.Error(t, err)
}

func TestRsuBehaviour_CountsAndDenm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CongestionThreshold = 2
	cfg.DenmInterval = 1000
	n := newFakeNode(100, StationFixed)
	rb := NewRsuBehaviour(cfg, n)
	rb.Start()

	assert.True(t, rb.IsSubscribedTo(ProtocolCAM))
	assert.False(t, rb.IsSubscribedTo(ProtocolDENM))

	rb.Receive(camFrom(1, 10, 0), 0)
	rb.Receive(camFrom(2, 10, 5), 0)
	rb.Receive(camFrom(3, 10, 180), 0)

	data := DirectionValueMap{}
	assert.True(t, rb.Execute(data))
	assert.Equal(t, 2.0, data[DirectionNorth])
	assert.Equal(t, 1.0, data[DirectionSouth])
	assert.False(t, rb.Execute(DirectionValueMap{}))

	n.advance(1000)
	require.Len(t, n.sent, 1)
	assert.Equal(t, CommGeoBroadcast, n.sent[0].commType)
	assert.Equal(t, ProtocolDENM, n.sent[0].p.ProtocolId())
	denm, err := DecodeDenm(n.sent[0].p.Body)
	require.NoError(t, err)
	assert.Equal(t, DirectionNorth, denm.Direction)
	assert.Equal(t, TimeStep(1000)+cfg.DenmValidity, denm.ValidTill)

	n.advance(2000)
	assert.Len(t, n.sent, 1)

	rb.Stop()
	assert.Equal(t, 0, n.sched.Len())
}

func TestRsuBehaviour_CongestedLanes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CongestionThreshold = 1
	cfg.DenmInterval = 1000
	n := newFakeNode(100, StationFixed)
	rb := NewRsuBehaviour(cfg, n)
	rb.Start()

	// no traffic light reported yet
	rb.Receive(camFrom(1, 10, 0), 0)
	n.advance(1000)
	require.Len(t, n.sent, 1)
	assert.Empty(t, rb.CongestedLanes)

	n.traffic.UpdateTrafficLights(false, "", []trafficsim.TrafficLight{
		{Id: "tl", Links: []trafficsim.Link{{From: "b_0", To: "x"}, {From: "a_0", To: "y"}, {From: "b_0", To: "z"}}},
		{Id: "tl2", Links: []trafficsim.Link{{From: "c_0", To: "x"}, {From: "a_0", To: "w"}}},
	})
	rb.Receive(camFrom(2, 10, 0), 0)
	n.advance(2000)
	require.Len(t, n.sent, 2)
	assert.Equal(t, []string{"a_0", "b_0", "c_0"}, rb.CongestedLanes)
}

func TestMobileBehaviour_Cams(t *testing.T) {
	cfg := DefaultConfig()
	n := newFakeNode(1, StationMobile)
	mb := NewMobileBehaviour(cfg, n)
	mb.Start()

	n.advance(1000)
	assert.Empty(t, n.sent)

	n.mobility = &MobilityInfo{NodeId: 1, Speed: 12, Heading: 90}
	n.advance(2000)
	require.Len(t, n.sent, 1)
	cam, err := DecodeCam(n.sent[0].p.Body)
	require.NoError(t, err)
	assert.Equal(t, float32(12), cam.Speed)
	assert.Equal(t, 1, mb.CamsSent)

	mb.Stop()
	n.advance(5000)
	assert.Len(t, n.sent, 1)
}

func TestMobileBehaviour_ReceiveAndExecute(t *testing.T) {
	cfg := DefaultConfig()
	n := newFakeNode(1, StationMobile)
	n.mobility = &MobilityInfo{NodeId: 1, Heading: 90}
	mb := NewMobileBehaviour(cfg, n)

	assert.False(t, mb.Execute(DirectionValueMap{}))

	n.ts = 1000
	mb.Receive(camFrom(2, 10, 0), 0)
	mb.Receive(camFrom(1, 10, 0), 0)
	adv := AdviceMessage{Direction: DirectionEast, SpeedLimit: 8}
	mb.Receive(payload.NewPayload(1000, &payload.AppHeader{ProtocolId: ProtocolTMCAdvice, Source: 100},
		adv.Encode()), 0)
	denm := DenmMessage{EventType: DenmEventCongestion, ValidTill: 2000}
	mb.Receive(payload.NewPayload(1000, &payload.AppHeader{ProtocolId: ProtocolDENM, Source: 100},
		denm.Encode()), 0)

	data := DirectionValueMap{}
	assert.True(t, mb.Execute(data))
	assert.Equal(t, 1.0, data["neighbours"])
	assert.Equal(t, 8.0, data["speedAdvice"])
	assert.Equal(t, float64(DenmEventCongestion), data["denm"])

	n.ts = 1000 + cfg.NeighbourTimeout + 1
	data = DirectionValueMap{}
	mb.Execute(data)
	assert.NotContains(t, data, "neighbours")
	assert.NotContains(t, data, "denm")

	mb.ConfirmSend(1, false)
	mb.ConfirmSend(2, true)
	assert.Equal(t, 1, mb.SendFailed)
	assert.Equal(t, 1, mb.SendSucceed)
}

func TestDataManagerBehaviour(t *testing.T) {
	db := NewDataManagerBehaviour(newFakeNode(100, StationFixed))
	assert.False(t, db.Execute(DirectionValueMap{}))
	db.Receive(camFrom(1, 10, 0), 0)
	db.Receive(camFrom(2, 20, 0), 0)
	data := DirectionValueMap{}
	assert.True(t, db.Execute(data))
	assert.Equal(t, 15.0, data["meanSpeed"])
	assert.InDelta(t, 7.0710678, data["stdSpeed"], 1e-6)
	assert.Equal(t, 2.0, data["samples"])
	assert.False(t, db.Execute(DirectionValueMap{}))
}

func TestTmcBehaviour_Advice(t *testing.T) {
	cfg := DefaultConfig()
	rsu1 := newFakeNode(100, StationFixed)
	rsu2 := newFakeNode(101, StationFixed)
	tmc := NewTmcBehaviour(cfg)

	tmc.OnMessage(rsu1, camFrom(1, 2, 0), 0)
	tmc.OnMessage(rsu1, camFrom(2, 4, 0), 0)
	tmc.OnMessage(rsu2, camFrom(3, 20, 90), 0)
	tmc.Execute()

	assert.Equal(t, 1, tmc.Executions)
	assert.Equal(t, 3.0, tmc.LastMeans(100)[DirectionNorth])
	assert.Equal(t, 20.0, tmc.LastMeans(101)[DirectionEast])
	require.Len(t, rsu1.sent, 1)
	assert.Empty(t, rsu2.sent)
	adv, err := DecodeAdvice(rsu1.sent[0].p.Body)
	require.NoError(t, err)
	assert.Equal(t, DirectionNorth, adv.Direction)
	assert.Equal(t, float32(cfg.AdviceSpeedLimit), adv.SpeedLimit)

	tmc.Execute()
	assert.Empty(t, tmc.LastMeans(100))
	assert.Equal(t, 1, tmc.AdvicesSent)
}
