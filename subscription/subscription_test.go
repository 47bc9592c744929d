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

package subscription

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itetris/baseapp/facilities"
	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

func newTestEnv() (*Env, *trafficsim.Cache) {
	mh := facilities.NewMobilityHistory(0)
	mh.Update(StationMobile, MobilityInfo{NodeId: 1, SumoId: "veh1", Position: Position{X: 0, Y: 0}})
	mh.Update(StationMobile, MobilityInfo{NodeId: 2, SumoId: "veh2", Position: Position{X: 50, Y: 0}})
	mh.Update(StationMobile, MobilityInfo{NodeId: 3, SumoId: "veh3", Position: Position{X: 500, Y: 0}})
	cache := trafficsim.NewCache()
	return &Env{Mobility: mh, Traffic: cache}, cache
}

func readMobilityIds(t *testing.T, out *storage.Storage) []NodeId {
	in := storage.FromBytes(out.Bytes())
	n := int(in.ReadInt())
	ids := make([]NodeId, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, protocol.ReadMobilityInfo(in, 0).NodeId)
	}
	require.NoError(t, in.Err())
	return ids
}

func TestNew_AssignsIncreasingIds(t *testing.T) {
	ids := &IdCounter{}
	p := storage.New()
	p.WriteUint8(ValueAllId)
	s1, err := New(ids, 1, 7, KindMobilityInformation, storage.FromBytes(p.Bytes()))
	require.NoError(t, err)
	s2, err := New(ids, 2, 7, KindReceivedCamInfo, storage.New())
	require.NoError(t, err)
	assert.Equal(t, int32(1), s1.Id())
	assert.Equal(t, int32(2), s2.Id())
	assert.Equal(t, int32(7), s2.RequestId())
	assert.Equal(t, 2, s2.Owner())

	_, err = New(ids, 1, 8, Kind(0x42), storage.New())
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))
	_, err = New(ids, 1, 8, KindMobilityInformation, storage.New())
	assert.Equal(t, ErrBadParams, errors.Cause(err))
	assert.Equal(t, int32(2), ids.Last())
}

func TestMobilitySubscription_Modes(t *testing.T) {
	env, _ := newTestEnv()
	ids := &IdCounter{}

	mk := func(write func(p *storage.Storage)) Subscription {
		p := storage.New()
		write(p)
		sub, err := New(ids, 1, 1, KindMobilityInformation, storage.FromBytes(p.Bytes()))
		require.NoError(t, err)
		return sub
	}

	all := mk(func(p *storage.Storage) { p.WriteUint8(ValueAllId) })
	own := mk(func(p *storage.Storage) { p.WriteUint8(ValueOwn) })
	set := mk(func(p *storage.Storage) {
		p.WriteUint8(ValueSetId)
		p.WriteInt(2)
		p.WriteInt(3)
		p.WriteInt(99)
	})
	area := mk(func(p *storage.Storage) {
		p.WriteUint8(ValueArea)
		p.WriteFloat(0)
		p.WriteFloat(0)
		p.WriteFloat(100)
	})

	for sub, want := range map[Subscription][]NodeId{
		all:  {1, 2, 3},
		own:  {1},
		set:  {3},
		area: {1, 2},
	} {
		out := storage.New()
		assert.True(t, sub.InformApp(env, out))
		assert.Equal(t, want, readMobilityIds(t, out), sub.String())
		assert.False(t, sub.IsDone())
		assert.True(t, sub.IsCancelable())
	}
}

func TestMobilitySubscription_EmptySnapshot(t *testing.T) {
	env := &Env{Mobility: facilities.NewMobilityHistory(0), Traffic: trafficsim.NewCache()}
	p := storage.New()
	p.WriteUint8(ValueAllId)
	sub, err := New(&IdCounter{}, 42, 7, KindMobilityInformation, storage.FromBytes(p.Bytes()))
	require.NoError(t, err)
	out := storage.New()
	sub.InformApp(env, out)
	assert.Equal(t, []byte{0, 0, 0, 0}, out.Bytes())
}

func TestTrafficLightSubscription(t *testing.T) {
	env, cache := newTestEnv()
	cache.UpdateTrafficLights(false, "", []trafficsim.TrafficLight{{Id: "a", State: "G"}, {Id: "b", State: "r"}})

	p := storage.New()
	p.WriteString("b")
	sub, err := New(&IdCounter{}, 1, 1, KindTrafficLightInformation, storage.FromBytes(p.Bytes()))
	require.NoError(t, err)

	out := storage.New()
	assert.True(t, sub.InformApp(env, out))
	failed, _, lights := protocol.ReadTrafficLightReport(storage.FromBytes(out.Bytes()))
	assert.False(t, failed)
	require.Len(t, lights, 1)
	assert.Equal(t, "r", lights[0].State)

	cache.UpdateTrafficLights(true, "connection lost", nil)
	out = storage.New()
	assert.True(t, sub.InformApp(env, out))
	failed, msg, lights := protocol.ReadTrafficLightReport(storage.FromBytes(out.Bytes()))
	assert.True(t, failed)
	assert.Equal(t, "connection lost", msg)
	assert.Empty(t, lights)
}

func TestTrafficLightSubscription_UnknownLight(t *testing.T) {
	env, cache := newTestEnv()
	cache.UpdateTrafficLights(false, "", nil)
	p := storage.New()
	p.WriteString("nope")
	sub, err := New(&IdCounter{}, 1, 1, KindTrafficLightInformation, storage.FromBytes(p.Bytes()))
	require.NoError(t, err)
	out := storage.New()
	sub.InformApp(env, out)
	failed, msg, _ := protocol.ReadTrafficLightReport(storage.FromBytes(out.Bytes()))
	assert.True(t, failed)
	assert.Contains(t, msg, "nope")
}

func TestTraciSubscription_OneShot(t *testing.T) {
	env, cache := newTestEnv()
	cmd := storage.New()
	cmd.WriteUint8(0xa4)
	p := storage.New()
	p.WriteStorage(cmd)
	sub, err := New(&IdCounter{}, 5, 1, KindSumoTraciCommand, storage.FromBytes(p.Bytes()))
	require.NoError(t, err)
	assert.True(t, sub.IsCancelable())

	out := storage.New()
	assert.True(t, sub.InformApp(env, out))
	in := storage.FromBytes(out.Bytes())
	assert.Equal(t, uint8(0), in.ReadUint8())
	execId := in.ReadInt()
	assert.Equal(t, []byte{0xa4}, in.ReadStorage().Bytes())
	assert.False(t, sub.IsCancelable())

	assert.False(t, sub.InformApp(env, storage.New()))
	assert.False(t, sub.IsDone())

	res := storage.New()
	res.WriteString("ok")
	require.True(t, cache.DeliverResult(execId, res))

	out = storage.New()
	assert.True(t, sub.InformApp(env, out))
	in = storage.FromBytes(out.Bytes())
	assert.Equal(t, uint8(1), in.ReadUint8())
	assert.Equal(t, execId, in.ReadInt())
	assert.Equal(t, "ok", in.ReadStorage().ReadString())
	assert.True(t, sub.IsDone())
	assert.True(t, sub.IsCancelable())
	assert.False(t, sub.InformApp(env, storage.New()))
}

func TestReceivedCamSubscription(t *testing.T) {
	env, _ := newTestEnv()
	sub, err := New(&IdCounter{}, 1, 1, KindReceivedCamInfo, storage.New())
	require.NoError(t, err)
	rx, ok := sub.(CamReceiver)
	require.True(t, ok)
	rx.AddCams([]CamInfo{{Sender: 2, Speed: 3}, {Sender: 4}})

	out := storage.New()
	assert.True(t, sub.InformApp(env, out))
	in := storage.FromBytes(out.Bytes())
	assert.Equal(t, int32(2), in.ReadInt())
	assert.Equal(t, 2, protocol.ReadCamInfo(in).Sender)

	out = storage.New()
	sub.InformApp(env, out)
	assert.Equal(t, []byte{0, 0, 0, 0}, out.Bytes())
}
