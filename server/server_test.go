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

package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itetris/baseapp/behaviour"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/progctx"
	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/subscription"
	. "github.com/itetris/baseapp/types"
)

type testFrame struct {
	cmd  protocol.CommandId
	ts   TimeStep
	body []byte
}

func frame(cmd protocol.CommandId, ts TimeStep, write func(b *storage.Storage)) testFrame {
	b := storage.New()
	if write != nil {
		write(b)
	}
	return testFrame{cmd: cmd, ts: ts, body: b.Bytes()}
}

type testServer struct {
	t      *testing.T
	ctx    *progctx.ProgCtx
	srv    *Server
	nh     *nodehandler.NodeHandler
	client net.Conn
	done   chan error
}

func testNodeHandlerConfig() *nodehandler.Config {
	cfg := nodehandler.DefaultConfig()
	cfg.RandomSeed = 1
	cfg.Behaviour.CamJitter = 0
	cfg.Rsus = []nodehandler.RsuConfig{{Id: 100, Behaviours: []string{behaviour.NameRsu}}}
	cfg.Tmc = true
	return cfg
}

func newTestServer(t *testing.T, cfg *nodehandler.Config) *testServer {
	if cfg == nil {
		cfg = testNodeHandlerConfig()
	}
	nh, err := nodehandler.NewNodeHandler(cfg)
	require.NoError(t, err)
	ctx := progctx.New(context.Background())
	srv := NewServer(ctx, nil, nh)
	serverConn, clientConn := net.Pipe()
	ts := &testServer{t: t, ctx: ctx, srv: srv, nh: nh, client: clientConn, done: make(chan error, 1)}
	go func() {
		ts.done <- srv.ServeConn(serverConn)
	}()
	t.Cleanup(func() {
		ctx.Cancel("test done")
		_ = clientConn.Close()
	})
	return ts
}

func (ts *testServer) sendRaw(content []byte) []protocol.Reply {
	require.NoError(ts.t, protocol.WriteMessage(ts.client, content))
	reply, err := protocol.ReadMessage(ts.client)
	require.NoError(ts.t, err)
	replies, err := protocol.ParseReplies(reply)
	require.NoError(ts.t, err)
	return replies
}

func (ts *testServer) send(frames ...testFrame) []protocol.Reply {
	msg := storage.New()
	for _, f := range frames {
		protocol.AppendFrame(msg, f.cmd, f.ts, f.body)
	}
	replies := ts.sendRaw(msg.Bytes())
	require.Len(ts.t, replies, len(frames))
	return replies
}

func (ts *testServer) stats() Stats {
	var st Stats
	require.True(ts.t, ts.srv.PostSync(func() { st = ts.srv.Stats() }))
	return st
}

func createNode(ts TimeStep, id NodeId) testFrame {
	return frame(protocol.CmdCreateMobileNode, ts, func(b *storage.Storage) {
		b.WriteInt(int32(id))
		b.WriteString("veh")
	})
}

func removeNode(ts TimeStep, id NodeId) testFrame {
	return frame(protocol.CmdRemoveMobileNode, ts, func(b *storage.Storage) { b.WriteInt(int32(id)) })
}

func askAllIds(ts TimeStep, id NodeId, requestId int32) testFrame {
	return frame(protocol.CmdAskForSubscription, ts, func(b *storage.Storage) {
		b.WriteInt(int32(id))
		b.WriteInt(requestId)
		b.WriteUint8(uint8(subscription.KindMobilityInformation))
		b.WriteUint8(subscription.ValueAllId)
	})
}

func notifyExecute(ts TimeStep, id NodeId) testFrame {
	return frame(protocol.CmdNotifyAppExecute, ts, func(b *storage.Storage) { b.WriteInt(int32(id)) })
}

func mobility(ts TimeStep, infos ...MobilityInfo) testFrame {
	return frame(protocol.CmdMobilityInformation, ts, func(b *storage.Storage) {
		b.WriteInt(int32(len(infos)))
		for i := range infos {
			protocol.WriteMobilityInfo(b, &infos[i])
		}
	})
}

type executeResult struct {
	hasData  bool
	data     map[string]float64
	messages []OutgoingMessage
	subs     map[int32]*storage.Storage
}

func parseExecute(t *testing.T, r *storage.Storage) executeResult {
	res := executeResult{hasData: r.ReadBool(), data: map[string]float64{}, subs: map[int32]*storage.Storage{}}
	for i, n := 0, int(r.ReadInt()); i < n; i++ {
		k := r.ReadString()
		res.data[k] = r.ReadDouble()
	}
	for i, n := 0, int(r.ReadInt()); i < n; i++ {
		res.messages = append(res.messages, protocol.ReadOutgoingMessage(r))
	}
	for i, n := 0, int(r.ReadInt()); i < n; i++ {
		id := r.ReadInt()
		res.subs[id] = r.ReadStorage()
	}
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
	return res
}

func TestServer_EndToEndScenario(t *testing.T) {
	ts := newTestServer(t, nil)

	r := ts.send(createNode(1000, 42))
	assert.Equal(t, protocol.StatusOK, r[0].Status)
	assert.Equal(t, "Create node 42", r[0].Description)

	r = ts.send(createNode(1000, 42))
	assert.Equal(t, protocol.StatusError, r[0].Status)
	assert.Equal(t, "Node 42 already exists", r[0].Description)

	r = ts.send(askAllIds(1000, 42, 7))
	require.Equal(t, protocol.StatusOK, r[0].Status)
	assert.True(t, r[0].Result.ReadBool())
	assert.Equal(t, int32(1), r[0].Result.ReadInt())
	snapshot := r[0].Result.ReadStorage()
	assert.Equal(t, int32(0), snapshot.ReadInt())

	r = ts.send(removeNode(1000, 42))
	assert.Equal(t, protocol.StatusOK, r[0].Status)
	assert.Equal(t, "Remove node 42", r[0].Description)
	r = ts.send(removeNode(1000, 42))
	assert.Equal(t, protocol.StatusError, r[0].Status)
	assert.Equal(t, "Node 42 not found", r[0].Description)

	r = ts.send(askAllIds(2000, 42, 7))
	require.Equal(t, protocol.StatusOK, r[0].Status)
	assert.True(t, r[0].Result.ReadBool())
	assert.Equal(t, int32(2), r[0].Result.ReadInt())

	var created bool
	require.True(t, ts.srv.PostSync(func() { created = ts.nh.Node(42) != nil && !ts.nh.Node(42).IsFixed() }))
	assert.True(t, created)
}

func TestServer_NotImplementedAndBatching(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(
		frame(0x42, 1000, func(b *storage.Storage) { b.WriteRaw([]byte{1, 2, 3, 4, 5}) }),
		createNode(1000, 1),
		createNode(1000, 2),
	)
	assert.Equal(t, protocol.StatusNotImplemented, r[0].Status)
	assert.Equal(t, protocol.CommandId(0x42), r[0].Command)
	assert.Equal(t, protocol.StatusOK, r[1].Status)
	assert.Equal(t, "Create node 2", r[2].Description)
	assert.Equal(t, uint64(1), ts.stats().NotImplemented)
	assert.Equal(t, uint64(1), ts.stats().Messages)
}

func TestServer_LengthMismatchRecovers(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(
		frame(protocol.CmdRemoveMobileNode, 1000, func(b *storage.Storage) {
			b.WriteInt(5)
			b.WriteInt(0x7777)
		}),
		frame(protocol.CmdCreateMobileNode, 1000, func(b *storage.Storage) { b.WriteInt(9) }),
		createNode(1000, 3),
	)
	assert.Equal(t, "Node 5 not found", r[0].Description)
	assert.Equal(t, protocol.StatusError, r[1].Status)
	assert.Contains(t, r[1].Description, "Malformed")
	assert.Equal(t, protocol.StatusOK, r[2].Status)
	st := ts.stats()
	assert.Equal(t, uint64(1), st.LengthMismatch)
	assert.Equal(t, uint64(1), st.Malformed)
}

func TestServer_SchedulerNotifiedOncePerStep(t *testing.T) {
	ts := newTestServer(t, nil)
	fired := 0
	require.True(t, ts.srv.PostSync(func() {
		ts.nh.Env().Scheduler.Schedule(500, func() { fired++ })
		ts.nh.Env().Scheduler.Schedule(1500, func() { fired++ })
	}))
	ts.send(createNode(1000, 1), createNode(1000, 2), removeNode(1000, 2))
	assert.Equal(t, 1, fired)
	ts.send(createNode(2000, 2))
	assert.Equal(t, 2, fired)
}

func TestServer_MessageFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(
		createNode(1000, 1),
		mobility(1000, MobilityInfo{NodeId: 1, SumoId: "veh1", Speed: 3, Heading: 10},
			MobilityInfo{NodeId: 100, SumoId: "rsu"}),
	)
	assert.Equal(t, int32(2), r[1].Result.ReadInt())

	// the first CAM of node 1 is due one interval after its creation
	r = ts.send(notifyExecute(2000, 1))
	require.Equal(t, protocol.StatusOK, r[0].Status)
	res := parseExecute(t, r[0].Result)
	require.Len(t, res.messages, 1)
	cam := res.messages[0]
	assert.Equal(t, ProtocolCAM, cam.ProtocolId)
	assert.Equal(t, CommGeoBroadcast, cam.CommType)

	r = ts.send(
		frame(protocol.CmdAppMessageReceive, 2000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(cam.MessageId)
			b.WriteString(cam.PayloadKey)
			b.WriteDouble(12.5)
		}),
		frame(protocol.CmdAppMessageSendConfirm, 2000, func(b *storage.Storage) {
			b.WriteInt(1)
			b.WriteInt(cam.MessageId)
			b.WriteUint8(1)
		}),
		notifyExecute(2000, 100),
	)
	assert.True(t, r[0].Result.ReadBool())
	assert.Equal(t, protocol.StatusOK, r[1].Status)
	rsu := parseExecute(t, r[2].Result)
	assert.True(t, rsu.hasData)
	assert.Equal(t, 1.0, rsu.data[DirectionNorth])

	var tmcRuns int
	require.True(t, ts.srv.PostSync(func() { tmcRuns = ts.nh.Tmc().Executions }))
	assert.Equal(t, 1, tmcRuns)

	r = ts.send(notifyExecute(2000, 55))
	assert.Equal(t, protocol.StatusError, r[0].Status)
}

func TestServer_SubscriptionsOverTheWire(t *testing.T) {
	ts := newTestServer(t, nil)
	traci := storage.New()
	traci.WriteUint8(0xa4)
	r := ts.send(
		frame(protocol.CmdAskForSubscription, 1000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(1)
			b.WriteUint8(uint8(subscription.KindSumoTraciCommand))
			b.WriteStorage(traci)
		}),
		frame(protocol.CmdAskForSubscription, 1000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(2)
			b.WriteUint8(0x77)
			b.WriteRaw([]byte{1, 2, 3})
		}),
		frame(protocol.CmdAskForSubscription, 1000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(3)
			b.WriteUint8(uint8(subscription.KindReceivedCamInfo))
		}),
	)
	require.Equal(t, protocol.StatusOK, r[0].Status)
	r[0].Result.ReadBool()
	r[0].Result.ReadInt()
	pending := r[0].Result.ReadStorage()
	assert.Equal(t, uint8(0), pending.ReadUint8())
	execId := pending.ReadInt()

	assert.Equal(t, protocol.StatusError, r[1].Status)
	assert.False(t, r[1].Result.ReadBool())
	assert.Equal(t, "Unknown subscription kind 119", r[1].Description)
	assert.Equal(t, protocol.StatusOK, r[2].Status)

	result := storage.New()
	result.WriteString("done")
	r = ts.send(
		frame(protocol.CmdSumoTraciCommand, 2000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(execId)
			b.WriteStorage(result)
		}),
		frame(protocol.CmdReceivedCamInfo, 2000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(1)
			protocol.WriteCamInfo(b, &CamInfo{Sender: 4, Speed: 9})
		}),
		frame(protocol.CmdTrafficLightInformation, 2000, func(b *storage.Storage) {
			b.WriteInt(100)
			protocol.WriteTrafficLightReport(b, false, "", nil)
		}),
		notifyExecute(2000, 100),
		frame(protocol.CmdEndSubscription, 2000, func(b *storage.Storage) {
			b.WriteInt(100)
			b.WriteInt(3)
			b.WriteUint8(0)
		}),
	)
	for i := 0; i < 3; i++ {
		assert.Equal(t, protocol.StatusOK, r[i].Status, r[i].Description)
	}
	exec := parseExecute(t, r[3].Result)
	require.Contains(t, exec.subs, int32(1))
	require.Contains(t, exec.subs, int32(3))
	traciRes := exec.subs[1]
	assert.Equal(t, uint8(1), traciRes.ReadUint8())
	assert.Equal(t, execId, traciRes.ReadInt())
	assert.Equal(t, "done", traciRes.ReadStorage().ReadString())
	assert.Equal(t, int32(1), exec.subs[3].ReadInt())
	assert.True(t, r[4].Result.ReadBool())
}

func TestServer_Close(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(createNode(1000, 1), frame(protocol.CmdAppClose, 0, nil))
	assert.Equal(t, "Closing", r[1].Description)
	select {
	case err := <-ts.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, StateClosed, ts.srv.State())
	assert.Empty(t, ts.nh.NodeIds())
	assert.Equal(t, ErrClosed, ts.srv.ServeConn(nil))
}

func TestServer_MalformedHeaderIsFatal(t *testing.T) {
	ts := newTestServer(t, nil)
	require.NoError(t, protocol.WriteMessage(ts.client, []byte{0, 0, 0, 99, protocol.CmdCreateMobileNode}))
	select {
	case err := <-ts.done:
		assert.Equal(t, protocol.ErrMalformedFrame, errors.Cause(err))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

type recordedMessage struct {
	ts       TimeStep
	incoming bool
	content  []byte
}

type fakeRecorder struct {
	messages []recordedMessage
}

func (r *fakeRecorder) RecordMessage(ts TimeStep, incoming bool, content []byte) {
	r.messages = append(r.messages, recordedMessage{ts, incoming, append([]byte(nil), content...)})
}

func TestServer_RecordsMessages(t *testing.T) {
	nh, err := nodehandler.NewNodeHandler(testNodeHandlerConfig())
	require.NoError(t, err)
	ctx := progctx.New(context.Background())
	srv := NewServer(ctx, nil, nh)
	rec := &fakeRecorder{}
	srv.SetRecorder(rec)
	serverConn, clientConn := net.Pipe()
	ts := &testServer{t: t, ctx: ctx, srv: srv, nh: nh, client: clientConn, done: make(chan error, 1)}
	go func() {
		ts.done <- srv.ServeConn(serverConn)
	}()
	t.Cleanup(func() {
		ctx.Cancel("test done")
		_ = clientConn.Close()
	})

	msg := storage.New()
	protocol.AppendFrame(msg, protocol.CmdCreateMobileNode, 3000, createNode(3000, 5).body)
	replies := ts.sendRaw(msg.Bytes())
	require.Len(t, replies, 1)

	var got []recordedMessage
	require.True(t, srv.PostSync(func() { got = rec.messages }))
	require.Len(t, got, 2)
	assert.True(t, got[0].incoming)
	assert.Equal(t, TimeStep(3000), got[0].ts)
	assert.Equal(t, msg.Bytes(), got[0].content)
	assert.False(t, got[1].incoming)
	assert.Equal(t, TimeStep(3000), got[1].ts)
	parsed, err := protocol.ParseReplies(got[1].content)
	require.NoError(t, err)
	assert.Equal(t, replies, parsed)
}

func TestServer_DuplicateSubscriptionConsumesFrame(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(askAllIds(1000, 42, 7))
	require.Equal(t, protocol.StatusOK, r[0].Status)
	assert.True(t, r[0].Result.ReadBool())

	r = ts.send(askAllIds(1000, 42, 7), createNode(1000, 43))
	require.Equal(t, protocol.StatusOK, r[0].Status)
	assert.False(t, r[0].Result.ReadBool())
	assert.Equal(t, int32(1), r[0].Result.ReadInt())
	assert.Equal(t, "Subscription 7 of node 42 already exists", r[0].Description)
	assert.Equal(t, "Create node 43", r[1].Description)
	assert.Equal(t, uint64(0), ts.stats().LengthMismatch)
}

func TestServer_UnknownSubscriptionKind(t *testing.T) {
	ts := newTestServer(t, nil)
	r := ts.send(frame(protocol.CmdAskForSubscription, 1000, func(b *storage.Storage) {
		b.WriteInt(42)
		b.WriteInt(7)
		b.WriteUint8(9)
	}))
	assert.Equal(t, protocol.StatusError, r[0].Status)
	assert.Equal(t, "Unknown subscription kind 9", r[0].Description)
	assert.False(t, r[0].Result.ReadBool())
	assert.Equal(t, uint64(0), ts.stats().LengthMismatch)
}
