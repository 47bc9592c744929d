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

// Package node implements the stations of the simulation: mobile nodes and fixed stations (RSUs),
// distinguished by a kind tag. A node owns its subscriptions and behaviours.
package node

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/behaviour"
	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/subscription"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

// SubscriptionData is the InformApp output of one subscription in one step.
type SubscriptionData struct {
	RequestId int32
	Data      *storage.Storage
}

// ExecuteResult is everything a node reports upstream for one step.
type ExecuteResult struct {
	Data             behaviour.DirectionValueMap
	Messages         []OutgoingMessage
	SubscriptionData []SubscriptionData
}

type Node struct {
	SumoId string
	// LastContact is the step index of the last command addressing this node.
	LastContact uint64

	id            NodeId
	kind          StationKind
	env           *Env
	log           *logger.NodeLogger
	mobility      *MobilityInfo
	subscriptions []subscription.Subscription
	behaviours    []behaviour.Behaviour
	outbox        []OutgoingMessage
	unicastKeys   map[int32]string // message id -> payload key of unsent unicasts
	seq           uint32
	deleted       bool
}

// New creates a node and starts the named behaviours on it.
func New(env *Env, id NodeId, kind StationKind, sumoId string, behaviours []string) (*Node, error) {
	n := &Node{
		SumoId:      sumoId,
		id:          id,
		kind:        kind,
		env:         env,
		log:         logger.GetNodeLogger(id),
		unicastKeys: map[int32]string{},
	}
	for _, name := range behaviours {
		if n.Behaviour(name) != nil {
			return nil, errors.Errorf("node %d: behaviour %q attached twice", id, name)
		}
		b, err := behaviour.New(name, env.Behaviours, n)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", id)
		}
		n.behaviours = append(n.behaviours, b)
	}
	env.Mobility.AddStation(id, kind)
	for _, b := range n.behaviours {
		b.Start()
	}
	return n, nil
}

func (n *Node) String() string {
	return fmt.Sprintf("Node<%d,%v,%q>", n.id, n.kind, n.SumoId)
}

// IsFixed returns whether the node is a fixed station.
func (n *Node) IsFixed() bool {
	return n.kind == StationFixed
}

// Behaviour returns the attached behaviour called name, or nil.
func (n *Node) Behaviour(name string) behaviour.Behaviour {
	for _, b := range n.behaviours {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Behaviours returns the names of the attached behaviours in attachment order.
func (n *Node) Behaviours() []string {
	names := make([]string, 0, len(n.behaviours))
	for _, b := range n.behaviours {
		names = append(names, b.Name())
	}
	return names
}

// Delete stops all behaviours and releases the node's resources. The node must not be used afterwards.
func (n *Node) Delete() {
	if n.deleted {
		return
	}
	n.deleted = true
	for _, b := range n.behaviours {
		b.Stop()
	}
	for _, key := range n.unicastKeys {
		n.env.Payloads.EraseAndDelete(key)
	}
	n.unicastKeys = nil
	n.outbox = nil
	n.subscriptions = nil
	n.env.Traffic.Forget(n.id)
	n.env.Rand.ReleaseNode(n.id)
	n.env.Mobility.RemoveStation(n.id)
}

// UpdateMobilityInformation stores the latest mobility record of the node.
func (n *Node) UpdateMobilityInformation(info MobilityInfo) {
	info.NodeId = n.id
	if info.SumoId == "" {
		info.SumoId = n.SumoId
	} else if n.SumoId == "" {
		n.SumoId = info.SumoId
	}
	n.mobility = &info
	n.env.Mobility.Update(n.kind, info)
}

// SetPosition places a node without mobility updates, e.g. an RSU at its configured position.
func (n *Node) SetPosition(pos Position) {
	n.UpdateMobilityInformation(MobilityInfo{Position: pos, TimeStep: n.CurrentTimeStep()})
}

// ApplicationMessageReceive hands p to every behaviour subscribed to its protocol. It returns whether
// any behaviour took it.
func (n *Node) ApplicationMessageReceive(messageId int32, p *payload.Payload, snr float64) bool {
	pid := p.ProtocolId()
	delivered := false
	for _, b := range n.behaviours {
		if b.IsSubscribedTo(pid) {
			b.Receive(p, snr)
			delivered = true
		}
	}
	n.log.Tracef("message %d protocol %d delivered=%v", messageId, pid, delivered)
	return delivered
}

// ApplicationSendConfirm reports the outcome of an outgoing message. A failed unicast frees its payload.
func (n *Node) ApplicationSendConfirm(messageId int32, ok bool) {
	if key, found := n.unicastKeys[messageId]; found {
		delete(n.unicastKeys, messageId)
		if !ok {
			n.env.Payloads.EraseAndDelete(key)
		}
	}
	for _, b := range n.behaviours {
		if sc, isConfirmer := b.(behaviour.SendConfirmer); isConfirmer {
			sc.ConfirmSend(messageId, ok)
		}
	}
}

// ApplicationExecute collects the step report of all behaviours, the queued outgoing messages and the
// data of all subscriptions. It returns true iff at least one behaviour produced data. Subscriptions
// that completed are removed.
func (n *Node) ApplicationExecute() (*ExecuteResult, bool) {
	res := &ExecuteResult{Data: behaviour.DirectionValueMap{}}
	hasData := false
	for _, b := range n.behaviours {
		if b.Execute(res.Data) {
			hasData = true
		}
	}
	res.Messages = n.outbox
	n.outbox = nil

	senv := n.env.subscriptionEnv()
	kept := n.subscriptions[:0]
	for _, sub := range n.subscriptions {
		out := storage.New()
		if sub.InformApp(senv, out) {
			res.SubscriptionData = append(res.SubscriptionData, SubscriptionData{RequestId: sub.RequestId(), Data: out})
		}
		if sub.IsDone() {
			n.log.Debugf("subscription %v completed", sub)
			continue
		}
		kept = append(kept, sub)
	}
	n.subscriptions = kept
	return res, hasData
}

// SumoTraciCommandResult delivers the result of a TraCI command issued by one of the node's
// subscriptions.
func (n *Node) SumoTraciCommandResult(executionId int32, result *storage.Storage) bool {
	pc, ok := n.env.Traffic.Pending(executionId)
	if !ok || pc.Owner != n.id {
		n.log.Warnf("unexpected TraCI result for execution %d", executionId)
		return false
	}
	return n.env.Traffic.DeliverResult(executionId, result)
}

// TrafficLightInformation feeds a traffic light report into the traffic cache. Only fixed stations
// receive traffic light information.
func (n *Node) TrafficLightInformation(failed bool, msg string, lights []trafficsim.TrafficLight) bool {
	if !n.IsFixed() {
		n.log.Warnf("traffic light information sent to a mobile node")
		return false
	}
	n.env.Traffic.UpdateTrafficLights(failed, msg, lights)
	return true
}

// ReceivedCams passes CAMs reported by iCS to the node's CAM subscriptions. It returns the number of
// subscriptions that took them.
func (n *Node) ReceivedCams(cams []CamInfo) int {
	cnt := 0
	for _, sub := range n.subscriptions {
		if rx, ok := sub.(subscription.CamReceiver); ok {
			rx.AddCams(cams)
			cnt++
		}
	}
	return cnt
}
