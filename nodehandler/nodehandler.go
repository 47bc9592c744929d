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

// Package nodehandler owns every node of the simulation and orchestrates a time step: payload expiry,
// scheduler firing, stale node reaping, lazy node creation, message delivery with listener fan-out,
// and the RSU execution gate that runs the traffic management centre after the last RSU.
package nodehandler

import (
	"golang.org/x/exp/slices"

	"github.com/itetris/baseapp/behaviour"
	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/node"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/subscription"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

type Stats struct {
	NodesCreated      uint64
	NodesDeleted      uint64
	StaleNodesReaped  uint64
	MessagesDelivered uint64
	MessagesDropped   uint64
	PayloadsExpired   uint64
	EventsFired       uint64
	TmcExecutions     uint64
}

type NodeHandler struct {
	cfg   *Config
	env   *node.Env
	nodes map[NodeId]*node.Node
	rsus  map[NodeId]*RsuConfig

	window    *payload.StepWindow
	stepIndex uint64

	tmc             *behaviour.TmcBehaviour
	fixedListeners  []behaviour.MessageListener
	mobileListeners []behaviour.MessageListener

	executedRsus     map[NodeId]struct{}
	subscriptionStep bool

	stats Stats
}

func NewNodeHandler(cfg *Config) (*NodeHandler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	nh := &NodeHandler{
		cfg:          cfg,
		env:          node.NewEnv(cfg.RandomSeed, cfg.HistoryDepth, cfg.Behaviour),
		nodes:        map[NodeId]*node.Node{},
		rsus:         map[NodeId]*RsuConfig{},
		window:       payload.NewStepWindow(cfg.MessageLifetime),
		executedRsus: map[NodeId]struct{}{},
	}
	for i := range cfg.Rsus {
		nh.rsus[cfg.Rsus[i].Id] = &cfg.Rsus[i]
	}
	if cfg.Tmc {
		nh.tmc = behaviour.NewTmcBehaviour(nh.env.Behaviours)
		nh.AddListener(StationFixed, nh.tmc)
	}
	logger.Debugf("node handler created: %d RSUs, tmc=%v, lifetime=%d steps", len(nh.rsus), cfg.Tmc,
		cfg.MessageLifetime)
	return nh, nil
}

// Env returns the shared node environment.
func (nh *NodeHandler) Env() *node.Env {
	return nh.env
}

// Tmc returns the traffic management centre, or nil if none is configured.
func (nh *NodeHandler) Tmc() *behaviour.TmcBehaviour {
	return nh.tmc
}

func (nh *NodeHandler) Stats() Stats {
	return nh.stats
}

// StepIndex returns the number of distinct time steps seen so far.
func (nh *NodeHandler) StepIndex() uint64 {
	return nh.stepIndex
}

// AddListener registers l for every message delivered to a node of the given kind.
func (nh *NodeHandler) AddListener(kind StationKind, l behaviour.MessageListener) {
	if kind == StationFixed {
		nh.fixedListeners = append(nh.fixedListeners, l)
	} else {
		nh.mobileListeners = append(nh.mobileListeners, l)
	}
}

// IsRsu returns whether id is a configured RSU id.
func (nh *NodeHandler) IsRsu(id NodeId) bool {
	_, ok := nh.rsus[id]
	return ok
}

// Node returns node id, or nil.
func (nh *NodeHandler) Node(id NodeId) *node.Node {
	return nh.nodes[id]
}

// NodeIds returns the ids of all nodes in ascending order.
func (nh *NodeHandler) NodeIds() []NodeId {
	ids := make([]NodeId, 0, len(nh.nodes))
	for id := range nh.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CountNodes returns the number of mobile and fixed nodes.
func (nh *NodeHandler) CountNodes() (mobile int, fixed int) {
	for _, n := range nh.nodes {
		if n.IsFixed() {
			fixed++
		} else {
			mobile++
		}
	}
	return
}

// UpdateTimeStep starts step ts if it differs from the current one. For a new step it expires the
// payloads of the step sliding out of the lifetime window, fires the due scheduler events and reaps
// stale nodes, in that order. It returns whether ts was new.
func (nh *NodeHandler) UpdateTimeStep(ts TimeStep) bool {
	if nh.stepIndex > 0 && ts == nh.env.TimeStep {
		return false
	}
	nh.env.TimeStep = ts
	nh.stepIndex++
	nh.subscriptionStep = false
	if len(nh.executedRsus) > 0 {
		logger.Debugf("step %d: %d of %d RSUs executed in the previous step", ts, len(nh.executedRsus),
			nh.rsuCount())
		clear(nh.executedRsus)
	}

	if evicted, ok := nh.window.Push(ts); ok {
		n := nh.env.Payloads.ExpiredPayloadCleanUp(evicted)
		nh.stats.PayloadsExpired += uint64(n)
		if n > 0 {
			logger.Tracef("step %d: expired %d payloads of step <= %d", ts, n, evicted)
		}
	}
	nh.stats.EventsFired += uint64(nh.env.Scheduler.Notify(int64(ts)))
	nh.reapStaleNodes()
	return true
}

func (nh *NodeHandler) reapStaleNodes() {
	if nh.cfg.StaleNodeSteps <= 0 {
		return
	}
	limit := uint64(nh.cfg.StaleNodeSteps)
	for _, id := range nh.NodeIds() {
		n := nh.nodes[id]
		if n.IsFixed() || nh.stepIndex-n.LastContact <= limit {
			continue
		}
		logger.Debugf("deleting stale node %d, last contact %d steps ago", id, nh.stepIndex-n.LastContact)
		nh.deleteNode(n)
		nh.stats.StaleNodesReaped++
	}
}

func (nh *NodeHandler) touch(n *node.Node) {
	n.LastContact = nh.stepIndex
}

func (nh *NodeHandler) createNode(id NodeId, kind StationKind, sumoId string) (*node.Node, error) {
	behaviours := nh.cfg.MobileBehaviours
	rsu := nh.rsus[id]
	if kind == StationFixed {
		behaviours = rsu.Behaviours
	}
	n, err := node.New(nh.env, id, kind, sumoId, behaviours)
	if err != nil {
		return nil, err
	}
	if kind == StationFixed {
		n.SetPosition(Position{X: rsu.X, Y: rsu.Y})
	}
	nh.nodes[id] = n
	nh.touch(n)
	nh.stats.NodesCreated++
	logger.Debugf("created %v", n)
	return n, nil
}

// getOrCreate returns node id, creating it lazily: as a fixed station if id is a configured RSU,
// otherwise as a mobile node.
func (nh *NodeHandler) getOrCreate(id NodeId) *node.Node {
	if n, ok := nh.nodes[id]; ok {
		nh.touch(n)
		return n
	}
	if id < 0 || id == BroadcastNodeId {
		return nil
	}
	kind := StationMobile
	if nh.IsRsu(id) {
		kind = StationFixed
	}
	n, err := nh.createNode(id, kind, "")
	if err != nil {
		logger.Errorf("creating node %d failed: %v", id, err)
		return nil
	}
	return n
}

func (nh *NodeHandler) get(id NodeId) *node.Node {
	n, ok := nh.nodes[id]
	if ok {
		nh.touch(n)
	}
	return n
}

func (nh *NodeHandler) deleteNode(n *node.Node) {
	n.Delete()
	delete(nh.nodes, n.Id())
	delete(nh.executedRsus, n.Id())
	nh.stats.NodesDeleted++
}

// CreateMobileNode creates mobile node id. It fails, leaving all state untouched, if the node exists
// or id belongs to an RSU.
func (nh *NodeHandler) CreateMobileNode(id NodeId, sumoId string) bool {
	if _, ok := nh.nodes[id]; ok || nh.IsRsu(id) || id < 0 || id == BroadcastNodeId {
		return false
	}
	_, err := nh.createNode(id, StationMobile, sumoId)
	if err != nil {
		logger.Errorf("creating node %d failed: %v", id, err)
		return false
	}
	return true
}

// DeleteNode removes mobile node id. Fixed stations live for the whole run.
func (nh *NodeHandler) DeleteNode(id NodeId) bool {
	n, ok := nh.nodes[id]
	if !ok || n.IsFixed() {
		return false
	}
	nh.deleteNode(n)
	return true
}

// AskForSubscription creates subscription requestId on node nodeId, creating the node if needed, and
// writes the first data to out. The first call of every step notifies the TMC.
func (nh *NodeHandler) AskForSubscription(nodeId NodeId, requestId int32, kind subscription.Kind,
	params *storage.Storage, out *storage.Storage) (subscription.Subscription, bool, error) {
	if !nh.subscriptionStep {
		nh.subscriptionStep = true
		if nh.tmc != nil {
			nh.tmc.OnAddSubscriptions()
		}
	}
	n := nh.getOrCreate(nodeId)
	if n == nil {
		return nil, false, errNoNode(nodeId)
	}
	return n.AskForSubscription(requestId, kind, params, out)
}

// EndSubscription removes subscription requestId of node nodeId if the node agrees or force is set.
func (nh *NodeHandler) EndSubscription(nodeId NodeId, requestId int32, force bool) bool {
	n := nh.get(nodeId)
	if n == nil {
		return false
	}
	if !force && !n.IsToUnsubscribe(requestId) {
		return false
	}
	return n.RemoveSubscription(requestId)
}

// UpdateMobilityInformation applies mobility records, creating unknown nodes. It returns the number of
// records applied.
func (nh *NodeHandler) UpdateMobilityInformation(infos []MobilityInfo) int {
	cnt := 0
	for _, info := range infos {
		n := nh.getOrCreate(info.NodeId)
		if n == nil {
			continue
		}
		n.UpdateMobilityInformation(info)
		cnt++
	}
	return cnt
}

// TrafficLightInformation hands a traffic light report to RSU nodeId.
func (nh *NodeHandler) TrafficLightInformation(nodeId NodeId, failed bool, msg string,
	lights []trafficsim.TrafficLight) bool {
	if !nh.IsRsu(nodeId) {
		return false
	}
	n := nh.getOrCreate(nodeId)
	return n != nil && n.TrafficLightInformation(failed, msg, lights)
}

// ApplicationMessageReceive delivers the payload stored under key to node nodeId and then to every
// listener of the node's kind. A delete-on-read payload is released after delivery.
func (nh *NodeHandler) ApplicationMessageReceive(nodeId NodeId, messageId int32, key string, snr float64) bool {
	n := nh.get(nodeId)
	if n == nil {
		nh.stats.MessagesDropped++
		return false
	}
	p, ok := nh.env.Payloads.Find(key)
	if !ok {
		logger.Warnf("node %d: payload %s of message %d not found", nodeId, key, messageId)
		nh.stats.MessagesDropped++
		return false
	}
	if payload.AsPolicy(key) == payload.DeleteOnRead {
		defer p.Release()
	}

	delivered := n.ApplicationMessageReceive(messageId, p, snr)
	listeners := nh.mobileListeners
	if n.IsFixed() {
		listeners = nh.fixedListeners
	}
	for _, l := range listeners {
		l.OnMessage(n, p, snr)
	}
	nh.stats.MessagesDelivered++
	return delivered
}

// ApplicationSendConfirm reports the transmission outcome of message messageId of node nodeId.
func (nh *NodeHandler) ApplicationSendConfirm(nodeId NodeId, messageId int32, ok bool) bool {
	n := nh.get(nodeId)
	if n == nil {
		return false
	}
	n.ApplicationSendConfirm(messageId, ok)
	return true
}

// ApplicationExecute runs node nodeId for the current step. Once every instantiated RSU has executed
// in this step the TMC runs and the gate resets.
func (nh *NodeHandler) ApplicationExecute(nodeId NodeId) (*node.ExecuteResult, bool, bool) {
	n := nh.get(nodeId)
	if n == nil {
		return nil, false, false
	}
	res, hasData := n.ApplicationExecute()
	if n.IsFixed() {
		nh.executedRsus[nodeId] = struct{}{}
		if len(nh.executedRsus) == nh.rsuCount() {
			if nh.tmc != nil {
				nh.tmc.Execute()
				nh.stats.TmcExecutions++
			}
			clear(nh.executedRsus)
		}
	}
	return res, hasData, true
}

// Rsus returns the configured RSUs in ascending id order.
func (nh *NodeHandler) Rsus() []RsuConfig {
	rsus := make([]RsuConfig, 0, len(nh.rsus))
	for _, rsu := range nh.rsus {
		rsus = append(rsus, *rsu)
	}
	slices.SortFunc(rsus, func(a, b RsuConfig) int {
		return a.Id - b.Id
	})
	return rsus
}

// RsuExecuted returns whether RSU id executed since the gate last reset.
func (nh *NodeHandler) RsuExecuted(id NodeId) bool {
	_, ok := nh.executedRsus[id]
	return ok
}

// ExecutedRsus returns how many RSUs executed in the current step since the gate last reset.
func (nh *NodeHandler) ExecutedRsus() int {
	return len(nh.executedRsus)
}

// rsuCount is the number of RSUs that exist; configured RSUs never contacted do not hold the gate.
func (nh *NodeHandler) rsuCount() int {
	_, fixed := nh.CountNodes()
	return fixed
}

// SumoTraciCommandResult delivers a TraCI result to node nodeId.
func (nh *NodeHandler) SumoTraciCommandResult(nodeId NodeId, executionId int32, result *storage.Storage) bool {
	n := nh.get(nodeId)
	return n != nil && n.SumoTraciCommandResult(executionId, result)
}

// ReceivedCams hands CAM reports to node nodeId.
func (nh *NodeHandler) ReceivedCams(nodeId NodeId, cams []CamInfo) bool {
	n := nh.get(nodeId)
	if n == nil {
		return false
	}
	n.ReceivedCams(cams)
	return true
}

// Close deletes every node.
func (nh *NodeHandler) Close() {
	for _, id := range nh.NodeIds() {
		nh.nodes[id].Delete()
		delete(nh.nodes, id)
	}
	clear(nh.executedRsus)
}
