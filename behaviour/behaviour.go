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

// Package behaviour holds the pluggable application logic attached to nodes: the generic RSU and
// mobile-node behaviours, the data manager, and the traffic-management controller observing all RSUs.
package behaviour

import (
	"github.com/pkg/errors"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/scheduler"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

// NodeInterface is the non-owning view a behaviour has of the node it is attached to.
type NodeInterface interface {
	Id() NodeId
	Kind() StationKind
	Mobility() (MobilityInfo, bool)
	CurrentTimeStep() TimeStep
	// SendMessage stores p and queues it for transmission. It returns the payload key.
	SendMessage(commType CommType, dest NodeId, p *payload.Payload) string
	Schedule(delay int64, cb func()) scheduler.EventId
	Cancel(id *scheduler.EventId)
	// Jitter returns a random value in [0, max] from the node's own stream.
	Jitter(max int) int
	Traffic() trafficsim.Communicator
	Logger() *logger.NodeLogger
}

// DirectionValueMap is the per-step report of a node, keyed by value name.
type DirectionValueMap map[string]float64

// Behaviour is one strategy attached to a node.
type Behaviour interface {
	Name() string
	// Start is called once after the behaviour is attached.
	Start()
	// Stop is called when the node is deleted; pending events must be canceled.
	Stop()
	IsSubscribedTo(pid ProtocolId) bool
	Receive(p *payload.Payload, snr float64)
	// Execute adds the behaviour's contribution of this step to data and returns whether it added any.
	Execute(data DirectionValueMap) bool
}

// SendConfirmer is implemented by behaviours that track the outcome of their transmissions.
type SendConfirmer interface {
	ConfirmSend(messageId int32, ok bool)
}

// MessageListener observes messages delivered to nodes of one kind.
type MessageListener interface {
	OnMessage(receiver NodeInterface, p *payload.Payload, snr float64)
}

const (
	NameRsu         = "rsu"
	NameMobile      = "mobile"
	NameDataManager = "datamanager"
)

var ErrUnknownBehaviour = errors.New("unknown behaviour")

// New creates the behaviour called name for node.
func New(name string, cfg *Config, node NodeInterface) (Behaviour, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	switch name {
	case NameRsu:
		return NewRsuBehaviour(cfg, node), nil
	case NameMobile:
		return NewMobileBehaviour(cfg, node), nil
	case NameDataManager:
		return NewDataManagerBehaviour(node), nil
	default:
		return nil, errors.Wrapf(ErrUnknownBehaviour, "%q", name)
	}
}
