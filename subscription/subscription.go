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

// Package subscription implements the standing and one-shot data requests applications place on
// their node. A subscription decodes its parameters once, then answers InformApp every step until it
// ends.
package subscription

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/facilities"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

type Kind uint8

const (
	KindMobilityInformation     Kind = 0x01
	KindTrafficLightInformation Kind = 0x02
	KindSumoTraciCommand        Kind = 0x03
	KindReceivedCamInfo         Kind = 0x04
)

func (k Kind) String() string {
	switch k {
	case KindMobilityInformation:
		return "mobility"
	case KindTrafficLightInformation:
		return "traffic-light"
	case KindSumoTraciCommand:
		return "traci"
	case KindReceivedCamInfo:
		return "received-cam"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrUnknownKind = errors.New("unknown subscription kind")
	ErrBadParams   = errors.New("bad subscription parameters")
)

// TrafficSource is what subscriptions need from the traffic simulator.
type TrafficSource interface {
	trafficsim.Communicator
	TakeResult(execId int32) (*storage.Storage, bool)
	Drop(execId int32)
}

// Env is the state a subscription reads when informing its application.
type Env struct {
	Mobility *facilities.MobilityHistory
	Traffic  TrafficSource
}

// Subscription is one active data request of an application on its node.
type Subscription interface {
	// Id is the process-wide id assigned at creation.
	Id() int32
	// RequestId is the id chosen by the application; it is unique per node.
	RequestId() int32
	Kind() Kind
	Owner() NodeId
	// InformApp appends fresh data to out and returns whether any was produced.
	InformApp(env *Env, out *storage.Storage) bool
	// IsDone reports a one-shot subscription that has delivered its answer.
	IsDone() bool
	// IsCancelable reports whether the subscription may end on a plain, non-forced request.
	IsCancelable() bool
	String() string
}

// Releaser is implemented by subscriptions holding state outside themselves, released when the
// subscription is removed.
type Releaser interface {
	Release(env *Env)
}

// CamReceiver is implemented by subscriptions that buffer CAMs received by their node.
type CamReceiver interface {
	AddCams(cams []CamInfo)
}

// IdCounter hands out process-wide subscription ids. One counter is created per server and injected.
type IdCounter struct {
	last int32
}

func (c *IdCounter) Next() int32 {
	c.last++
	return c.last
}

// Last returns the most recently assigned id, or 0.
func (c *IdCounter) Last() int32 {
	return c.last
}

type base struct {
	id        int32
	requestId int32
	owner     NodeId
	kind      Kind
}

func (b *base) Id() int32 {
	return b.id
}

func (b *base) RequestId() int32 {
	return b.requestId
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) Owner() NodeId {
	return b.owner
}

func (b *base) IsDone() bool {
	return false
}

func (b *base) IsCancelable() bool {
	return true
}

func (b *base) String() string {
	return fmt.Sprintf("Subscription{id=%d,req=%d,node=%d,kind=%v}", b.id, b.requestId, b.owner, b.kind)
}

// New decodes the parameters of a subscription of kind from params and creates it with the next id
// of ids. Decoding failures do not consume an id.
func New(ids *IdCounter, owner NodeId, requestId int32, kind Kind, params *storage.Storage) (Subscription, error) {
	b := &base{requestId: requestId, owner: owner, kind: kind}
	var sub Subscription
	var err error
	switch kind {
	case KindMobilityInformation:
		sub, err = newMobilitySubscription(b, params)
	case KindTrafficLightInformation:
		sub, err = newTrafficLightSubscription(b, params)
	case KindSumoTraciCommand:
		sub, err = newTraciSubscription(b, params)
	case KindReceivedCamInfo:
		sub = &ReceivedCamSubscription{base: b}
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%d", uint8(kind))
	}
	if err != nil {
		return nil, err
	}
	if params.Err() != nil {
		return nil, errors.Wrapf(ErrBadParams, "%v: %v", kind, params.Err())
	}
	b.id = ids.Next()
	return sub, nil
}
