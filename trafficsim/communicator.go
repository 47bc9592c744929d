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

// Package trafficsim is the narrow view of the road-traffic simulator used by subscriptions and
// behaviours. The simulator itself is reached through iCS; what it reports arrives on the control
// connection and is cached here.
package trafficsim

import (
	"github.com/pkg/errors"

	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

// Link is one controlled connection of a traffic light, from an incoming to an outgoing lane.
type Link struct {
	From string
	To   string
}

// TrafficLight is the last reported state of one traffic light.
type TrafficLight struct {
	Id    string
	State string
	Links []Link
}

var (
	ErrUnknownTrafficLight = errors.New("unknown traffic light")
	ErrUnknownLane         = errors.New("unknown lane")
)

// Communicator is the traffic-simulator collaborator.
type Communicator interface {
	// GetTrafficLights returns all known traffic lights ordered by id.
	GetTrafficLights() ([]TrafficLight, error)
	// GetLaneLinksConsecutiveLane returns the lanes reachable from lane.
	GetLaneLinksConsecutiveLane(lane string) ([]string, error)
	// GetTrafficLightControlledLinks returns the links controlled by traffic light tlId.
	GetTrafficLightControlledLinks(tlId string) ([]Link, error)
	// TraciCommand queues a raw TraCI command on behalf of owner and returns its execution id.
	TraciCommand(owner NodeId, cmd *storage.Storage) int32
}
