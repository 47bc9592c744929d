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

package types

import (
	"fmt"
	"math"
)

type NodeId = int

// TimeStep is the simulated time of one co-simulation tick, in milliseconds.
type TimeStep = uint32

const (
	InvalidNodeId   NodeId = -1
	BroadcastNodeId NodeId = 0x7fffffff
)

const (
	// InvalidTimeStep is never sent by iCS; the first received step always counts as new.
	InvalidTimeStep TimeStep = math.MaxUint32
)

// StationKind tags a node as a vehicle or a roadside unit.
type StationKind uint8

const (
	StationMobile StationKind = 0
	StationFixed  StationKind = 1
)

func (k StationKind) String() string {
	switch k {
	case StationMobile:
		return "mobile"
	case StationFixed:
		return "rsu"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type Position struct {
	X, Y float32
}

// DistanceSq returns the squared euclidean distance between p and q.
func (p Position) DistanceSq(q Position) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return dx*dx + dy*dy
}

// MobilityInfo is the mobility snapshot of one station as reported by the traffic simulator.
type MobilityInfo struct {
	NodeId       NodeId
	SumoId       string
	Position     Position
	Speed        float32
	Heading      float32
	Acceleration float32
	Lane         string
	TimeStep     TimeStep
}

// CamInfo is the content of one cooperative awareness message as reported by iCS.
type CamInfo struct {
	Sender         NodeId
	GenerationTime int32
	Position       Position
	Speed          float32
	Heading        float32
}

// OutgoingMessage is a send request handed to the network substrate through iCS.
type OutgoingMessage struct {
	CommType    CommType
	Destination NodeId
	ProtocolId  ProtocolId
	MessageId   int32
	PayloadKey  string
	Size        int32
}
