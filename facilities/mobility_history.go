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

// Package facilities keeps the mobility history of every station known to the server and answers
// lookups by id, by area and by time.
package facilities

import (
	"golang.org/x/exp/slices"

	. "github.com/itetris/baseapp/types"
)

const DefaultHistoryDepth = 10

type station struct {
	kind    StationKind
	history []MobilityInfo // oldest first
}

// MobilityHistory is the mobility-history provider. It is owned by the node handler and only used from
// the server goroutine.
type MobilityHistory struct {
	depth    int
	stations map[NodeId]*station
}

// NewMobilityHistory creates a provider keeping at most depth records per station.
func NewMobilityHistory(depth int) *MobilityHistory {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &MobilityHistory{
		depth:    depth,
		stations: map[NodeId]*station{},
	}
}

// AddStation registers a station without position, e.g. a mobile node created before its first
// mobility update. Registering an existing station only updates its kind.
func (mh *MobilityHistory) AddStation(id NodeId, kind StationKind) {
	if st, ok := mh.stations[id]; ok {
		st.kind = kind
		return
	}
	mh.stations[id] = &station{kind: kind}
}

// RemoveStation drops the station and its history.
func (mh *MobilityHistory) RemoveStation(id NodeId) {
	delete(mh.stations, id)
}

// Update appends info to the history of its station. Records of the same time step replace each other.
func (mh *MobilityHistory) Update(kind StationKind, info MobilityInfo) {
	st, ok := mh.stations[info.NodeId]
	if !ok {
		st = &station{kind: kind}
		mh.stations[info.NodeId] = st
	}
	if n := len(st.history); n > 0 && st.history[n-1].TimeStep == info.TimeStep {
		st.history[n-1] = info
		return
	}
	st.history = append(st.history, info)
	if len(st.history) > mh.depth {
		st.history = st.history[len(st.history)-mh.depth:]
	}
}

// Has returns whether id is a known station.
func (mh *MobilityHistory) Has(id NodeId) bool {
	_, ok := mh.stations[id]
	return ok
}

// Kind returns the kind of station id.
func (mh *MobilityHistory) Kind(id NodeId) (StationKind, bool) {
	st, ok := mh.stations[id]
	if !ok {
		return StationMobile, false
	}
	return st.kind, true
}

// Latest returns the most recent mobility record of station id.
func (mh *MobilityHistory) Latest(id NodeId) (MobilityInfo, bool) {
	st, ok := mh.stations[id]
	if !ok || len(st.history) == 0 {
		return MobilityInfo{}, false
	}
	return st.history[len(st.history)-1], true
}

// At returns the latest record of station id taken at or before time step ts.
func (mh *MobilityHistory) At(id NodeId, ts TimeStep) (MobilityInfo, bool) {
	st, ok := mh.stations[id]
	if !ok {
		return MobilityInfo{}, false
	}
	for i := len(st.history) - 1; i >= 0; i-- {
		if st.history[i].TimeStep <= ts {
			return st.history[i], true
		}
	}
	return MobilityInfo{}, false
}

// History returns a copy of the recorded history of station id, oldest first.
func (mh *MobilityHistory) History(id NodeId) []MobilityInfo {
	st, ok := mh.stations[id]
	if !ok {
		return nil
	}
	return slices.Clone(st.history)
}

// Ids returns all station ids in ascending order.
func (mh *MobilityHistory) Ids() []NodeId {
	ids := make([]NodeId, 0, len(mh.stations))
	for id := range mh.stations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns the latest record of every station with a known position, ordered by id.
func (mh *MobilityHistory) All() []MobilityInfo {
	var res []MobilityInfo
	for _, id := range mh.Ids() {
		if info, ok := mh.Latest(id); ok {
			res = append(res, info)
		}
	}
	return res
}

// ByIds returns the latest record of each listed station that has a known position, in the given order.
func (mh *MobilityHistory) ByIds(ids []NodeId) []MobilityInfo {
	var res []MobilityInfo
	for _, id := range ids {
		if info, ok := mh.Latest(id); ok {
			res = append(res, info)
		}
	}
	return res
}

// InArea returns the latest record of every station within radius of center, ordered by id.
func (mh *MobilityHistory) InArea(center Position, radius float32) []MobilityInfo {
	r2 := float64(radius) * float64(radius)
	var res []MobilityInfo
	for _, info := range mh.All() {
		if info.Position.DistanceSq(center) <= r2 {
			res = append(res, info)
		}
	}
	return res
}

// Len returns the number of known stations.
func (mh *MobilityHistory) Len() int {
	return len(mh.stations)
}
