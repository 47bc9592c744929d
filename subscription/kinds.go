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
	"fmt"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

// MobilityMode selects the stations a mobility subscription reports.
type MobilityMode = uint8

const (
	ValueAllId MobilityMode = 0x01 // every known station
	ValueOwn   MobilityMode = 0x02 // the owner only
	ValueSetId MobilityMode = 0x03 // an explicit id list
	ValueArea  MobilityMode = 0x04 // every station within a circle
)

// MobilitySubscription reports the latest mobility records of a set of stations each step.
type MobilitySubscription struct {
	*base
	Mode   MobilityMode
	Ids    []NodeId
	Center Position
	Radius float32
}

func newMobilitySubscription(b *base, params *storage.Storage) (*MobilitySubscription, error) {
	ms := &MobilitySubscription{base: b, Mode: params.ReadUint8()}
	switch ms.Mode {
	case ValueAllId, ValueOwn:
	case ValueSetId:
		n := int(params.ReadInt())
		if n < 0 {
			return nil, errors.Wrapf(ErrBadParams, "negative id count %d", n)
		}
		for i := 0; i < n && params.Err() == nil; i++ {
			ms.Ids = append(ms.Ids, NodeId(params.ReadInt()))
		}
	case ValueArea:
		ms.Center = Position{X: params.ReadFloat(), Y: params.ReadFloat()}
		ms.Radius = params.ReadFloat()
		if ms.Radius < 0 {
			return nil, errors.Wrapf(ErrBadParams, "negative radius %f", ms.Radius)
		}
	default:
		return nil, errors.Wrapf(ErrBadParams, "unknown mobility mode %d", ms.Mode)
	}
	return ms, nil
}

// Select returns the records the subscription currently covers.
func (ms *MobilitySubscription) Select(env *Env) []MobilityInfo {
	switch ms.Mode {
	case ValueAllId:
		return env.Mobility.All()
	case ValueOwn:
		return env.Mobility.ByIds([]NodeId{ms.owner})
	case ValueSetId:
		return env.Mobility.ByIds(ms.Ids)
	case ValueArea:
		return env.Mobility.InArea(ms.Center, ms.Radius)
	default:
		return nil
	}
}

func (ms *MobilitySubscription) InformApp(env *Env, out *storage.Storage) bool {
	protocol.WriteMobilityList(out, ms.Select(env))
	return true
}

func (ms *MobilitySubscription) String() string {
	return fmt.Sprintf("%s{mode=%d}", ms.base.String(), ms.Mode)
}

// TrafficLightSubscription reports one traffic light, or all of them, each step.
type TrafficLightSubscription struct {
	*base
	TrafficLightId string
}

func newTrafficLightSubscription(b *base, params *storage.Storage) (*TrafficLightSubscription, error) {
	return &TrafficLightSubscription{base: b, TrafficLightId: params.ReadString()}, nil
}

func (ts *TrafficLightSubscription) selectLights(env *Env) ([]trafficsim.TrafficLight, error) {
	lights, err := env.Traffic.GetTrafficLights()
	if err != nil || ts.TrafficLightId == "" {
		return lights, err
	}
	for _, tl := range lights {
		if tl.Id == ts.TrafficLightId {
			return []trafficsim.TrafficLight{tl}, nil
		}
	}
	return nil, errors.Wrapf(trafficsim.ErrUnknownTrafficLight, "%s", ts.TrafficLightId)
}

// InformApp reports collaborator failures in-band through the error flag of the report.
func (ts *TrafficLightSubscription) InformApp(env *Env, out *storage.Storage) bool {
	lights, err := ts.selectLights(env)
	if err != nil {
		protocol.WriteTrafficLightReport(out, true, err.Error(), nil)
		return true
	}
	protocol.WriteTrafficLightReport(out, false, "", lights)
	return true
}

func (ts *TrafficLightSubscription) String() string {
	return fmt.Sprintf("%s{tl=%q}", ts.base.String(), ts.TrafficLightId)
}

// TraciSubscription passes one raw TraCI command to the traffic simulator and delivers its result.
type TraciSubscription struct {
	*base
	Command     *storage.Storage
	ExecutionId int32
	issued      bool
	done        bool
}

const (
	traciStatePending uint8 = 0
	traciStateResult  uint8 = 1
)

func newTraciSubscription(b *base, params *storage.Storage) (*TraciSubscription, error) {
	cmd := params.ReadStorage()
	if params.Err() == nil && cmd.Size() == 0 {
		return nil, errors.Wrapf(ErrBadParams, "empty traci command")
	}
	return &TraciSubscription{base: b, Command: cmd}, nil
}

// InformApp issues the command on first call and reports its execution id; once the result has been
// delivered it is forwarded and the subscription is done.
func (ts *TraciSubscription) InformApp(env *Env, out *storage.Storage) bool {
	if ts.done {
		return false
	}
	if !ts.issued {
		ts.ExecutionId = env.Traffic.TraciCommand(ts.owner, ts.Command)
		ts.issued = true
		out.WriteUint8(traciStatePending)
		out.WriteInt(ts.ExecutionId)
		out.WriteStorage(ts.Command)
		return true
	}
	res, ok := env.Traffic.TakeResult(ts.ExecutionId)
	if !ok {
		return false
	}
	out.WriteUint8(traciStateResult)
	out.WriteInt(ts.ExecutionId)
	out.WriteStorage(res)
	ts.done = true
	return true
}

func (ts *TraciSubscription) IsDone() bool {
	return ts.done
}

// IsCancelable is false while a result is outstanding.
func (ts *TraciSubscription) IsCancelable() bool {
	return !ts.issued || ts.done
}

// Release drops the issued command, so a result arriving after removal is refused.
func (ts *TraciSubscription) Release(env *Env) {
	if ts.issued {
		env.Traffic.Drop(ts.ExecutionId)
	}
}

func (ts *TraciSubscription) String() string {
	return fmt.Sprintf("%s{exec=%d,done=%v}", ts.base.String(), ts.ExecutionId, ts.done)
}

// ReceivedCamSubscription reports the CAMs its node received since the previous step.
type ReceivedCamSubscription struct {
	*base
	cams []CamInfo
}

func (rs *ReceivedCamSubscription) AddCams(cams []CamInfo) {
	rs.cams = append(rs.cams, cams...)
}

func (rs *ReceivedCamSubscription) InformApp(env *Env, out *storage.Storage) bool {
	protocol.WriteCamList(out, rs.cams)
	rs.cams = rs.cams[:0]
	return true
}
