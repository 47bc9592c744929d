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

package protocol

import (
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

// WriteMobilityInfo writes a mobility record. The time step is not part of the record.
func WriteMobilityInfo(s *storage.Storage, info *MobilityInfo) {
	s.WriteInt(int32(info.NodeId))
	s.WriteString(info.SumoId)
	s.WriteFloat(info.Position.X)
	s.WriteFloat(info.Position.Y)
	s.WriteFloat(info.Speed)
	s.WriteFloat(info.Heading)
	s.WriteFloat(info.Acceleration)
	s.WriteString(info.Lane)
}

// ReadMobilityInfo reads a mobility record and stamps it with ts.
func ReadMobilityInfo(s *storage.Storage, ts TimeStep) MobilityInfo {
	info := MobilityInfo{TimeStep: ts}
	info.NodeId = NodeId(s.ReadInt())
	info.SumoId = s.ReadString()
	info.Position.X = s.ReadFloat()
	info.Position.Y = s.ReadFloat()
	info.Speed = s.ReadFloat()
	info.Heading = s.ReadFloat()
	info.Acceleration = s.ReadFloat()
	info.Lane = s.ReadString()
	return info
}

// WriteMobilityList writes a counted list of mobility records.
func WriteMobilityList(s *storage.Storage, infos []MobilityInfo) {
	s.WriteInt(int32(len(infos)))
	for i := range infos {
		WriteMobilityInfo(s, &infos[i])
	}
}

func WriteTrafficLight(s *storage.Storage, tl *trafficsim.TrafficLight) {
	s.WriteString(tl.Id)
	s.WriteString(tl.State)
	s.WriteInt(int32(len(tl.Links)))
	for _, l := range tl.Links {
		s.WriteString(l.From)
		s.WriteString(l.To)
	}
}

func ReadTrafficLight(s *storage.Storage) trafficsim.TrafficLight {
	tl := trafficsim.TrafficLight{
		Id:    s.ReadString(),
		State: s.ReadString(),
	}
	n := int(s.ReadInt())
	for i := 0; i < n && s.Err() == nil; i++ {
		tl.Links = append(tl.Links, trafficsim.Link{From: s.ReadString(), To: s.ReadString()})
	}
	return tl
}

// WriteTrafficLightReport writes the error flag, message and counted traffic light list used by both
// the traffic light command and the traffic light subscription.
func WriteTrafficLightReport(s *storage.Storage, failed bool, msg string, lights []trafficsim.TrafficLight) {
	s.WriteBool(failed)
	s.WriteString(msg)
	s.WriteInt(int32(len(lights)))
	for i := range lights {
		WriteTrafficLight(s, &lights[i])
	}
}

func ReadTrafficLightReport(s *storage.Storage) (failed bool, msg string, lights []trafficsim.TrafficLight) {
	failed = s.ReadBool()
	msg = s.ReadString()
	n := int(s.ReadInt())
	for i := 0; i < n && s.Err() == nil; i++ {
		lights = append(lights, ReadTrafficLight(s))
	}
	return
}

func WriteCamInfo(s *storage.Storage, cam *CamInfo) {
	s.WriteInt(int32(cam.Sender))
	s.WriteInt(cam.GenerationTime)
	s.WriteFloat(cam.Position.X)
	s.WriteFloat(cam.Position.Y)
	s.WriteFloat(cam.Speed)
	s.WriteFloat(cam.Heading)
}

func ReadCamInfo(s *storage.Storage) CamInfo {
	return CamInfo{
		Sender:         NodeId(s.ReadInt()),
		GenerationTime: s.ReadInt(),
		Position:       Position{X: s.ReadFloat(), Y: s.ReadFloat()},
		Speed:          s.ReadFloat(),
		Heading:        s.ReadFloat(),
	}
}

// WriteCamList writes a counted list of CAM records.
func WriteCamList(s *storage.Storage, cams []CamInfo) {
	s.WriteInt(int32(len(cams)))
	for i := range cams {
		WriteCamInfo(s, &cams[i])
	}
}

func WriteOutgoingMessage(s *storage.Storage, msg *OutgoingMessage) {
	s.WriteUint8(msg.CommType)
	s.WriteInt(int32(msg.Destination))
	s.WriteUint8(msg.ProtocolId)
	s.WriteInt(msg.MessageId)
	s.WriteString(msg.PayloadKey)
	s.WriteInt(msg.Size)
}

func ReadOutgoingMessage(s *storage.Storage) OutgoingMessage {
	return OutgoingMessage{
		CommType:    s.ReadUint8(),
		Destination: NodeId(s.ReadInt()),
		ProtocolId:  s.ReadUint8(),
		MessageId:   s.ReadInt(),
		PayloadKey:  s.ReadString(),
		Size:        s.ReadInt(),
	}
}
