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
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/storage"
	"github.com/itetris/baseapp/subscription"
	. "github.com/itetris/baseapp/types"
)

func (s *Server) reply(out *storage.Storage, cmd protocol.CommandId, status protocol.Status, result *storage.Storage,
	format string, args ...interface{}) protocol.Status {
	protocol.AppendReply(out, cmd, status, fmt.Sprintf(format, args...), result)
	return status
}

func (s *Server) malformed(out *storage.Storage, cmd protocol.CommandId, err error) protocol.Status {
	s.stats.Malformed++
	logger.Warnf("%s: malformed command: %v", protocol.CommandName(cmd), err)
	return s.reply(out, cmd, protocol.StatusError, nil, "Malformed command: %v", err)
}

// readCount reads a record count and bounds it by the bytes left in body.
func readCount(body *storage.Storage) (int, error) {
	n := int(body.ReadInt())
	if err := body.Err(); err != nil {
		return 0, err
	}
	if n < 0 || n > body.Remaining() {
		return 0, errors.Errorf("record count %d exceeds frame", n)
	}
	return n, nil
}

func (s *Server) handleCreateMobileNode(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdCreateMobileNode
	nodeId := NodeId(body.ReadInt())
	sumoId := body.ReadString()
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if s.nh.Node(nodeId) != nil {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d already exists", nodeId)
	}
	if !s.nh.CreateMobileNode(nodeId, sumoId) {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d cannot be created", nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "Create node %d", nodeId)
}

func (s *Server) handleRemoveMobileNode(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdRemoveMobileNode
	nodeId := NodeId(body.ReadInt())
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if !s.nh.DeleteNode(nodeId) {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d not found", nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "Remove node %d", nodeId)
}

func (s *Server) handleAskForSubscription(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdAskForSubscription
	nodeId := NodeId(body.ReadInt())
	requestId := body.ReadInt()
	kind := subscription.Kind(body.ReadUint8())
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}

	data := storage.New()
	sub, created, err := s.nh.AskForSubscription(nodeId, requestId, kind, body, data)
	result := storage.New()
	if err != nil {
		// the parameters of a failed request are not interpretable
		body.Seek(body.Size())
		logger.Errorf("node %d: subscription %d: %v", nodeId, requestId, err)
		result.WriteBool(false)
		result.WriteInt(0)
		result.WriteStorage(nil)
		if errors.Cause(err) == subscription.ErrUnknownKind {
			return s.reply(out, cmd, protocol.StatusError, result, "Unknown subscription kind %d", uint8(kind))
		}
		return s.reply(out, cmd, protocol.StatusError, result, "%v", err)
	}
	result.WriteBool(created)
	result.WriteInt(sub.Id())
	result.WriteStorage(data)
	if !created {
		// the existing subscription keeps its parameters; the repeated ones are skipped
		body.Seek(body.Size())
		return s.reply(out, cmd, protocol.StatusOK, result, "Subscription %d of node %d already exists", requestId,
			nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, result, "Subscription %d of node %d created", requestId, nodeId)
}

func (s *Server) handleEndSubscription(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdEndSubscription
	nodeId := NodeId(body.ReadInt())
	requestId := body.ReadInt()
	force := body.ReadBool()
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if s.nh.Node(nodeId) == nil {
		result := storage.New()
		result.WriteBool(false)
		return s.reply(out, cmd, protocol.StatusError, result, "Node %d not found", nodeId)
	}
	removed := s.nh.EndSubscription(nodeId, requestId, force)
	result := storage.New()
	result.WriteBool(removed)
	return s.reply(out, cmd, protocol.StatusOK, result, "End subscription %d of node %d", requestId, nodeId)
}

func (s *Server) handleMobilityInformation(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdMobilityInformation
	ts := s.CurrentTimeStep()
	n, err := readCount(body)
	if err != nil {
		return s.malformed(out, cmd, err)
	}
	infos := make([]MobilityInfo, 0, n)
	for i := 0; i < n && body.Err() == nil; i++ {
		infos = append(infos, protocol.ReadMobilityInfo(body, ts))
	}
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	updated := s.nh.UpdateMobilityInformation(infos)
	result := storage.New()
	result.WriteInt(int32(updated))
	return s.reply(out, cmd, protocol.StatusOK, result, "Updated %d of %d nodes", updated, n)
}

func (s *Server) handleTrafficLightInformation(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdTrafficLightInformation
	nodeId := NodeId(body.ReadInt())
	failed, msg, lights := protocol.ReadTrafficLightReport(body)
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if !s.nh.TrafficLightInformation(nodeId, failed, msg, lights) {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d is not an RSU", nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "Traffic lights of node %d: %d", nodeId, len(lights))
}

func (s *Server) handleAppMessageReceive(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdAppMessageReceive
	nodeId := NodeId(body.ReadInt())
	messageId := body.ReadInt()
	key := body.ReadString()
	snr := body.ReadDouble()
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if s.nh.Node(nodeId) == nil {
		result := storage.New()
		result.WriteBool(false)
		return s.reply(out, cmd, protocol.StatusError, result, "Node %d not found", nodeId)
	}
	delivered := s.nh.ApplicationMessageReceive(nodeId, messageId, key, snr)
	result := storage.New()
	result.WriteBool(delivered)
	return s.reply(out, cmd, protocol.StatusOK, result, "Message %d to node %d", messageId, nodeId)
}

func (s *Server) handleAppMessageSendConfirm(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdAppMessageSendConfirm
	nodeId := NodeId(body.ReadInt())
	messageId := body.ReadInt()
	sent := body.ReadUint8() != 0
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if !s.nh.ApplicationSendConfirm(nodeId, messageId, sent) {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d not found", nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "Confirm message %d of node %d", messageId, nodeId)
}

func (s *Server) handleNotifyAppExecute(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdNotifyAppExecute
	nodeId := NodeId(body.ReadInt())
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	res, hasData, found := s.nh.ApplicationExecute(nodeId)
	if !found {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d not found", nodeId)
	}

	result := storage.New()
	result.WriteBool(hasData)
	keys := make([]string, 0, len(res.Data))
	for k := range res.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	result.WriteInt(int32(len(keys)))
	for _, k := range keys {
		result.WriteString(k)
		result.WriteDouble(res.Data[k])
	}
	result.WriteInt(int32(len(res.Messages)))
	for i := range res.Messages {
		protocol.WriteOutgoingMessage(result, &res.Messages[i])
	}
	result.WriteInt(int32(len(res.SubscriptionData)))
	for _, sd := range res.SubscriptionData {
		result.WriteInt(sd.RequestId)
		result.WriteStorage(sd.Data)
	}
	return s.reply(out, cmd, protocol.StatusOK, result, "Execute node %d", nodeId)
}

func (s *Server) handleSumoTraciCommand(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdSumoTraciCommand
	nodeId := NodeId(body.ReadInt())
	executionId := body.ReadInt()
	res := body.ReadStorage()
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if !s.nh.SumoTraciCommandResult(nodeId, executionId, res) {
		return s.reply(out, cmd, protocol.StatusError, nil, "No pending TraCI execution %d for node %d",
			executionId, nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "TraCI result %d for node %d", executionId, nodeId)
}

func (s *Server) handleReceivedCamInfo(body *storage.Storage, out *storage.Storage) protocol.Status {
	const cmd = protocol.CmdReceivedCamInfo
	nodeId := NodeId(body.ReadInt())
	n, err := readCount(body)
	if err != nil {
		return s.malformed(out, cmd, err)
	}
	cams := make([]CamInfo, 0, n)
	for i := 0; i < n && body.Err() == nil; i++ {
		cams = append(cams, protocol.ReadCamInfo(body))
	}
	if body.Err() != nil {
		return s.malformed(out, cmd, body.Err())
	}
	if !s.nh.ReceivedCams(nodeId, cams) {
		return s.reply(out, cmd, protocol.StatusError, nil, "Node %d not found", nodeId)
	}
	return s.reply(out, cmd, protocol.StatusOK, nil, "%d CAMs for node %d", len(cams), nodeId)
}

func (s *Server) handleAppClose(body *storage.Storage, out *storage.Storage) protocol.Status {
	s.closing = true
	return s.reply(out, protocol.CmdAppClose, protocol.StatusOK, nil, "Closing")
}
