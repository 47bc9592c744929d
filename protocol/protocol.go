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

// Package protocol defines the framed binary control protocol spoken between iCS and the application
// server: command ids, status codes, frame and reply layout, and the codecs of the records carried in
// command payloads.
package protocol

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

type CommandId = uint8

const (
	// Command IDs (external, shared between iCS and the application)
	CmdCreateMobileNode        CommandId = 0x01
	CmdRemoveMobileNode        CommandId = 0x02
	CmdAskForSubscription      CommandId = 0x03
	CmdEndSubscription         CommandId = 0x04
	CmdMobilityInformation     CommandId = 0x05
	CmdTrafficLightInformation CommandId = 0x06
	CmdAppMessageReceive       CommandId = 0x07
	CmdAppMessageSendConfirm   CommandId = 0x08
	CmdNotifyAppExecute        CommandId = 0x09
	CmdSumoTraciCommand        CommandId = 0x0A
	CmdReceivedCamInfo         CommandId = 0x0B
	CmdAppClose                CommandId = 0xFF
)

var commandNames = map[CommandId]string{
	CmdCreateMobileNode:        "CREATE_MOBILE_NODE",
	CmdRemoveMobileNode:        "REMOVE_MOBILE_NODE",
	CmdAskForSubscription:      "ASK_FOR_SUBSCRIPTION",
	CmdEndSubscription:         "END_SUBSCRIPTION",
	CmdMobilityInformation:     "MOBILITY_INFORMATION",
	CmdTrafficLightInformation: "TRAFFIC_LIGHT_INFORMATION",
	CmdAppMessageReceive:       "APP_MSG_RECEIVE",
	CmdAppMessageSendConfirm:   "APP_MSG_SEND_CONFIRM",
	CmdNotifyAppExecute:        "NOTIFY_APP_EXECUTE",
	CmdSumoTraciCommand:        "SUMO_TRACI_COMMAND",
	CmdReceivedCamInfo:         "RECEIVED_CAM_INFO",
	CmdAppClose:                "APP_CLOSE",
}

// CommandName returns the protocol name of cmd, or "UNKNOWN".
func CommandName(cmd CommandId) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return "UNKNOWN"
}

type Status = uint8

const (
	StatusOK             Status = 0x00
	StatusNotImplemented Status = 0x01
	StatusError          Status = 0xFF
)

const (
	lengthLen        = 4
	frameHeaderLen   = lengthLen + 1 // length, command id
	frameTimeStepLen = 4             // absent for CmdAppClose
	replyHeaderLen   = frameHeaderLen + 1 + 4
	messageHeaderLen = lengthLen
	// MaxMessageLength bounds one transport message.
	MaxMessageLength = 64 * 1024 * 1024
)

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrMessageTooLarge  = errors.New("message too large")
	ErrMalformedMessage = errors.New("malformed message")
)

// FrameHeader is the decoded fixed part of one command frame.
type FrameHeader struct {
	Length   uint32
	Command  CommandId
	TimeStep TimeStep
	// End is the position in the message where the next frame starts.
	End int
}

// HasTimeStep returns whether the frame carries a time step.
func (h *FrameHeader) HasTimeStep() bool {
	return h.Command != CmdAppClose
}

// ReadMessage reads one length-prefixed transport message and returns its content without the prefix.
func ReadMessage(r io.Reader) ([]byte, error) {
	var hdr [messageHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	total := binary.BigEndian.Uint32(hdr[:])
	if total < messageHeaderLen {
		return nil, errors.Wrapf(ErrMalformedMessage, "length %d", total)
	}
	if total > MaxMessageLength {
		return nil, errors.Wrapf(ErrMessageTooLarge, "length %d", total)
	}
	body := make([]byte, total-messageHeaderLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrapf(err, "reading message body of %d bytes", len(body))
	}
	return body, nil
}

// WriteMessage writes content as one length-prefixed transport message.
func WriteMessage(w io.Writer, content []byte) error {
	buf := make([]byte, messageHeaderLen+len(content))
	binary.BigEndian.PutUint32(buf, uint32(len(buf)))
	copy(buf[messageHeaderLen:], content)
	_, err := w.Write(buf)
	return err
}

// ReadFrameHeader decodes the frame header at the read position of msg. On return the read position is
// at the start of the command payload. A header whose length does not fit the message is a hard error.
func ReadFrameHeader(msg *storage.Storage) (FrameHeader, error) {
	start := msg.Position()
	if msg.Remaining() < frameHeaderLen {
		return FrameHeader{}, errors.Wrapf(ErrMalformedFrame, "%d trailing bytes at %d", msg.Remaining(), start)
	}
	h := FrameHeader{
		Length:  msg.ReadUint32(),
		Command: msg.ReadUint8(),
	}
	minLen := uint32(frameHeaderLen)
	if h.HasTimeStep() {
		minLen += frameTimeStepLen
	}
	if h.Length < minLen || int(h.Length) > msg.Size()-start {
		return FrameHeader{}, errors.Wrapf(ErrMalformedFrame, "frame length %d at %d, message size %d", h.Length,
			start, msg.Size())
	}
	if h.HasTimeStep() {
		h.TimeStep = msg.ReadUint32()
	}
	h.End = start + int(h.Length)
	return h, msg.Err()
}

// AppendFrame appends a complete command frame to out.
func AppendFrame(out *storage.Storage, cmd CommandId, ts TimeStep, payload []byte) {
	start := out.Size()
	out.WriteUint32(0)
	out.WriteUint8(cmd)
	if cmd != CmdAppClose {
		out.WriteUint32(ts)
	}
	out.WriteRaw(payload)
	out.PutUint32At(start, uint32(out.Size()-start))
}

// AppendReply appends a reply frame to out. result may be nil.
func AppendReply(out *storage.Storage, cmd CommandId, status Status, description string, result *storage.Storage) {
	start := out.Size()
	out.WriteUint32(0)
	out.WriteUint8(cmd)
	out.WriteUint8(status)
	out.WriteString(description)
	if result != nil {
		out.WriteRaw(result.Bytes())
	}
	out.PutUint32At(start, uint32(out.Size()-start))
}

// Reply is one decoded reply frame.
type Reply struct {
	Command     CommandId
	Status      Status
	Description string
	Result      *storage.Storage
}

// ParseReplies decodes every reply frame of one transport message content.
func ParseReplies(content []byte) ([]Reply, error) {
	msg := storage.FromBytes(content)
	var replies []Reply
	for msg.ValidPos() {
		start := msg.Position()
		length := msg.ReadUint32()
		if length < replyHeaderLen || int(length) > msg.Size()-start {
			return replies, errors.Wrapf(ErrMalformedFrame, "reply length %d at %d", length, start)
		}
		end := start + int(length)
		r := Reply{
			Command:     msg.ReadUint8(),
			Status:      msg.ReadUint8(),
			Description: msg.ReadString(),
		}
		if err := msg.Err(); err != nil || msg.Position() > end {
			return replies, errors.Wrapf(ErrMalformedFrame, "reply at %d", start)
		}
		r.Result = storage.FromBytes(msg.ReadRaw(end - msg.Position()))
		replies = append(replies, r)
	}
	return replies, msg.Err()
}
