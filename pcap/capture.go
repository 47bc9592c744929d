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

// Package pcap records the control connection to a PCAP file. Each record carries one transport message,
// length prefix included, behind a single direction byte. The link type is LINKTYPE_USER0 so a Wireshark
// user DLT dissector can be bound to it.
package pcap

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/protocol"
	. "github.com/itetris/baseapp/types"
)

type Direction uint8

const (
	DirectionIn  Direction = 0 // iCS to baseApp
	DirectionOut Direction = 1 // baseApp to iCS
)

func (d Direction) String() string {
	if d == DirectionOut {
		return "out"
	}
	return "in"
}

const (
	dltUser0            = 147
	pcapMagicNumber     = 0xA1B2C3D4
	pcapVersionMajor    = 2
	pcapVersionMinor    = 4
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
	recordPrefixSize    = 1 + 4
	snapLen             = protocol.MaxMessageLength + 1
)

// File is a capture of the control connection.
type File interface {
	// AppendMessage writes one transport message. content excludes the length prefix.
	AppendMessage(ts TimeStep, dir Direction, content []byte) error
	Sync() error
	Close() error
}

type captureFile struct {
	w  io.Writer
	fd *os.File
}

// NewFile creates or truncates filename and writes the PCAP file header.
func NewFile(filename string) (File, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture %s", filename)
	}
	f := &captureFile{w: fd, fd: fd}
	if err = f.writeHeader(); err != nil {
		_ = fd.Close()
		return nil, err
	}
	logger.Infof("capturing control messages to %s", filename)
	return f, nil
}

// NewWriter writes a capture to w. Sync and Close do nothing.
func NewWriter(w io.Writer) (File, error) {
	f := &captureFile{w: w}
	if err := f.writeHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *captureFile) AppendMessage(ts TimeStep, dir Direction, content []byte) error {
	if ts == InvalidTimeStep {
		ts = 0
	}
	plen := uint32(recordPrefixSize + len(content))
	buf := make([]byte, pcapFrameHeaderSize+int(plen))
	// time steps are milliseconds of simulated time
	binary.LittleEndian.PutUint32(buf[0:4], ts/1000)
	binary.LittleEndian.PutUint32(buf[4:8], (ts%1000)*1000)
	binary.LittleEndian.PutUint32(buf[8:12], plen)
	binary.LittleEndian.PutUint32(buf[12:16], plen)
	buf[pcapFrameHeaderSize] = byte(dir)
	binary.BigEndian.PutUint32(buf[pcapFrameHeaderSize+1:], uint32(4+len(content)))
	copy(buf[pcapFrameHeaderSize+recordPrefixSize:], content)

	_, err := f.w.Write(buf)
	return errors.Wrap(err, "append capture record")
}

// Recorder adapts a File to the server's message recorder. Write errors are logged, not returned.
type Recorder struct {
	File
}

func (r Recorder) RecordMessage(ts TimeStep, incoming bool, content []byte) {
	dir := DirectionOut
	if incoming {
		dir = DirectionIn
	}
	if err := r.AppendMessage(ts, dir, content); err != nil {
		logger.Warnf("capture: %v", err)
	}
}

func (f *captureFile) Sync() error {
	if f.fd == nil {
		return nil
	}
	return f.fd.Sync()
}

func (f *captureFile) Close() error {
	if f.fd == nil {
		return nil
	}
	return f.fd.Close()
}

func (f *captureFile) writeHeader() error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[8:12], 0)
	binary.LittleEndian.PutUint32(header[12:16], 0)
	binary.LittleEndian.PutUint32(header[16:20], snapLen)
	binary.LittleEndian.PutUint32(header[20:24], dltUser0)
	if _, err := f.w.Write(header[:]); err != nil {
		return errors.Wrap(err, "write capture header")
	}
	return f.Sync()
}
