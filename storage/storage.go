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

// Package storage implements the big-endian binary codec shared by iCS, the applications and the
// traffic simulator. A Storage is either written to (and then sent) or read from a received buffer.
package storage

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrShortBuffer is the cause of every read past the end of a Storage.
var ErrShortBuffer = errors.New("storage: read past end of buffer")

// Storage is a byte buffer with a read cursor. Reads are sticky on error: after the first failed
// read, every further read returns a zero value and Err reports the first failure.
type Storage struct {
	buf []byte
	pos int
	err error
}

// New returns an empty Storage for writing.
func New() *Storage {
	return &Storage{}
}

// FromBytes returns a Storage for reading data. The slice is not copied.
func FromBytes(data []byte) *Storage {
	return &Storage{buf: data}
}

// Bytes returns the full content of the Storage, independent of the read position.
func (s *Storage) Bytes() []byte {
	return s.buf
}

func (s *Storage) Size() int {
	return len(s.buf)
}

func (s *Storage) Position() int {
	return s.pos
}

// Remaining returns the number of unread bytes.
func (s *Storage) Remaining() int {
	return len(s.buf) - s.pos
}

// ValidPos returns true while unread bytes are left and no read has failed.
func (s *Storage) ValidPos() bool {
	return s.err == nil && s.pos < len(s.buf)
}

// Err returns the first read error, or nil.
func (s *Storage) Err() error {
	return s.err
}

// Seek moves the read position to pos, which must lie within the buffer.
func (s *Storage) Seek(pos int) {
	if pos < 0 || pos > len(s.buf) {
		s.fail(errors.Wrapf(ErrShortBuffer, "seek to %d of %d", pos, len(s.buf)))
		return
	}
	s.pos = pos
}

// Reset clears content, position and error.
func (s *Storage) Reset() {
	s.buf = s.buf[:0]
	s.pos = 0
	s.err = nil
}

func (s *Storage) String() string {
	return fmt.Sprintf("Storage{pos=%d,size=%d,data=%s}", s.pos, len(s.buf), hex.EncodeToString(s.buf))
}

func (s *Storage) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// take returns the next n bytes, or nil after marking the Storage as failed.
func (s *Storage) take(n int, what string) []byte {
	if s.err != nil {
		return nil
	}
	if n < 0 || s.pos+n > len(s.buf) {
		s.fail(errors.Wrapf(ErrShortBuffer, "%s: need %d bytes at %d, size %d", what, n, s.pos, len(s.buf)))
		return nil
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

func (s *Storage) WriteUint8(v uint8) {
	s.buf = append(s.buf, v)
}

func (s *Storage) WriteInt8(v int8) {
	s.buf = append(s.buf, byte(v))
}

func (s *Storage) WriteBool(v bool) {
	if v {
		s.WriteUint8(1)
	} else {
		s.WriteUint8(0)
	}
}

func (s *Storage) WriteShort(v int16) {
	s.buf = binary.BigEndian.AppendUint16(s.buf, uint16(v))
}

func (s *Storage) WriteInt(v int32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(v))
}

func (s *Storage) WriteUint32(v uint32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, v)
}

func (s *Storage) WriteFloat(v float32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, math.Float32bits(v))
}

func (s *Storage) WriteDouble(v float64) {
	s.buf = binary.BigEndian.AppendUint64(s.buf, math.Float64bits(v))
}

// WriteString writes the string as i32 length followed by its bytes.
func (s *Storage) WriteString(v string) {
	s.WriteInt(int32(len(v)))
	s.buf = append(s.buf, v...)
}

// WriteStringList writes an i32 count followed by the strings.
func (s *Storage) WriteStringList(v []string) {
	s.WriteInt(int32(len(v)))
	for _, str := range v {
		s.WriteString(str)
	}
}

// WriteStorage writes the content of other as a nested storage: i32 length followed by the bytes.
func (s *Storage) WriteStorage(other *Storage) {
	var b []byte
	if other != nil {
		b = other.buf
	}
	s.WriteInt(int32(len(b)))
	s.buf = append(s.buf, b...)
}

// WriteRaw appends bytes without a length prefix.
func (s *Storage) WriteRaw(b []byte) {
	s.buf = append(s.buf, b...)
}

// PutUint32At overwrites 4 bytes at offset, used to patch length fields after the fact.
func (s *Storage) PutUint32At(offset int, v uint32) {
	binary.BigEndian.PutUint32(s.buf[offset:offset+4], v)
}

func (s *Storage) ReadUint8() uint8 {
	b := s.take(1, "uint8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (s *Storage) ReadInt8() int8 {
	return int8(s.ReadUint8())
}

func (s *Storage) ReadBool() bool {
	return s.ReadUint8() != 0
}

func (s *Storage) ReadShort() int16 {
	b := s.take(2, "short")
	if b == nil {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

func (s *Storage) ReadInt() int32 {
	return int32(s.ReadUint32())
}

func (s *Storage) ReadUint32() uint32 {
	b := s.take(4, "int")
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (s *Storage) ReadFloat() float32 {
	return math.Float32frombits(s.ReadUint32())
}

func (s *Storage) ReadDouble() float64 {
	b := s.take(8, "double")
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func (s *Storage) ReadString() string {
	n := s.ReadInt()
	b := s.take(int(n), "string")
	if b == nil {
		return ""
	}
	return string(b)
}

func (s *Storage) ReadStringList() []string {
	n := s.ReadInt()
	if s.err != nil {
		return nil
	}
	if n < 0 || int(n) > s.Remaining()/4 {
		s.fail(errors.Wrapf(ErrShortBuffer, "string list: count %d at %d", n, s.pos))
		return nil
	}
	res := make([]string, 0, n)
	for i := int32(0); i < n && s.err == nil; i++ {
		res = append(res, s.ReadString())
	}
	return res
}

// ReadStorage reads a nested storage. The returned Storage owns a copy of the bytes.
func (s *Storage) ReadStorage() *Storage {
	n := s.ReadInt()
	b := s.take(int(n), "storage")
	if b == nil {
		return New()
	}
	data := make([]byte, len(b))
	copy(data, b)
	return FromBytes(data)
}

// ReadRaw reads n bytes without a length prefix. The returned slice is a copy.
func (s *Storage) ReadRaw(n int) []byte {
	b := s.take(n, "raw")
	if b == nil {
		return nil
	}
	data := make([]byte, n)
	copy(data, b)
	return data
}
