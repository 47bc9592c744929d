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

package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itetris/baseapp/storage"
)

func newTestPayload(ts uint32) *Payload {
	return NewPayload(ts, &AppHeader{ProtocolId: 1, Source: 5, Destination: 6, GenerationTime: ts}, []byte{1, 2, 3})
}

func TestStorage_InsertKeys(t *testing.T) {
	ps := NewStorage()
	k1 := ps.Insert(newTestPayload(1), DeleteOnRead)
	k2 := ps.Insert(newTestPayload(1), MultipleRead)
	assert.Equal(t, "d1", k1)
	assert.Equal(t, "m2", k2)
	assert.Equal(t, 2, ps.Len())

	pol, ok := ps.PolicyOf(2)
	assert.True(t, ok)
	assert.Equal(t, MultipleRead, pol)
}

func TestStorage_DeleteOnReadAtMostOnce(t *testing.T) {
	ps := NewStorage()
	p := newTestPayload(3)
	key := ps.Insert(p, DeleteOnRead)

	got, ok := ps.Find(key)
	assert.True(t, ok)
	assert.Same(t, p, got)

	got, ok = ps.Find(key)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 0, ps.Len())
}

func TestStorage_MultipleRead(t *testing.T) {
	ps := NewStorage()
	key := ps.Insert(newTestPayload(3), MultipleRead)
	for i := 0; i < 3; i++ {
		_, ok := ps.Find(key)
		assert.True(t, ok)
	}
	assert.True(t, ps.EraseAndDelete(key))
	assert.False(t, ps.EraseAndDelete(key))
	_, ok := ps.Find(key)
	assert.False(t, ok)
}

func TestStorage_EraseKeepsPayload(t *testing.T) {
	ps := NewStorage()
	p := newTestPayload(3)
	key := ps.Insert(p, MultipleRead)
	got, ok := ps.Erase(key)
	assert.True(t, ok)
	assert.False(t, got.IsReleased())
	_, ok = ps.Erase(key)
	assert.False(t, ok)
}

func TestStorage_UnknownKeys(t *testing.T) {
	ps := NewStorage()
	ps.Insert(newTestPayload(1), MultipleRead)
	for _, key := range []string{"", "d", "m", "dx", "m99", "17"} {
		_, ok := ps.Find(key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, 1, ps.Len())
}

func TestStorage_ExpiredPayloadCleanUp(t *testing.T) {
	ps := NewStorage()
	old := newTestPayload(100)
	kOld := ps.Insert(old, MultipleRead)
	kMid := ps.Insert(newTestPayload(200), MultipleRead)
	kNew := ps.Insert(newTestPayload(300), DeleteOnRead)

	assert.Equal(t, 0, ps.ExpiredPayloadCleanUp(99))
	assert.Equal(t, 2, ps.ExpiredPayloadCleanUp(200))
	assert.True(t, old.IsReleased())

	_, ok := ps.Find(kOld)
	assert.False(t, ok)
	_, ok = ps.Find(kMid)
	assert.False(t, ok)
	_, ok = ps.Find(kNew)
	assert.True(t, ok)
}

func TestAsPolicy(t *testing.T) {
	assert.Equal(t, DeleteOnRead, AsPolicy("d12"))
	assert.Equal(t, MultipleRead, AsPolicy("m12"))
	assert.Equal(t, DeleteOnRead, AsPolicy("x12"))
	assert.Equal(t, DeleteOnRead, AsPolicy(""))
}

func TestStorage_UnknownPrefixReadsAsDeleteOnRead(t *testing.T) {
	ps := NewStorage()
	ps.Insert(newTestPayload(1), MultipleRead)
	_, ok := ps.Find("x1")
	assert.True(t, ok)
	_, ok = ps.Find("m1")
	assert.False(t, ok)
}

func TestStepWindow(t *testing.T) {
	w := NewStepWindow(3)
	for _, ts := range []uint32{100, 200, 300} {
		_, ok := w.Push(ts)
		assert.False(t, ok)
	}
	oldest, _ := w.Oldest()
	assert.Equal(t, uint32(100), oldest)

	ev, ok := w.Push(400)
	assert.True(t, ok)
	assert.Equal(t, uint32(100), ev)
	ev, ok = w.Push(500)
	assert.True(t, ok)
	assert.Equal(t, uint32(200), ev)
	newest, _ := w.Newest()
	assert.Equal(t, uint32(500), newest)
	assert.Equal(t, 3, w.Len())

	disabled := NewStepWindow(0)
	_, ok = disabled.Push(1)
	assert.False(t, ok)
}

func TestPayload_SizeAndRelease(t *testing.T) {
	p := newTestPayload(1)
	p.Back = &SequenceTrailer{SequenceNumber: 9}
	assert.Equal(t, 14+4+3, p.Size())
	assert.Equal(t, uint8(1), p.ProtocolId())

	s := storage.New()
	p.Front.Serialize(s)
	h := DeserializeAppHeader(storage.FromBytes(s.Bytes()))
	assert.Equal(t, 5, h.Source)
	assert.Equal(t, 6, h.Destination)

	p.Release()
	assert.True(t, p.IsReleased())
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, uint8(0), p.ProtocolId())
}
