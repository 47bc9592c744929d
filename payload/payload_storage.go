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

// Package payload holds application messages between the moment they are handed to the network
// simulator and the moment they are delivered or expire.
package payload

import (
	"fmt"
	"strconv"

	. "github.com/itetris/baseapp/types"
)

// Policy tells how often a stored payload may be read.
type Policy uint8

const (
	DeleteOnRead Policy = iota
	MultipleRead
)

func (p Policy) prefix() byte {
	if p == MultipleRead {
		return 'm'
	}
	return 'd'
}

func (p Policy) String() string {
	if p == MultipleRead {
		return "multiple-read"
	}
	return "delete-on-read"
}

type entry struct {
	payload *Payload
	policy  Policy
}

// Storage owns in-flight payloads, keyed by a counter. It is not safe for concurrent use.
type Storage struct {
	lastId  uint64
	entries map[uint64]*entry
}

func NewStorage() *Storage {
	return &Storage{
		entries: map[uint64]*entry{},
	}
}

// PolicyOf returns the policy a payload was inserted with.
func (ps *Storage) PolicyOf(id uint64) (Policy, bool) {
	e, ok := ps.entries[id]
	if !ok {
		return DeleteOnRead, false
	}
	return e.policy, true
}

// Len returns the number of stored payloads.
func (ps *Storage) Len() int {
	return len(ps.entries)
}

// Insert stores p under the next counter value and returns the key, which encodes the policy,
// e.g. "d123" or "m123".
func (ps *Storage) Insert(p *Payload, policy Policy) string {
	ps.lastId++
	p.Id = ps.lastId
	ps.entries[p.Id] = &entry{payload: p, policy: policy}
	return fmt.Sprintf("%c%d", policy.prefix(), p.Id)
}

// Find looks up key. When the key decodes as delete-on-read the payload is removed by the lookup, so
// it is returned at most once and the caller becomes its owner.
func (ps *Storage) Find(key string) (*Payload, bool) {
	id, ok := parseKey(key)
	if !ok {
		return nil, false
	}
	e, ok := ps.entries[id]
	if !ok {
		return nil, false
	}
	if AsPolicy(key) == DeleteOnRead {
		delete(ps.entries, id)
	}
	return e.payload, true
}

// Erase removes the mapping of key and returns the payload, which is left intact.
func (ps *Storage) Erase(key string) (*Payload, bool) {
	id, ok := parseKey(key)
	if !ok {
		return nil, false
	}
	e, ok := ps.entries[id]
	if !ok {
		return nil, false
	}
	delete(ps.entries, id)
	return e.payload, true
}

// EraseAndDelete removes the mapping of key and releases the payload.
func (ps *Storage) EraseAndDelete(key string) bool {
	p, ok := ps.Erase(key)
	if ok {
		p.Release()
	}
	return ok
}

// ExpiredPayloadCleanUp releases and removes every payload created at or before oldTimeStep.
func (ps *Storage) ExpiredPayloadCleanUp(oldTimeStep TimeStep) int {
	removed := 0
	for id, e := range ps.entries {
		if e.payload.TimeStep <= oldTimeStep {
			e.payload.Release()
			delete(ps.entries, id)
			removed++
		}
	}
	return removed
}

// AsPolicy decodes the policy tag of key. Keys with an unknown or missing tag decode as DeleteOnRead.
func AsPolicy(key string) Policy {
	if len(key) > 0 && key[0] == 'm' {
		return MultipleRead
	}
	return DeleteOnRead
}

func parseKey(key string) (uint64, bool) {
	if len(key) < 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(key[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
