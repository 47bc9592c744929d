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

// Package prng hands out the random sources of the process. A Manager is created once per server and
// injected; nothing in here is a package-level generator.
package prng

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/iti/rngstream"

	. "github.com/itetris/baseapp/types"
)

type RandomSeed int64

// Manager derives all random streams of one simulation instance from a single root seed.
type Manager struct {
	rootSeed  RandomSeed
	unitRand  *rand.Rand
	nodeSeeds *rand.Rand
	streams   map[NodeId]*rngstream.RngStream
}

// NewManager creates a Manager, either with a fixed root seed (rootSeed != 0) or a time-based one.
func NewManager(rootSeed int64) *Manager {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))
	return &Manager{
		rootSeed:  RandomSeed(rootSeed),
		unitRand:  rand.New(rand.NewSource(root.Int63())),
		nodeSeeds: rand.New(rand.NewSource(root.Int63())),
		streams:   map[NodeId]*rngstream.RngStream{},
	}
}

// RootSeed returns the seed this Manager was created with.
func (m *Manager) RootSeed() RandomSeed {
	return m.rootSeed
}

// NewNodeRandomSeed generates a seed for a newly created node.
func (m *Manager) NewNodeRandomSeed() int32 {
	return m.nodeSeeds.Int31()
}

// NewUnitRandom generates a new random unit [0, 1) float.
func (m *Manager) NewUnitRandom() float64 {
	return m.unitRand.Float64()
}

// NodeStream returns the random stream of node id. Streams are created on first use and are
// deterministic for a given node creation order.
func (m *Manager) NodeStream(id NodeId) *rngstream.RngStream {
	s, ok := m.streams[id]
	if !ok {
		s = rngstream.New(fmt.Sprintf("node-%d", id))
		m.streams[id] = s
	}
	return s
}

// ReleaseNode drops the stream of a deleted node.
func (m *Manager) ReleaseNode(id NodeId) {
	delete(m.streams, id)
}

// Jitter returns a uniformly distributed value in [0, max] drawn from the stream of node id.
func (m *Manager) Jitter(id NodeId, max int) int {
	if max <= 0 {
		return 0
	}
	return m.NodeStream(id).RandInt(0, max)
}
