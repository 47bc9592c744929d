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

package trafficsim

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

// PendingCommand is a TraCI command waiting for its result.
type PendingCommand struct {
	ExecutionId int32
	Owner       NodeId
	Command     *storage.Storage
}

// Cache is the Communicator implementation fed by traffic light reports and TraCI results received on
// the control connection.
type Cache struct {
	lights    map[string]*TrafficLight
	lastError error
	nextExec  int32
	pending   map[int32]PendingCommand
	results   map[int32]deliveredResult
}

type deliveredResult struct {
	owner  NodeId
	result *storage.Storage
}

func NewCache() *Cache {
	return &Cache{
		lights:  map[string]*TrafficLight{},
		pending: map[int32]PendingCommand{},
		results: map[int32]deliveredResult{},
	}
}
// UpdateTrafficLights applies one report. A report flagged as failed keeps the previous state and makes
// every lookup fail with msg until the next good report.
func (c *Cache) UpdateTrafficLights(failed bool, msg string, lights []TrafficLight) {
	if failed {
		if msg == "" {
			msg = "traffic simulator error"
		}
		c.lastError = errors.New(msg)
		logger.Warnf("traffic light report failed: %s", msg)
		return
	}
	c.lastError = nil
	for i := range lights {
		tl := lights[i]
		c.lights[tl.Id] = &tl
	}
}

func (c *Cache) GetTrafficLights() ([]TrafficLight, error) {
	if c.lastError != nil {
		return nil, c.lastError
	}
	ids := make([]string, 0, len(c.lights))
	for id := range c.lights {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	res := make([]TrafficLight, 0, len(ids))
	for _, id := range ids {
		res = append(res, *c.lights[id])
	}
	return res, nil
}

// GetTrafficLight returns a single traffic light.
func (c *Cache) GetTrafficLight(tlId string) (TrafficLight, error) {
	if c.lastError != nil {
		return TrafficLight{}, c.lastError
	}
	tl, ok := c.lights[tlId]
	if !ok {
		return TrafficLight{}, errors.Wrapf(ErrUnknownTrafficLight, "%s", tlId)
	}
	return *tl, nil
}

func (c *Cache) GetLaneLinksConsecutiveLane(lane string) ([]string, error) {
	if c.lastError != nil {
		return nil, c.lastError
	}
	var res []string
	found := false
	for _, tl := range c.lights {
		for _, l := range tl.Links {
			if l.From == lane {
				found = true
				if !slices.Contains(res, l.To) {
					res = append(res, l.To)
				}
			}
		}
	}
	if !found {
		return nil, errors.Wrapf(ErrUnknownLane, "%s", lane)
	}
	slices.Sort(res)
	return res, nil
}

func (c *Cache) GetTrafficLightControlledLinks(tlId string) ([]Link, error) {
	tl, err := c.GetTrafficLight(tlId)
	if err != nil {
		return nil, err
	}
	return slices.Clone(tl.Links), nil
}

func (c *Cache) TraciCommand(owner NodeId, cmd *storage.Storage) int32 {
	c.nextExec++
	c.pending[c.nextExec] = PendingCommand{ExecutionId: c.nextExec, Owner: owner, Command: cmd}
	return c.nextExec
}

// Pending returns the command of execution execId while its result has not arrived.
func (c *Cache) Pending(execId int32) (PendingCommand, bool) {
	pc, ok := c.pending[execId]
	return pc, ok
}

// PendingCount returns the number of commands waiting for a result.
func (c *Cache) PendingCount() int {
	return len(c.pending)
}

// DeliverResult stores the result of execution execId. It returns false for executions that were never
// issued or were already answered.
func (c *Cache) DeliverResult(execId int32, result *storage.Storage) bool {
	pc, ok := c.pending[execId]
	if !ok {
		return false
	}
	delete(c.pending, execId)
	c.results[execId] = deliveredResult{owner: pc.Owner, result: result}
	return true
}

// TakeResult removes and returns the result of execution execId.
func (c *Cache) TakeResult(execId int32) (*storage.Storage, bool) {
	r, ok := c.results[execId]
	if ok {
		delete(c.results, execId)
	}
	return r.result, ok
}

// ResultCount returns the number of delivered results nobody has taken yet.
func (c *Cache) ResultCount() int {
	return len(c.results)
}

// Drop forgets execution execId: a result still outstanding is refused on arrival, a delivered one is
// discarded.
func (c *Cache) Drop(execId int32) {
	delete(c.pending, execId)
	delete(c.results, execId)
}

// Forget drops the pending commands and untaken results of owner, e.g. when the node is deleted.
func (c *Cache) Forget(owner NodeId) {
	for id, pc := range c.pending {
		if pc.Owner == owner {
			delete(c.pending, id)
		}
	}
	for id, r := range c.results {
		if r.owner == owner {
			delete(c.results, id)
		}
	}
}
