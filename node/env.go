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

package node

import (
	"github.com/itetris/baseapp/behaviour"
	"github.com/itetris/baseapp/facilities"
	"github.com/itetris/baseapp/payload"
	"github.com/itetris/baseapp/prng"
	"github.com/itetris/baseapp/scheduler"
	"github.com/itetris/baseapp/subscription"
	"github.com/itetris/baseapp/trafficsim"
	. "github.com/itetris/baseapp/types"
)

// Env is the per-server state shared by all nodes. It is owned by the node handler; nodes keep a
// non-owning reference.
type Env struct {
	Scheduler     *scheduler.Scheduler
	Payloads      *payload.Storage
	Rand          *prng.Manager
	Traffic       *trafficsim.Cache
	Mobility      *facilities.MobilityHistory
	Subscriptions *subscription.IdCounter
	Behaviours    *behaviour.Config

	// TimeStep is the step currently processed.
	TimeStep TimeStep

	lastMessageId int32
}

// NewEnv creates an Env with fresh state. rootSeed 0 selects a time based seed.
func NewEnv(rootSeed int64, historyDepth int, bcfg *behaviour.Config) *Env {
	if bcfg == nil {
		bcfg = behaviour.DefaultConfig()
	}
	return &Env{
		Scheduler:     scheduler.NewScheduler(),
		Payloads:      payload.NewStorage(),
		Rand:          prng.NewManager(rootSeed),
		Traffic:       trafficsim.NewCache(),
		Mobility:      facilities.NewMobilityHistory(historyDepth),
		Subscriptions: &subscription.IdCounter{},
		Behaviours:    bcfg,
		TimeStep:      InvalidTimeStep,
	}
}

func (env *Env) nextMessageId() int32 {
	env.lastMessageId++
	return env.lastMessageId
}

func (env *Env) subscriptionEnv() *subscription.Env {
	return &subscription.Env{Mobility: env.Mobility, Traffic: env.Traffic}
}
