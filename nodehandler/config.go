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

package nodehandler

import (
	"github.com/pkg/errors"

	"github.com/itetris/baseapp/behaviour"
	. "github.com/itetris/baseapp/types"
)

// RsuConfig describes one fixed station. The set of RSUs is fixed for the whole run.
type RsuConfig struct {
	Id         NodeId   `yaml:"id"`
	X          float32  `yaml:"x"`
	Y          float32  `yaml:"y"`
	Behaviours []string `yaml:"behaviours"`
}

type Config struct {
	Rsus             []RsuConfig `yaml:"rsus"`
	MobileBehaviours []string    `yaml:"mobileBehaviours"`
	// MessageLifetime is the number of distinct steps a payload stays retrievable; 0 keeps payloads
	// until they are read or erased.
	MessageLifetime int `yaml:"messageLifetime"`
	// StaleNodeSteps is the number of distinct steps without contact after which a mobile node is
	// deleted; 0 disables reaping.
	StaleNodeSteps int   `yaml:"staleNodeSteps"`
	Tmc            bool  `yaml:"tmc"`
	HistoryDepth   int   `yaml:"historyDepth"`
	RandomSeed     int64 `yaml:"randomSeed"`

	Behaviour *behaviour.Config `yaml:"behaviour"`
}

func DefaultConfig() *Config {
	return &Config{
		MobileBehaviours: []string{behaviour.NameMobile},
		MessageLifetime:  10,
		StaleNodeSteps:   0,
		Tmc:              false,
		HistoryDepth:     10,
		Behaviour:        behaviour.DefaultConfig(),
	}
}

// Validate checks RSU ids for duplicates and invalid values.
func (cfg *Config) Validate() error {
	seen := map[NodeId]bool{}
	for _, rsu := range cfg.Rsus {
		if rsu.Id < 0 || rsu.Id == BroadcastNodeId {
			return errors.Errorf("invalid RSU id %d", rsu.Id)
		}
		if seen[rsu.Id] {
			return errors.Errorf("RSU %d configured twice", rsu.Id)
		}
		seen[rsu.Id] = true
	}
	if cfg.MessageLifetime < 0 || cfg.StaleNodeSteps < 0 {
		return errors.Errorf("messageLifetime and staleNodeSteps must not be negative")
	}
	return nil
}
