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

package behaviour

import (
	. "github.com/itetris/baseapp/types"
)

// Config holds the parameters of all behaviours. Times are in milliseconds of simulated time.
type Config struct {
	CamInterval      int64    `yaml:"camInterval"`
	CamJitter        int      `yaml:"camJitter"`
	NeighbourTimeout TimeStep `yaml:"neighbourTimeout"`

	DenmInterval        int64    `yaml:"denmInterval"`
	DenmValidity        TimeStep `yaml:"denmValidity"`
	CongestionThreshold int      `yaml:"congestionThreshold"`

	AdviceSpeedThreshold float64 `yaml:"adviceSpeedThreshold"`
	AdviceSpeedLimit     float64 `yaml:"adviceSpeedLimit"`

	MessageSize int32 `yaml:"messageSize"`
}

func DefaultConfig() *Config {
	return &Config{
		CamInterval:          1000,
		CamJitter:            100,
		NeighbourTimeout:     3000,
		DenmInterval:         5000,
		DenmValidity:         10000,
		CongestionThreshold:  10,
		AdviceSpeedThreshold: 8.0,
		AdviceSpeedLimit:     13.9,
		MessageSize:          200,
	}
}
