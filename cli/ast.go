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

package cli

import (
	"strconv"

	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Config   *ConfigCmd   `  @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Node     *NodeCmd     `| @@` //nolint
	Nodes    *NodesCmd    `| @@` //nolint
	Payloads *PayloadsCmd `| @@` //nolint
	Rsus     *RsusCmd     `| @@` //nolint
	Stats    *StatsCmd    `| @@` //nolint
	Subs     *SubsCmd     `| @@` //nolint
	Time     *TimeCmd     `| @@` //nolint
	Tmc      *TmcCmd      `| @@` //nolint
	Unwatch  *UnwatchCmd  `| @@` //nolint
	Watch    *WatchCmd    `| @@` //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id      int     `( @Int`         //nolint
	IdRange int     `  [ "-" @Int ]` //nolint
	All     *string `| @"all" )`     //nolint
}

func (ns *NodeSelector) String() string {
	if ns.All != nil {
		return "all"
	}
	if ns.IdRange > 0 {
		return strconv.Itoa(ns.Id) + "-" + strconv.Itoa(ns.IdRange)
	}
	return strconv.Itoa(ns.Id)
}

// Contains returns whether id is selected.
func (ns *NodeSelector) Contains(id int) bool {
	if ns.All != nil {
		return true
	}
	if ns.IdRange > 0 {
		return id >= ns.Id && id <= ns.IdRange
	}
	return id == ns.Id
}

// noinspection GoStructTag
type ConfigCmd struct {
	Cmd struct{} `"config"` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                        //nolint
	Level string   `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"none"|"T"|"D"|"I"|"N"|"W"|"E"|"C" )]` //nolint
}

// noinspection GoStructTag
type NodeCmd struct {
	Cmd  struct{}     `"node"` //nolint
	Node NodeSelector `@@`     //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd  struct{} `"nodes"`                   //nolint
	Kind string   `[ @( "mobile" | "rsu" ) ]` //nolint
	Yaml *string  `[ @"yaml" ]`               //nolint
}

// noinspection GoStructTag
type PayloadsCmd struct {
	Cmd struct{} `"payloads"` //nolint
}

// noinspection GoStructTag
type RsusCmd struct {
	Cmd struct{} `"rsus"` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd struct{} `( "stats" | "counters" )` //nolint
}

// noinspection GoStructTag
type SubsCmd struct {
	Cmd   struct{}       `"subs"`  //nolint
	Nodes []NodeSelector `( @@ )*` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

// noinspection GoStructTag
type TmcCmd struct {
	Cmd struct{} `"tmc"` //nolint
}

// noinspection GoStructTag
type WatchCmd struct {
	Cmd   struct{}       `"watch"` //nolint
	Nodes []NodeSelector `( @@ )*` //nolint
}

// noinspection GoStructTag
type UnwatchCmd struct {
	Cmd   struct{}       `"unwatch"` //nolint
	Nodes []NodeSelector `( @@ )*`   //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
