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

// Package cli implements the baseApp admin console. Commands are parsed with a participle grammar
// and run on the server goroutine, so they see a consistent view of the simulation state.
package cli

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/itetris/baseapp/config"
	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/progctx"
	"github.com/itetris/baseapp/server"
	. "github.com/itetris/baseapp/types"
)

const (
	Prompt = "> "
)

var ErrServerStopped = errors.New("server stopped")

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	ctx  *progctx.ProgCtx
	srv  *server.Server
	cfg  *config.File
	help Help
}

// NewCmdRunner creates the runner for srv. cfg is only used by the config command and may be nil.
func NewCmdRunner(ctx *progctx.ProgCtx, srv *server.Server, cfg *config.File) *CmdRunner {
	return &CmdRunner{
		ctx:  ctx,
		srv:  srv,
		cfg:  cfg,
		help: newHelp(),
	}
}

// HandleCommand parses and runs one command line, writing its output to output. It returns an
// error only when the console should stop.
func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}
		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cmd.Nodes)
	} else if cmd.Node != nil {
		rt.executeNode(cc, cmd.Node)
	} else if cmd.Subs != nil {
		rt.executeSubs(cc, cmd.Subs)
	} else if cmd.Rsus != nil {
		rt.executeRsus(cc)
	} else if cmd.Tmc != nil {
		rt.executeTmc(cc)
	} else if cmd.Stats != nil {
		rt.executeStats(cc)
	} else if cmd.Payloads != nil {
		rt.executePayloads(cc)
	} else if cmd.Time != nil {
		rt.executeTime(cc)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Watch != nil {
		rt.executeWatch(cc, cmd.Watch)
	} else if cmd.Unwatch != nil {
		rt.executeUnwatch(cc, cmd.Unwatch)
	} else if cmd.Config != nil {
		rt.executeConfig(cc)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

// postSyncWait runs f on the server goroutine and waits for it. A panic in f is reported as the
// command error.
func (rt *CmdRunner) postSyncWait(cc *CommandContext, f func(srv *server.Server, nh *nodehandler.NodeHandler)) {
	if !rt.srv.PostSync(func() {
		defer func() {
			if rerr := recover(); rerr != nil {
				cc.errorf("panic: %v", rerr)
			}
		}()
		f(rt.srv, rt.srv.NodeHandler())
	}) {
		cc.error(ErrServerStopped)
	}
}

type nodeInfo struct {
	Id          NodeId  `yaml:"id"`
	Kind        string  `yaml:"kind"`
	SumoId      string  `yaml:"sumoId,omitempty"`
	X           float32 `yaml:"x"`
	Y           float32 `yaml:"y"`
	Speed       float32 `yaml:"speed"`
	LastContact uint64  `yaml:"lastContact"`
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *NodesCmd) {
	var infos []nodeInfo
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		for _, id := range nh.NodeIds() {
			n := nh.Node(id)
			if cmd.Kind != "" && n.Kind().String() != cmd.Kind {
				continue
			}
			info := nodeInfo{Id: id, Kind: n.Kind().String(), SumoId: n.SumoId, LastContact: n.LastContact}
			if mi, ok := n.Mobility(); ok {
				info.X, info.Y, info.Speed = mi.Position.X, mi.Position.Y, mi.Speed
			}
			infos = append(infos, info)
		}
	})
	if cc.Err() != nil {
		return
	}
	if cmd.Yaml != nil {
		cc.outputItemsAsYaml(infos)
		return
	}
	for _, info := range infos {
		cc.outputf("id=%d\tkind=%s\tsumo=%s\tx=%.1f\ty=%.1f\tspeed=%.1f\tlastContact=%d\n", info.Id,
			info.Kind, info.SumoId, info.X, info.Y, info.Speed, info.LastContact)
	}
}

type nodeDetail struct {
	nodeInfo      `yaml:",inline"`
	Heading       float32  `yaml:"heading"`
	Lane          string   `yaml:"lane,omitempty"`
	Behaviours    []string `yaml:"behaviours"`
	Subscriptions []string `yaml:"subscriptions"`
	Watching      bool     `yaml:"watching"`
}

func (rt *CmdRunner) executeNode(cc *CommandContext, cmd *NodeCmd) {
	if cmd.Node.All != nil || cmd.Node.IdRange > 0 {
		cc.errorf("node: a single node id is required")
		return
	}
	var detail *nodeDetail
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		n := nh.Node(cmd.Node.Id)
		if n == nil {
			return
		}
		detail = &nodeDetail{
			nodeInfo:   nodeInfo{Id: n.Id(), Kind: n.Kind().String(), SumoId: n.SumoId, LastContact: n.LastContact},
			Behaviours: n.Behaviours(),
			Watching:   logger.IsWatching(n.Id()),
		}
		if mi, ok := n.Mobility(); ok {
			detail.X, detail.Y, detail.Speed = mi.Position.X, mi.Position.Y, mi.Speed
			detail.Heading, detail.Lane = mi.Heading, mi.Lane
		}
		for _, sub := range n.Subscriptions() {
			detail.Subscriptions = append(detail.Subscriptions, sub.String())
		}
	})
	if cc.Err() != nil {
		return
	}
	if detail == nil {
		cc.errorf("node %d not found", cmd.Node.Id)
		return
	}
	data, err := yaml.Marshal(detail)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(string(data))
}

func (rt *CmdRunner) executeSubs(cc *CommandContext, cmd *SubsCmd) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		for _, id := range selectIds(nh.NodeIds(), cmd.Nodes) {
			for _, sub := range nh.Node(id).Subscriptions() {
				cc.outputf("node=%d\treq=%d\tid=%d\tkind=%v\tdone=%v\n", id, sub.RequestId(), sub.Id(),
					sub.Kind(), sub.IsDone())
			}
		}
	})
}

func (rt *CmdRunner) executeRsus(cc *CommandContext) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		for _, rsu := range nh.Rsus() {
			cc.outputf("id=%d\tx=%.1f\ty=%.1f\tbehaviours=%s\tactive=%v\texecuted=%v\n", rsu.Id, rsu.X, rsu.Y,
				strings.Join(rsu.Behaviours, ","), nh.Node(rsu.Id) != nil, nh.RsuExecuted(rsu.Id))
		}
	})
}

func (rt *CmdRunner) executeTmc(cc *CommandContext) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		tmc := nh.Tmc()
		if tmc == nil {
			cc.errorf("no traffic management centre configured")
			return
		}
		cc.outputf("executions=%d\tsubscriptionSteps=%d\tadvices=%d\n", tmc.Executions, tmc.SubscriptionSteps,
			tmc.AdvicesSent)
		for _, rsu := range nh.Rsus() {
			means := tmc.LastMeans(rsu.Id)
			if len(means) == 0 {
				continue
			}
			cc.outputf("rsu=%d", rsu.Id)
			for _, dir := range sortedKeys(means) {
				cc.outputf("\t%s=%.2f", dir, means[dir])
			}
			cc.outputf("\n")
		}
	})
}

func (rt *CmdRunner) executeStats(cc *CommandContext) {
	var srvStats server.Stats
	var nhStats nodehandler.Stats
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		srvStats = srv.Stats()
		nhStats = nh.Stats()
	})
	if cc.Err() != nil {
		return
	}
	for _, counters := range []interface{}{srvStats, nhStats} {
		countersVal := reflect.ValueOf(counters)
		countersTyp := countersVal.Type()
		for i := 0; i < countersVal.NumField(); i++ {
			cc.outputf("%-40s %v\n", countersTyp.Field(i).Name, countersVal.Field(i).Uint())
		}
	}
}

func (rt *CmdRunner) executePayloads(cc *CommandContext) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		cc.outputf("%d\n", nh.Env().Payloads.Len())
	})
}

func (rt *CmdRunner) executeTime(cc *CommandContext) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		ts := srv.CurrentTimeStep()
		if ts == InvalidTimeStep {
			cc.outputf("timestep=none\tsteps=0\tstate=%v\n", srv.State())
			return
		}
		cc.outputf("timestep=%d\tsteps=%d\tstate=%v\n", ts, nh.StepIndex(), srv.State())
	})
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeWatch(cc *CommandContext, cmd *WatchCmd) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		if len(cmd.Nodes) == 0 {
			var watched []string
			for _, id := range nh.NodeIds() {
				if logger.IsWatching(id) {
					watched = append(watched, fmt.Sprint(id))
				}
			}
			cc.outputf("%s\n", strings.Join(watched, " "))
			return
		}
		for _, sel := range getUniqueAndSorted(cmd.Nodes) {
			switch {
			case sel.All != nil:
				logger.SetWatchAll(true)
			case sel.IdRange > 0:
				for _, id := range selectIds(nh.NodeIds(), []NodeSelector{sel}) {
					logger.SetWatch(id, true)
				}
			default:
				// a single id may name a node that does not exist yet
				logger.SetWatch(sel.Id, true)
			}
		}
	})
}

func (rt *CmdRunner) executeUnwatch(cc *CommandContext, cmd *UnwatchCmd) {
	rt.postSyncWait(cc, func(srv *server.Server, nh *nodehandler.NodeHandler) {
		if len(cmd.Nodes) == 0 {
			logger.SetWatchAll(false)
			return
		}
		for _, sel := range getUniqueAndSorted(cmd.Nodes) {
			if sel.All != nil {
				logger.SetWatchAll(false)
				continue
			}
			if sel.IdRange == 0 {
				logger.SetWatch(sel.Id, false)
				continue
			}
			for _, id := range selectIds(nh.NodeIds(), []NodeSelector{sel}) {
				logger.SetWatch(id, false)
			}
		}
	})
}

func (rt *CmdRunner) executeConfig(cc *CommandContext) {
	if rt.cfg == nil {
		cc.errorf("no configuration loaded")
		return
	}
	data, err := rt.cfg.Marshal()
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(string(data))
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext) {
	rt.ctx.Cancel("console exit")
}
