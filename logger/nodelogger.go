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

package logger

import (
	"fmt"
	"sync"
)

// NodeLogger prefixes log lines with the node they concern. A node can be watched, which raises the
// level of its own messages to Info so they show up without lowering the global level.
type NodeLogger struct {
	Id       int
	prefix   string
	watching bool
}

var (
	nodeLogs  = make(map[int]*NodeLogger, 10)
	nodeMutex sync.Mutex
	watchAll  bool
)

// GetNodeLogger returns the NodeLogger of node id, creating it on first use.
func GetNodeLogger(id int) *NodeLogger {
	nodeMutex.Lock()
	defer nodeMutex.Unlock()

	nl, ok := nodeLogs[id]
	if !ok {
		nl = &NodeLogger{
			Id:       id,
			prefix:   fmt.Sprintf("Node<%d> ", id),
			watching: watchAll,
		}
		nodeLogs[id] = nl
	}
	return nl
}

// SetWatch enables or disables watching of node id.
func SetWatch(id int, watch bool) {
	nl := GetNodeLogger(id)
	nodeMutex.Lock()
	nl.watching = watch
	nodeMutex.Unlock()
}

// SetWatchAll sets the watch flag of every current and future node.
func SetWatchAll(watch bool) {
	nodeMutex.Lock()
	defer nodeMutex.Unlock()
	watchAll = watch
	for _, nl := range nodeLogs {
		nl.watching = watch
	}
}

// IsWatching returns whether node id is watched.
func IsWatching(id int) bool {
	nl := GetNodeLogger(id)
	nodeMutex.Lock()
	defer nodeMutex.Unlock()
	return nl.watching
}

func (nl *NodeLogger) logf(level Level, format string, args []interface{}) {
	nodeMutex.Lock()
	watching := nl.watching
	nodeMutex.Unlock()
	if watching && level > InfoLevel {
		level = InfoLevel
	}
	Logf(level, nl.prefix+format, args)
}

func (nl *NodeLogger) Tracef(format string, args ...interface{}) {
	nl.logf(TraceLevel, format, args)
}

func (nl *NodeLogger) Debugf(format string, args ...interface{}) {
	nl.logf(DebugLevel, format, args)
}

func (nl *NodeLogger) Infof(format string, args ...interface{}) {
	nl.logf(InfoLevel, format, args)
}

func (nl *NodeLogger) Warnf(format string, args ...interface{}) {
	nl.logf(WarnLevel, format, args)
}

func (nl *NodeLogger) Errorf(format string, args ...interface{}) {
	nl.logf(ErrorLevel, format, args)
}
