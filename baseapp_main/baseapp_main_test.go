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

package baseapp_main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/progctx"
	"github.com/itetris/baseapp/server"
)

func parse(t *testing.T, arguments ...string) (*MainArgs, map[string]bool) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	args, set, err := parseArgs(fs, arguments)
	require.NoError(t, err)
	return args, set
}

func TestParseArgs_Defaults(t *testing.T) {
	args, set := parse(t)
	assert.Empty(t, set)
	assert.Equal(t, "localhost:2500", args.ListenAddr)
	assert.Equal(t, "info", args.LogLevel)
	assert.False(t, args.NoCli)

	cfg, err := loadConfig(args, set)
	require.NoError(t, err)
	assert.Equal(t, "localhost:2500", cfg.Listen)
	assert.NotZero(t, cfg.NodeHandler.RandomSeed)
}

func TestParseArgs_Unknown(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, _, err := parseArgs(fs, []string{"-bogus"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: 0.0.0.0:3000
logLevel: warn
messageLifetime: 3
randomSeed: 11
tmc: true
pcap: session.pcap
rsus:
  - id: 500
    behaviours: [rsu]
`), 0o644))

	args, set := parse(t, "-config", path, "-log", "debug", "-stale-steps", "6", "-metrics", "localhost:9100",
		"-pcap", "override.pcap", "-trace", "stdout")
	cfg, err := loadConfig(args, set)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Listen)
	assert.Equal(t, logger.DebugLevel, cfg.Level())
	assert.Equal(t, "localhost:9100", cfg.MetricsAddr)
	assert.Equal(t, "override.pcap", cfg.CaptureFile)
	assert.True(t, cfg.Tracing.Enabled())
	assert.Equal(t, 3, cfg.NodeHandler.MessageLifetime)
	assert.Equal(t, 6, cfg.NodeHandler.StaleNodeSteps)
	assert.EqualValues(t, 11, cfg.NodeHandler.RandomSeed)
	assert.True(t, cfg.NodeHandler.Tmc)
	require.Len(t, cfg.NodeHandler.Rsus, 1)
}

func TestLoadConfig_Invalid(t *testing.T) {
	args, set := parse(t, "-log", "loud")
	_, err := loadConfig(args, set)
	assert.Error(t, err)

	args, set = parse(t, "-trace", "jaeger")
	_, err = loadConfig(args, set)
	assert.Error(t, err)

	args, set = parse(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = loadConfig(args, set)
	assert.Error(t, err)
}

func TestLoadConfig_LogFile(t *testing.T) {
	args, set := parse(t, "-log-file", "baseapp.log")
	cfg, err := loadConfig(args, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"stderr", "baseapp.log"}, cfg.LogOutputs)
}

func TestCaptureMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.pcap")
	ctx := progctx.New(context.Background())
	nh, err := nodehandler.NewNodeHandler(nodehandler.DefaultConfig())
	require.NoError(t, err)
	srv := server.NewServer(ctx, nil, nh)

	require.NoError(t, captureMessages(ctx, srv, path))
	ctx.Cancel("test done")
	ctx.Wait()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 24, info.Size())
}
