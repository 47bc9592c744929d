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

// Package baseapp_main parses the command line, wires the server with its metrics, health and console
// surfaces, and runs until iCS closes the application or the process is signaled.
package baseapp_main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/itetris/baseapp/cli"
	"github.com/itetris/baseapp/config"
	"github.com/itetris/baseapp/health"
	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/metrics"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/pcap"
	"github.com/itetris/baseapp/progctx"
	"github.com/itetris/baseapp/server"
	"github.com/itetris/baseapp/tracing"
)

type MainArgs struct {
	ConfigFile     string
	ListenAddr     string
	LogLevel       string
	LogFile        string
	MetricsAddr    string
	HealthAddr     string
	CaptureFile    string
	TraceExporter  string
	Tmc            bool
	MessageLife    int
	StaleNodeSteps int
	RandomSeed     int64
	NoCli          bool
	History        string
}

// parseArgs parses args into a MainArgs and returns the names of the flags that were given.
func parseArgs(fs *flag.FlagSet, arguments []string) (*MainArgs, map[string]bool, error) {
	args := &MainArgs{}
	def := config.Default()

	fs.StringVar(&args.ConfigFile, "config", "", "yaml configuration file; flags given explicitly override it")
	fs.StringVar(&args.ListenAddr, "listen", def.Listen, "iCS control connection listen address")
	fs.StringVar(&args.LogLevel, "log", def.LogLevel, "set logging level: trace, debug, info, note, warn, error")
	fs.StringVar(&args.LogFile, "log-file", "", "also write the log to this file")
	fs.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	fs.StringVar(&args.HealthAddr, "health", "", "serve the gRPC health service on this address")
	fs.StringVar(&args.CaptureFile, "pcap", "", "record the iCS control messages to this PCAP file")
	fs.StringVar(&args.TraceExporter, "trace", def.Tracing.Exporter, "export command spans: off, stdout or otlp")
	fs.BoolVar(&args.Tmc, "tmc", def.NodeHandler.Tmc, "run the traffic management centre")
	fs.IntVar(&args.MessageLife, "message-lifetime", def.NodeHandler.MessageLifetime, "payload lifetime in time steps, 0 keeps payloads until read")
	fs.IntVar(&args.StaleNodeSteps, "stale-steps", def.NodeHandler.StaleNodeSteps, "delete mobile nodes silent for this many steps, 0 disables")
	fs.Int64Var(&args.RandomSeed, "seed", def.NodeHandler.RandomSeed, "random seed, 0 picks one from the clock")
	fs.BoolVar(&args.NoCli, "no-cli", false, "run without the interactive console")
	fs.StringVar(&args.History, "history", "", "console history file")

	if err := fs.Parse(arguments); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return args, set, nil
}

// loadConfig reads the configuration file, if any, and applies the flags given on the command line.
func loadConfig(args *MainArgs, set map[string]bool) (*config.File, error) {
	cfg := config.Default()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(args.ConfigFile); err != nil {
			return nil, err
		}
	}
	if set["listen"] {
		cfg.Listen = args.ListenAddr
	}
	if set["log"] {
		cfg.LogLevel = args.LogLevel
	}
	if args.LogFile != "" {
		cfg.LogOutputs = []string{"stderr", args.LogFile}
	}
	if set["metrics"] {
		cfg.MetricsAddr = args.MetricsAddr
	}
	if set["health"] {
		cfg.HealthAddr = args.HealthAddr
	}
	if set["pcap"] {
		cfg.CaptureFile = args.CaptureFile
	}
	if set["trace"] {
		cfg.Tracing.Exporter = args.TraceExporter
	}
	if set["tmc"] {
		cfg.NodeHandler.Tmc = args.Tmc
	}
	if set["message-lifetime"] {
		cfg.NodeHandler.MessageLifetime = args.MessageLife
	}
	if set["stale-steps"] {
		cfg.NodeHandler.StaleNodeSteps = args.StaleNodeSteps
	}
	if set["seed"] {
		cfg.NodeHandler.RandomSeed = args.RandomSeed
	}
	if cfg.NodeHandler.RandomSeed == 0 {
		cfg.NodeHandler.RandomSeed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Main runs the baseApp server. It returns when the program context is done and every goroutine it
// started has finished.
func Main(ctx *progctx.ProgCtx, arguments []string, cliOptions *cli.CliOptions) error {
	args, set, err := parseArgs(flag.NewFlagSet("baseapp", flag.ContinueOnError), arguments)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(args, set)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Level())
	if len(cfg.LogOutputs) > 0 {
		logger.SetOutput(cfg.LogOutputs)
	}
	defer logger.Sync()

	handleSignals(ctx)

	nh, err := nodehandler.NewNodeHandler(cfg.NodeHandlerConfig())
	if err != nil {
		return err
	}
	srv := server.NewServer(ctx, cfg.ServerConfig(), nh)

	var observers server.Observers
	if cfg.MetricsAddr != "" {
		collector, err := serveMetrics(ctx, cfg.MetricsAddr)
		if err != nil {
			return err
		}
		observers = append(observers, collector)
	}
	if cfg.Tracing.Enabled() {
		tp, err := tracing.NewProvider(ctx, &cfg.Tracing, nil)
		if err != nil {
			return err
		}
		ctx.Defer(func() {
			tracing.Shutdown(tp, 5*time.Second)
		})
		observers = append(observers, tracing.NewObserver(tp))
	}
	if len(observers) > 0 {
		srv.SetObserver(observers)
	}
	if cfg.HealthAddr != "" {
		if err = serveHealth(ctx, srv, cfg.HealthAddr); err != nil {
			return err
		}
	}
	if cfg.CaptureFile != "" {
		if err = captureMessages(ctx, srv, cfg.CaptureFile); err != nil {
			return err
		}
	}

	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		ctx.Cancel(err)
		ctx.Wait()
		return errors.Wrapf(err, "listen %s", cfg.Listen)
	}

	if !args.NoCli {
		if cliOptions == nil {
			cliOptions = cli.DefaultCliOptions()
		}
		if cliOptions.HistoryFile == "" {
			cliOptions.HistoryFile = args.History
		}
		ctx.Defer(func() {
			_ = os.Stdin.Close()
		})
		rt := cli.NewCmdRunner(ctx, srv, cfg)
		go func() {
			err := cli.Cli.Run(rt, cliOptions)
			ctx.Cancel(errors.Wrapf(err, "console exit"))
		}()
	}

	err = srv.Serve(l)
	if err != nil {
		ctx.Cancel(err)
	} else {
		ctx.Cancel("iCS session ended")
	}

	logger.Debugf("waiting for baseApp to stop gracefully ...")
	ctx.Wait()
	return err
}

func serveMetrics(ctx *progctx.ProgCtx, addr string) (*metrics.Collector, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	httpServer := &http.Server{
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	ctx.Go("metrics", func() {
		logger.Infof("metrics listening on %s", l.Addr())
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server stopped unexpectedly: %v", err)
		}
	})
	ctx.Defer(func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutCtx)
	})
	return collector, nil
}

func serveHealth(ctx *progctx.ProgCtx, srv *server.Server, addr string) error {
	hs := health.New()
	srv.SetStatusListener(hs)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	ctx.Go("health", func() {
		if err := hs.Serve(l); err != nil {
			logger.Errorf("health service stopped unexpectedly: %v", err)
		}
	})
	ctx.Defer(hs.Stop)
	return nil
}

func captureMessages(ctx *progctx.ProgCtx, srv *server.Server, filename string) error {
	f, err := pcap.NewFile(filename)
	if err != nil {
		return err
	}
	srv.SetRecorder(pcap.Recorder{File: f})
	ctx.Defer(func() {
		_ = f.Sync()
		_ = f.Close()
	})
	return nil
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.Go("handleSignals", func() {
		defer logger.Debugf("handleSignals exit.")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(strings.ToLower(sig.String()))
			case <-ctx.Done():
				return
			}
		}
	})
}
