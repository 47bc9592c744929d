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

// Package tracing turns the server activity into OpenTelemetry spans: one span per transport message with a
// child span per command frame.
package tracing

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/server"
	. "github.com/itetris/baseapp/types"
)

const (
	ExporterOff    = "off"
	ExporterStdout = "stdout"
	ExporterOtlp   = "otlp"

	tracerName = "github.com/itetris/baseapp/server"
)

type Config struct {
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	ServiceName string  `yaml:"serviceName"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

func DefaultConfig() *Config {
	return &Config{
		Exporter:    ExporterOff,
		ServiceName: "baseapp",
		SampleRatio: 1.0,
	}
}

func (c *Config) Enabled() bool {
	return c != nil && strings.ToLower(c.Exporter) != ExporterOff && c.Exporter != ""
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Exporter) {
	case "", ExporterOff, ExporterStdout, ExporterOtlp:
	default:
		return errors.Errorf("unsupported tracing exporter: %s", c.Exporter)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.Errorf("tracing sample ratio %v not in [0, 1]", c.SampleRatio)
	}
	return nil
}

// NewProvider builds a tracer provider exporting as cfg says. Stdout spans go to w, or os.Stdout if w is nil.
// The caller owns the provider and must Shutdown it to flush pending spans.
func NewProvider(ctx context.Context, cfg *Config, w io.Writer) (*sdktrace.TracerProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	exp, err := newExporter(ctx, cfg, w)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "itetris"),
	))
	if err != nil {
		return nil, errors.Wrap(err, "create resource")
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	logger.Infof("tracing enabled: exporter=%s service=%s ratio=%.2f", cfg.Exporter, cfg.ServiceName, cfg.SampleRatio)
	return tp, nil
}

func newExporter(ctx context.Context, cfg *Config, w io.Writer) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout:
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	case ExporterOtlp:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		return otlptrace.New(ctx, client)
	default:
		return nil, errors.Errorf("tracing exporter %q does not export", cfg.Exporter)
	}
}

// Shutdown flushes and stops tp, waiting at most timeout.
func Shutdown(tp *sdktrace.TracerProvider, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.Warnf("tracing shutdown failed: %v", err)
	}
}

var _ server.Observer = (*Observer)(nil)

// Observer records server activity as spans. The server reports a command once it is done, so spans are
// started back-dated by the elapsed time.
type Observer struct {
	tracer  trace.Tracer
	ts      TimeStep
	msgCtx  context.Context
	msgSpan trace.Span
}

func NewObserver(tp trace.TracerProvider) *Observer {
	return &Observer{tracer: tp.Tracer(tracerName), ts: InvalidTimeStep}
}

func (o *Observer) StepStarted(ts TimeStep) {
	o.ts = ts
}

func (o *Observer) CommandHandled(cmd protocol.CommandId, status protocol.Status, elapsed time.Duration) {
	end := time.Now()
	start := end.Add(-elapsed)
	o.startMessage(start)

	name := protocol.CommandName(cmd)
	_, span := o.tracer.Start(o.msgCtx, "baseapp/"+name, trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.Int("baseapp.command_id", int(cmd)),
			attribute.String("baseapp.command", name),
			attribute.Int("baseapp.status", int(status)),
		))
	if o.ts != InvalidTimeStep {
		span.SetAttributes(attribute.Int64("baseapp.timestep", int64(o.ts)))
	}
	if status == protocol.StatusError {
		span.SetStatus(codes.Error, "command failed")
	}
	span.End(trace.WithTimestamp(end))
}

func (o *Observer) MessageHandled(frames int, replyBytes int) {
	o.startMessage(time.Now())
	o.msgSpan.SetAttributes(
		attribute.Int("baseapp.frames", frames),
		attribute.Int("baseapp.reply_bytes", replyBytes),
	)
	o.msgSpan.End()
	o.msgCtx, o.msgSpan = nil, nil
}

func (o *Observer) Snapshot(server.Snapshot) {}

func (o *Observer) startMessage(start time.Time) {
	if o.msgSpan != nil {
		return
	}
	o.msgCtx, o.msgSpan = o.tracer.Start(context.Background(), "baseapp/message",
		trace.WithSpanKind(trace.SpanKindServer), trace.WithTimestamp(start))
}
