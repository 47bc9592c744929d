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

// Package metrics exposes the baseApp server activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/server"
	. "github.com/itetris/baseapp/types"
)

var _ server.Observer = (*Collector)(nil)

// Collector bundles the baseApp Prometheus metrics and implements server.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	Commands         *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec
	Messages         prometheus.Counter
	Frames           prometheus.Counter
	ReplyBytes       prometheus.Counter
	CurrentStep      prometheus.Gauge

	MobileNodes     prometheus.Gauge
	FixedNodes      prometheus.Gauge
	Payloads        prometheus.Gauge
	PendingEvents   prometheus.Gauge
	Steps           prometheus.Gauge
	PayloadsExpired prometheus.Gauge
	NodesReaped     prometheus.Gauge
}

// NewCollector registers the baseApp metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "baseapp_commands_total",
		Help: "Total number of handled control commands, labeled by command and reply status.",
	}, []string{"command", "status"}), "baseapp_commands_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baseapp_command_duration_seconds",
		Help:    "Control command handling latency in seconds.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"command"}), "baseapp_command_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &Collector{
		gatherer:         gatherer,
		Commands:         commands,
		CommandDurations: durations,
	}
	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&c.Messages, "baseapp_messages_total", "Total number of transport messages handled."},
		{&c.Frames, "baseapp_frames_total", "Total number of command frames handled."},
		{&c.ReplyBytes, "baseapp_reply_bytes_total", "Total number of reply bytes written."},
	}
	for _, ct := range counters {
		if *ct.dst, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: ct.name, Help: ct.help}), ct.name); err != nil {
			return nil, err
		}
	}
	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.CurrentStep, "baseapp_current_timestep", "Simulation time step of the last command."},
		{&c.MobileNodes, "baseapp_mobile_nodes", "Current number of mobile nodes."},
		{&c.FixedNodes, "baseapp_fixed_nodes", "Current number of fixed nodes."},
		{&c.Payloads, "baseapp_payloads", "Current number of stored payloads."},
		{&c.PendingEvents, "baseapp_pending_events", "Current number of scheduled events."},
		{&c.Steps, "baseapp_steps", "Number of distinct time steps seen."},
		{&c.PayloadsExpired, "baseapp_payloads_expired", "Number of payloads removed by expiry."},
		{&c.NodesReaped, "baseapp_nodes_reaped", "Number of stale nodes removed."},
	}
	for _, g := range gauges {
		if *g.dst, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) CommandHandled(cmd protocol.CommandId, status protocol.Status, elapsed time.Duration) {
	name := protocol.CommandName(cmd)
	c.Commands.WithLabelValues(name, statusName(status)).Inc()
	c.CommandDurations.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (c *Collector) MessageHandled(frames int, replyBytes int) {
	c.Messages.Inc()
	c.Frames.Add(float64(frames))
	c.ReplyBytes.Add(float64(replyBytes))
}

func (c *Collector) StepStarted(ts TimeStep) {
	c.CurrentStep.Set(float64(ts))
}

func (c *Collector) Snapshot(s server.Snapshot) {
	c.MobileNodes.Set(float64(s.MobileNodes))
	c.FixedNodes.Set(float64(s.FixedNodes))
	c.Payloads.Set(float64(s.Payloads))
	c.PendingEvents.Set(float64(s.PendingEvents))
	c.Steps.Set(float64(s.StepIndex))
	c.PayloadsExpired.Set(float64(s.PayloadsExpired))
	c.NodesReaped.Set(float64(s.NodesReaped))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func statusName(status protocol.Status) string {
	switch status {
	case protocol.StatusOK:
		return "ok"
	case protocol.StatusNotImplemented:
		return "not_implemented"
	default:
		return "error"
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
