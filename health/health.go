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

// Package health publishes the state of the control connection through the standard gRPC
// health checking protocol.
package health

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/server"
)

// ControlService is the health service name that reports whether a simulator is connected.
const ControlService = "itetris.baseapp.Control"

var _ server.StatusListener = (*Service)(nil)

type Service struct {
	grpcServer *grpc.Server
	health     *health.Server
}

// New creates the health service. The process is reported SERVING and the control service
// NOT_SERVING until a connection is accepted.
func New() *Service {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ControlService, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	return &Service{
		grpcServer: gs,
		health:     hs,
	}
}

// SetServing may be called from any goroutine.
func (s *Service) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	logger.Debugf("health: %s -> %s", ControlService, status)
	s.health.SetServingStatus(ControlService, status)
}

// Health returns the underlying health server.
func (s *Service) Health() healthpb.HealthServer {
	return s.health
}

// Serve blocks until Stop is called or l fails.
func (s *Service) Serve(l net.Listener) error {
	logger.Infof("health service listening on %s", l.Addr())
	return s.grpcServer.Serve(l)
}

// Stop reports every service NOT_SERVING and stops the gRPC server.
func (s *Service) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
