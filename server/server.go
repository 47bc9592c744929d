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

// Package server implements the control connection to iCS. One goroutine owns the node handler and
// everything below it: it reads one transport message at a time, dispatches every frame in it and
// answers with a single batched reply. Console tasks are posted onto the same goroutine.
package server

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/progctx"
	"github.com/itetris/baseapp/protocol"
	"github.com/itetris/baseapp/storage"
	. "github.com/itetris/baseapp/types"
)

type State int

const (
	StateWaiting State = iota // no connection yet
	StateIdle                 // blocked on the next message
	StateDispatch
	StateFlush
	StateClosing
	StateClosed
)

func (st State) String() string {
	switch st {
	case StateWaiting:
		return "waiting"
	case StateIdle:
		return "idle"
	case StateDispatch:
		return "dispatch"
	case StateFlush:
		return "flush"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(st))
	}
}

var ErrClosed = errors.New("server closed")

type Stats struct {
	Messages       uint64
	Frames         uint64
	NotImplemented uint64
	Malformed      uint64
	LengthMismatch uint64
}

type handlerFunc func(body *storage.Storage, out *storage.Storage) protocol.Status

type Server struct {
	ctx      *progctx.ProgCtx
	cfg      *Config
	nh       *nodehandler.NodeHandler
	handlers map[protocol.CommandId]handlerFunc
	taskChan chan func()
	observer Observer
	status   StatusListener
	recorder MessageRecorder

	conn    net.Conn
	state   State
	closing bool
	stats   Stats
}

func NewServer(ctx *progctx.ProgCtx, cfg *Config, nh *nodehandler.NodeHandler) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	queue := cfg.TaskQueueSize
	if queue <= 0 {
		queue = DefaultConfig().TaskQueueSize
	}
	s := &Server{
		ctx:      ctx,
		cfg:      cfg,
		nh:       nh,
		taskChan: make(chan func(), queue),
		observer: noopObserver{},
		status:   noopStatusListener{},
		recorder: noopRecorder{},
		state:    StateWaiting,
	}
	s.handlers = map[protocol.CommandId]handlerFunc{
		protocol.CmdCreateMobileNode:        s.handleCreateMobileNode,
		protocol.CmdRemoveMobileNode:        s.handleRemoveMobileNode,
		protocol.CmdAskForSubscription:      s.handleAskForSubscription,
		protocol.CmdEndSubscription:         s.handleEndSubscription,
		protocol.CmdMobilityInformation:     s.handleMobilityInformation,
		protocol.CmdTrafficLightInformation: s.handleTrafficLightInformation,
		protocol.CmdAppMessageReceive:       s.handleAppMessageReceive,
		protocol.CmdAppMessageSendConfirm:   s.handleAppMessageSendConfirm,
		protocol.CmdNotifyAppExecute:        s.handleNotifyAppExecute,
		protocol.CmdSumoTraciCommand:        s.handleSumoTraciCommand,
		protocol.CmdReceivedCamInfo:         s.handleReceivedCamInfo,
		protocol.CmdAppClose:                s.handleAppClose,
	}
	return s
}

// SetObserver must be called before serving.
func (s *Server) SetObserver(o Observer) {
	s.observer = o
}

// SetStatusListener must be called before serving.
func (s *Server) SetStatusListener(l StatusListener) {
	s.status = l
}

// SetRecorder must be called before serving.
func (s *Server) SetRecorder(r MessageRecorder) {
	s.recorder = r
}

// The accessors below must only be used from the server goroutine, e.g. inside a posted task.

func (s *Server) State() State {
	return s.state
}

func (s *Server) Stats() Stats {
	return s.stats
}

func (s *Server) NodeHandler() *nodehandler.NodeHandler {
	return s.nh
}

// PostAsync queues task to run on the server goroutine. A trivial task is dropped if the queue is full.
func (s *Server) PostAsync(trivial bool, task func()) {
	if trivial {
		select {
		case s.taskChan <- task:
		default:
		}
	} else {
		s.taskChan <- task
	}
}

// PostSync runs task on the server goroutine and waits for it. It returns false if the server stopped
// before the task ran.
func (s *Server) PostSync(task func()) bool {
	done := make(chan struct{})
	select {
	case s.taskChan <- func() {
		defer close(done)
		task()
	}:
	case <-s.ctx.Done():
		return false
	}
	select {
	case <-done:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) runTask(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Errorf("server task failed: %+v", err)
		}
	}()
	f()
}

// Serve accepts one control connection on l and serves it until it closes. Console tasks are handled
// while waiting.
func (s *Server) Serve(l net.Listener) error {
	connChan := make(chan net.Conn, 1)
	acceptErr := make(chan error, 1)
	s.ctx.Go("accept", func() {
		conn, err := l.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		connChan <- conn
	})
	logger.Infof("waiting for iCS on %s", l.Addr())

	for {
		select {
		case conn := <-connChan:
			_ = l.Close()
			return s.ServeConn(conn)
		case err := <-acceptErr:
			if s.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept")
		case f := <-s.taskChan:
			s.runTask(f)
		case <-s.ctx.Done():
			_ = l.Close()
			return nil
		}
	}
}

// ServeConn serves conn until iCS closes the application, the connection breaks, or the program context
// is canceled. A server serves at most one connection.
func (s *Server) ServeConn(conn net.Conn) error {
	if s.closing || s.state != StateWaiting {
		if conn != nil {
			_ = conn.Close()
		}
		return ErrClosed
	}
	s.conn = conn
	s.status.SetServing(true)
	logger.Infof("iCS connected from %s", conn.RemoteAddr())

	stop := make(chan struct{})
	msgChan := make(chan []byte)
	readErr := make(chan error, 1)
	defer func() {
		close(stop)
		_ = conn.Close()
		s.closing = true
		s.state = StateClosed
		s.nh.Close()
		s.status.SetServing(false)
	}()

	s.ctx.Go("reader", func() {
		for {
			content, err := protocol.ReadMessage(conn)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgChan <- content:
			case <-stop:
				return
			}
		}
	})

	for {
		s.state = StateIdle
		select {
		case content := <-msgChan:
			if err := s.handleMessage(content); err != nil {
				return err
			}
			if s.closing {
				logger.Infof("iCS closed the application")
				return nil
			}
		case err := <-readErr:
			if s.ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.Wrap(err, "connection closed by iCS")
			}
			return errors.Wrap(err, "read")
		case f := <-s.taskChan:
			s.runTask(f)
		case <-s.ctx.Done():
			return nil
		}
	}
}

// handleMessage dispatches every frame of one transport message and writes the batched reply. Only a
// broken frame header or a failed write is an error.
func (s *Server) handleMessage(content []byte) error {
	s.state = StateDispatch
	s.stats.Messages++
	in := storage.FromBytes(content)
	out := storage.New()
	frames := 0
	for in.ValidPos() {
		if s.closing {
			logger.Warnf("ignoring %d bytes after APP_CLOSE", in.Remaining())
			break
		}
		h, err := protocol.ReadFrameHeader(in)
		if err != nil {
			return err
		}
		frames++
		s.dispatch(&h, storage.FromBytes(content[in.Position():h.End]), out)
		in.Seek(h.End)
	}
	s.stats.Frames += uint64(frames)

	s.state = StateFlush
	ts := s.nh.Env().TimeStep
	s.recorder.RecordMessage(ts, true, content)
	s.recorder.RecordMessage(ts, false, out.Bytes())
	if err := protocol.WriteMessage(s.conn, out.Bytes()); err != nil {
		return errors.Wrap(err, "write reply")
	}
	s.observer.MessageHandled(frames, out.Size())
	s.observer.Snapshot(s.snapshot())
	if s.closing {
		s.state = StateClosing
	}
	return nil
}

func (s *Server) dispatch(h *protocol.FrameHeader, body *storage.Storage, out *storage.Storage) {
	if h.HasTimeStep() && s.nh.UpdateTimeStep(h.TimeStep) {
		logger.Tracef("time step %d", h.TimeStep)
		s.observer.StepStarted(h.TimeStep)
	}
	start := time.Now()
	handler, ok := s.handlers[h.Command]
	if !ok {
		s.stats.NotImplemented++
		logger.Warnf("command 0x%02x not implemented, skipping %d bytes", h.Command, body.Size())
		protocol.AppendReply(out, h.Command, protocol.StatusNotImplemented,
			fmt.Sprintf("Command 0x%02x not implemented", h.Command), nil)
		s.observer.CommandHandled(h.Command, protocol.StatusNotImplemented, time.Since(start))
		return
	}
	status := handler(body, out)
	if body.Err() == nil && body.Remaining() != 0 {
		s.stats.LengthMismatch++
		logger.Warnf("%s: frame length %d, %d bytes not consumed", protocol.CommandName(h.Command), h.Length,
			body.Remaining())
	}
	s.observer.CommandHandled(h.Command, status, time.Since(start))
}

func (s *Server) snapshot() Snapshot {
	mobile, fixed := s.nh.CountNodes()
	stats := s.nh.Stats()
	env := s.nh.Env()
	return Snapshot{
		MobileNodes:     mobile,
		FixedNodes:      fixed,
		Payloads:        env.Payloads.Len(),
		PendingEvents:   env.Scheduler.Len(),
		StepIndex:       s.nh.StepIndex(),
		PayloadsExpired: stats.PayloadsExpired,
		NodesReaped:     stats.StaleNodesReaped,
	}
}

// CurrentTimeStep returns the step being processed.
func (s *Server) CurrentTimeStep() TimeStep {
	return s.nh.Env().TimeStep
}
