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

// Package config reads the baseApp yaml configuration file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/itetris/baseapp/logger"
	"github.com/itetris/baseapp/nodehandler"
	"github.com/itetris/baseapp/server"
	"github.com/itetris/baseapp/tracing"
)

// File is the layout of the configuration file. Node handler settings sit at the top level.
type File struct {
	Listen        string   `yaml:"listen"`
	MetricsAddr   string   `yaml:"metrics,omitempty"`
	HealthAddr    string   `yaml:"health,omitempty"`
	CaptureFile   string   `yaml:"pcap,omitempty"`
	LogLevel      string   `yaml:"logLevel"`
	LogOutputs    []string `yaml:"logOutputs,omitempty"`
	TaskQueueSize int      `yaml:"taskQueueSize"`

	Tracing tracing.Config `yaml:"tracing"`

	NodeHandler nodehandler.Config `yaml:",inline"`
}

func Default() *File {
	srv := server.DefaultConfig()
	return &File{
		Listen:        srv.ListenAddr,
		LogLevel:      logger.GetLevelString(logger.DefaultLevel),
		TaskQueueSize: srv.TaskQueueSize,
		Tracing:       *tracing.DefaultConfig(),
		NodeHandler:   *nodehandler.DefaultConfig(),
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default value.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return f, nil
}

func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Validate() error {
	if f.Listen == "" {
		return errors.New("listen address must be set")
	}
	if f.TaskQueueSize <= 0 {
		return errors.Errorf("taskQueueSize must be positive, got %d", f.TaskQueueSize)
	}
	if _, err := logger.ParseLevelString(f.LogLevel); err != nil {
		return err
	}
	if err := f.Tracing.Validate(); err != nil {
		return err
	}
	if f.NodeHandler.Behaviour == nil {
		return errors.New("behaviour section must not be null")
	}
	return f.NodeHandler.Validate()
}

// Level returns the configured log level; Validate has already rejected unknown names.
func (f *File) Level() logger.Level {
	lv, _ := logger.ParseLevelString(f.LogLevel)
	return lv
}

func (f *File) ServerConfig() *server.Config {
	return &server.Config{
		ListenAddr:    f.Listen,
		TaskQueueSize: f.TaskQueueSize,
	}
}

func (f *File) NodeHandlerConfig() *nodehandler.Config {
	cfg := f.NodeHandler
	return &cfg
}

// Marshal renders the effective configuration.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
