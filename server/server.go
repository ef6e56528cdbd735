// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/logger"
)

type Config struct {
	Enabled bool          `config:"enabled"`
	Address string        `config:"address"`
	Pprof   bool          `config:"pprof"`
	Timeout time.Duration `config:"timeout"`
}

func (c *Config) Validate() error {
	if c.Address == "" {
		c.Address = "127.0.0.1:9091"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

type Server struct {
	config Config
	router *mux.Router
	server *http.Server

	mut sync.Mutex
	ln  net.Listener
}

// New 创建并返回 Server 实例
//
// 当 .Enabled 为 false 时会返回空指针 调用方需先判断
func New(conf *confengine.Config) (*Server, error) {
	var config Config
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	if !config.Enabled {
		return nil, nil
	}
	return NewWithConfig(config), nil
}

// NewWithConfig 使用已经解析好的配置创建 Server 实例
func NewWithConfig(config Config) *Server {
	config.Validate()

	router := mux.NewRouter()
	s := &Server{
		config: config,
		router: router,
		server: &http.Server{
			Handler:     router,
			ReadTimeout: config.Timeout,
		},
	}
	if config.Pprof {
		s.registerPprofRoutes()
	}
	return s
}

// Listen 绑定监听地址 需要在 Serve 之前调用
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}

	s.mut.Lock()
	s.ln = l
	s.mut.Unlock()

	logger.Infof("server listening on %s", l.Addr())
	return nil
}

// Addr 返回实际监听的地址 未监听时返回空字符串
func (s *Server) Addr() string {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve 处理请求直到 Shutdown 被调用 此时返回 http.ErrServerClosed
func (s *Server) Serve() error {
	s.mut.Lock()
	l := s.ln
	s.mut.Unlock()

	if l == nil {
		return newError("server is not listening")
	}
	return s.server.Serve(l)
}

func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler 返回路由实例
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) RegisterGetRoute(path string, f http.HandlerFunc) {
	s.router.Methods(http.MethodGet).Path(path).HandlerFunc(f)
}

func (s *Server) RegisterPostRoute(path string, f http.HandlerFunc) {
	s.router.Methods(http.MethodPost).Path(path).HandlerFunc(f)
}

func (s *Server) registerPprofRoutes() {
	s.RegisterGetRoute("/debug/pprof/cmdline", pprof.Cmdline)
	s.RegisterGetRoute("/debug/pprof/profile", pprof.Profile)
	s.RegisterGetRoute("/debug/pprof/symbol", pprof.Symbol)
	s.RegisterGetRoute("/debug/pprof/trace", pprof.Trace)
	s.RegisterGetRoute("/debug/pprof/{other}", pprof.Index)
}

func newError(format string, args ...any) error {
	return errors.Errorf("server: "+format, args...)
}
