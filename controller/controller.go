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

package controller

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/exporter"
	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/pubsub"
	"github.com/packetd/streamsplit/internal/rescue"
	"github.com/packetd/streamsplit/logger"
	"github.com/packetd/streamsplit/server"
)

func newError(format string, args ...any) error {
	format = "controller: " + format
	return errors.Errorf(format, args...)
}

type Controller struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       Config
	buildInfo common.BuildInfo

	bus       *pubsub.PubSub[*framer.Frame]
	exp       *exporter.Exporter
	svr       *server.Server
	listeners []*listener
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}

	opts.Validate()
	logger.SetOptions(opts)
	return nil
}

func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Listeners) == 0 {
		return nil, newError("no listeners configured")
	}

	exp, err := exporter.New(conf)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	bus := pubsub.New[*framer.Frame]()
	listeners := make([]*listener, 0, len(cfg.Listeners))
	for _, lc := range cfg.Listeners {
		listeners = append(listeners, newListener(lc, cfg, bus))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		buildInfo: buildInfo,
		bus:       bus,
		exp:       exp,
		svr:       svr,
		listeners: listeners,
	}, nil
}

func (c *Controller) Start() error {
	for i, l := range c.listeners {
		if err := l.listen(); err != nil {
			for _, opened := range c.listeners[:i] {
				opened.abort()
			}
			return err
		}
	}

	if c.svr != nil {
		if err := c.svr.Listen(); err != nil {
			for _, l := range c.listeners {
				l.abort()
			}
			return err
		}
		c.setupServer()
		rescue.Go(func() {
			if err := c.svr.Serve(); !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("failed to start server: %v", err)
			}
		})
	}

	c.exp.Start(c.bus.Subscribe(c.exp.QueueSize()))
	for _, l := range c.listeners {
		rescue.Go(func() { l.serve(c.ctx) })
	}
	return nil
}

// ListenerAddr 返回 name 对应 listener 实际监听的地址
func (c *Controller) ListenerAddr(name string) string {
	for _, l := range c.listeners {
		if l.cfg.Name != name {
			continue
		}
		if addr := l.addr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}

// ServerAddr 返回 admin server 实际监听的地址
func (c *Controller) ServerAddr() string {
	if c.svr == nil {
		return ""
	}
	return c.svr.Addr()
}

// Subscribe 订阅所有 listener 切分出来的 frame
func (c *Controller) Subscribe(size int) pubsub.Queue[*framer.Frame] {
	return c.bus.Subscribe(size)
}

func (c *Controller) Unsubscribe(q pubsub.Queue[*framer.Frame]) {
	c.bus.Unsubscribe(q)
}

func (c *Controller) recordMetrics() {
	uptime.Set(common.Uptime().Seconds())
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Set(1)
}

// Stop 停止所有 listener 并等待活跃链接退出
func (c *Controller) Stop() error {
	c.cancel()

	var errs error
	for _, l := range c.listeners {
		if err := l.close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = multierror.Append(errs, err)
		}
	}

	if c.svr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.svr.Shutdown(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := c.exp.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	logger.Sync()
	return errs
}
