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

package exporter

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/streamsplit/common"
	"github.com/packetd/streamsplit/confengine"
	"github.com/packetd/streamsplit/framer"
	"github.com/packetd/streamsplit/internal/pubsub"
	"github.com/packetd/streamsplit/internal/rescue"
	"github.com/packetd/streamsplit/logger"
)

func newError(format string, args ...any) error {
	format = "exporter: " + format
	return errors.Errorf(format, args...)
}

var (
	exportedFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "exported_frames_total",
			Help:      "Exported frames total",
		},
		[]string{"sinker"},
	)

	exportFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "export_failed_total",
			Help:      "Export failed total",
		},
		[]string{"sinker"},
	)
)

type Exporter struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config
	wg     sync.WaitGroup

	sinkers []Sinker
}

func New(conf *confengine.Config) (*Exporter, error) {
	var cfg Config
	if err := conf.UnpackChild("exporter", &cfg); err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig 使用已经解析好的配置创建 *Exporter 实例
func NewWithConfig(cfg Config) (*Exporter, error) {
	if err := cfg.Frames.Validate(); err != nil {
		return nil, err
	}

	var sinkers []Sinker
	if cfg.Frames.Enabled {
		var names []string
		if cfg.Frames.Console {
			names = append(names, SinkerConsole)
		}
		if cfg.Frames.Filename != "" {
			names = append(names, SinkerFile)
		}

		for _, name := range names {
			sinker, err := Get(name)(cfg.Frames)
			if err != nil {
				return nil, err
			}
			sinkers = append(sinkers, sinker)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Exporter{
		ctx:     ctx,
		cancel:  cancel,
		conf:    cfg,
		sinkers: sinkers,
	}, nil
}

// QueueSize 返回订阅队列的长度
func (e *Exporter) QueueSize() int {
	return e.conf.Frames.Buffer
}

// Start 持续消费 q 中的 frame 直到 Close 被调用
func (e *Exporter) Start(q pubsub.Queue[*framer.Frame]) {
	if len(e.sinkers) == 0 {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer rescue.HandleCrash()

		for {
			frame, ok := q.Pop(e.ctx)
			if !ok {
				return
			}
			e.Export(frame)
		}
	}()
}

// Export 将 frame 写入所有 Sinker
func (e *Exporter) Export(frame *framer.Frame) {
	for _, sinker := range e.sinkers {
		if err := sinker.Sink(frame); err != nil {
			exportFailed.WithLabelValues(sinker.Name()).Inc()
			logger.Errorf("sink frame (%s#%d) to %s failed: %v", frame.Conn, frame.Index, sinker.Name(), err)
			continue
		}
		exportedFrames.WithLabelValues(sinker.Name()).Inc()
	}
}

func (e *Exporter) Close() error {
	e.cancel()
	e.wg.Wait()

	var errs error
	for _, sinker := range e.sinkers {
		if err := sinker.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "close sinker %s", sinker.Name()))
		}
	}
	return errs
}
